package base

import (
	"strconv"
	"strings"
)

// Where собирает условие WHERE. Условия пишутся с "?",
// при сборке они нумеруются как $1, $2... в порядке добавления.
type Where struct {
	conds []string
	args  []any
}

// Add добавляет условие и его аргументы
func (w *Where) Add(cond string, args ...any) *Where {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
	return w
}

// Build возвращает " WHERE ..." (или пустую строку) и аргументы.
// offset - сколько плейсхолдеров уже занято в запросе до WHERE.
func (w *Where) Build(offset int) (string, []any) {
	if len(w.conds) == 0 {
		return "", nil
	}

	joined := strings.Join(w.conds, " AND ")
	var b strings.Builder
	b.WriteString(" WHERE ")
	n := offset
	for _, ch := range joined {
		if ch == '?' {
			n++
			b.WriteString("$")
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String(), w.args
}
