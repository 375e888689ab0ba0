package formatting

// Pluralize выбирает форму слова для числа: 1 запись, 2 записи, 5 записей
func Pluralize[T ~int | ~int64](count T, one, few, many string) string {
	if count < 0 {
		count = -count
	}
	switch {
	case count%10 == 1 && count%100 != 11:
		return one
	case count%10 >= 2 && count%10 <= 4 && (count%100 < 10 || count%100 >= 20):
		return few
	default:
		return many
	}
}

// PluralizeBookings возвращает правильное склонение слова "запись"
func PluralizeBookings[T ~int | ~int64](count T) string {
	return Pluralize(count, "запись", "записи", "записей")
}

// PluralizeClients возвращает правильное склонение слова "клиент"
func PluralizeClients[T ~int | ~int64](count T) string {
	return Pluralize(count, "клиент", "клиента", "клиентов")
}

// PluralizeSlots возвращает правильное склонение слова "слот"
func PluralizeSlots[T ~int | ~int64](count T) string {
	return Pluralize(count, "слот", "слота", "слотов")
}
