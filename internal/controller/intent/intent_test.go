package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse_RoundTripsEveryMenuButton(t *testing.T) {
	for _, menu := range [][][]Intent{ClientMenu, AdminMenu} {
		for _, row := range menu {
			for _, in := range row {
				label := in.Label()
				assert.NotEmpty(t, label)
				assert.Equal(t, in, Parse(label))
				assert.Equal(t, in, Parse("  "+label+"\n"))
			}
		}
	}
}

func TestParse_UnknownText(t *testing.T) {
	assert.Equal(t, None, Parse("привет"))
	assert.Equal(t, None, Parse(""))
	assert.Empty(t, CancelBooking.Label())
}

func TestParseRef(t *testing.T) {
	tests := []struct {
		text string
		want Ref
		ok   bool
	}{
		{"отменить #12", Ref{CancelBooking, 12}, true},
		{"/cancel 7", Ref{CancelBooking, 7}, true},
		{"Перенести #3", Ref{Reschedule, 3}, true},
		{"reschedule#44", Ref{Reschedule, 44}, true},
		{"/complete 5", Ref{Complete, 5}, true},
		{"завершить # 9", Ref{Complete, 9}, true},
		{"отменить", Ref{}, false},
		{"удалить #5", Ref{}, false},
		{"cancel #0", Ref{}, false},
		{"cancel #abc", Ref{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := ParseRef(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
