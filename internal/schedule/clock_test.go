package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTime(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "14", want: "14:00"},
		{in: "9:30", want: "09:30"},
		{in: "09:05", want: "09:05"},
		{in: " 7 ", want: "07:00"},
		{in: "0:00", want: "00:00"},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "12:5", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "", wantErr: true},
		{in: "123", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeTime(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidClock)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClockOf(t *testing.T) {
	at := time.Date(2026, 1, 10, 13, 45, 59, 0, time.UTC)
	assert.Equal(t, MustClock("13:45"), ClockOf(at))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-01-10")
	require.NoError(t, err)
	assert.Equal(t, time.Saturday, d.Weekday())

	_, err = ParseDate("10.01.2026")
	assert.Error(t, err)
}

func TestNormalizeDate(t *testing.T) {
	for _, in := range []string{"2026-01-10", " 2026-01-10", "2026-01-10\n", "\t2026-01-10 "} {
		got, err := NormalizeDate(in)
		require.NoError(t, err, "%q", in)
		assert.Equal(t, "2026-01-10", got)
	}

	_, err := NormalizeDate("2026-1-10")
	assert.Error(t, err)
	_, err = NormalizeDate("")
	assert.Error(t, err)
}
