package keyboard

import (
	"fmt"
	"testing"

	"github.com/Freeeeeet/booking_bot/internal/controller/intent"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Grid(t *testing.T) {
	kb := NewBuilder().Grid([]models.InlineKeyboardButton{Button("1", "1"), Button("2", "2"), Button("3", "3")}, 2).Build()
	require.Len(t, kb.InlineKeyboard, 2)
	assert.Len(t, kb.InlineKeyboard[0], 2)
	assert.Len(t, kb.InlineKeyboard[1], 1)

	assert.Empty(t, NewBuilder().Row().Build().InlineKeyboard, "empty rows are skipped")
}

func TestPaginationButtons(t *testing.T) {
	assert.Nil(t, PaginationButtons("p:", 0, 1))

	first := PaginationButtons("p:", 0, 3)
	require.Len(t, first, 2)
	assert.Equal(t, Noop, first[0].CallbackData)
	assert.Equal(t, "p:1", first[1].CallbackData)

	middle := PaginationButtons("p:", 1, 3)
	require.Len(t, middle, 3)
	assert.Equal(t, "p:0", middle[0].CallbackData)
	assert.Equal(t, "📄 2/3", middle[1].Text)
}

func TestDatePage(t *testing.T) {
	var dates []string
	for d := 1; d <= 14; d++ {
		dates = append(dates, fmt.Sprintf("2026-01-%02d", d))
	}

	rows := DatePage(dates, 0, "d:", "pg:")
	require.Len(t, rows, 5, "four rows of dates and pagination")
	assert.Equal(t, "d:2026-01-01", rows[0][0].CallbackData)
	assert.Equal(t, "Чт 01.01", rows[0][0].Text)
	assert.Equal(t, "pg:1", rows[4][len(rows[4])-1].CallbackData)

	last := DatePage(dates, 7, "d:", "pg:")
	require.Len(t, last, 2, "page is clamped to the last one")
	assert.Equal(t, "d:2026-01-13", last[0][0].CallbackData)

	assert.Empty(t, DatePage(nil, 0, "d:", "pg:"))
}

func TestTimeGrid(t *testing.T) {
	rows := TimeGrid([]string{"10:00", "11:00", "12:00", "13:00", "14:00"}, "t:")
	require.Len(t, rows, 2)
	assert.Equal(t, "t:14:00", rows[1][0].CallbackData)
}

func TestMenu(t *testing.T) {
	kb := Menu(intent.ClientMenu)
	require.Len(t, kb.Keyboard, len(intent.ClientMenu))
	assert.Equal(t, intent.Book.Label(), kb.Keyboard[0][0].Text)
	assert.True(t, kb.ResizeKeyboard)

	contact := ContactRequest()
	assert.True(t, contact.Keyboard[0][0].RequestContact)
}
