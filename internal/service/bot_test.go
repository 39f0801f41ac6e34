package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rocketscienceinc/fourinarow-backend/internal/entity"
)

func TestBotService_ChooseColumn(t *testing.T) {
	bot := NewBotService()
	botMarker, humanMarker := entity.MarkerYellow, entity.MarkerRed

	t.Run("Takes the center on an empty board", func(t *testing.T) {
		// Given: an empty board
		board := entity.NewBoard()

		// When: the bot picks a column
		column := bot.ChooseColumn(board, botMarker, humanMarker)

		// Then: it plays the center
		assert.Equal(t, entity.CenterColumn, column)
	})

	t.Run("Wins when it can", func(t *testing.T) {
		// Given: three bot markers in column 5 and a human threat on the bottom row
		board := entity.NewBoard()
		for i := 0; i < 3; i++ {
			board.ApplyMove(5, botMarker)
		}
		board.ApplyMove(0, humanMarker)
		board.ApplyMove(1, humanMarker)
		board.ApplyMove(2, humanMarker)

		// When: the bot picks a column
		column := bot.ChooseColumn(board, botMarker, humanMarker)

		// Then: winning beats blocking
		assert.Equal(t, 5, column)
	})

	t.Run("Blocks the human", func(t *testing.T) {
		// Given: the human has three in a row on the bottom, columns 1..3
		board := entity.NewBoard()
		board.ApplyMove(1, humanMarker)
		board.ApplyMove(2, humanMarker)
		board.ApplyMove(3, humanMarker)

		// When: the bot picks a column
		column := bot.ChooseColumn(board, botMarker, humanMarker)

		// Then: it blocks the lowest-indexed threat
		assert.Equal(t, 0, column)
	})

	t.Run("Picks the lowest winning column when several exist", func(t *testing.T) {
		// Given: bot lines completable at column 0 and at column 6
		board := entity.NewBoard()
		for i := 0; i < 3; i++ {
			board.ApplyMove(0, botMarker)
			board.ApplyMove(6, botMarker)
		}

		// When: the bot picks a column
		column := bot.ChooseColumn(board, botMarker, humanMarker)

		// Then: it takes column 0
		assert.Equal(t, 0, column)
	})

	t.Run("Falls back to the preference order when the center is full", func(t *testing.T) {
		// Given: the center column is full with no lines anywhere
		board := entity.NewBoard()
		for _, marker := range []entity.Marker{humanMarker, botMarker, humanMarker, botMarker, humanMarker, botMarker} {
			board.ApplyMove(entity.CenterColumn, marker)
		}

		// When: the bot picks a column
		column := bot.ChooseColumn(board, botMarker, humanMarker)

		// Then: it takes column 2, next in the preference order
		assert.Equal(t, 2, column)
	})

	t.Run("Does not mutate the given board", func(t *testing.T) {
		// Given: a board with one human marker
		board := entity.NewBoard()
		board.ApplyMove(4, humanMarker)
		snapshot := board

		// When: the bot picks a column
		bot.ChooseColumn(board, botMarker, humanMarker)

		// Then: the board is unchanged
		assert.Equal(t, snapshot, board)
	})
}
