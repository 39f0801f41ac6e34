package service

import (
	"github.com/rocketscienceinc/fourinarow-backend/internal/entity"
)

// columnPreference is tried in order when there is nothing to win or block.
var columnPreference = [entity.Columns]int{3, 2, 4, 1, 5, 0, 6}

type BotService interface {
	ChooseColumn(board entity.Board, botMarker, humanMarker entity.Marker) int
}

type botService struct{}

func NewBotService() BotService {
	return &botService{}
}

// ChooseColumn - picks a winning move, then a blocking move, then the center, then the preference order.
func (that *botService) ChooseColumn(board entity.Board, botMarker, humanMarker entity.Marker) int {
	if column, ok := that.findWinningColumn(board, botMarker); ok {
		return column
	}

	if column, ok := that.findWinningColumn(board, humanMarker); ok {
		return column
	}

	if board.IsValidMove(entity.CenterColumn) {
		return entity.CenterColumn
	}

	for _, column := range columnPreference {
		if board.IsValidMove(column) {
			return column
		}
	}

	// unreachable while the board has a free cell
	return 0
}

// findWinningColumn - the lowest column where marker completes four in a line.
func (that *botService) findWinningColumn(board entity.Board, marker entity.Marker) (int, bool) {
	for column := 0; column < entity.Columns; column++ {
		if !board.IsValidMove(column) {
			continue
		}

		probe := board
		probe.ApplyMove(column, marker)

		if probe.DetectWinner() == marker {
			return column, true
		}
	}

	return 0, false
}
