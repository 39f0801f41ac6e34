package entity

import "errors"

const (
	Rows    = 6
	Columns = 7

	CenterColumn = 3

	lineLength = 4
)

var ErrUnknownMarker = errors.New("unknown marker")

// Marker is the value occupying a board cell.
type Marker uint8

const (
	MarkerEmpty Marker = iota
	MarkerRed
	MarkerYellow
)

func (that Marker) String() string {
	switch that {
	case MarkerRed:
		return "red"
	case MarkerYellow:
		return "yellow"
	default:
		return ""
	}
}

// Opponent returns the marker of the other side.
func (that Marker) Opponent() Marker {
	switch that {
	case MarkerRed:
		return MarkerYellow
	case MarkerYellow:
		return MarkerRed
	default:
		return MarkerEmpty
	}
}

func (that Marker) MarshalText() ([]byte, error) {
	return []byte(that.String()), nil
}

func (that *Marker) UnmarshalText(text []byte) error {
	switch string(text) {
	case "":
		*that = MarkerEmpty
	case "red":
		*that = MarkerRed
	case "yellow":
		*that = MarkerYellow
	default:
		return ErrUnknownMarker
	}

	return nil
}

// Board is a 6x7 grid, row 0 is the top row.
type Board [Rows][Columns]Marker

func NewBoard() Board {
	return Board{}
}

// IsValidMove - reports whether a marker can be dropped into the column.
func (that *Board) IsValidMove(column int) bool {
	if column < 0 || column >= Columns {
		return false
	}

	return that[0][column] == MarkerEmpty
}

// ApplyMove - drops the marker into the lowest empty cell of the column and returns the landing cell.
// The caller must check IsValidMove first, row is -1 when the column is full.
func (that *Board) ApplyMove(column int, marker Marker) (int, int) {
	for row := Rows - 1; row >= 0; row-- {
		if that[row][column] == MarkerEmpty {
			that[row][column] = marker
			return row, column
		}
	}

	return -1, column
}

// DetectWinner - returns the marker that owns four in a line, or MarkerEmpty.
func (that *Board) DetectWinner() Marker {
	directions := [4][2]int{
		{0, 1},  // horizontal
		{1, 0},  // vertical
		{1, 1},  // diagonal down-right
		{1, -1}, // diagonal down-left
	}

	for row := 0; row < Rows; row++ {
		for col := 0; col < Columns; col++ {
			marker := that[row][col]
			if marker == MarkerEmpty {
				continue
			}

			for _, dir := range directions {
				if that.lineFrom(row, col, dir[0], dir[1], marker) {
					return marker
				}
			}
		}
	}

	return MarkerEmpty
}

func (that *Board) lineFrom(row, col, dRow, dCol int, marker Marker) bool {
	for step := 1; step < lineLength; step++ {
		r, c := row+dRow*step, col+dCol*step
		if r < 0 || r >= Rows || c < 0 || c >= Columns {
			return false
		}

		if that[r][c] != marker {
			return false
		}
	}

	return true
}

// IsFull - the top row has no empty cell.
func (that *Board) IsFull() bool {
	for _, cell := range that[0] {
		if cell == MarkerEmpty {
			return false
		}
	}

	return true
}
