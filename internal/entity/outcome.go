package entity

type OutcomeKind string

const (
	OutcomeWin     OutcomeKind = "win"
	OutcomeDraw    OutcomeKind = "draw"
	OutcomeForfeit OutcomeKind = "forfeit"
)

const drawLabel = "draw"

type Outcome struct {
	Kind   OutcomeKind `json:"kind"`
	Winner string      `json:"winner,omitempty"`
}

func NewWin(winner string) Outcome {
	return Outcome{Kind: OutcomeWin, Winner: winner}
}

func NewDraw() Outcome {
	return Outcome{Kind: OutcomeDraw}
}

func NewForfeit(winner string) Outcome {
	return Outcome{Kind: OutcomeForfeit, Winner: winner}
}

func (that Outcome) IsDraw() bool {
	return that.Kind == OutcomeDraw
}

// WinnerLabel - winner identity, or "draw".
func (that Outcome) WinnerLabel() string {
	if that.IsDraw() {
		return drawLabel
	}

	return that.Winner
}

// Reason - "forfeit" for a forfeit win, empty otherwise.
func (that Outcome) Reason() string {
	if that.Kind == OutcomeForfeit {
		return string(OutcomeForfeit)
	}

	return ""
}
