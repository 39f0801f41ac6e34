package entity

// PlayerStats is a leaderboard row.
type PlayerStats struct {
	Username    string `json:"username" db:"username"`
	GamesPlayed int    `json:"games_played" db:"games_played"`
	GamesWon    int    `json:"games_won" db:"games_won"`
}
