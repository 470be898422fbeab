package standing

import "time"

// Standing is one division table row for a player (or doubles pairing member).
// BestNPoints counts only the player's N best results, which keeps the table
// resistant to ties from uneven match counts.
type Standing struct {
	DivisionID  string
	SeasonID    string
	PlayerID    string
	Position    int
	Played      int
	Won         int
	Lost        int
	SetsWon     int
	SetsLost    int
	GamesWon    int
	GamesLost   int
	Points      int
	BestNPoints int
	UpdatedAt   time.Time
}
