package model

import "time"

// Article is a market headline shown next to the portfolio.
type Article struct {
	Title     string
	Link      string
	Source    string
	Published time.Time // zero if the feed omitted it
}
