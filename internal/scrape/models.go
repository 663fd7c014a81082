// Package scrape reads surf rankings and the event schedule from two fixed
// HTML pages and keeps the last good copy in memory.
package scrape

import "time"

// Ranking is one row of the athlete rankings table.
type Ranking struct {
	Rank    string `json:"rank"`
	Name    string `json:"name"`
	Country string `json:"country"`
	Points  string `json:"points"`
}

// Event is one upcoming or tentative contest.
type Event struct {
	Dates    string `json:"dates"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Tour     string `json:"tour"`
	Status   string `json:"status"`
}

// Snapshot is the result of one scrape of both pages.
type Snapshot struct {
	Rankings []Ranking `json:"rankings"`
	Events   []Event   `json:"events"`
}

// View is what readers get from the Cache.
type View struct {
	Snapshot
	FetchedAt time.Time
	// Stale is set when the last refresh failed and an older copy is served.
	Stale bool
}
