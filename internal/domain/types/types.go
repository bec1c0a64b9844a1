// Package types contains records shared by the service, its stores and the
// HTTP adapter.
package types

import "time"

// Entry is a row of the all-time leaderboard.
type Entry struct {
	Rank     int    `json:"rank"`
	SkaterID string `json:"skaterId"`
	Name     string `json:"name"`
	Points   int    `json:"points"`
	Sessions int    `json:"sessions"`
}

// Less orders entries by points, then skater id so equal scores stay stable.
func (e Entry) Less(o Entry) bool {
	if e.Points != o.Points {
		return e.Points > o.Points
	}
	return e.SkaterID < o.SkaterID
}

// Summary describes one ended session.
type Summary struct {
	ID         string    `json:"id" yaml:"id"`
	Kind       string    `json:"kind" yaml:"kind"`
	Seed       uint64    `json:"seed" yaml:"seed"`
	Ticks      int       `json:"ticks" yaml:"ticks"`
	Skaters    int       `json:"skaters" yaml:"skaters"`
	Attempts   int       `json:"attempts" yaml:"attempts"`
	Landed     int       `json:"landed" yaml:"landed"`
	Retries    int       `json:"retries" yaml:"retries"`
	NoAttempts int       `json:"noAttempts" yaml:"noAttempts"`
	Points     int       `json:"points" yaml:"points"`
	StartedAt  time.Time `json:"startedAt" yaml:"startedAt"`
	EndedAt    time.Time `json:"endedAt" yaml:"endedAt"`
}

// LandRate is landed over attempted, 0 with no attempts.
func (s Summary) LandRate() float64 {
	if s.Attempts == 0 {
		return 0
	}
	return float64(s.Landed) / float64(s.Attempts)
}
