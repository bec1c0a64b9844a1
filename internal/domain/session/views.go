package session

import (
	"cmp"
	"slices"
)

// TimelineEntry is a skater's window in the session.
type TimelineEntry struct {
	SkaterID string `json:"skaterId"`
	Name     string `json:"name"`
	Initials string `json:"initials"`
	Arrival  int    `json:"arrival"`
	Energy   int    `json:"energy"`
	Leave    int    `json:"leave"`
}

// Timeline lists the entrants by arrival tick.
func (s State) Timeline() []TimelineEntry {
	out := make([]TimelineEntry, 0, len(s.Entrants))
	for _, e := range s.Entrants {
		out = append(out, TimelineEntry{
			SkaterID: e.Skater.ID,
			Name:     e.Skater.Name,
			Initials: e.Skater.Initials,
			Arrival:  e.Arrival,
			Energy:   e.Energy,
			Leave:    e.Departure(),
		})
	}
	slices.SortStableFunc(out, func(a, b TimelineEntry) int { return cmp.Compare(a.Arrival, b.Arrival) })
	return out
}

// NoStart labels active skaters that got no spot this tick.
const NoStart = "No start chosen this tick"

// RunEntry says where an active skater starts this tick.
type RunEntry struct {
	SkaterID   string `json:"skaterId"`
	Name       string `json:"name"`
	Initials   string `json:"initials"`
	StartingOn string `json:"startingOn"`
	EnergyLeft int    `json:"energyLeft"`
}

// Runs lists the skaters active at the current tick.
func (s State) Runs() []RunEntry {
	if s.Tick < 1 {
		return nil
	}
	var out []RunEntry
	for _, e := range s.Entrants {
		if !e.ActiveAt(s.Tick) {
			continue
		}
		label := NoStart
		if i := slices.IndexFunc(s.Assignments, func(a Assignment) bool { return a.SkaterID == e.Skater.ID }); i >= 0 {
			label = s.Assignments[i].Label
		}
		out = append(out, RunEntry{
			SkaterID:   e.Skater.ID,
			Name:       e.Skater.Name,
			Initials:   e.Skater.Initials,
			StartingOn: label,
			EnergyLeft: max(0, e.Arrival+e.Energy-s.Tick),
		})
	}
	return out
}

// Standing is a skater's place on the session scoreboard.
type Standing struct {
	Rank     int    `json:"rank" yaml:"rank"`
	SkaterID string `json:"skaterId" yaml:"skaterId"`
	Name     string `json:"name" yaml:"name"`
	Points   int    `json:"points" yaml:"points"`
	Landed   int    `json:"landed" yaml:"landed"`
	Attempts int    `json:"attempts" yaml:"attempts"`
}

// Scoreboard ranks every entrant by points, then landed tricks, then name.
// No-attempt records do not count as attempts.
func (s State) Scoreboard() []Standing {
	byID := make(map[string]*Standing, len(s.Entrants))
	out := make([]Standing, len(s.Entrants))
	for i, e := range s.Entrants {
		out[i] = Standing{SkaterID: e.Skater.ID, Name: e.Skater.Name}
		byID[e.Skater.ID] = &out[i]
	}
	for _, a := range s.Log {
		st, ok := byID[a.SkaterID]
		if !ok || a.NoAttempt {
			continue
		}
		st.Attempts++
		st.Points += a.Points
		if a.Landed {
			st.Landed++
		}
	}
	slices.SortStableFunc(out, func(a, b Standing) int {
		if c := cmp.Compare(b.Points, a.Points); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Landed, a.Landed); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// Totals summarizes the attempt log.
type Totals struct {
	Attempts   int `json:"attempts"`
	Landed     int `json:"landed"`
	Retries    int `json:"retries"`
	NoAttempts int `json:"noAttempts"`
	Points     int `json:"points"`
}

// Totals adds up the attempt log.
func (s State) Totals() Totals {
	var t Totals
	for _, a := range s.Log {
		if a.NoAttempt {
			t.NoAttempts++
			continue
		}
		t.Attempts++
		t.Points += a.Points
		if a.Landed {
			t.Landed++
		}
		if a.Retry {
			t.Retries++
		}
	}
	return t
}
