// Package stats records which chords were dispatched, per day.
package stats

import (
	"sort"
	"time"
)

const dateLayout = "2006-01-02"

// Record is one dispatched chord.
type Record struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Letter    string    `json:"letter"`
	Script    string    `json:"script"`
	Missing   bool      `json:"missing,omitempty"`
}

// Day aggregates one day of dispatches.
type Day struct {
	Date     string         `json:"date"`
	Records  []Record       `json:"records"`
	Letters  map[string]int `json:"letters"`
	Total    int            `json:"total"`
	Launched int            `json:"launched"`
}

func newDay(date string) *Day {
	return &Day{Date: date, Records: []Record{}, Letters: map[string]int{}}
}

func (d *Day) add(r Record) {
	d.Records = append(d.Records, r)
	d.Letters[r.Letter]++
	d.Total++
	if !r.Missing {
		d.Launched++
	}
}

// Totals aggregates every stored day.
type Totals struct {
	Days     int
	Total    int
	Launched int
	Letters  map[string]int
}

// TopLetters returns letters ordered by use, most used first.
func (t *Totals) TopLetters() []string {
	letters := make([]string, 0, len(t.Letters))
	for l := range t.Letters {
		letters = append(letters, l)
	}
	sort.Slice(letters, func(i, j int) bool {
		if t.Letters[letters[i]] != t.Letters[letters[j]] {
			return t.Letters[letters[i]] > t.Letters[letters[j]]
		}
		return letters[i] < letters[j]
	})
	return letters
}

// Manager is the entry point used by the daemon and CLI.
type Manager struct {
	storage *Storage
	now     func() time.Time
}

func NewManager(baseDir string) (*Manager, error) {
	storage, err := NewStorage(baseDir)
	if err != nil {
		return nil, err
	}
	return &Manager{storage: storage, now: time.Now}, nil
}

// RecordDispatch stores one dispatched chord.
func (m *Manager) RecordDispatch(id string, letter rune, script string, missing bool) (*Day, error) {
	return m.storage.Append(Record{
		ID:        id,
		Timestamp: m.now(),
		Letter:    string(letter),
		Script:    script,
		Missing:   missing,
	})
}

func (m *Manager) Today() (*Day, error) {
	return m.storage.Day(m.now().Format(dateLayout))
}

// RecentDays returns the last n days including today, oldest first.
func (m *Manager) RecentDays(n int) ([]*Day, error) {
	var days []*Day
	for i := n - 1; i >= 0; i-- {
		day, err := m.storage.Day(m.now().AddDate(0, 0, -i).Format(dateLayout))
		if err != nil {
			continue // Skip problematic days
		}
		days = append(days, day)
	}
	return days, nil
}

func (m *Manager) Totals() (*Totals, error) {
	days, err := m.storage.AllDays()
	if err != nil {
		return nil, err
	}
	totals := &Totals{Letters: map[string]int{}}
	for _, day := range days {
		if day.Total == 0 {
			continue
		}
		totals.Days++
		totals.Total += day.Total
		totals.Launched += day.Launched
		for l, n := range day.Letters {
			totals.Letters[l] += n
		}
	}
	return totals, nil
}

func (m *Manager) Clear() error {
	return m.storage.Clear()
}
