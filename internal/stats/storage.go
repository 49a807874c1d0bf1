package stats

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

const dailyStatsDir = "daily"

// Storage keeps one JSON file per day under baseDir/daily.
type Storage struct {
	baseDir string
	mu      sync.Mutex
}

func NewStorage(baseDir string) (*Storage, error) {
	dailyDir := filepath.Join(baseDir, dailyStatsDir)
	if err := os.MkdirAll(dailyDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create stats directory: %w", err)
	}
	return &Storage{baseDir: baseDir}, nil
}

func (s *Storage) dayPath(date string) string {
	return filepath.Join(s.baseDir, dailyStatsDir, date+".json")
}

// Append adds a dispatch record to its day file.
func (s *Storage) Append(record Record) (*Day, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	date := record.Timestamp.Format(dateLayout)
	day, err := s.readDay(date)
	if err != nil {
		// A corrupt day file is replaced rather than blocking new records.
		day = newDay(date)
	}
	day.add(record)

	data, err := json.MarshalIndent(day, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(s.dayPath(date), data, 0o644); err != nil {
		return nil, fmt.Errorf("write stats for %s: %w", date, err)
	}
	return day, nil
}

// Day returns the stats for a date (YYYY-MM-DD); missing days are empty.
func (s *Storage) Day(date string) (*Day, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readDay(date)
}

func (s *Storage) readDay(date string) (*Day, error) {
	data, err := os.ReadFile(s.dayPath(date))
	if errors.Is(err, os.ErrNotExist) {
		return newDay(date), nil
	}
	if err != nil {
		return nil, err
	}

	var day Day
	if err := json.Unmarshal(data, &day); err != nil {
		return nil, fmt.Errorf("parse stats for %s: %w", date, err)
	}
	if day.Letters == nil {
		day.Letters = map[string]int{}
	}
	return &day, nil
}

// AllDays returns every stored day in chronological order, skipping
// unreadable files.
func (s *Storage) AllDays() ([]*Day, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := os.ReadDir(filepath.Join(s.baseDir, dailyStatsDir))
	if err != nil {
		return nil, nil
	}

	var dates []string
	for _, file := range files {
		if !file.IsDir() && filepath.Ext(file.Name()) == ".json" {
			dates = append(dates, file.Name()[:len(file.Name())-len(".json")])
		}
	}
	sort.Strings(dates)

	var days []*Day
	for _, date := range dates {
		day, err := s.readDay(date)
		if err != nil {
			continue // Skip problematic files
		}
		days = append(days, day)
	}
	return days, nil
}

// Clear removes every day file.
func (s *Storage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dailyDir := filepath.Join(s.baseDir, dailyStatsDir)
	files, err := os.ReadDir(dailyDir)
	if err != nil {
		return nil // Directory doesn't exist, nothing to clear
	}
	for _, file := range files {
		if !file.IsDir() && filepath.Ext(file.Name()) == ".json" {
			if err := os.Remove(filepath.Join(dailyDir, file.Name())); err != nil {
				return fmt.Errorf("failed to remove %s: %w", file.Name(), err)
			}
		}
	}
	return nil
}
