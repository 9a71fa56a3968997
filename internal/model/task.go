package model

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidDate = errors.New("model: invalid due date")

const secondsPerDay = 24 * 60 * 60

const (
	DueListLayout  = "02/01/2006"
	DueInputLayout = "01/02/2006"
)

// Task is the single persisted entity. DueDate counts days since 1970-01-01.
type Task struct {
	ID          int64
	Title       string
	Description string
	DueDate     int64
}

// EpochDay returns the calendar day of t, in t's own location, as days since the epoch.
func EpochDay(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay
}

func DayTime(day int64) time.Time {
	return time.Unix(day*secondsPerDay, 0).UTC()
}

func FormatDue(day int64) string {
	return DayTime(day).Format(DueListLayout)
}

func FormatDueInput(day int64) string {
	return DayTime(day).Format(DueInputLayout)
}

// ParseDue accepts MM/dd/yyyy, yyyy-mm-dd, "today", "tomorrow" and +N/-N day offsets
// relative to today.
func ParseDue(raw string, today int64) (int64, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch v {
	case "":
		return 0, fmt.Errorf("%w: empty", ErrInvalidDate)
	case "today":
		return today, nil
	case "tomorrow":
		return today + 1, nil
	case "yesterday":
		return today - 1, nil
	}
	if v[0] == '+' || v[0] == '-' {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
		}
		return today + int64(n), nil
	}
	for _, layout := range []string{DueInputLayout, time.DateOnly} {
		if tm, err := time.Parse(layout, v); err == nil {
			return EpochDay(tm), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
}

// SortByDueDate returns a copy ordered ascending by due date, ties broken by id.
func SortByDueDate(tasks []Task) []Task {
	out := slices.Clone(tasks)
	slices.SortStableFunc(out, func(a, b Task) int {
		if a.DueDate != b.DueDate {
			if a.DueDate < b.DueDate {
				return -1
			}
			return 1
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})
	return out
}

func Find(tasks []Task, id int64) (Task, bool) {
	for _, t := range tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}
