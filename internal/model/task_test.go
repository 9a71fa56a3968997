package model

import (
	"errors"
	"testing"
	"time"
)

func TestEpochDayRoundTrip(t *testing.T) {
	day := EpochDay(time.Date(2024, 3, 18, 23, 59, 0, 0, time.UTC))
	if day != 19800 {
		t.Fatalf("expected epoch day 19800, got %d", day)
	}
	if got := DayTime(day).Format(time.DateOnly); got != "2024-03-18" {
		t.Fatalf("unexpected day time: %s", got)
	}
}

func TestEpochDayUsesLocalCalendarDate(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	early := time.Date(2024, 3, 19, 1, 0, 0, 0, loc)
	if day := EpochDay(early); day != 19801 {
		t.Fatalf("expected local calendar day 19801, got %d", day)
	}
}

func TestFormatDue(t *testing.T) {
	if got := FormatDue(19800); got != "18/03/2024" {
		t.Fatalf("unexpected list format: %q", got)
	}
	if got := FormatDueInput(19800); got != "03/18/2024" {
		t.Fatalf("unexpected input format: %q", got)
	}
}

func TestParseDue(t *testing.T) {
	const today = 19800
	cases := []struct {
		in   string
		want int64
	}{
		{"today", today},
		{"Tomorrow", today + 1},
		{"+7", today + 7},
		{"-2", today - 2},
		{"03/18/2024", 19800},
		{"2024-03-20", 19802},
	}
	for _, tc := range cases {
		got, err := ParseDue(tc.in, today)
		if err != nil {
			t.Fatalf("parse %q failed: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("parse %q = %d, want %d", tc.in, got, tc.want)
		}
	}

	for _, bad := range []string{"", "next week", "+x", "13/45/2024"} {
		if _, err := ParseDue(bad, today); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("expected ErrInvalidDate for %q, got %v", bad, err)
		}
	}
}

func TestSortByDueDate(t *testing.T) {
	in := []Task{
		{ID: 3, Title: "c", DueDate: 19800},
		{ID: 1, Title: "a", DueDate: 19900},
		{ID: 2, Title: "b", DueDate: 19800},
	}
	out := SortByDueDate(in)
	if out[0].ID != 2 || out[1].ID != 3 || out[2].ID != 1 {
		t.Fatalf("unexpected order: %#v", out)
	}
	if in[0].ID != 3 {
		t.Fatal("expected input slice to be left untouched")
	}
}

func TestFind(t *testing.T) {
	tasks := []Task{{ID: 1, Title: "a"}, {ID: 5, Title: "b"}}
	if got, ok := Find(tasks, 5); !ok || got.Title != "b" {
		t.Fatalf("expected to find task 5, got %#v ok=%v", got, ok)
	}
	if _, ok := Find(tasks, 9); ok {
		t.Fatal("expected task 9 to be absent")
	}
}
