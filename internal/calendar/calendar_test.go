package calendar

import "testing"

func TestDaysIn(t *testing.T) {
	cases := []struct {
		year  uint16
		month uint8
		want  int
	}{
		{2024, 2, 29},
		{2023, 2, 28},
		{2023, 4, 30},
		{2023, 1, 31},
		{2023, 12, 31},
		{1900, 2, 28},
		{2000, 2, 29},
		{0, 2, 29},
		{9999, 12, 31},
		{2023, 0, 0},
		{2023, 13, 0},
	}
	for _, tc := range cases {
		if got := DaysIn(tc.year, tc.month); got != tc.want {
			t.Fatalf("DaysIn(%d,%d)=%d want %d", tc.year, tc.month, got, tc.want)
		}
	}
}

func TestValidDay(t *testing.T) {
	if !ValidDay(2024, 2, 29) {
		t.Fatalf("2024-02-29 should be valid")
	}
	if ValidDay(2023, 2, 29) {
		t.Fatalf("2023-02-29 should be invalid")
	}
	if ValidDay(2023, 4, 31) {
		t.Fatalf("2023-04-31 should be invalid")
	}
	if ValidDay(2023, 1, 0) {
		t.Fatalf("day 0 should be invalid")
	}
	if !ValidDay(2023, 1, 31) || !ValidDay(2023, 1, 1) {
		t.Fatalf("january bounds should be valid")
	}
}

func TestIsLeap(t *testing.T) {
	if !IsLeap(2024) || IsLeap(2023) || IsLeap(2100) || !IsLeap(2400) {
		t.Fatalf("unexpected leap year classification")
	}
}
