package core

import (
	"fmt"
	"math"
	"time"
)

// ThisMonth returns the current month as YYYY-MM.
func ThisMonth() string {
	return time.Now().Format("2006-01")
}

// TodayISO returns the current date as YYYY-MM-DD.
func TodayISO() string {
	return time.Now().Format("2006-01-02")
}

// PrevMonth returns the month before the given YYYY-MM, or an error when
// the input does not parse.
func PrevMonth(yearMonth string) (string, error) {
	t, err := time.Parse("2006-01", yearMonth)
	if err != nil {
		return "", fmt.Errorf("parse year-month: %w", err)
	}
	return t.AddDate(0, -1, 0).Format("2006-01"), nil
}

// MonthBounds returns the first and last calendar day of a YYYY-MM month
// as YYYY-MM-DD strings. Note this is for callers that want true month
// edges; the query layer's range bound deliberately does not use it.
func MonthBounds(yearMonth string) (start, end string, err error) {
	t, err := time.Parse("2006-01", yearMonth)
	if err != nil {
		return "", "", fmt.Errorf("parse year-month: %w", err)
	}
	start = t.Format("2006-01-02")
	end = t.AddDate(0, 1, -1).Format("2006-01-02")
	return start, end, nil
}

// PercentChange returns the percent change from b to a. The second return
// is false when b is zero or not finite, where the change is undefined.
func PercentChange(a, b float64) (float64, bool) {
	if b == 0 || math.IsNaN(b) || math.IsInf(b, 0) {
		return 0, false
	}
	return (a - b) / math.Abs(b) * 100, true
}
