package core

import (
	"sort"
	"strconv"
	"strings"
)

// DefaultCategoryLimit caps CategoryTotals when the caller passes limit <= 0.
const DefaultCategoryLimit = 6

type (
	// Summary is the income/expense rollup for a set of transactions.
	Summary struct {
		Income  float64 `json:"income"`
		Expense float64 `json:"expense"`
		Net     float64 `json:"net"`
	}

	// CategoryAmount is one entry of a category ranking.
	CategoryAmount struct {
		Category string  `json:"category"`
		Amount   float64 `json:"amount"`
	}

	// WeekSeries holds four week-bucket totals per flow direction:
	// days 1-7, 8-14, 15-21, and 22 through the end of the month.
	WeekSeries struct {
		Expense [4]float64 `json:"expense"`
		Income  [4]float64 `json:"income"`
	}
)

// Summarize totals income and expense over the set. Records that are not
// income are counted as expense, whatever their type says.
func Summarize(transactions []Transaction) Summary {
	var s Summary
	for _, t := range transactions {
		if t.IsIncome() {
			s.Income += t.Amount
		} else {
			s.Expense += t.Amount
		}
	}
	s.Net = s.Income - s.Expense
	return s
}

// CategoryTotals ranks expense categories by total amount, descending,
// truncated to limit entries. Income records are excluded and a missing
// category folds into DefaultCategory. Ties keep insertion order.
func CategoryTotals(transactions []Transaction, limit int) []CategoryAmount {
	if limit <= 0 {
		limit = DefaultCategoryLimit
	}

	totals := make(map[string]float64)
	var order []string
	for _, t := range transactions {
		if t.IsIncome() {
			continue
		}
		category := t.Category
		if category == "" {
			category = DefaultCategory
		}
		if _, seen := totals[category]; !seen {
			order = append(order, category)
		}
		totals[category] += t.Amount
	}

	out := make([]CategoryAmount, 0, len(order))
	for _, category := range order {
		out = append(out, CategoryAmount{Category: category, Amount: totals[category]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount > out[j].Amount
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// WeeklySeries buckets a month's transactions into four week slots.
// The last bucket absorbs days 22-31, whatever the month length; records
// dated outside yearMonth are skipped.
func WeeklySeries(transactions []Transaction, yearMonth string) WeekSeries {
	var w WeekSeries
	for _, t := range transactions {
		if !strings.HasPrefix(t.Date, yearMonth) || len(t.Date) < 10 {
			continue
		}
		day, err := strconv.Atoi(t.Date[8:10])
		if err != nil {
			continue
		}
		var bucket int
		switch {
		case day <= 7:
			bucket = 0
		case day <= 14:
			bucket = 1
		case day <= 21:
			bucket = 2
		default:
			bucket = 3
		}
		if t.IsIncome() {
			w.Income[bucket] += t.Amount
		} else {
			w.Expense[bucket] += t.Amount
		}
	}
	return w
}
