// Package ranking orders candidates and stored recommendations by priority and date.
package ranking

import (
	"sort"
	"time"

	"github.com/leaflove/care-service/internal/model"
)

// Item is anything that can be ranked.
type Item interface {
	RankPriority() model.Priority
	RankDate() time.Time
}

// Less reports whether a sorts before b: higher priority first, then sooner date.
func Less(a, b Item) bool {
	ra, rb := a.RankPriority().Rank(), b.RankPriority().Rank()
	if ra != rb {
		return ra > rb
	}
	return a.RankDate().Before(b.RankDate())
}

// Sort orders items in place. The sort is stable so equal items keep their input order.
func Sort[T Item](items []T) {
	sort.SliceStable(items, func(i, j int) bool { return Less(items[i], items[j]) })
}

// SortByUrgency orders items by UrgencyScore descending, then by Less.
func SortByUrgency[T Item](items []T, now time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		si, sj := UrgencyScore(items[i], now), UrgencyScore(items[j], now)
		if si != sj {
			return si > sj
		}
		return Less(items[i], items[j])
	})
}

// UrgencyScore doubles the priority rank when at most one day remains before the item's date.
func UrgencyScore(it Item, now time.Time) int {
	score := it.RankPriority().Rank()
	if it.RankDate().Sub(now) <= 24*time.Hour {
		score *= 2
	}
	return score
}

// Top returns at most n leading items. n <= 0 returns all of them.
func Top[T any](items []T, n int) []T {
	if n <= 0 || len(items) <= n {
		return items
	}
	return items[:n]
}

// Page returns the slice for a 1-based page of size limit.
func Page[T any](items []T, page, limit int) []T {
	if limit <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	if page-1 > len(items)/limit {
		return []T{}
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := min(start+limit, len(items))
	return items[start:end]
}

// Stored adapts an AutoRecommendation to Item.
type Stored struct{ *model.AutoRecommendation }

func (s Stored) RankPriority() model.Priority { return s.Priority }
func (s Stored) RankDate() time.Time          { return s.SortDate() }
