package ranking

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/leaflove/care-service/internal/model"
)

type item struct {
	p model.Priority
	d time.Time
}

func (i item) RankPriority() model.Priority { return i.p }
func (i item) RankDate() time.Time          { return i.d }

var base = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func TestSort_Property(t *testing.T) {
	prios := []model.Priority{model.PriorityLow, model.PriorityMedium, model.PriorityHigh, model.PriorityUrgent}
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 200; round++ {
		n := rng.Intn(30)
		items := make([]item, n)
		for i := range items {
			items[i] = item{p: prios[rng.Intn(len(prios))], d: base.Add(time.Duration(rng.Intn(240)) * time.Hour)}
		}
		Sort(items)
		for i := 1; i < len(items); i++ {
			prev, cur := items[i-1], items[i]
			if prev.p.Rank() < cur.p.Rank() {
				t.Fatalf("round %d: priority increased at %d: %v -> %v", round, i, prev.p, cur.p)
			}
			if prev.p == cur.p && prev.d.After(cur.d) {
				t.Fatalf("round %d: date decreased within %s at %d", round, cur.p, i)
			}
		}
	}
}

func TestUrgencyScore(t *testing.T) {
	if got := UrgencyScore(item{model.PriorityHigh, base.Add(12 * time.Hour)}, base); got != 6 {
		t.Fatalf("high within a day: got %d want 6", got)
	}
	if got := UrgencyScore(item{model.PriorityHigh, base.Add(24 * time.Hour)}, base); got != 6 {
		t.Fatalf("high at exactly one day: got %d want 6", got)
	}
	if got := UrgencyScore(item{model.PriorityMedium, base.Add(72 * time.Hour)}, base); got != 2 {
		t.Fatalf("medium in three days: got %d want 2", got)
	}
	if got := UrgencyScore(item{model.PriorityLow, base.Add(-time.Hour)}, base); got != 2 {
		t.Fatalf("overdue low: got %d want 2", got)
	}
}

func TestTopAndPage(t *testing.T) {
	xs := []int{1, 2, 3, 4, 5}
	if got := Top(xs, 3); len(got) != 3 || got[2] != 3 {
		t.Fatalf("Top: %v", got)
	}
	if got := Top(xs, 0); len(got) != 5 {
		t.Fatalf("Top(0) must return all, got %v", got)
	}
	if got := Page(xs, 2, 2); len(got) != 2 || got[0] != 3 {
		t.Fatalf("Page 2: %v", got)
	}
	if got := Page(xs, 3, 2); len(got) != 1 || got[0] != 5 {
		t.Fatalf("Page 3: %v", got)
	}
	if got := Page(xs, 9, 2); len(got) != 0 {
		t.Fatalf("Page past end: %v", got)
	}
	if got := Page(xs, 0, 2); len(got) != 2 || got[0] != 1 {
		t.Fatalf("Page 0 treated as 1: %v", got)
	}
	if got := Page(xs, 500000000000000000, 20); len(got) != 0 {
		t.Fatalf("huge page must be empty: %v", got)
	}
	if got := Page(xs, math.MaxInt, 1); len(got) != 0 {
		t.Fatalf("MaxInt page must be empty: %v", got)
	}
}

func TestStoredUsesDueDateThenScheduledFor(t *testing.T) {
	a := Stored{&model.AutoRecommendation{Priority: model.PriorityHigh, ScheduledFor: base.Add(time.Hour)}}
	b := Stored{&model.AutoRecommendation{Priority: model.PriorityHigh, ScheduledFor: base, DueDate: base.Add(2 * time.Hour)}}
	if !Less(a, b) {
		t.Fatalf("a (scheduledFor +1h) should sort before b (due +2h)")
	}
}

func TestSortByUrgency(t *testing.T) {
	now := base
	items := []item{
		{p: model.PriorityUrgent, d: now.Add(72 * time.Hour)}, // 4
		{p: model.PriorityHigh, d: now.Add(2 * time.Hour)},    // 6
		{p: model.PriorityMedium, d: now.Add(time.Hour)},      // 4, sooner than the urgent row
		{p: model.PriorityLow, d: now},                        // 2
	}
	SortByUrgency(items, now)
	want := []model.Priority{model.PriorityHigh, model.PriorityUrgent, model.PriorityMedium, model.PriorityLow}
	for i, w := range want {
		if items[i].p != w {
			t.Fatalf("position %d: got %s want %s (%+v)", i, items[i].p, w, items)
		}
	}
}
