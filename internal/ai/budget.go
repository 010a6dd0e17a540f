package ai

import (
	"fmt"
	"sync"
	"time"
)

// BudgetChecker checks and records token usage against per-learner budgets.
type BudgetChecker interface {
	// Check returns true if the learner has budget remaining today.
	Check(classID, learnerID string) (bool, error)
	// Record records token usage for a learner.
	Record(classID, learnerID string, tokens int) error
	// Usage returns today's usage and the configured limit.
	Usage(classID, learnerID string) (used int64, budget int64, err error)
}

// InMemoryBudget tracks daily token usage per class and learner.
// Usage resets at local midnight.
type InMemoryBudget struct {
	mu      sync.RWMutex
	limit   int64            // default daily limit, 0 means unlimited
	budgets map[string]int64 // key -> explicit limit
	usage   map[string]int64 // key -> tokens used in the current day
	day     string
	now     func() time.Time
}

// NewInMemoryBudget creates a budget tracker with a default daily limit.
// A zero limit disables the default.
func NewInMemoryBudget(dailyLimit int64) *InMemoryBudget {
	return &InMemoryBudget{
		limit:   dailyLimit,
		budgets: make(map[string]int64),
		usage:   make(map[string]int64),
		now:     time.Now,
	}
}

// SetClock replaces the time source. Intended for tests.
func (b *InMemoryBudget) SetClock(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
}

// SetBudget overrides the daily limit for one learner.
func (b *InMemoryBudget) SetBudget(classID, learnerID string, tokens int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.budgets[budgetKey(classID, learnerID)] = tokens
}

func (b *InMemoryBudget) Check(classID, learnerID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()

	key := budgetKey(classID, learnerID)
	limit := b.limitFor(key)
	if limit <= 0 {
		return true, nil
	}
	return b.usage[key] < limit, nil
}

func (b *InMemoryBudget) Record(classID, learnerID string, tokens int) error {
	if tokens < 0 {
		return fmt.Errorf("tokens must be non-negative, got %d", tokens)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()

	b.usage[budgetKey(classID, learnerID)] += int64(tokens)
	return nil
}

func (b *InMemoryBudget) Usage(classID, learnerID string) (int64, int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()

	key := budgetKey(classID, learnerID)
	return b.usage[key], b.limitFor(key), nil
}

func (b *InMemoryBudget) limitFor(key string) int64 {
	if limit, ok := b.budgets[key]; ok {
		return limit
	}
	return b.limit
}

// rollover clears usage when the calendar day changes. Caller holds mu.
func (b *InMemoryBudget) rollover() {
	day := b.now().Format(time.DateOnly)
	if day != b.day {
		b.day = day
		clear(b.usage)
	}
}

func budgetKey(classID, learnerID string) string {
	return classID + ":" + learnerID
}
