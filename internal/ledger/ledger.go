// Package ledger keeps the coin rewards earned by logging chapters.
package ledger

// Reward is credited for every logged entry and debited when it is removed.
const Reward = 10

// Ledger holds coins per date key and the lifetime total.
// Total is kept in step with Days by Credit and Debit; it is never recomputed.
type Ledger struct {
	Days  map[string]int
	Total int
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{Days: map[string]int{}}
}

// FromDays builds a ledger from stored per-day amounts and their running total.
func FromDays(days map[string]int, total int) *Ledger {
	l := &Ledger{Days: make(map[string]int, len(days)), Total: total}
	for k, v := range days {
		l.Days[k] = v
	}
	return l
}

// Credit adds the reward to the given day.
func (l *Ledger) Credit(dateKey string) int {
	return l.apply(dateKey, Reward)
}

// Debit removes the reward from the day the entry was logged on. Days are not
// clamped at zero, so debiting a day that was never credited goes negative.
func (l *Ledger) Debit(dateKey string) int {
	return l.apply(dateKey, -Reward)
}

// Day returns the coins earned on a day.
func (l *Ledger) Day(dateKey string) int {
	return l.Days[dateKey]
}

// Sum adds up the per-day amounts.
func (l *Ledger) Sum() int {
	sum := 0
	for _, v := range l.Days {
		sum += v
	}
	return sum
}

// Balanced reports whether Total matches the per-day amounts.
func (l *Ledger) Balanced() bool {
	return l.Total == l.Sum()
}

func (l *Ledger) apply(dateKey string, amount int) int {
	if l.Days == nil {
		l.Days = map[string]int{}
	}
	l.Days[dateKey] += amount
	l.Total += amount
	return l.Days[dateKey]
}
