package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreditThenDebitRestoresTotal(t *testing.T) {
	l := FromDays(map[string]int{"2024-06-01": 30}, 30)
	before := l.Total

	require.Equal(t, 40, l.Credit("2024-06-01"))
	require.Equal(t, before+Reward, l.Total)
	require.Equal(t, 30, l.Debit("2024-06-01"))
	require.Equal(t, before, l.Total)
	require.True(t, l.Balanced())
}

func TestDebitWithoutCreditGoesNegative(t *testing.T) {
	l := New()
	require.Equal(t, -Reward, l.Debit("2024-06-02"))
	require.Equal(t, -Reward, l.Day("2024-06-02"))
	require.Equal(t, -Reward, l.Total)
	require.True(t, l.Balanced())
}

func TestDebitHitsOriginalDay(t *testing.T) {
	l := New()
	l.Credit("2024-06-01")
	l.Credit("2024-06-03")
	l.Debit("2024-06-01")

	require.Equal(t, 0, l.Day("2024-06-01"))
	require.Equal(t, Reward, l.Day("2024-06-03"))
	require.Equal(t, Reward, l.Total)
}

func TestTotalTracksSumAcrossMutations(t *testing.T) {
	var l Ledger
	days := []string{"2024-01-01", "2024-01-02", "2024-01-03"}
	for i := 0; i < 20; i++ {
		key := days[i%len(days)]
		if i%3 == 2 {
			l.Debit(key)
		} else {
			l.Credit(key)
		}
		require.True(t, l.Balanced(), "step %d", i)
	}
}

func TestFromDaysCopies(t *testing.T) {
	src := map[string]int{"2024-01-01": 10}
	l := FromDays(src, 10)
	l.Credit("2024-01-01")
	require.Equal(t, 10, src["2024-01-01"])
}
