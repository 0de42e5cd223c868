package dedup

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserver_AcceptsFirstRejectsSecond(t *testing.T) {
	ctx := context.Background()
	r := NewReserver(NewMemoryStore())

	first, err := r.CheckAndReserve(ctx, "user-1", "fp-1")
	require.NoError(t, err)
	assert.True(t, first.Accepted)

	second, err := r.CheckAndReserve(ctx, "user-1", "fp-1")
	require.NoError(t, err)
	assert.False(t, second.Accepted)
}

func TestReserver_UsersDoNotContend(t *testing.T) {
	ctx := context.Background()
	r := NewReserver(NewMemoryStore())

	a, err := r.CheckAndReserve(ctx, "user-a", "fp-1")
	require.NoError(t, err)
	b, err := r.CheckAndReserve(ctx, "user-b", "fp-1")
	require.NoError(t, err)

	assert.True(t, a.Accepted)
	assert.True(t, b.Accepted, "same fingerprint for a different user is independent")
}

func TestReserver_RejectionCarriesExistingRecord(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	r := NewReserver(store)

	_, err := r.CheckAndReserve(ctx, "user-1", "fp-1")
	require.NoError(t, err)
	store.Bind(ctx, "user-1", "fp-1", "rec-42")

	res, err := r.CheckAndReserve(ctx, "user-1", "fp-1")
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, "rec-42", res.ExistingRecordID)
}

func TestReserver_ReleaseAllowsReprocessing(t *testing.T) {
	ctx := context.Background()
	r := NewReserver(NewMemoryStore())

	_, err := r.CheckAndReserve(ctx, "user-1", "fp-1")
	require.NoError(t, err)
	require.NoError(t, r.Release(ctx, "user-1", "fp-1"))

	res, err := r.CheckAndReserve(ctx, "user-1", "fp-1")
	require.NoError(t, err)
	assert.True(t, res.Accepted)
}

func TestReserver_ValidatesInput(t *testing.T) {
	r := NewReserver(NewMemoryStore())

	_, err := r.CheckAndReserve(context.Background(), "", "fp-1")
	assert.Error(t, err)
	_, err = r.CheckAndReserve(context.Background(), "user-1", "")
	assert.Error(t, err)
}

func TestReserver_ConcurrentCallersExactlyOneWins(t *testing.T) {
	ctx := context.Background()
	r := NewReserver(NewMemoryStore())

	const callers = 32
	var wg sync.WaitGroup
	accepted := make(chan bool, callers)

	// Two near-simultaneous scans of the same inbox must not both succeed
	// for the same message.
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := r.CheckAndReserve(ctx, "user-1", "fp-race")
			assert.NoError(t, err)
			accepted <- res.Accepted
		}()
	}
	wg.Wait()
	close(accepted)

	wins := 0
	for ok := range accepted {
		if ok {
			wins++
		}
	}
	assert.Equal(t, 1, wins)
}
