// Package dedup provides atomic fingerprint reservation so the same message
// is never recorded twice for a user, across devices and rescans.
package dedup

import (
	"context"
	"fmt"
)

// Reservation is the outcome of a check-and-reserve call. Rejection is the
// expected, silent outcome for an already recorded message, not an error.
type Reservation struct {
	ExistingRecordID string
	Accepted         bool
}

// ReservationStore is the backing set of reserved fingerprints. Reserve must
// be a single atomic check-and-insert: two concurrent callers with the same
// fingerprint cannot both observe an accepted reservation.
type ReservationStore interface {
	// Reserve inserts the fingerprint if absent. It returns false plus the
	// record ID already holding the fingerprint when it was present.
	Reserve(ctx context.Context, userID, fingerprint string) (inserted bool, existingRecordID string, err error)
	// Release frees a reservation whose record was never saved, so a later
	// rescan can pick the message up again.
	Release(ctx context.Context, userID, fingerprint string) error
}

// Reserver checks fingerprints against a per-user reservation set. There is
// deliberately no override path: force re-parse callers bypass the Reserver
// entirely, keeping reservation semantics simple and audit-friendly.
type Reserver struct {
	store ReservationStore
}

// NewReserver creates a Reserver backed by the given store.
func NewReserver(store ReservationStore) *Reserver {
	return &Reserver{store: store}
}

// CheckAndReserve reserves the fingerprint for the user, or reports the
// record that already holds it.
func (r *Reserver) CheckAndReserve(ctx context.Context, userID, fingerprint string) (Reservation, error) {
	if userID == "" || fingerprint == "" {
		return Reservation{}, fmt.Errorf("userID and fingerprint are required")
	}

	inserted, existing, err := r.store.Reserve(ctx, userID, fingerprint)
	if err != nil {
		return Reservation{}, fmt.Errorf("failed to reserve fingerprint: %w", err)
	}

	return Reservation{Accepted: inserted, ExistingRecordID: existing}, nil
}

// Release frees a reservation after a failed save.
func (r *Reserver) Release(ctx context.Context, userID, fingerprint string) error {
	return r.store.Release(ctx, userID, fingerprint)
}
