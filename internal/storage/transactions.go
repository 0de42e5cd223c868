package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finsift/finsift/internal/common"
	"github.com/finsift/finsift/internal/model"
	"github.com/finsift/finsift/internal/service"
)

// SaveTransaction persists one extraction and binds its fingerprint in a
// single database transaction, so the reservation always matches what was
// ultimately saved.
func (s *SQLiteStorage) SaveTransaction(ctx context.Context, userID string, result *model.ExtractionResult, fingerprint string) (string, error) {
	if userID == "" || result == nil || fingerprint == "" {
		return "", fmt.Errorf("userID, result and fingerprint are required")
	}

	recordID := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (
			id, user_id, fingerprint, vendor, amount, occurred_at, direction,
			category, confidence, payment_method, card_last_four, upi_reference,
			is_subscription, subscription_service, source_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		recordID,
		userID,
		fingerprint,
		result.Vendor,
		result.Amount.String(),
		result.OccurredAt,
		string(result.Direction),
		result.Category,
		result.Confidence,
		result.PaymentMethod,
		result.CardLastFour,
		result.UPIReference,
		result.IsSubscription,
		result.SubscriptionService,
		result.SourceMessage,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return "", fmt.Errorf("%w: fingerprint already recorded", common.ErrDuplicateEntry)
		}
		return "", fmt.Errorf("failed to insert transaction: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO fingerprints (user_id, fingerprint, record_id)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id, fingerprint) DO UPDATE SET record_id = excluded.record_id`,
		userID, fingerprint, recordID)
	if err != nil {
		return "", fmt.Errorf("failed to bind fingerprint: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	return recordID, nil
}

// GetTransaction loads one record by ID.
func (s *SQLiteStorage) GetTransaction(ctx context.Context, userID, recordID string) (*model.ExtractionResult, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT vendor, amount, occurred_at, direction, category, confidence,
			payment_method, card_last_four, upi_reference, is_subscription,
			subscription_service, source_message
		FROM transactions WHERE user_id = ? AND id = ?`, userID, recordID)

	result, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: transaction %s", common.ErrNotFound, recordID)
	}
	return result, err
}

// ListTransactions returns records for a user, newest first.
func (s *SQLiteStorage) ListTransactions(ctx context.Context, userID string, filter service.TransactionFilter) ([]model.ExtractionResult, error) {
	query := `
		SELECT vendor, amount, occurred_at, direction, category, confidence,
			payment_method, card_last_four, upi_reference, is_subscription,
			subscription_service, source_message
		FROM transactions WHERE user_id = ?`
	args := []any{userID}

	if filter.StartDate != nil {
		query += " AND occurred_at >= ?"
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		query += " AND occurred_at <= ?"
		args = append(args, *filter.EndDate)
	}
	if filter.Category != "" {
		query += " AND category = ?"
		args = append(args, filter.Category)
	}

	query += " ORDER BY occurred_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []model.ExtractionResult
	for rows.Next() {
		result, scanErr := scanTransaction(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		results = append(results, *result)
	}

	return results, rows.Err()
}

// FingerprintExists reports whether a fingerprint has been recorded for the user.
func (s *SQLiteStorage) FingerprintExists(ctx context.Context, userID, fingerprint string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM fingerprints WHERE user_id = ? AND fingerprint = ?",
		userID, fingerprint).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check fingerprint: %w", err)
	}
	return count > 0, nil
}

// Reserve implements dedup.ReservationStore. INSERT OR IGNORE against the
// primary key is the atomic check-and-insert: RowsAffected alone decides
// whether this caller won. The follow-up SELECT is informational only — it
// reads the record ID a lost reservation is bound to — so two statements
// without a wrapping transaction cannot produce a double acceptance.
func (s *SQLiteStorage) Reserve(ctx context.Context, userID, fingerprint string) (bool, string, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO fingerprints (user_id, fingerprint) VALUES (?, ?)",
		userID, fingerprint)
	if err != nil {
		return false, "", fmt.Errorf("failed to reserve fingerprint: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return false, "", fmt.Errorf("failed to read reservation result: %w", err)
	}
	if inserted > 0 {
		return true, "", nil
	}

	var recordID sql.NullString
	err = s.db.QueryRowContext(ctx,
		"SELECT record_id FROM fingerprints WHERE user_id = ? AND fingerprint = ?",
		userID, fingerprint).Scan(&recordID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, "", fmt.Errorf("failed to look up existing reservation: %w", err)
	}

	return false, recordID.String, nil
}

// Release implements dedup.ReservationStore. Only unbound reservations may
// be released; a fingerprint with a saved record stays reserved forever.
func (s *SQLiteStorage) Release(ctx context.Context, userID, fingerprint string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM fingerprints WHERE user_id = ? AND fingerprint = ? AND record_id IS NULL",
		userID, fingerprint)
	if err != nil {
		return fmt.Errorf("failed to release fingerprint: %w", err)
	}
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*model.ExtractionResult, error) {
	var (
		result     model.ExtractionResult
		amount     string
		direction  string
		occurredAt time.Time
	)

	err := row.Scan(
		&result.Vendor,
		&amount,
		&occurredAt,
		&direction,
		&result.Category,
		&result.Confidence,
		&result.PaymentMethod,
		&result.CardLastFour,
		&result.UPIReference,
		&result.IsSubscription,
		&result.SubscriptionService,
		&result.SourceMessage,
	)
	if err != nil {
		return nil, err
	}

	result.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("corrupt amount %q in storage: %w", amount, err)
	}
	result.Direction = model.TransactionDirection(direction)
	result.OccurredAt = occurredAt.UTC()

	return &result, nil
}
