package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-presensi-api/internal/models"
)

// TokenRepository persists check-in tokens. It owns the invariant that at
// most one token per (schedule_id, attendee_kind) is active at a time.
type TokenRepository struct {
	db *sqlx.DB
}

// NewTokenRepository constructs the repository.
func NewTokenRepository(db *sqlx.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

const checkInTokenColumns = `id, schedule_id, attendee_kind, token, issued_at, expires_at, active, scan_count`

// IssueSuperseding deactivates any active token for the same
// (schedule, kind) and inserts the new one inside a single transaction, so
// concurrent issuance cannot leave two active tokens.
func (r *TokenRepository) IssueSuperseding(ctx context.Context, token *models.CheckInToken) (*models.CheckInToken, error) {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin issue token: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	deactivate := `UPDATE checkin_tokens SET active = FALSE
WHERE schedule_id = $1 AND attendee_kind = $2 AND active`
	if _, err := tx.ExecContext(ctx, deactivate, token.ScheduleID, token.AttendeeKind); err != nil {
		return nil, fmt.Errorf("supersede active token: %w", err)
	}

	insert := fmt.Sprintf(`INSERT INTO checkin_tokens (%s)
VALUES ($1, $2, $3, $4, $5, $6, TRUE, 0)
RETURNING %s`, checkInTokenColumns, checkInTokenColumns)
	var stored models.CheckInToken
	if err := tx.QueryRowxContext(ctx, insert,
		token.ID, token.ScheduleID, token.AttendeeKind, token.Token,
		token.IssuedAt, token.ExpiresAt).StructScan(&stored); err != nil {
		return nil, fmt.Errorf("insert token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit issue token: %w", err)
	}
	committed = true
	return &stored, nil
}

// FindByString looks a token up by its opaque string. sql.ErrNoRows passes
// through for the service to map.
func (r *TokenRepository) FindByString(ctx context.Context, tokenString string) (*models.CheckInToken, error) {
	query := fmt.Sprintf(`SELECT %s FROM checkin_tokens WHERE token = $1`, checkInTokenColumns)
	var token models.CheckInToken
	if err := r.db.GetContext(ctx, &token, query, tokenString); err != nil {
		return nil, err
	}
	return &token, nil
}

// IncrementScanCount bumps the scan counter and returns the new value.
func (r *TokenRepository) IncrementScanCount(ctx context.Context, id string) (int, error) {
	query := `UPDATE checkin_tokens SET scan_count = scan_count + 1
WHERE id = $1 RETURNING scan_count`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("increment scan count: %w", err)
	}
	return count, nil
}

// Invalidate marks a token inactive. Calling it on an already-inactive
// token is a no-op.
func (r *TokenRepository) Invalidate(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE checkin_tokens SET active = FALSE WHERE id = $1`, id); err != nil {
		return fmt.Errorf("invalidate token: %w", err)
	}
	return nil
}
