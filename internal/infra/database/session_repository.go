package database

import (
	"context"
	"database/sql"
	"errors"
)

// SessionRepository maps a funnel session to its one prospect. Claim is
// the compare-and-swap that keeps creation at-most-once even across
// instances: the insert either wins or returns the row that beat it.
type SessionRepository struct {
	DB *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

func (r *SessionRepository) Find(ctx context.Context, sessionID string) (string, error) {
	var prospectID string
	err := r.DB.QueryRowContext(ctx,
		`SELECT prospect_id FROM funnel_sessions WHERE session_id = $1`,
		sessionID,
	).Scan(&prospectID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return prospectID, nil
}

func (r *SessionRepository) Claim(ctx context.Context, sessionID, prospectID string) (string, error) {
	// The no-op DO UPDATE makes RETURNING yield the stored prospect_id
	// whether we won or lost the race.
	query := `
		INSERT INTO funnel_sessions (session_id, prospect_id)
		VALUES ($1, $2)
		ON CONFLICT (session_id)
		DO UPDATE SET session_id = EXCLUDED.session_id
		RETURNING prospect_id
	`

	var winner string
	if err := r.DB.QueryRowContext(ctx, query, sessionID, prospectID).Scan(&winner); err != nil {
		return "", err
	}
	return winner, nil
}

func (r *SessionRepository) Release(ctx context.Context, sessionID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM funnel_sessions WHERE session_id = $1`, sessionID)
	return err
}
