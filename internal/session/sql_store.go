package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SQLStore keeps sessions in the sessions table.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a new SQLStore.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Get loads a session by token.
func (s *SQLStore) Get(ctx context.Context, id string) (*Session, error) {
	var (
		sess      Session
		flashes   string
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, identity, flashes_json, expires_at FROM sessions WHERE id = ?`, id).
		Scan(&sess.ID, &sess.Username, &flashes, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if err := json.Unmarshal([]byte(flashes), &sess.Flashes); err != nil {
		return nil, fmt.Errorf("failed to decode session flashes: %w", err)
	}
	sess.ExpiresAt = time.Unix(expiresAt, 0)
	return &sess, nil
}

// Create inserts a new session.
func (s *SQLStore) Create(ctx context.Context, sess *Session) error {
	payload, err := encodeFlashes(sess.Flashes)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, identity, flashes_json, expires_at) VALUES (?, ?, ?, ?)`,
		sess.ID, sess.Username, payload, sess.ExpiresAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Save updates an existing session, or returns ErrNotFound if it is gone.
func (s *SQLStore) Save(ctx context.Context, sess *Session) error {
	payload, err := encodeFlashes(sess.Flashes)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET identity = ?, flashes_json = ?, expires_at = ? WHERE id = ?`,
		sess.Username, payload, sess.ExpiresAt.Unix(), sess.ID)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func encodeFlashes(flashes []Flash) (string, error) {
	if flashes == nil {
		flashes = []Flash{}
	}
	payload, err := json.Marshal(flashes)
	if err != nil {
		return "", fmt.Errorf("failed to encode session flashes: %w", err)
	}
	return string(payload), nil
}

// Delete removes a session. Deleting an unknown token is not an error.
func (s *SQLStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes every session whose expiry is not after now.
func (s *SQLStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}
	return res.RowsAffected()
}
