package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/chatdom/internal/command"
)

const selectRecord = `
	SELECT id, session, seq, kind, target, content, consecutive, property, value, applied, error
	FROM commands
`

// ReadSession returns one session. Returns sql.ErrNoRows if not found.
func (s *Store) ReadSession(ctx context.Context, id string) (Session, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx, `
		SELECT id, chat_id, document, strict
		FROM sessions
		WHERE id = ?
	`, id).Scan(&sess.ID, &sess.ChatID, &sess.Document, &sess.Strict)
	if err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Sessions lists all sessions ordered by id. Session ids are UUIDv7, so
// this is creation order.
func (s *Store) Sessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chat_id, document, strict
		FROM sessions
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	out := []Session{}
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.ChatID, &sess.Document, &sess.Strict); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

// ReadRecords returns every record of a session in application order.
// Returns an empty slice (not nil) when there are none.
func (s *Store) ReadRecords(ctx context.Context, session string) ([]command.Record, error) {
	return s.queryRecords(ctx, selectRecord+`
		WHERE session = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, session)
}

// ReadRecordsByKind returns the records of one kind within a session.
func (s *Store) ReadRecordsByKind(ctx context.Context, session string, kind command.Kind) ([]command.Record, error) {
	return s.queryRecords(ctx, selectRecord+`
		WHERE session = ? AND kind = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, session, string(kind))
}

// LatestSeq returns the highest seq journaled for a session, or 0.
func (s *Store) LatestSeq(ctx context.Context, session string) (int64, error) {
	var seq sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(seq) FROM commands WHERE session = ?
	`, session).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("latest seq: %w", err)
	}
	return seq.Int64, nil
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]command.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	out := []command.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

func scanRecord(rows *sql.Rows) (command.Record, error) {
	var (
		rec  command.Record
		kind string
	)
	err := rows.Scan(
		&rec.ID,
		&rec.Session,
		&rec.Seq,
		&kind,
		&rec.Command.Target,
		&rec.Command.Content,
		&rec.Command.Consecutive,
		&rec.Command.Property,
		&rec.Command.Value,
		&rec.Applied,
		&rec.Error,
	)
	if err != nil {
		return command.Record{}, fmt.Errorf("scan record: %w", err)
	}
	rec.Command.Kind = command.Kind(kind)
	return rec, nil
}
