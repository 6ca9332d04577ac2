package store

import (
	"context"
	"fmt"

	"github.com/roach88/chatdom/internal/command"
)

// Session is the starting point of a journaled run.
type Session struct {
	ID       string `json:"id"`
	ChatID   string `json:"chat_id"`
	Document string `json:"document"`
	Strict   bool   `json:"strict"`
}

// WriteSession records the initial document of a session. Writing an
// existing session id is silently ignored.
func (s *Store) WriteSession(ctx context.Context, sess Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, chat_id, document, strict)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		sess.ID,
		sess.ChatID,
		sess.Document,
		sess.Strict,
	)
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// WriteRecord appends a command record. Uses ON CONFLICT DO NOTHING so a
// duplicate id, or a second record for the same (session, seq), is ignored.
//
// The session must exist (foreign key constraint).
func (s *Store) WriteRecord(ctx context.Context, rec command.Record) error {
	cmd := rec.Command
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO commands
		(id, session, seq, kind, target, content, consecutive, property, value, applied, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		rec.ID,
		rec.Session,
		rec.Seq,
		string(cmd.Kind),
		cmd.Target,
		cmd.Content,
		cmd.Consecutive,
		cmd.Property,
		cmd.Value,
		rec.Applied,
		rec.Error,
	)
	if err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}
