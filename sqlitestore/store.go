// Copyright (c) Microsoft. All rights reserved.

// Package sqlitestore provides a SQLite-backed [agentloop.MessageStore],
// giving conversations durability across process restarts. Multiple
// conversations share one database file, keyed by conversation ID.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	al "github.com/microsoft/agent-loop/go/agentloop"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	conversation_id TEXT    NOT NULL,
	seq             INTEGER NOT NULL,
	message         TEXT    NOT NULL,
	PRIMARY KEY (conversation_id, seq)
);`

// Store is a durable [agentloop.MessageStore] bound to one conversation ID
// within a shared SQLite database.
type Store struct {
	db             *sql.DB
	conversationID string
}

// Verify interface compliance at compile time.
var _ al.MessageStore = (*Store)(nil)

// Open opens (creating if needed) the database at path and binds the store
// to conversationID. An empty conversationID gets a generated one, readable
// via [Store.ConversationID].
func Open(path, conversationID string) (*Store, error) {
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db, conversationID: conversationID}, nil
}

// ConversationID returns the conversation this store reads and writes.
func (s *Store) ConversationID() string { return s.conversationID }

// ListMessages returns the conversation's messages in append order.
func (s *Store) ListMessages(ctx context.Context) ([]al.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT message FROM messages WHERE conversation_id = ? ORDER BY seq`,
		s.conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var msgs []al.Message
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		var m al.Message
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("decode message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// AddMessages appends messages to the conversation inside one transaction.
func (s *Store) AddMessages(ctx context.Context, msgs []al.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var next int64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE conversation_id = ?`,
		s.conversationID,
	).Scan(&next)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	for i, m := range msgs {
		raw, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("encode message: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO messages (conversation_id, seq, message) VALUES (?, ?, ?)`,
			s.conversationID, next+int64(i), string(raw),
		); err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
	}

	return tx.Commit()
}

// Clear removes every message in the conversation.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM messages WHERE conversation_id = ?`,
		s.conversationID,
	)
	if err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
