// Copyright 2026 The OASIS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package platform

import (
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"

	_ "github.com/tunglinwood/oasis/internal/sqlitedriver" // registers "sqlite3" driver
	"go.uber.org/zap"
)

// memStoreSeq names in-memory databases so independent stores don't share
// one cache.
var memStoreSeq atomic.Int64

// schema is the relational layout of the simulation. Analysis scripts read
// these tables by column name, so names are part of the external contract.
const schema = `
CREATE TABLE IF NOT EXISTS user (
	user_id        INTEGER PRIMARY KEY,
	agent_id       INTEGER NOT NULL,
	user_name      TEXT NOT NULL,
	name           TEXT,
	bio            TEXT,
	created_at     TEXT,
	num_followings INTEGER NOT NULL DEFAULT 0,
	num_followers  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS post (
	post_id          INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id          INTEGER NOT NULL,
	original_post_id INTEGER,
	content          TEXT,
	quote_content    TEXT,
	created_at       TEXT,
	num_likes        INTEGER NOT NULL DEFAULT 0,
	num_dislikes     INTEGER NOT NULL DEFAULT 0,
	num_shares       INTEGER NOT NULL DEFAULT 0,
	num_reports      INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_post_user ON post(user_id);
CREATE INDEX IF NOT EXISTS idx_post_original ON post(original_post_id);

CREATE TABLE IF NOT EXISTS follow (
	follow_id   INTEGER PRIMARY KEY AUTOINCREMENT,
	follower_id INTEGER NOT NULL,
	followee_id INTEGER NOT NULL,
	created_at  TEXT,
	UNIQUE (follower_id, followee_id)
);

CREATE TABLE IF NOT EXISTS mute (
	mute_id    INTEGER PRIMARY KEY AUTOINCREMENT,
	muter_id   INTEGER NOT NULL,
	mutee_id   INTEGER NOT NULL,
	created_at TEXT,
	UNIQUE (muter_id, mutee_id)
);

CREATE TABLE IF NOT EXISTS "like" (
	like_id    INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    INTEGER NOT NULL,
	post_id    INTEGER NOT NULL,
	created_at TEXT,
	UNIQUE (user_id, post_id)
);

CREATE TABLE IF NOT EXISTS dislike (
	dislike_id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    INTEGER NOT NULL,
	post_id    INTEGER NOT NULL,
	created_at TEXT,
	UNIQUE (user_id, post_id)
);

CREATE TABLE IF NOT EXISTS comment (
	comment_id   INTEGER PRIMARY KEY AUTOINCREMENT,
	post_id      INTEGER NOT NULL,
	user_id      INTEGER NOT NULL,
	content      TEXT,
	created_at   TEXT,
	num_likes    INTEGER NOT NULL DEFAULT 0,
	num_dislikes INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_comment_post ON comment(post_id);

CREATE TABLE IF NOT EXISTS comment_like (
	comment_like_id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id         INTEGER NOT NULL,
	comment_id      INTEGER NOT NULL,
	created_at      TEXT,
	UNIQUE (user_id, comment_id)
);

CREATE TABLE IF NOT EXISTS comment_dislike (
	comment_dislike_id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id            INTEGER NOT NULL,
	comment_id         INTEGER NOT NULL,
	created_at         TEXT,
	UNIQUE (user_id, comment_id)
);

CREATE TABLE IF NOT EXISTS report (
	report_id  INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    INTEGER NOT NULL,
	post_id    INTEGER NOT NULL,
	reason     TEXT,
	created_at TEXT,
	UNIQUE (user_id, post_id)
);

CREATE TABLE IF NOT EXISTS rec (
	user_id INTEGER NOT NULL,
	post_id INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_rec_user ON rec(user_id);

CREATE TABLE IF NOT EXISTS trace (
	trace_id   INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    INTEGER,
	created_at TEXT,
	action     TEXT NOT NULL,
	info       TEXT
);
CREATE INDEX IF NOT EXISTS idx_trace_user_action ON trace(user_id, action);

CREATE TABLE IF NOT EXISTS product (
	product_id   INTEGER PRIMARY KEY,
	product_name TEXT NOT NULL UNIQUE,
	sales        INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS user_group (
	group_id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	created_at TEXT
);

CREATE TABLE IF NOT EXISTS group_member (
	group_id  INTEGER NOT NULL,
	agent_id  INTEGER NOT NULL,
	joined_at TEXT,
	UNIQUE (group_id, agent_id)
);

CREATE TABLE IF NOT EXISTS group_message (
	message_id INTEGER PRIMARY KEY AUTOINCREMENT,
	group_id   INTEGER NOT NULL,
	sender_id  INTEGER NOT NULL,
	content    TEXT,
	sent_at    TEXT
);
CREATE INDEX IF NOT EXISTS idx_group_message_group ON group_message(group_id);
`

// requiredColumns are checked on open; a database that is missing a table
// or carries one with a clashing layout is rejected as a schema mismatch.
var requiredColumns = map[string][]string{
	"user":            {"user_id", "agent_id", "user_name", "name", "bio", "created_at", "num_followings", "num_followers"},
	"post":            {"post_id", "user_id", "original_post_id", "content", "quote_content", "created_at", "num_likes", "num_dislikes", "num_shares", "num_reports"},
	"follow":          {"follow_id", "follower_id", "followee_id", "created_at"},
	"mute":            {"mute_id", "muter_id", "mutee_id", "created_at"},
	"like":            {"like_id", "user_id", "post_id", "created_at"},
	"dislike":         {"dislike_id", "user_id", "post_id", "created_at"},
	"comment":         {"comment_id", "post_id", "user_id", "content", "created_at", "num_likes", "num_dislikes"},
	"comment_like":    {"comment_like_id", "user_id", "comment_id", "created_at"},
	"comment_dislike": {"comment_dislike_id", "user_id", "comment_id", "created_at"},
	"report":          {"report_id", "user_id", "post_id", "reason", "created_at"},
	"rec":             {"user_id", "post_id"},
	"trace":           {"trace_id", "user_id", "created_at", "action", "info"},
	"product":         {"product_id", "product_name", "sales"},
	"user_group":      {"group_id", "name", "created_at"},
	"group_member":    {"group_id", "agent_id", "joined_at"},
	"group_message":   {"message_id", "group_id", "sender_id", "content", "sent_at"},
}

// Store owns the simulation database. It is only ever touched from the
// platform consumer goroutine, so it performs no locking of its own.
type Store struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// OpenStore opens (or creates) the simulation database at path and ensures
// the schema exists. Pass ":memory:" for an ephemeral database. A database
// that cannot be read or whose schema does not match is rejected.
func OpenStore(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dbURL := path
	if path == ":memory:" {
		// Shared-cache URI so every connection in the pool sees the same
		// in-memory database; the unique name keeps separate stores in one
		// process apart.
		dbURL = fmt.Sprintf("file:memdb%d?mode=memory&cache=shared", memStoreSeq.Add(1))
	}
	db, err := sql.Open("sqlite3", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("database unreadable: %w", err)
	}
	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			logger.Warn("failed to enable WAL mode", zap.Error(err))
		}
	}

	// The index statements of the schema fail with a bare SQL error on a
	// pre-existing table with a clashing layout, so tables that already
	// exist are checked before the schema is applied.
	for table, columns := range requiredColumns {
		var n int
		if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&n); err != nil || n == 0 {
			continue
		}
		if _, err := db.Exec(fmt.Sprintf("SELECT %s FROM %q LIMIT 0", strings.Join(columns, ", "), table)); err != nil {
			db.Close()
			return nil, fmt.Errorf("schema mismatch on table %q: %w", table, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	s := &Store{db: db, path: path, logger: logger}
	if err := s.verifySchema(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("store opened", zap.String("path", path))
	return s, nil
}

// verifySchema confirms every required table carries its expected columns.
// CREATE TABLE IF NOT EXISTS leaves pre-existing incompatible tables alone,
// so an old database with a clashing layout surfaces here instead of
// failing mid-simulation.
func (s *Store) verifySchema() error {
	for table, columns := range requiredColumns {
		query := fmt.Sprintf("SELECT %s FROM %q LIMIT 0", strings.Join(columns, ", "), table)
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("schema mismatch on table %q: %w", table, err)
		}
	}
	return nil
}

// DB exposes the underlying handle for tests and analysis tooling.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Begin starts a write transaction.
func (s *Store) Begin() (*sql.Tx, error) {
	return s.db.Begin()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
