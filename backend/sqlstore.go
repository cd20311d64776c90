// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package backend

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ttbt-io/wicketkeeper/backend/scoring"
)

// SQLStore keeps matches in a single SQLite database. Every save is a
// write; there is no dirty state to flush.
type SQLStore struct {
	db *sql.DB
}

var _ MatchRepository = (*SQLStore)(nil)

// OpenSQLStore opens (creating if needed) the database at path.
func OpenSQLStore(path string) (*SQLStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create db directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection serializes writers and keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	s := &SQLStore{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS matches (
			id         TEXT PRIMARY KEY,
			code       TEXT,
			owner_id   TEXT NOT NULL DEFAULT '',
			status     TEXT NOT NULL,
			data       BLOB,
			updated_at INTEGER NOT NULL DEFAULT 0,
			deleted_at INTEGER NOT NULL DEFAULT 0
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_matches_code ON matches(code);
		CREATE INDEX IF NOT EXISTS idx_matches_owner ON matches(owner_id);
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// SaveMatch upserts the match document.
func (s *SQLStore) SaveMatch(m *scoring.Match) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	var code any
	if m.Code != "" {
		code = m.Code
	}
	_, err = s.db.Exec(`
		INSERT INTO matches (id, code, owner_id, status, data, updated_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT(id) DO UPDATE SET
			code = excluded.code,
			owner_id = excluded.owner_id,
			status = excluded.status,
			data = excluded.data,
			updated_at = excluded.updated_at,
			deleted_at = 0`,
		m.ID, code, m.OwnerID, string(m.Status), data, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save match %s: %w", m.ID, err)
	}
	return nil
}

// SaveMatchInMemory is SaveMatch.
func (s *SQLStore) SaveMatchInMemory(m *scoring.Match, _ bool) error {
	return s.SaveMatch(m)
}

func (s *SQLStore) Flush(string) error { return nil }
func (s *SQLStore) FlushAll() error    { return nil }

// LoadMatch returns the match with the given id, or os.ErrNotExist.
func (s *SQLStore) LoadMatch(matchID string) (*scoring.Match, error) {
	return s.scanMatch(s.db.QueryRow(
		`SELECT data FROM matches WHERE id = ? AND deleted_at = 0`, matchID))
}

// FindByCode returns the live match with the code.
func (s *SQLStore) FindByCode(code string) (*scoring.Match, error) {
	code = scoring.NormalizeJoinCode(code)
	if !scoring.ValidJoinCode(code) {
		return nil, scoring.ErrInvalidJoinCode
	}
	m, err := s.scanMatch(s.db.QueryRow(
		`SELECT data FROM matches WHERE code = ? AND deleted_at = 0`, code))
	if errors.Is(err, os.ErrNotExist) {
		return nil, scoring.ErrInvalidJoinCode
	}
	return m, err
}

func (s *SQLStore) scanMatch(row *sql.Row) (*scoring.Match, error) {
	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("query match: %w", err)
	}
	var m scoring.Match
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode match: %w", err)
	}
	m.Normalize()
	return &m, nil
}

// DeleteMatch tombstones the row and frees its code.
func (s *SQLStore) DeleteMatch(matchID string) error {
	_, err := s.db.Exec(`
		UPDATE matches SET status = ?, code = NULL, data = NULL, deleted_at = ?
		WHERE id = ? AND deleted_at = 0`,
		StatusDeleted, time.Now().UnixNano(), matchID)
	if err != nil {
		return fmt.Errorf("delete match %s: %w", matchID, err)
	}
	return nil
}

// ListAllMatchMetadata yields a row per match, tombstones included. Rows are
// read up front so callers may use the store while iterating.
func (s *SQLStore) ListAllMatchMetadata() iter.Seq2[MatchMetadata, error] {
	return func(yield func(MatchMetadata, error) bool) {
		metas, err := s.readMetadata()
		if err != nil {
			yield(MatchMetadata{}, err)
			return
		}
		for _, meta := range metas {
			if !yield(meta, nil) {
				return
			}
		}
	}
}

func (s *SQLStore) readMetadata() ([]MatchMetadata, error) {
	rows, err := s.db.Query(
		`SELECT id, owner_id, status, data, deleted_at FROM matches ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var out []MatchMetadata
	for rows.Next() {
		var (
			meta MatchMetadata
			data []byte
		)
		if err := rows.Scan(&meta.ID, &meta.OwnerID, &meta.Status, &data, &meta.DeletedAt); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		if len(data) > 0 {
			var m scoring.Match
			if err := json.Unmarshal(data, &m); err != nil {
				return nil, fmt.Errorf("decode match %s: %w", meta.ID, err)
			}
			meta = metadataOf(&m)
		}
		out = append(out, meta)
	}
	return out, rows.Err()
}
