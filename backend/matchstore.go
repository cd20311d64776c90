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
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/c2FmZQ/storage"

	"github.com/ttbt-io/wicketkeeper/backend/scoring"
)

// StatusDeleted marks a tombstoned match in its metadata.
const StatusDeleted = "deleted"

// MatchMetadata contains only the fields needed for listing and indexing.
type MatchMetadata struct {
	ID         string `json:"id"`
	Code       string `json:"code"`
	OwnerID    string `json:"ownerId"`
	Status     string `json:"status"`
	TotalOvers int    `json:"totalOvers"`
	Team1      string `json:"team1"`
	Team2      string `json:"team2"`
	UpdatedAt  int64  `json:"updatedAt"`

	// DeletedAt is the timestamp (Unix Nano) when the match was deleted.
	DeletedAt int64 `json:"deletedAt,omitempty"`
}

func metadataOf(m *scoring.Match) MatchMetadata {
	return MatchMetadata{
		ID:         m.ID,
		Code:       m.Code,
		OwnerID:    m.OwnerID,
		Status:     string(m.Status),
		TotalOvers: m.TotalOvers,
		Team1:      m.Teams.Team1.Name,
		Team2:      m.Teams.Team2.Name,
		UpdatedAt:  m.UpdatedAt,
	}
}

// MatchRepository is implemented by every match store.
type MatchRepository interface {
	scoring.Store

	// SaveMatchInMemory records m without necessarily writing it out.
	// forceSync makes it behave like SaveMatch.
	SaveMatchInMemory(m *scoring.Match, forceSync bool) error
	Flush(matchID string) error
	FlushAll() error

	// FindByCode returns the match joined with code, or
	// scoring.ErrInvalidJoinCode.
	FindByCode(code string) (*scoring.Match, error)
	DeleteMatch(matchID string) error
	ListAllMatchMetadata() iter.Seq2[MatchMetadata, error]
}

// codeEntry is the content of codes/<CODE>.json.
type codeEntry struct {
	MatchID string `json:"matchId"`
}

// MatchStore keeps matches in encrypted data files.
type MatchStore struct {
	DataDir string
	Debug   bool
	storage *storage.Storage
	mu      sync.Map // *sync.RWMutex per match id
	cache   sync.Map // latest JSON per match id

	dirtyMu sync.Mutex
	dirty   map[string]bool
}

var _ MatchRepository = (*MatchStore)(nil)

// NewMatchStore creates a new MatchStore.
func NewMatchStore(dataDir string, s *storage.Storage) *MatchStore {
	return &MatchStore{
		DataDir: dataDir,
		storage: s,
		dirty:   make(map[string]bool),
	}
}

func (ms *MatchStore) lock(matchID string) *sync.RWMutex {
	m, _ := ms.mu.LoadOrStore(matchID, &sync.RWMutex{})
	return m.(*sync.RWMutex)
}

func matchFile(matchID string) string {
	return filepath.Join("matches", url.PathEscape(matchID)+".json")
}

func metaFile(matchID string) string {
	return filepath.Join("matches", url.PathEscape(matchID)+".meta.json")
}

func codeFile(code string) string {
	return filepath.Join("codes", url.PathEscape(code)+".json")
}

// SaveMatch writes the match, its metadata sidecar and its code entry.
func (ms *MatchStore) SaveMatch(m *scoring.Match) error {
	mutex := ms.lock(m.ID)
	mutex.Lock()
	defer mutex.Unlock()

	if err := ms.storage.SaveDataFile(matchFile(m.ID), m); err != nil {
		return fmt.Errorf("storage.SaveDataFile: %w", err)
	}

	meta := metadataOf(m)
	if err := ms.storage.SaveDataFile(metaFile(m.ID), &meta); err != nil {
		log.Printf("[STORE] Warning: failed to save metadata sidecar for match %s: %v", m.ID, err)
	}

	if m.Code != "" {
		if err := ms.storage.SaveDataFile(codeFile(m.Code), &codeEntry{MatchID: m.ID}); err != nil {
			return fmt.Errorf("storage.SaveDataFile (code): %w", err)
		}
	}

	if b, err := json.Marshal(m); err == nil {
		ms.cache.Store(m.ID, b)
	}

	ms.dirtyMu.Lock()
	delete(ms.dirty, m.ID)
	ms.dirtyMu.Unlock()
	return nil
}

// SaveMatchInMemory updates the cache and marks the match dirty.
func (ms *MatchStore) SaveMatchInMemory(m *scoring.Match, forceSync bool) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	ms.cache.Store(m.ID, b)

	if forceSync {
		return ms.SaveMatch(m)
	}

	ms.dirtyMu.Lock()
	ms.dirty[m.ID] = true
	ms.dirtyMu.Unlock()
	return nil
}

// Flush writes a match out if it is dirty.
func (ms *MatchStore) Flush(matchID string) error {
	ms.dirtyMu.Lock()
	if !ms.dirty[matchID] {
		ms.dirtyMu.Unlock()
		return nil
	}
	ms.dirtyMu.Unlock()

	val, ok := ms.cache.Load(matchID)
	if !ok {
		ms.dirtyMu.Lock()
		delete(ms.dirty, matchID)
		ms.dirtyMu.Unlock()
		return fmt.Errorf("match %s marked dirty but not found in cache", matchID)
	}

	var m scoring.Match
	if err := json.Unmarshal(val.([]byte), &m); err != nil {
		return fmt.Errorf("failed to unmarshal match from cache for flush: %w", err)
	}
	return ms.SaveMatch(&m)
}

// FlushAll writes out every dirty match.
func (ms *MatchStore) FlushAll() error {
	ms.dirtyMu.Lock()
	ids := make([]string, 0, len(ms.dirty))
	for id := range ms.dirty {
		ids = append(ids, id)
	}
	ms.dirtyMu.Unlock()

	for _, id := range ids {
		if err := ms.Flush(id); err != nil {
			return fmt.Errorf("failed to flush match %s: %w", id, err)
		}
	}
	return nil
}

// LoadMatch returns the match with the given id, or os.ErrNotExist.
func (ms *MatchStore) LoadMatch(matchID string) (*scoring.Match, error) {
	if val, ok := ms.cache.Load(matchID); ok {
		var m scoring.Match
		if err := json.Unmarshal(val.([]byte), &m); err == nil {
			if ms.Debug {
				log.Printf("[CACHE] Hit for match %s", matchID)
			}
			m.Normalize()
			return &m, nil
		}
		ms.cache.Delete(matchID)
	}
	if ms.Debug {
		log.Printf("[CACHE] Miss for match %s", matchID)
	}

	mutex := ms.lock(matchID)
	mutex.RLock()
	defer mutex.RUnlock()

	var m scoring.Match
	if err := ms.storage.ReadDataFile(matchFile(matchID), &m); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("ReadDataFile: %w", err)
	}
	if m.SchemaVersion > scoring.SchemaVersion {
		return nil, fmt.Errorf("match %s has unsupported schema version %d", matchID, m.SchemaVersion)
	}
	if m.ID == "" {
		// Tombstone.
		return nil, os.ErrNotExist
	}
	m.Normalize()

	if b, err := json.Marshal(&m); err == nil {
		ms.cache.Store(matchID, b)
	}
	return &m, nil
}

// FindByCode resolves a join code through the codes index.
func (ms *MatchStore) FindByCode(code string) (*scoring.Match, error) {
	code = scoring.NormalizeJoinCode(code)
	if !scoring.ValidJoinCode(code) {
		return nil, scoring.ErrInvalidJoinCode
	}
	var e codeEntry
	if err := ms.storage.ReadDataFile(codeFile(code), &e); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ms.findDirtyByCode(code)
		}
		return nil, fmt.Errorf("ReadDataFile: %w", err)
	}
	m, err := ms.LoadMatch(e.MatchID)
	if errors.Is(err, os.ErrNotExist) {
		return nil, scoring.ErrInvalidJoinCode
	}
	return m, err
}

// findDirtyByCode covers matches created in memory and not yet flushed.
func (ms *MatchStore) findDirtyByCode(code string) (*scoring.Match, error) {
	ms.dirtyMu.Lock()
	ids := make([]string, 0, len(ms.dirty))
	for id := range ms.dirty {
		ids = append(ids, id)
	}
	ms.dirtyMu.Unlock()

	for _, id := range ids {
		m, err := ms.LoadMatch(id)
		if err == nil && m.Code == code {
			return m, nil
		}
	}
	return nil, scoring.ErrInvalidJoinCode
}

// DeleteMatch overwrites a match with a tombstone and drops its code.
func (ms *MatchStore) DeleteMatch(matchID string) error {
	m, err := ms.LoadMatch(matchID)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	mutex := ms.lock(matchID)
	mutex.Lock()
	defer mutex.Unlock()

	meta := MatchMetadata{
		ID:        matchID,
		OwnerID:   m.OwnerID,
		Status:    StatusDeleted,
		DeletedAt: time.Now().UnixNano(),
	}
	if err := ms.storage.SaveDataFile(matchFile(matchID), &scoring.Match{SchemaVersion: scoring.SchemaVersion}); err != nil {
		return fmt.Errorf("storage.SaveDataFile (tombstone): %w", err)
	}
	if err := ms.storage.SaveDataFile(metaFile(matchID), &meta); err != nil {
		log.Printf("[STORE] Warning: failed to save metadata tombstone for match %s: %v", matchID, err)
	}
	if m.Code != "" {
		if err := os.Remove(filepath.Join(ms.DataDir, codeFile(m.Code))); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("[STORE] Warning: could not remove code %s: %v", m.Code, err)
		}
	}

	ms.cache.Delete(matchID)
	ms.dirtyMu.Lock()
	delete(ms.dirty, matchID)
	ms.dirtyMu.Unlock()
	return nil
}

// ListAllMatchMetadata yields metadata for every stored match, tombstones
// included, without loading the ball-by-ball logs.
func (ms *MatchStore) ListAllMatchMetadata() iter.Seq2[MatchMetadata, error] {
	return func(yield func(MatchMetadata, error) bool) {
		files, err := os.ReadDir(filepath.Join(ms.DataDir, "matches"))
		if err != nil && !os.IsNotExist(err) {
			yield(MatchMetadata{}, fmt.Errorf("could not read matches directory: %w", err))
			return
		}

		ms.dirtyMu.Lock()
		dirty := make(map[string]bool, len(ms.dirty))
		for id := range ms.dirty {
			dirty[id] = true
		}
		ms.dirtyMu.Unlock()

		hasMeta := make(map[string]bool)
		hasMatch := make(map[string]bool)
		for _, file := range files {
			if file.IsDir() {
				continue
			}
			name := file.Name()
			if enc, ok := strings.CutSuffix(name, ".meta.json"); ok {
				if id, err := url.PathUnescape(enc); err == nil {
					hasMeta[id] = true
				}
			} else if enc, ok := strings.CutSuffix(name, ".json"); ok {
				if id, err := url.PathUnescape(enc); err == nil {
					hasMatch[id] = true
				}
			}
		}

		processed := make(map[string]bool)

		// Dirty matches are newer than anything on disk.
		for id := range dirty {
			processed[id] = true
			m, err := ms.LoadMatch(id)
			if err != nil {
				log.Printf("[STORE] Error: failed to load dirty match %s: %v", id, err)
				continue
			}
			if !yield(metadataOf(m), nil) {
				return
			}
		}

		for id := range hasMeta {
			if processed[id] {
				continue
			}
			var meta MatchMetadata
			if err := ms.storage.ReadDataFile(metaFile(id), &meta); err != nil {
				log.Printf("[STORE] Warning: failed to load metadata for %s: %v. Falling back to main file.", id, err)
				hasMatch[id] = true
				continue
			}
			processed[id] = true
			if !yield(meta, nil) {
				return
			}
		}

		for id := range hasMatch {
			if processed[id] {
				continue
			}
			processed[id] = true
			m, err := ms.LoadMatch(id)
			if err != nil {
				log.Printf("[STORE] Warning: failed to load match %s from disk: %v", id, err)
				continue
			}
			if !yield(metadataOf(m), nil) {
				return
			}
		}
	}
}
