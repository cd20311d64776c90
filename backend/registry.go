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
	"cmp"
	"log"
	"slices"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ttbt-io/wicketkeeper/backend/scoring"
	"github.com/ttbt-io/wicketkeeper/backend/search"
)

const metadataCacheSize = 5000

// Registry indexes matches by owner so that listing does not scan the store.
type Registry struct {
	repo MatchRepository

	mu     sync.RWMutex
	owned  map[string]map[string]bool // owner -> match ids
	owners map[string]string          // live match id -> owner

	// Evicted entries are reloaded from the repository on demand.
	metadata *lru.Cache[string, MatchMetadata]
}

// NewRegistry builds the index from every match in repo.
func NewRegistry(repo MatchRepository) *Registry {
	cache, _ := lru.New[string, MatchMetadata](metadataCacheSize)
	r := &Registry{
		repo:     repo,
		owned:    make(map[string]map[string]bool),
		owners:   make(map[string]string),
		metadata: cache,
	}
	r.Rebuild()
	return r
}

// Rebuild reconstructs the index by scanning the repository.
func (r *Registry) Rebuild() {
	log.Println("[REGISTRY] Rebuild started...")
	owned := make(map[string]map[string]bool)
	owners := make(map[string]string)
	for meta, err := range r.repo.ListAllMatchMetadata() {
		if err != nil {
			log.Printf("[REGISTRY] Error listing matches: %v", err)
			break
		}
		r.metadata.Add(meta.ID, meta)
		if meta.Status == StatusDeleted {
			continue
		}
		owners[meta.ID] = meta.OwnerID
		addOwned(owned, meta.OwnerID, meta.ID)
	}

	r.mu.Lock()
	r.owned = owned
	r.owners = owners
	r.mu.Unlock()
	log.Printf("[REGISTRY] Rebuild complete. Indexed %d matches.", len(owners))
}

func addOwned(owned map[string]map[string]bool, owner, id string) {
	if owner == "" {
		return
	}
	if owned[owner] == nil {
		owned[owner] = make(map[string]bool)
	}
	owned[owner][id] = true
}

// UpdateMatch refreshes the index entry for m.
func (r *Registry) UpdateMatch(m *scoring.Match) {
	meta := metadataOf(m)
	r.metadata.Add(m.ID, meta)

	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.owners[m.ID]; ok && prev != meta.OwnerID {
		delete(r.owned[prev], m.ID)
	}
	r.owners[m.ID] = meta.OwnerID
	addOwned(r.owned, meta.OwnerID, m.ID)
}

// DeleteMatch drops a match from the index.
func (r *Registry) DeleteMatch(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	owner := r.owners[id]
	r.metadata.Add(id, MatchMetadata{ID: id, OwnerID: owner, Status: StatusDeleted})
	delete(r.owned[owner], id)
	delete(r.owners, id)
}

// CountMatches returns the number of live matches.
func (r *Registry) CountMatches() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.owners)
}

// IsOwner reports whether userID owns the match.
func (r *Registry) IsOwner(userID, matchID string) bool {
	if userID == "" {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.owned[userID][matchID]
}

func (r *Registry) lookup(id string) (MatchMetadata, bool) {
	if m, ok := r.metadata.Get(id); ok {
		return m, true
	}
	m, err := r.repo.LoadMatch(id)
	if err != nil {
		return MatchMetadata{}, false
	}
	meta := metadataOf(m)
	r.metadata.Add(id, meta)
	return meta, true
}

// ListMatches returns the live matches owned by userID that satisfy query,
// most recently updated first.
func (r *Registry) ListMatches(userID, query string) []MatchMetadata {
	r.mu.RLock()
	ids := make([]string, 0, len(r.owned[userID]))
	for id := range r.owned[userID] {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	q := search.Parse(query)
	out := make([]MatchMetadata, 0, len(ids))
	for _, id := range ids {
		meta, ok := r.lookup(id)
		if !ok || meta.Status == StatusDeleted || !matchesQuery(meta, q) {
			continue
		}
		out = append(out, meta)
	}
	slices.SortFunc(out, func(a, b MatchMetadata) int {
		if c := cmp.Compare(b.UpdatedAt, a.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func matchesQuery(m MatchMetadata, q search.Query) bool {
	team1 := strings.ToLower(m.Team1)
	team2 := strings.ToLower(m.Team2)
	for _, f := range q.Filters {
		switch f.Key {
		case "status":
			if strings.ToLower(m.Status) != f.Value {
				return false
			}
		case "code":
			if strings.ToLower(m.Code) != f.Value {
				return false
			}
		case "team":
			if !strings.Contains(team1, f.Value) && !strings.Contains(team2, f.Value) {
				return false
			}
		case "overs":
			if !f.MatchInt(m.TotalOvers) {
				return false
			}
		default:
			return false
		}
	}
	for _, t := range q.FreeText {
		if !strings.Contains(team1, t) && !strings.Contains(team2, t) && strings.ToLower(m.Code) != t {
			return false
		}
	}
	return true
}
