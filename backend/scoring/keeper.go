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

package scoring

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store persists whole Match documents by id.
type Store interface {
	LoadMatch(id string) (*Match, error)
	SaveMatch(m *Match) error
}

// ErrNoMatch is returned by a Keeper that holds no match yet.
var ErrNoMatch = errors.New("no match loaded")

// Keeper owns the current snapshot of one match. Each operation computes the
// next snapshot, saves it, and only then makes it current, so a failed
// operation or a failed save leaves the Keeper where it was.
type Keeper struct {
	Now     func() time.Time
	NewID   func() string
	NewCode func() string

	store  Store
	mu     sync.Mutex
	match  Match
	loaded bool
}

// NewKeeper returns an empty Keeper backed by store.
func NewKeeper(store Store) *Keeper {
	return &Keeper{
		Now:     time.Now,
		NewID:   uuid.NewString,
		NewCode: NewJoinCode,
		store:   store,
	}
}

// Create starts a new match and saves it.
func (k *Keeper) Create(totalOvers int, ownerID string) (Match, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, err := NewMatch(totalOvers, k.NewCode(), k.stamp())
	if err != nil {
		return Match{}, err
	}
	m.OwnerID = ownerID
	if err := k.store.SaveMatch(&m); err != nil {
		return Match{}, fmt.Errorf("save match %s: %w", m.ID, err)
	}
	k.match = m
	k.loaded = true
	return m.Clone(), nil
}

// Load makes the stored match with id current.
func (k *Keeper) Load(id string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, err := k.store.LoadMatch(id)
	if err != nil {
		return err
	}
	m.Normalize()
	k.match = *m
	k.loaded = true
	return nil
}

// Snapshot returns a copy of the current match.
func (k *Keeper) Snapshot() (Match, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.loaded {
		return Match{}, ErrNoMatch
	}
	return k.match.Clone(), nil
}

func (k *Keeper) stamp() Stamp {
	return Stamp{ID: k.NewID(), At: k.Now()}
}

// apply runs op on the current match and commits the result.
func (k *Keeper) apply(op func(Match, Stamp) (Match, error)) (Match, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.loaded {
		return Match{}, ErrNoMatch
	}
	next, err := op(k.match, k.stamp())
	if err != nil {
		return Match{}, err
	}
	if err := k.store.SaveMatch(&next); err != nil {
		return Match{}, fmt.Errorf("save match %s: %w", next.ID, err)
	}
	k.match = next
	return next.Clone(), nil
}

// RecordRuns scores runs off the bat for the current delivery.
func (k *Keeper) RecordRuns(runs int) (Match, error) {
	return k.apply(func(m Match, st Stamp) (Match, error) { return RecordRuns(m, runs, st) })
}

// RecordExtra records a wide, no-ball, bye or leg-bye worth runs.
func (k *Keeper) RecordExtra(kind ExtraKind, runs int) (Match, error) {
	return k.apply(func(m Match, st Stamp) (Match, error) { return RecordExtra(m, kind, runs, st) })
}

// RecordWicket dismisses dismissedID, or the striker when it is empty.
func (k *Keeper) RecordWicket(kind WicketKind, dismissedID string) (Match, error) {
	return k.apply(func(m Match, st Stamp) (Match, error) { return RecordWicket(m, kind, dismissedID, st) })
}

// UndoLastBall removes the most recent delivery of the current innings.
func (k *Keeper) UndoLastBall() (Match, error) {
	return k.apply(UndoLastBall)
}

// ChangeBowler sets the bowler for the current over.
func (k *Keeper) ChangeBowler(playerID string) (Match, error) {
	return k.apply(func(m Match, st Stamp) (Match, error) { return ChangeBowler(m, playerID, st) })
}

// ChangeStriker puts playerID on strike.
func (k *Keeper) ChangeStriker(playerID string) (Match, error) {
	return k.apply(func(m Match, st Stamp) (Match, error) { return ChangeStriker(m, playerID, st) })
}

// ChangeNonStriker puts playerID at the non-striker's end.
func (k *Keeper) ChangeNonStriker(playerID string) (Match, error) {
	return k.apply(func(m Match, st Stamp) (Match, error) { return ChangeNonStriker(m, playerID, st) })
}

// PerformToss records the toss and which side bats first.
func (k *Keeper) PerformToss(winner TeamSlot, decision TossDecision) (Match, error) {
	return k.apply(func(m Match, st Stamp) (Match, error) { return PerformToss(m, winner, decision, st) })
}

// StartInnings opens the next innings.
func (k *Keeper) StartInnings() (Match, error) {
	return k.apply(StartInnings)
}

// EndInnings closes the current innings, completing the match after the second.
func (k *Keeper) EndInnings() (Match, error) {
	return k.apply(EndInnings)
}

// SetTeamName renames a side.
func (k *Keeper) SetTeamName(slot TeamSlot, name string) (Match, error) {
	return k.apply(func(m Match, st Stamp) (Match, error) { return SetTeamName(m, slot, name, st) })
}

// AddPlayer adds a player with a fresh id; it is the last in the roster.
func (k *Keeper) AddPlayer(slot TeamSlot, name string) (Match, error) {
	return k.apply(func(m Match, st Stamp) (Match, error) { return AddPlayer(m, slot, name, st) })
}

// RemovePlayer drops a player from the side.
func (k *Keeper) RemovePlayer(slot TeamSlot, playerID string) (Match, error) {
	return k.apply(func(m Match, st Stamp) (Match, error) { return RemovePlayer(m, slot, playerID, st) })
}

// SetCaptain makes playerID captain of the side.
func (k *Keeper) SetCaptain(slot TeamSlot, playerID string) (Match, error) {
	return k.apply(func(m Match, st Stamp) (Match, error) { return SetCaptain(m, slot, playerID, st) })
}

// SetWicketkeeper makes playerID wicketkeeper of the side.
func (k *Keeper) SetWicketkeeper(slot TeamSlot, playerID string) (Match, error) {
	return k.apply(func(m Match, st Stamp) (Match, error) { return SetWicketkeeper(m, slot, playerID, st) })
}
