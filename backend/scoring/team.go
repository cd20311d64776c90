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
	"fmt"
	"slices"
	"strings"
)

// MaxNameLength bounds team and player names.
const MaxNameLength = 50

// SetTeamName renames a team.
func SetTeamName(m Match, slot TeamSlot, name string, st Stamp) (Match, error) {
	return editRoster(m, slot, st, func(t *Team) error {
		n, err := cleanName(name)
		if err != nil {
			return err
		}
		t.Name = n
		return nil
	})
}

// AddPlayer appends a player to a team. st.ID becomes the player id.
func AddPlayer(m Match, slot TeamSlot, name string, st Stamp) (Match, error) {
	return editRoster(m, slot, st, func(t *Team) error {
		n, err := cleanName(name)
		if err != nil {
			return err
		}
		t.Players = append(t.Players, Player{ID: st.ID, Name: n})
		return nil
	})
}

// RemovePlayer drops a player from a team.
func RemovePlayer(m Match, slot TeamSlot, playerID string, st Stamp) (Match, error) {
	return editRoster(m, slot, st, func(t *Team) error {
		i := slices.IndexFunc(t.Players, func(p Player) bool { return p.ID == playerID })
		if i < 0 {
			return fmt.Errorf("%w: %q", ErrUnknownPlayer, playerID)
		}
		t.Players = slices.Delete(t.Players, i, i+1)
		return nil
	})
}

// SetCaptain makes playerID the only captain of the team.
func SetCaptain(m Match, slot TeamSlot, playerID string, st Stamp) (Match, error) {
	return editRoster(m, slot, st, func(t *Team) error {
		return setFlag(t, playerID, func(p *Player, on bool) { p.IsCaptain = on })
	})
}

// SetWicketkeeper makes playerID the only wicketkeeper of the team.
func SetWicketkeeper(m Match, slot TeamSlot, playerID string, st Stamp) (Match, error) {
	return editRoster(m, slot, st, func(t *Team) error {
		return setFlag(t, playerID, func(p *Player, on bool) { p.IsWicketkeeper = on })
	})
}

func setFlag(t *Team, playerID string, set func(*Player, bool)) error {
	if _, ok := t.Player(playerID); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPlayer, playerID)
	}
	for i := range t.Players {
		set(&t.Players[i], t.Players[i].ID == playerID)
	}
	return nil
}

// editRoster applies edit to a copy of one team.
func editRoster(m Match, slot TeamSlot, st Stamp, edit func(*Team) error) (Match, error) {
	if !slot.Valid() {
		return Match{}, fmt.Errorf("%w: %q", ErrInvalidTeam, slot)
	}
	switch m.Status {
	case StatusSetup, StatusToss:
	case StatusInProgress, StatusInningsBreak, StatusCompleted:
		return Match{}, ErrRosterLocked
	default:
		return Match{}, ErrRosterLocked
	}
	team := m.Teams.Get(slot).clone()
	if err := edit(&team); err != nil {
		return Match{}, err
	}
	out := m
	out.Teams.set(slot, team)
	out.UpdatedAt = st.At.UnixMilli()
	return out, nil
}

func cleanName(name string) (string, error) {
	n := strings.TrimSpace(name)
	if n == "" {
		return "", ErrInvalidName
	}
	if len(n) > MaxNameLength {
		return "", fmt.Errorf("%w: max %d chars", ErrInvalidName, MaxNameLength)
	}
	return n, nil
}
