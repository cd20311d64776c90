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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRosterEdits(t *testing.T) {
	t.Parallel()
	var st stamper
	m := must(t)(NewMatch(2, "ABC123", Stamp{ID: "m1", At: t0}))

	m = must(t)(SetTeamName(m, Team1, "  Lions ", st.next()))
	assert.Equal(t, "Lions", m.Teams.Team1.Name)

	m = must(t)(AddPlayer(m, Team1, "Asha", Stamp{ID: "a", At: t0}))
	m = must(t)(AddPlayer(m, Team1, "Bilal", Stamp{ID: "bi", At: t0}))
	m = must(t)(AddPlayer(m, Team1, "Chen", Stamp{ID: "ch", At: t0}))
	require.Len(t, m.Teams.Team1.Players, 3)
	assert.Equal(t, "a", m.Teams.Team1.Players[0].ID)
	assert.Empty(t, m.Teams.Team2.Players)

	m = must(t)(SetCaptain(m, Team1, "a", st.next()))
	m = must(t)(SetCaptain(m, Team1, "ch", st.next()))
	captains := 0
	for _, p := range m.Teams.Team1.Players {
		if p.IsCaptain {
			captains++
			assert.Equal(t, "ch", p.ID)
		}
	}
	assert.Equal(t, 1, captains)

	m = must(t)(SetWicketkeeper(m, Team1, "bi", st.next()))
	p, _ := m.Teams.Team1.Player("bi")
	assert.True(t, p.IsWicketkeeper)
	assert.False(t, p.IsCaptain)

	m = must(t)(RemovePlayer(m, Team1, "bi", st.next()))
	assert.Len(t, m.Teams.Team1.Players, 2)
	_, ok := m.Teams.Team1.Player("bi")
	assert.False(t, ok)
}

func TestRosterErrors(t *testing.T) {
	t.Parallel()
	var st stamper
	m := setupMatch(t, 2)

	_, err := SetTeamName(m, Team1, "   ", st.next())
	require.ErrorIs(t, err, ErrInvalidName)
	_, err = AddPlayer(m, Team2, strings.Repeat("x", MaxNameLength+1), st.next())
	require.ErrorIs(t, err, ErrInvalidName)
	_, err = RemovePlayer(m, Team2, "s", st.next())
	require.ErrorIs(t, err, ErrUnknownPlayer)
	_, err = SetCaptain(m, Team1, "b", st.next())
	require.ErrorIs(t, err, ErrUnknownPlayer)
	_, err = SetWicketkeeper(m, "team9", "b", st.next())
	require.ErrorIs(t, err, ErrInvalidTeam)

	live := playing(t, 2)
	_, err = AddPlayer(live, Team1, "Late", st.next())
	require.ErrorIs(t, err, ErrRosterLocked)
	_, err = SetTeamName(live, Team2, "Tigers", st.next())
	require.ErrorIs(t, err, ErrRosterLocked)
}

func TestRosterEditsCopyOnWrite(t *testing.T) {
	t.Parallel()
	m := setupMatch(t, 2)
	before := m.Clone()
	_ = must(t)(SetCaptain(m, Team1, "s", Stamp{}))
	_ = must(t)(RemovePlayer(m, Team1, "n", Stamp{}))
	_ = must(t)(AddPlayer(m, Team2, "Extra", Stamp{ID: "e"}))
	assert.Equal(t, before, m)
}

func TestRosterEditAllowedAfterToss(t *testing.T) {
	t.Parallel()
	m := must(t)(PerformToss(setupMatch(t, 2), Team1, DecisionBat, Stamp{}))
	m = must(t)(AddPlayer(m, Team2, "Twelfth", Stamp{ID: "d"}))
	assert.Len(t, m.Teams.Team2.Players, 3)
}
