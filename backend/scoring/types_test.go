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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtraKinds(t *testing.T) {
	t.Parallel()

	for _, k := range AllExtraKinds {
		assert.True(t, k.Valid(), k)
	}
	assert.False(t, ExtraKind("overthrow").Valid())

	legal := map[ExtraKind]bool{ExtraNone: true, ExtraBye: true, ExtraLegBye: true}
	charged := map[ExtraKind]bool{ExtraWide: true, ExtraNoBall: true}
	rotates := map[ExtraKind]bool{ExtraBye: true, ExtraLegBye: true}
	for _, k := range AllExtraKinds {
		assert.Equal(t, legal[k], k.Legal(), "legal %s", k)
		assert.Equal(t, charged[k], k.ChargedToBowler(), "charged %s", k)
		assert.Equal(t, rotates[k], k.RotatesStrike(), "rotates %s", k)
		assert.Equal(t, k != ExtraWide, k.FacedByStriker(), "faced %s", k)
	}
}

func TestWicketKinds(t *testing.T) {
	t.Parallel()

	credited := map[WicketKind]bool{WicketBowled: true, WicketCaught: true, WicketLBW: true, WicketStumped: true}
	for _, k := range AllWicketKinds {
		assert.True(t, k.Valid(), k)
		assert.Equal(t, credited[k], k.CreditsBowler(), "credit %s", k)
	}
	assert.False(t, WicketNone.Valid())
	assert.False(t, WicketNone.CreditsBowler())
	assert.False(t, WicketKind("mankad").Valid())
}

func TestSlotsAndStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Team2, Team1.Other())
	assert.Equal(t, Team1, Team2.Other())
	assert.False(t, TeamSlot("").Valid())
	assert.True(t, StatusInningsBreak.Valid())
	assert.False(t, MatchStatus("abandoned").Valid())
	assert.True(t, DecisionBowl.Valid())
	assert.False(t, TossDecision("field").Valid())
}

func TestMatchDocumentShape(t *testing.T) {
	t.Parallel()
	var st stamper
	m := must(t)(RecordRuns(playing(t, 2), 1, st.next()))

	b, err := json.Marshal(m)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.Equal(t, "team1", doc["battingTeam"])
	assert.Equal(t, "in_progress", doc["status"])
	assert.Contains(t, doc, "innings")

	var back Match
	require.NoError(t, json.Unmarshal(b, &back))
	back.Normalize()
	assert.Equal(t, m, back)
}

func TestJoinCodes(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for range 50 {
		c := NewJoinCode()
		assert.True(t, ValidJoinCode(c), c)
		seen[c] = true
	}
	assert.Greater(t, len(seen), 45)

	assert.Equal(t, "ABC123", NormalizeJoinCode("  abc123 "))
	assert.False(t, ValidJoinCode("abc123"))
	assert.False(t, ValidJoinCode("ABC12"))
	assert.False(t, ValidJoinCode("ABC-23"))
}
