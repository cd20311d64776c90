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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOversString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "0.0", OversString(0))
	assert.Equal(t, "0.5", OversString(5))
	assert.Equal(t, "4.3", OversString(27))
	assert.Equal(t, "20.0", OversString(120))
}

func TestInningsSummaries(t *testing.T) {
	t.Parallel()
	var st stamper
	m := playing(t, 20)
	m = must(t)(RecordRuns(m, 4, st.next()))
	m = must(t)(RecordExtra(m, ExtraWide, 1, st.next()))
	m = must(t)(RecordExtra(m, ExtraNoBall, 1, st.next()))
	m = must(t)(RecordExtra(m, ExtraBye, 2, st.next()))
	m = must(t)(RecordRuns(m, 0, st.next()))
	m = must(t)(RecordRuns(m, 1, st.next()))
	m = must(t)(RecordRuns(m, 0, st.next()))
	m = must(t)(ChangeBowler(m, "c", st.next()))
	m = must(t)(RecordExtra(m, ExtraLegBye, 1, st.next()))
	m = must(t)(RecordWicket(m, WicketCaught, "", st.next()))

	in := m.current()
	assert.Equal(t, ExtrasSummary{Wides: 1, NoBalls: 1, Byes: 2, LegByes: 1}, in.Extras())
	assert.Equal(t, 5, in.Extras().Total())
	assert.Equal(t, 10, in.TotalRuns)
	assert.Equal(t, 7, in.LegalBalls())
	assert.InDelta(t, 8.57, in.RunRate(), 0.001)

	overs := in.Overs()
	require.Len(t, overs, 2)
	assert.Equal(t, OverSummary{Over: 0, BowlerID: "b", Runs: 10}, overs[0])
	assert.Equal(t, OverSummary{Over: 1, BowlerID: "c", Wickets: 1}, overs[1])
}

func TestInningsCompleteOvers(t *testing.T) {
	t.Parallel()
	var st stamper
	m := playing(t, 1)
	for range BallsPerOver - 1 {
		m = must(t)(RecordRuns(m, 0, st.next()))
		assert.Equal(t, InningsOngoing, m.InningsComplete())
	}
	m = must(t)(RecordRuns(m, 0, st.next()))
	assert.Equal(t, InningsOversComplete, m.InningsComplete())
}

// chaseMatch plays a one-over first innings of firstRuns and starts the
// second innings with team2 batting.
func chaseMatch(t *testing.T, firstRuns int) Match {
	t.Helper()
	var st stamper
	m := playing(t, 1)
	m = must(t)(RecordRuns(m, firstRuns, st.next()))
	m = must(t)(EndInnings(m, st.next()))
	m = must(t)(StartInnings(m, st.next()))
	m = must(t)(ChangeStriker(m, "b", st.next()))
	m = must(t)(ChangeNonStriker(m, "c", st.next()))
	m = must(t)(ChangeBowler(m, "s", st.next()))
	return m
}

func TestChase(t *testing.T) {
	t.Parallel()
	var st stamper

	_, ok := playing(t, 1).Chase()
	assert.False(t, ok)

	m := chaseMatch(t, 4)
	c, ok := m.Chase()
	require.True(t, ok)
	assert.Equal(t, Chase{Target: 5, RunsNeeded: 5, BallsLeft: 6, RequiredRRR: 5}, c)

	m = must(t)(RecordRuns(m, 2, st.next()))
	c, _ = m.Chase()
	assert.Equal(t, 3, c.RunsNeeded)
	assert.Equal(t, 5, c.BallsLeft)
	assert.InDelta(t, 3.6, c.RequiredRRR, 0.001)
	assert.Equal(t, InningsOngoing, m.InningsComplete())

	m = must(t)(RecordRuns(m, 6, st.next()))
	c, _ = m.Chase()
	assert.Zero(t, c.RunsNeeded)
	assert.Equal(t, InningsTargetReached, m.InningsComplete())
}

func TestResult(t *testing.T) {
	t.Parallel()
	var st stamper

	_, ok := chaseMatch(t, 4).Result()
	assert.False(t, ok)

	won := must(t)(RecordRuns(chaseMatch(t, 4), 6, st.next()))
	won = must(t)(EndInnings(won, st.next()))
	r, ok := won.Result()
	require.True(t, ok)
	assert.Equal(t, Result{Winner: Team2, ByWickets: 10}, r)
	assert.Equal(t, "Team B won by 10 wickets", r.String(won.Teams))

	// A chase finished with no wickets in hand never reads "by 0 runs".
	lastGasp := won
	lastGasp.Innings.Second.Wickets = MaxWickets
	r, _ = lastGasp.Result()
	assert.Equal(t, Result{Winner: Team2}, r)
	assert.Equal(t, "Team B won", r.String(lastGasp.Teams))

	lost := must(t)(RecordRuns(chaseMatch(t, 4), 3, st.next()))
	lost = must(t)(EndInnings(lost, st.next()))
	r, _ = lost.Result()
	assert.Equal(t, Result{Winner: Team1, ByRuns: 1}, r)
	assert.Equal(t, "Team A won by 1 run", r.String(lost.Teams))

	tied := must(t)(RecordRuns(chaseMatch(t, 4), 4, st.next()))
	tied = must(t)(EndInnings(tied, st.next()))
	r, _ = tied.Result()
	assert.True(t, r.Tie)
	assert.Equal(t, "Match tied", r.String(tied.Teams))
}
