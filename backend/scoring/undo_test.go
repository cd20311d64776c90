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
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUndoNothing(t *testing.T) {
	t.Parallel()
	var st stamper
	m := playing(t, 20)
	_, err := UndoLastBall(m, st.next())
	require.ErrorIs(t, err, ErrNothingToUndo)

	done := must(t)(EndInnings(m, st.next()))
	_, err = UndoLastBall(done, st.next())
	require.ErrorIs(t, err, ErrInningsNotInProgress)
}

func TestUndoRestoresSwappedEnds(t *testing.T) {
	t.Parallel()
	var st stamper
	m := playing(t, 20)
	for range BallsPerOver - 1 {
		m = must(t)(RecordRuns(m, 0, st.next()))
	}
	before := m.CurrentInningsData()

	m = must(t)(RecordRuns(m, 1, st.next()))
	m = must(t)(ChangeBowler(m, "c", st.next()))
	m = must(t)(UndoLastBall(m, st.next()))

	in := m.CurrentInningsData()
	assert.Equal(t, before, in)
	assert.Equal(t, "s", in.StrikerID)
	assert.Equal(t, "b", in.BowlerID)
	assert.Equal(t, 5, in.CurrentBall)
}

func TestUndoMaiden(t *testing.T) {
	t.Parallel()
	var st stamper
	m := playing(t, 20)
	for range BallsPerOver {
		m = must(t)(RecordRuns(m, 0, st.next()))
	}
	require.Equal(t, 1, m.current().Bowling["b"].Maidens)

	m = must(t)(UndoLastBall(m, st.next()))
	w := m.current().Bowling["b"]
	assert.Zero(t, w.Maidens)
	assert.Zero(t, w.Overs)
	assert.Equal(t, 5, w.Balls)
	assert.Equal(t, 5, w.Dots)
}

func TestUndoWideAtStart(t *testing.T) {
	t.Parallel()
	var st stamper
	m := playing(t, 20)
	before := m.CurrentInningsData()
	m = must(t)(RecordExtra(m, ExtraWide, 1, st.next()))
	m = must(t)(UndoLastBall(m, st.next()))
	in := m.CurrentInningsData()
	assert.Equal(t, before, in)
	assert.Empty(t, in.Bowling, "the bowler aggregate created by the wide is removed")
}

func TestUndoReinstatesEarlierDismissal(t *testing.T) {
	t.Parallel()
	var st stamper
	m := playing(t, 20)
	m = must(t)(RecordWicket(m, WicketBowled, "", st.next()))
	// A dismissed player may be sent back in; the core does not police it.
	m = must(t)(ChangeStriker(m, "s", st.next()))
	m = must(t)(RecordWicket(m, WicketRunOut, "s", st.next()))
	require.Equal(t, WicketRunOut, m.current().Batting["s"].WicketKind)

	m = must(t)(UndoLastBall(m, st.next()))
	b := m.current().Batting["s"]
	assert.True(t, b.IsOut)
	assert.Equal(t, WicketBowled, b.WicketKind)
	assert.Equal(t, "b", b.BowlerID)
	assert.Equal(t, 1, m.current().Wickets)
}

func TestUndoAcrossOverBoundary(t *testing.T) {
	t.Parallel()
	var st stamper
	m := playing(t, 20)
	for range BallsPerOver {
		m = must(t)(RecordRuns(m, 2, st.next()))
	}
	require.Equal(t, 1, m.current().CurrentOver)
	m = must(t)(UndoLastBall(m, st.next()))
	in := m.current()
	assert.Zero(t, in.CurrentOver)
	assert.Equal(t, 5, in.CurrentBall)
	assert.Equal(t, 10, in.TotalRuns)
	assert.Zero(t, in.Bowling["b"].Overs)
	checkInvariants(t, in)
}

func TestUndoEveryEventInTurn(t *testing.T) {
	t.Parallel()
	var st stamper
	m := playing(t, 20)
	snapshots := []Innings{m.CurrentInningsData()}
	for _, op := range []func(Match) (Match, error){
		func(m Match) (Match, error) { return RecordRuns(m, 3, st.next()) },
		func(m Match) (Match, error) { return RecordExtra(m, ExtraNoBall, 2, st.next()) },
		func(m Match) (Match, error) { return RecordRuns(m, 6, st.next()) },
		func(m Match) (Match, error) { return RecordExtra(m, ExtraLegBye, 1, st.next()) },
		func(m Match) (Match, error) { return RecordWicket(m, WicketStumped, "", st.next()) },
	} {
		m = must(t)(op(m))
		snapshots = append(snapshots, m.CurrentInningsData())
	}
	slices.Reverse(snapshots)
	for _, want := range snapshots[1:] {
		m = must(t)(UndoLastBall(m, st.next()))
		require.Equal(t, want, m.CurrentInningsData())
	}
	_, err := UndoLastBall(m, st.next())
	require.ErrorIs(t, err, ErrNothingToUndo)
}

// TestRecordThenUndoIsIdentity plays random innings and checks after every
// event that undoing it gives back the previous innings exactly.
func TestRecordThenUndoIsIdentity(t *testing.T) {
	t.Parallel()

	for seed := range uint64(20) {
		r := rand.New(rand.NewPCG(seed, 42))
		var st stamper
		m := playing(t, 20)
		waiting := slices.Clone(battingOrder[2:])

		for step := 0; step < 150; step++ {
			in := m.current()
			if in.Wickets == MaxWickets || in.CurrentOver == m.TotalOvers {
				break
			}
			if in.StrikerID == "" || in.NonStrikerID == "" {
				m = fillCrease(t, m, waiting[0], st.next())
				waiting = waiting[1:]
				continue
			}
			if in.CurrentBall == 0 && r.IntN(2) == 0 {
				bowler := "b"
				if in.BowlerID == "b" {
					bowler = "c"
				}
				m = must(t)(ChangeBowler(m, bowler, st.next()))
			}

			before := m.CurrentInningsData()
			var next Match
			var err error
			switch r.IntN(10) {
			case 0, 1, 2, 3, 4, 5:
				next, err = RecordRuns(m, r.IntN(7), st.next())
			case 6, 7, 8:
				kind := AllExtraKinds[1+r.IntN(len(AllExtraKinds)-1)]
				next, err = RecordExtra(m, kind, 1+r.IntN(MaxExtraRuns), st.next())
			default:
				dismissed := before.StrikerID
				if r.IntN(4) == 0 {
					dismissed = before.NonStrikerID
				}
				next, err = RecordWicket(m, AllWicketKinds[r.IntN(len(AllWicketKinds))], dismissed, st.next())
			}
			require.NoError(t, err, "seed %d step %d", seed, step)
			checkInvariants(t, next.current())

			undone := must(t)(UndoLastBall(next, st.next()))
			require.Equal(t, before, undone.CurrentInningsData(), "seed %d step %d", seed, step)
			m = next
		}
	}
}
