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
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

// battingOrder is team1's roster. s and n open the batting.
var battingOrder = []string{"s", "n", "p3", "p4", "p5", "p6", "p7", "p8", "p9", "p10", "p11"}

type stamper struct {
	n  int
	at time.Time
}

func (s *stamper) next() Stamp {
	s.n++
	s.at = t0.Add(time.Duration(s.n) * time.Second)
	return Stamp{ID: fmt.Sprintf("ev-%d", s.n), At: s.at}
}

// must unwraps the result of a match operation, failing the test on error.
func must(t *testing.T) func(Match, error) Match {
	return func(m Match, err error) Match {
		t.Helper()
		require.NoError(t, err)
		return m
	}
}

// setupMatch returns a match in setup with team1 holding battingOrder and
// team2 holding bowlers b and c.
func setupMatch(t *testing.T, overs int) Match {
	t.Helper()
	m := must(t)(NewMatch(overs, "ABC123", Stamp{ID: "m1", At: t0}))
	for _, id := range battingOrder {
		m = must(t)(AddPlayer(m, Team1, "Player "+id, Stamp{ID: id, At: t0}))
	}
	for _, id := range []string{"b", "c"} {
		m = must(t)(AddPlayer(m, Team2, "Bowler "+id, Stamp{ID: id, At: t0}))
	}
	return m
}

// playing returns a match in its first innings with striker s, non-striker n
// and bowler b.
func playing(t *testing.T, overs int) Match {
	t.Helper()
	st := Stamp{ID: "op", At: t0}
	m := setupMatch(t, overs)
	m = must(t)(PerformToss(m, Team1, DecisionBat, st))
	m = must(t)(StartInnings(m, st))
	m = must(t)(ChangeStriker(m, "s", st))
	m = must(t)(ChangeNonStriker(m, "n", st))
	m = must(t)(ChangeBowler(m, "b", st))
	return m
}

// checkInvariants asserts the relations that must hold after any sequence of
// events.
func checkInvariants(t *testing.T, in Innings) {
	t.Helper()
	sum, wickets, legal := 0, 0, 0
	for _, ev := range in.Events {
		sum += ev.Runs + ev.Extras
		if ev.IsWicket {
			wickets++
		}
		if ev.Legal() {
			legal++
		}
	}
	require.Equal(t, sum, in.TotalRuns, "total runs")
	require.Equal(t, wickets, in.Wickets, "wickets")
	require.LessOrEqual(t, in.Wickets, MaxWickets)
	require.Equal(t, legal, in.LegalBalls(), "legal balls")
	require.GreaterOrEqual(t, in.CurrentBall, 0)
	require.Less(t, in.CurrentBall, BallsPerOver)

	bowled := 0
	for id, w := range in.Bowling {
		require.Equal(t, Economy(w.Runs, w.Balls), w.Economy, "economy of %s", id)
		bowled += w.Balls
	}
	require.Equal(t, legal, bowled, "balls bowled")
}
