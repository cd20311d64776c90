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

import "fmt"

// OversString formats a ball count the way scorers write it, e.g. "4.3".
func OversString(legalBalls int) string {
	return fmt.Sprintf("%d.%d", legalBalls/BallsPerOver, legalBalls%BallsPerOver)
}

// RunRate is runs per six legal balls.
func (in Innings) RunRate() float64 {
	return Economy(in.TotalRuns, in.LegalBalls())
}

// ExtrasSummary splits an innings' extras by kind.
type ExtrasSummary struct {
	Wides   int `json:"wides"`
	NoBalls int `json:"noBalls"`
	Byes    int `json:"byes"`
	LegByes int `json:"legByes"`
}

// Total is the sum of all extras.
func (e ExtrasSummary) Total() int {
	return e.Wides + e.NoBalls + e.Byes + e.LegByes
}

// Extras tallies the innings' extras.
func (in Innings) Extras() ExtrasSummary {
	var e ExtrasSummary
	for _, ev := range in.Events {
		switch ev.ExtraKind {
		case ExtraWide:
			e.Wides += ev.Extras
		case ExtraNoBall:
			e.NoBalls += ev.Extras
		case ExtraBye:
			e.Byes += ev.Extras
		case ExtraLegBye:
			e.LegByes += ev.Extras
		case ExtraNone:
		}
	}
	return e
}

// OverSummary is the runs and wickets of one over.
type OverSummary struct {
	Over     int    `json:"over"`
	BowlerID string `json:"bowlerId"`
	Runs     int    `json:"runs"`
	Wickets  int    `json:"wickets"`
}

// Overs summarizes the innings over by over, including the over in progress.
func (in Innings) Overs() []OverSummary {
	var out []OverSummary
	for _, ev := range in.Events {
		if len(out) == 0 || out[len(out)-1].Over != ev.Over {
			out = append(out, OverSummary{Over: ev.Over, BowlerID: ev.BowlerID})
		}
		s := &out[len(out)-1]
		s.Runs += ev.Runs + ev.Extras
		if ev.IsWicket {
			s.Wickets++
		}
	}
	return out
}

// InningsEnd is why an innings can be closed.
type InningsEnd string

const (
	InningsOngoing       InningsEnd = ""
	InningsAllOut        InningsEnd = "all_out"
	InningsOversComplete InningsEnd = "overs_complete"
	InningsTargetReached InningsEnd = "target_reached"
)

// InningsComplete reports whether the active innings has reached a natural
// end. Closing it is still the scorer's call.
func (m Match) InningsComplete() InningsEnd {
	in := m.current()
	switch {
	case in.Wickets >= MaxWickets:
		return InningsAllOut
	case m.CurrentInnings == SecondInnings && in.TotalRuns > m.Innings.First.TotalRuns:
		return InningsTargetReached
	case in.CurrentOver >= m.TotalOvers && in.CurrentBall == 0:
		return InningsOversComplete
	}
	return InningsOngoing
}

// Chase describes the second innings' pursuit of the target.
type Chase struct {
	Target      int     `json:"target"`
	RunsNeeded  int     `json:"runsNeeded"`
	BallsLeft   int     `json:"ballsLeft"`
	RequiredRRR float64 `json:"requiredRunRate"`
}

// Chase returns the state of the run chase. ok is false during the first
// innings.
func (m Match) Chase() (c Chase, ok bool) {
	if m.CurrentInnings != SecondInnings {
		return Chase{}, false
	}
	in := m.Innings.Second
	c.Target = m.Innings.First.TotalRuns + 1
	c.RunsNeeded = max(c.Target-in.TotalRuns, 0)
	c.BallsLeft = max(m.TotalOvers*BallsPerOver-in.LegalBalls(), 0)
	c.RequiredRRR = Economy(c.RunsNeeded, c.BallsLeft)
	return c, true
}

// Result is the outcome of a completed match.
type Result struct {
	Winner    TeamSlot `json:"winner,omitempty"`
	Tie       bool     `json:"tie,omitempty"`
	ByRuns    int      `json:"byRuns,omitempty"`
	ByWickets int      `json:"byWickets,omitempty"`
}

// String describes the result, e.g. "Team A won by 12 runs".
func (r Result) String(teams Teams) string {
	switch {
	case r.Tie:
		return "Match tied"
	case r.ByWickets > 0:
		return fmt.Sprintf("%s won by %d wicket%s", teams.Get(r.Winner).Name, r.ByWickets, plural(r.ByWickets))
	case r.ByRuns == 0:
		return teams.Get(r.Winner).Name + " won"
	default:
		return fmt.Sprintf("%s won by %d run%s", teams.Get(r.Winner).Name, r.ByRuns, plural(r.ByRuns))
	}
}

// Result returns the outcome once the match is completed.
func (m Match) Result() (Result, bool) {
	if m.Status != StatusCompleted {
		return Result{}, false
	}
	first, second := m.Innings.First.TotalRuns, m.Innings.Second.TotalRuns
	// BattingSlot is the side that batted second.
	switch {
	case second > first:
		return Result{Winner: m.BattingSlot, ByWickets: max(MaxWickets-m.Innings.Second.Wickets, 0)}, true
	case second < first:
		return Result{Winner: m.BattingSlot.Other(), ByRuns: first - second}, true
	}
	return Result{Tie: true}, true
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
