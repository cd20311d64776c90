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

import "math"

// BattingDelta is the change one delivery makes to a batter's figures.
type BattingDelta struct {
	Runs  int
	Balls int
	Fours int
	Sixes int
	Dots  int
}

// BowlingDelta is the change one delivery makes to a bowler's figures.
type BowlingDelta struct {
	Balls   int
	Runs    int
	Wickets int
	Dots    int
	Overs   int
	Maidens int
}

// BatterDelta returns the batter whose figures ev changes and by how much.
// The id is empty when no batter is affected (a wide, or an extra bowled
// with no striker assigned).
func BatterDelta(ev BallEvent) (string, BattingDelta) {
	if ev.IsWicket {
		return ev.DismissedID, BattingDelta{Balls: 1, Dots: 1}
	}
	switch ev.ExtraKind {
	case ExtraNone:
		d := BattingDelta{Runs: ev.Runs, Balls: 1}
		switch ev.Runs {
		case 0:
			d.Dots = 1
		case 4:
			d.Fours = 1
		case 6:
			d.Sixes = 1
		}
		return ev.StrikerID, d
	case ExtraNoBall, ExtraBye, ExtraLegBye:
		if ev.StrikerID == "" {
			return "", BattingDelta{}
		}
		return ev.StrikerID, BattingDelta{Balls: 1}
	case ExtraWide:
		return "", BattingDelta{}
	}
	return "", BattingDelta{}
}

// BowlerDelta returns the change ev makes to its bowler's figures. maiden
// only matters when ev completes an over.
func BowlerDelta(ev BallEvent, maiden bool) BowlingDelta {
	var d BowlingDelta
	if ev.Legal() {
		d.Balls = 1
	}
	switch {
	case ev.IsWicket:
		d.Dots = 1
		if ev.WicketKind.CreditsBowler() {
			d.Wickets = 1
		}
	case ev.ExtraKind == ExtraNone:
		d.Runs = ev.Runs
		if ev.Runs == 0 {
			d.Dots = 1
		}
	case ev.ExtraKind.ChargedToBowler():
		d.Runs = ev.Extras
	}
	if ev.CompletedOver() {
		d.Overs = 1
		if maiden {
			d.Maidens = 1
		}
	}
	return d
}

// Apply adds d to b.
func (b BattingAggregate) Apply(d BattingDelta) BattingAggregate {
	return b.add(d, 1)
}

// Revert subtracts d from b.
func (b BattingAggregate) Revert(d BattingDelta) BattingAggregate {
	return b.add(d, -1)
}

func (b BattingAggregate) add(d BattingDelta, sign int) BattingAggregate {
	b.Runs += sign * d.Runs
	b.BallsFaced += sign * d.Balls
	b.Fours += sign * d.Fours
	b.Sixes += sign * d.Sixes
	b.DotBalls += sign * d.Dots
	return b
}

// Dismiss marks b out. The bowler is credited only for dismissals that count
// as the bowler's wicket.
func (b BattingAggregate) Dismiss(kind WicketKind, bowlerID string) BattingAggregate {
	b.IsOut = true
	b.WicketKind = kind
	b.BowlerID = ""
	if kind.CreditsBowler() {
		b.BowlerID = bowlerID
	}
	return b
}

// Reinstate undoes a dismissal, restoring prior if the batter was already out.
func (b BattingAggregate) Reinstate(prior *Dismissal) BattingAggregate {
	if prior != nil {
		b.IsOut = true
		b.WicketKind = prior.Kind
		b.BowlerID = prior.BowlerID
		return b
	}
	b.IsOut = false
	b.WicketKind = WicketNone
	b.BowlerID = ""
	return b
}

// dismissal returns b's current dismissal, or nil if b is not out.
func (b BattingAggregate) dismissal() *Dismissal {
	if !b.IsOut {
		return nil
	}
	return &Dismissal{Kind: b.WicketKind, BowlerID: b.BowlerID}
}

func (b BattingAggregate) isZero() bool {
	return b == BattingAggregate{}
}

// Apply adds d to w and recomputes the economy rate.
func (w BowlingAggregate) Apply(d BowlingDelta) BowlingAggregate {
	return w.add(d, 1)
}

// Revert subtracts d from w and recomputes the economy rate.
func (w BowlingAggregate) Revert(d BowlingDelta) BowlingAggregate {
	return w.add(d, -1)
}

func (w BowlingAggregate) add(d BowlingDelta, sign int) BowlingAggregate {
	w.Balls += sign * d.Balls
	w.Runs += sign * d.Runs
	w.Wickets += sign * d.Wickets
	w.Dots += sign * d.Dots
	w.Overs += sign * d.Overs
	w.Maidens += sign * d.Maidens
	w.Economy = Economy(w.Runs, w.Balls)
	return w
}

func (w BowlingAggregate) isZero() bool {
	return w == BowlingAggregate{}
}

// Economy is runs conceded per six legal balls, rounded to two places.
func Economy(runs, legalBalls int) float64 {
	if legalBalls <= 0 {
		return 0
	}
	return round2(float64(runs) / (float64(legalBalls) / BallsPerOver))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
