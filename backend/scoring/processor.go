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
	"time"
)

// MaxExtraRuns bounds the runs of a single extra (a wide that runs to the
// boundary plus the penalty, for example).
const MaxExtraRuns = 7

// Stamp identifies and timestamps one operation.
type Stamp struct {
	ID string
	At time.Time
}

// checkScoring returns an error unless balls can be recorded in m.
func checkScoring(m Match) error {
	switch m.Status {
	case StatusInProgress:
		return nil
	case StatusCompleted:
		return ErrMatchCompleted
	case StatusSetup, StatusToss, StatusInningsBreak:
		return ErrInningsNotInProgress
	}
	return fmt.Errorf("%w: unknown status %q", ErrInningsNotInProgress, m.Status)
}

// RecordRuns records a legal delivery with runs off the bat.
func RecordRuns(m Match, runs int, st Stamp) (Match, error) {
	if err := checkScoring(m); err != nil {
		return Match{}, err
	}
	if runs < 0 || runs > 6 {
		return Match{}, fmt.Errorf("%w: %d", ErrInvalidRuns, runs)
	}
	in := m.current()
	if in.Wickets >= MaxWickets {
		return Match{}, ErrAllOut
	}
	if in.StrikerID == "" || in.NonStrikerID == "" || in.BowlerID == "" {
		return Match{}, ErrIncompleteLineup
	}
	ev := in.newEvent(st)
	ev.Runs = runs
	return m.record(ev, st), nil
}

// RecordExtra records a wide, no-ball, bye or leg-bye worth runs.
func RecordExtra(m Match, kind ExtraKind, runs int, st Stamp) (Match, error) {
	if err := checkScoring(m); err != nil {
		return Match{}, err
	}
	if !kind.Valid() || kind == ExtraNone {
		return Match{}, fmt.Errorf("%w: %q", ErrInvalidExtraKind, kind)
	}
	if runs < 1 || runs > MaxExtraRuns {
		return Match{}, fmt.Errorf("%w: %d", ErrInvalidRuns, runs)
	}
	in := m.current()
	if in.Wickets >= MaxWickets {
		return Match{}, ErrAllOut
	}
	if in.BowlerID == "" {
		return Match{}, ErrIncompleteLineup
	}
	ev := in.newEvent(st)
	ev.ExtraKind = kind
	ev.Extras = runs
	return m.record(ev, st), nil
}

// RecordWicket records a dismissal. dismissedID defaults to the striker.
func RecordWicket(m Match, kind WicketKind, dismissedID string, st Stamp) (Match, error) {
	if err := checkScoring(m); err != nil {
		return Match{}, err
	}
	if !kind.Valid() {
		return Match{}, fmt.Errorf("%w: %q", ErrInvalidWicketKind, kind)
	}
	in := m.current()
	if in.StrikerID == "" || in.NonStrikerID == "" || in.BowlerID == "" {
		return Match{}, ErrIncompleteLineup
	}
	if in.Wickets >= MaxWickets {
		return Match{}, ErrAllOut
	}
	if dismissedID == "" {
		dismissedID = in.StrikerID
	}
	if dismissedID != in.StrikerID && dismissedID != in.NonStrikerID {
		return Match{}, fmt.Errorf("%w: %s", ErrNotAtCrease, dismissedID)
	}
	ev := in.newEvent(st)
	ev.IsWicket = true
	ev.WicketKind = kind
	ev.DismissedID = dismissedID
	ev.PriorDismissal = in.Batting[dismissedID].dismissal()
	return m.record(ev, st), nil
}

// newEvent starts an event at the current position and lineup.
func (in Innings) newEvent(st Stamp) BallEvent {
	return BallEvent{
		ID:           st.ID,
		Over:         in.CurrentOver,
		Ball:         in.CurrentBall,
		StrikerID:    in.StrikerID,
		NonStrikerID: in.NonStrikerID,
		BowlerID:     in.BowlerID,
		ExtraKind:    ExtraNone,
		Timestamp:    st.At.UnixMilli(),
	}
}

// record returns m with ev applied to the active innings.
func (m Match) record(ev BallEvent, st Stamp) Match {
	out := m.withCurrent(m.current().apply(ev))
	out.UpdatedAt = st.At.UnixMilli()
	return out
}

// apply returns a copy of in with ev appended and every total updated.
func (in Innings) apply(ev BallEvent) Innings {
	out := in.clone()
	out.Events = append(out.Events, ev)

	step := Advance(Position{Over: in.CurrentOver, Ball: in.CurrentBall}, ev.ExtraKind, parityRuns(ev))
	out.CurrentOver = step.Next.Over
	out.CurrentBall = step.Next.Ball
	out.TotalRuns += ev.Runs + ev.Extras
	if ev.IsWicket {
		out.Wickets++
	}

	if id, d := BatterDelta(ev); id != "" {
		b := out.Batting[id].Apply(d)
		if ev.IsWicket {
			b = b.Dismiss(ev.WicketKind, ev.BowlerID)
		}
		out.Batting[id] = b
	}

	maiden := step.OverCompleted && out.isMaiden(ev.Over, ev.BowlerID)
	out.Bowling[ev.BowlerID] = out.Bowling[ev.BowlerID].Apply(BowlerDelta(ev, maiden))

	if ev.IsWicket {
		switch ev.DismissedID {
		case out.StrikerID:
			out.StrikerID = ""
		case out.NonStrikerID:
			out.NonStrikerID = ""
		}
	}
	if step.Swap {
		out.StrikerID, out.NonStrikerID = out.NonStrikerID, out.StrikerID
	}
	return out
}

// isMaiden reports whether every delivery logged in over was bowled by
// bowlerID without a run or an extra being scored.
func (in Innings) isMaiden(over int, bowlerID string) bool {
	legal := 0
	for i := len(in.Events) - 1; i >= 0; i-- {
		ev := in.Events[i]
		if ev.Over < over {
			break
		}
		if ev.Over != over {
			continue
		}
		if ev.BowlerID != bowlerID || ev.Runs != 0 || ev.Extras != 0 || ev.ExtraKind != ExtraNone {
			return false
		}
		legal++
	}
	return legal == BallsPerOver
}
