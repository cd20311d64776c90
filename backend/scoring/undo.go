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

// UndoLastBall removes the most recent event of the active innings and
// restores the innings to the state it had just before that event. It works
// from the event and the current totals alone; the log is not replayed.
func UndoLastBall(m Match, st Stamp) (Match, error) {
	if err := checkScoring(m); err != nil {
		return Match{}, err
	}
	in := m.current()
	if len(in.Events) == 0 {
		return Match{}, ErrNothingToUndo
	}
	out := m.withCurrent(in.revert())
	out.UpdatedAt = st.At.UnixMilli()
	return out, nil
}

// revert returns a copy of in without its last event. in.Events must not be
// empty.
func (in Innings) revert() Innings {
	last := len(in.Events) - 1
	ev := in.Events[last]
	// The maiden decision has to see the over as it was when ev completed it.
	maiden := ev.CompletedOver() && in.isMaiden(ev.Over, ev.BowlerID)

	out := in.clone()
	out.Events = out.Events[:last]

	pos := Retreat(Position{Over: in.CurrentOver, Ball: in.CurrentBall}, ev.ExtraKind)
	out.CurrentOver = pos.Over
	out.CurrentBall = pos.Ball
	out.TotalRuns -= ev.Runs + ev.Extras
	if ev.IsWicket {
		out.Wickets--
	}

	if id, d := BatterDelta(ev); id != "" {
		b := out.Batting[id].Revert(d)
		if ev.IsWicket {
			b = b.Reinstate(ev.PriorDismissal)
		}
		if b.isZero() {
			delete(out.Batting, id)
		} else {
			out.Batting[id] = b
		}
	}

	w := out.Bowling[ev.BowlerID].Revert(BowlerDelta(ev, maiden))
	if w.isZero() {
		delete(out.Bowling, ev.BowlerID)
	} else {
		out.Bowling[ev.BowlerID] = w
	}

	// Events carry the lineup they were recorded with, so ends and bowler
	// come back exactly, whatever swaps or changes happened since.
	out.StrikerID = ev.StrikerID
	out.NonStrikerID = ev.NonStrikerID
	out.BowlerID = ev.BowlerID
	return out
}
