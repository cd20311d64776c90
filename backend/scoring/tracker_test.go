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
)

func TestAdvance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		pos    Position
		kind   ExtraKind
		parity int
		want   Step
	}{
		{"dot", Position{0, 0}, ExtraNone, 0, Step{Next: Position{0, 1}}},
		{"single", Position{0, 0}, ExtraNone, 1, Step{Next: Position{0, 1}, Swap: true}},
		{"two", Position{1, 2}, ExtraNone, 2, Step{Next: Position{1, 3}}},
		{"last ball dot", Position{2, 5}, ExtraNone, 0, Step{Next: Position{3, 0}, OverCompleted: true, Swap: true}},
		{"last ball single swaps once", Position{2, 5}, ExtraNone, 1, Step{Next: Position{3, 0}, OverCompleted: true, Swap: true}},
		{"wide", Position{0, 3}, ExtraWide, 0, Step{Next: Position{0, 3}}},
		{"no ball on last ball", Position{0, 5}, ExtraNoBall, 0, Step{Next: Position{0, 5}}},
		{"bye three", Position{0, 1}, ExtraBye, 3, Step{Next: Position{0, 2}, Swap: true}},
		{"leg bye on last ball", Position{4, 5}, ExtraLegBye, 2, Step{Next: Position{5, 0}, OverCompleted: true, Swap: true}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, Advance(tc.pos, tc.kind, tc.parity))
		})
	}
}

func TestRetreat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Position{0, 2}, Retreat(Position{0, 3}, ExtraNone))
	assert.Equal(t, Position{2, 5}, Retreat(Position{3, 0}, ExtraBye))
	assert.Equal(t, Position{3, 0}, Retreat(Position{3, 0}, ExtraWide))
	assert.Equal(t, Position{0, 0}, Retreat(Position{0, 0}, ExtraNoBall))
	assert.Equal(t, Position{0, 0}, Retreat(Position{0, 0}, ExtraNone))
}

func TestAdvanceRetreatRoundTrip(t *testing.T) {
	t.Parallel()

	for _, kind := range AllExtraKinds {
		for over := range 3 {
			for ball := range BallsPerOver {
				pos := Position{over, ball}
				step := Advance(pos, kind, 0)
				assert.Equal(t, pos, Retreat(step.Next, kind), "%s at %v", kind, pos)
			}
		}
	}
}

func TestParityRuns(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 3, parityRuns(BallEvent{ExtraKind: ExtraNone, Runs: 3}))
	assert.Equal(t, 3, parityRuns(BallEvent{ExtraKind: ExtraBye, Extras: 3}))
	assert.Equal(t, 1, parityRuns(BallEvent{ExtraKind: ExtraLegBye, Extras: 1}))
	assert.Zero(t, parityRuns(BallEvent{ExtraKind: ExtraWide, Extras: 3}))
	assert.Zero(t, parityRuns(BallEvent{ExtraKind: ExtraNoBall, Extras: 1}))
	assert.Zero(t, parityRuns(BallEvent{ExtraKind: ExtraNone, IsWicket: true, Runs: 1}))
}
