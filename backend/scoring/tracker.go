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

// Position is the over count and the legal balls bowled in the current over.
type Position struct {
	Over int `json:"over"`
	Ball int `json:"ball"`
}

// Step is the outcome of one delivery on the over and the strike.
type Step struct {
	Next          Position
	OverCompleted bool
	Swap          bool
}

// Advance computes where the innings stands after a delivery of kind
// scoring parityRuns runs that count for strike rotation (runs off the bat,
// or byes and leg-byes; zero for wickets).
func Advance(pos Position, kind ExtraKind, parityRuns int) Step {
	step := Step{Next: pos}
	if kind.Legal() {
		step.Next.Ball++
		if step.Next.Ball == BallsPerOver {
			step.Next.Ball = 0
			step.Next.Over++
			step.OverCompleted = true
		}
	}
	// Over completion and odd runs are one change of ends, not two.
	step.Swap = step.OverCompleted || parityRuns%2 == 1
	return step
}

// Retreat is the inverse of Advance on the position alone.
func Retreat(pos Position, kind ExtraKind) Position {
	if !kind.Legal() {
		return pos
	}
	switch {
	case pos.Ball > 0:
		pos.Ball--
	case pos.Over > 0:
		pos.Over--
		pos.Ball = BallsPerOver - 1
	}
	return pos
}

// parityRuns returns the runs of ev that count towards strike rotation.
func parityRuns(ev BallEvent) int {
	switch {
	case ev.IsWicket:
		return 0
	case ev.ExtraKind == ExtraNone:
		return ev.Runs
	case ev.ExtraKind.RotatesStrike():
		return ev.Extras
	}
	return 0
}
