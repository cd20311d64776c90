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

import "errors"

// Errors returned by match operations. A failed operation never changes the
// snapshot it was given.
var (
	ErrIncompleteLineup     = errors.New("IncompleteLineup: striker, non-striker or bowler not assigned")
	ErrNothingToUndo        = errors.New("NothingToUndo: no balls recorded in this innings")
	ErrInvalidJoinCode      = errors.New("InvalidJoinCode: no match with this code")
	ErrInvalidOversCount    = errors.New("InvalidOversCount: overs must be a positive integer")
	ErrMatchCompleted       = errors.New("MatchCompleted: the match is over")
	ErrInningsNotInProgress = errors.New("InningsNotInProgress: no innings is being played")
	ErrInvalidTransition    = errors.New("InvalidTransition: not allowed in the current match status")
	ErrUnknownPlayer        = errors.New("UnknownPlayer: no such player in this team")
	ErrNotAtCrease          = errors.New("NotAtCrease: dismissed player is not one of the current batters")
	ErrAllOut               = errors.New("AllOut: the innings already has ten wickets")
	ErrInvalidRuns          = errors.New("InvalidRuns: run count out of range")
	ErrInvalidExtraKind     = errors.New("InvalidExtraKind: unknown extra kind")
	ErrInvalidWicketKind    = errors.New("InvalidWicketKind: unknown dismissal kind")
	ErrInvalidTossDecision  = errors.New("InvalidTossDecision: decision must be bat or bowl")
	ErrInvalidTeam          = errors.New("InvalidTeam: team must be team1 or team2")
	ErrRosterLocked         = errors.New("RosterLocked: rosters can only change before the match starts")
	ErrInvalidName          = errors.New("InvalidName: name is empty or too long")
)
