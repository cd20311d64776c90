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
	"strconv"
	"strings"
)

// Default team names of a new match.
const (
	DefaultTeam1Name = "Team A"
	DefaultTeam2Name = "Team B"
)

// ParseOvers parses the overs-per-innings setting.
func ParseOvers(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOversCount, s)
	}
	return n, nil
}

// NewMatch returns a match in setup with two empty teams. st.ID becomes the
// match id.
func NewMatch(totalOvers int, code string, st Stamp) (Match, error) {
	if totalOvers < 1 {
		return Match{}, fmt.Errorf("%w: %d", ErrInvalidOversCount, totalOvers)
	}
	now := st.At.UnixMilli()
	return Match{
		ID:            st.ID,
		SchemaVersion: SchemaVersion,
		Code:          code,
		Status:        StatusSetup,
		TotalOvers:    totalOvers,
		Teams: Teams{
			Team1: Team{ID: string(Team1), Name: DefaultTeam1Name, Players: make([]Player, 0)},
			Team2: Team{ID: string(Team2), Name: DefaultTeam2Name, Players: make([]Player, 0)},
		},
		CurrentInnings: FirstInnings,
		BattingSlot:    Team1,
		Innings: InningsPair{
			First:  NewInnings(),
			Second: NewInnings(),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// PerformToss records the toss and sets the batting side.
func PerformToss(m Match, winner TeamSlot, decision TossDecision, st Stamp) (Match, error) {
	if !winner.Valid() {
		return Match{}, fmt.Errorf("%w: %q", ErrInvalidTeam, winner)
	}
	if !decision.Valid() {
		return Match{}, fmt.Errorf("%w: %q", ErrInvalidTossDecision, decision)
	}
	switch m.Status {
	case StatusSetup:
	case StatusCompleted:
		return Match{}, ErrMatchCompleted
	case StatusToss, StatusInProgress, StatusInningsBreak:
		return Match{}, fmt.Errorf("%w: toss in %s", ErrInvalidTransition, m.Status)
	default:
		return Match{}, fmt.Errorf("%w: toss in %s", ErrInvalidTransition, m.Status)
	}
	out := m
	out.Status = StatusToss
	out.Toss = &Toss{Winner: winner, Decision: decision}
	out.BattingSlot = winner
	if decision == DecisionBowl {
		out.BattingSlot = winner.Other()
	}
	out.UpdatedAt = st.At.UnixMilli()
	return out, nil
}

// StartInnings begins play: the first innings after the toss, or the second
// after the break.
func StartInnings(m Match, st Stamp) (Match, error) {
	switch m.Status {
	case StatusToss, StatusInningsBreak:
	case StatusCompleted:
		return Match{}, ErrMatchCompleted
	case StatusSetup, StatusInProgress:
		return Match{}, fmt.Errorf("%w: start innings in %s", ErrInvalidTransition, m.Status)
	default:
		return Match{}, fmt.Errorf("%w: start innings in %s", ErrInvalidTransition, m.Status)
	}
	out := m
	out.Status = StatusInProgress
	out.UpdatedAt = st.At.UnixMilli()
	return out, nil
}

// EndInnings closes the innings in play. After the first innings the sides
// swap and the match goes to the break; after the second it is completed.
func EndInnings(m Match, st Stamp) (Match, error) {
	switch m.Status {
	case StatusInProgress:
	case StatusCompleted:
		return Match{}, ErrMatchCompleted
	case StatusSetup, StatusToss, StatusInningsBreak:
		return Match{}, fmt.Errorf("%w: end innings in %s", ErrInvalidTransition, m.Status)
	default:
		return Match{}, fmt.Errorf("%w: end innings in %s", ErrInvalidTransition, m.Status)
	}
	out := m
	if m.CurrentInnings == FirstInnings {
		out.Status = StatusInningsBreak
		out.CurrentInnings = SecondInnings
		out.BattingSlot = m.BattingSlot.Other()
	} else {
		out.Status = StatusCompleted
	}
	out.UpdatedAt = st.At.UnixMilli()
	return out, nil
}

// ChangeBowler puts a bowling-side player on to bowl.
func ChangeBowler(m Match, playerID string, st Stamp) (Match, error) {
	if m.Status == StatusCompleted {
		return Match{}, ErrMatchCompleted
	}
	if _, ok := m.BowlingTeam().Player(playerID); !ok {
		return Match{}, fmt.Errorf("%w: bowler %q", ErrUnknownPlayer, playerID)
	}
	in := m.current()
	in.BowlerID = playerID
	out := m.withCurrent(in)
	out.UpdatedAt = st.At.UnixMilli()
	return out, nil
}

// ChangeStriker assigns the striker's end. An empty id clears it.
func ChangeStriker(m Match, playerID string, st Stamp) (Match, error) {
	return changeBatter(m, playerID, st, func(in *Innings) { in.StrikerID = playerID })
}

// ChangeNonStriker assigns the non-striker's end. An empty id clears it.
func ChangeNonStriker(m Match, playerID string, st Stamp) (Match, error) {
	return changeBatter(m, playerID, st, func(in *Innings) { in.NonStrikerID = playerID })
}

func changeBatter(m Match, playerID string, st Stamp, set func(*Innings)) (Match, error) {
	if m.Status == StatusCompleted {
		return Match{}, ErrMatchCompleted
	}
	if playerID != "" {
		if _, ok := m.BattingTeam().Player(playerID); !ok {
			return Match{}, fmt.Errorf("%w: batter %q", ErrUnknownPlayer, playerID)
		}
	}
	in := m.current()
	set(&in)
	out := m.withCurrent(in)
	out.UpdatedAt = st.At.UnixMilli()
	return out, nil
}

// BattingTeam returns the side currently batting.
func (m Match) BattingTeam() Team {
	return m.Teams.Get(m.BattingSlot)
}

// BowlingTeam returns the side currently fielding.
func (m Match) BowlingTeam() Team {
	return m.Teams.Get(m.BattingSlot.Other())
}

// CurrentInningsData returns a copy of the active innings.
func (m Match) CurrentInningsData() Innings {
	return m.current().clone()
}

// CurrentBatsmen returns the players at the striker's and non-striker's
// ends, nil where a slot is empty.
func (m Match) CurrentBatsmen() (striker, nonStriker *Player) {
	in := m.current()
	team := m.BattingTeam()
	if p, ok := team.Player(in.StrikerID); ok && in.StrikerID != "" {
		striker = &p
	}
	if p, ok := team.Player(in.NonStrikerID); ok && in.NonStrikerID != "" {
		nonStriker = &p
	}
	return striker, nonStriker
}

// CurrentBowler returns the player bowling, or nil.
func (m Match) CurrentBowler() *Player {
	in := m.current()
	if in.BowlerID == "" {
		return nil
	}
	if p, ok := m.BowlingTeam().Player(in.BowlerID); ok {
		return &p
	}
	return nil
}

// PlayerByID looks a player up in one team.
func (m Match) PlayerByID(slot TeamSlot, id string) (Player, bool) {
	return m.Teams.Get(slot).Player(id)
}
