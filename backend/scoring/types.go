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

// Package scoring implements the ball-by-ball state machine of a two-innings
// cricket match. Every operation is a pure function from one Match snapshot
// to the next; nothing here mutates a snapshot it did not create.
package scoring

import (
	"maps"
	"slices"
)

// SchemaVersion is the version of the persisted Match document.
const SchemaVersion = 1

// BallsPerOver is the number of legal deliveries in an over.
const BallsPerOver = 6

// MaxWickets is the number of wickets that ends an innings.
const MaxWickets = 10

// MatchStatus is the lifecycle state of a match.
type MatchStatus string

const (
	StatusSetup        MatchStatus = "setup"
	StatusToss         MatchStatus = "toss"
	StatusInProgress   MatchStatus = "in_progress"
	StatusInningsBreak MatchStatus = "innings_break"
	StatusCompleted    MatchStatus = "completed"
)

// Valid reports whether s is a known status.
func (s MatchStatus) Valid() bool {
	switch s {
	case StatusSetup, StatusToss, StatusInProgress, StatusInningsBreak, StatusCompleted:
		return true
	}
	return false
}

// TeamSlot identifies one of the two teams of a match.
type TeamSlot string

const (
	Team1 TeamSlot = "team1"
	Team2 TeamSlot = "team2"
)

// Valid reports whether s names one of the two slots.
func (s TeamSlot) Valid() bool {
	switch s {
	case Team1, Team2:
		return true
	}
	return false
}

// Other returns the opposite slot.
func (s TeamSlot) Other() TeamSlot {
	if s == Team1 {
		return Team2
	}
	return Team1
}

// TossDecision is what the toss winner elected to do.
type TossDecision string

const (
	DecisionBat  TossDecision = "bat"
	DecisionBowl TossDecision = "bowl"
)

// Valid reports whether d is bat or bowl.
func (d TossDecision) Valid() bool {
	switch d {
	case DecisionBat, DecisionBowl:
		return true
	}
	return false
}

// InningsNumber is 1 or 2.
type InningsNumber int

const (
	FirstInnings  InningsNumber = 1
	SecondInnings InningsNumber = 2
)

// ExtraKind classifies a delivery that scores runs not credited to the bat.
type ExtraKind string

const (
	ExtraNone   ExtraKind = "none"
	ExtraWide   ExtraKind = "wide"
	ExtraNoBall ExtraKind = "no_ball"
	ExtraBye    ExtraKind = "bye"
	ExtraLegBye ExtraKind = "leg_bye"
)

// AllExtraKinds lists every extra kind, ExtraNone included.
var AllExtraKinds = []ExtraKind{ExtraNone, ExtraWide, ExtraNoBall, ExtraBye, ExtraLegBye}

// Valid reports whether k is a known kind.
func (k ExtraKind) Valid() bool {
	switch k {
	case ExtraNone, ExtraWide, ExtraNoBall, ExtraBye, ExtraLegBye:
		return true
	}
	return false
}

// Legal reports whether a delivery of this kind counts towards the over.
func (k ExtraKind) Legal() bool {
	switch k {
	case ExtraNone, ExtraBye, ExtraLegBye:
		return true
	case ExtraWide, ExtraNoBall:
		return false
	}
	return false
}

// ChargedToBowler reports whether extras of this kind count against the
// bowler's conceded runs.
func (k ExtraKind) ChargedToBowler() bool {
	switch k {
	case ExtraWide, ExtraNoBall:
		return true
	case ExtraNone, ExtraBye, ExtraLegBye:
		return false
	}
	return false
}

// FacedByStriker reports whether the striker is charged a ball faced.
func (k ExtraKind) FacedByStriker() bool {
	switch k {
	case ExtraNone, ExtraNoBall, ExtraBye, ExtraLegBye:
		return true
	case ExtraWide:
		return false
	}
	return false
}

// RotatesStrike reports whether odd extras of this kind swap the batters.
// Byes and leg-byes are run; wides and no-ball penalties are not.
func (k ExtraKind) RotatesStrike() bool {
	switch k {
	case ExtraBye, ExtraLegBye:
		return true
	case ExtraNone, ExtraWide, ExtraNoBall:
		return false
	}
	return false
}

// WicketKind is the mode of dismissal.
type WicketKind string

const (
	WicketBowled      WicketKind = "bowled"
	WicketCaught      WicketKind = "caught"
	WicketLBW         WicketKind = "lbw"
	WicketStumped     WicketKind = "stumped"
	WicketRunOut      WicketKind = "run_out"
	WicketHitWicket   WicketKind = "hit_wicket"
	WicketRetired     WicketKind = "retired"
	WicketObstructing WicketKind = "obstructing"
	WicketHandledBall WicketKind = "handled_ball"
	WicketTimedOut    WicketKind = "timed_out"
	WicketOther       WicketKind = "other"
	WicketNone        WicketKind = ""
)

// AllWicketKinds lists every dismissal mode.
var AllWicketKinds = []WicketKind{
	WicketBowled, WicketCaught, WicketLBW, WicketStumped, WicketRunOut, WicketHitWicket,
	WicketRetired, WicketObstructing, WicketHandledBall, WicketTimedOut, WicketOther,
}

// Valid reports whether k is a known dismissal mode.
func (k WicketKind) Valid() bool {
	return slices.Contains(AllWicketKinds, k)
}

// CreditsBowler reports whether the bowler is credited with the wicket.
func (k WicketKind) CreditsBowler() bool {
	switch k {
	case WicketBowled, WicketCaught, WicketLBW, WicketStumped:
		return true
	case WicketRunOut, WicketHitWicket, WicketRetired, WicketObstructing,
		WicketHandledBall, WicketTimedOut, WicketOther, WicketNone:
		return false
	}
	return false
}

// Player is a member of a team.
type Player struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	IsCaptain      bool   `json:"isCaptain"`
	IsWicketkeeper bool   `json:"isWicketkeeper"`
}

// Team is an ordered roster. Order is a batting-order hint only.
type Team struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Players []Player `json:"players"`
}

// Player returns the player with the given id.
func (t Team) Player(id string) (Player, bool) {
	for _, p := range t.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

func (t Team) clone() Team {
	t.Players = slices.Clone(t.Players)
	if t.Players == nil {
		t.Players = make([]Player, 0)
	}
	return t
}

// Teams holds both sides of a match.
type Teams struct {
	Team1 Team `json:"team1"`
	Team2 Team `json:"team2"`
}

// Get returns the team in the slot.
func (t Teams) Get(slot TeamSlot) Team {
	if slot == Team2 {
		return t.Team2
	}
	return t.Team1
}

func (t *Teams) set(slot TeamSlot, team Team) {
	if slot == Team2 {
		t.Team2 = team
		return
	}
	t.Team1 = team
}

// Toss records the toss outcome.
type Toss struct {
	Winner   TeamSlot     `json:"winner"`
	Decision TossDecision `json:"decision"`
}

// Dismissal is how a batter got out.
type Dismissal struct {
	Kind     WicketKind `json:"kind"`
	BowlerID string     `json:"bowlerId,omitempty"`
}

// BallEvent is one recorded delivery. Over and Ball are the position before
// the delivery. Events are never modified once appended.
type BallEvent struct {
	ID           string     `json:"id"`
	Over         int        `json:"over"`
	Ball         int        `json:"ball"`
	StrikerID    string     `json:"strikerId,omitempty"`
	NonStrikerID string     `json:"nonStrikerId,omitempty"`
	BowlerID     string     `json:"bowlerId"`
	Runs         int        `json:"runs"`
	Extras       int        `json:"extras"`
	ExtraKind    ExtraKind  `json:"extraKind"`
	IsWicket     bool       `json:"isWicket"`
	WicketKind   WicketKind `json:"wicketKind,omitempty"`
	DismissedID  string     `json:"dismissedId,omitempty"`

	// PriorDismissal is set when the dismissed player was already marked out,
	// so that undo can put the earlier dismissal back.
	PriorDismissal *Dismissal `json:"priorDismissal,omitempty"`

	Timestamp int64 `json:"timestamp"`
}

// Legal reports whether the event counted towards the over.
func (e BallEvent) Legal() bool {
	return e.ExtraKind.Legal()
}

// CompletedOver reports whether the event was the sixth legal ball of an over.
func (e BallEvent) CompletedOver() bool {
	return e.Legal() && e.Ball == BallsPerOver-1
}

// BattingAggregate is a batter's running figures for one innings.
type BattingAggregate struct {
	Runs       int        `json:"runs"`
	BallsFaced int        `json:"ballsFaced"`
	Fours      int        `json:"fours"`
	Sixes      int        `json:"sixes"`
	DotBalls   int        `json:"dotBalls"`
	IsOut      bool       `json:"isOut"`
	WicketKind WicketKind `json:"wicketKind,omitempty"`
	BowlerID   string     `json:"bowlerId,omitempty"`
}

// StrikeRate is runs per hundred balls faced.
func (b BattingAggregate) StrikeRate() float64 {
	if b.BallsFaced == 0 {
		return 0
	}
	return round2(float64(b.Runs) * 100 / float64(b.BallsFaced))
}

// BowlingAggregate is a bowler's running figures for one innings.
type BowlingAggregate struct {
	Overs   int     `json:"overs"`
	Maidens int     `json:"maidens"`
	Balls   int     `json:"balls"`
	Runs    int     `json:"runs"`
	Wickets int     `json:"wickets"`
	Dots    int     `json:"dots"`
	Economy float64 `json:"economy"`
}

// Innings is the scoring state of one side's batting turn.
type Innings struct {
	Events       []BallEvent                 `json:"events"`
	CurrentOver  int                         `json:"currentOver"`
	CurrentBall  int                         `json:"currentBall"`
	TotalRuns    int                         `json:"totalRuns"`
	Wickets      int                         `json:"wickets"`
	Batting      map[string]BattingAggregate `json:"batting"`
	Bowling      map[string]BowlingAggregate `json:"bowling"`
	StrikerID    string                      `json:"strikerId,omitempty"`
	NonStrikerID string                      `json:"nonStrikerId,omitempty"`
	BowlerID     string                      `json:"bowlerId,omitempty"`
}

// NewInnings returns an empty innings.
func NewInnings() Innings {
	return Innings{
		Events:  make([]BallEvent, 0),
		Batting: make(map[string]BattingAggregate),
		Bowling: make(map[string]BowlingAggregate),
	}
}

// LegalBalls is the number of legal deliveries bowled in the innings.
func (in Innings) LegalBalls() int {
	return in.CurrentOver*BallsPerOver + in.CurrentBall
}

// clone copies every nested collection so the result can be modified
// without touching in.
func (in Innings) clone() Innings {
	out := in
	out.Events = slices.Clone(in.Events)
	if out.Events == nil {
		out.Events = make([]BallEvent, 0)
	}
	out.Batting = maps.Clone(in.Batting)
	if out.Batting == nil {
		out.Batting = make(map[string]BattingAggregate)
	}
	out.Bowling = maps.Clone(in.Bowling)
	if out.Bowling == nil {
		out.Bowling = make(map[string]BowlingAggregate)
	}
	return out
}

// InningsPair holds both innings of a match.
type InningsPair struct {
	First  Innings `json:"first"`
	Second Innings `json:"second"`
}

// Match is the root aggregate and the unit of persistence.
type Match struct {
	ID             string        `json:"id"`
	SchemaVersion  int           `json:"schemaVersion"`
	Code           string        `json:"code"`
	OwnerID        string        `json:"ownerId,omitempty"`
	Status         MatchStatus   `json:"status"`
	TotalOvers     int           `json:"totalOvers"`
	Teams          Teams         `json:"teams"`
	Toss           *Toss         `json:"toss"`
	CurrentInnings InningsNumber `json:"currentInnings"`
	BattingSlot    TeamSlot      `json:"battingTeam"`
	Innings        InningsPair   `json:"innings"`
	CreatedAt      int64         `json:"createdAt"`
	UpdatedAt      int64         `json:"updatedAt"`
}

// Clone returns a deep copy of m.
func (m Match) Clone() Match {
	out := m
	out.Teams.Team1 = m.Teams.Team1.clone()
	out.Teams.Team2 = m.Teams.Team2.clone()
	if m.Toss != nil {
		t := *m.Toss
		out.Toss = &t
	}
	out.Innings.First = m.Innings.First.clone()
	out.Innings.Second = m.Innings.Second.clone()
	return out
}

// Normalize fills in collections that a decoded document may lack.
func (m *Match) Normalize() {
	if m.SchemaVersion == 0 {
		m.SchemaVersion = SchemaVersion
	}
	if m.CurrentInnings == 0 {
		m.CurrentInnings = FirstInnings
	}
	if m.BattingSlot == "" {
		m.BattingSlot = Team1
	}
	m.Teams.Team1 = m.Teams.Team1.clone()
	m.Teams.Team2 = m.Teams.Team2.clone()
	m.Innings.First = m.Innings.First.clone()
	m.Innings.Second = m.Innings.Second.clone()
}

// current returns the active innings.
func (m Match) current() Innings {
	if m.CurrentInnings == SecondInnings {
		return m.Innings.Second
	}
	return m.Innings.First
}

// withCurrent returns m with the active innings replaced.
func (m Match) withCurrent(in Innings) Match {
	if m.CurrentInnings == SecondInnings {
		m.Innings.Second = in
	} else {
		m.Innings.First = in
	}
	return m
}
