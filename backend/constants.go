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

package backend

const (
	CurrentProtocolVersion = 1
	CurrentAppVersion      = "0.1.0"
)

// Action types accepted by POST /api/matches/{id}/actions.
const (
	ActionRecordRuns      = "RECORD_RUNS"
	ActionRecordExtra     = "RECORD_EXTRA"
	ActionRecordWicket    = "RECORD_WICKET"
	ActionUndoLastBall    = "UNDO_LAST_BALL"
	ActionChangeBowler    = "CHANGE_BOWLER"
	ActionChangeStriker   = "CHANGE_STRIKER"
	ActionChangeNonStrike = "CHANGE_NON_STRIKER"
	ActionPerformToss     = "PERFORM_TOSS"
	ActionStartInnings    = "START_INNINGS"
	ActionEndInnings      = "END_INNINGS"
	ActionSetTeamName     = "SET_TEAM_NAME"
	ActionAddPlayer       = "ADD_PLAYER"
	ActionRemovePlayer    = "REMOVE_PLAYER"
	ActionSetCaptain      = "SET_CAPTAIN"
	ActionSetWicketkeeper = "SET_WICKETKEEPER"
)

// Websocket message types.
const (
	MsgSnapshot = "SNAPSHOT" // server -> client, full match
	MsgAction   = "ACTION"   // scorer -> server
	MsgError    = "ERROR"    // server -> client
	MsgPing     = "PING"
	MsgPong     = "PONG"
)

// Header carrying the scorer token on API requests.
const ScorerTokenHeader = "X-Scorer-Token"
