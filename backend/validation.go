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

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/ttbt-io/wicketkeeper/backend/scoring"
)

// ErrInvalidAction is returned for envelopes that fail validation.
var ErrInvalidAction = errors.New("InvalidAction: malformed action")

//go:embed schema/action.schema.json
var actionSchemaJSON []byte

var actionSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(actionSchemaJSON))
})

// uuidRegex is a regex for standard UUIDs (8-4-4-4-12 hex digits)
var uuidRegex = regexp.MustCompile(`^[a-fA-F0-9]{8}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{12}$`)

func isValidUUID(id string) bool {
	return uuidRegex.MatchString(id)
}

func isValidEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

// BaseAction is the envelope of every scoring action.
type BaseAction struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	Timestamp     int64           `json:"timestamp"`
	SchemaVersion int             `json:"schemaVersion,omitempty"`
}

// ActionPayload is the union of all payload fields. Which ones are required
// depends on the action type.
type ActionPayload struct {
	Runs        int                  `json:"runs,omitempty"`
	Kind        string               `json:"kind,omitempty"`
	DismissedID string               `json:"dismissedId,omitempty"`
	PlayerID    string               `json:"playerId,omitempty"`
	Team        scoring.TeamSlot     `json:"team,omitempty"`
	Name        string               `json:"name,omitempty"`
	Winner      scoring.TeamSlot     `json:"winner,omitempty"`
	Decision    scoring.TossDecision `json:"decision,omitempty"`
}

// ParseAction validates raw against the action schema and decodes it.
func ParseAction(raw json.RawMessage) (BaseAction, ActionPayload, error) {
	var action BaseAction
	var payload ActionPayload
	if err := json.Unmarshal(raw, &action); err != nil {
		return action, payload, fmt.Errorf("%w: malformed action JSON", ErrInvalidAction)
	}
	if err := validateSchema(raw); err != nil {
		return action, payload, err
	}
	if len(action.Payload) > 0 {
		if err := json.Unmarshal(action.Payload, &payload); err != nil {
			return action, payload, fmt.Errorf("%w: %v", ErrInvalidAction, err)
		}
	}
	return action, payload, nil
}

// ValidateAction validates a single action from raw JSON.
func ValidateAction(raw json.RawMessage) error {
	_, _, err := ParseAction(raw)
	return err
}

// ValidateActions validates a list of actions.
func ValidateActions(actions []json.RawMessage) error {
	for i, raw := range actions {
		if err := ValidateAction(raw); err != nil {
			return fmt.Errorf("invalid action at index %d: %w", i, err)
		}
	}
	return nil
}

func validateSchema(raw json.RawMessage) error {
	schema, err := actionSchema()
	if err != nil {
		return fmt.Errorf("action schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAction, err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidAction, strings.Join(msgs, "; "))
}

// applyAction dispatches a validated action to the keeper.
func applyAction(k *scoring.Keeper, actionType string, p ActionPayload) (scoring.Match, error) {
	switch actionType {
	case ActionRecordRuns:
		return k.RecordRuns(p.Runs)
	case ActionRecordExtra:
		return k.RecordExtra(scoring.ExtraKind(p.Kind), p.Runs)
	case ActionRecordWicket:
		return k.RecordWicket(scoring.WicketKind(p.Kind), p.DismissedID)
	case ActionUndoLastBall:
		return k.UndoLastBall()
	case ActionChangeBowler:
		return k.ChangeBowler(p.PlayerID)
	case ActionChangeStriker:
		return k.ChangeStriker(p.PlayerID)
	case ActionChangeNonStrike:
		return k.ChangeNonStriker(p.PlayerID)
	case ActionPerformToss:
		return k.PerformToss(p.Winner, p.Decision)
	case ActionStartInnings:
		return k.StartInnings()
	case ActionEndInnings:
		return k.EndInnings()
	case ActionSetTeamName:
		return k.SetTeamName(p.Team, p.Name)
	case ActionAddPlayer:
		return k.AddPlayer(p.Team, p.Name)
	case ActionRemovePlayer:
		return k.RemovePlayer(p.Team, p.PlayerID)
	case ActionSetCaptain:
		return k.SetCaptain(p.Team, p.PlayerID)
	case ActionSetWicketkeeper:
		return k.SetWicketkeeper(p.Team, p.PlayerID)
	}
	return scoring.Match{}, fmt.Errorf("%w: unknown action type: %s", ErrInvalidAction, actionType)
}
