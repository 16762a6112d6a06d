// Package session persists conversation state between runs.
package session

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/elee1766/toolchat/src/aisdk"
	"github.com/google/uuid"
)

// DefaultMood is the mood of a fresh session.
const DefaultMood = "neutral"

// State is the durable snapshot of a conversation.
type State struct {
	SessionID        string         `json:"session_id"`
	CreatedAt        time.Time      `json:"created_at"`
	Turns            []aisdk.Turn   `json:"turns"`
	InteractionCount int            `json:"interaction_count"`
	LastInteraction  time.Time      `json:"last_interaction,omitzero"`
	TopicCounts      map[string]int `json:"topic_counts"`
	IntentCounts     map[string]int `json:"intent_counts"`
	Mood             string         `json:"mood"`
	Relationship     Relationship   `json:"relationship"`
	Objectives       []string       `json:"objectives,omitempty"`
}

// Relationship is the persona's running rapport with the user.
type Relationship struct {
	Familiarity int `json:"familiarity"`
	Rapport     int `json:"rapport"`
}

// NewState returns a fresh default state.
func NewState() *State {
	return &State{
		SessionID:    uuid.New().String(),
		CreatedAt:    time.Now(),
		Turns:        []aisdk.Turn{},
		TopicCounts:  map[string]int{},
		IntentCounts: map[string]int{},
		Mood:         DefaultMood,
	}
}

// normalize fills in fields a hand-edited or older file may lack.
func (s *State) normalize() {
	if s.SessionID == "" {
		s.SessionID = uuid.New().String()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	if s.Turns == nil {
		s.Turns = []aisdk.Turn{}
	}
	if s.TopicCounts == nil {
		s.TopicCounts = map[string]int{}
	}
	if s.IntentCounts == nil {
		s.IntentCounts = map[string]int{}
	}
	if s.Mood == "" {
		s.Mood = DefaultMood
	}
	for i := range s.Turns {
		for _, p := range s.Turns[i].Parts {
			if p.FunctionCall != nil {
				p.FunctionCall.Arguments = compactJSON(p.FunctionCall.Arguments)
			}
		}
	}
}

// compactJSON undoes the indentation Save applies to raw call arguments.
// Invalid input is returned unchanged.
func compactJSON(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return raw
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}

// Touch records a user interaction.
func (s *State) Touch(now time.Time) {
	s.InteractionCount++
	s.LastInteraction = now
}
