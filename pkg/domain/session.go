package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Session is the derived onboarding view for one user.
//
// It is never stored: every instance is recomputed from the persisted fields
// plus the fixed step order, which is what makes the flow resumable after any
// restart or reconnect without drift. The snapshot is complete and
// self-sufficient (no deltas) so observers can resynchronize from any single
// message.
type Session struct {
	UserID      string                     `json:"user_id"`
	Steps       []FieldKey                 `json:"steps"`
	Fields      map[FieldKey]ProfileField  `json:"fields"`
	CurrentStep FieldKey                   `json:"current_step,omitempty"`
	Completed   bool                       `json:"completed"`
	Summary     string                     `json:"summary,omitempty"`
}

// ComputeSession derives the session view from a set of persisted fields.
// Unknown keys in fields are ignored; only confirmed fields count toward
// progress. CurrentStep is the first step whose field is not confirmed, empty
// when the flow is complete.
func ComputeSession(userID string, fields []ProfileField) *Session {
	s := &Session{
		UserID: userID,
		Steps:  Steps(),
		Fields: make(map[FieldKey]ProfileField, len(fields)),
	}

	for _, f := range fields {
		if _, err := ParseFieldKey(string(f.Key)); err != nil {
			continue
		}
		s.Fields[f.Key] = f
	}

	s.Completed = true
	for _, step := range s.Steps {
		f, ok := s.Fields[step]
		if ok && f.Confirmed {
			continue
		}
		s.CurrentStep = step
		s.Completed = false
		break
	}

	if s.Completed {
		s.Summary = summarize(s)
	}
	return s
}

// Known returns the set of confirmed field keys, the input StepPolicy expects.
func (s *Session) Known() map[FieldKey]bool {
	known := make(map[FieldKey]bool, len(s.Fields))
	for k, f := range s.Fields {
		if f.Confirmed {
			known[k] = true
		}
	}
	return known
}

// Snapshot returns a deep copy safe to hand across goroutine boundaries.
func (s *Session) Snapshot() *Session {
	cp := *s
	cp.Steps = Steps()
	cp.Fields = make(map[FieldKey]ProfileField, len(s.Fields))
	for k, v := range s.Fields {
		cp.Fields[k] = v
	}
	return &cp
}

// summarize builds the human-readable profile recap attached to completed
// snapshots.
func summarize(s *Session) string {
	keys := make([]string, 0, len(s.Fields))
	for k := range s.Fields {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("Profile complete: ")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%s", k, s.Fields[FieldKey(k)].NormalizedValue)
	}
	return b.String()
}
