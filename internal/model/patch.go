package model

import (
	"encoding/json"
	"fmt"
)

// fieldOp is the patch operation for a single field
type fieldOp int

const (
	opKeep fieldOp = iota // field absent from the patch, leave unchanged
	opSet                 // replace with the carried value
	opClear               // reset to the zero value
)

// Field is a tagged patch value that distinguishes "leave unchanged"
// from "set to v" from "explicitly clear". The zero Field keeps, so
// callers build patches by setting only the fields that changed.
type Field[T any] struct {
	op    fieldOp
	value T
}

// Set returns a Field that replaces the target with v
func Set[T any](v T) Field[T] {
	return Field[T]{op: opSet, value: v}
}

// ClearField returns a Field that resets the target to its zero value
func ClearField[T any]() Field[T] {
	return Field[T]{op: opClear}
}

// Apply resolves the field against the current value
func (f Field[T]) Apply(current T) T {
	switch f.op {
	case opSet:
		return f.value
	case opClear:
		var zero T
		return zero
	default:
		return current
	}
}

// IsKeep reports whether the field leaves the target unchanged
func (f Field[T]) IsKeep() bool {
	return f.op == opKeep
}

// fieldWire is the JSON representation of a Field
type fieldWire[T any] struct {
	Op    string `json:"op"`
	Value *T     `json:"value,omitempty"`
}

// MarshalJSON encodes the field with an explicit op so that keep, set
// and clear survive the wire intact
func (f Field[T]) MarshalJSON() ([]byte, error) {
	w := fieldWire[T]{}
	switch f.op {
	case opSet:
		w.Op = "set"
		v := f.value
		w.Value = &v
	case opClear:
		w.Op = "clear"
	default:
		w.Op = "keep"
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the explicit-op representation
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	var w fieldWire[T]
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Op {
	case "", "keep":
		*f = Field[T]{}
	case "set":
		if w.Value == nil {
			var zero T
			*f = Field[T]{op: opSet, value: zero}
		} else {
			*f = Field[T]{op: opSet, value: *w.Value}
		}
	case "clear":
		*f = Field[T]{op: opClear}
	default:
		return fmt.Errorf("unknown patch op %q", w.Op)
	}
	return nil
}

// RoomPatch is a partial update to a Room. Only round-scoped and
// phase-related fields are patchable; identity fields (id, code,
// game_length, max_players) are immutable after creation.
type RoomPatch struct {
	// ExpectPhase, when non-nil, makes the patch conditional: stores
	// apply it only while the room is still in this phase, and return
	// ErrStalePhase otherwise. This is what makes phase transitions
	// race-free when several clients chase the same deadline.
	ExpectPhase *Phase `json:"expect_phase,omitempty"`

	Status            Field[RoomStatus]       `json:"status"`
	Phase             Field[Phase]            `json:"phase"`
	CurrentRound      Field[int]              `json:"current_round"`
	CategoryChooserID Field[PlayerID]         `json:"category_chooser_id"`
	CurrentCategoryID Field[CategoryID]       `json:"current_category_id"`
	CurrentQuestionID Field[QuestionID]       `json:"current_question_id"`
	QuestionNumber    Field[int]              `json:"question_number"`
	GameData          Field[*GameData]        `json:"game_data"`
	Scores            Field[map[PlayerID]int] `json:"scores"`
}

// ApplyTo merges the patch into the room in place. Applying the same
// patch twice yields the same room as applying it once.
func (p RoomPatch) ApplyTo(r *Room) {
	r.Status = p.Status.Apply(r.Status)
	r.Phase = p.Phase.Apply(r.Phase)
	r.CurrentRound = p.CurrentRound.Apply(r.CurrentRound)
	r.CategoryChooserID = p.CategoryChooserID.Apply(r.CategoryChooserID)
	r.CurrentCategoryID = p.CurrentCategoryID.Apply(r.CurrentCategoryID)
	r.CurrentQuestionID = p.CurrentQuestionID.Apply(r.CurrentQuestionID)
	r.QuestionNumber = p.QuestionNumber.Apply(r.QuestionNumber)
	r.GameData = p.GameData.Apply(r.GameData)
	r.Scores = p.Scores.Apply(r.Scores)
}
