package editor

import "github.com/trackmap/trackmap-engine/pkg/models"

// State is the workflow position of a Session. Exactly one state is current,
// so a merge dialog and a delete dialog can never be open together.
type State interface {
	isState()
	// InFlight reports whether a request is outstanding.
	InFlight() bool
}

// Idle means no request or dialog is pending. The edit form may be open.
type Idle struct{}

// Submitting means an update request is in flight.
type Submitting struct{}

// ConflictPresented means the update collided with an existing value and the
// merge dialog is open. Err holds the message of a failed merge attempt.
type ConflictPresented struct {
	Conflict models.ConflictData
	Err      string
}

// MergeConfirming means a merge request is in flight.
type MergeConfirming struct {
	Conflict models.ConflictData
}

// AnalyzingImpact means an impact request is in flight.
type AnalyzingImpact struct{}

// ConfirmKind selects which delete confirmation is shown.
type ConfirmKind int

const (
	// NoImpact is a plain confirmation for a value no event references.
	NoImpact ConfirmKind = iota
	// Fallback is a plain confirmation shown when the impact query failed.
	Fallback
	// Itemized lists every affected event before deleting.
	Itemized
)

func (k ConfirmKind) String() string {
	switch k {
	case NoImpact:
		return "no-impact"
	case Fallback:
		return "fallback"
	case Itemized:
		return "itemized"
	}
	return "unknown"
}

// DeleteConfirming means a delete confirmation is open. Impact is set only for
// Itemized. Err holds the message of a failed delete attempt.
type DeleteConfirming struct {
	Kind   ConfirmKind
	Impact *models.ImpactData
	Err    string
}

// Deleting means a delete request is in flight from the given confirmation.
type Deleting struct {
	Kind   ConfirmKind
	Impact *models.ImpactData
}

func (Idle) isState()              {}
func (Submitting) isState()        {}
func (ConflictPresented) isState() {}
func (MergeConfirming) isState()   {}
func (AnalyzingImpact) isState()   {}
func (DeleteConfirming) isState()  {}
func (Deleting) isState()          {}

func (Idle) InFlight() bool              { return false }
func (Submitting) InFlight() bool        { return true }
func (ConflictPresented) InFlight() bool { return false }
func (MergeConfirming) InFlight() bool   { return true }
func (AnalyzingImpact) InFlight() bool   { return true }
func (DeleteConfirming) InFlight() bool  { return false }
func (Deleting) InFlight() bool          { return true }

// View is a copy of everything a renderer needs. It shares no memory with
// the Session.
type View struct {
	// FormOpen is true while the edit form is shown.
	FormOpen bool
	// Busy is true while any request is in flight; every action control
	// should be disabled.
	Busy bool

	// Target is the suggested value being edited, as last known.
	Target models.SuggestedValue
	// Value and IsContextual are the unsaved draft.
	Value        string
	IsContextual bool
	ManualType   bool

	// FieldError is a validation message for the value field.
	FieldError string
	// FormError is a generic message for a failed save or plain delete.
	FormError string

	Merge  *MergeDialog
	Delete *DeleteDialog
}

// MergeDialog is the open merge confirmation.
type MergeDialog struct {
	Source   models.SuggestedValue
	Draft    string
	Existing models.SuggestedValue
	Busy     bool
	Error    string
}

// DeleteDialog is the open delete confirmation.
type DeleteDialog struct {
	Kind   ConfirmKind
	Value  models.SuggestedValue
	Impact *models.ImpactData
	Busy   bool
	Error  string
}
