// Package editor drives the edit and delete workflows for one suggested value:
// saving an edit, offering a merge when the new text collides with an existing
// value, and showing what a delete would affect before it happens.
//
// A Session is headless. A UI calls its actions in response to user input and
// renders Snapshot. Actions that issue a request block until it completes, so
// a UI that must stay responsive calls them from its own goroutine; other
// actions attempted meanwhile fail with ErrBusy.
package editor

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trackmap/trackmap-engine/pkg/apperrors"
	"github.com/trackmap/trackmap-engine/pkg/models"
	"github.com/trackmap/trackmap-engine/pkg/valuetype"
)

var (
	// ErrBusy is returned for any action attempted while a request is in flight.
	ErrBusy = errors.New("editor: a request is in flight")
	// ErrClosed is returned after Close, including by an action whose request
	// completed after the session was closed.
	ErrClosed = errors.New("editor: session closed")
	// ErrFormClosed is returned by form actions when no value is open.
	ErrFormClosed = errors.New("editor: edit form is not open")
	// ErrDialogOpen is returned by form actions while a confirmation dialog is open.
	ErrDialogOpen = errors.New("editor: a confirmation dialog is open")
	// ErrNoDialog is returned by confirm and cancel when the matching dialog is not open.
	ErrNoDialog = errors.New("editor: no matching dialog is open")
)

// Messages shown for failures that carry no structured detail.
const (
	RequiredMessage    = "Value is required"
	GenericSubmitError = "Failed to save suggested value. Please try again."
	GenericMergeError  = "Failed to merge suggested values. Please try again."
	GenericDeleteError = "Failed to delete suggested value. Please try again."
)

// API is the subset of the engine API the workflows call.
type API interface {
	UpdateSuggestedValue(ctx context.Context, id uuid.UUID, patch models.SuggestedValuePatch) (*models.SuggestedValue, error)
	MergeSuggestedValues(ctx context.Context, sourceID, targetID uuid.UUID) (*models.SuggestedValue, error)
	GetSuggestedValueImpact(ctx context.Context, id uuid.UUID) (*models.ImpactData, error)
	DeleteSuggestedValue(ctx context.Context, id uuid.UUID) error
}

// Callbacks connect a Session to its owner. Any field may be nil.
type Callbacks struct {
	// OnSubmit saves an edit. Defaults to API.UpdateSuggestedValue.
	OnSubmit func(ctx context.Context, id uuid.UUID, patch models.SuggestedValuePatch) (*models.SuggestedValue, error)
	// OnDelete deletes a value. Defaults to API.DeleteSuggestedValue.
	OnDelete func(ctx context.Context, value models.SuggestedValue) error
	// OnRefresh is called once after every successful save, merge, or delete.
	// It must be safe to call when the owner's list is already current.
	OnRefresh func()
}

// Option configures a Session.
type Option func(*Session)

// WithCallbacks sets the owner callbacks.
func WithCallbacks(cb Callbacks) Option {
	return func(s *Session) { s.callbacks = cb }
}

// WithClassifier sets the classifier used while the type is not picked manually.
func WithClassifier(c valuetype.Classifier) Option {
	return func(s *Session) { s.classifier = c }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger.Named("editor")
		}
	}
}

// Session holds the edit form and workflow state for one value at a time.
// It is safe for concurrent use.
type Session struct {
	api        API
	callbacks  Callbacks
	classifier valuetype.Classifier
	logger     *zap.Logger

	mu        sync.Mutex
	closed    bool
	formOpen  bool
	target    models.SuggestedValue
	value     string
	selection *valuetype.Selection
	fieldErr  string
	formErr   string
	state     State
}

// New creates a closed Session. Call Open to start editing a value.
func New(api API, opts ...Option) (*Session, error) {
	if api == nil {
		return nil, errors.New("editor: api is required")
	}

	s := &Session{
		api:        api,
		classifier: valuetype.Default,
		logger:     zap.NewNop(),
		state:      Idle{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.callbacks.OnSubmit == nil {
		s.callbacks.OnSubmit = api.UpdateSuggestedValue
	}
	if s.callbacks.OnDelete == nil {
		s.callbacks.OnDelete = func(ctx context.Context, value models.SuggestedValue) error {
			return api.DeleteSuggestedValue(ctx, value.ID)
		}
	}
	s.selection = valuetype.NewSelection(s.classifier, "")
	return s, nil
}

// ============================================================================
// Edit form
// ============================================================================

// Open shows the edit form for value, discarding any unsaved draft. The type
// starts as the stored type and follows the classifier until picked manually.
func (s *Session) Open(value models.SuggestedValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkIdle(); err != nil {
		return err
	}

	s.target = value
	s.value = value.Value
	s.selection.ResetTo(value.IsContextual)
	s.fieldErr, s.formErr = "", ""
	s.formOpen = true
	return nil
}

// SetValue replaces the draft text. The type is re-classified unless it was
// picked manually.
func (s *Session) SetValue(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkForm(); err != nil {
		return err
	}
	s.value = text
	s.selection.ValueChanged(text)
	return nil
}

// SelectType picks the value type manually. The draft text is left as is.
func (s *Session) SelectType(isContextual bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkForm(); err != nil {
		return err
	}
	s.selection.Select(isContextual)
	return nil
}

// CloseForm dismisses the edit form. An open merge dialog closes with it. An
// open delete confirmation stays open and still decides the delete.
func (s *Session) CloseForm() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.state.InFlight() {
		return ErrBusy
	}
	if _, ok := s.state.(ConflictPresented); ok {
		s.state = Idle{}
	}
	s.formOpen = false
	s.fieldErr, s.formErr = "", ""
	return nil
}

// Submit validates the draft and saves it. A blank value sets a field error
// without any request. A conflict opens the merge dialog; any other failure
// sets a generic form error. Submit returns an error only when the action is
// not allowed.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	if err := s.checkForm(); err != nil {
		s.mu.Unlock()
		return err
	}

	text := strings.TrimSpace(s.value)
	if text == "" {
		s.fieldErr = RequiredMessage
		s.formErr = ""
		s.mu.Unlock()
		return nil
	}

	isContextual := s.selection.IsContextual()
	id := s.target.ID
	patch := models.SuggestedValuePatch{Value: text, IsContextual: &isContextual}
	s.fieldErr, s.formErr = "", ""
	s.state = Submitting{}
	s.mu.Unlock()

	updated, err := s.callbacks.OnSubmit(ctx, id, patch)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.logger.Debug("Dropping save result for closed session", zap.String("value_id", id.String()))
		return ErrClosed
	}

	if err != nil {
		if conflict, ok := apperrors.AsSuggestedValueConflict(err); ok {
			s.state = ConflictPresented{Conflict: *conflict}
			s.fieldErr = ""
		} else {
			s.logger.Warn("Failed to save suggested value",
				zap.String("value_id", id.String()),
				zap.Error(err))
			s.state = Idle{}
			s.formErr = GenericSubmitError
		}
		s.mu.Unlock()
		return nil
	}

	if updated != nil {
		s.target = *updated
	}
	s.finishLocked()
	s.mu.Unlock()

	s.refresh()
	return nil
}

// ============================================================================
// Merge dialog
// ============================================================================

// ConfirmMerge absorbs the value being edited into the existing value it
// collided with. On failure the dialog stays open with a generic error.
func (s *Session) ConfirmMerge(ctx context.Context) error {
	s.mu.Lock()
	if err := s.checkNotBusy(); err != nil {
		s.mu.Unlock()
		return err
	}
	presented, ok := s.state.(ConflictPresented)
	if !ok {
		s.mu.Unlock()
		return ErrNoDialog
	}

	sourceID := s.target.ID
	targetID := presented.Conflict.ExistingValue.ID
	s.state = MergeConfirming{Conflict: presented.Conflict}
	s.mu.Unlock()

	_, err := s.api.MergeSuggestedValues(ctx, sourceID, targetID)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.logger.Debug("Dropping merge result for closed session", zap.String("source_id", sourceID.String()))
		return ErrClosed
	}

	if err != nil {
		s.logger.Warn("Failed to merge suggested values",
			zap.String("source_id", sourceID.String()),
			zap.String("target_id", targetID.String()),
			zap.Error(err))
		s.state = ConflictPresented{Conflict: presented.Conflict, Err: GenericMergeError}
		s.mu.Unlock()
		return nil
	}

	s.finishLocked()
	s.mu.Unlock()

	s.refresh()
	return nil
}

// CancelMerge closes the merge dialog and returns to the edit form with the
// draft intact.
func (s *Session) CancelMerge() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkNotBusy(); err != nil {
		return err
	}
	if _, ok := s.state.(ConflictPresented); !ok {
		return ErrNoDialog
	}
	s.state = Idle{}
	return nil
}

// ============================================================================
// Delete
// ============================================================================

// RequestDelete asks the server what deleting the open value would affect and
// opens the matching confirmation. If the impact query fails, a plain
// confirmation is opened instead.
func (s *Session) RequestDelete(ctx context.Context) error {
	s.mu.Lock()
	if err := s.checkForm(); err != nil {
		s.mu.Unlock()
		return err
	}
	id := s.target.ID
	s.fieldErr, s.formErr = "", ""
	s.state = AnalyzingImpact{}
	s.mu.Unlock()

	impact, err := s.api.GetSuggestedValueImpact(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.logger.Debug("Dropping impact result for closed session", zap.String("value_id", id.String()))
		return ErrClosed
	}

	switch {
	case err != nil:
		s.logger.Warn("Impact query failed, falling back to plain confirmation",
			zap.String("value_id", id.String()),
			zap.Error(err))
		s.state = DeleteConfirming{Kind: Fallback}
	case impact == nil || impact.AffectedEventsCount == 0:
		s.state = DeleteConfirming{Kind: NoImpact}
	default:
		s.state = DeleteConfirming{Kind: Itemized, Impact: impact}
	}
	return nil
}

// ConfirmDelete deletes the value. A failure from the itemized dialog keeps it
// open with an error; a failure from a plain confirmation returns to the edit
// form with an error.
func (s *Session) ConfirmDelete(ctx context.Context) error {
	s.mu.Lock()
	if err := s.checkNotBusy(); err != nil {
		s.mu.Unlock()
		return err
	}
	confirming, ok := s.state.(DeleteConfirming)
	if !ok {
		s.mu.Unlock()
		return ErrNoDialog
	}

	value := s.target
	s.state = Deleting{Kind: confirming.Kind, Impact: confirming.Impact}
	s.mu.Unlock()

	err := s.callbacks.OnDelete(ctx, value)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.logger.Debug("Dropping delete result for closed session", zap.String("value_id", value.ID.String()))
		return ErrClosed
	}

	if err != nil {
		s.logger.Warn("Failed to delete suggested value",
			zap.String("value_id", value.ID.String()),
			zap.Stringer("confirmation", confirming.Kind),
			zap.Error(err))
		if confirming.Kind == Itemized {
			s.state = DeleteConfirming{Kind: Itemized, Impact: confirming.Impact, Err: GenericDeleteError}
		} else {
			s.state = Idle{}
			s.formOpen = true
			s.formErr = GenericDeleteError
		}
		s.mu.Unlock()
		return nil
	}

	s.finishLocked()
	s.mu.Unlock()

	s.refresh()
	return nil
}

// CancelDelete discards the confirmation and returns to the edit form,
// reopening it if it was closed meanwhile.
func (s *Session) CancelDelete() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkNotBusy(); err != nil {
		return err
	}
	if _, ok := s.state.(DeleteConfirming); !ok {
		return ErrNoDialog
	}
	s.state = Idle{}
	s.formOpen = true
	return nil
}

// ============================================================================
// Lifecycle
// ============================================================================

// Close tears the session down. Results of requests still in flight are
// dropped when they arrive: no state changes and no callbacks.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.formOpen = false
}

// State returns the current workflow state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns a copy of the renderable state.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		FormOpen:     s.formOpen,
		Busy:         s.state.InFlight(),
		Target:       s.target,
		Value:        s.value,
		IsContextual: s.selection.IsContextual(),
		ManualType:   s.selection.Manual(),
		FieldError:   s.fieldErr,
		FormError:    s.formErr,
	}

	switch st := s.state.(type) {
	case ConflictPresented:
		v.Merge = &MergeDialog{Source: s.target, Draft: strings.TrimSpace(s.value), Existing: st.Conflict.ExistingValue, Error: st.Err}
	case MergeConfirming:
		v.Merge = &MergeDialog{Source: s.target, Draft: strings.TrimSpace(s.value), Existing: st.Conflict.ExistingValue, Busy: true}
	case DeleteConfirming:
		v.Delete = &DeleteDialog{Kind: st.Kind, Value: s.target, Impact: copyImpact(st.Impact), Error: st.Err}
	case Deleting:
		v.Delete = &DeleteDialog{Kind: st.Kind, Value: s.target, Impact: copyImpact(st.Impact), Busy: true}
	}
	return v
}

// finishLocked ends a workflow after a successful save, merge, or delete.
func (s *Session) finishLocked() {
	s.state = Idle{}
	s.formOpen = false
	s.fieldErr, s.formErr = "", ""
}

func (s *Session) refresh() {
	if s.callbacks.OnRefresh != nil {
		s.callbacks.OnRefresh()
	}
}

func (s *Session) checkNotBusy() error {
	if s.closed {
		return ErrClosed
	}
	if s.state.InFlight() {
		return ErrBusy
	}
	return nil
}

// checkIdle allows an action only when no request or dialog is pending.
func (s *Session) checkIdle() error {
	if err := s.checkNotBusy(); err != nil {
		return err
	}
	if _, ok := s.state.(Idle); !ok {
		return ErrDialogOpen
	}
	return nil
}

// checkForm allows an action only on an open, idle edit form.
func (s *Session) checkForm() error {
	if err := s.checkIdle(); err != nil {
		return err
	}
	if !s.formOpen {
		return ErrFormClosed
	}
	return nil
}

func copyImpact(impact *models.ImpactData) *models.ImpactData {
	if impact == nil {
		return nil
	}
	out := &models.ImpactData{
		AffectedEventsCount: impact.AffectedEventsCount,
		AffectedEvents:      make([]models.AffectedEvent, len(impact.AffectedEvents)),
	}
	for i, ev := range impact.AffectedEvents {
		ev.MatchingProperties = append([]models.MatchingProperty(nil), ev.MatchingProperties...)
		out.AffectedEvents[i] = ev
	}
	return out
}
