package valuetype

// Selection tracks the value type shown by an edit form. While the user has not
// picked a type manually, every change to the value text re-runs the
// classifier. After a manual pick, typing no longer changes the type until
// Reset is called.
//
// Selecting a type never rewrites the value text.
type Selection struct {
	classifier   Classifier
	isContextual bool
	manual       bool
}

// NewSelection returns a selection initialised from value.
func NewSelection(c Classifier, value string) *Selection {
	s := &Selection{classifier: c}
	s.Reset(value)
	return s
}

// Reset clears any manual override and classifies value.
func (s *Selection) Reset(value string) {
	s.manual = false
	s.isContextual = s.classifier.IsContextual(value)
}

// ResetTo clears the manual override and uses a known type, e.g. the stored
// type of the value being edited.
func (s *Selection) ResetTo(isContextual bool) {
	s.manual = false
	s.isContextual = isContextual
}

// ValueChanged re-classifies value unless the type was picked manually.
func (s *Selection) ValueChanged(value string) {
	if s.manual {
		return
	}
	s.isContextual = s.classifier.IsContextual(value)
}

// Select sets the type manually.
func (s *Selection) Select(isContextual bool) {
	s.manual = true
	s.isContextual = isContextual
}

// IsContextual returns the current type.
func (s *Selection) IsContextual() bool {
	return s.isContextual
}

// Manual reports whether the type was picked manually.
func (s *Selection) Manual() bool {
	return s.manual
}
