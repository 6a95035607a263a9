package valuetype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelection_AutoClassifiesWhileTyping(t *testing.T) {
	s := NewSelection(Default, "home")
	assert.False(t, s.IsContextual())

	s.ValueChanged("home-$id")
	assert.True(t, s.IsContextual())

	s.ValueChanged("home")
	assert.False(t, s.IsContextual())
	assert.False(t, s.Manual())
}

func TestSelection_ManualOverrideSurvivesTyping(t *testing.T) {
	s := NewSelection(Default, "home")

	s.Select(true)
	s.ValueChanged("plain text")
	s.ValueChanged("still plain")

	assert.True(t, s.IsContextual())
	assert.True(t, s.Manual())

	s.Select(false)
	s.ValueChanged("$now-with-marker")
	assert.False(t, s.IsContextual())
}

func TestSelection_ResetClearsOverride(t *testing.T) {
	s := NewSelection(Default, "home")
	s.Select(true)

	s.Reset("other")
	assert.False(t, s.Manual())
	assert.False(t, s.IsContextual())

	s.ValueChanged("$other")
	assert.True(t, s.IsContextual())
}

func TestSelection_ResetToStoredType(t *testing.T) {
	s := NewSelection(Default, "")
	s.ResetTo(true)

	assert.True(t, s.IsContextual())
	assert.False(t, s.Manual())
}
