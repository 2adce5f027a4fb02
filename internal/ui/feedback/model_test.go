package feedback

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStart_ResetsBindings(t *testing.T) {
	m := New(80, 24)
	m.fb.rating = 2
	m.fb.comment = "slow"

	m.Start("Dr. Maria Santos")
	assert.Equal(t, 5, m.fb.rating)
	assert.Empty(t, m.fb.comment)
	assert.Contains(t, m.View(), "How was your chat with Dr. Maria Santos?")
}

func TestUpdate_WithoutFormIsNoop(t *testing.T) {
	m := New(80, 24)
	_, cmd := m.Update(nil)
	assert.Nil(t, cmd)
	assert.Empty(t, m.View())
}
