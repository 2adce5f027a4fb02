package signin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/labdesk/internal/model"
)

func TestValidateName(t *testing.T) {
	assert.Error(t, validateName("   "))
	assert.NoError(t, validateName("Ana Cruz"))
	assert.Error(t, validateName(string(make([]rune, 81))))
}

func TestNew_DefaultsRoleToPatient(t *testing.T) {
	m := New(model.Identity{Name: "Ana"}, 80, 24)

	id, err := m.identity()
	require.NoError(t, err)
	assert.Equal(t, model.Identity{Name: "Ana", Role: model.RolePatient}, id)
}

func TestIdentity_TrimsName(t *testing.T) {
	m := New(model.Identity{}, 80, 24)
	m.fb.name = "  Ben  "
	m.fb.role = "admin"

	id, err := m.identity()
	require.NoError(t, err)
	assert.Equal(t, "Ben", id.Name)
	assert.Equal(t, model.RoleAdmin, id.Role)
}

func TestNew_RendersForm(t *testing.T) {
	m := New(model.Identity{}, 80, 24)
	m.Init()

	view := m.View()
	assert.Contains(t, view, "Welcome to the Lab Front Desk")
	assert.Contains(t, view, "Your name")
}
