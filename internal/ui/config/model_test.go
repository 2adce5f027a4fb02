package config

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/labdesk/internal/credential"
	"github.com/nhle/labdesk/internal/keys"
	"github.com/nhle/labdesk/internal/model"
)

type memSecrets struct {
	values map[string]string
	err    error
}

func (s *memSecrets) Set(key, value string) error {
	if s.err != nil {
		return s.err
	}
	s.values[key] = value
	return nil
}

func newTestSettings(t *testing.T, validate ValidateFunc) (Model, *memSecrets) {
	t.Helper()

	secrets := &memSecrets{values: map[string]string{}}
	m := New(secrets, validate, keys.DefaultKeyMap(), 80, 30)
	m.Start(model.MailboxConfig{Host: "imap.example.com", Username: "lab@example.com", PollIntervalSec: 60})
	return m, secrets
}

// runValidation executes the batched validation command and feeds its
// result back into the model.
func runValidation(t *testing.T, m Model, cmd tea.Cmd) (Model, tea.Cmd) {
	t.Helper()

	require.NotNil(t, cmd)
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)

	for _, c := range batch {
		if c == nil {
			continue
		}
		if res, ok := c().(validateResultMsg); ok {
			return m.Update(res)
		}
	}
	t.Fatal("no validation result in batch")
	return m, nil
}

func TestStart_SeedsFormWithoutPassword(t *testing.T) {
	m, _ := newTestSettings(t, nil)

	assert.Equal(t, ModeForm, m.Mode())
	assert.Equal(t, "imap.example.com", m.fields.host)
	assert.Equal(t, "993", m.fields.port)
	assert.Equal(t, "60", m.fields.interval)
	assert.Empty(t, m.fields.password)
	assert.Contains(t, m.View(), "Lab inbox")
}

func TestValidation_SuccessStoresPassword(t *testing.T) {
	var gotPassword string
	m, secrets := newTestSettings(t, func(_ context.Context, mb model.MailboxConfig, password string) (string, error) {
		gotPassword = password
		return mb.Username, nil
	})
	m.fields.password = "s3cret"

	m, cmd := m.startValidation()
	assert.Equal(t, ModeValidating, m.Mode())
	assert.Contains(t, m.View(), "Testing connection to imap.example.com")

	m, cmd = runValidation(t, m, cmd)
	assert.Equal(t, ModeResult, m.Mode())
	assert.Equal(t, "s3cret", gotPassword)
	assert.Equal(t, "s3cret", secrets.values[credential.MailboxPasswordKey("lab@example.com")])
	assert.Contains(t, m.View(), "Connection successful")

	require.NotNil(t, cmd)
	saved, ok := cmd().(SavedMsg)
	require.True(t, ok)
	assert.True(t, saved.Mailbox.Enabled)
	assert.Equal(t, 60, saved.Mailbox.PollIntervalSec)
	assert.Equal(t, "993", saved.Mailbox.Port)

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.IsType(t, DoneMsg{}, cmd())
}

func TestValidation_FailureAllowsRetry(t *testing.T) {
	calls := 0
	m, secrets := newTestSettings(t, func(context.Context, model.MailboxConfig, string) (string, error) {
		calls++
		return "", errors.New("authentication failed")
	})
	m.fields.password = "wrong"

	m, cmd := m.startValidation()
	m, cmd = runValidation(t, m, cmd)
	assert.Nil(t, cmd)
	assert.Equal(t, ModeResult, m.Mode())
	assert.Contains(t, m.View(), "Connection failed")
	assert.Contains(t, m.View(), "authentication failed")
	assert.Empty(t, secrets.values)

	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.Equal(t, ModeValidating, m.Mode())
	_, _ = runValidation(t, m, cmd)
	assert.Equal(t, 2, calls)
}

func TestValidation_KeyringFailure(t *testing.T) {
	m, secrets := newTestSettings(t, func(context.Context, model.MailboxConfig, string) (string, error) {
		return "lab@example.com", nil
	})
	secrets.err = errors.New("keyring locked")
	m.fields.password = "s3cret"

	m, cmd := m.startValidation()
	m, cmd = runValidation(t, m, cmd)
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "saving password failed")
}

func TestValidation_CancelIgnoresLateResult(t *testing.T) {
	m, _ := newTestSettings(t, func(context.Context, model.MailboxConfig, string) (string, error) {
		return "lab@example.com", nil
	})
	m.fields.password = "s3cret"

	m, cmd := m.startValidation()
	m, esc := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, esc)
	assert.IsType(t, DoneMsg{}, esc())

	m, late := runValidation(t, m, cmd)
	assert.Nil(t, late)
	assert.Equal(t, ModeForm, m.Mode())
}

func TestValidators(t *testing.T) {
	assert.NoError(t, validatePort("993"))
	assert.Error(t, validatePort(""))
	assert.Error(t, validatePort("imap"))
	assert.Error(t, validatePort("70000"))

	assert.NoError(t, validateInterval(""))
	assert.NoError(t, validateInterval("120"))
	assert.Error(t, validateInterval("-5"))
	assert.Error(t, validateInterval("soon"))

	assert.Error(t, validateRequired("Username")("  "))
	assert.NoError(t, validateRequired("Username")("lab"))
}
