package access

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func newAccess(t *testing.T, app *Application) *Access {
	t.Helper()
	a, err := NewAccess(app, "52998224725")
	require.NoError(t, err)
	return a
}

func TestNewAccess_RejectsInvalidDocument(t *testing.T) {
	app := newApp(t, ApplicationData{Enabled: true})
	_, err := NewAccess(app, "123")
	assert.Error(t, err)
}

func TestAccess_Prepare(t *testing.T) {
	t.Run("refuses disabled applications", func(t *testing.T) {
		app := newApp(t, ApplicationData{Enabled: false})
		a := newAccess(t, app)
		assert.ErrorIs(t, a.Prepare(app, now), ErrApplicationDisabled)
	})

	t.Run("open application stays performed without terms", func(t *testing.T) {
		app := newApp(t, ApplicationData{Enabled: true})
		a := newAccess(t, app)
		require.NoError(t, a.Prepare(app, now))
		assert.Equal(t, StatusPerformed, a.Status)
		assert.Nil(t, a.AcceptedTerms)
		assert.Equal(t, now, a.CreatedAt)
		assert.NoError(t, a.Check())
	})

	t.Run("approval required moves performed to pending", func(t *testing.T) {
		app := newApp(t, ApplicationData{Enabled: true, RequiresApproval: true})
		a := newAccess(t, app)
		require.NoError(t, a.Prepare(app, now))
		assert.Equal(t, StatusPendingRequest, a.Status)
		assert.EqualError(t, a.Check(), "Seu acesso deve ser submetido a aprovação.")
	})

	t.Run("terms must be accepted", func(t *testing.T) {
		app := newApp(t, ApplicationData{Enabled: true, UseTerms: "Termos"})
		a := newAccess(t, app)
		require.NoError(t, a.Prepare(app, now))
		require.NotNil(t, a.AcceptedTerms)
		assert.False(t, *a.AcceptedTerms)
		assert.EqualError(t, a.Check(), "Você deve aceitar os termos de uso para ter acesso a aplicação.")

		a.AcceptTerms()
		require.NoError(t, a.Prepare(app, now.Add(time.Hour)))
		assert.True(t, *a.AcceptedTerms)
		assert.Equal(t, now, a.CreatedAt)
		assert.NoError(t, a.Check())
	})
}

func TestAccess_RequestAndApprove(t *testing.T) {
	app := newApp(t, ApplicationData{Enabled: true, RequiresApproval: true})
	a := newAccess(t, app)
	require.NoError(t, a.Prepare(app, now))

	assert.ErrorIs(t, a.Approve("u12345", now), ErrNotRequested)

	require.NoError(t, a.RequestAccess(app))
	require.NoError(t, a.Prepare(app, now))
	assert.Equal(t, StatusRequested, a.Status)
	assert.EqualError(t, a.Check(),
		"Solicitação de acesso efetuada em 15/03/2024, você receberá um e-mail notificando sobre o resultado da solicitação.")

	assert.ErrorIs(t, a.Approve("joao", now), ErrInvalidStaffLogin)
	require.NoError(t, a.Approve("u12345", now))
	assert.Equal(t, StatusApproved, a.Status)
	assert.Equal(t, "u12345", a.ApprovedBy)
	assert.NoError(t, a.Check())

	assert.ErrorIs(t, a.Approve("u12345", now), ErrAlreadyApproved)
}

func TestAccess_RequestWithoutApproval(t *testing.T) {
	app := newApp(t, ApplicationData{Enabled: true})
	a := newAccess(t, app)
	require.NoError(t, a.RequestAccess(app))
	assert.Equal(t, StatusPerformed, a.Status)
}

func TestAccess_RequestAfterReview(t *testing.T) {
	t.Run("denied access stays denied", func(t *testing.T) {
		for _, requiresApproval := range []bool{false, true} {
			app := newApp(t, ApplicationData{Enabled: true, RequiresApproval: requiresApproval})
			a := newAccess(t, app)
			require.NoError(t, a.Deny("u12345", "Cadastro irregular", now))

			assert.ErrorIs(t, a.RequestAccess(app), ErrAccessRevoked)
			require.NoError(t, a.Prepare(app, now))
			assert.Equal(t, StatusDenied, a.Status)
			assert.ErrorIs(t, a.Check(), ErrAccessRevoked)
		}
	})

	t.Run("approved access is kept", func(t *testing.T) {
		app := newApp(t, ApplicationData{Enabled: true, RequiresApproval: true})
		a := newAccess(t, app)
		require.NoError(t, a.RequestAccess(app))
		require.NoError(t, a.Approve("u12345", now))

		require.NoError(t, a.RequestAccess(app))
		assert.Equal(t, StatusApproved, a.Status)
		assert.Equal(t, "u12345", a.ApprovedBy)
	})
}

func TestAccess_Deny(t *testing.T) {
	app := newApp(t, ApplicationData{Enabled: true})
	a := newAccess(t, app)

	assert.ErrorIs(t, a.Deny("u12345", " ", now), ErrDenyCauseRequired)
	require.NoError(t, a.Deny("u12345", "Cadastro irregular", now))
	assert.Equal(t, StatusDenied, a.Status)
	assert.Equal(t, "Cadastro irregular", a.DeniedCause)
	assert.EqualError(t, a.Check(), "O seu acesso a aplicação foi revogado.")

	assert.ErrorIs(t, a.Deny("u12345", "de novo", now), ErrAlreadyDenied)
}

func TestValidStaffLogin(t *testing.T) {
	assert.True(t, ValidStaffLogin("u12345"))
	assert.True(t, ValidStaffLogin(""))
	assert.False(t, ValidStaffLogin("u1234"))
	assert.False(t, ValidStaffLogin("x12345"))
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "Efetuado", StatusPerformed.String())
	assert.Equal(t, "Pendente de requisição de acesso", StatusPendingRequest.String())
	assert.Equal(t, "Negado", StatusDenied.String())
}
