package notification

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/joinville/accounts/internal/infrastructure/auth"
	"github.com/joinville/accounts/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestSender(mailer *testutil.RecordingMailer) (*Sender, *auth.JWTService) {
	tokens := testutil.NewJWTService()
	return NewSender(mailer, tokens, "https://accounts.joinville.sc.gov.br/", zap.NewNop()), tokens
}

func linkFrom(t *testing.T, body string) *url.URL {
	t.Helper()
	_, raw, ok := strings.Cut(body, ": ")
	require.True(t, ok, "body has no link: %q", body)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestSender_SendEmailConfirmation(t *testing.T) {
	mailer := &testutil.RecordingMailer{}
	sender, tokens := newTestSender(mailer)
	user := testutil.NewTestUser(t, testutil.PersonCPF, testutil.PersonEmail)

	require.NoError(t, sender.SendEmailConfirmation(context.Background(), user))

	msg := mailer.Last()
	assert.Equal(t, testutil.PersonEmail, msg.To)
	assert.Equal(t, "Prefeitura de Joinville - Confirmação do e-mail", msg.Subject)
	assert.True(t, strings.HasPrefix(msg.Body, "Prefeitura de Joinville\n\nAcesse a URL abaixo para Confirmação do e-mail: "))

	link := linkFrom(t, msg.Body)
	assert.Equal(t, "/account/confirm-email", link.Path)
	assert.Equal(t, "accounts.joinville.sc.gov.br", link.Host)
	assert.Equal(t, user.ID.String(), link.Query().Get("userId"))
	assert.NoError(t, tokens.ValidatePurposeToken(link.Query().Get("code"), auth.TokenTypeEmailConfirmation, user.ID, user.SecurityStamp))
}

func TestSender_SendPasswordReset(t *testing.T) {
	mailer := &testutil.RecordingMailer{}
	sender, tokens := newTestSender(mailer)
	user := testutil.NewTestUser(t, testutil.PersonCPF, testutil.PersonEmail)

	require.NoError(t, sender.SendPasswordReset(context.Background(), user))

	msg := mailer.Last()
	assert.Equal(t, "Prefeitura de Joinville - Redefinir senha", msg.Subject)
	link := linkFrom(t, msg.Body)
	assert.Equal(t, "/account/reset-password", link.Path)

	code := link.Query().Get("code")
	assert.NoError(t, tokens.ValidatePurposeToken(code, auth.TokenTypePasswordReset, user.ID, user.SecurityStamp))
	assert.Error(t, tokens.ValidatePurposeToken(code, auth.TokenTypeEmailConfirmation, user.ID, user.SecurityStamp))
	assert.Error(t, tokens.ValidatePurposeToken(code, auth.TokenTypePasswordReset, user.ID, "rotated"))
}

func TestSender_SendPasswordChanged(t *testing.T) {
	mailer := &testutil.RecordingMailer{}
	sender, _ := newTestSender(mailer)
	user := testutil.NewTestUser(t, testutil.PersonCPF, testutil.PersonEmail)
	at := time.Date(2024, 3, 5, 17, 4, 9, 0, time.UTC)

	require.NoError(t, sender.SendPasswordChanged(context.Background(), user, at))

	msg := mailer.Last()
	assert.Equal(t, "Alteração de senha", msg.Subject)
	assert.True(t, strings.HasPrefix(msg.Body, "Prezado(a) usuário(a):\n\nFoi realizada a alteração da sua senha"))
	assert.Contains(t, msg.Body, "(47) 3431-3261")
	assert.Contains(t, msg.Body, "\n\nCPF da conta: "+testutil.PersonCPF+"\n")
	assert.Contains(t, msg.Body, "Data e hora da alteração: 05/03/2024 14:04:09")
}

func TestSender_MailerError(t *testing.T) {
	mailer := &testutil.RecordingMailer{Err: assert.AnError}
	sender, _ := newTestSender(mailer)

	err := sender.SendSignatureApproved(context.Background(), "Maria", testutil.PersonEmail)

	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Empty(t, mailer.Messages())
}
