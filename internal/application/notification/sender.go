// Package notification builds and sends the emails of the accounts portal.
package notification

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joinville/accounts/internal/application/port"
	"github.com/joinville/accounts/internal/domain/identity"
	"github.com/joinville/accounts/internal/infrastructure/auth"
	"github.com/joinville/accounts/internal/infrastructure/logger"
	"go.uber.org/zap"
)

const (
	subjectPrefix = "Prefeitura de Joinville - "
	bodyHeader    = "Prefeitura de Joinville\n\n"

	confirmEmailAction  = "Confirmação do e-mail"
	resetPasswordAction = "Redefinir senha"

	passwordChangedSubject = "Alteração de senha"
	passwordChangedNotice  = "Foi realizada a alteração da sua senha de acesso aos autosserviços do Município de Joinville, " +
		"disponíveis através do site https://accounts.joinville.sc.gov.br/. " +
		"Caso você não tenha realizado essa alteração envie um e-mail para sei@joinville.sc.gov.br " +
		"ou ligue no número (47) 3431-3261 e informe sobre essa alteração."

	signatureApprovedSubject = "Assinatura eletrônica aprovada"

	dateTimeLayout = "02/01/2006 15:04:05"
)

// Sender composes the portal emails and hands them to a port.Mailer
type Sender struct {
	mailer    port.Mailer
	tokens    *auth.JWTService
	publicURL string
	location  *time.Location
	logger    *zap.Logger
}

// NewSender creates a sender. publicURL is the base of the links placed in
// confirmation and reset emails.
func NewSender(mailer port.Mailer, tokens *auth.JWTService, publicURL string, logger *zap.Logger) *Sender {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		loc = time.FixedZone("BRT", -3*60*60)
	}
	return &Sender{
		mailer:    mailer,
		tokens:    tokens,
		publicURL: strings.TrimRight(publicURL, "/"),
		location:  loc,
		logger:    logger,
	}
}

// SendEmailConfirmation mails the link that confirms the user's email
func (s *Sender) SendEmailConfirmation(ctx context.Context, user *identity.User) error {
	link, err := s.link(user, auth.TokenTypeEmailConfirmation, "/account/confirm-email")
	if err != nil {
		return err
	}
	return s.sendAction(ctx, user, confirmEmailAction, link)
}

// SendPasswordReset mails the link that lets the user choose a new password
func (s *Sender) SendPasswordReset(ctx context.Context, user *identity.User) error {
	link, err := s.link(user, auth.TokenTypePasswordReset, "/account/reset-password")
	if err != nil {
		return err
	}
	return s.sendAction(ctx, user, resetPasswordAction, link)
}

// SendPasswordChanged warns the user that the password was changed at at
func (s *Sender) SendPasswordChanged(ctx context.Context, user *identity.User, at time.Time) error {
	var sb strings.Builder
	sb.WriteString("Prezado(a) usuário(a):\n\n")
	sb.WriteString(passwordChangedNotice)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "CPF da conta: %s\n", user.UserName)
	fmt.Fprintf(&sb, "Data e hora da alteração: %s", at.In(s.location).Format(dateTimeLayout))

	return s.send(ctx, port.Message{To: user.Email, Subject: passwordChangedSubject, Body: sb.String()})
}

// SendSignatureApproved tells a citizen that the electronic signature was released
func (s *Sender) SendSignatureApproved(ctx context.Context, name, email string) error {
	body := bodyHeader + "Prezado(a) " + name + ",\n\n" +
		"Sua assinatura eletrônica foi aprovada e já pode ser utilizada no SEI."
	return s.send(ctx, port.Message{To: email, Subject: subjectPrefix + signatureApprovedSubject, Body: body})
}

func (s *Sender) sendAction(ctx context.Context, user *identity.User, action, link string) error {
	return s.send(ctx, port.Message{
		To:      user.Email,
		Subject: subjectPrefix + action,
		Body:    bodyHeader + "Acesse a URL abaixo para " + action + ": " + link,
	})
}

func (s *Sender) send(ctx context.Context, msg port.Message) error {
	if err := s.mailer.Send(ctx, msg); err != nil {
		logger.L(ctx).Error("Failed to send email",
			zap.String("subject", msg.Subject),
			zap.Error(err))
		return fmt.Errorf("send email %q: %w", msg.Subject, err)
	}
	s.logger.Debug("Email sent", zap.String("subject", msg.Subject))
	return nil
}

func (s *Sender) link(user *identity.User, purpose auth.TokenType, path string) (string, error) {
	code, err := s.tokens.GeneratePurposeToken(purpose, user.ID, user.SecurityStamp)
	if err != nil {
		return "", fmt.Errorf("generate %s token: %w", purpose, err)
	}
	q := url.Values{}
	q.Set("userId", user.ID.String())
	q.Set("code", code)
	return s.publicURL + path + "?" + q.Encode(), nil
}
