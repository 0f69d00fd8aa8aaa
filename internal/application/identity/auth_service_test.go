package identity

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/joinville/accounts/internal/application/notification"
	"github.com/joinville/accounts/internal/domain/account"
	"github.com/joinville/accounts/internal/domain/identity"
	"github.com/joinville/accounts/internal/domain/shared"
	"github.com/joinville/accounts/internal/infrastructure/auth"
	"github.com/joinville/accounts/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type authFixture struct {
	users     *testutil.MockUserRepository
	people    *testutil.MockPersonRepository
	sei       *testutil.MockSeiGateway
	mailer    *testutil.RecordingMailer
	events    *testutil.RecordingPublisher
	blacklist *auth.InMemoryTokenBlacklist
	jwt       *auth.JWTService
	svc       *AuthService
}

func newAuthFixture(t *testing.T, cfg AuthServiceConfig) *authFixture {
	t.Helper()
	f := &authFixture{
		users:     new(testutil.MockUserRepository),
		people:    new(testutil.MockPersonRepository),
		sei:       new(testutil.MockSeiGateway),
		mailer:    &testutil.RecordingMailer{},
		events:    &testutil.RecordingPublisher{},
		blacklist: auth.NewInMemoryTokenBlacklist(),
		jwt:       testutil.NewJWTService(),
	}
	scope := testutil.NewTransactionScope(f.users, f.people, nil, nil, nil)
	sender := notification.NewSender(f.mailer, f.jwt, "https://accounts.example.com", zap.NewNop())
	f.svc = NewAuthService(f.users, f.people, scope, f.sei, f.jwt, f.blacklist, sender, f.events, cfg, zap.NewNop())
	t.Cleanup(func() {
		f.users.AssertExpectations(t)
		f.people.AssertExpectations(t)
		f.sei.AssertExpectations(t)
	})
	return f
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("successful login of a person", func(t *testing.T) {
		f := newAuthFixture(t, DefaultAuthServiceConfig())
		user := testutil.NewTestUser(t, testutil.PersonCPF, testutil.PersonEmail)
		person := testutil.NewTestPerson(t)

		f.users.On("FindByUserName", ctx, testutil.PersonCPF).Return(user, nil)
		f.people.On("FindByCPF", ctx, testutil.PersonCPF).Return(person, nil)
		f.sei.On("UpdateSignatureStatus", ctx, person).Return(nil)
		f.users.On("Update", ctx, user).Return(nil).Once()

		result, err := f.svc.Login(ctx, LoginInput{Username: "529.982.247-25", Password: testutil.TestPassword, IP: "10.0.0.1"})

		require.NoError(t, err)
		assert.NotEmpty(t, result.AccessToken)
		assert.NotEmpty(t, result.RefreshToken)
		assert.Equal(t, testutil.PersonCPF, result.User.UserName)
		assert.True(t, result.User.IsPerson)
		assert.False(t, result.User.Staff)
		assert.Equal(t, "10.0.0.1", user.LastLoginIP)

		claims, err := f.jwt.ValidateAccessToken(result.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), claims.UserID)
		assert.Equal(t, "unsolicited", claims.SignatureStatus)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newAuthFixture(t, DefaultAuthServiceConfig())
		f.users.On("FindByUserName", ctx, testutil.PersonCPF).Return(nil, shared.ErrNotFound)

		_, err := f.svc.Login(ctx, LoginInput{Username: testutil.PersonCPF, Password: "x"})

		assert.ErrorIs(t, err, ErrUserNotRegistered)
	})

	t.Run("unconfirmed email", func(t *testing.T) {
		f := newAuthFixture(t, DefaultAuthServiceConfig())
		user := testutil.NewTestUser(t, testutil.PersonCPF, testutil.PersonEmail)
		user.EmailConfirmed = false
		f.users.On("FindByUserName", ctx, testutil.PersonCPF).Return(user, nil)

		_, err := f.svc.Login(ctx, LoginInput{Username: testutil.PersonCPF, Password: testutil.TestPassword})

		assert.ErrorIs(t, err, identity.ErrEmailNotConfirmed)
	})

	t.Run("wrong password records a failure", func(t *testing.T) {
		f := newAuthFixture(t, DefaultAuthServiceConfig())
		user := testutil.NewTestUser(t, testutil.CompanyCNPJ, testutil.CompanyEmail)
		f.users.On("FindByUserName", ctx, testutil.CompanyCNPJ).Return(user, nil)
		f.users.On("Update", ctx, user).Return(nil)

		_, err := f.svc.Login(ctx, LoginInput{Username: testutil.CompanyCNPJ, Password: "wrong"})

		assert.ErrorIs(t, err, identity.ErrInvalidLogin)
		assert.Equal(t, 1, user.FailedAttempts)
	})

	t.Run("locks the account at the attempt limit", func(t *testing.T) {
		f := newAuthFixture(t, AuthServiceConfig{MaxLoginAttempts: 1, LockDuration: time.Minute})
		user := testutil.NewTestUser(t, testutil.CompanyCNPJ, testutil.CompanyEmail)
		f.users.On("FindByUserName", ctx, testutil.CompanyCNPJ).Return(user, nil)
		f.users.On("Update", ctx, user).Return(nil)

		_, err := f.svc.Login(ctx, LoginInput{Username: testutil.CompanyCNPJ, Password: "wrong"})
		assert.ErrorIs(t, err, identity.ErrAccountLocked)

		_, err = f.svc.Login(ctx, LoginInput{Username: testutil.CompanyCNPJ, Password: testutil.TestPassword})
		assert.ErrorIs(t, err, identity.ErrAccountLocked)
	})

	t.Run("syncs an approved signature from SEI", func(t *testing.T) {
		f := newAuthFixture(t, AuthServiceConfig{
			MaxLoginAttempts: 10,
			LockDuration:     time.Minute,
			IsStaff:          func(u string) bool { return u == testutil.PersonCPF },
		})
		user := testutil.NewTestUser(t, testutil.PersonCPF, testutil.PersonEmail)
		person := testutil.NewTestPerson(t)
		person.SetSeiID(42)

		f.users.On("FindByUserName", ctx, testutil.PersonCPF).Return(user, nil)
		f.people.On("FindByCPF", ctx, testutil.PersonCPF).Return(person, nil)
		f.sei.On("UpdateSignatureStatus", ctx, person).Run(func(args mock.Arguments) {
			args.Get(1).(*account.Person).ApplySignatureStatus(account.SignatureApproved)
		}).Return(nil)
		f.people.On("Update", ctx, person).Return(nil)
		f.users.On("Update", ctx, user).Return(nil)

		result, err := f.svc.Login(ctx, LoginInput{Username: testutil.PersonCPF, Password: testutil.TestPassword})

		require.NoError(t, err)
		assert.Equal(t, "approved", result.User.SignatureStatus)
		assert.True(t, result.User.Staff)
		assert.Equal(t, []string{account.EventTypeSignatureStatusChanged}, f.events.EventTypes())
	})

	t.Run("SEI failure does not block the login", func(t *testing.T) {
		f := newAuthFixture(t, DefaultAuthServiceConfig())
		user := testutil.NewTestUser(t, testutil.PersonCPF, testutil.PersonEmail)
		person := testutil.NewTestPerson(t)

		f.users.On("FindByUserName", ctx, testutil.PersonCPF).Return(user, nil)
		f.people.On("FindByCPF", ctx, testutil.PersonCPF).Return(person, nil)
		f.sei.On("UpdateSignatureStatus", ctx, person).Return(assert.AnError)
		f.users.On("Update", ctx, user).Return(nil)

		_, err := f.svc.Login(ctx, LoginInput{Username: testutil.PersonCPF, Password: testutil.TestPassword})

		assert.NoError(t, err)
	})
}

func TestAuthService_RefreshAndLogout(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, DefaultAuthServiceConfig())
	user := testutil.NewTestUser(t, testutil.CompanyCNPJ, testutil.CompanyEmail)

	f.users.On("FindByUserName", ctx, testutil.CompanyCNPJ).Return(user, nil)
	f.users.On("Update", ctx, user).Return(nil)
	f.users.On("FindByID", ctx, user.ID).Return(user, nil)

	login, err := f.svc.Login(ctx, LoginInput{Username: testutil.CompanyCNPJ, Password: testutil.TestPassword})
	require.NoError(t, err)

	refreshed, err := f.svc.RefreshToken(ctx, RefreshTokenInput{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	access, err := f.jwt.ValidateAccessToken(refreshed.AccessToken)
	require.NoError(t, err)

	err = f.svc.Logout(ctx, LogoutInput{
		UserID:       user.ID,
		TokenID:      access.ID,
		ExpiresAt:    access.ExpiresAt.Time,
		RefreshToken: refreshed.RefreshToken,
	})
	require.NoError(t, err)

	blacklisted, err := f.blacklist.IsBlacklisted(ctx, access.ID)
	require.NoError(t, err)
	assert.True(t, blacklisted)

	_, err = f.svc.RefreshToken(ctx, RefreshTokenInput{RefreshToken: refreshed.RefreshToken})
	assert.ErrorIs(t, err, ErrTokenRevoked)

	_, err = f.svc.RefreshToken(ctx, RefreshTokenInput{RefreshToken: "garbage"})
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "TOKEN_INVALID", de.Code)
}

func TestAuthService_ForgotPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("email of another user", func(t *testing.T) {
		f := newAuthFixture(t, DefaultAuthServiceConfig())
		user := testutil.NewTestUser(t, testutil.PersonCPF, testutil.PersonEmail)
		f.users.On("FindByUserName", ctx, testutil.PersonCPF).Return(user, nil)

		err := f.svc.ForgotPassword(ctx, ForgotPasswordInput{Document: testutil.PersonCPF, Email: "other@example.com"})

		assert.ErrorIs(t, err, ErrIncorrectData)
		assert.Empty(t, f.mailer.Messages())
	})

	t.Run("unknown document", func(t *testing.T) {
		f := newAuthFixture(t, DefaultAuthServiceConfig())
		f.users.On("FindByUserName", ctx, testutil.OtherCPF).Return(nil, shared.ErrNotFound)

		err := f.svc.ForgotPassword(ctx, ForgotPasswordInput{Document: testutil.OtherCPF, Email: testutil.PersonEmail})

		assert.ErrorIs(t, err, ErrIncorrectData)
	})

	t.Run("sends the reset link", func(t *testing.T) {
		f := newAuthFixture(t, DefaultAuthServiceConfig())
		user := testutil.NewTestUser(t, testutil.PersonCPF, testutil.PersonEmail)
		f.users.On("FindByUserName", ctx, testutil.PersonCPF).Return(user, nil)

		err := f.svc.ForgotPassword(ctx, ForgotPasswordInput{Document: testutil.PersonCPF, Email: strings.ToUpper(testutil.PersonEmail)})

		require.NoError(t, err)
		assert.Equal(t, "Prefeitura de Joinville - Redefinir senha", f.mailer.Last().Subject)
		assert.Contains(t, f.mailer.Last().Body, "https://accounts.example.com/account/reset-password?")
	})
}

func TestAuthService_ResetPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("confirmation mismatch", func(t *testing.T) {
		f := newAuthFixture(t, DefaultAuthServiceConfig())
		err := f.svc.ResetPassword(ctx, ResetPasswordInput{Password: "Abcdef12", ConfirmPassword: "Abcdef13"})
		assert.ErrorIs(t, err, identity.ErrPasswordMismatch)
	})

	t.Run("unknown email succeeds silently", func(t *testing.T) {
		f := newAuthFixture(t, DefaultAuthServiceConfig())
		f.users.On("FindByEmail", ctx, "nobody@example.com").Return(nil, shared.ErrNotFound)

		err := f.svc.ResetPassword(ctx, ResetPasswordInput{
			Email: "nobody@example.com", Password: testutil.OtherPassword, ConfirmPassword: testutil.OtherPassword,
		})
		assert.NoError(t, err)
	})

	t.Run("invalid code", func(t *testing.T) {
		f := newAuthFixture(t, DefaultAuthServiceConfig())
		user := testutil.NewTestUser(t, testutil.PersonCPF, testutil.PersonEmail)
		f.users.On("FindByEmail", ctx, testutil.PersonEmail).Return(user, nil)

		err := f.svc.ResetPassword(ctx, ResetPasswordInput{
			Email: testutil.PersonEmail, Code: "bad", Password: testutil.OtherPassword, ConfirmPassword: testutil.OtherPassword,
		})
		assert.ErrorIs(t, err, ErrInvalidResetCode)
	})

	t.Run("resets, unlocks and revokes the SEI signature", func(t *testing.T) {
		f := newAuthFixture(t, DefaultAuthServiceConfig())
		user := testutil.NewTestUser(t, testutil.PersonCPF, testutil.PersonEmail)
		lockEnd := time.Now().Add(time.Hour)
		user.LockoutEnd = &lockEnd
		user.SignatureStatus = account.SignatureApproved
		person := testutil.NewTestPerson(t)
		person.SetSeiID(7)
		person.SignatureStatus = account.SignatureApproved

		code, err := f.jwt.GeneratePurposeToken(auth.TokenTypePasswordReset, user.ID, user.SecurityStamp)
		require.NoError(t, err)

		f.users.On("FindByEmail", ctx, testutil.PersonEmail).Return(user, nil)
		f.people.On("FindByCPF", ctx, testutil.PersonCPF).Return(person, nil)
		f.sei.On("ChangePassword", ctx, person, testutil.OtherPassword, true).Run(func(args mock.Arguments) {
			args.Get(1).(*account.Person).RevokeSignature()
		}).Return(nil)
		f.people.On("Update", ctx, person).Return(nil)
		f.users.On("Update", ctx, user).Return(nil)

		err = f.svc.ResetPassword(ctx, ResetPasswordInput{
			Email:           testutil.PersonEmail,
			Document:        "529.982.247-25",
			Code:            code,
			Password:        testutil.OtherPassword,
			ConfirmPassword: testutil.OtherPassword,
		})

		require.NoError(t, err)
		assert.True(t, user.VerifyPassword(testutil.OtherPassword))
		assert.False(t, user.IsLockedOut(time.Now()))
		assert.Equal(t, account.SignatureUnsolicited, user.SignatureStatus)

		invalidated, err := f.blacklist.IsUserTokenInvalidated(ctx, user.ID.String(), time.Now().Add(-time.Hour))
		require.NoError(t, err)
		assert.True(t, invalidated)

		// the reset link dies with the old security stamp
		assert.Error(t, f.jwt.ValidatePurposeToken(code, auth.TokenTypePasswordReset, user.ID, user.SecurityStamp))
	})

	t.Run("SEI failure keeps the old password stored", func(t *testing.T) {
		f := newAuthFixture(t, DefaultAuthServiceConfig())
		user := testutil.NewTestUser(t, testutil.PersonCPF, testutil.PersonEmail)
		person := testutil.NewTestPerson(t)
		code, err := f.jwt.GeneratePurposeToken(auth.TokenTypePasswordReset, user.ID, user.SecurityStamp)
		require.NoError(t, err)

		f.users.On("FindByEmail", ctx, testutil.PersonEmail).Return(user, nil)
		f.people.On("FindByCPF", ctx, testutil.PersonCPF).Return(person, nil)
		f.sei.On("ChangePassword", ctx, person, testutil.OtherPassword, true).Return(assert.AnError)

		err = f.svc.ResetPassword(ctx, ResetPasswordInput{
			Email: testutil.PersonEmail, Code: code, Password: testutil.OtherPassword, ConfirmPassword: testutil.OtherPassword,
		})

		assert.ErrorIs(t, err, assert.AnError)
		f.users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestAuthService_ChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong current password", func(t *testing.T) {
		f := newAuthFixture(t, DefaultAuthServiceConfig())
		user := testutil.NewTestUser(t, testutil.PersonCPF, testutil.PersonEmail)
		f.users.On("FindByID", ctx, user.ID).Return(user, nil)

		err := f.svc.ChangePassword(ctx, ChangePasswordInput{UserID: user.ID, OldPassword: "nope", NewPassword: testutil.OtherPassword})

		assert.ErrorIs(t, err, identity.ErrWrongPassword)
	})

	t.Run("changes the password in SEI and notifies", func(t *testing.T) {
		f := newAuthFixture(t, DefaultAuthServiceConfig())
		user := testutil.NewTestUser(t, testutil.PersonCPF, testutil.PersonEmail)
		person := testutil.NewTestPerson(t)
		f.users.On("FindByID", ctx, user.ID).Return(user, nil)
		f.people.On("FindByCPF", ctx, testutil.PersonCPF).Return(person, nil)
		f.sei.On("ChangePassword", ctx, person, testutil.OtherPassword, false).Return(nil)
		f.users.On("Update", ctx, user).Return(nil)

		err := f.svc.ChangePassword(ctx, ChangePasswordInput{UserID: user.ID, OldPassword: testutil.TestPassword, NewPassword: testutil.OtherPassword})

		require.NoError(t, err)
		assert.True(t, user.VerifyPassword(testutil.OtherPassword))
		assert.Equal(t, "Alteração de senha", f.mailer.Last().Subject)
		assert.Contains(t, f.mailer.Last().Body, "CPF da conta: "+testutil.PersonCPF)
		assert.Equal(t, []string{identity.EventTypeUserPasswordChanged}, f.events.EventTypes())
	})
}

func TestAuthService_ChangeEmail(t *testing.T) {
	ctx := context.Background()
	const newEmail = "nova@example.com"

	t.Run("confirmation mismatch", func(t *testing.T) {
		f := newAuthFixture(t, DefaultAuthServiceConfig())
		_, err := f.svc.ChangeEmail(ctx, ChangeEmailInput{Email: newEmail, ConfirmEmail: "x@example.com"})
		assert.ErrorIs(t, err, identity.ErrEmailMismatch)
	})

	t.Run("email in use", func(t *testing.T) {
		f := newAuthFixture(t, DefaultAuthServiceConfig())
		user := testutil.NewTestUser(t, testutil.PersonCPF, testutil.PersonEmail)
		f.users.On("FindByID", ctx, user.ID).Return(user, nil)
		f.users.On("ExistsByEmail", ctx, newEmail).Return(true, nil)

		_, err := f.svc.ChangeEmail(ctx, ChangeEmailInput{
			UserID: user.ID, Password: testutil.TestPassword, Email: newEmail, ConfirmEmail: newEmail,
		})
		assert.ErrorIs(t, err, ErrEmailInUse)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newAuthFixture(t, DefaultAuthServiceConfig())
		user := testutil.NewTestUser(t, testutil.PersonCPF, testutil.PersonEmail)
		f.users.On("FindByID", ctx, user.ID).Return(user, nil)

		_, err := f.svc.ChangeEmail(ctx, ChangeEmailInput{
			UserID: user.ID, Password: "bad", Email: newEmail, ConfirmEmail: newEmail,
		})
		assert.ErrorIs(t, err, identity.ErrWrongPassword)
	})

	t.Run("updates SEI, persists and closes sessions", func(t *testing.T) {
		f := newAuthFixture(t, DefaultAuthServiceConfig())
		user := testutil.NewTestUser(t, testutil.PersonCPF, testutil.PersonEmail)
		person := testutil.NewTestPerson(t)
		person.SetSeiID(9)

		f.users.On("FindByID", ctx, user.ID).Return(user, nil)
		f.users.On("ExistsByEmail", ctx, newEmail).Return(false, nil)
		f.people.On("FindByCPF", ctx, testutil.PersonCPF).Return(person, nil)
		f.sei.On("CreateOrUpdateUser", ctx, person, testutil.TestPassword).Return(nil)
		f.sei.On("ChangePassword", ctx, person, testutil.TestPassword, true).Return(nil)
		f.users.On("Update", ctx, user).Return(nil)
		f.people.On("Update", ctx, person).Return(nil)

		msg, err := f.svc.ChangeEmail(ctx, ChangeEmailInput{
			UserID: user.ID, Password: testutil.TestPassword, Email: newEmail, ConfirmEmail: newEmail,
		})

		require.NoError(t, err)
		assert.Equal(t, EmailChangedMessage, msg)
		assert.Equal(t, newEmail, user.Email)
		assert.False(t, user.EmailConfirmed)
		assert.Equal(t, newEmail, person.Email)
		assert.Equal(t, newEmail, f.mailer.Last().To)
		assert.Equal(t, "Prefeitura de Joinville - Confirmação do e-mail", f.mailer.Last().Subject)

		invalidated, err := f.blacklist.IsUserTokenInvalidated(ctx, user.ID.String(), time.Now().Add(-time.Minute))
		require.NoError(t, err)
		assert.True(t, invalidated)
	})

	t.Run("SEI refusal aborts before saving", func(t *testing.T) {
		f := newAuthFixture(t, DefaultAuthServiceConfig())
		user := testutil.NewTestUser(t, testutil.PersonCPF, testutil.PersonEmail)
		person := testutil.NewTestPerson(t)
		person.SetSeiID(9)

		f.users.On("FindByID", ctx, user.ID).Return(user, nil)
		f.users.On("ExistsByEmail", ctx, newEmail).Return(false, nil)
		f.people.On("FindByCPF", ctx, testutil.PersonCPF).Return(person, nil)
		f.sei.On("CreateOrUpdateUser", ctx, person, testutil.TestPassword).Return(assert.AnError)

		_, err := f.svc.ChangeEmail(ctx, ChangeEmailInput{
			UserID: user.ID, Password: testutil.TestPassword, Email: newEmail, ConfirmEmail: newEmail,
		})

		assert.ErrorIs(t, err, assert.AnError)
		assert.Empty(t, f.mailer.Messages())
	})
}

func TestAuthService_GetCurrentUser(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, DefaultAuthServiceConfig())
	user := testutil.NewTestUser(t, testutil.CompanyCNPJ, testutil.CompanyEmail)
	f.users.On("FindByID", ctx, user.ID).Return(user, nil)
	f.users.On("FindByID", ctx, testutil.TestUserID()).Return(nil, shared.ErrNotFound)

	info, err := f.svc.GetCurrentUser(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, info.IsPerson)
	assert.Equal(t, "Não solicitada", info.SignatureStatusLabel)

	_, err = f.svc.GetCurrentUser(ctx, testutil.TestUserID())
	assert.ErrorIs(t, err, ErrUserNotFound)
}
