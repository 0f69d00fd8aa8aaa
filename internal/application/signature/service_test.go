package signature

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/joinville/accounts/internal/domain/account"
	"github.com/joinville/accounts/internal/domain/identity"
	"github.com/joinville/accounts/internal/domain/shared"
	"github.com/joinville/accounts/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const protocol = "16.0.000001-1"

type serviceFixture struct {
	users   *testutil.MockUserRepository
	people  *testutil.MockPersonRepository
	sei     *testutil.MockSeiGateway
	archive *testutil.MockDocumentArchive
	events  *testutil.RecordingPublisher
	svc     *Service
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		users:   new(testutil.MockUserRepository),
		people:  new(testutil.MockPersonRepository),
		sei:     new(testutil.MockSeiGateway),
		archive: new(testutil.MockDocumentArchive),
		events:  &testutil.RecordingPublisher{},
	}
	scope := testutil.NewTransactionScope(f.users, f.people, nil, nil, nil)
	cfg := Config{Decree: "Decreto nº 1", Instruction: "Instrução normativa", SignDocumentLink: "https://sei.example.com/assinar"}
	f.svc = NewService(f.users, f.people, scope, f.sei, f.archive, f.events, cfg, zap.NewNop())
	f.svc.now = func() time.Time { return time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC) }
	t.Cleanup(func() {
		f.users.AssertExpectations(t)
		f.people.AssertExpectations(t)
		f.sei.AssertExpectations(t)
		f.archive.AssertExpectations(t)
	})
	return f
}

func pdf(name string) *File {
	return &File{Name: name, Data: []byte("%PDF-1.4 test")}
}

func TestValidateFile(t *testing.T) {
	tests := []struct {
		name    string
		file    *File
		message string
	}{
		{"missing", nil, `O arquivo "Documento" é obrigatório.`},
		{"empty", &File{Name: "a.pdf"}, `O arquivo "Documento" não possui conteúdo.`},
		{"too large", &File{Name: "a.pdf", Data: bytes.Repeat([]byte{1}, MaxFileSize+1)}, `O arquivo "Documento" tem tamanho superior a 1 Mb.`},
		{"not a pdf", &File{Name: "a.png", Data: []byte{1}}, `O arquivo "Documento" possui extensão diferente de ".pdf"`},
		{"pdf", pdf("rg.pdf"), ""},
		{"upper case extension", pdf("RG.PDF"), ""},
		{"exactly the limit", &File{Name: "a.pdf", Data: make([]byte, MaxFileSize)}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFile(ExtraDocumentTitle, tt.file)
			if tt.message == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, shared.ErrInvalidInput)
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestService_Overview(t *testing.T) {
	ctx := context.Background()

	t.Run("person", func(t *testing.T) {
		f := newServiceFixture(t)
		f.people.On("FindByCPF", ctx, testutil.PersonCPF).Return(testutil.NewTestPerson(t), nil)

		o, err := f.svc.Overview(ctx, testutil.PersonCPF)

		require.NoError(t, err)
		assert.Equal(t, "unsolicited", o.Status)
		assert.True(t, o.CanRequest)
		assert.Equal(t, "Decreto nº 1", o.Decree)
		assert.Equal(t, "https://sei.example.com/assinar", o.SignDocumentLink)
	})

	t.Run("company", func(t *testing.T) {
		f := newServiceFixture(t)

		_, err := f.svc.Overview(ctx, testutil.CompanyCNPJ)

		assert.ErrorIs(t, err, ErrPeopleOnly)
	})
}

func TestService_Request(t *testing.T) {
	ctx := context.Background()
	input := RequestInput{
		Agree:    true,
		Password: testutil.TestPassword,
		Term:     pdf("termo.pdf"),
		Document: pdf("rg.pdf"),
	}

	t.Run("opens a protocol and puts the signature under approval", func(t *testing.T) {
		f := newServiceFixture(t)
		person := testutil.NewTestPerson(t)
		user := testutil.NewTestUser(t, testutil.PersonCPF, testutil.PersonEmail)

		f.people.On("FindByCPF", ctx, testutil.PersonCPF).Return(person, nil)
		f.users.On("FindByUserName", ctx, testutil.PersonCPF).Return(user, nil)
		f.sei.On("CreateProtocol", ctx, person).
			Run(func(args mock.Arguments) { args.Get(1).(*account.Person).SetProtocol(protocol, "https://sei.example.com/p/1") }).
			Return(nil)
		f.people.On("Update", ctx, person).Return(nil).Twice()
		f.sei.On("AddTextDocument", ctx, protocol, "Dados do usuário", mock.MatchedBy(func(content string) bool {
			return strings.HasPrefix(content, "Dados do usuário externo\n") && strings.HasSuffix(content, "Telefones: \n"+testutil.PhoneNumber+"\n")
		})).Return(nil)
		f.sei.On("AddDocument", ctx, protocol, TermTitle, input.Term.Data).Return(nil)
		f.sei.On("AddDocument", ctx, protocol, PhotoDocumentTitle, input.Document.Data).Return(nil)
		f.archive.On("Store", ctx, "52998224725/160000011/20240305T143000-termo_de_responsabilidade.pdf", input.Term.Data, "application/pdf").Return(nil)
		f.archive.On("Store", ctx, "52998224725/160000011/20240305T143000-documento_com_foto.pdf", input.Document.Data, "application/pdf").Return(nil)
		f.sei.On("CreateOrUpdateUser", ctx, person, testutil.TestPassword).Return(nil)
		f.users.On("Update", ctx, user).Return(nil)

		msg, err := f.svc.Request(ctx, testutil.PersonCPF, input)

		require.NoError(t, err)
		assert.Equal(t, RequestedMessage, msg)
		assert.Equal(t, account.SignatureUnderApproval, person.SignatureStatus)
		assert.Equal(t, account.SignatureUnderApproval, user.SignatureStatus)
		assert.Equal(t, []string{account.EventTypeSignatureRequested, account.EventTypeSignatureStatusChanged}, f.events.EventTypes())
	})

	t.Run("reopens an existing protocol and tolerates archive failures", func(t *testing.T) {
		f := newServiceFixture(t)
		person := testutil.NewTestPerson(t)
		person.SetProtocol(protocol, "https://sei.example.com/p/1")
		user := testutil.NewTestUser(t, testutil.PersonCPF, testutil.PersonEmail)

		f.people.On("FindByCPF", ctx, testutil.PersonCPF).Return(person, nil)
		f.users.On("FindByUserName", ctx, testutil.PersonCPF).Return(user, nil)
		f.sei.On("ReopenProtocol", ctx, protocol).Return(nil)
		f.people.On("Update", ctx, person).Return(nil)
		f.sei.On("AddTextDocument", ctx, protocol, "Dados do usuário", mock.Anything).Return(nil)
		f.sei.On("AddDocument", ctx, protocol, mock.Anything, mock.Anything).Return(nil).Twice()
		f.archive.On("Store", ctx, mock.Anything, mock.Anything, "application/pdf").Return(errors.New("bucket unavailable"))
		f.sei.On("CreateOrUpdateUser", ctx, person, testutil.TestPassword).Return(nil)
		f.users.On("Update", ctx, user).Return(nil)

		_, err := f.svc.Request(ctx, testutil.PersonCPF, input)

		require.NoError(t, err)
		f.sei.AssertNotCalled(t, "CreateProtocol", mock.Anything, mock.Anything)
	})

	t.Run("already requested", func(t *testing.T) {
		f := newServiceFixture(t)
		person := testutil.NewTestPerson(t)
		person.SignatureStatus = account.SignatureUnderApproval
		f.people.On("FindByCPF", ctx, testutil.PersonCPF).Return(person, nil)

		_, err := f.svc.Request(ctx, testutil.PersonCPF, input)

		assert.ErrorIs(t, err, ErrAlreadyRequested)
	})

	t.Run("terms and documents are validated together", func(t *testing.T) {
		f := newServiceFixture(t)
		f.people.On("FindByCPF", ctx, testutil.PersonCPF).Return(testutil.NewTestPerson(t), nil)

		_, err := f.svc.Request(ctx, testutil.PersonCPF, RequestInput{Password: testutil.TestPassword, Term: pdf("termo.docx")})

		var ve *shared.ValidationError
		require.ErrorAs(t, err, &ve)
		require.Len(t, ve.Errors, 3)
		assert.Equal(t, agreeMessage, ve.Errors[0].Message)
		assert.Equal(t, `O arquivo "Termo de responsabilidade" possui extensão diferente de ".pdf"`, ve.Errors[1].Message)
		assert.Equal(t, `O arquivo "Documento com foto" é obrigatório.`, ve.Errors[2].Message)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newServiceFixture(t)
		f.people.On("FindByCPF", ctx, testutil.PersonCPF).Return(testutil.NewTestPerson(t), nil)
		f.users.On("FindByUserName", ctx, testutil.PersonCPF).
			Return(testutil.NewTestUser(t, testutil.PersonCPF, testutil.PersonEmail), nil)

		in := input
		in.Password = "errada"
		_, err := f.svc.Request(ctx, testutil.PersonCPF, in)

		assert.ErrorIs(t, err, identity.ErrWrongPassword)
	})

	t.Run("SEI failure keeps the status", func(t *testing.T) {
		f := newServiceFixture(t)
		person := testutil.NewTestPerson(t)
		f.people.On("FindByCPF", ctx, testutil.PersonCPF).Return(person, nil)
		f.users.On("FindByUserName", ctx, testutil.PersonCPF).
			Return(testutil.NewTestUser(t, testutil.PersonCPF, testutil.PersonEmail), nil)
		f.sei.On("CreateProtocol", ctx, person).Return(shared.ErrExternalService)

		_, err := f.svc.Request(ctx, testutil.PersonCPF, input)

		assert.ErrorIs(t, err, shared.ErrExternalService)
		assert.Equal(t, account.SignatureUnsolicited, person.SignatureStatus)
	})
}

func TestService_AddDocument(t *testing.T) {
	ctx := context.Background()

	for status, want := range map[account.SignatureStatus]error{
		account.SignatureUnsolicited: ErrNotRequested,
		account.SignatureApproved:    ErrAlreadyApproved,
	} {
		t.Run(status.Code(), func(t *testing.T) {
			f := newServiceFixture(t)
			person := testutil.NewTestPerson(t)
			person.SignatureStatus = status
			f.people.On("FindByCPF", ctx, testutil.PersonCPF).Return(person, nil)

			_, err := f.svc.AddDocument(ctx, testutil.PersonCPF, pdf("extra.pdf"))

			assert.ErrorIs(t, err, want)
		})
	}

	t.Run("under approval", func(t *testing.T) {
		f := newServiceFixture(t)
		person := testutil.NewTestPerson(t)
		person.SetProtocol(protocol, "")
		person.SignatureStatus = account.SignatureUnderApproval
		file := pdf("extra.pdf")
		f.people.On("FindByCPF", ctx, testutil.PersonCPF).Return(person, nil)
		f.sei.On("AddDocument", ctx, protocol, "Documento", file.Data).Return(nil)
		f.archive.On("Store", ctx, "52998224725/160000011/20240305T143000-documento.pdf", file.Data, "application/pdf").Return(nil)

		msg, err := f.svc.AddDocument(ctx, testutil.PersonCPF, file)

		require.NoError(t, err)
		assert.Equal(t, DocumentAddedMessage, msg)
	})
}

func TestService_RefreshStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("company is always unsolicited", func(t *testing.T) {
		f := newServiceFixture(t)

		res, err := f.svc.RefreshStatus(ctx, testutil.CompanyCNPJ)

		require.NoError(t, err)
		assert.Equal(t, "unsolicited", res.Status)
	})

	t.Run("unknown person", func(t *testing.T) {
		f := newServiceFixture(t)
		f.people.On("FindByCPF", ctx, testutil.OtherCPF).Return(nil, shared.ErrNotFound)

		res, err := f.svc.RefreshStatus(ctx, testutil.OtherCPF)

		require.NoError(t, err)
		assert.Equal(t, "Não solicitada", res.StatusLabel)
	})

	t.Run("approval is stored on person and user", func(t *testing.T) {
		f := newServiceFixture(t)
		person := testutil.NewTestPerson(t)
		person.SignatureStatus = account.SignatureUnderApproval
		user := testutil.NewTestUser(t, testutil.PersonCPF, testutil.PersonEmail)
		user.SignatureStatus = account.SignatureUnderApproval

		f.people.On("FindByCPF", ctx, testutil.PersonCPF).Return(person, nil)
		f.sei.On("UpdateSignatureStatus", ctx, person).
			Run(func(args mock.Arguments) { args.Get(1).(*account.Person).ApplySignatureStatus(account.SignatureApproved) }).
			Return(nil)
		f.users.On("FindByUserName", ctx, testutil.PersonCPF).Return(user, nil)
		f.people.On("Update", ctx, person).Return(nil)
		f.users.On("Update", ctx, user).Return(nil)

		res, err := f.svc.RefreshStatus(ctx, testutil.PersonCPF)

		require.NoError(t, err)
		assert.Equal(t, "approved", res.Status)
		assert.Equal(t, account.SignatureApproved, user.SignatureStatus)
		assert.Equal(t, []string{account.EventTypeSignatureStatusChanged}, f.events.EventTypes())
	})

	t.Run("nothing changed", func(t *testing.T) {
		f := newServiceFixture(t)
		person := testutil.NewTestPerson(t)
		user := testutil.NewTestUser(t, testutil.PersonCPF, testutil.PersonEmail)
		f.people.On("FindByCPF", ctx, testutil.PersonCPF).Return(person, nil)
		f.sei.On("UpdateSignatureStatus", ctx, person).Return(nil)
		f.users.On("FindByUserName", ctx, testutil.PersonCPF).Return(user, nil)

		_, err := f.svc.RefreshStatus(ctx, testutil.PersonCPF)

		require.NoError(t, err)
		f.people.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		assert.Empty(t, f.events.EventTypes())
	})
}

func TestService_SyncPending(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	approved := testutil.NewTestPerson(t)
	approved.SignatureStatus = account.SignatureUnderApproval
	failing := testutil.NewTestPerson(t)
	failing.CPF = testutil.OtherCPF
	failing.SignatureStatus = account.SignatureUnderApproval

	f.people.On("FindBySignatureStatus", ctx, account.SignatureUnderApproval, 50).
		Return([]*account.Person{failing, approved}, nil)
	f.sei.On("UpdateSignatureStatus", ctx, failing).Return(shared.ErrExternalService)
	f.sei.On("UpdateSignatureStatus", ctx, approved).
		Run(func(args mock.Arguments) { args.Get(1).(*account.Person).ApplySignatureStatus(account.SignatureApproved) }).
		Return(nil)
	f.users.On("FindByUserName", ctx, testutil.PersonCPF).Return(nil, shared.ErrNotFound)
	f.people.On("Update", ctx, approved).Return(nil)
	checkedAt := f.svc.now()
	f.people.On("MarkSignatureChecked", ctx, failing.ID, checkedAt).Return(nil)
	f.people.On("MarkSignatureChecked", ctx, approved.ID, checkedAt).Return(nil)

	changed, err := f.svc.SyncPending(ctx, 50)

	require.NoError(t, err)
	assert.Equal(t, 1, changed)
	assert.Equal(t, account.SignatureApproved, approved.SignatureStatus)
	require.NotNil(t, failing.SignatureCheckedAt, "failed refreshes still move to the back of the queue")
	assert.Equal(t, checkedAt, *failing.SignatureCheckedAt)
	require.NotNil(t, approved.SignatureCheckedAt)
}

func TestService_SyncPending_UnchangedAreStamped(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	pending := testutil.NewTestPerson(t)
	pending.SignatureStatus = account.SignatureUnderApproval
	f.people.On("FindBySignatureStatus", ctx, account.SignatureUnderApproval, 2).
		Return([]*account.Person{pending}, nil)
	f.sei.On("UpdateSignatureStatus", ctx, pending).Return(nil)
	f.users.On("FindByUserName", ctx, testutil.PersonCPF).Return(nil, shared.ErrNotFound)
	f.people.On("MarkSignatureChecked", ctx, pending.ID, f.svc.now()).Return(assert.AnError)

	changed, err := f.svc.SyncPending(ctx, 2)

	require.NoError(t, err, "a failed stamp does not stop the sync")
	assert.Zero(t, changed)
	f.people.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	assert.Nil(t, pending.SignatureCheckedAt)
}
