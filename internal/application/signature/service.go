// Package signature implements the electronic signature flow: a citizen
// sends the signed term and a photo document, SEI opens a protocol and the
// status is followed until the municipality releases the credential.
package signature

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joinville/accounts/internal/application/port"
	"github.com/joinville/accounts/internal/domain/account"
	"github.com/joinville/accounts/internal/domain/identity"
	"github.com/joinville/accounts/internal/domain/shared"
	"github.com/joinville/accounts/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Errors returned by the signature service
var (
	ErrPeopleOnly       = shared.NewDomainError("FORBIDDEN", "A assinatura eletrônica está disponível apenas para pessoas físicas.")
	ErrAlreadyRequested = shared.NewDomainError("INVALID_STATE", "Assinatura eletrônica já solicitada.")
	ErrNotRequested     = shared.NewDomainError("SIGNATURE_NOT_REQUESTED", "Assinatura eletrônica não solicitada.")
	ErrAlreadyApproved  = shared.NewDomainError("INVALID_STATE", "Assinatura eletrônica já aprovada.")
)

// Messages returned on success
const (
	RequestedMessage     = "Solicitação enviada com sucesso."
	DocumentAddedMessage = "Documento adicionado com sucesso."
	agreeMessage         = "Você deve aceitar os termos dara dar continuidade no processo."
)

const pdfContentType = "application/pdf"

// Service handles electronic signature requests and their follow up in SEI
type Service struct {
	userRepo   identity.UserRepository
	personRepo account.PersonRepository
	scope      port.TransactionScope
	sei        port.SeiGateway
	archive    port.DocumentArchive
	events     shared.EventPublisher
	config     Config
	logger     *zap.Logger
	now        func() time.Time
}

// NewService creates a signature service. archive may be nil.
func NewService(
	userRepo identity.UserRepository,
	personRepo account.PersonRepository,
	scope port.TransactionScope,
	sei port.SeiGateway,
	archive port.DocumentArchive,
	events shared.EventPublisher,
	config Config,
	logger *zap.Logger,
) *Service {
	return &Service{
		userRepo:   userRepo,
		personRepo: personRepo,
		scope:      scope,
		sei:        sei,
		archive:    archive,
		events:     events,
		config:     config,
		logger:     logger,
		now:        time.Now,
	}
}

// Overview returns the signature status of the citizen and the documents
// that regulate it
func (s *Service) Overview(ctx context.Context, document string) (*Overview, error) {
	person, err := s.person(ctx, document)
	if err != nil {
		return nil, err
	}
	return &Overview{
		Status:           person.SignatureStatus.Code(),
		StatusLabel:      person.SignatureStatus.String(),
		CanRequest:       person.SignatureStatus == account.SignatureUnsolicited,
		LinkSeiProtocol:  person.LinkSeiProtocol,
		Decree:           s.config.Decree,
		Instruction:      s.config.Instruction,
		SignDocumentLink: s.config.SignDocumentLink,
	}, nil
}

// Request opens or reopens the SEI protocol of the citizen, attaches the
// registration data and the uploaded documents, and puts the signature
// under approval
func (s *Service) Request(ctx context.Context, document string, in RequestInput) (string, error) {
	log := s.logger.With(logger.Document(document))

	person, err := s.person(ctx, document)
	if err != nil {
		return "", err
	}
	if person.SignatureStatus != account.SignatureUnsolicited {
		return "", ErrAlreadyRequested
	}

	ve := &shared.ValidationError{}
	if !in.Agree {
		ve.Add("agree", agreeMessage)
	}
	validateFile(ve, TermTitle, in.Term)
	validateFile(ve, PhotoDocumentTitle, in.Document)
	if err := ve.Err(); err != nil {
		return "", err
	}

	user, err := s.userRepo.FindByUserName(ctx, person.CPF)
	if err != nil {
		return "", err
	}
	if err := user.CheckPassword(in.Password); err != nil {
		return "", err
	}

	if person.SeiProtocol == "" {
		err = s.sei.CreateProtocol(ctx, person)
	} else {
		err = s.sei.ReopenProtocol(ctx, person.SeiProtocol)
	}
	if err != nil {
		log.Error("Failed to open SEI protocol", zap.Error(err))
		return "", err
	}
	// the protocol number must survive a failure in the next steps
	if err := s.personRepo.Update(ctx, person); err != nil {
		return "", err
	}
	log.Info("SEI protocol ready", zap.String("protocol", person.SeiProtocol))

	if err := s.sei.AddTextDocument(ctx, person.SeiProtocol, account.UserDataDocumentTitle, account.UserDataDocument(person)); err != nil {
		return "", err
	}
	for _, doc := range []struct {
		title string
		file  *File
	}{
		{TermTitle, in.Term},
		{PhotoDocumentTitle, in.Document},
	} {
		if err := s.addDocument(ctx, person, doc.title, doc.file); err != nil {
			return "", err
		}
	}

	if err := s.sei.CreateOrUpdateUser(ctx, person, in.Password); err != nil {
		log.Error("Failed to create SEI user", zap.Error(err))
		return "", err
	}

	person.MarkSignatureRequested()
	user.SyncSignatureStatus(person.SignatureStatus)
	if err := s.scope.Execute(ctx, func(repos port.TransactionalRepositories) error {
		if err := repos.PersonRepo().Update(ctx, person); err != nil {
			return err
		}
		return repos.UserRepo().Update(ctx, user)
	}); err != nil {
		return "", err
	}
	s.publish(ctx, person)

	log.Info("Electronic signature requested")
	return RequestedMessage, nil
}

// AddDocument attaches one more document to a pending request
func (s *Service) AddDocument(ctx context.Context, document string, file *File) (string, error) {
	person, err := s.person(ctx, document)
	if err != nil {
		return "", err
	}
	switch person.SignatureStatus {
	case account.SignatureUnsolicited:
		return "", ErrNotRequested
	case account.SignatureApproved:
		return "", ErrAlreadyApproved
	}

	if err := ValidateFile(ExtraDocumentTitle, file); err != nil {
		return "", err
	}
	if err := s.addDocument(ctx, person, ExtraDocumentTitle, file); err != nil {
		return "", err
	}
	return DocumentAddedMessage, nil
}

// RefreshStatus reads the signature status from SEI. Users without a
// person record are reported as unsolicited.
func (s *Service) RefreshStatus(ctx context.Context, document string) (*StatusResult, error) {
	if !account.IsPersonDocument(document) {
		return statusResult(account.SignatureUnsolicited), nil
	}
	person, err := s.personRepo.FindByCPF(ctx, document)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return statusResult(account.SignatureUnsolicited), nil
		}
		return nil, err
	}

	if _, err := s.refresh(ctx, person); err != nil {
		return nil, err
	}
	return statusResult(person.SignatureStatus), nil
}

// SyncPending refreshes up to batch people whose signature is under
// approval, least recently checked first. It returns how many changed
// status. Failures of one person are logged and do not stop the batch.
// Every person of the batch is stamped as checked, so successive runs walk
// through the whole queue.
func (s *Service) SyncPending(ctx context.Context, batch int) (int, error) {
	people, err := s.personRepo.FindBySignatureStatus(ctx, account.SignatureUnderApproval, batch)
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, person := range people {
		if err := ctx.Err(); err != nil {
			return changed, err
		}
		ok, err := s.refresh(ctx, person)
		if err != nil {
			s.logger.Warn("Failed to refresh signature status", logger.Document(person.CPF), zap.Error(err))
		} else if ok {
			changed++
		}
		s.markChecked(ctx, person)
	}
	return changed, nil
}

func (s *Service) markChecked(ctx context.Context, person *account.Person) {
	now := s.now()
	if err := s.personRepo.MarkSignatureChecked(ctx, person.ID, now); err != nil {
		s.logger.Warn("Failed to mark signature status as checked", logger.Document(person.CPF), zap.Error(err))
		return
	}
	person.SignatureCheckedAt = &now
}

// refresh merges the SEI status into person and copies it to the user. It
// reports whether the person status changed.
func (s *Service) refresh(ctx context.Context, person *account.Person) (bool, error) {
	old := person.SignatureStatus
	if err := s.sei.UpdateSignatureStatus(ctx, person); err != nil {
		return false, err
	}
	changed := person.SignatureStatus != old

	user, err := s.userRepo.FindByUserName(ctx, person.CPF)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return false, err
	}
	userChanged := user != nil && user.SyncSignatureStatus(person.SignatureStatus)
	if !changed && !userChanged {
		return false, nil
	}

	if err := s.scope.Execute(ctx, func(repos port.TransactionalRepositories) error {
		if changed {
			if err := repos.PersonRepo().Update(ctx, person); err != nil {
				return err
			}
		}
		if userChanged {
			return repos.UserRepo().Update(ctx, user)
		}
		return nil
	}); err != nil {
		return false, err
	}

	if changed {
		s.logger.Info("Signature status changed",
			logger.Document(person.CPF),
			zap.String("from", old.Code()),
			zap.String("to", person.SignatureStatus.Code()))
	}
	s.publish(ctx, person)
	return changed, nil
}

func (s *Service) addDocument(ctx context.Context, person *account.Person, title string, file *File) error {
	if err := s.sei.AddDocument(ctx, person.SeiProtocol, title, file.Data); err != nil {
		s.logger.Error("Failed to attach document to SEI protocol",
			logger.Document(person.CPF), zap.String("title", title), zap.Error(err))
		return err
	}
	if s.archive == nil {
		return nil
	}
	if err := s.archive.Store(ctx, s.archiveKey(person, title), file.Data, pdfContentType); err != nil {
		s.logger.Warn("Failed to archive document", logger.Document(person.CPF), zap.String("title", title), zap.Error(err))
	}
	return nil
}

// archiveKey is "<cpf>/<protocol>/<timestamp>-<title>.pdf"
func (s *Service) archiveKey(person *account.Person, title string) string {
	name := strings.ReplaceAll(strings.ToLower(shared.RemoveDiacritics(title)), " ", "_")
	protocol := strings.NewReplacer(".", "", "/", "", "-", "").Replace(person.SeiProtocol)
	return fmt.Sprintf("%s/%s/%s-%s.pdf", person.CPF, protocol, s.now().UTC().Format("20060102T150405"), name)
}

func (s *Service) person(ctx context.Context, document string) (*account.Person, error) {
	if !account.IsPersonDocument(document) {
		return nil, ErrPeopleOnly
	}
	return s.personRepo.FindByCPF(ctx, document)
}

func (s *Service) publish(ctx context.Context, person *account.Person) {
	events := person.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish signature events", zap.Error(err))
	}
	person.ClearDomainEvents()
}
