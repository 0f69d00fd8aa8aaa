package access

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/joinville/accounts/internal/domain/access"
	"github.com/joinville/accounts/internal/domain/shared"
	"github.com/joinville/accounts/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ErrApplicationNotFound is returned for unknown application ids
var ErrApplicationNotFound = shared.NewDomainError("NOT_FOUND", "Aplicação não encontrada.")

// Service manages the applications that sign in through the portal and
// the access of each user to them
type Service struct {
	appRepo    access.ApplicationRepository
	accessRepo access.AccessRepository
	logger     *zap.Logger
	now        func() time.Time
}

// NewService creates an access service
func NewService(appRepo access.ApplicationRepository, accessRepo access.AccessRepository, logger *zap.Logger) *Service {
	return &Service{
		appRepo:    appRepo,
		accessRepo: accessRepo,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateApplication registers an application
func (s *Service) CreateApplication(ctx context.Context, req ApplicationRequest) (*ApplicationResponse, error) {
	app, err := access.NewApplication(req.data())
	if err != nil {
		return nil, err
	}
	if err := s.appRepo.Create(ctx, app); err != nil {
		return nil, err
	}
	s.logger.Info("Application created", zap.String("application_id", app.ID.String()), zap.String("name", app.Name))
	resp := ToApplicationResponse(app)
	return &resp, nil
}

// UpdateApplication replaces the editable fields of an application
func (s *Service) UpdateApplication(ctx context.Context, id uuid.UUID, req ApplicationRequest) (*ApplicationResponse, error) {
	app, err := s.application(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := app.Update(req.data()); err != nil {
		return nil, err
	}
	if err := s.appRepo.Update(ctx, app); err != nil {
		return nil, err
	}
	s.logger.Info("Application updated", zap.String("application_id", id.String()))
	resp := ToApplicationResponse(app)
	return &resp, nil
}

// GetApplication returns one application
func (s *Service) GetApplication(ctx context.Context, id uuid.UUID) (*ApplicationResponse, error) {
	app, err := s.application(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToApplicationResponse(app)
	return &resp, nil
}

// ListApplications returns a page of applications
func (s *Service) ListApplications(ctx context.Context, filter shared.Filter) (*shared.Paginated[ApplicationResponse], error) {
	apps, total, err := s.appRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]ApplicationResponse, len(apps))
	for i, a := range apps {
		items[i] = ToApplicationResponse(a)
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// ListAccesses returns the accesses of an application, optionally only
// those in status
func (s *Service) ListAccesses(ctx context.Context, appID uuid.UUID, status *access.Status) ([]AccessResponse, error) {
	if _, err := s.application(ctx, appID); err != nil {
		return nil, err
	}
	accesses, err := s.accessRepo.FindByApplication(ctx, appID, status)
	if err != nil {
		return nil, err
	}
	out := make([]AccessResponse, len(accesses))
	for i, a := range accesses {
		out[i] = ToAccessResponse(a)
	}
	return out, nil
}

// CheckAccess decides whether document may enter the application. The
// access record is created on the first check. A refusal is not an error:
// it comes back with Allowed false and the message for the user.
func (s *Service) CheckAccess(ctx context.Context, document string, appID uuid.UUID) (*CheckResult, error) {
	app, err := s.application(ctx, appID)
	if err != nil {
		return nil, err
	}
	result := &CheckResult{URL: app.URL}
	if err := app.CheckAccess(document); err != nil {
		return refuse(result, err)
	}

	acc, err := s.access(ctx, app, document)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, app, acc); err != nil {
		return refuse(result, err)
	}
	if err := acc.Check(); err != nil {
		return refuse(result, err)
	}

	result.Allowed = true
	return result, nil
}

// RequestAccess asks for access to an application that requires approval
func (s *Service) RequestAccess(ctx context.Context, document string, appID uuid.UUID) (*AccessResponse, error) {
	return s.change(ctx, document, appID, func(app *access.Application, acc *access.Access) error {
		return acc.RequestAccess(app)
	})
}

// AcceptTerms records that document accepted the terms of use
func (s *Service) AcceptTerms(ctx context.Context, document string, appID uuid.UUID) (*AccessResponse, error) {
	return s.change(ctx, document, appID, func(_ *access.Application, acc *access.Access) error {
		acc.AcceptTerms()
		return nil
	})
}

// Approve grants a requested access. login is the staff member deciding.
func (s *Service) Approve(ctx context.Context, accessID uuid.UUID, login string) (*AccessResponse, error) {
	return s.review(ctx, accessID, func(acc *access.Access, now time.Time) error {
		return acc.Approve(login, now)
	})
}

// Deny revokes an access
func (s *Service) Deny(ctx context.Context, accessID uuid.UUID, login, cause string) (*AccessResponse, error) {
	return s.review(ctx, accessID, func(acc *access.Access, now time.Time) error {
		return acc.Deny(login, cause, now)
	})
}

func (s *Service) change(ctx context.Context, document string, appID uuid.UUID, fn func(*access.Application, *access.Access) error) (*AccessResponse, error) {
	app, err := s.application(ctx, appID)
	if err != nil {
		return nil, err
	}
	if err := app.CheckAccess(document); err != nil {
		return nil, err
	}
	acc, err := s.access(ctx, app, document)
	if err != nil {
		return nil, err
	}
	if err := fn(app, acc); err != nil {
		return nil, err
	}
	if err := s.save(ctx, app, acc); err != nil {
		return nil, err
	}
	resp := ToAccessResponse(acc)
	return &resp, nil
}

func (s *Service) review(ctx context.Context, accessID uuid.UUID, fn func(*access.Access, time.Time) error) (*AccessResponse, error) {
	acc, err := s.accessRepo.FindByID(ctx, accessID)
	if err != nil {
		return nil, err
	}
	app, err := s.application(ctx, acc.ApplicationID)
	if err != nil {
		return nil, err
	}
	if err := fn(acc, s.now()); err != nil {
		return nil, err
	}
	if err := s.save(ctx, app, acc); err != nil {
		return nil, err
	}
	s.logger.Info("Access reviewed",
		zap.String("access_id", acc.ID.String()),
		logger.Document(acc.Document),
		zap.String("status", acc.Status.String()))
	resp := ToAccessResponse(acc)
	return &resp, nil
}

// save runs the save hook of the access and persists it
func (s *Service) save(ctx context.Context, app *access.Application, acc *access.Access) error {
	if err := acc.Prepare(app, s.now()); err != nil {
		return err
	}
	return s.accessRepo.Save(ctx, acc)
}

func (s *Service) access(ctx context.Context, app *access.Application, document string) (*access.Access, error) {
	acc, err := s.accessRepo.FindByDocumentAndApplication(ctx, document, app.ID)
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	return access.NewAccess(app, document)
}

func (s *Service) application(ctx context.Context, id uuid.UUID) (*access.Application, error) {
	app, err := s.appRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	return app, nil
}

// refuse turns a domain refusal into a result; other errors are returned
func refuse(result *CheckResult, err error) (*CheckResult, error) {
	var de *shared.DomainError
	if !errors.As(err, &de) {
		return nil, err
	}
	result.Code = de.Code
	result.Message = de.Message
	return result, nil
}
