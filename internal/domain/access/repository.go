package access

import (
	"context"

	"github.com/google/uuid"
	"github.com/joinville/accounts/internal/domain/shared"
)

// ApplicationRepository defines the interface for application persistence
type ApplicationRepository interface {
	Create(ctx context.Context, app *Application) error
	Update(ctx context.Context, app *Application) error
	FindByID(ctx context.Context, id uuid.UUID) (*Application, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]*Application, int64, error)
}

// AccessRepository defines the interface for access persistence
type AccessRepository interface {
	Save(ctx context.Context, access *Access) error
	FindByID(ctx context.Context, id uuid.UUID) (*Access, error)
	FindByDocumentAndApplication(ctx context.Context, document string, applicationID uuid.UUID) (*Access, error)
	FindByApplication(ctx context.Context, applicationID uuid.UUID, status *Status) ([]*Access, error)
}
