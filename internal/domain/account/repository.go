package account

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PersonRepository defines the interface for person persistence. Find
// methods load the address and the phones of the person.
type PersonRepository interface {
	Create(ctx context.Context, person *Person) error
	Update(ctx context.Context, person *Person) error
	FindByCPF(ctx context.Context, cpf string) (*Person, error)
	FindByEmail(ctx context.Context, email string) (*Person, error)
	ExistsByCPF(ctx context.Context, cpf string) (bool, error)
	// FindBySignatureStatus returns up to limit people in the given status,
	// the ones never checked first, then the least recently checked
	FindBySignatureStatus(ctx context.Context, status SignatureStatus, limit int) ([]*Person, error)
	// MarkSignatureChecked stamps when the signature status of the person
	// was last queried. It does not bump the version.
	MarkSignatureChecked(ctx context.Context, id uuid.UUID, at time.Time) error
}

// CompanyRepository defines the interface for company persistence
type CompanyRepository interface {
	Create(ctx context.Context, company *Company) error
	Update(ctx context.Context, company *Company) error
	FindByCNPJ(ctx context.Context, cnpj string) (*Company, error)
	ExistsByCNPJ(ctx context.Context, cnpj string) (bool, error)
}

// AddressRepository defines the interface for address persistence
type AddressRepository interface {
	Create(ctx context.Context, address *Address) error
	Update(ctx context.Context, address *Address) error
	FindByID(ctx context.Context, id uuid.UUID) (*Address, error)
}

// PhoneRepository defines the interface for phone persistence
type PhoneRepository interface {
	Create(ctx context.Context, phone *Phone) error
	Update(ctx context.Context, phone *Phone) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Phone, error)
	FindByDocument(ctx context.Context, document string) ([]Phone, error)
	CountByDocument(ctx context.Context, document string) (int64, error)
	// ExistsNumber reports whether document already owns number, ignoring
	// the phone with exceptID
	ExistsNumber(ctx context.Context, document, number string, exceptID uuid.UUID) (bool, error)
}
