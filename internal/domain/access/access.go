package access

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joinville/accounts/internal/domain/account"
	"github.com/joinville/accounts/internal/domain/shared"
)

// Status is the state of a user's access to an application
type Status int

const (
	StatusPerformed Status = iota
	StatusPendingRequest
	StatusRequested
	StatusApproved
	StatusDenied
)

var statusLabels = map[Status]string{
	StatusPerformed:      "Efetuado",
	StatusPendingRequest: "Pendente de requisição de acesso",
	StatusRequested:      "Acesso requisitado",
	StatusApproved:       "Aprovado",
	StatusDenied:         "Negado",
}

// String returns the display label
func (s Status) String() string {
	return statusLabels[s]
}

var staffLoginRegex = regexp.MustCompile(`^(u\d{5}|)$`)

// ValidStaffLogin reports whether login has the municipal staff format
func ValidStaffLogin(login string) bool {
	return staffLoginRegex.MatchString(login)
}

// Errors returned by the access aggregate
var (
	ErrApplicationDisabled = shared.NewDomainError("APPLICATION_DISABLED", "Não é possível definir o acesso de uma aplicação desabilitada.")
	ErrAlreadyApproved     = shared.NewDomainError("ACCESS_ALREADY_APPROVED", "Este acesso já foi aprovado.")
	ErrNotRequested        = shared.NewDomainError("ACCESS_NOT_REQUESTED", "Não é possível aprovar acessos com situação diferente de requerido.")
	ErrAlreadyDenied       = shared.NewDomainError("ACCESS_ALREADY_DENIED", "Este acesso já foi negado.")
	ErrInvalidStaffLogin   = shared.NewDomainError("INVALID_LOGIN", "Login incorreto, informe o login do usuário no formato uXXXXXX")
	ErrDenyCauseRequired   = shared.NewDomainError("DENY_CAUSE_REQUIRED", "Informe o motivo da negação de acesso.")
	ErrAccessRevoked       = shared.NewDomainError("ACCESS_DENIED", "O seu acesso a aplicação foi revogado.")
)

// Access records whether a user (by document) may enter an application
type Access struct {
	shared.BaseEntity
	ApplicationID uuid.UUID
	Document      string
	Status        Status
	AcceptedTerms *bool
	ApprovedAt    *time.Time
	ApprovedBy    string
	DeniedAt      *time.Time
	DeniedBy      string
	DeniedCause   string
}

// NewAccess creates the access of document to app, not yet prepared
func NewAccess(app *Application, document string) (*Access, error) {
	if !account.ValidDocumentLength(document) {
		return nil, shared.NewDomainError("INVALID_DOCUMENT", "Documento do usuário (CPF ou CNPJ) inválido.")
	}
	return &Access{
		BaseEntity:    shared.BaseEntity{ID: uuid.New()},
		ApplicationID: app.ID,
		Document:      document,
		Status:        StatusPerformed,
	}, nil
}

// Prepare runs before every save. It refuses disabled applications,
// stamps the timestamps, moves a performed access to pending when the
// application requires approval and settles the terms flag.
func (a *Access) Prepare(app *Application, now time.Time) error {
	if !app.Enabled {
		return ErrApplicationDisabled
	}

	a.UpdatedAt = now
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}

	if a.Status == StatusPerformed && app.RequiresApproval {
		a.Status = StatusPendingRequest
	}

	switch {
	case a.AcceptedTerms != nil && *a.AcceptedTerms:
	case !app.HasUseTerms():
		a.AcceptedTerms = nil
	default:
		f := false
		a.AcceptedTerms = &f
	}
	return nil
}

// RequestAccess asks for access; applications without approval grant it
// immediately. A denied access stays denied until staff reviews it again and
// an approved one is left untouched.
func (a *Access) RequestAccess(app *Application) error {
	switch a.Status {
	case StatusDenied:
		return ErrAccessRevoked
	case StatusApproved:
		return nil
	}
	if app.RequiresApproval {
		a.Status = StatusRequested
		return nil
	}
	a.Status = StatusPerformed
	return nil
}

// AcceptTerms records the acceptance of the application's terms of use
func (a *Access) AcceptTerms() {
	t := true
	a.AcceptedTerms = &t
}

// Approve grants a requested access. login is the staff member's login.
func (a *Access) Approve(login string, now time.Time) error {
	if a.Status == StatusApproved {
		return ErrAlreadyApproved
	}
	if a.Status != StatusRequested {
		return ErrNotRequested
	}
	if !ValidStaffLogin(login) {
		return ErrInvalidStaffLogin
	}
	a.ApprovedBy = login
	a.ApprovedAt = &now
	a.Status = StatusApproved
	return nil
}

// Deny revokes the access with a cause
func (a *Access) Deny(login, cause string, now time.Time) error {
	if a.Status == StatusDenied {
		return ErrAlreadyDenied
	}
	if !ValidStaffLogin(login) {
		return ErrInvalidStaffLogin
	}
	if strings.TrimSpace(cause) == "" {
		return ErrDenyCauseRequired
	}
	a.DeniedBy = login
	a.DeniedAt = &now
	a.DeniedCause = strings.TrimSpace(cause)
	a.Status = StatusDenied
	return nil
}

// Check returns nil when the user may enter, or an error carrying the
// message that explains why not
func (a *Access) Check() error {
	switch {
	case a.Status == StatusDenied:
		return ErrAccessRevoked
	case a.Status == StatusPendingRequest:
		return shared.NewDomainError("ACCESS_PENDING_REQUEST", "Seu acesso deve ser submetido a aprovação.")
	case a.AcceptedTerms != nil && !*a.AcceptedTerms:
		return shared.NewDomainError("ACCESS_TERMS_NOT_ACCEPTED", "Você deve aceitar os termos de uso para ter acesso a aplicação.")
	case a.Status == StatusRequested:
		return shared.NewDomainError("ACCESS_REQUESTED",
			"Solicitação de acesso efetuada em "+a.CreatedAt.Format("02/01/2006")+
				", você receberá um e-mail notificando sobre o resultado da solicitação.")
	}
	return nil
}
