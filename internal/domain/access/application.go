package access

import (
	"strings"
	"unicode/utf8"

	"github.com/joinville/accounts/internal/domain/account"
	"github.com/joinville/accounts/internal/domain/shared"
)

// UserType restricts which kind of user may access an application
type UserType int

const (
	UserTypeAll UserType = iota
	UserTypePeople
	UserTypeCompanies
)

// String returns the display label
func (t UserType) String() string {
	switch t {
	case UserTypePeople:
		return "Pessoas"
	case UserTypeCompanies:
		return "Empresas"
	default:
		return "Todos"
	}
}

// IsValid reports whether t is a known user type
func (t UserType) IsValid() bool {
	return t >= UserTypeAll && t <= UserTypeCompanies
}

// Application is an external municipal system whose users sign in through
// the portal
type Application struct {
	shared.BaseAggregateRoot
	Name             string   `diff:"Nome"`
	UseTerms         string   `diff:"Termos de uso"`
	RequiresApproval bool     `diff:"Requer aprovação"`
	Enabled          bool     `diff:"Habilitada"`
	UserType         UserType `diff:"Tipo de usuário"`
	URL              string   `diff:"Endereço da aplicação"`
}

// ApplicationData carries the editable fields of an application
type ApplicationData struct {
	Name             string
	UseTerms         string
	RequiresApproval bool
	Enabled          bool
	UserType         UserType
	URL              string
}

// NewApplication creates a validated application
func NewApplication(data ApplicationData) (*Application, error) {
	a := &Application{BaseAggregateRoot: shared.NewBaseAggregateRoot()}
	if err := a.apply(data); err != nil {
		return nil, err
	}
	return a, nil
}

// Update replaces every editable field
func (a *Application) Update(data ApplicationData) error {
	if err := a.apply(data); err != nil {
		return err
	}
	a.Touch()
	a.IncrementVersion()
	return nil
}

func (a *Application) apply(data ApplicationData) error {
	name := strings.TrimSpace(data.Name)
	switch n := utf8.RuneCountInString(name); {
	case n < 5:
		return shared.NewDomainError("INVALID_APPLICATION_NAME", "O nome da aplicação precisa ter no mínimo 5 caracteres")
	case n > 150:
		return shared.NewDomainError("INVALID_APPLICATION_NAME", "O nome da aplicação não pode ser maior do que 150 caracteres")
	}
	if !data.UserType.IsValid() {
		return shared.NewDomainError("INVALID_USER_TYPE", "Tipo de usuário inválido.")
	}

	a.Name = name
	a.UseTerms = data.UseTerms
	a.RequiresApproval = data.RequiresApproval
	a.Enabled = data.Enabled
	a.UserType = data.UserType
	a.URL = strings.TrimSpace(data.URL)
	return nil
}

// HasUseTerms reports whether users must accept terms before access
func (a *Application) HasUseTerms() bool {
	return strings.TrimSpace(a.UseTerms) != ""
}

// CheckAccess verifies that the application is enabled and open to the
// kind of user owning document. The returned error carries the message
// shown to the user.
func (a *Application) CheckAccess(document string) error {
	isPerson := account.IsPersonDocument(document)
	switch {
	case !a.Enabled:
		return shared.NewDomainError("APPLICATION_DISABLED", "A aplicação "+a.Name+" está desabilitada.")
	case a.UserType == UserTypeCompanies && isPerson:
		return shared.NewDomainError("APPLICATION_USER_TYPE",
			"A aplicação "+a.Name+" pode ser acessada somente por usuários do tipo pessoa jurídica.")
	case a.UserType == UserTypePeople && !isPerson:
		return shared.NewDomainError("APPLICATION_USER_TYPE",
			"A aplicação "+a.Name+" pode ser acessada somente por usuários do tipo pessoa física.")
	}
	return nil
}
