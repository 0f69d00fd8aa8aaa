package account

import (
	"strings"

	"github.com/google/uuid"
	"github.com/joinville/accounts/internal/domain/shared"
)

// Company is a legal entity registered with a CNPJ
type Company struct {
	shared.BaseAggregateRoot
	CNPJ                  string    `diff:"CNPJ"`
	Email                 string    `diff:"E-mail"`
	Name                  string    `diff:"Nome fantasia"`
	CompanyName           string    `diff:"Razão social"`
	MunicipalRegistration string    `diff:"Inscrição municipal"`
	AddressID             uuid.UUID `diff:"-"`

	Address *Address
	Phones  []Phone
}

// CompanyData carries the user-editable fields of a company
type CompanyData struct {
	CNPJ                  string
	Email                 string
	Name                  string
	CompanyName           string
	MunicipalRegistration string
}

// NewCompany creates a validated company bound to an address
func NewCompany(data CompanyData, address *Address) (*Company, error) {
	c := &Company{
		BaseAggregateRoot:     shared.NewBaseAggregateRoot(),
		CNPJ:                  shared.OnlyDigits(data.CNPJ),
		Email:                 strings.TrimSpace(data.Email),
		MunicipalRegistration: strings.TrimSpace(data.MunicipalRegistration),
	}
	c.SetNames(data.Name, data.CompanyName)
	if address != nil {
		c.Address = address
		c.AddressID = address.ID
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// SetNames stores trade and legal names in name case. Blank values are ignored.
func (c *Company) SetNames(name, companyName string) {
	if name != "" {
		c.Name = shared.NameCase(name)
	}
	if companyName != "" {
		c.CompanyName = shared.NameCase(companyName)
	}
}

// ChangeEmail updates the contact email
func (c *Company) ChangeEmail(email string) error {
	email = strings.TrimSpace(email)
	if !shared.IsValidEmail(email) {
		return shared.NewDomainError("INVALID_EMAIL", "E-mail inválido")
	}
	c.Email = email
	c.Touch()
	return nil
}

// Validate checks required fields plus the CNPJ and email formats
func (c *Company) Validate() error {
	ve := &shared.ValidationError{}
	requireText(ve, "name", c.Name, 2000)
	requireText(ve, "company_name", c.CompanyName, 2000)
	if c.CNPJ == "" {
		ve.Add("cnpj", shared.RequiredMessage)
	} else if !ValidCNPJ(c.CNPJ) {
		ve.Add("cnpj", "CNPJ Inválido")
	}
	if c.Email == "" {
		ve.Add("email", shared.RequiredMessage)
	} else if !shared.IsValidEmail(c.Email) {
		ve.Add("email", "E-mail inválido")
	}
	return ve.Err()
}
