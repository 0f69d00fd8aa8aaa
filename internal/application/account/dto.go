package account

import (
	"time"

	"github.com/google/uuid"
	"github.com/joinville/accounts/internal/domain/account"
)

// AddressInput carries a postal address as typed by the citizen
type AddressInput struct {
	ZipCode    int    `json:"zip_code" binding:"required,gt=0"`
	Street     string `json:"street" binding:"required,max=2000"`
	Number     *int   `json:"number"`
	Complement string `json:"complement" binding:"max=2000"`
	District   string `json:"district" binding:"required,max=200"`
	City       string `json:"city" binding:"required,max=200"`
	State      string `json:"state" binding:"required,uf"`
}

func (in AddressInput) build() (*account.Address, error) {
	return account.NewAddress(in.ZipCode, in.Street, in.Number, in.Complement, in.District, in.City, in.State)
}

func (in AddressInput) apply(a *account.Address) error {
	a.Set(in.ZipCode, in.Street, in.Number, in.Complement, in.District, in.City, in.State)
	return a.Validate()
}

// RegisterPersonInput represents the citizen self registration form
type RegisterPersonInput struct {
	Name            string       `json:"name" binding:"required,max=1500"`
	CPF             string       `json:"cpf" binding:"required,cpf"`
	RG              string       `json:"rg" binding:"required,max=500"`
	Dispatcher      string       `json:"dispatcher" binding:"required,max=2000"`
	Email           string       `json:"email" binding:"required,email"`
	ConfirmEmail    string       `json:"confirm_email" binding:"required"`
	Password        string       `json:"password" binding:"required"`
	ConfirmPassword string       `json:"confirm_password" binding:"required"`
	Address         AddressInput `json:"address" binding:"required"`
	Phones          []string     `json:"phones" binding:"required,min=1"`
}

// RegisterCompanyInput represents the company registration form
type RegisterCompanyInput struct {
	CNPJ                  string       `json:"cnpj" binding:"required,cnpj"`
	Name                  string       `json:"name" binding:"required,max=2000"`
	CompanyName           string       `json:"company_name" binding:"required,max=2000"`
	MunicipalRegistration string       `json:"municipal_registration"`
	Email                 string       `json:"email" binding:"required,email"`
	ConfirmEmail          string       `json:"confirm_email" binding:"required"`
	Password              string       `json:"password" binding:"required"`
	ConfirmPassword       string       `json:"confirm_password" binding:"required"`
	Address               AddressInput `json:"address" binding:"required"`
	Phones                []string     `json:"phones" binding:"required,min=1"`
}

// RegistrationResult is returned after a successful registration
type RegistrationResult struct {
	UserID  uuid.UUID `json:"user_id"`
	Message string    `json:"message"`
}

// EditPersonInput carries the identity fields a citizen may change
type EditPersonInput struct {
	Document   string `json:"-"`
	Password   string `json:"password" binding:"required"`
	Name       string `json:"name" binding:"required,max=1500"`
	RG         string `json:"rg" binding:"required,max=500"`
	Dispatcher string `json:"dispatcher" binding:"required,max=2000"`
}

// UpdateAddressInput replaces the address of the logged user
type UpdateAddressInput struct {
	Document string       `json:"-"`
	Password string       `json:"password" binding:"required"`
	Address  AddressInput `json:"address" binding:"required"`
}

// PhoneInput creates or changes a phone of the logged user
type PhoneInput struct {
	Document string    `json:"-"`
	ID       uuid.UUID `json:"-"`
	Password string    `json:"password" binding:"required"`
	Number   string    `json:"number" binding:"required,phone_br"`
}

// DeletePhoneInput removes a phone of the logged user
type DeletePhoneInput struct {
	Document string    `json:"-"`
	ID       uuid.UUID `json:"-"`
	Password string    `json:"password" binding:"required"`
}

// AddressResponse represents an address in API responses
type AddressResponse struct {
	ID         uuid.UUID `json:"id"`
	ZipCode    *int      `json:"zip_code"`
	Street     string    `json:"street"`
	Number     *int      `json:"number,omitempty"`
	Complement string    `json:"complement,omitempty"`
	District   string    `json:"district"`
	City       string    `json:"city"`
	State      string    `json:"state"`
}

// PhoneResponse represents a phone in API responses
type PhoneResponse struct {
	ID        uuid.UUID `json:"id"`
	Number    string    `json:"number"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PersonResponse represents a person in API responses
type PersonResponse struct {
	ID                   uuid.UUID `json:"id"`
	Name                 string    `json:"name"`
	CPF                  string    `json:"cpf"`
	Email                string    `json:"email"`
	RG                   string    `json:"rg"`
	Dispatcher           string    `json:"dispatcher"`
	SignatureStatus      string    `json:"signature_status"`
	SignatureStatusLabel string    `json:"signature_status_label"`
	LinkSeiProtocol      string    `json:"link_sei_protocol,omitempty"`
}

// CompanyResponse represents a company in API responses
type CompanyResponse struct {
	ID                    uuid.UUID `json:"id"`
	CNPJ                  string    `json:"cnpj"`
	Email                 string    `json:"email"`
	Name                  string    `json:"name"`
	CompanyName           string    `json:"company_name"`
	MunicipalRegistration string    `json:"municipal_registration,omitempty"`
}

// ProfileResponse is the registration data of the logged user. Exactly one
// of Person and Company is set.
type ProfileResponse struct {
	Person  *PersonResponse  `json:"person,omitempty"`
	Company *CompanyResponse `json:"company,omitempty"`
	Address *AddressResponse `json:"address,omitempty"`
	Phones  []PhoneResponse  `json:"phones"`
}

// ToAddressResponse converts a domain address
func ToAddressResponse(a *account.Address) *AddressResponse {
	if a == nil {
		return nil
	}
	return &AddressResponse{
		ID:         a.ID,
		ZipCode:    a.ZipCode,
		Street:     a.Street,
		Number:     a.Number,
		Complement: a.Complement,
		District:   a.District,
		City:       a.City,
		State:      a.State,
	}
}

// ToPhoneResponse converts a domain phone
func ToPhoneResponse(p *account.Phone) PhoneResponse {
	return PhoneResponse{ID: p.ID, Number: p.Number, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt}
}

// ToPhoneResponses converts a list of domain phones
func ToPhoneResponses(phones []account.Phone) []PhoneResponse {
	out := make([]PhoneResponse, len(phones))
	for i := range phones {
		out[i] = ToPhoneResponse(&phones[i])
	}
	return out
}

// ToPersonResponse converts a domain person
func ToPersonResponse(p *account.Person) *PersonResponse {
	return &PersonResponse{
		ID:                   p.ID,
		Name:                 p.Name,
		CPF:                  p.CPF,
		Email:                p.Email,
		RG:                   p.RG,
		Dispatcher:           p.Dispatcher,
		SignatureStatus:      p.SignatureStatus.Code(),
		SignatureStatusLabel: p.SignatureStatus.String(),
		LinkSeiProtocol:      p.LinkSeiProtocol,
	}
}

// ToCompanyResponse converts a domain company
func ToCompanyResponse(c *account.Company) *CompanyResponse {
	return &CompanyResponse{
		ID:                    c.ID,
		CNPJ:                  c.CNPJ,
		Email:                 c.Email,
		Name:                  c.Name,
		CompanyName:           c.CompanyName,
		MunicipalRegistration: c.MunicipalRegistration,
	}
}
