package account

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joinville/accounts/internal/domain/shared"
)

// Person is a citizen registered with a CPF. It is the aggregate that the
// electronic signature flow and the SEI external user mirror.
type Person struct {
	shared.BaseAggregateRoot
	Name            string          `diff:"Nome"`
	CPF             string          `diff:"CPF"`
	Email           string          `diff:"E-mail"`
	RG              string          `diff:"Identidade"`
	Dispatcher      string          `diff:"Órgão expedidor"`
	AddressID       uuid.UUID       `diff:"-"`
	SeiID           *int64          `diff:"Código no SEI"`
	SeiProtocol     string          `diff:"Protocolo do SEI"`
	LinkSeiProtocol string          `diff:"Link do protocolo do SEI"`
	SignatureStatus SignatureStatus `diff:"Situação da certificação"`

	// last time the status was queried in SEI by the background sync
	SignatureCheckedAt *time.Time `diff:"-"`

	// loaded by the repository
	Address *Address
	Phones  []Phone
}

// PersonData carries the user-editable fields of a person
type PersonData struct {
	Name       string
	CPF        string
	Email      string
	RG         string
	Dispatcher string
}

// NewPerson creates a validated person bound to an address
func NewPerson(data PersonData, address *Address) (*Person, error) {
	p := &Person{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CPF:               shared.OnlyDigits(data.CPF),
		Email:             strings.TrimSpace(data.Email),
		RG:                strings.TrimSpace(data.RG),
		Dispatcher:        strings.TrimSpace(data.Dispatcher),
		SignatureStatus:   SignatureUnsolicited,
	}
	p.SetName(data.Name)
	if address != nil {
		p.Address = address
		p.AddressID = address.ID
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// SetName stores the name in name case. Blank names are ignored.
func (p *Person) SetName(name string) {
	if name == "" {
		return
	}
	p.Name = shared.NameCase(name)
}

// Edit updates the identity fields a citizen may change
func (p *Person) Edit(name, rg, dispatcher string) error {
	p.SetName(name)
	p.RG = strings.TrimSpace(rg)
	p.Dispatcher = strings.TrimSpace(dispatcher)
	if err := p.Validate(); err != nil {
		return err
	}
	p.Touch()
	return nil
}

// ChangeEmail updates the contact email
func (p *Person) ChangeEmail(email string) error {
	email = strings.TrimSpace(email)
	if !shared.IsValidEmail(email) {
		return shared.NewDomainError("INVALID_EMAIL", "E-mail inválido")
	}
	p.Email = email
	p.Touch()
	return nil
}

// Validate checks required fields plus the CPF and email formats
func (p *Person) Validate() error {
	ve := &shared.ValidationError{}
	requireText(ve, "name", p.Name, 1500)
	requireText(ve, "rg", p.RG, 500)
	requireText(ve, "dispatcher", p.Dispatcher, 2000)
	if p.CPF == "" {
		ve.Add("cpf", shared.RequiredMessage)
	} else if !ValidCPF(p.CPF) {
		ve.Add("cpf", "CPF inválido")
	}
	if p.Email == "" {
		ve.Add("email", shared.RequiredMessage)
	} else if !shared.IsValidEmail(p.Email) {
		ve.Add("email", "E-mail inválido")
	}
	return ve.Err()
}

// Clone returns a shallow copy for before/after comparisons
func (p *Person) Clone() *Person {
	c := *p
	c.ClearDomainEvents()
	if p.SeiID != nil {
		id := *p.SeiID
		c.SeiID = &id
	}
	return &c
}

// PhoneLastUpdated is the number sent to SEI as the contact phone
func (p *Person) PhoneLastUpdated() string {
	return LastUpdatedNumber(p.Phones)
}

// HasSeiUser reports whether the person is already registered in SEI
func (p *Person) HasSeiUser() bool {
	return p.SeiID != nil
}

// SetSeiID binds the person to a SEI external user
func (p *Person) SetSeiID(id int64) {
	p.SeiID = &id
}

// SetProtocol records the SEI process that holds the signature request
func (p *Person) SetProtocol(protocol, link string) {
	p.SeiProtocol = protocol
	p.LinkSeiProtocol = link
	p.Touch()
}

// MarkSignatureRequested puts the signature under approval
func (p *Person) MarkSignatureRequested() {
	old := p.SignatureStatus
	p.SignatureStatus = SignatureUnderApproval
	p.Touch()
	p.AddDomainEvent(NewSignatureRequestedEvent(p))
	if old != p.SignatureStatus {
		p.AddDomainEvent(NewSignatureStatusChangedEvent(p, old))
	}
}

// ApplySignatureStatus merges the status reported by SEI. It returns true
// when the local status changed.
func (p *Person) ApplySignatureStatus(remote SignatureStatus) bool {
	old := p.SignatureStatus
	p.SignatureStatus = ReconcileSignature(old, remote)
	if old == p.SignatureStatus {
		return false
	}
	p.Touch()
	p.AddDomainEvent(NewSignatureStatusChangedEvent(p, old))
	return true
}

// RevokeSignature resets the credential after a password change in SEI
func (p *Person) RevokeSignature() {
	old := p.SignatureStatus
	p.SignatureStatus = SignatureUnsolicited
	if old != p.SignatureStatus {
		p.Touch()
		p.AddDomainEvent(NewSignatureStatusChangedEvent(p, old))
	}
}

// String renders the identification block used in SEI documents
func (p *Person) String() string {
	var sb strings.Builder
	line(&sb, "Nome: ", p.Name)
	line(&sb, "CPF: ", p.CPF)
	sb.WriteString("RG: ")
	sb.WriteString(p.RG)
	line(&sb, " Órgão emissor: ", p.Dispatcher)
	if p.Address != nil {
		sb.WriteString(p.Address.String())
	}
	line(&sb, "Email: ", p.Email)
	return sb.String()
}
