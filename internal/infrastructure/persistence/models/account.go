package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/joinville/accounts/internal/domain/account"
)

// AddressModel is the persistence model for addresses
type AddressModel struct {
	BaseModel
	ZipCode    *int   `gorm:"column:zip_code"`
	District   string `gorm:"type:varchar(100)"`
	City       string `gorm:"type:varchar(100)"`
	Complement string `gorm:"type:varchar(100)"`
	Street     string `gorm:"type:varchar(200)"`
	Number     *int
	State      string `gorm:"type:varchar(2)"`
}

// TableName returns the table name for GORM
func (AddressModel) TableName() string {
	return "addresses"
}

// ToDomain converts the model to a domain Address
func (m *AddressModel) ToDomain() *account.Address {
	return &account.Address{
		BaseEntity: m.BaseModel.ToDomain(),
		ZipCode:    m.ZipCode,
		District:   m.District,
		City:       m.City,
		Complement: m.Complement,
		Street:     m.Street,
		Number:     m.Number,
		State:      m.State,
	}
}

// AddressModelFromDomain creates the model from a domain Address
func AddressModelFromDomain(a *account.Address) *AddressModel {
	m := &AddressModel{
		ZipCode:    a.ZipCode,
		District:   a.District,
		City:       a.City,
		Complement: a.Complement,
		Street:     a.Street,
		Number:     a.Number,
		State:      a.State,
	}
	m.FromDomainBaseEntity(a.BaseEntity)
	return m
}

// PhoneModel is the persistence model for contact phones. Document is the
// CPF or CNPJ of the owner.
type PhoneModel struct {
	BaseModel
	Number   string `gorm:"type:varchar(20);not null"`
	Document string `gorm:"type:varchar(14);not null;index"`
}

// TableName returns the table name for GORM
func (PhoneModel) TableName() string {
	return "phones"
}

// ToDomain converts the model to a domain Phone
func (m *PhoneModel) ToDomain() account.Phone {
	return account.Phone{
		BaseEntity: m.BaseModel.ToDomain(),
		Number:     m.Number,
		Document:   m.Document,
	}
}

// PhoneModelFromDomain creates the model from a domain Phone
func PhoneModelFromDomain(p *account.Phone) *PhoneModel {
	m := &PhoneModel{Number: p.Number, Document: p.Document}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}

// PersonModel is the persistence model for people
type PersonModel struct {
	AggregateModel
	Name            string                  `gorm:"type:varchar(200);not null"`
	CPF             string                  `gorm:"column:cpf;type:varchar(11);not null;uniqueIndex"`
	Email           string                  `gorm:"type:varchar(256);not null;index"`
	RG              string                  `gorm:"column:rg;type:varchar(20)"`
	Dispatcher      string                  `gorm:"type:varchar(20)"`
	AddressID       uuid.UUID               `gorm:"type:uuid;not null"`
	SeiID           *int64                  `gorm:"column:sei_id"`
	SeiProtocol     string                  `gorm:"column:sei_protocol;type:varchar(50)"`
	LinkSeiProtocol string                  `gorm:"column:link_sei_protocol;type:varchar(500)"`
	SignatureStatus account.SignatureStatus `gorm:"type:smallint;not null;default:0;index"`

	// SignatureCheckedAt orders the background status sync
	SignatureCheckedAt *time.Time `gorm:"column:signature_checked_at"`

	Address *AddressModel `gorm:"foreignKey:AddressID"`
	Phones  []PhoneModel  `gorm:"foreignKey:Document;references:CPF"`
}

// TableName returns the table name for GORM
func (PersonModel) TableName() string {
	return "people"
}

// ToDomain converts the model and its preloaded associations to a domain
// Person
func (m *PersonModel) ToDomain() *account.Person {
	p := &account.Person{
		BaseAggregateRoot:  m.ToAggregateRoot(),
		Name:               m.Name,
		CPF:                m.CPF,
		Email:              m.Email,
		RG:                 m.RG,
		Dispatcher:         m.Dispatcher,
		AddressID:          m.AddressID,
		SeiID:              m.SeiID,
		SeiProtocol:        m.SeiProtocol,
		LinkSeiProtocol:    m.LinkSeiProtocol,
		SignatureStatus:    m.SignatureStatus,
		SignatureCheckedAt: m.SignatureCheckedAt,
	}
	if m.Address != nil {
		p.Address = m.Address.ToDomain()
	}
	p.Phones = phonesToDomain(m.Phones)
	return p
}

// PersonModelFromDomain creates the model from a domain Person. The
// associations are not copied; the repository writes them separately.
func PersonModelFromDomain(p *account.Person) *PersonModel {
	m := &PersonModel{
		Name:               p.Name,
		CPF:                p.CPF,
		Email:              p.Email,
		RG:                 p.RG,
		Dispatcher:         p.Dispatcher,
		AddressID:          p.AddressID,
		SeiID:              p.SeiID,
		SeiProtocol:        p.SeiProtocol,
		LinkSeiProtocol:    p.LinkSeiProtocol,
		SignatureStatus:    p.SignatureStatus,
		SignatureCheckedAt: p.SignatureCheckedAt,
	}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	return m
}

// CompanyModel is the persistence model for companies
type CompanyModel struct {
	AggregateModel
	CNPJ                  string    `gorm:"column:cnpj;type:varchar(14);not null;uniqueIndex"`
	Email                 string    `gorm:"type:varchar(256);not null;index"`
	Name                  string    `gorm:"type:varchar(200);not null"`
	CompanyName           string    `gorm:"type:varchar(200);not null"`
	MunicipalRegistration string    `gorm:"type:varchar(30)"`
	AddressID             uuid.UUID `gorm:"type:uuid;not null"`

	Address *AddressModel `gorm:"foreignKey:AddressID"`
	Phones  []PhoneModel  `gorm:"foreignKey:Document;references:CNPJ"`
}

// TableName returns the table name for GORM
func (CompanyModel) TableName() string {
	return "companies"
}

// ToDomain converts the model and its preloaded associations to a domain
// Company
func (m *CompanyModel) ToDomain() *account.Company {
	c := &account.Company{
		BaseAggregateRoot:     m.ToAggregateRoot(),
		CNPJ:                  m.CNPJ,
		Email:                 m.Email,
		Name:                  m.Name,
		CompanyName:           m.CompanyName,
		MunicipalRegistration: m.MunicipalRegistration,
		AddressID:             m.AddressID,
	}
	if m.Address != nil {
		c.Address = m.Address.ToDomain()
	}
	c.Phones = phonesToDomain(m.Phones)
	return c
}

// CompanyModelFromDomain creates the model from a domain Company
func CompanyModelFromDomain(c *account.Company) *CompanyModel {
	m := &CompanyModel{
		CNPJ:                  c.CNPJ,
		Email:                 c.Email,
		Name:                  c.Name,
		CompanyName:           c.CompanyName,
		MunicipalRegistration: c.MunicipalRegistration,
		AddressID:             c.AddressID,
	}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	return m
}

func phonesToDomain(models []PhoneModel) []account.Phone {
	if len(models) == 0 {
		return nil
	}
	phones := make([]account.Phone, len(models))
	for i := range models {
		phones[i] = models[i].ToDomain()
	}
	return phones
}
