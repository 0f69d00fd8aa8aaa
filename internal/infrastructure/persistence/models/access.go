package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/joinville/accounts/internal/domain/access"
)

// ApplicationModel is the persistence model for applications
type ApplicationModel struct {
	AggregateModel
	Name             string          `gorm:"type:varchar(150);not null"`
	UseTerms         string          `gorm:"type:text"`
	RequiresApproval bool            `gorm:"not null;default:false"`
	Enabled          bool            `gorm:"not null"`
	UserType         access.UserType `gorm:"type:smallint;not null;default:0"`
	URL              string          `gorm:"column:url;type:varchar(500)"`
}

// TableName returns the table name for GORM
func (ApplicationModel) TableName() string {
	return "applications"
}

// ToDomain converts the model to a domain Application
func (m *ApplicationModel) ToDomain() *access.Application {
	return &access.Application{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		UseTerms:          m.UseTerms,
		RequiresApproval:  m.RequiresApproval,
		Enabled:           m.Enabled,
		UserType:          m.UserType,
		URL:               m.URL,
	}
}

// ApplicationModelFromDomain creates the model from a domain Application
func ApplicationModelFromDomain(a *access.Application) *ApplicationModel {
	m := &ApplicationModel{
		Name:             a.Name,
		UseTerms:         a.UseTerms,
		RequiresApproval: a.RequiresApproval,
		Enabled:          a.Enabled,
		UserType:         a.UserType,
		URL:              a.URL,
	}
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	return m
}

// AccessModel is the persistence model for accesses. One row exists per
// document and application.
type AccessModel struct {
	BaseModel
	ApplicationID uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_access_document_application"`
	Document      string        `gorm:"type:varchar(14);not null;uniqueIndex:idx_access_document_application"`
	Status        access.Status `gorm:"type:smallint;not null;default:0"`
	AcceptedTerms *bool
	ApprovedAt    *time.Time
	ApprovedBy    string `gorm:"type:varchar(10)"`
	DeniedAt      *time.Time
	DeniedBy      string `gorm:"type:varchar(10)"`
	DeniedCause   string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (AccessModel) TableName() string {
	return "accesses"
}

// ToDomain converts the model to a domain Access
func (m *AccessModel) ToDomain() *access.Access {
	return &access.Access{
		BaseEntity:    m.BaseModel.ToDomain(),
		ApplicationID: m.ApplicationID,
		Document:      m.Document,
		Status:        m.Status,
		AcceptedTerms: m.AcceptedTerms,
		ApprovedAt:    m.ApprovedAt,
		ApprovedBy:    m.ApprovedBy,
		DeniedAt:      m.DeniedAt,
		DeniedBy:      m.DeniedBy,
		DeniedCause:   m.DeniedCause,
	}
}

// AccessModelFromDomain creates the model from a domain Access
func AccessModelFromDomain(a *access.Access) *AccessModel {
	m := &AccessModel{
		ApplicationID: a.ApplicationID,
		Document:      a.Document,
		Status:        a.Status,
		AcceptedTerms: a.AcceptedTerms,
		ApprovedAt:    a.ApprovedAt,
		ApprovedBy:    a.ApprovedBy,
		DeniedAt:      a.DeniedAt,
		DeniedBy:      a.DeniedBy,
		DeniedCause:   a.DeniedCause,
	}
	m.FromDomainBaseEntity(a.BaseEntity)
	return m
}
