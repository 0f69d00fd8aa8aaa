package access

import (
	"time"

	"github.com/google/uuid"
	"github.com/joinville/accounts/internal/domain/access"
)

// ApplicationRequest creates or replaces an application
type ApplicationRequest struct {
	Name             string `json:"name" binding:"required,min=5,max=150"`
	UseTerms         string `json:"use_terms"`
	RequiresApproval bool   `json:"requires_approval"`
	Enabled          bool   `json:"enabled"`
	UserType         int    `json:"user_type" binding:"min=0,max=2"`
	URL              string `json:"url" binding:"omitempty,url"`
}

func (r ApplicationRequest) data() access.ApplicationData {
	return access.ApplicationData{
		Name:             r.Name,
		UseTerms:         r.UseTerms,
		RequiresApproval: r.RequiresApproval,
		Enabled:          r.Enabled,
		UserType:         access.UserType(r.UserType),
		URL:              r.URL,
	}
}

// ApplicationResponse represents an application in API responses
type ApplicationResponse struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	UseTerms         string    `json:"use_terms,omitempty"`
	RequiresApproval bool      `json:"requires_approval"`
	Enabled          bool      `json:"enabled"`
	UserType         int       `json:"user_type"`
	UserTypeLabel    string    `json:"user_type_label"`
	URL              string    `json:"url,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	Version          int       `json:"version"`
}

// ToApplicationResponse converts a domain application
func ToApplicationResponse(a *access.Application) ApplicationResponse {
	return ApplicationResponse{
		ID:               a.ID,
		Name:             a.Name,
		UseTerms:         a.UseTerms,
		RequiresApproval: a.RequiresApproval,
		Enabled:          a.Enabled,
		UserType:         int(a.UserType),
		UserTypeLabel:    a.UserType.String(),
		URL:              a.URL,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
		Version:          a.Version,
	}
}

// AccessResponse represents an access in API responses
type AccessResponse struct {
	ID            uuid.UUID  `json:"id"`
	ApplicationID uuid.UUID  `json:"application_id"`
	Document      string     `json:"document"`
	Status        int        `json:"status"`
	StatusLabel   string     `json:"status_label"`
	AcceptedTerms *bool      `json:"accepted_terms,omitempty"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty"`
	ApprovedBy    string     `json:"approved_by,omitempty"`
	DeniedAt      *time.Time `json:"denied_at,omitempty"`
	DeniedBy      string     `json:"denied_by,omitempty"`
	DeniedCause   string     `json:"denied_cause,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ToAccessResponse converts a domain access
func ToAccessResponse(a *access.Access) AccessResponse {
	return AccessResponse{
		ID:            a.ID,
		ApplicationID: a.ApplicationID,
		Document:      a.Document,
		Status:        int(a.Status),
		StatusLabel:   a.Status.String(),
		AcceptedTerms: a.AcceptedTerms,
		ApprovedAt:    a.ApprovedAt,
		ApprovedBy:    a.ApprovedBy,
		DeniedAt:      a.DeniedAt,
		DeniedBy:      a.DeniedBy,
		DeniedCause:   a.DeniedCause,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// CheckResult tells a relying application whether the user may enter.
// Code and Message explain a refusal.
type CheckResult struct {
	Allowed bool   `json:"allowed"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	URL     string `json:"url,omitempty"`
}

// ReviewRequest carries the staff decision on an access request
type ReviewRequest struct {
	Login string `json:"login" binding:"required,staff_login"`
	Cause string `json:"cause" binding:"max=2000"`
}
