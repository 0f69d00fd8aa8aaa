package account

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/joinville/accounts/internal/domain/shared"
)

var phoneRegex = regexp.MustCompile(`^\(\d{2}\) ?\d?\d{8}$`)

// Phone is a contact number owned by a person or a company
type Phone struct {
	shared.BaseEntity
	Number   string
	Document string // CPF or CNPJ of the owner
}

// ValidPhoneNumber reports whether n has the "(XX) XXXXXXXX" shape, with
// an optional space and an optional ninth digit
func ValidPhoneNumber(n string) bool {
	return phoneRegex.MatchString(n)
}

// NewPhone creates a validated phone for the owner document
func NewPhone(document, number string) (*Phone, error) {
	p := &Phone{
		BaseEntity: shared.NewBaseEntity(),
		Number:     strings.TrimSpace(number),
		Document:   document,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// ChangeNumber replaces the number and refreshes UpdatedAt
func (p *Phone) ChangeNumber(number string) error {
	number = strings.TrimSpace(number)
	if !ValidPhoneNumber(number) {
		return shared.NewDomainError("INVALID_PHONE", "O telefone deve estar no formato (XX) XXXXXXXX")
	}
	p.Number = number
	p.UpdatedAt = time.Now()
	return nil
}

// BelongsTo reports whether the phone is owned by document
func (p *Phone) BelongsTo(document string) bool {
	return p.Document == document
}

// Validate checks the number format and the owner document
func (p *Phone) Validate() error {
	ve := &shared.ValidationError{}
	switch {
	case p.Number == "":
		ve.Add("number", shared.RequiredMessage)
	case !ValidPhoneNumber(p.Number):
		ve.Add("number", "O telefone deve estar no formato (XX) XXXXXXXX")
	}
	if p.Document == "" {
		ve.Add("document", shared.RequiredMessage)
	} else if !ValidDocumentLength(p.Document) {
		ve.Add("document", "O documento do proprietário deve ter entre 11 e 14 caracteres.")
	}
	return ve.Err()
}

// LastUpdatedNumber returns the number of the most recently updated phone.
// Ties fall back to the oldest creation time, then to the id.
func LastUpdatedNumber(phones []Phone) string {
	if len(phones) == 0 {
		return ""
	}
	sorted := make([]Phone, len(phones))
	copy(sorted, phones)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
	return sorted[0].Number
}

// DistinctNumbers trims numbers and drops duplicates and blanks, keeping
// the first occurrence order
func DistinctNumbers(numbers []string) []string {
	seen := make(map[string]bool, len(numbers))
	out := make([]string, 0, len(numbers))
	for _, n := range numbers {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
