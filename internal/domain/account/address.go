package account

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/joinville/accounts/internal/domain/shared"
)

var stateRegex = regexp.MustCompile(`^[A-Z]{2}$`)

// ValidState reports whether uf is two upper case letters
func ValidState(uf string) bool {
	return stateRegex.MatchString(uf)
}

// Address is the postal address of a person or a company
type Address struct {
	shared.BaseEntity
	ZipCode    *int   `diff:"CEP"`
	District   string `diff:"Bairro"`
	City       string `diff:"Cidade"`
	Complement string `diff:"Complemento"`
	Street     string `diff:"Logradouro"`
	Number     *int   `diff:"Número"`
	State      string `diff:"UF"`
}

// NewAddress creates a validated address
func NewAddress(zipCode int, street string, number *int, complement, district, city, state string) (*Address, error) {
	a := &Address{BaseEntity: shared.NewBaseEntity()}
	a.Set(zipCode, street, number, complement, district, city, state)
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Set replaces every field of the address
func (a *Address) Set(zipCode int, street string, number *int, complement, district, city, state string) {
	zip := zipCode
	a.ZipCode = &zip
	a.Street = strings.TrimSpace(street)
	a.Number = number
	a.Complement = strings.TrimSpace(complement)
	a.District = strings.TrimSpace(district)
	a.City = strings.TrimSpace(city)
	a.State = strings.TrimSpace(state)
	a.Touch()
}

// Validate checks required fields, lengths and the state abbreviation
func (a *Address) Validate() error {
	ve := &shared.ValidationError{}
	if a.ZipCode == nil || *a.ZipCode <= 0 {
		ve.Add("zip_code", shared.RequiredMessage)
	}
	requireText(ve, "district", a.District, 200)
	requireText(ve, "city", a.City, 200)
	requireText(ve, "street", a.Street, 2000)
	if len(a.Complement) > 2000 {
		ve.Add("complement", "O complemento não pode ter mais de 2000 caracteres.")
	}
	if a.State == "" {
		ve.Add("state", shared.RequiredMessage)
	} else if !stateRegex.MatchString(a.State) {
		ve.Add("state", "UF inválida, valor deve possuir duas letras maiúsculas.")
	}
	return ve.Err()
}

// StreetAndNumber joins street and number the way SEI expects
func (a *Address) StreetAndNumber() string {
	return a.Street + " " + intString(a.Number)
}

// String renders the address block used in SEI documents
func (a *Address) String() string {
	var sb strings.Builder
	line(&sb, "CEP: ", intString(a.ZipCode))
	line(&sb, "Logradouro: ", a.Street)
	line(&sb, "Número: ", intString(a.Number))
	line(&sb, "Complemento: ", a.Complement)
	line(&sb, "Bairro: ", a.District)
	line(&sb, "Cidade: ", a.City)
	line(&sb, "Estado: ", a.State)
	return sb.String()
}

func line(sb *strings.Builder, label, value string) {
	sb.WriteString(label)
	sb.WriteString(value)
	sb.WriteString("\n")
}

func intString(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func requireText(ve *shared.ValidationError, field, value string, max int) {
	switch {
	case strings.TrimSpace(value) == "":
		ve.Add(field, shared.RequiredMessage)
	case len([]rune(value)) > max:
		ve.Add(field, "O campo não pode ter mais de "+strconv.Itoa(max)+" caracteres.")
	}
}
