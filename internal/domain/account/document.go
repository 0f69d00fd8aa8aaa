package account

import (
	"strings"

	"github.com/joinville/accounts/internal/domain/shared"
)

// Document lengths of CPF (people) and CNPJ (companies)
const (
	CPFLength  = 11
	CNPJLength = 14
)

var cnpjWeights = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}

// ValidCPF checks the length and both check digits of a CPF. Dots and
// dashes are accepted; sequences of one repeated digit are rejected.
func ValidCPF(cpf string) bool {
	cpf = strings.NewReplacer(".", "", "-", "").Replace(strings.TrimSpace(cpf))
	if len(cpf) != CPFLength || !allDigits(cpf) || repeated(cpf) {
		return false
	}

	d := digits(cpf)
	return checkDigit(d[:9], 10) == d[9] && checkDigit(d[:10], 11) == d[10]
}

// checkDigit computes a CPF verifier with descending weights from top
func checkDigit(d []int, top int) int {
	sum := 0
	for i, v := range d {
		sum += v * (top - i)
	}
	return verifier(sum)
}

// ValidCNPJ checks the length and both check digits of a CNPJ. Dots,
// slashes and dashes are accepted.
func ValidCNPJ(cnpj string) bool {
	cnpj = strings.NewReplacer(".", "", "/", "", "-", "").Replace(strings.TrimSpace(cnpj))
	if len(cnpj) != CNPJLength || !allDigits(cnpj) || repeated(cnpj) {
		return false
	}

	d := digits(cnpj)
	first, second := 0, 0
	for i := 0; i < 13; i++ {
		if i < 12 {
			first += d[i] * cnpjWeights[i+1]
		}
		second += d[i] * cnpjWeights[i]
	}
	return verifier(first) == d[12] && verifier(second) == d[13]
}

func verifier(sum int) int {
	r := sum % 11
	if r < 2 {
		return 0
	}
	return 11 - r
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func repeated(s string) bool {
	return strings.Count(s, s[:1]) == len(s)
}

func digits(s string) []int {
	out := make([]int, len(s))
	for i := range s {
		out[i] = int(s[i] - '0')
	}
	return out
}

// NormalizeUsername turns what a user typed as login into a document:
// digits only, left-padded with zeros to a CPF when short enough, to a
// CNPJ otherwise.
func NormalizeUsername(login string) string {
	d := shared.OnlyDigits(login)
	if len(d) < 12 {
		return shared.PadLeft(d, CPFLength, '0')
	}
	return shared.PadLeft(d, CNPJLength, '0')
}

// IsPersonDocument reports whether doc belongs to a person (CPF)
func IsPersonDocument(doc string) bool {
	return len(doc) <= CPFLength
}

// ValidDocumentLength reports whether doc fits a CPF or a CNPJ column
func ValidDocumentLength(doc string) bool {
	return len(doc) >= CPFLength && len(doc) <= CNPJLength
}
