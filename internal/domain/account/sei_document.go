package account

import (
	"strings"

	"github.com/joinville/accounts/internal/domain/shared"
)

// Titles of the text documents attached to the SEI protocol
const (
	UserDataDocumentTitle   = "Dados do usuário"
	UserChangeDocumentTitle = "Alteração nos dados do usuário"
)

// UserDataDocument renders the identification form sent with a signature
// request
func UserDataDocument(p *Person) string {
	var sb strings.Builder
	header(&sb, "Dados do usuário externo", 24)
	sb.WriteString(p.String())
	sb.WriteString("Telefones: \n")
	for _, phone := range p.Phones {
		sb.WriteString(phone.Number)
		sb.WriteString("\n")
	}
	return sb.String()
}

// UserChangeDocument renders one "field: old => new" line per change. It
// returns an empty string when there is nothing to report.
func UserChangeDocument(changes []shared.Change) string {
	if len(changes) == 0 {
		return ""
	}
	var sb strings.Builder
	header(&sb, "Alteração nos dados do usuário externo", 38)
	for _, c := range changes {
		sb.WriteString(c.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

// PersonChanges lists the user-visible differences between two versions of
// a person. SEI bookkeeping and the signature status are left out.
func PersonChanges(updated, old *Person) []shared.Change {
	return shared.Diff(updated, old, shared.Ignoring("SignatureStatus", "SeiID", "SeiProtocol", "LinkSeiProtocol"))
}

func header(sb *strings.Builder, title string, width int) {
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", width))
	sb.WriteString("\n\n")
}
