package signature

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joinville/accounts/internal/domain/shared"
)

// MaxFileSize is the largest document accepted, in bytes
const MaxFileSize = 1 << 20

const allowedExtension = ".pdf"

// Titles of the documents attached to the SEI protocol
const (
	TermTitle          = "Termo de responsabilidade"
	PhotoDocumentTitle = "Documento com foto"
	ExtraDocumentTitle = "Documento"
)

// File is an uploaded document
type File struct {
	Name string
	Data []byte
}

// ValidateFile checks that f is present, not empty, at most MaxFileSize
// bytes long and a PDF. label names the document in the messages.
func ValidateFile(label string, f *File) error {
	ve := &shared.ValidationError{}
	validateFile(ve, label, f)
	return ve.Err()
}

func validateFile(ve *shared.ValidationError, label string, f *File) {
	if f == nil {
		ve.Add(label, fmt.Sprintf("O arquivo \"%s\" é obrigatório.", label))
		return
	}
	if len(f.Data) == 0 {
		ve.Add(label, fmt.Sprintf("O arquivo \"%s\" não possui conteúdo.", label))
	}
	if len(f.Data) > MaxFileSize {
		ve.Add(label, fmt.Sprintf("O arquivo \"%s\" tem tamanho superior a %d Mb.", label, MaxFileSize>>20))
	}
	if !strings.EqualFold(filepath.Ext(f.Name), allowedExtension) {
		ve.Add(label, fmt.Sprintf("O arquivo \"%s\" possui extensão diferente de \"%s\"", label, allowedExtension))
	}
}
