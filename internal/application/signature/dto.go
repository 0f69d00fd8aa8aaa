package signature

import "github.com/joinville/accounts/internal/domain/account"

// Config holds the texts and links shown on the signature page
type Config struct {
	Decree           string
	Instruction      string
	SignDocumentLink string
}

// RequestInput is the electronic signature request form
type RequestInput struct {
	Agree    bool
	Password string
	Term     *File
	Document *File
}

// Overview describes the signature of a citizen and the rules that govern it
type Overview struct {
	Status           string `json:"status"`
	StatusLabel      string `json:"status_label"`
	CanRequest       bool   `json:"can_request"`
	LinkSeiProtocol  string `json:"link_sei_protocol,omitempty"`
	Decree           string `json:"decree"`
	Instruction      string `json:"instruction"`
	SignDocumentLink string `json:"sign_document_link"`
}

// StatusResult is the current signature status
type StatusResult struct {
	Status      string `json:"status"`
	StatusLabel string `json:"status_label"`
}

func statusResult(s account.SignatureStatus) *StatusResult {
	return &StatusResult{Status: s.Code(), StatusLabel: s.String()}
}
