package account

// SignatureStatus is the state of a person's electronic signature credential
type SignatureStatus int

const (
	SignatureUnsolicited SignatureStatus = iota
	SignatureUnderApproval
	SignatureApproved
)

var signatureLabels = map[SignatureStatus]string{
	SignatureUnsolicited:   "Não solicitada",
	SignatureUnderApproval: "Em aprovação",
	SignatureApproved:      "Aprovada",
}

var signatureCodes = map[SignatureStatus]string{
	SignatureUnsolicited:   "unsolicited",
	SignatureUnderApproval: "under_approval",
	SignatureApproved:      "approved",
}

// String returns the display label
func (s SignatureStatus) String() string {
	if l, ok := signatureLabels[s]; ok {
		return l
	}
	return signatureLabels[SignatureUnsolicited]
}

// Code returns the stable API identifier
func (s SignatureStatus) Code() string {
	if c, ok := signatureCodes[s]; ok {
		return c
	}
	return signatureCodes[SignatureUnsolicited]
}

// IsValid reports whether s is a known status
func (s SignatureStatus) IsValid() bool {
	_, ok := signatureLabels[s]
	return ok
}

// ReconcileSignature merges the status held locally with the one reported
// by SEI. A request still under review is not known to SEI as approved or
// released, so a remote Unsolicited does not override a local UnderApproval.
func ReconcileSignature(local, remote SignatureStatus) SignatureStatus {
	if local == SignatureUnderApproval && remote == SignatureUnsolicited {
		return local
	}
	return remote
}
