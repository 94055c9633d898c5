package domain

import (
	"fmt"
	"time"
)

// Jurisdiction identifies which authority issued a certificate.
type Jurisdiction string

const (
	JurisdictionFederal   Jurisdiction = "federal"
	JurisdictionState     Jurisdiction = "state"
	JurisdictionMunicipal Jurisdiction = "municipal"
	JurisdictionLabor     Jurisdiction = "labor"
)

// ParseJurisdiction decodes an external jurisdiction string. Registry
// responses go through this; unknown values surface as errors so the fetch
// fails whole rather than inserting a mislabeled record.
func ParseJurisdiction(s string) (Jurisdiction, error) {
	switch Jurisdiction(s) {
	case JurisdictionFederal, JurisdictionState, JurisdictionMunicipal, JurisdictionLabor:
		return Jurisdiction(s), nil
	}
	return "", fmt.Errorf("unknown jurisdiction %q", s)
}

// CertificateOrigin records how a certificate entered the system.
type CertificateOrigin string

const (
	OriginManual    CertificateOrigin = "manual"
	OriginAutomatic CertificateOrigin = "automatic"
)

// CertificateStatus is the clearance outcome reported for a certificate.
type CertificateStatus string

const (
	StatusNegative CertificateStatus = "negative"
	StatusPositive CertificateStatus = "positive"
	StatusInvalid  CertificateStatus = "invalid"
	StatusPending  CertificateStatus = "pending"
)

// ParseCertificateStatus decodes a status string from clients or the
// external registry.
func ParseCertificateStatus(s string) (CertificateStatus, error) {
	switch CertificateStatus(s) {
	case StatusNegative, StatusPositive, StatusInvalid, StatusPending:
		return CertificateStatus(s), nil
	}
	return "", fmt.Errorf("unknown certificate status %q", s)
}

// Certificate is a jurisdiction-specific tax-clearance record tied to one
// creditor. Manual uploads carry an artifact path; automatically fetched
// certificates carry inline base64 content. The two are mutually exclusive.
// Only status, content and the received timestamp may change after creation
// (by revalidation); jurisdiction and origin never do.
type Certificate struct {
	ID            int64             `json:"id"`
	CreditorID    int64             `json:"creditor_id"`
	Jurisdiction  Jurisdiction      `json:"jurisdiction"`
	Origin        CertificateOrigin `json:"origin"`
	Status        CertificateStatus `json:"status"`
	ArtifactPath  string            `json:"artifact_path,omitempty"`
	ContentBase64 string            `json:"content_base64,omitempty"`
	ReceivedAt    time.Time         `json:"received_at"`
}
