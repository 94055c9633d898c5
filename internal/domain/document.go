package domain

import (
	"fmt"
	"time"
)

// DocumentCategory classifies a personal document. The set is closed:
// decoding an unknown string is an error, never a silent default.
type DocumentCategory string

const (
	DocumentIdentity         DocumentCategory = "identity"
	DocumentProofOfResidence DocumentCategory = "proof_of_residence"
	DocumentOther            DocumentCategory = "other"
)

// ParseDocumentCategory decodes a client-supplied category string.
func ParseDocumentCategory(s string) (DocumentCategory, error) {
	switch DocumentCategory(s) {
	case DocumentIdentity, DocumentProofOfResidence, DocumentOther:
		return DocumentCategory(s), nil
	}
	return "", fmt.Errorf("unknown document category %q", s)
}

// Document is a personal identification artifact tied to one creditor.
// Created by the ingestion workflow, never updated, deleted only via the
// creditor cascade.
type Document struct {
	ID           int64            `json:"id"`
	CreditorID   int64            `json:"creditor_id"`
	Category     DocumentCategory `json:"category"`
	ArtifactPath string           `json:"artifact_path"`
	ReceivedAt   time.Time        `json:"received_at"`
}
