// Package domain holds the entity graph managed by the repository: a
// creditor owns its claims, personal documents and tax-clearance
// certificates. Deleting a creditor cascades to all three.
package domain

import "time"

// Creditor is the aggregate root. TaxID (CPF/CNPJ) is unique across all
// creditors; the uniqueness is enforced by the store, not pre-checked by
// services, so concurrent creations race safely.
type Creditor struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	TaxID string `json:"tax_id"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Claim (precatório) is a monetary entitlement tied to one creditor.
// Immutable once created; there is no standalone creation path, a claim is
// only born together with its creditor.
type Claim struct {
	ID          int64     `json:"id"`
	CreditorID  int64     `json:"creditor_id"`
	Number      string    `json:"number"`
	Value       float64   `json:"value"`
	Forum       string    `json:"forum"`
	PublishedAt time.Time `json:"published_at"`
}

// Graph is the full record graph returned by GetCreditor.
type Graph struct {
	Creditor
	Claims       []Claim       `json:"claims"`
	Documents    []Document    `json:"documents"`
	Certificates []Certificate `json:"certificates"`
}
