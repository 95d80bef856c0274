package db

import (
	"time"
)

// Offer status values
const (
	OfferDraft     = "draft"
	OfferReviewed  = "reviewed"
	OfferApproved  = "approved"
	OfferSent      = "sent"
	OfferSigned    = "signed"
	OfferRejected  = "rejected"
	OfferExpired   = "expired"
	OfferWithdrawn = "withdrawn"
)

// Offer is the at-most-one job offer attached to an application. Base salary
// serializes as a string to preserve precision on the wire.
type Offer struct {
	ID              int64      `json:"id"`
	ApplicationID   int64      `json:"application_id"`
	Status          string     `json:"status"`
	BaseSalary      string     `json:"base_salary"`
	Currency        string     `json:"currency,omitempty"`
	Allowances      JSONMap    `json:"allowances"`
	Bonuses         JSONMap    `json:"bonuses"`
	ContractType    string     `json:"contract_type,omitempty"`
	StartDate       *time.Time `json:"start_date,omitempty"`
	PDFURL          *string    `json:"pdf_url,omitempty"`
	PDFGeneratedAt  *time.Time `json:"pdf_generated_at,omitempty"`
	SignedAt        *time.Time `json:"signed_at,omitempty"`
	SignedBy        *int64     `json:"signed_by,omitempty"`
	SignedIP        *string    `json:"signed_ip,omitempty"`
	SignedUserAgent *string    `json:"signed_user_agent,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	OfferVersion    int        `json:"offer_version"`
	CreatedBy       int64      `json:"created_by"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
