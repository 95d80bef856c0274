// Package offers implements the offer state machine and its side effects:
// document generation, object-store upload, email dispatch, and signature
// capture.
package offers

import (
	"fmt"

	"github.com/recruitflow/recruitflow/internal/db"
)

// transitions is the complete offer state graph. Any edge outside this table
// is rejected; signed, rejected, expired, and withdrawn are terminal.
var transitions = map[string][]string{
	db.OfferDraft:    {db.OfferReviewed},
	db.OfferReviewed: {db.OfferApproved, db.OfferRejected},
	db.OfferApproved: {db.OfferSent, db.OfferWithdrawn},
	db.OfferSent:     {db.OfferSigned, db.OfferExpired},
}

// CanTransition reports whether from -> to is an allowed offer transition
func CanTransition(from, to string) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// ErrInvalidTransition names the attempted edge that the state machine rejected
type ErrInvalidTransition struct {
	From string
	To   string
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid offer transition: %s -> %s", e.From, e.To)
}

// ErrOfferExists indicates the application already carries an offer
type ErrOfferExists struct {
	ApplicationID int64
}

func (e *ErrOfferExists) Error() string {
	return fmt.Sprintf("offer already exists for application %d", e.ApplicationID)
}

// ErrNotFound indicates the target entity is absent
type ErrNotFound struct {
	Kind string
	ID   int64
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %d", e.Kind, e.ID)
}

// ErrNotOwner indicates the signing caller does not own the offer's application
type ErrNotOwner struct {
	OfferID int64
}

func (e *ErrNotOwner) Error() string {
	return fmt.Sprintf("offer %d does not belong to the caller", e.OfferID)
}

// ErrValidation indicates semantically invalid input
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}
