package offers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/recruitflow/recruitflow/internal/db"
)

func TestCanTransition_AllowedEdges(t *testing.T) {
	allowed := [][2]string{
		{db.OfferDraft, db.OfferReviewed},
		{db.OfferReviewed, db.OfferApproved},
		{db.OfferReviewed, db.OfferRejected},
		{db.OfferApproved, db.OfferSent},
		{db.OfferApproved, db.OfferWithdrawn},
		{db.OfferSent, db.OfferSigned},
		{db.OfferSent, db.OfferExpired},
	}

	for _, edge := range allowed {
		assert.True(t, CanTransition(edge[0], edge[1]), "%s -> %s", edge[0], edge[1])
	}
}

func TestCanTransition_RejectedEdges(t *testing.T) {
	rejected := [][2]string{
		{db.OfferDraft, db.OfferApproved},
		{db.OfferDraft, db.OfferSent},
		{db.OfferDraft, db.OfferSigned},
		{db.OfferReviewed, db.OfferSent},
		{db.OfferReviewed, db.OfferSigned},
		{db.OfferApproved, db.OfferSigned},
		{db.OfferApproved, db.OfferRejected},
		{db.OfferSent, db.OfferWithdrawn},
		{db.OfferSent, db.OfferDraft},
	}

	for _, edge := range rejected {
		assert.False(t, CanTransition(edge[0], edge[1]), "%s -> %s", edge[0], edge[1])
	}
}

func TestCanTransition_TerminalStates(t *testing.T) {
	terminal := []string{db.OfferSigned, db.OfferRejected, db.OfferExpired, db.OfferWithdrawn}
	targets := []string{
		db.OfferDraft, db.OfferReviewed, db.OfferApproved, db.OfferSent,
		db.OfferSigned, db.OfferRejected, db.OfferExpired, db.OfferWithdrawn,
	}

	for _, from := range terminal {
		for _, to := range targets {
			assert.False(t, CanTransition(from, to), "%s must be terminal, allowed -> %s", from, to)
		}
	}
}

func TestErrInvalidTransition_NamesEdge(t *testing.T) {
	err := &ErrInvalidTransition{From: db.OfferDraft, To: db.OfferSigned}
	assert.Equal(t, "invalid offer transition: draft -> signed", err.Error())
}

func TestErrOfferExists(t *testing.T) {
	err := &ErrOfferExists{ApplicationID: 42}
	assert.Equal(t, "offer already exists for application 42", err.Error())
}
