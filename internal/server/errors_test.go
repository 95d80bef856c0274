package server

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/recruitflow/recruitflow/internal/analysis"
	"github.com/recruitflow/recruitflow/internal/applications"
	"github.com/recruitflow/recruitflow/internal/chat"
	"github.com/recruitflow/recruitflow/internal/offers"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid credentials", &ErrInvalidCredentials{}, http.StatusUnauthorized},

		{"application not owner", &applications.ErrNotOwner{ApplicationID: 1}, http.StatusForbidden},
		{"offer not owner", &offers.ErrNotOwner{OfferID: 1}, http.StatusForbidden},
		{"analysis not owner", &analysis.ErrNotOwner{ApplicationID: 1}, http.StatusForbidden},
		{"chat not participant", &chat.ErrNotParticipant{ThreadID: 1}, http.StatusForbidden},
		{"chat not sender", &chat.ErrNotSender{MessageID: 1}, http.StatusForbidden},

		{"application not found", &applications.ErrNotFound{Kind: "application", ID: 1}, http.StatusNotFound},
		{"offer not found", &offers.ErrNotFound{Kind: "offer", ID: 1}, http.StatusNotFound},
		{"analysis not found", &analysis.ErrNotFound{Kind: "cv_analysis", ID: 1}, http.StatusNotFound},
		{"chat not found", &chat.ErrNotFound{Kind: "thread", ID: 1}, http.StatusNotFound},

		{"email exists", &ErrEmailAlreadyExists{Email: "a@b.c"}, http.StatusConflict},
		{"duplicate application", &applications.ErrDuplicateApplication{ApplicationID: 1, Status: "applied"}, http.StatusConflict},
		{"assessment already submitted", &applications.ErrAssessmentAlreadySubmitted{ApplicationID: 1}, http.StatusConflict},
		{"offer exists", &offers.ErrOfferExists{ApplicationID: 1}, http.StatusConflict},

		{"validation", &ErrValidation{Field: "email", Message: "required"}, http.StatusBadRequest},
		{"application validation", &applications.ErrValidation{Field: "screen", Message: "required"}, http.StatusBadRequest},
		{"offer validation", &offers.ErrValidation{Field: "salary", Message: "required"}, http.StatusBadRequest},
		{"chat validation", &chat.ErrValidation{Field: "content", Message: "empty"}, http.StatusBadRequest},
		{"requisition closed", &applications.ErrRequisitionClosed{RequisitionID: 1}, http.StatusBadRequest},
		{"invalid application status", &applications.ErrInvalidStatus{From: "hired", To: "applied"}, http.StatusBadRequest},
		{"invalid offer transition", &offers.ErrInvalidTransition{From: "draft", To: "signed"}, http.StatusBadRequest},
		{"unsupported file", &analysis.ErrUnsupportedFile{Filename: "resume.exe"}, http.StatusBadRequest},

		{"unknown error", fmt.Errorf("database on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestHTTPStatus_WrappedError(t *testing.T) {
	wrapped := fmt.Errorf("failed to create offer: %w", &offers.ErrOfferExists{ApplicationID: 5})
	assert.Equal(t, http.StatusConflict, HTTPStatus(wrapped))
}
