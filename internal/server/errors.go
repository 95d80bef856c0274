package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/recruitflow/recruitflow/internal/analysis"
	"github.com/recruitflow/recruitflow/internal/applications"
	"github.com/recruitflow/recruitflow/internal/chat"
	"github.com/recruitflow/recruitflow/internal/offers"
)

// ErrEmailAlreadyExists indicates email is already registered
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus maps domain errors onto HTTP status codes
func HTTPStatus(err error) int {
	var (
		emailExists    *ErrEmailAlreadyExists
		badCredentials *ErrInvalidCredentials
		validation     *ErrValidation

		appNotFound    *applications.ErrNotFound
		appNotOwner    *applications.ErrNotOwner
		appValidation  *applications.ErrValidation
		appClosed      *applications.ErrRequisitionClosed
		appDuplicate   *applications.ErrDuplicateApplication
		appAssessed    *applications.ErrAssessmentAlreadySubmitted
		appBadStatus   *applications.ErrInvalidStatus

		offerNotFound   *offers.ErrNotFound
		offerNotOwner   *offers.ErrNotOwner
		offerValidation *offers.ErrValidation
		offerExists     *offers.ErrOfferExists
		offerBadMove    *offers.ErrInvalidTransition

		cvNotFound *analysis.ErrNotFound
		cvNotOwner *analysis.ErrNotOwner
		cvBadFile  *analysis.ErrUnsupportedFile

		chatNotFound   *chat.ErrNotFound
		chatNotMember  *chat.ErrNotParticipant
		chatNotSender  *chat.ErrNotSender
		chatValidation *chat.ErrValidation
	)

	switch {
	case errors.As(err, &badCredentials):
		return http.StatusUnauthorized

	case errors.As(err, &appNotOwner),
		errors.As(err, &offerNotOwner),
		errors.As(err, &cvNotOwner),
		errors.As(err, &chatNotMember),
		errors.As(err, &chatNotSender):
		return http.StatusForbidden

	case errors.As(err, &appNotFound),
		errors.As(err, &offerNotFound),
		errors.As(err, &cvNotFound),
		errors.As(err, &chatNotFound):
		return http.StatusNotFound

	case errors.As(err, &emailExists),
		errors.As(err, &appDuplicate),
		errors.As(err, &appAssessed),
		errors.As(err, &offerExists):
		return http.StatusConflict

	case errors.As(err, &validation),
		errors.As(err, &appValidation),
		errors.As(err, &offerValidation),
		errors.As(err, &chatValidation),
		errors.As(err, &appClosed),
		errors.As(err, &appBadStatus),
		errors.As(err, &offerBadMove),
		errors.As(err, &cvBadFile):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}
