package applications

import "fmt"

// ErrRequisitionClosed indicates the target requisition is inactive or soft-deleted
type ErrRequisitionClosed struct {
	RequisitionID int64
}

func (e *ErrRequisitionClosed) Error() string {
	return fmt.Sprintf("requisition not open for applications: %d", e.RequisitionID)
}

// ErrNotFound indicates the target entity is absent
type ErrNotFound struct {
	Kind string
	ID   int64
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %d", e.Kind, e.ID)
}

// ErrDuplicateApplication indicates a finished application already exists for the pair
type ErrDuplicateApplication struct {
	ApplicationID int64
	Status        string
}

func (e *ErrDuplicateApplication) Error() string {
	return fmt.Sprintf("application %d already exists in status %s", e.ApplicationID, e.Status)
}

// ErrAssessmentAlreadySubmitted guards against double scoring
type ErrAssessmentAlreadySubmitted struct {
	ApplicationID int64
}

func (e *ErrAssessmentAlreadySubmitted) Error() string {
	return fmt.Sprintf("assessment already submitted for application %d", e.ApplicationID)
}

// ErrNotOwner indicates the caller does not own the application
type ErrNotOwner struct {
	ApplicationID int64
}

func (e *ErrNotOwner) Error() string {
	return fmt.Sprintf("application %d does not belong to the caller", e.ApplicationID)
}

// ErrInvalidStatus indicates a review move outside the lifecycle graph
type ErrInvalidStatus struct {
	From string
	To   string
}

func (e *ErrInvalidStatus) Error() string {
	return fmt.Sprintf("invalid application transition: %s -> %s", e.From, e.To)
}

// ErrValidation indicates semantically invalid input
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}
