// Package applications implements the application lifecycle: apply, draft
// persistence, assessment submission, and review moves. Every operation runs
// inside a single transaction; on failure the application keeps its prior
// state.
package applications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/recruitflow/recruitflow/internal/audit"
	"github.com/recruitflow/recruitflow/internal/db"
	"github.com/recruitflow/recruitflow/internal/scoring"
)

// ScoreStore is the minimal surface composite rescoring needs. It is split
// out so asynchronous callers (CV write-back, interview feedback) can pass
// whatever store they hold.
type ScoreStore interface {
	GetApplication(ctx context.Context, id int64) (*db.Application, error)
	GetRequisition(ctx context.Context, id int64) (*db.Requisition, error)
	SetApplicationScoring(ctx context.Context, id int64, overallScore float64, breakdown db.JSONMap) error
}

// Store is the persistence surface the lifecycle service needs. *db.Store
// implements it; tests substitute a fake.
type Store interface {
	ScoreStore
	GetCandidate(ctx context.Context, id int64) (*db.Candidate, error)
	GetCandidateByUserID(ctx context.Context, userID int64) (*db.Candidate, error)
	GetUser(ctx context.Context, userID int64) (*db.User, error)
	GetOpenApplication(ctx context.Context, candidateID, requisitionID int64) (*db.Application, error)
	CreateApplication(ctx context.Context, candidateID, requisitionID int64, status string) (*db.Application, error)
	UpdateApplicationStatus(ctx context.Context, id int64, status string) error
	SaveApplicationDraft(ctx context.Context, id int64, screenKey string, payload db.JSONMap) error
	SubmitApplicationDraft(ctx context.Context, id int64) error
	GetAssessmentResultByApplication(ctx context.Context, applicationID int64) (*db.AssessmentResult, error)
	CreateAssessmentResult(ctx context.Context, result *db.AssessmentResult) (int64, error)
	FinalizeAssessment(ctx context.Context, id int64, assessmentScore, overallScore float64, breakdown db.JSONMap, violations db.ViolationList, status string) error
	GetTestPack(ctx context.Context, id int64) (*db.TestPack, error)
	WriteAuditLog(ctx context.Context, entry *db.AuditLog) error
}

// Database runs lifecycle operations inside a single transaction
type Database interface {
	WithTx(ctx context.Context, fn func(Store) error) error
}

type pgDatabase struct {
	db *db.DB
}

func (p pgDatabase) WithTx(ctx context.Context, fn func(Store) error) error {
	return p.db.WithTx(ctx, func(s *db.Store) error { return fn(s) })
}

// Service coordinates application lifecycle operations
type Service struct {
	db Database
}

// NewService creates an application lifecycle service
func NewService(database *db.DB) *Service {
	return &Service{db: pgDatabase{db: database}}
}

// Actor identifies the authenticated caller for auditing
type Actor struct {
	UserID    int64
	Role      string
	IPAddress string
	UserAgent string
}

func (a Actor) auditLabel() string {
	if a.Role == db.RoleCandidate {
		return audit.ActorCandidate
	}
	return audit.ActorAdmin
}

// Apply creates an application for the caller against a requisition, or
// returns the existing one when it is still open (idempotent re-apply).
func (s *Service) Apply(ctx context.Context, actor Actor, requisitionID int64) (*db.Application, error) {
	var app *db.Application
	err := s.db.WithTx(ctx, func(store Store) error {
		req, err := store.GetRequisition(ctx, requisitionID)
		if err != nil {
			return err
		}
		if req == nil || !req.IsActive || req.DeletedAt != nil {
			return &ErrRequisitionClosed{RequisitionID: requisitionID}
		}

		candidate, err := store.GetCandidateByUserID(ctx, actor.UserID)
		if err != nil {
			return err
		}
		if candidate == nil {
			return &ErrNotFound{Kind: "candidate", ID: actor.UserID}
		}

		existing, err := store.GetOpenApplication(ctx, candidate.ID, requisitionID)
		if err != nil {
			return err
		}
		if existing != nil {
			switch existing.Status {
			case db.ApplicationInProgress, db.ApplicationDraft, db.ApplicationApplied:
				app = existing
				return nil
			default:
				return &ErrDuplicateApplication{ApplicationID: existing.ID, Status: existing.Status}
			}
		}

		app, err = store.CreateApplication(ctx, candidate.ID, requisitionID, db.ApplicationInProgress)
		if err != nil {
			return err
		}

		audit.Record(ctx, store, audit.Entry{
			ActorID:    actor.UserID,
			ActorLabel: actor.auditLabel(),
			Action:     "application.apply",
			Details:    fmt.Sprintf("applied to requisition %d", requisitionID),
			Extra:      map[string]any{"application_id": app.ID, "requisition_id": requisitionID},
			IPAddress:  actor.IPAddress,
			UserAgent:  actor.UserAgent,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// SaveDraft merges a per-screen payload into the application's draft data
func (s *Service) SaveDraft(ctx context.Context, actor Actor, applicationID int64, screenKey string, payload map[string]any) (*db.Application, error) {
	if screenKey == "" {
		return nil, &ErrValidation{Field: "screen_key", Message: "must not be empty"}
	}

	var app *db.Application
	err := s.db.WithTx(ctx, func(store Store) error {
		current, err := s.ownedApplication(ctx, store, actor, applicationID)
		if err != nil {
			return err
		}
		switch current.Status {
		case db.ApplicationDraft, db.ApplicationInProgress, db.ApplicationApplied:
		default:
			return &ErrInvalidStatus{From: current.Status, To: db.ApplicationDraft}
		}

		if err := store.SaveApplicationDraft(ctx, applicationID, screenKey, db.JSONMap(payload)); err != nil {
			return err
		}
		app, err = store.GetApplication(ctx, applicationID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// SubmitDraft clears the draft flag and advances the application to
// in_progress. Finalization only happens on assessment submission.
func (s *Service) SubmitDraft(ctx context.Context, actor Actor, applicationID int64) (*db.Application, error) {
	var app *db.Application
	err := s.db.WithTx(ctx, func(store Store) error {
		if _, err := s.ownedApplication(ctx, store, actor, applicationID); err != nil {
			return err
		}
		if err := store.SubmitApplicationDraft(ctx, applicationID); err != nil {
			return err
		}
		var err error
		app, err = store.GetApplication(ctx, applicationID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// SubmitAssessment grades the submitted answers, writes the immutable
// assessment result, recomputes composite scoring, evaluates knockout rules,
// and finalizes the application status. A second submission fails without
// touching the stored result.
func (s *Service) SubmitAssessment(ctx context.Context, actor Actor, applicationID int64, answers map[string]any) (*db.Application, error) {
	var app *db.Application
	err := s.db.WithTx(ctx, func(store Store) error {
		current, err := s.ownedApplication(ctx, store, actor, applicationID)
		if err != nil {
			return err
		}

		existing, err := store.GetAssessmentResultByApplication(ctx, applicationID)
		if err != nil {
			return err
		}
		if existing != nil {
			return &ErrAssessmentAlreadySubmitted{ApplicationID: applicationID}
		}

		req, err := store.GetRequisition(ctx, current.RequisitionID)
		if err != nil {
			return err
		}
		if req == nil {
			return &ErrNotFound{Kind: "requisition", ID: current.RequisitionID}
		}

		questions, err := s.questionsFor(ctx, store, req)
		if err != nil {
			return err
		}
		if len(questions) == 0 {
			return &ErrValidation{Field: "answers", Message: "requisition has no assessment pack"}
		}

		grade := Grade(questions, answers)
		result := &db.AssessmentResult{
			ApplicationID:   applicationID,
			Answers:         db.JSONMap(answers),
			QuestionScores:  db.JSONMap(grade.QuestionScores),
			TotalScore:      grade.TotalScore,
			MaxScore:        grade.MaxScore,
			PercentageScore: grade.Percentage,
			Recommendation:  grade.Recommendation,
		}
		if _, err := store.CreateAssessmentResult(ctx, result); err != nil {
			if db.IsUniqueViolation(err) {
				return &ErrAssessmentAlreadySubmitted{ApplicationID: applicationID}
			}
			return err
		}

		facts, err := candidateFacts(ctx, store, current.CandidateID)
		if err != nil {
			return err
		}
		violations := scoring.EvaluateKnockout(req.KnockoutRules, facts)

		sub := subScores(current)
		sub.Assessment = grade.Percentage
		breakdown := scoring.Composite(sub, scoring.Weightings(req.Weightings))

		status := db.ApplicationAssessmentSubmitted
		if len(violations) > 0 {
			status = db.ApplicationDisqualified
		}

		if err := store.FinalizeAssessment(ctx, applicationID, grade.Percentage,
			breakdown.Overall, breakdownMap(breakdown), db.ViolationList(violations), status); err != nil {
			return err
		}

		audit.Record(ctx, store, audit.Entry{
			ActorID:    actor.UserID,
			ActorLabel: actor.auditLabel(),
			Action:     "application.submit_assessment",
			Details:    fmt.Sprintf("assessment scored %.1f%%, status %s", grade.Percentage, status),
			Extra: map[string]any{
				"application_id": applicationID,
				"percentage":     grade.Percentage,
				"violations":     len(violations),
			},
			IPAddress: actor.IPAddress,
			UserAgent: actor.UserAgent,
		})

		app, err = store.GetApplication(ctx, applicationID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// reviewMoves is the admin-side lifecycle graph after assessment submission
var reviewMoves = map[string][]string{
	db.ApplicationAssessmentSubmitted: {db.ApplicationReviewed, db.ApplicationRejected},
	db.ApplicationReviewed:            {db.ApplicationShortlisted, db.ApplicationRejected},
	db.ApplicationShortlisted:         {db.ApplicationHired, db.ApplicationRejected},
}

// Review moves an application through the admin review stages
func (s *Service) Review(ctx context.Context, actor Actor, applicationID int64, target string) (*db.Application, error) {
	var app *db.Application
	err := s.db.WithTx(ctx, func(store Store) error {
		current, err := store.GetApplication(ctx, applicationID)
		if err != nil {
			return err
		}
		if current == nil {
			return &ErrNotFound{Kind: "application", ID: applicationID}
		}

		allowed := false
		for _, t := range reviewMoves[current.Status] {
			if t == target {
				allowed = true
				break
			}
		}
		if !allowed {
			return &ErrInvalidStatus{From: current.Status, To: target}
		}

		if err := store.UpdateApplicationStatus(ctx, applicationID, target); err != nil {
			return err
		}

		audit.Record(ctx, store, audit.Entry{
			ActorID:    actor.UserID,
			ActorLabel: actor.auditLabel(),
			Action:     "application.review",
			Details:    fmt.Sprintf("application %d: %s -> %s", applicationID, current.Status, target),
			Extra:      map[string]any{"application_id": applicationID, "from": current.Status, "to": target},
			IPAddress:  actor.IPAddress,
			UserAgent:  actor.UserAgent,
		})

		app, err = store.GetApplication(ctx, applicationID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// RecomputeScores refreshes the composite score of an application from its
// current sub-scores. Called whenever a sub-score changes asynchronously
// (CV analysis write-back, interview feedback).
func RecomputeScores(ctx context.Context, store ScoreStore, applicationID int64) error {
	app, err := store.GetApplication(ctx, applicationID)
	if err != nil {
		return err
	}
	if app == nil {
		return &ErrNotFound{Kind: "application", ID: applicationID}
	}
	req, err := store.GetRequisition(ctx, app.RequisitionID)
	if err != nil {
		return err
	}
	if req == nil {
		return &ErrNotFound{Kind: "requisition", ID: app.RequisitionID}
	}

	breakdown := scoring.Composite(subScores(app), scoring.Weightings(req.Weightings))
	return store.SetApplicationScoring(ctx, applicationID, breakdown.Overall, breakdownMap(breakdown))
}

// ownedApplication loads an application and verifies the actor's candidate owns it
func (s *Service) ownedApplication(ctx context.Context, store Store, actor Actor, applicationID int64) (*db.Application, error) {
	app, err := store.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, &ErrNotFound{Kind: "application", ID: applicationID}
	}

	candidate, err := store.GetCandidateByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if candidate == nil || candidate.ID != app.CandidateID {
		return nil, &ErrNotOwner{ApplicationID: applicationID}
	}
	return app, nil
}

// questionsFor resolves the assessment pack: embedded questions win over a
// shared test pack reference.
func (s *Service) questionsFor(ctx context.Context, store Store, req *db.Requisition) ([]db.Question, error) {
	if len(req.Questions) > 0 {
		return req.Questions, nil
	}
	if req.TestPackID != nil {
		pack, err := store.GetTestPack(ctx, *req.TestPackID)
		if err != nil {
			return nil, err
		}
		if pack != nil {
			return pack.Questions, nil
		}
	}
	return nil, nil
}

// candidateFacts assembles the knockout evaluation input from the candidate
// record and the owning user's profile.
func candidateFacts(ctx context.Context, store Store, candidateID int64) (scoring.CandidateFacts, error) {
	candidate, err := store.GetCandidate(ctx, candidateID)
	if err != nil {
		return scoring.CandidateFacts{}, err
	}
	if candidate == nil {
		return scoring.CandidateFacts{}, &ErrNotFound{Kind: "candidate", ID: candidateID}
	}
	user, err := store.GetUser(ctx, candidate.UserID)
	if err != nil {
		return scoring.CandidateFacts{}, err
	}
	profile := map[string]any{}
	if user != nil {
		profile = user.Profile
	}
	return scoring.CandidateFacts{
		Certifications: candidate.Certifications,
		Skills:         candidate.Skills,
		Education:      candidate.Education,
		Location:       candidate.Location,
		Profile:        profile,
	}, nil
}

// subScores reads the four sub-scores off the application, treating missing
// values as 0. References scoring is not collected yet and stays 0.
func subScores(app *db.Application) scoring.SubScores {
	var sub scoring.SubScores
	if app.CVScore != nil {
		sub.CV = *app.CVScore
	}
	if app.AssessmentScore != nil {
		sub.Assessment = *app.AssessmentScore
	}
	if app.InterviewFeedbackScore != nil {
		sub.Interview = *app.InterviewFeedbackScore
	}
	return sub
}

// breakdownMap converts a scoring breakdown into the JSONB column shape
func breakdownMap(b scoring.Breakdown) db.JSONMap {
	raw, err := json.Marshal(b)
	if err != nil {
		return db.JSONMap{}
	}
	var m db.JSONMap
	if err := json.Unmarshal(raw, &m); err != nil {
		return db.JSONMap{}
	}
	return m
}
