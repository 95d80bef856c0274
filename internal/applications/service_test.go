package applications

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recruitflow/recruitflow/internal/db"
	"github.com/recruitflow/recruitflow/internal/scoring"
)

// fakeStore is an in-memory Store for service tests
type fakeStore struct {
	requisitions map[int64]*db.Requisition
	candidates   map[int64]*db.Candidate
	users        map[int64]*db.User
	applications map[int64]*db.Application
	results      map[int64]*db.AssessmentResult
	testPacks    map[int64]*db.TestPack
	auditLogs    []*db.AuditLog
	nextID       int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		requisitions: map[int64]*db.Requisition{},
		candidates:   map[int64]*db.Candidate{},
		users:        map[int64]*db.User{},
		applications: map[int64]*db.Application{},
		results:      map[int64]*db.AssessmentResult{},
		testPacks:    map[int64]*db.TestPack{},
		nextID:       100,
	}
}

func (f *fakeStore) GetApplication(_ context.Context, id int64) (*db.Application, error) {
	return f.applications[id], nil
}

func (f *fakeStore) GetRequisition(_ context.Context, id int64) (*db.Requisition, error) {
	return f.requisitions[id], nil
}

func (f *fakeStore) SetApplicationScoring(_ context.Context, id int64, overall float64, breakdown db.JSONMap) error {
	app := f.applications[id]
	app.OverallScore = &overall
	app.ScoringBreakdown = breakdown
	return nil
}

func (f *fakeStore) GetCandidate(_ context.Context, id int64) (*db.Candidate, error) {
	return f.candidates[id], nil
}

func (f *fakeStore) GetCandidateByUserID(_ context.Context, userID int64) (*db.Candidate, error) {
	for _, c := range f.candidates {
		if c.UserID == userID {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetUser(_ context.Context, userID int64) (*db.User, error) {
	return f.users[userID], nil
}

func (f *fakeStore) GetOpenApplication(_ context.Context, candidateID, requisitionID int64) (*db.Application, error) {
	for _, a := range f.applications {
		if a.CandidateID == candidateID && a.RequisitionID == requisitionID && a.Status != db.ApplicationRejected {
			return a, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CreateApplication(_ context.Context, candidateID, requisitionID int64, status string) (*db.Application, error) {
	f.nextID++
	app := &db.Application{ID: f.nextID, CandidateID: candidateID, RequisitionID: requisitionID, Status: status}
	f.applications[app.ID] = app
	return app, nil
}

func (f *fakeStore) UpdateApplicationStatus(_ context.Context, id int64, status string) error {
	f.applications[id].Status = status
	return nil
}

func (f *fakeStore) SaveApplicationDraft(_ context.Context, id int64, screenKey string, payload db.JSONMap) error {
	app := f.applications[id]
	app.IsDraft = true
	app.LastSavedScreen = &screenKey
	app.DraftData = payload
	return nil
}

func (f *fakeStore) SubmitApplicationDraft(_ context.Context, id int64) error {
	app := f.applications[id]
	app.IsDraft = false
	app.Status = db.ApplicationInProgress
	return nil
}

func (f *fakeStore) GetAssessmentResultByApplication(_ context.Context, applicationID int64) (*db.AssessmentResult, error) {
	return f.results[applicationID], nil
}

func (f *fakeStore) CreateAssessmentResult(_ context.Context, result *db.AssessmentResult) (int64, error) {
	f.nextID++
	result.ID = f.nextID
	f.results[result.ApplicationID] = result
	return result.ID, nil
}

func (f *fakeStore) FinalizeAssessment(_ context.Context, id int64, assessmentScore, overallScore float64, breakdown db.JSONMap, violations db.ViolationList, status string) error {
	app := f.applications[id]
	app.AssessmentScore = &assessmentScore
	app.OverallScore = &overallScore
	app.ScoringBreakdown = breakdown
	app.KnockoutViolations = violations
	app.Status = status
	return nil
}

func (f *fakeStore) GetTestPack(_ context.Context, id int64) (*db.TestPack, error) {
	return f.testPacks[id], nil
}

func (f *fakeStore) WriteAuditLog(_ context.Context, entry *db.AuditLog) error {
	f.auditLogs = append(f.auditLogs, entry)
	return nil
}

type fakeDatabase struct {
	store *fakeStore
}

func (f fakeDatabase) WithTx(_ context.Context, fn func(Store) error) error {
	return fn(f.store)
}

func newTestService(store *fakeStore) *Service {
	return &Service{db: fakeDatabase{store: store}}
}

// seedScenario wires a candidate with 3 years of experience against an active
// requisition weighted cv 60 / assessment 40 with a two-question pack.
func seedScenario(store *fakeStore) {
	store.users[50] = &db.User{
		ID: 50, Name: "Dana", Email: "dana@example.com", Role: db.RoleCandidate,
		Profile: db.JSONMap{"years_experience": float64(3)},
	}
	store.candidates[5] = &db.Candidate{ID: 5, UserID: 50, Skills: db.StringArray{"go", "sql"}}
	store.requisitions[1] = &db.Requisition{
		ID: 1, Title: "Backend Engineer", IsActive: true,
		Weightings: db.WeightMap{"cv": 60, "assessment": 40},
		Questions: db.QuestionList{
			{Text: "q1", Options: []string{"a", "b"}, Correct: "A"},
			{Text: "q2", Options: []string{"a", "b"}, Correct: "B"},
		},
	}
}

func TestApply_CreatesApplication(t *testing.T) {
	store := newFakeStore()
	seedScenario(store)
	svc := newTestService(store)

	app, err := svc.Apply(context.Background(), Actor{UserID: 50, Role: db.RoleCandidate}, 1)
	require.NoError(t, err)
	assert.Equal(t, db.ApplicationInProgress, app.Status)
	assert.Equal(t, int64(5), app.CandidateID)
	require.Len(t, store.auditLogs, 1)
	assert.Equal(t, "application.apply", store.auditLogs[0].Action)
}

func TestApply_ClosedRequisition(t *testing.T) {
	store := newFakeStore()
	seedScenario(store)
	store.requisitions[1].IsActive = false
	svc := newTestService(store)

	_, err := svc.Apply(context.Background(), Actor{UserID: 50, Role: db.RoleCandidate}, 1)
	var closed *ErrRequisitionClosed
	assert.ErrorAs(t, err, &closed)
}

func TestApply_IdempotentWhileOpen(t *testing.T) {
	store := newFakeStore()
	seedScenario(store)
	svc := newTestService(store)

	first, err := svc.Apply(context.Background(), Actor{UserID: 50, Role: db.RoleCandidate}, 1)
	require.NoError(t, err)
	second, err := svc.Apply(context.Background(), Actor{UserID: 50, Role: db.RoleCandidate}, 1)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, store.applications, 1)
}

func TestApply_DuplicateAfterSubmission(t *testing.T) {
	store := newFakeStore()
	seedScenario(store)
	store.applications[10] = &db.Application{
		ID: 10, CandidateID: 5, RequisitionID: 1, Status: db.ApplicationAssessmentSubmitted,
	}
	svc := newTestService(store)

	_, err := svc.Apply(context.Background(), Actor{UserID: 50, Role: db.RoleCandidate}, 1)
	var dup *ErrDuplicateApplication
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, int64(10), dup.ApplicationID)
}

func TestSaveDraft_MergesPayloadWhileOpen(t *testing.T) {
	store := newFakeStore()
	seedScenario(store)
	store.applications[10] = &db.Application{ID: 10, CandidateID: 5, RequisitionID: 1, Status: db.ApplicationInProgress}
	svc := newTestService(store)

	app, err := svc.SaveDraft(context.Background(), Actor{UserID: 50, Role: db.RoleCandidate}, 10, "personal", map[string]any{"phone": "123"})
	require.NoError(t, err)
	assert.True(t, app.IsDraft)
	require.NotNil(t, app.LastSavedScreen)
	assert.Equal(t, "personal", *app.LastSavedScreen)
}

func TestSaveDraft_RejectedAfterAssessment(t *testing.T) {
	store := newFakeStore()
	seedScenario(store)
	store.applications[10] = &db.Application{ID: 10, CandidateID: 5, RequisitionID: 1, Status: db.ApplicationAssessmentSubmitted}
	svc := newTestService(store)

	_, err := svc.SaveDraft(context.Background(), Actor{UserID: 50, Role: db.RoleCandidate}, 10, "personal", nil)
	var bad *ErrInvalidStatus
	assert.ErrorAs(t, err, &bad)
}

func TestSaveDraft_NotOwner(t *testing.T) {
	store := newFakeStore()
	seedScenario(store)
	store.applications[10] = &db.Application{ID: 10, CandidateID: 99, RequisitionID: 1, Status: db.ApplicationInProgress}
	svc := newTestService(store)

	_, err := svc.SaveDraft(context.Background(), Actor{UserID: 50, Role: db.RoleCandidate}, 10, "personal", nil)
	var notOwner *ErrNotOwner
	assert.ErrorAs(t, err, &notOwner)
}

func TestSubmitAssessment_ComputesWeightedOverall(t *testing.T) {
	store := newFakeStore()
	seedScenario(store)
	cv := 90.0
	store.applications[10] = &db.Application{
		ID: 10, CandidateID: 5, RequisitionID: 1, Status: db.ApplicationInProgress, CVScore: &cv,
	}
	svc := newTestService(store)

	// one of two questions correct: assessment 50%, overall 90*0.6 + 50*0.4 = 74
	app, err := svc.SubmitAssessment(context.Background(), Actor{UserID: 50, Role: db.RoleCandidate}, 10, map[string]any{
		"0": "A",
		"1": "A",
	})
	require.NoError(t, err)
	assert.Equal(t, db.ApplicationAssessmentSubmitted, app.Status)
	require.NotNil(t, app.AssessmentScore)
	assert.InDelta(t, 50.0, *app.AssessmentScore, 1e-9)
	require.NotNil(t, app.OverallScore)
	assert.InDelta(t, 74.0, *app.OverallScore, 1e-9)
	require.NotNil(t, store.results[10])
	assert.Equal(t, db.RecommendationFail, store.results[10].Recommendation)
}

func TestSubmitAssessment_KnockoutDisqualifies(t *testing.T) {
	store := newFakeStore()
	seedScenario(store)
	store.requisitions[1].KnockoutRules = db.RuleList{
		{Type: scoring.RuleExperience, Operator: ">=", Value: float64(5)},
	}
	store.applications[10] = &db.Application{ID: 10, CandidateID: 5, RequisitionID: 1, Status: db.ApplicationInProgress}
	svc := newTestService(store)

	app, err := svc.SubmitAssessment(context.Background(), Actor{UserID: 50, Role: db.RoleCandidate}, 10, map[string]any{
		"0": "A",
		"1": "B",
	})
	require.NoError(t, err)
	assert.Equal(t, db.ApplicationDisqualified, app.Status)
	require.Len(t, app.KnockoutViolations, 1)
	assert.Equal(t, scoring.RuleExperience, app.KnockoutViolations[0].Type)
	// the graded result is still stored alongside the disqualification
	require.NotNil(t, store.results[10])
}

func TestSubmitAssessment_SecondSubmissionRejected(t *testing.T) {
	store := newFakeStore()
	seedScenario(store)
	store.applications[10] = &db.Application{ID: 10, CandidateID: 5, RequisitionID: 1, Status: db.ApplicationAssessmentSubmitted}
	store.results[10] = &db.AssessmentResult{ID: 1, ApplicationID: 10, PercentageScore: 50}
	svc := newTestService(store)

	_, err := svc.SubmitAssessment(context.Background(), Actor{UserID: 50, Role: db.RoleCandidate}, 10, map[string]any{"0": "A"})
	var already *ErrAssessmentAlreadySubmitted
	require.ErrorAs(t, err, &already)
	assert.InDelta(t, 50.0, store.results[10].PercentageScore, 1e-9)
}

func TestReview_FollowsLifecycleGraph(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		allowed bool
	}{
		{"submitted to reviewed", db.ApplicationAssessmentSubmitted, db.ApplicationReviewed, true},
		{"reviewed to shortlisted", db.ApplicationReviewed, db.ApplicationShortlisted, true},
		{"shortlisted to hired", db.ApplicationShortlisted, db.ApplicationHired, true},
		{"reviewed to rejected", db.ApplicationReviewed, db.ApplicationRejected, true},
		{"submitted to hired", db.ApplicationAssessmentSubmitted, db.ApplicationHired, false},
		{"in_progress to reviewed", db.ApplicationInProgress, db.ApplicationReviewed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			seedScenario(store)
			store.applications[10] = &db.Application{ID: 10, CandidateID: 5, RequisitionID: 1, Status: tt.from}
			svc := newTestService(store)

			app, err := svc.Review(context.Background(), Actor{UserID: 2, Role: db.RoleAdmin}, 10, tt.to)
			if tt.allowed {
				require.NoError(t, err)
				assert.Equal(t, tt.to, app.Status)
			} else {
				var bad *ErrInvalidStatus
				require.ErrorAs(t, err, &bad)
				assert.Equal(t, tt.from, store.applications[10].Status)
			}
		})
	}
}

func TestRecomputeScores_RefreshesOverall(t *testing.T) {
	store := newFakeStore()
	seedScenario(store)
	cv, assessment := 80.0, 50.0
	store.applications[10] = &db.Application{
		ID: 10, CandidateID: 5, RequisitionID: 1, Status: db.ApplicationAssessmentSubmitted,
		CVScore: &cv, AssessmentScore: &assessment,
	}

	err := RecomputeScores(context.Background(), store, 10)
	require.NoError(t, err)
	require.NotNil(t, store.applications[10].OverallScore)
	assert.InDelta(t, 68.0, *store.applications[10].OverallScore, 1e-9)
}
