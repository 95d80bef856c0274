package analysis

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/recruitflow/recruitflow/internal/applications"
	"github.com/recruitflow/recruitflow/internal/audit"
	"github.com/recruitflow/recruitflow/internal/db"
	"github.com/recruitflow/recruitflow/internal/scoring"
	"github.com/recruitflow/recruitflow/internal/storage"
)

const (
	maxAttempts    = 3
	retryDelay     = 5 * time.Second
	processTimeout = 2 * time.Minute
	passThreshold  = 60.0
)

// Store is the persistence surface the pipeline needs. *db.Store implements
// it; tests substitute a fake.
type Store interface {
	GetApplication(ctx context.Context, id int64) (*db.Application, error)
	GetCandidate(ctx context.Context, id int64) (*db.Candidate, error)
	GetCandidateByUserID(ctx context.Context, userID int64) (*db.Candidate, error)
	GetRequisition(ctx context.Context, id int64) (*db.Requisition, error)
	SetApplicationResumeURL(ctx context.Context, id int64, url string) error
	SetCandidateCV(ctx context.Context, candidateID int64, cvURL, cvText string) error
	SetApplicationCVResult(ctx context.Context, id int64, cvScore float64, parserResult db.JSONMap, recommendation string) error
	SetApplicationScoring(ctx context.Context, id int64, overallScore float64, breakdown db.JSONMap) error
	CreateCVAnalysis(ctx context.Context, analysis *db.CVAnalysis) (int64, error)
	GetCVAnalysis(ctx context.Context, id int64) (*db.CVAnalysis, error)
	StartCVAnalysis(ctx context.Context, id int64) (bool, error)
	FinishCVAnalysis(ctx context.Context, id int64, status string, result db.JSONMap) error
	ResetCVAnalysisForRetry(ctx context.Context, id int64, result db.JSONMap) error
	ListUsersByRole(ctx context.Context, role string) ([]db.User, error)
	CreateNotification(ctx context.Context, userID int64, message, tag string, linkURL *string) (int64, error)
	WriteAuditLog(ctx context.Context, entry *db.AuditLog) error
}

// Database runs pipeline operations, transactionally or standalone
type Database interface {
	Store() Store
	WithTx(ctx context.Context, fn func(Store) error) error
}

type pgDatabase struct {
	db *db.DB
}

func (p pgDatabase) Store() Store {
	return p.db.Store()
}

func (p pgDatabase) WithTx(ctx context.Context, fn func(Store) error) error {
	return p.db.WithTx(ctx, func(s *db.Store) error { return fn(s) })
}

// Task is one queued analysis job
type Task struct {
	AnalysisID    int64
	ApplicationID int64
}

// ErrNotFound indicates the target entity is absent
type ErrNotFound struct {
	Kind string
	ID   int64
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %d", e.Kind, e.ID)
}

// ErrNotOwner indicates the caller's candidate does not own the application
type ErrNotOwner struct {
	ApplicationID int64
}

func (e *ErrNotOwner) Error() string {
	return fmt.Sprintf("application %d does not belong to the caller", e.ApplicationID)
}

// Actor identifies the authenticated caller
type Actor struct {
	UserID    int64
	IPAddress string
	UserAgent string
}

// Pipeline runs resume intake and the asynchronous analysis workers
type Pipeline struct {
	db        Database
	extractor TextExtractor
	analyzer  Analyzer
	objects   storage.ObjectStore
	baseline  float64

	queue chan Task
	quit  chan struct{}
	wg    sync.WaitGroup
}

// NewPipeline creates the analysis pipeline. analyzer may be nil, in which
// case every job uses the deterministic keyword fallback.
func NewPipeline(database *db.DB, extractor TextExtractor, analyzer Analyzer, objects storage.ObjectStore, baseline float64) *Pipeline {
	return newPipeline(pgDatabase{db: database}, extractor, analyzer, objects, baseline)
}

func newPipeline(database Database, extractor TextExtractor, analyzer Analyzer, objects storage.ObjectStore, baseline float64) *Pipeline {
	return &Pipeline{
		db:        database,
		extractor: extractor,
		analyzer:  analyzer,
		objects:   objects,
		baseline:  baseline,
		queue:     make(chan Task, 256),
		quit:      make(chan struct{}),
	}
}

// Start launches the worker goroutines
func (p *Pipeline) Start(workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.run(i)
	}
	log.Printf("Analysis pipeline started with %d workers", workers)
}

// Stop signals the workers and waits for in-flight jobs to finish
func (p *Pipeline) Stop() {
	close(p.quit)
	p.wg.Wait()
	log.Println("Analysis pipeline stopped")
}

func (p *Pipeline) run(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.quit:
			return
		case task := <-p.queue:
			p.process(task)
		}
	}
}

// Enqueue submits a task to the worker pool. A full queue drops the task; the
// analysis row stays pending and can be re-enqueued later.
func (p *Pipeline) Enqueue(task Task) {
	select {
	case p.queue <- task:
	default:
		log.Printf("Analysis queue full, leaving analysis %d pending", task.AnalysisID)
	}
}

// Intake accepts a resume upload for an application: validates the file,
// extracts its text, stores the original document, creates the pending
// analysis record, and enqueues the job. The HTTP layer answers 202 with the
// returned record while the workers do the rest.
func (p *Pipeline) Intake(ctx context.Context, actor Actor, applicationID int64, filename string, data []byte) (*db.CVAnalysis, error) {
	if !AllowedExtension(filename) {
		return nil, &ErrUnsupportedFile{Filename: filename}
	}

	extraction, err := p.extractor.Extract(ctx, filename, data)
	if err != nil {
		// keep the metadata; the keyword fallback still runs over stored cv_text
		log.Printf("Extraction failed for application %d: %v", applicationID, err)
	}

	publicID := storage.SanitizePublicID(fmt.Sprintf("resume_%d_%s", applicationID, filename))
	url, err := p.objects.Upload(ctx, publicID, data)
	if err != nil {
		return nil, fmt.Errorf("failed to store resume: %w", err)
	}

	var analysis *db.CVAnalysis
	err = p.db.WithTx(ctx, func(store Store) error {
		app, err := store.GetApplication(ctx, applicationID)
		if err != nil {
			return err
		}
		if app == nil {
			return &ErrNotFound{Kind: "application", ID: applicationID}
		}
		candidate, err := store.GetCandidateByUserID(ctx, actor.UserID)
		if err != nil {
			return err
		}
		if candidate == nil || candidate.ID != app.CandidateID {
			return &ErrNotOwner{ApplicationID: applicationID}
		}

		if err := store.SetApplicationResumeURL(ctx, applicationID, url); err != nil {
			return err
		}
		if err := store.SetCandidateCV(ctx, candidate.ID, url, extraction.Text); err != nil {
			return err
		}

		id, err := store.CreateCVAnalysis(ctx, &db.CVAnalysis{
			ApplicationID:        applicationID,
			ExtractionMethod:     extraction.Method,
			ExtractionConfidence: extraction.Confidence,
			PageCount:            extraction.PageCount,
			ScannedContent:       extraction.ScannedContent,
		})
		if err != nil {
			return err
		}

		audit.Record(ctx, store, audit.Entry{
			ActorID:    actor.UserID,
			ActorLabel: audit.ActorCandidate,
			Action:     "cv.upload",
			Details:    fmt.Sprintf("resume uploaded for application %d", applicationID),
			Extra:      map[string]any{"application_id": applicationID, "analysis_id": id, "extraction_method": extraction.Method},
			IPAddress:  actor.IPAddress,
			UserAgent:  actor.UserAgent,
		})

		analysis, err = store.GetCVAnalysis(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	p.Enqueue(Task{AnalysisID: analysis.ID, ApplicationID: applicationID})
	return analysis, nil
}

// Get retrieves an analysis record for status polling
func (p *Pipeline) Get(ctx context.Context, id int64) (*db.CVAnalysis, error) {
	analysis, err := p.db.Store().GetCVAnalysis(ctx, id)
	if err != nil {
		return nil, err
	}
	if analysis == nil {
		return nil, &ErrNotFound{Kind: "cv_analysis", ID: id}
	}
	return analysis, nil
}

// process runs one analysis job end to end
func (p *Pipeline) process(task Task) {
	ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
	defer cancel()

	store := p.db.Store()
	started, err := store.StartCVAnalysis(ctx, task.AnalysisID)
	if err != nil {
		log.Printf("Failed to claim analysis %d: %v", task.AnalysisID, err)
		return
	}
	if !started {
		// duplicate enqueue or already terminal
		return
	}

	if err := p.analyze(ctx, task); err != nil {
		p.recordFailure(ctx, task, err)
	}
}

func (p *Pipeline) analyze(ctx context.Context, task Task) error {
	store := p.db.Store()

	app, err := store.GetApplication(ctx, task.ApplicationID)
	if err != nil {
		return err
	}
	if app == nil {
		return &ErrNotFound{Kind: "application", ID: task.ApplicationID}
	}

	// candidate and requisition loads are independent
	var candidate *db.Candidate
	var req *db.Requisition
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		candidate, err = store.GetCandidate(gCtx, app.CandidateID)
		if err != nil {
			return err
		}
		if candidate == nil {
			return &ErrNotFound{Kind: "candidate", ID: app.CandidateID}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		req, err = store.GetRequisition(gCtx, app.RequisitionID)
		if err != nil {
			return err
		}
		if req == nil {
			return &ErrNotFound{Kind: "requisition", ID: app.RequisitionID}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	// a candidate with no extracted text still gets the keyword fallback and
	// the baseline floor over an empty resume
	cvText := ""
	if candidate.CVText != nil {
		cvText = *candidate.CVText
	}
	resumeText, jobSpec := BudgetInputs(cvText, jobSpecText(req))
	result := p.match(ctx, resumeText, jobSpec)

	// the floor keeps a cold-start candidate from being buried by a zero score
	final := scoring.Clamp(result.MatchScore)
	if final < p.baseline {
		final = p.baseline
	}
	recommendation := db.RecommendationFail
	if final >= passThreshold {
		recommendation = db.RecommendationPass
	}

	resultMap := db.JSONMap{
		"match_score":    final,
		"raw_score":      result.MatchScore,
		"missing_skills": result.MissingSkills,
		"strengths":      result.Strengths,
		"summary":        result.Summary,
		"method":         result.Method,
	}

	err = p.db.WithTx(ctx, func(store Store) error {
		if err := store.SetApplicationCVResult(ctx, task.ApplicationID, final, resultMap, recommendation); err != nil {
			return err
		}
		if err := applications.RecomputeScores(ctx, store, task.ApplicationID); err != nil {
			return err
		}
		if err := store.FinishCVAnalysis(ctx, task.AnalysisID, db.AnalysisCompleted, resultMap); err != nil {
			return err
		}
		return p.notifyAdmins(ctx, store, task.ApplicationID, final)
	})
	if err != nil {
		return err
	}

	log.Printf("Analysis %d completed for application %d: score %.0f (%s)",
		task.AnalysisID, task.ApplicationID, final, result.Method)
	return nil
}

// match runs the AI analyzer and falls back to keyword comparison on any failure
func (p *Pipeline) match(ctx context.Context, resumeText, jobSpec string) Result {
	if p.analyzer != nil {
		result, err := p.analyzer.Analyze(ctx, resumeText, jobSpec)
		if err == nil {
			return result
		}
		log.Printf("AI analysis failed, using keyword fallback: %v", err)
	}
	return KeywordMatch(resumeText, jobSpec)
}

// recordFailure marks the attempt failed and re-enqueues while attempts remain
func (p *Pipeline) recordFailure(ctx context.Context, task Task, cause error) {
	log.Printf("Analysis %d failed: %v", task.AnalysisID, cause)

	store := p.db.Store()
	if err := store.ResetCVAnalysisForRetry(ctx, task.AnalysisID, db.JSONMap{"error": cause.Error()}); err != nil {
		log.Printf("Failed to record analysis failure %d: %v", task.AnalysisID, err)
		return
	}

	analysis, err := store.GetCVAnalysis(ctx, task.AnalysisID)
	if err != nil || analysis == nil {
		return
	}
	if analysis.Attempts >= maxAttempts {
		log.Printf("Analysis %d abandoned after %d attempts", task.AnalysisID, analysis.Attempts)
		return
	}

	time.AfterFunc(retryDelay, func() {
		select {
		case <-p.quit:
		default:
			p.Enqueue(task)
		}
	})
}

// notifyAdmins tells every admin that a CV analysis finished
func (p *Pipeline) notifyAdmins(ctx context.Context, store Store, applicationID int64, score float64) error {
	admins, err := store.ListUsersByRole(ctx, db.RoleAdmin)
	if err != nil {
		return err
	}
	message := fmt.Sprintf("CV analysis completed for application %d (score %.0f)", applicationID, score)
	for _, admin := range admins {
		if _, err := store.CreateNotification(ctx, admin.ID, message, "cv_analysis", nil); err != nil {
			return err
		}
	}
	return nil
}

// jobSpecText flattens a requisition into the text the matcher compares against
func jobSpecText(req *db.Requisition) string {
	var b strings.Builder
	b.WriteString(req.Title)
	b.WriteString("\n")
	b.WriteString(req.Description)
	if req.Summary != "" {
		b.WriteString("\n")
		b.WriteString(req.Summary)
	}
	if len(req.Skills) > 0 {
		b.WriteString("\nSkills: ")
		b.WriteString(strings.Join(req.Skills, ", "))
	}
	if len(req.Qualifications) > 0 {
		b.WriteString("\nQualifications: ")
		b.WriteString(strings.Join(req.Qualifications, ", "))
	}
	if len(req.Responsibilities) > 0 {
		b.WriteString("\nResponsibilities: ")
		b.WriteString(strings.Join(req.Responsibilities, ", "))
	}
	if req.MinExperience > 0 {
		fmt.Fprintf(&b, "\nMinimum experience: %d years", req.MinExperience)
	}
	return b.String()
}
