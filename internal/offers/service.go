package offers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/recruitflow/recruitflow/internal/audit"
	"github.com/recruitflow/recruitflow/internal/db"
	"github.com/recruitflow/recruitflow/internal/mail"
	"github.com/recruitflow/recruitflow/internal/storage"
)

// DocumentRenderer produces the offer document artifact. PDF rendering is an
// external collaborator behind this interface.
type DocumentRenderer interface {
	Render(ctx context.Context, offer *db.Offer, candidateName string) ([]byte, error)
}

// Actor identifies the authenticated caller
type Actor struct {
	UserID    int64
	Role      string
	IPAddress string
	UserAgent string
}

// Store is the persistence surface offer transitions need. *db.Store
// implements it; tests substitute a fake.
type Store interface {
	GetApplication(ctx context.Context, id int64) (*db.Application, error)
	GetCandidate(ctx context.Context, id int64) (*db.Candidate, error)
	GetUser(ctx context.Context, userID int64) (*db.User, error)
	CreateOffer(ctx context.Context, offer *db.Offer) (int64, error)
	GetOffer(ctx context.Context, id int64) (*db.Offer, error)
	UpdateOfferStatus(ctx context.Context, id int64, status, notes string) error
	SetOfferPDF(ctx context.Context, id int64, url string) error
	SignOffer(ctx context.Context, id, signedBy int64, ip, userAgent string) error
	CreateNotification(ctx context.Context, userID int64, message, tag string, linkURL *string) (int64, error)
	WriteAuditLog(ctx context.Context, entry *db.AuditLog) error
}

// Database runs offer operations, transactionally or standalone
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

// Service coordinates offer transitions and their side effects
type Service struct {
	db       Database
	renderer DocumentRenderer
	objects  storage.ObjectStore
	mailer   *mail.Dispatcher
}

// NewService creates an offer lifecycle service
func NewService(database *db.DB, renderer DocumentRenderer, objects storage.ObjectStore, mailer *mail.Dispatcher) *Service {
	return &Service{db: pgDatabase{db: database}, renderer: renderer, objects: objects, mailer: mailer}
}

// CreateInput is the payload for drafting an offer
type CreateInput struct {
	ApplicationID int64          `json:"application_id" validate:"required"`
	BaseSalary    string         `json:"base_salary" validate:"required"`
	Currency      string         `json:"currency"`
	Allowances    map[string]any `json:"allowances"`
	Bonuses       map[string]any `json:"bonuses"`
	ContractType  string         `json:"contract_type"`
	Notes         string         `json:"notes"`
}

// Create drafts an offer for an application. The storage layer enforces at
// most one offer per application.
func (s *Service) Create(ctx context.Context, actor Actor, input CreateInput) (*db.Offer, error) {
	if input.ApplicationID == 0 {
		return nil, &ErrValidation{Field: "application_id", Message: "is required"}
	}
	if _, err := strconv.ParseFloat(input.BaseSalary, 64); err != nil {
		return nil, &ErrValidation{Field: "base_salary", Message: "must be a numeric string"}
	}

	var offer *db.Offer
	err := s.db.WithTx(ctx, func(store Store) error {
		app, err := store.GetApplication(ctx, input.ApplicationID)
		if err != nil {
			return err
		}
		if app == nil {
			return &ErrNotFound{Kind: "application", ID: input.ApplicationID}
		}

		id, err := store.CreateOffer(ctx, &db.Offer{
			ApplicationID: input.ApplicationID,
			BaseSalary:    input.BaseSalary,
			Currency:      input.Currency,
			Allowances:    db.JSONMap(input.Allowances),
			Bonuses:       db.JSONMap(input.Bonuses),
			ContractType:  input.ContractType,
			Notes:         input.Notes,
			CreatedBy:     actor.UserID,
		})
		if err != nil {
			if db.IsUniqueViolation(err) {
				return &ErrOfferExists{ApplicationID: input.ApplicationID}
			}
			return err
		}

		audit.Record(ctx, store, audit.Entry{
			ActorID:    actor.UserID,
			ActorLabel: audit.ActorAdmin,
			Action:     "offer.create",
			Details:    fmt.Sprintf("drafted offer %d for application %d", id, input.ApplicationID),
			Extra:      map[string]any{"offer_id": id, "application_id": input.ApplicationID},
			IPAddress:  actor.IPAddress,
			UserAgent:  actor.UserAgent,
		})

		offer, err = store.GetOffer(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return offer, nil
}

// Review moves a draft offer to reviewed
func (s *Service) Review(ctx context.Context, actor Actor, offerID int64) (*db.Offer, error) {
	return s.simpleTransition(ctx, actor, offerID, db.OfferReviewed, "offer.review", "")
}

// Reject moves a reviewed offer to rejected, recording the reason in notes
func (s *Service) Reject(ctx context.Context, actor Actor, offerID int64, reason string) (*db.Offer, error) {
	return s.simpleTransition(ctx, actor, offerID, db.OfferRejected, "offer.reject", reason)
}

// Expire moves a sent offer to expired, recording the reason in notes
func (s *Service) Expire(ctx context.Context, actor Actor, offerID int64, reason string) (*db.Offer, error) {
	return s.simpleTransition(ctx, actor, offerID, db.OfferExpired, "offer.expire", reason)
}

// Withdraw moves an approved offer to withdrawn, recording the reason in notes
func (s *Service) Withdraw(ctx context.Context, actor Actor, offerID int64, reason string) (*db.Offer, error) {
	return s.simpleTransition(ctx, actor, offerID, db.OfferWithdrawn, "offer.withdraw", reason)
}

// Approve moves a reviewed offer to approved and, in the same request,
// advances it to sent: the offer document is rendered, uploaded to the object
// store, its URL persisted, and the candidate emailed the link.
func (s *Service) Approve(ctx context.Context, actor Actor, offerID int64) (*db.Offer, error) {
	var offer *db.Offer
	var recipient string
	err := s.db.WithTx(ctx, func(store Store) error {
		current, err := store.GetOffer(ctx, offerID)
		if err != nil {
			return err
		}
		if current == nil {
			return &ErrNotFound{Kind: "offer", ID: offerID}
		}
		if !CanTransition(current.Status, db.OfferApproved) {
			return &ErrInvalidTransition{From: current.Status, To: db.OfferApproved}
		}
		if err := store.UpdateOfferStatus(ctx, offerID, db.OfferApproved, ""); err != nil {
			return err
		}

		candidateUser, err := s.candidateUser(ctx, store, current.ApplicationID)
		if err != nil {
			return err
		}

		doc, err := s.renderer.Render(ctx, current, candidateUser.Name)
		if err != nil {
			return fmt.Errorf("failed to render offer document: %w", err)
		}
		publicID := storage.SanitizePublicID(fmt.Sprintf("offer_%d.pdf", offerID))
		url, err := s.objects.Upload(ctx, publicID, doc)
		if err != nil {
			return fmt.Errorf("failed to upload offer document: %w", err)
		}
		if err := store.SetOfferPDF(ctx, offerID, url); err != nil {
			return err
		}
		if err := store.UpdateOfferStatus(ctx, offerID, db.OfferSent, ""); err != nil {
			return err
		}

		recipient = candidateUser.Email
		if _, err := store.CreateNotification(ctx, candidateUser.ID,
			"You have received a job offer", "offer", &url); err != nil {
			return err
		}

		audit.Record(ctx, store, audit.Entry{
			ActorID:      actor.UserID,
			ActorLabel:   audit.ActorAdmin,
			Action:       "offer.approve",
			TargetUserID: &candidateUser.ID,
			Details:      fmt.Sprintf("offer %d approved and sent", offerID),
			Extra:        map[string]any{"offer_id": offerID, "pdf_url": url},
			IPAddress:    actor.IPAddress,
			UserAgent:    actor.UserAgent,
		})

		offer, err = store.GetOffer(ctx, offerID)
		return err
	})
	if err != nil {
		return nil, err
	}

	// Email dispatch is asynchronous and never rolls back the transaction.
	s.mailer.Enqueue(mail.Message{
		To:      recipient,
		Subject: "Your job offer is ready",
		Body:    fmt.Sprintf("Your offer is ready for review: %s", derefStr(offer.PDFURL)),
	})
	return offer, nil
}

// Sign captures the candidate's signature on a sent offer: timestamp, signer,
// client IP, and user-agent. Only the candidate owning the application may sign.
func (s *Service) Sign(ctx context.Context, actor Actor, offerID int64) (*db.Offer, error) {
	var offer *db.Offer
	err := s.db.WithTx(ctx, func(store Store) error {
		current, err := store.GetOffer(ctx, offerID)
		if err != nil {
			return err
		}
		if current == nil {
			return &ErrNotFound{Kind: "offer", ID: offerID}
		}
		if !CanTransition(current.Status, db.OfferSigned) {
			return &ErrInvalidTransition{From: current.Status, To: db.OfferSigned}
		}

		candidateUser, err := s.candidateUser(ctx, store, current.ApplicationID)
		if err != nil {
			return err
		}
		if candidateUser.ID != actor.UserID {
			return &ErrNotOwner{OfferID: offerID}
		}

		if err := store.SignOffer(ctx, offerID, actor.UserID, actor.IPAddress, actor.UserAgent); err != nil {
			return err
		}

		audit.Record(ctx, store, audit.Entry{
			ActorID:    actor.UserID,
			ActorLabel: audit.ActorCandidate,
			Action:     "offer.sign",
			Details:    fmt.Sprintf("offer %d signed", offerID),
			Extra:      map[string]any{"offer_id": offerID},
			IPAddress:  actor.IPAddress,
			UserAgent:  actor.UserAgent,
		})

		offer, err = store.GetOffer(ctx, offerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return offer, nil
}

// Get retrieves an offer by id
func (s *Service) Get(ctx context.Context, offerID int64) (*db.Offer, error) {
	offer, err := s.db.Store().GetOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, &ErrNotFound{Kind: "offer", ID: offerID}
	}
	return offer, nil
}

// simpleTransition performs a state move with no side effects beyond notes and audit
func (s *Service) simpleTransition(ctx context.Context, actor Actor, offerID int64, target, action, reason string) (*db.Offer, error) {
	var offer *db.Offer
	err := s.db.WithTx(ctx, func(store Store) error {
		current, err := store.GetOffer(ctx, offerID)
		if err != nil {
			return err
		}
		if current == nil {
			return &ErrNotFound{Kind: "offer", ID: offerID}
		}
		if !CanTransition(current.Status, target) {
			return &ErrInvalidTransition{From: current.Status, To: target}
		}
		if err := store.UpdateOfferStatus(ctx, offerID, target, reason); err != nil {
			return err
		}

		audit.Record(ctx, store, audit.Entry{
			ActorID:    actor.UserID,
			ActorLabel: audit.ActorAdmin,
			Action:     action,
			Details:    fmt.Sprintf("offer %d: %s -> %s", offerID, current.Status, target),
			Extra:      map[string]any{"offer_id": offerID, "from": current.Status, "to": target, "reason": reason},
			IPAddress:  actor.IPAddress,
			UserAgent:  actor.UserAgent,
		})

		offer, err = store.GetOffer(ctx, offerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return offer, nil
}

// candidateUser resolves the user owning the application behind an offer
func (s *Service) candidateUser(ctx context.Context, store Store, applicationID int64) (*db.User, error) {
	app, err := store.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, &ErrNotFound{Kind: "application", ID: applicationID}
	}
	candidate, err := store.GetCandidate(ctx, app.CandidateID)
	if err != nil {
		return nil, err
	}
	if candidate == nil {
		return nil, &ErrNotFound{Kind: "candidate", ID: app.CandidateID}
	}
	user, err := store.GetUser(ctx, candidate.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &ErrNotFound{Kind: "user", ID: candidate.UserID}
	}
	return user, nil
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
