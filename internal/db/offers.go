package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const offerColumns = `id, application_id, status, base_salary, currency, allowances, bonuses, contract_type, start_date, pdf_url, pdf_generated_at, signed_at, signed_by, signed_ip, signed_user_agent, notes, offer_version, created_by, created_at, updated_at`

func scanOffer(row pgx.Row) (*Offer, error) {
	var o Offer
	err := row.Scan(&o.ID, &o.ApplicationID, &o.Status, &o.BaseSalary, &o.Currency,
		&o.Allowances, &o.Bonuses, &o.ContractType, &o.StartDate, &o.PDFURL,
		&o.PDFGeneratedAt, &o.SignedAt, &o.SignedBy, &o.SignedIP, &o.SignedUserAgent,
		&o.Notes, &o.OfferVersion, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan offer: %w", err)
	}
	return &o, nil
}

// CreateOffer drafts an offer for an application. The unique constraint on
// application_id rejects a second offer for the same application.
func (s *Store) CreateOffer(ctx context.Context, o *Offer) (int64, error) {
	var id int64
	err := s.q.QueryRow(ctx,
		`INSERT INTO offers (application_id, status, base_salary, currency, allowances, bonuses, contract_type, start_date, notes, offer_version, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1, $10)
		 RETURNING id`,
		o.ApplicationID, OfferDraft, o.BaseSalary, o.Currency, o.Allowances,
		o.Bonuses, o.ContractType, o.StartDate, o.Notes, o.CreatedBy,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create offer: %w", err)
	}
	return id, nil
}

// GetOffer retrieves an offer by ID
func (s *Store) GetOffer(ctx context.Context, id int64) (*Offer, error) {
	return scanOffer(s.q.QueryRow(ctx,
		`SELECT `+offerColumns+` FROM offers WHERE id = $1`, id))
}

// GetOfferByApplication retrieves the offer attached to an application
func (s *Store) GetOfferByApplication(ctx context.Context, applicationID int64) (*Offer, error) {
	return scanOffer(s.q.QueryRow(ctx,
		`SELECT `+offerColumns+` FROM offers WHERE application_id = $1`, applicationID))
}

// UpdateOfferStatus moves the offer to a new status, optionally appending notes
func (s *Store) UpdateOfferStatus(ctx context.Context, id int64, status, notes string) error {
	result, err := s.q.Exec(ctx,
		`UPDATE offers
		 SET status = $1, notes = CASE WHEN $2 = '' THEN notes ELSE $2 END, updated_at = NOW()
		 WHERE id = $3`,
		status, notes, id)
	if err != nil {
		return fmt.Errorf("failed to update offer status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("offer not found: %d", id)
	}
	return nil
}

// SetOfferPDF records the generated artifact location and timestamp
func (s *Store) SetOfferPDF(ctx context.Context, id int64, pdfURL string) error {
	_, err := s.q.Exec(ctx,
		`UPDATE offers SET pdf_url = $1, pdf_generated_at = NOW(), updated_at = NOW() WHERE id = $2`,
		pdfURL, id)
	if err != nil {
		return fmt.Errorf("failed to set offer pdf: %w", err)
	}
	return nil
}

// SignOffer captures the signature: timestamp, signer, client IP, user agent
func (s *Store) SignOffer(ctx context.Context, id, signedBy int64, ip, userAgent string) error {
	result, err := s.q.Exec(ctx,
		`UPDATE offers
		 SET status = $1, signed_at = NOW(), signed_by = $2, signed_ip = $3, signed_user_agent = $4, updated_at = NOW()
		 WHERE id = $5`,
		OfferSigned, signedBy, ip, userAgent, id)
	if err != nil {
		return fmt.Errorf("failed to sign offer: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("offer not found: %d", id)
	}
	return nil
}
