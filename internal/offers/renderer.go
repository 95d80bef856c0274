package offers

import (
	"context"
	"fmt"
	"strings"

	"github.com/recruitflow/recruitflow/internal/db"
)

// PlainRenderer renders the offer as a plain-text document. It stands in for
// the real PDF rendering collaborator in development and tests.
type PlainRenderer struct{}

// Render implements DocumentRenderer
func (PlainRenderer) Render(_ context.Context, offer *db.Offer, candidateName string) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "OFFER OF EMPLOYMENT\n\n")
	fmt.Fprintf(&b, "Candidate: %s\n", candidateName)
	fmt.Fprintf(&b, "Base salary: %s %s\n", offer.BaseSalary, offer.Currency)
	if offer.ContractType != "" {
		fmt.Fprintf(&b, "Contract type: %s\n", offer.ContractType)
	}
	for name, amount := range offer.Allowances {
		fmt.Fprintf(&b, "Allowance %s: %v\n", name, amount)
	}
	for name, amount := range offer.Bonuses {
		fmt.Fprintf(&b, "Bonus %s: %v\n", name, amount)
	}
	fmt.Fprintf(&b, "\nOffer version: %d\n", offer.OfferVersion)
	return []byte(b.String()), nil
}
