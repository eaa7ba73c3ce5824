package core

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Pagination bounds for ListClaims.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// ConflictKey names the column a bulk upsert matches existing rows on.
type ConflictKey string

const (
	// ConflictPolicyID matches on the non-unique policy_id. Every existing row
	// sharing the policy id is overwritten.
	ConflictPolicyID ConflictKey = "policy_id"

	// ConflictClaimID matches on the claim_id primary key.
	ConflictClaimID ConflictKey = "claim_id"
)

// ParseConflictKey validates a configured conflict key. Empty selects policy_id.
func ParseConflictKey(s string) (ConflictKey, error) {
	switch ConflictKey(s) {
	case "", ConflictPolicyID:
		return ConflictPolicyID, nil
	case ConflictClaimID:
		return ConflictClaimID, nil
	default:
		return "", &ValidationError{Field: "conflict_key", Value: s, Message: "must be policy_id or claim_id"}
	}
}

// ClaimFilter selects and pages claims. Nil criteria are not applied; the
// rest are combined with AND. Amount bounds are inclusive.
type ClaimFilter struct {
	Status    *string
	IsFraud   *bool
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal

	Skip  int
	Limit int
}

// Normalize applies the default limit when none was given.
func (f *ClaimFilter) Normalize() {
	if f.Limit == 0 {
		f.Limit = DefaultLimit
	}
}

// Validate checks pagination and amount bounds.
func (f ClaimFilter) Validate() error {
	if f.Skip < 0 {
		return &ValidationError{Field: "skip", Value: fmt.Sprint(f.Skip), Message: "must be >= 0"}
	}
	if f.Limit < 1 || f.Limit > MaxLimit {
		return &ValidationError{Field: "limit", Value: fmt.Sprint(f.Limit), Message: fmt.Sprintf("must be between 1 and %d", MaxLimit)}
	}
	if f.MinAmount != nil && f.MinAmount.IsNegative() {
		return &ValidationError{Field: "min_amount", Value: f.MinAmount.String(), Message: "must be >= 0"}
	}
	if f.MaxAmount != nil && f.MaxAmount.IsNegative() {
		return &ValidationError{Field: "max_amount", Value: f.MaxAmount.String(), Message: "must be >= 0"}
	}
	return nil
}

// Matches reports whether c satisfies every criterion of the filter.
// Pagination is not considered.
func (f ClaimFilter) Matches(c Claim) bool {
	if f.Status != nil && c.ClaimStatus != *f.Status {
		return false
	}
	if f.IsFraud != nil && c.IsFraud != *f.IsFraud {
		return false
	}
	if f.MinAmount != nil && c.ClaimAmount.LessThan(*f.MinAmount) {
		return false
	}
	if f.MaxAmount != nil && c.ClaimAmount.GreaterThan(*f.MaxAmount) {
		return false
	}
	return true
}

// Store persists claims. Implementations scope a session to each call and
// release it on every return path.
//
// GetClaim, UpdateClaim and DeleteClaim return ErrNotFound for unknown ids;
// InsertClaim returns ErrConflict for an existing id. Other failures are
// reported as *StoreError.
type Store interface {
	GetClaim(ctx context.Context, claimID string) (Claim, error)
	// ListClaims returns matching claims ordered by claim_id.
	ListClaims(ctx context.Context, filter ClaimFilter) ([]Claim, error)
	CountClaims(ctx context.Context) (int64, error)
	// ScanClaims calls fn for every stored claim. A non-nil error from fn stops the scan.
	ScanClaims(ctx context.Context, fn func(Claim) error) error

	InsertClaim(ctx context.Context, c Claim) error
	UpdateClaim(ctx context.Context, c Claim) error
	DeleteClaim(ctx context.Context, claimID string) error
	// DeleteAllClaims empties the store and returns the number of removed rows.
	// The removal is durable when it returns.
	DeleteAllClaims(ctx context.Context) (int64, error)

	BatchWriter

	Ping(ctx context.Context) error
}

// BatchWriter applies one upsert batch atomically: either every row is written
// or none is. New rows get created_at = now; matched rows get their amount,
// status, premium and fraud flag overwritten and updated_at = now.
type BatchWriter interface {
	UpsertClaims(ctx context.Context, batch []Claim, key ConflictKey, now time.Time) error
}
