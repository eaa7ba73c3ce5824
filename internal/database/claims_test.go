package database

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/JonMunkholm/claims/internal/config"
	"github.com/JonMunkholm/claims/internal/core"
	"github.com/shopspring/decimal"
)

// openTestStore connects to TEST_DATABASE_URL and empties the claims table.
// It is never pointed at DATABASE_URL because the table is truncated.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := Connect(ctx, config.DatabaseConfig{URL: url, MaxConns: 4, MinConns: 1})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		t.Fatalf("Migrate() error = %v", err)
	}

	store := New(pool)
	if _, err := store.DeleteAllClaims(ctx); err != nil {
		store.Close()
		t.Fatalf("DeleteAllClaims() error = %v", err)
	}
	t.Cleanup(func() {
		store.DeleteAllClaims(context.Background())
		store.Close()
	})
	return store
}

func testClaim(policyID, claimID, amount string) core.Claim {
	return core.Claim{
		ClaimID:        claimID,
		PolicyID:       policyID,
		CustomerAge:    35,
		CustomerGender: "M",
		CustomerState:  "CA",
		VehicleMake:    "Toyota",
		VehicleModel:   "Sedan",
		VehicleYear:    2020,
		ClaimDate:      time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		ClaimType:      "Collision",
		ClaimAmount:    decimal.RequireFromString(amount),
		Deductible:     500,
		ClaimStatus:    "Open",
		AnnualPremium:  decimal.RequireFromString("1200.00"),
	}
}

func amountOf(t *testing.T, s *Store, claimID string) decimal.Decimal {
	t.Helper()
	c, err := s.GetClaim(context.Background(), claimID)
	if err != nil {
		t.Fatalf("GetClaim(%s) error = %v", claimID, err)
	}
	return c.ClaimAmount
}

func TestUpsertClaimsByClaimID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	t0 := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	batch := []core.Claim{testClaim("POL1", "CLM1", "100.00"), testClaim("POL1", "CLM2", "200.00")}
	if err := s.UpsertClaims(ctx, batch, core.ConflictClaimID, t0); err != nil {
		t.Fatalf("UpsertClaims() insert error = %v", err)
	}

	if err := s.UpsertClaims(ctx, []core.Claim{testClaim("POL1", "CLM1", "150.00")}, core.ConflictClaimID, t0.Add(time.Hour)); err != nil {
		t.Fatalf("UpsertClaims() update error = %v", err)
	}

	c, err := s.GetClaim(ctx, "CLM1")
	if err != nil {
		t.Fatalf("GetClaim() error = %v", err)
	}
	if !c.ClaimAmount.Equal(decimal.RequireFromString("150")) {
		t.Errorf("ClaimAmount = %s, want 150.00", c.ClaimAmount)
	}
	if c.UpdatedAt == nil || !c.UpdatedAt.Equal(t0.Add(time.Hour)) {
		t.Errorf("UpdatedAt = %v, want %v", c.UpdatedAt, t0.Add(time.Hour))
	}
	if got := amountOf(t, s, "CLM2"); !got.Equal(decimal.RequireFromString("200")) {
		t.Errorf("CLM2 amount = %s, want 200.00", got)
	}
}

func TestUpsertClaimsByPolicyID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	seed := []core.Claim{testClaim("POL1", "CLM1", "100.00"), testClaim("POL1", "CLM2", "200.00")}
	if err := s.UpsertClaims(ctx, seed, core.ConflictPolicyID, now); err != nil {
		t.Fatalf("UpsertClaims() seed error = %v", err)
	}

	// A matching policy updates every row carrying it and inserts nothing.
	batch := []core.Claim{testClaim("POL1", "CLM9", "42.00"), testClaim("POL7", "CLM7", "7.00")}
	if err := s.UpsertClaims(ctx, batch, core.ConflictPolicyID, now); err != nil {
		t.Fatalf("UpsertClaims() error = %v", err)
	}

	for _, id := range []string{"CLM1", "CLM2"} {
		if got := amountOf(t, s, id); !got.Equal(decimal.RequireFromString("42")) {
			t.Errorf("%s amount = %s, want 42.00", id, got)
		}
	}
	if _, err := s.GetClaim(ctx, "CLM9"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetClaim(CLM9) error = %v, want ErrNotFound", err)
	}
	if n, err := s.CountClaims(ctx); err != nil || n != 3 {
		t.Errorf("CountClaims() = %d, %v, want 3", n, err)
	}
}

func TestUpsertClaimsRollsBackFailingBatch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	if err := s.UpsertClaims(ctx, []core.Claim{testClaim("POL1", "CLM1", "100.00")}, core.ConflictPolicyID, now); err != nil {
		t.Fatalf("UpsertClaims() seed error = %v", err)
	}

	// CLM1 under a new policy collides on the primary key.
	batch := []core.Claim{testClaim("POL9", "CLM10", "1.00"), testClaim("POL8", "CLM1", "2.00")}
	err := s.UpsertClaims(ctx, batch, core.ConflictPolicyID, now)
	if !errors.Is(err, core.ErrConflict) {
		t.Fatalf("UpsertClaims() error = %v, want ErrConflict", err)
	}

	if _, err := s.GetClaim(ctx, "CLM10"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetClaim(CLM10) error = %v, want ErrNotFound after rollback", err)
	}
	if got := amountOf(t, s, "CLM1"); !got.Equal(decimal.RequireFromString("100")) {
		t.Errorf("CLM1 amount = %s, want 100.00", got)
	}
}

func TestListClaimsFilters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	approved := testClaim("POL3", "CLM3", "300.00")
	approved.ClaimStatus = "Approved"
	batch := []core.Claim{
		testClaim("POL1", "CLM1", "100.00"),
		testClaim("POL2", "CLM2", "200.00"),
		approved,
	}
	if err := s.UpsertClaims(ctx, batch, core.ConflictClaimID, now); err != nil {
		t.Fatalf("UpsertClaims() error = %v", err)
	}

	open := "Open"
	lo, hi := decimal.RequireFromString("100.00"), decimal.RequireFromString("300.00")
	tests := []struct {
		name   string
		filter core.ClaimFilter
		want   []string
	}{
		{"all", core.ClaimFilter{Limit: 10}, []string{"CLM1", "CLM2", "CLM3"}},
		{"status", core.ClaimFilter{Status: &open, Limit: 10}, []string{"CLM1", "CLM2"}},
		{"inclusive range", core.ClaimFilter{MinAmount: &lo, MaxAmount: &hi, Limit: 10}, []string{"CLM1", "CLM2", "CLM3"}},
		{"status and range", core.ClaimFilter{Status: &open, MinAmount: &hi, Limit: 10}, nil},
		{"page", core.ClaimFilter{Skip: 1, Limit: 1}, []string{"CLM2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListClaims(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListClaims() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ListClaims() returned %d claims, want %d", len(got), len(tt.want))
			}
			for i, c := range got {
				if c.ClaimID != tt.want[i] {
					t.Errorf("claim[%d] = %s, want %s", i, c.ClaimID, tt.want[i])
				}
			}
		})
	}
}
