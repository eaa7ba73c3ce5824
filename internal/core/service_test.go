package core_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/claims/internal/config"
	"github.com/JonMunkholm/claims/internal/core"
	"github.com/JonMunkholm/claims/internal/memstore"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

const header = "policy_id,claim_id,customer_age,customer_gender,customer_state,vehicle_make,vehicle_model,vehicle_year,claim_date,claim_type,claim_amount,deductible,claim_status,annual_premium,is_fraud\n"

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func testConfig() *config.Config {
	return &config.Config{
		Import: config.ImportConfig{
			BatchSize:     2,
			ConflictKey:   config.ConflictPolicyID,
			MaxConcurrent: 1,
			Timeout:       time.Minute,
		},
	}
}

func newService(t *testing.T) (*core.Service, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	clock := &fakeClock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	svc, err := core.NewService(store, testConfig(), core.WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc, store
}

func sample(id, policy, amount string) core.Claim {
	return core.Claim{
		ClaimID:        id,
		PolicyID:       policy,
		CustomerAge:    35,
		CustomerGender: "M",
		CustomerState:  "CA",
		VehicleMake:    "Toyota",
		VehicleModel:   "Sedan",
		VehicleYear:    2020,
		ClaimDate:      time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		ClaimType:      "Collision",
		ClaimAmount:    decimal.RequireFromString(amount),
		Deductible:     1000,
		ClaimStatus:    "Approved",
		AnnualPremium:  decimal.RequireFromString("1200.00"),
	}
}

func row(policy, id, amount, status, fraud string) string {
	return fmt.Sprintf("%s,%s,35,M,CA,Toyota,Sedan,2020,2024-01-15 10:30:00.000000,Collision,%s,1000,%s,1200.00,%s\n",
		policy, id, amount, status, fraud)
}

func TestService_CreateThenGet(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	created, err := svc.CreateClaim(ctx, sample("CLM1", "POL1", "5000.001"))
	if err != nil {
		t.Fatalf("CreateClaim() error = %v", err)
	}
	if created.CreatedAt.IsZero() {
		t.Error("CreatedAt not stamped")
	}
	if created.UpdatedAt != nil {
		t.Errorf("UpdatedAt = %v, want nil", created.UpdatedAt)
	}
	if !created.ClaimAmount.Equal(decimal.RequireFromString("5000.00")) {
		t.Errorf("ClaimAmount = %s, want 5000.00", created.ClaimAmount)
	}

	got, err := svc.GetClaim(ctx, "CLM1")
	if err != nil {
		t.Fatalf("GetClaim() error = %v", err)
	}
	if diff := cmp.Diff(created, got); diff != "" {
		t.Errorf("GetClaim() mismatch (-want +got):\n%s", diff)
	}
}

func TestService_CreateDuplicateConflicts(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	if _, err := svc.CreateClaim(ctx, sample("CLM1", "POL1", "10")); err != nil {
		t.Fatal(err)
	}
	_, err := svc.CreateClaim(ctx, sample("CLM1", "POL2", "20"))
	if !errors.Is(err, core.ErrConflict) {
		t.Fatalf("CreateClaim() duplicate error = %v, want ErrConflict", err)
	}

	got, _ := svc.GetClaim(ctx, "CLM1")
	if got.PolicyID != "POL1" {
		t.Errorf("PolicyID = %q, want original POL1", got.PolicyID)
	}
}

func TestService_CreateRejectsInvalid(t *testing.T) {
	svc, store := newService(t)
	c := sample("CLM1", "POL1", "10")
	c.CustomerAge = 12

	_, err := svc.CreateClaim(context.Background(), c)
	if !core.IsValidation(err) {
		t.Fatalf("CreateClaim() error = %v, want validation error", err)
	}
	if n, _ := store.CountClaims(context.Background()); n != 0 {
		t.Errorf("store holds %d claims, want 0", n)
	}
}

func TestService_PartialUpdate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	before, err := svc.CreateClaim(ctx, sample("CLM1", "POL1", "100.00"))
	if err != nil {
		t.Fatal(err)
	}

	amount := decimal.RequireFromString("250.555")
	after, err := svc.UpdateClaim(ctx, "CLM1", core.ClaimPatch{ClaimAmount: &amount})
	if err != nil {
		t.Fatalf("UpdateClaim() error = %v", err)
	}

	if !after.ClaimAmount.Equal(decimal.RequireFromString("250.56")) {
		t.Errorf("ClaimAmount = %s, want 250.56", after.ClaimAmount)
	}
	if after.UpdatedAt == nil || after.UpdatedAt.Before(after.CreatedAt) {
		t.Fatalf("UpdatedAt = %v, want >= CreatedAt %v", after.UpdatedAt, after.CreatedAt)
	}

	// Everything except the patched field and updated_at is unchanged.
	before.ClaimAmount = after.ClaimAmount
	before.UpdatedAt = after.UpdatedAt
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("unpatched fields changed (-want +got):\n%s", diff)
	}
}

func TestService_EmptyUpdateStampsUpdatedAt(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	if _, err := svc.CreateClaim(ctx, sample("CLM1", "POL1", "1")); err != nil {
		t.Fatal(err)
	}

	got, err := svc.UpdateClaim(ctx, "CLM1", core.ClaimPatch{})
	if err != nil {
		t.Fatalf("UpdateClaim() error = %v", err)
	}
	if got.UpdatedAt == nil {
		t.Error("UpdatedAt = nil after empty update")
	}
}

func TestService_UpdateRejectsInvalidPatch(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	if _, err := svc.CreateClaim(ctx, sample("CLM1", "POL1", "1")); err != nil {
		t.Fatal(err)
	}

	bad := "Z"
	_, err := svc.UpdateClaim(ctx, "CLM1", core.ClaimPatch{CustomerGender: &bad})
	if !core.IsValidation(err) {
		t.Fatalf("UpdateClaim() error = %v, want validation error", err)
	}

	got, _ := svc.GetClaim(ctx, "CLM1")
	if got.CustomerGender != "M" || got.UpdatedAt != nil {
		t.Errorf("claim changed by rejected update: %+v", got)
	}
}

func TestService_UpdateMissing(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.UpdateClaim(context.Background(), "NOPE", core.ClaimPatch{})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("UpdateClaim() error = %v, want ErrNotFound", err)
	}
}

func TestService_DeleteThenGet(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	if _, err := svc.CreateClaim(ctx, sample("CLM1", "POL1", "1")); err != nil {
		t.Fatal(err)
	}

	if err := svc.DeleteClaim(ctx, "CLM1"); err != nil {
		t.Fatalf("DeleteClaim() error = %v", err)
	}
	if _, err := svc.GetClaim(ctx, "CLM1"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetClaim() error = %v, want ErrNotFound", err)
	}
	if err := svc.DeleteClaim(ctx, "CLM1"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second DeleteClaim() error = %v, want ErrNotFound", err)
	}
}

func TestService_ListClaims(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	for i := 1; i <= 5; i++ {
		c := sample(fmt.Sprintf("CLM%d", i), "POL", fmt.Sprintf("%d00.00", i))
		c.IsFraud = i%2 == 0
		if i == 5 {
			c.ClaimStatus = "Denied"
		}
		if _, err := svc.CreateClaim(ctx, c); err != nil {
			t.Fatal(err)
		}
	}

	ids := func(cs []core.Claim) []string {
		out := make([]string, len(cs))
		for i, c := range cs {
			out[i] = c.ClaimID
		}
		return out
	}
	lo, hi := decimal.RequireFromString("200"), decimal.RequireFromString("400")
	denied := "Denied"
	fraud := true

	tests := []struct {
		name   string
		filter core.ClaimFilter
		want   []string
	}{
		{"default limit", core.ClaimFilter{}, []string{"CLM1", "CLM2", "CLM3", "CLM4", "CLM5"}},
		{"inclusive amount bounds", core.ClaimFilter{MinAmount: &lo, MaxAmount: &hi}, []string{"CLM2", "CLM3", "CLM4"}},
		{"status", core.ClaimFilter{Status: &denied}, []string{"CLM5"}},
		{"fraud and amount", core.ClaimFilter{IsFraud: &fraud, MinAmount: &hi}, []string{"CLM4"}},
		{"min above max", core.ClaimFilter{MinAmount: &hi, MaxAmount: &lo}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ListClaims(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListClaims() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, ids(got)); diff != "" {
				t.Errorf("ListClaims() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestService_ListClaimsPagesAreDisjoint(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	for i := 0; i < 7; i++ {
		if _, err := svc.CreateClaim(ctx, sample(fmt.Sprintf("CLM%02d", i), "POL", "1")); err != nil {
			t.Fatal(err)
		}
	}

	seen := make(map[string]bool)
	for skip := 0; skip < 7; skip += 3 {
		page, err := svc.ListClaims(ctx, core.ClaimFilter{Skip: skip, Limit: 3})
		if err != nil {
			t.Fatalf("ListClaims(skip=%d) error = %v", skip, err)
		}
		for _, c := range page {
			if seen[c.ClaimID] {
				t.Errorf("claim %s returned on two pages", c.ClaimID)
			}
			seen[c.ClaimID] = true
		}
	}
	if len(seen) != 7 {
		t.Errorf("pages covered %d claims, want 7", len(seen))
	}
}

func TestService_ListClaimsRejectsBadPagination(t *testing.T) {
	svc, _ := newService(t)
	neg := decimal.RequireFromString("-1")

	for _, f := range []core.ClaimFilter{
		{Skip: -1},
		{Limit: 1001},
		{Limit: -5},
		{MinAmount: &neg},
	} {
		if _, err := svc.ListClaims(context.Background(), f); !core.IsValidation(err) {
			t.Errorf("ListClaims(%+v) error = %v, want validation error", f, err)
		}
	}
}

func TestService_Summary(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	empty, err := svc.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if empty.TotalClaims != 0 || !empty.AvgAmount.IsZero() || !empty.FraudPercentage.IsZero() {
		t.Errorf("empty Summary() = %+v", empty)
	}
	if len(empty.StatusDistribution) != 0 || len(empty.ClaimTypeDistribution) != 0 {
		t.Errorf("empty distributions = %v / %v", empty.StatusDistribution, empty.ClaimTypeDistribution)
	}

	a := sample("CLM1", "POL1", "100")
	a.IsFraud = true
	b := sample("CLM2", "POL2", "300")
	b.ClaimStatus = "Denied"
	for _, c := range []core.Claim{a, b} {
		if _, err := svc.CreateClaim(ctx, c); err != nil {
			t.Fatal(err)
		}
	}

	got, err := svc.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if got.TotalClaims != 2 || got.FraudCount != 1 {
		t.Errorf("counts = %d/%d, want 2/1", got.TotalClaims, got.FraudCount)
	}
	if !got.TotalAmount.Equal(decimal.NewFromInt(400)) || !got.AvgAmount.Equal(decimal.NewFromInt(200)) {
		t.Errorf("amounts = %s/%s, want 400/200", got.TotalAmount, got.AvgAmount)
	}
	if !got.FraudPercentage.Equal(decimal.NewFromInt(50)) {
		t.Errorf("FraudPercentage = %s, want 50", got.FraudPercentage)
	}
	if diff := cmp.Diff(map[string]int64{"Approved": 1, "Denied": 1}, got.StatusDistribution); diff != "" {
		t.Errorf("StatusDistribution mismatch (-want +got):\n%s", diff)
	}
}

func TestService_ImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	csv := header +
		row("POL1", "CLM1", "100.50", "Approved", "false") +
		row("POL2", "CLM2", "200.00", "Denied", "True") +
		row("POL3", "CLM3", "300.00", "Open", "false")

	res, err := svc.Import(ctx, core.ImportOptions{Reader: strings.NewReader(csv), Source: "upload.csv"})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.Loaded != 3 || res.Imported != 3 || res.Batches != 2 {
		t.Errorf("Import() = %+v, want 3 loaded / 3 imported / 2 batches", res)
	}
	if res.ImportID == "" || res.Source != "upload.csv" {
		t.Errorf("ImportID = %q, Source = %q", res.ImportID, res.Source)
	}

	got, err := svc.GetClaim(ctx, "CLM2")
	if err != nil {
		t.Fatalf("GetClaim() error = %v", err)
	}
	if !got.IsFraud || got.ClaimStatus != "Denied" || !got.ClaimAmount.Equal(decimal.NewFromInt(200)) {
		t.Errorf("imported claim = %+v", got)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt != nil {
		t.Errorf("timestamps = %v / %v, want created set and updated nil", got.CreatedAt, got.UpdatedAt)
	}
}

func TestService_ImportWithClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	path := filepath.Join(t.TempDir(), "claims.csv")
	csv := header + row("POL1", "CLM1", "1", "Open", "false") + row("POL2", "CLM2", "2", "Open", "false")
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateClaim(ctx, sample("OTHER", "POL9", "9")); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		res, err := svc.Import(ctx, core.ImportOptions{Path: path, ClearExisting: true})
		if err != nil {
			t.Fatalf("Import() run %d error = %v", i+1, err)
		}
		if res.Source != "claims.csv" {
			t.Errorf("Source = %q, want claims.csv", res.Source)
		}
		n, _ := svc.CountClaims(ctx)
		if n != 2 {
			t.Errorf("after run %d CountClaims() = %d, want 2", i+1, n)
		}
	}
}

func TestService_ImportUpsertsByPolicy(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	first := header + row("POL1", "CLM1", "100.00", "Open", "false")
	if _, err := svc.Import(ctx, core.ImportOptions{Reader: strings.NewReader(first)}); err != nil {
		t.Fatal(err)
	}

	second := header + row("POL1", "CLM-NEW", "999.00", "Paid", "true")
	if _, err := svc.Import(ctx, core.ImportOptions{Reader: strings.NewReader(second)}); err != nil {
		t.Fatal(err)
	}

	if n, _ := svc.CountClaims(ctx); n != 1 {
		t.Fatalf("CountClaims() = %d, want 1", n)
	}
	got, err := svc.GetClaim(ctx, "CLM1")
	if err != nil {
		t.Fatalf("GetClaim() error = %v", err)
	}
	if got.ClaimStatus != "Paid" || !got.IsFraud || !got.ClaimAmount.Equal(decimal.NewFromInt(999)) {
		t.Errorf("claim not overwritten: %+v", got)
	}
	if got.UpdatedAt == nil {
		t.Error("UpdatedAt = nil after upsert overwrite")
	}
}

func TestService_ImportByClaimIDOverride(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	csv := header + row("POL1", "CLM1", "1", "Open", "false") + row("POL1", "CLM2", "2", "Open", "false")

	_, err := svc.Import(ctx, core.ImportOptions{Reader: strings.NewReader(csv), ConflictKey: core.ConflictClaimID})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if n, _ := svc.CountClaims(ctx); n != 2 {
		t.Errorf("CountClaims() = %d, want 2", n)
	}
}

func TestService_ImportParseErrorLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	if _, err := svc.CreateClaim(ctx, sample("KEEP", "POL9", "9")); err != nil {
		t.Fatal(err)
	}
	csv := header + row("POL1", "CLM1", "1", "Open", "false") + "POL2,CLM2,notanumber\n"

	res, err := svc.Import(ctx, core.ImportOptions{Reader: strings.NewReader(csv), ClearExisting: true})
	var pe *core.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("Import() error = %v, want *ParseError", err)
	}
	if res != nil {
		t.Errorf("Import() result = %+v, want nil", res)
	}
	if _, err := svc.GetClaim(ctx, "KEEP"); err != nil {
		t.Errorf("existing claim removed by failed import: %v", err)
	}
}

func TestService_ImportBatchFailureKeepsEarlierBatches(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	// CLM3 already exists under another policy, so batch 2 hits the primary key.
	if _, err := svc.CreateClaim(ctx, sample("CLM3", "POL-OTHER", "1")); err != nil {
		t.Fatal(err)
	}
	csv := header +
		row("POL1", "CLM1", "1", "Open", "false") +
		row("POL2", "CLM2", "1", "Open", "false") +
		row("POL3", "CLM3", "1", "Open", "false") +
		row("POL4", "CLM4", "1", "Open", "false")

	res, err := svc.Import(ctx, core.ImportOptions{Reader: strings.NewReader(csv)})
	var se *core.StoreError
	if !errors.As(err, &se) || se.Batch != 2 {
		t.Fatalf("Import() error = %v, want *StoreError for batch 2", err)
	}
	if res == nil || res.Imported != 2 {
		t.Fatalf("Import() result = %+v, want 2 imported", res)
	}
	if _, err := svc.GetClaim(ctx, "CLM2"); err != nil {
		t.Errorf("batch 1 claim missing: %v", err)
	}
	if _, err := svc.GetClaim(ctx, "CLM4"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("batch 2 claim CLM4 written despite rollback: %v", err)
	}
}

// blockingReader parks the first import until release is closed, then
// yields a header-only CSV.
type blockingReader struct {
	once    sync.Once
	started chan struct{}
	release chan struct{}
	sent    bool
}

func (b *blockingReader) Read(p []byte) (int, error) {
	b.once.Do(func() { close(b.started) })
	<-b.release
	if b.sent {
		return 0, io.EOF
	}
	b.sent = true
	return copy(p, header), nil
}

func TestService_ConcurrentImportIsRejected(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	br := &blockingReader{started: make(chan struct{}), release: make(chan struct{})}
	done := make(chan error, 1)
	go func() {
		_, err := svc.Import(ctx, core.ImportOptions{Reader: br})
		done <- err
	}()
	<-br.started

	if got := svc.ImportStatus().Active; got != 1 {
		t.Errorf("ImportStatus().Active = %d, want 1", got)
	}

	_, err := svc.Import(ctx, core.ImportOptions{Reader: strings.NewReader(header)})
	if !errors.Is(err, core.ErrImportInProgress) {
		t.Errorf("second Import() error = %v, want ErrImportInProgress", err)
	}

	close(br.release)
	if err := <-done; err != nil {
		t.Errorf("first Import() error = %v", err)
	}

	drainCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := svc.WaitForImports(drainCtx); err != nil {
		t.Errorf("WaitForImports() error = %v", err)
	}
}

func TestNewService_RejectsUnknownConflictKey(t *testing.T) {
	cfg := testConfig()
	cfg.Import.ConflictKey = "vin"
	if _, err := core.NewService(memstore.New(), cfg); err == nil {
		t.Fatal("NewService() expected error for unknown conflict key")
	}
}
