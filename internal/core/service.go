package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/JonMunkholm/claims/internal/config"
	"github.com/JonMunkholm/claims/internal/logging"
	"github.com/google/uuid"
)

// Service is the entry point for claim queries, mutations and bulk imports.
// It is safe for concurrent use.
type Service struct {
	store   Store
	limiter *ImportLimiter
	now     func() time.Time

	batchSize     int
	conflictKey   ConflictKey
	importTimeout time.Duration
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now as the source of created_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires a Service to store using the import settings of cfg.
func NewService(store Store, cfg *config.Config, opts ...Option) (*Service, error) {
	key, err := ParseConflictKey(cfg.Import.ConflictKey)
	if err != nil {
		return nil, fmt.Errorf("import conflict key: %w", err)
	}

	s := &Service{
		store:         store,
		limiter:       NewImportLimiter(cfg.Import.MaxConcurrent, cfg.Import.MaxWaitTime),
		now:           time.Now,
		batchSize:     cfg.Import.BatchSize,
		conflictKey:   key,
		importTimeout: cfg.Import.Timeout,
	}
	if s.batchSize <= 0 {
		s.batchSize = DefaultBatchSize
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

// Ping checks that the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ListClaims returns one page of claims matching filter, ordered by claim_id.
// A zero Limit selects DefaultLimit. The result is never nil.
func (s *Service) ListClaims(ctx context.Context, filter ClaimFilter) ([]Claim, error) {
	filter.Normalize()
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	claims, err := s.store.ListClaims(ctx, filter)
	if err != nil {
		return nil, err
	}
	if claims == nil {
		claims = []Claim{}
	}
	return claims, nil
}

// GetClaim returns the claim with the given id or ErrNotFound.
func (s *Service) GetClaim(ctx context.Context, claimID string) (Claim, error) {
	return s.store.GetClaim(ctx, claimID)
}

// CountClaims returns the number of stored claims.
func (s *Service) CountClaims(ctx context.Context) (int64, error) {
	return s.store.CountClaims(ctx)
}

// CreateClaim validates and inserts a new claim. CreatedAt is stamped with the
// current time and UpdatedAt is cleared. ErrConflict is returned when the id
// is taken.
func (s *Service) CreateClaim(ctx context.Context, c Claim) (Claim, error) {
	c.Normalize()
	c.CreatedAt = s.clock()
	c.UpdatedAt = nil

	if err := c.Validate(); err != nil {
		return Claim{}, err
	}
	if err := s.store.InsertClaim(ctx, c); err != nil {
		return Claim{}, err
	}

	logging.WithFields(ctx, clientAttrs(ctx)...).Info("claim created", "claim_id", c.ClaimID)
	return c, nil
}

// UpdateClaim applies patch to an existing claim and stamps UpdatedAt, even
// when the patch is empty.
func (s *Service) UpdateClaim(ctx context.Context, claimID string, patch ClaimPatch) (Claim, error) {
	c, err := s.store.GetClaim(ctx, claimID)
	if err != nil {
		return Claim{}, err
	}

	patch.Apply(&c)

	now := s.clock()
	if now.Before(c.CreatedAt) {
		now = c.CreatedAt
	}
	c.UpdatedAt = &now

	if err := c.Validate(); err != nil {
		return Claim{}, err
	}
	if err := s.store.UpdateClaim(ctx, c); err != nil {
		return Claim{}, err
	}

	logging.WithFields(ctx, clientAttrs(ctx)...).Info("claim updated", "claim_id", claimID)
	return c, nil
}

// DeleteClaim removes a claim or returns ErrNotFound.
func (s *Service) DeleteClaim(ctx context.Context, claimID string) error {
	if err := s.store.DeleteClaim(ctx, claimID); err != nil {
		return err
	}
	logging.WithFields(ctx, clientAttrs(ctx)...).Info("claim deleted", "claim_id", claimID)
	return nil
}

// ClearClaims removes every claim and returns how many were removed.
func (s *Service) ClearClaims(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteAllClaims(ctx)
	if err != nil {
		return 0, err
	}
	logging.WithFields(ctx, clientAttrs(ctx)...).Warn("claims cleared", "deleted", n)
	return n, nil
}

// ImportOptions configures an Import run.
type ImportOptions struct {
	// Path is read when Reader is nil.
	Path string

	// Reader supplies the CSV stream directly.
	Reader io.Reader

	// Source names the input in logs and results. Defaults to the base of Path.
	Source string

	// ClearExisting empties the table before the first batch is written.
	ClearExisting bool

	// BatchSize and ConflictKey override the configured defaults when set.
	BatchSize   int
	ConflictKey ConflictKey
}

// ImportResult summarizes an Import run. On a batch failure it is returned
// together with the error and reflects the batches committed before it.
type ImportResult struct {
	ImportID string
	Source   string
	Loaded   int
	Imported int
	Batches  int
	Cleared  int64
	Bytes    int64
	Duration time.Duration
}

// Import loads a claims CSV and upserts it in batches.
//
// The whole file is parsed before the store is touched, so a malformed row
// leaves the table unchanged even when ClearExisting is set. Only
// MaxConcurrent imports run at once; a caller that cannot get a slot gets
// ErrImportInProgress.
func (s *Service) Import(ctx context.Context, opts ImportOptions) (*ImportResult, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	if s.importTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.importTimeout)
		defer cancel()
	}

	key := s.conflictKey
	if opts.ConflictKey != "" {
		k, err := ParseConflictKey(string(opts.ConflictKey))
		if err != nil {
			return nil, err
		}
		key = k
	}
	batchSize := s.batchSize
	if opts.BatchSize > 0 {
		batchSize = opts.BatchSize
	}

	source := opts.Source
	if source == "" && opts.Path != "" {
		source = filepath.Base(opts.Path)
	}

	result := &ImportResult{
		ImportID: uuid.New().String(),
		Source:   source,
	}
	start := time.Now()
	defer func() { result.Duration = time.Since(start) }()

	logger := logging.WithFields(ctx, append([]any{"import_id", result.ImportID, "source", source}, clientAttrs(ctx)...)...)
	logger.Info("import started", "clear", opts.ClearExisting, "batch_size", batchSize, "conflict_key", key)

	r := opts.Reader
	if r == nil {
		if opts.Path == "" {
			return nil, &ValidationError{Field: "path", Message: "is required"}
		}
		f, err := os.Open(opts.Path)
		if err != nil {
			return nil, fmt.Errorf("open csv: %w", err)
		}
		defer f.Close()
		r = f
	}

	counter := &countingReader{r: r}
	claims, err := ReadClaims(counter)
	result.Bytes = counter.n
	if err != nil {
		logger.Error("import parse failed", "error", err)
		return nil, err
	}
	result.Loaded = len(claims)
	logger.Info("csv loaded", "rows", len(claims), "bytes", result.Bytes)

	if opts.ClearExisting {
		n, err := s.store.DeleteAllClaims(ctx)
		if err != nil {
			logger.Error("import clear failed", "error", err)
			return nil, err
		}
		result.Cleared = n
		logger.Warn("existing claims cleared", "deleted", n)
	}

	written, err := WriteBatches(ctx, s.store, claims, WriteOptions{
		BatchSize:   batchSize,
		ConflictKey: key,
		Now:         s.clock,
		Progress: func(p BatchProgress) {
			logger.Info("batch committed", "batch", p.Batch, "batches", p.Batches, "imported", p.Imported, "total", p.Total)
		},
	})
	result.Imported = written.Imported
	result.Batches = written.Batches
	if err != nil {
		logger.Error("import failed", "error", err, "imported", written.Imported)
		return result, err
	}

	logger.Info("import completed", "imported", result.Imported, "batches", result.Batches, "duration", time.Since(start))
	return result, nil
}

// ImportStatus reports the import limiter state.
func (s *Service) ImportStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until running imports finish or ctx is done.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// IsImportBusy reports whether err means no import slot was free.
func IsImportBusy(err error) bool {
	return errors.Is(err, ErrImportInProgress)
}
