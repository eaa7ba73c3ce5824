package core

import (
	"context"

	"github.com/shopspring/decimal"
)

// Summary aggregates the whole claims table.
type Summary struct {
	TotalClaims           int64
	TotalAmount           decimal.Decimal
	AvgAmount             decimal.Decimal
	FraudCount            int64
	FraudPercentage       decimal.Decimal
	StatusDistribution    map[string]int64
	ClaimTypeDistribution map[string]int64
}

// summaryBuilder accumulates claims one at a time so a summary can be built
// from a streaming scan.
type summaryBuilder struct {
	count    int64
	fraud    int64
	total    decimal.Decimal
	byStatus map[string]int64
	byType   map[string]int64
}

func newSummaryBuilder() *summaryBuilder {
	return &summaryBuilder{
		total:    decimal.Zero,
		byStatus: make(map[string]int64),
		byType:   make(map[string]int64),
	}
}

func (b *summaryBuilder) add(c Claim) {
	b.count++
	b.total = b.total.Add(c.ClaimAmount)
	if c.IsFraud {
		b.fraud++
	}
	b.byStatus[c.ClaimStatus]++
	b.byType[c.ClaimType]++
}

func (b *summaryBuilder) summary() Summary {
	s := Summary{
		TotalClaims:           b.count,
		TotalAmount:           NormalizeMoney(b.total),
		AvgAmount:             decimal.Zero,
		FraudCount:            b.fraud,
		FraudPercentage:       decimal.Zero,
		StatusDistribution:    b.byStatus,
		ClaimTypeDistribution: b.byType,
	}
	if b.count > 0 {
		n := decimal.NewFromInt(b.count)
		s.AvgAmount = NormalizeMoney(b.total.Div(n))
		s.FraudPercentage = decimal.NewFromInt(b.fraud).Mul(decimal.NewFromInt(100)).Div(n).Round(2)
	}
	return s
}

// Summary computes aggregate statistics with a full scan of the store.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	b := newSummaryBuilder()
	err := s.store.ScanClaims(ctx, func(c Claim) error {
		b.add(c)
		return nil
	})
	if err != nil {
		return Summary{}, err
	}
	return b.summary(), nil
}
