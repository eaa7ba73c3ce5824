package database

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/claims/internal/core"
	"github.com/jackc/pgx/v5"
)

var _ core.Store = (*Store)(nil)

const claimColumns = `claim_id, policy_id, customer_age, customer_gender, customer_state,
	vehicle_make, vehicle_model, vehicle_year, claim_date, claim_type,
	claim_amount, deductible, claim_status, annual_premium, is_fraud,
	created_at, updated_at`

const insertClaimSQL = `INSERT INTO insurance_claims (` + claimColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

const updateClaimSQL = `UPDATE insurance_claims SET
	policy_id = $2, customer_age = $3, customer_gender = $4, customer_state = $5,
	vehicle_make = $6, vehicle_model = $7, vehicle_year = $8, claim_date = $9,
	claim_type = $10, claim_amount = $11, deductible = $12, claim_status = $13,
	annual_premium = $14, is_fraud = $15, updated_at = $16
	WHERE claim_id = $1`

// upsertByClaimIDSQL relies on the primary key for conflict detection.
// Arguments: the 15 claim fields followed by now as $16.
const upsertByClaimIDSQL = `INSERT INTO insurance_claims (
		claim_id, policy_id, customer_age, customer_gender, customer_state,
		vehicle_make, vehicle_model, vehicle_year, claim_date, claim_type,
		claim_amount, deductible, claim_status, annual_premium, is_fraud, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	ON CONFLICT (claim_id) DO UPDATE SET
		claim_amount = EXCLUDED.claim_amount,
		claim_status = EXCLUDED.claim_status,
		annual_premium = EXCLUDED.annual_premium,
		is_fraud = EXCLUDED.is_fraud,
		updated_at = GREATEST($16, insurance_claims.created_at)`

// upsertByPolicyIDSQL matches on the non-unique policy_id, so ON CONFLICT is
// not available: every row carrying the policy id is updated, and the claim
// is inserted only when none matched. Parameters are cast explicitly because
// each is referenced from both statements.
const upsertByPolicyIDSQL = `WITH updated AS (
		UPDATE insurance_claims SET
			claim_amount = $11::numeric,
			claim_status = $13::text,
			annual_premium = $14::numeric,
			is_fraud = $15::boolean,
			updated_at = GREATEST($16::timestamptz, created_at)
		WHERE policy_id = $2::text
		RETURNING claim_id
	)
	INSERT INTO insurance_claims (
		claim_id, policy_id, customer_age, customer_gender, customer_state,
		vehicle_make, vehicle_model, vehicle_year, claim_date, claim_type,
		claim_amount, deductible, claim_status, annual_premium, is_fraud, created_at)
	SELECT $1::text, $2::text, $3::integer, $4::text, $5::text,
		$6::text, $7::text, $8::integer, $9::timestamptz, $10::text,
		$11::numeric, $12::integer, $13::text, $14::numeric, $15::boolean, $16::timestamptz
	WHERE NOT EXISTS (SELECT 1 FROM updated)`

func claimArgs(c core.Claim) []any {
	return []any{
		c.ClaimID, c.PolicyID, c.CustomerAge, c.CustomerGender, c.CustomerState,
		c.VehicleMake, c.VehicleModel, c.VehicleYear, c.ClaimDate, c.ClaimType,
		c.ClaimAmount, c.Deductible, c.ClaimStatus, c.AnnualPremium, c.IsFraud,
	}
}

func scanClaim(row pgx.Row) (core.Claim, error) {
	var c core.Claim
	err := row.Scan(
		&c.ClaimID, &c.PolicyID, &c.CustomerAge, &c.CustomerGender, &c.CustomerState,
		&c.VehicleMake, &c.VehicleModel, &c.VehicleYear, &c.ClaimDate, &c.ClaimType,
		&c.ClaimAmount, &c.Deductible, &c.ClaimStatus, &c.AnnualPremium, &c.IsFraud,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return core.Claim{}, err
	}
	c.Normalize()
	return c, nil
}

// buildListQuery renders the filtered, paginated list statement.
func buildListQuery(filter core.ClaimFilter) (string, []any) {
	wb := NewWhereBuilder()
	if filter.Status != nil {
		wb.Add("claim_status", *filter.Status)
	}
	if filter.IsFraud != nil {
		wb.Add("is_fraud", *filter.IsFraud)
	}
	if filter.MinAmount != nil {
		wb.AddComparison("claim_amount", ">=", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		wb.AddComparison("claim_amount", "<=", *filter.MaxAmount)
	}

	where, args := wb.Build()
	n := wb.NextArgIndex()
	query := "SELECT " + claimColumns + " FROM insurance_claims" + where +
		fmt.Sprintf(" ORDER BY claim_id LIMIT $%d OFFSET $%d", n, n+1)
	return query, append(args, filter.Limit, filter.Skip)
}

func (s *Store) GetClaim(ctx context.Context, claimID string) (core.Claim, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+claimColumns+" FROM insurance_claims WHERE claim_id = $1", claimID)
	c, err := scanClaim(row)
	if err != nil {
		return core.Claim{}, storeError("get claim", err)
	}
	return c, nil
}

func (s *Store) ListClaims(ctx context.Context, filter core.ClaimFilter) ([]core.Claim, error) {
	query, args := buildListQuery(filter)
	claims, err := queryClaims(ctx, s.pool, query, args...)
	if err != nil {
		return nil, storeError("list claims", err)
	}
	return claims, nil
}

func queryClaims(ctx context.Context, db DBTX, query string, args ...any) ([]core.Claim, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	claims := []core.Claim{}
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

func (s *Store) CountClaims(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM insurance_claims").Scan(&n); err != nil {
		return 0, storeError("count claims", err)
	}
	return n, nil
}

// ScanClaims streams every row through fn without buffering the table.
func (s *Store) ScanClaims(ctx context.Context, fn func(core.Claim) error) error {
	rows, err := s.pool.Query(ctx, "SELECT "+claimColumns+" FROM insurance_claims ORDER BY claim_id")
	if err != nil {
		return storeError("scan claims", err)
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return storeError("scan claims", err)
		}
		if err := fn(c); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return storeError("scan claims", err)
	}
	return nil
}

func (s *Store) InsertClaim(ctx context.Context, c core.Claim) error {
	args := append(claimArgs(c), c.CreatedAt, c.UpdatedAt)
	if _, err := s.pool.Exec(ctx, insertClaimSQL, args...); err != nil {
		return storeError("insert claim", err)
	}
	return nil
}

func (s *Store) UpdateClaim(ctx context.Context, c core.Claim) error {
	args := append(claimArgs(c), c.UpdatedAt)
	tag, err := s.pool.Exec(ctx, updateClaimSQL, args...)
	if err != nil {
		return storeError("update claim", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteClaim(ctx context.Context, claimID string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM insurance_claims WHERE claim_id = $1", claimID)
	if err != nil {
		return storeError("delete claim", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteAllClaims removes every row in one autocommitted statement.
func (s *Store) DeleteAllClaims(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM insurance_claims")
	if err != nil {
		return 0, storeError("clear claims", err)
	}
	return tag.RowsAffected(), nil
}

// UpsertClaims sends the whole batch in one round trip inside a transaction.
func (s *Store) UpsertClaims(ctx context.Context, batch []core.Claim, key core.ConflictKey, now time.Time) error {
	var query string
	switch key {
	case core.ConflictPolicyID:
		query = upsertByPolicyIDSQL
	case core.ConflictClaimID:
		query = upsertByClaimIDSQL
	default:
		return fmt.Errorf("unsupported conflict key %q", key)
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		b := &pgx.Batch{}
		for _, c := range batch {
			b.Queue(query, append(claimArgs(c), now)...)
		}

		results := tx.SendBatch(ctx, b)
		for i, c := range batch {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return fmt.Errorf("row %d (claim %s): %w", i+1, c.ClaimID, err)
			}
		}
		return results.Close()
	})
	if err != nil {
		return storeError("upsert claims", err)
	}
	return nil
}
