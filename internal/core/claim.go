package core

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Field bounds enforced on every write. Values outside them are rejected, never clamped.
const (
	MaxIDLength        = 20
	MaxVehicleLength   = 50
	MaxClaimTypeLength = 50
	MaxStatusLength    = 30
	StateCodeLength    = 2

	MinCustomerAge = 18
	MaxCustomerAge = 120
	MinVehicleYear = 1900
	MaxVehicleYear = 2030
)

// MoneyScale is the number of fractional digits kept for monetary fields.
const MoneyScale = 2

// maxMoney is the exclusive upper bound of a NUMERIC(12,2) column.
var maxMoney = decimal.New(1, 10)

// Claim is a single insurance claim record.
type Claim struct {
	ClaimID        string
	PolicyID       string
	CustomerAge    int
	CustomerGender string
	CustomerState  string
	VehicleMake    string
	VehicleModel   string
	VehicleYear    int
	ClaimDate      time.Time
	ClaimType      string
	ClaimAmount    decimal.Decimal
	Deductible     int
	ClaimStatus    string
	AnnualPremium  decimal.Decimal
	IsFraud        bool

	// CreatedAt is set once when the record is first inserted.
	CreatedAt time.Time

	// UpdatedAt is nil until the first mutation.
	UpdatedAt *time.Time
}

// NormalizeMoney rounds a monetary value to two fractional digits.
func NormalizeMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// Normalize re-types monetary fields and converts timestamps to UTC.
func (c *Claim) Normalize() {
	c.ClaimAmount = NormalizeMoney(c.ClaimAmount)
	c.AnnualPremium = NormalizeMoney(c.AnnualPremium)
	c.ClaimDate = c.ClaimDate.UTC()
	if !c.CreatedAt.IsZero() {
		c.CreatedAt = c.CreatedAt.UTC()
	}
	if c.UpdatedAt != nil {
		u := c.UpdatedAt.UTC()
		c.UpdatedAt = &u
	}
}

// Validate checks every field bound and returns the first violation as a
// *ValidationError.
func (c *Claim) Validate() error {
	if err := checkText("claim_id", c.ClaimID, 1, MaxIDLength); err != nil {
		return err
	}
	if err := checkText("policy_id", c.PolicyID, 1, MaxIDLength); err != nil {
		return err
	}
	if err := checkRange("customer_age", c.CustomerAge, MinCustomerAge, MaxCustomerAge); err != nil {
		return err
	}
	if c.CustomerGender != "M" && c.CustomerGender != "F" {
		return &ValidationError{Field: "customer_gender", Value: c.CustomerGender, Message: `must be "M" or "F"`}
	}
	if n := utf8.RuneCountInString(c.CustomerState); n != StateCodeLength {
		return &ValidationError{Field: "customer_state", Value: c.CustomerState,
			Message: fmt.Sprintf("must be a %d-character code", StateCodeLength)}
	}
	if err := checkText("vehicle_make", c.VehicleMake, 0, MaxVehicleLength); err != nil {
		return err
	}
	if err := checkText("vehicle_model", c.VehicleModel, 0, MaxVehicleLength); err != nil {
		return err
	}
	if err := checkRange("vehicle_year", c.VehicleYear, MinVehicleYear, MaxVehicleYear); err != nil {
		return err
	}
	if c.ClaimDate.IsZero() {
		return &ValidationError{Field: "claim_date", Message: "is required"}
	}
	if err := checkText("claim_type", c.ClaimType, 1, MaxClaimTypeLength); err != nil {
		return err
	}
	if err := checkMoney("claim_amount", c.ClaimAmount); err != nil {
		return err
	}
	if c.Deductible < 0 {
		return &ValidationError{Field: "deductible", Value: fmt.Sprint(c.Deductible), Message: "must be >= 0"}
	}
	if err := checkText("claim_status", c.ClaimStatus, 1, MaxStatusLength); err != nil {
		return err
	}
	if err := checkMoney("annual_premium", c.AnnualPremium); err != nil {
		return err
	}
	if c.UpdatedAt != nil && !c.CreatedAt.IsZero() && c.UpdatedAt.Before(c.CreatedAt) {
		return &ValidationError{Field: "updated_at", Value: c.UpdatedAt.Format(time.RFC3339Nano),
			Message: "must not be before created_at"}
	}
	return nil
}

func checkText(field, v string, minLen, maxLen int) error {
	n := utf8.RuneCountInString(v)
	if minLen > 0 && strings.TrimSpace(v) == "" {
		return &ValidationError{Field: field, Value: v, Message: "is required"}
	}
	if n > maxLen {
		return &ValidationError{Field: field, Value: v, Message: fmt.Sprintf("must be at most %d characters", maxLen)}
	}
	return nil
}

func checkRange(field string, v, lo, hi int) error {
	if v < lo || v > hi {
		return &ValidationError{Field: field, Value: fmt.Sprint(v), Message: fmt.Sprintf("must be between %d and %d", lo, hi)}
	}
	return nil
}

func checkMoney(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return &ValidationError{Field: field, Value: v.String(), Message: "must be >= 0"}
	}
	if v.GreaterThanOrEqual(maxMoney) {
		return &ValidationError{Field: field, Value: v.String(), Message: "exceeds 9999999999.99"}
	}
	return nil
}

// ClaimPatch carries the fields of a partial update. Nil fields are left untouched.
// ClaimID and CreatedAt are immutable and therefore absent.
type ClaimPatch struct {
	PolicyID       *string
	CustomerAge    *int
	CustomerGender *string
	CustomerState  *string
	VehicleMake    *string
	VehicleModel   *string
	VehicleYear    *int
	ClaimDate      *time.Time
	ClaimType      *string
	ClaimAmount    *decimal.Decimal
	Deductible     *int
	ClaimStatus    *string
	AnnualPremium  *decimal.Decimal
	IsFraud        *bool
}

// Empty reports whether the patch supplies no fields.
func (p ClaimPatch) Empty() bool {
	return p == ClaimPatch{}
}

// Apply copies every supplied field onto c. Monetary fields are rounded to two
// fractional digits. Apply does not validate or stamp UpdatedAt.
func (p ClaimPatch) Apply(c *Claim) {
	if p.PolicyID != nil {
		c.PolicyID = *p.PolicyID
	}
	if p.CustomerAge != nil {
		c.CustomerAge = *p.CustomerAge
	}
	if p.CustomerGender != nil {
		c.CustomerGender = *p.CustomerGender
	}
	if p.CustomerState != nil {
		c.CustomerState = *p.CustomerState
	}
	if p.VehicleMake != nil {
		c.VehicleMake = *p.VehicleMake
	}
	if p.VehicleModel != nil {
		c.VehicleModel = *p.VehicleModel
	}
	if p.VehicleYear != nil {
		c.VehicleYear = *p.VehicleYear
	}
	if p.ClaimDate != nil {
		c.ClaimDate = p.ClaimDate.UTC()
	}
	if p.ClaimType != nil {
		c.ClaimType = *p.ClaimType
	}
	if p.ClaimAmount != nil {
		c.ClaimAmount = NormalizeMoney(*p.ClaimAmount)
	}
	if p.Deductible != nil {
		c.Deductible = *p.Deductible
	}
	if p.ClaimStatus != nil {
		c.ClaimStatus = *p.ClaimStatus
	}
	if p.AnnualPremium != nil {
		c.AnnualPremium = NormalizeMoney(*p.AnnualPremium)
	}
	if p.IsFraud != nil {
		c.IsFraud = *p.IsFraud
	}
}
