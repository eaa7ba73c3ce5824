package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var testClaimDate = time.Date(2024, 1, 15, 10, 30, 0, 123456000, time.UTC)

const csvHeader = "policy_id,claim_id,customer_age,customer_gender,customer_state,vehicle_make,vehicle_model,vehicle_year,claim_date,claim_type,claim_amount,deductible,claim_status,annual_premium,is_fraud"

func validClaim() Claim {
	return Claim{
		ClaimID:        "CLM00000001",
		PolicyID:       "POL000001",
		CustomerAge:    35,
		CustomerGender: "M",
		CustomerState:  "CA",
		VehicleMake:    "Toyota",
		VehicleModel:   "Sedan",
		VehicleYear:    2020,
		ClaimDate:      testClaimDate,
		ClaimType:      "Collision",
		ClaimAmount:    decimal.RequireFromString("5000.00"),
		Deductible:     1000,
		ClaimStatus:    "Approved",
		AnnualPremium:  decimal.RequireFromString("1200.00"),
	}
}

// csvRow renders c in export column order.
func csvRow(c Claim) string {
	return strings.Join([]string{
		c.PolicyID, c.ClaimID, fmt.Sprint(c.CustomerAge), c.CustomerGender, c.CustomerState,
		c.VehicleMake, c.VehicleModel, fmt.Sprint(c.VehicleYear),
		c.ClaimDate.Format("2006-01-02 15:04:05.000000"), c.ClaimType,
		c.ClaimAmount.StringFixed(2), fmt.Sprint(c.Deductible), c.ClaimStatus,
		c.AnnualPremium.StringFixed(2), fmt.Sprint(c.IsFraud),
	}, ",")
}

func csvFile(rows ...string) string {
	return csvHeader + "\n" + strings.Join(rows, "\n") + "\n"
}

func ptr[T any](v T) *T {
	return &v
}
