package core

// loader.go parses the claims CSV export into validated Claim values.
//
// The file carries one header row followed by positional data rows. Columns
// are read by position, not by header name, so reordered exports are rejected
// by the first conversion or bounds check that fails. Loading is all or
// nothing: the first bad row aborts with a *ParseError and no claims are
// returned.

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// Positional CSV columns.
const (
	colPolicyID = iota
	colClaimID
	colCustomerAge
	colCustomerGender
	colCustomerState
	colVehicleMake
	colVehicleModel
	colVehicleYear
	colClaimDate
	colClaimType
	colClaimAmount
	colDeductible
	colClaimStatus
	colAnnualPremium
	colIsFraud

	// CSVFieldCount is the minimum number of fields per data row.
	CSVFieldCount
)

// CSVColumns names the positional columns, in file order.
var CSVColumns = [CSVFieldCount]string{
	"policy_id", "claim_id", "customer_age", "customer_gender", "customer_state",
	"vehicle_make", "vehicle_model", "vehicle_year", "claim_date", "claim_type",
	"claim_amount", "deductible", "claim_status", "annual_premium", "is_fraud",
}

// LoadFile opens path and parses it with ReadClaims.
func LoadFile(path string) ([]Claim, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	return ReadClaims(f)
}

// ReadClaims parses a claims CSV stream. The header row is skipped; every
// other row must carry at least CSVFieldCount fields and pass Claim.Validate.
func ReadClaims(r io.Reader) ([]Claim, error) {
	r, err := SkipBOM(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return []Claim{}, nil
		}
		return nil, &ParseError{Line: 1, Err: err}
	}

	claims := make([]Claim, 0, 256)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			pe := &ParseError{Err: err}
			var csvErr *csv.ParseError
			if errors.As(err, &csvErr) {
				pe.Line = csvErr.StartLine
			}
			return nil, pe
		}
		line, _ := reader.FieldPos(0)

		claim, perr := parseRecord(record)
		if perr != nil {
			perr.Line = line
			return nil, perr
		}
		claims = append(claims, claim)
	}

	return claims, nil
}

// parseRecord converts one data row. The returned *ParseError has no line set.
func parseRecord(record []string) (Claim, *ParseError) {
	if len(record) < CSVFieldCount {
		return Claim{}, &ParseError{Err: fmt.Errorf("expected at least %d fields, got %d", CSVFieldCount, len(record))}
	}

	fail := func(col int, err error) (Claim, *ParseError) {
		return Claim{}, &ParseError{Column: CSVColumns[col], Err: err}
	}

	c := Claim{
		PolicyID:       record[colPolicyID],
		ClaimID:        record[colClaimID],
		CustomerGender: record[colCustomerGender],
		CustomerState:  record[colCustomerState],
		VehicleMake:    record[colVehicleMake],
		VehicleModel:   record[colVehicleModel],
		ClaimType:      record[colClaimType],
		ClaimStatus:    record[colClaimStatus],
		IsFraud:        ParseFraudFlag(record[colIsFraud]),
	}

	var err error
	if c.CustomerAge, err = ParseInt(record[colCustomerAge]); err != nil {
		return fail(colCustomerAge, err)
	}
	if c.VehicleYear, err = ParseInt(record[colVehicleYear]); err != nil {
		return fail(colVehicleYear, err)
	}
	if c.ClaimDate, err = ParseCSVTimestamp(record[colClaimDate]); err != nil {
		return fail(colClaimDate, err)
	}
	if c.ClaimAmount, err = ParseMoney(record[colClaimAmount]); err != nil {
		return fail(colClaimAmount, err)
	}
	if c.Deductible, err = ParseInt(record[colDeductible]); err != nil {
		return fail(colDeductible, err)
	}
	if c.AnnualPremium, err = ParseMoney(record[colAnnualPremium]); err != nil {
		return fail(colAnnualPremium, err)
	}

	if err := c.Validate(); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			return Claim{}, &ParseError{Column: ve.Field, Err: err}
		}
		return Claim{}, &ParseError{Err: err}
	}

	return c, nil
}
