package web

// handlers_common.go holds the request and response shapes shared by the
// claim handlers, and the parsers that turn query strings and bodies into
// core values. Parse failures are *core.ValidationError so they map to 422.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/claims/internal/core"
	"github.com/shopspring/decimal"
)

// maxJSONBody caps claim and chat request bodies.
const maxJSONBody = 1 << 20

// money renders a decimal as a bare JSON number with two fractional digits.
func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(core.MoneyScale))
}

// ClaimResponse is the JSON form of core.Claim.
type ClaimResponse struct {
	ClaimID        string      `json:"claim_id"`
	PolicyID       string      `json:"policy_id"`
	CustomerAge    int         `json:"customer_age"`
	CustomerGender string      `json:"customer_gender"`
	CustomerState  string      `json:"customer_state"`
	VehicleMake    string      `json:"vehicle_make"`
	VehicleModel   string      `json:"vehicle_model"`
	VehicleYear    int         `json:"vehicle_year"`
	ClaimDate      time.Time   `json:"claim_date"`
	ClaimType      string      `json:"claim_type"`
	ClaimAmount    json.Number `json:"claim_amount"`
	Deductible     int         `json:"deductible"`
	ClaimStatus    string      `json:"claim_status"`
	AnnualPremium  json.Number `json:"annual_premium"`
	IsFraud        bool        `json:"is_fraud"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      *time.Time  `json:"updated_at"`
}

func toClaimResponse(c core.Claim) ClaimResponse {
	return ClaimResponse{
		ClaimID:        c.ClaimID,
		PolicyID:       c.PolicyID,
		CustomerAge:    c.CustomerAge,
		CustomerGender: c.CustomerGender,
		CustomerState:  c.CustomerState,
		VehicleMake:    c.VehicleMake,
		VehicleModel:   c.VehicleModel,
		VehicleYear:    c.VehicleYear,
		ClaimDate:      c.ClaimDate,
		ClaimType:      c.ClaimType,
		ClaimAmount:    money(c.ClaimAmount),
		Deductible:     c.Deductible,
		ClaimStatus:    c.ClaimStatus,
		AnnualPremium:  money(c.AnnualPremium),
		IsFraud:        c.IsFraud,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

// ClaimRequest is the body of POST and PUT /claims. Every field is optional
// at the JSON level; create requires all but is_fraud, update applies only
// what is present. Timestamps managed by the server are not accepted.
type ClaimRequest struct {
	ClaimID        *string          `json:"claim_id"`
	PolicyID       *string          `json:"policy_id"`
	CustomerAge    *int             `json:"customer_age"`
	CustomerGender *string          `json:"customer_gender"`
	CustomerState  *string          `json:"customer_state"`
	VehicleMake    *string          `json:"vehicle_make"`
	VehicleModel   *string          `json:"vehicle_model"`
	VehicleYear    *int             `json:"vehicle_year"`
	ClaimDate      *string          `json:"claim_date"`
	ClaimType      *string          `json:"claim_type"`
	ClaimAmount    *decimal.Decimal `json:"claim_amount"`
	Deductible     *int             `json:"deductible"`
	ClaimStatus    *string          `json:"claim_status"`
	AnnualPremium  *decimal.Decimal `json:"annual_premium"`
	IsFraud        *bool            `json:"is_fraud"`
}

func missing(field string) error {
	return &core.ValidationError{Field: field, Message: "is required"}
}

// toClaim builds a new claim, reporting the first missing required field.
func (req ClaimRequest) toClaim() (core.Claim, error) {
	var c core.Claim
	strs := []struct {
		name string
		src  *string
		dst  *string
	}{
		{"claim_id", req.ClaimID, &c.ClaimID},
		{"policy_id", req.PolicyID, &c.PolicyID},
		{"customer_gender", req.CustomerGender, &c.CustomerGender},
		{"customer_state", req.CustomerState, &c.CustomerState},
		{"vehicle_make", req.VehicleMake, &c.VehicleMake},
		{"vehicle_model", req.VehicleModel, &c.VehicleModel},
		{"claim_type", req.ClaimType, &c.ClaimType},
		{"claim_status", req.ClaimStatus, &c.ClaimStatus},
	}
	for _, f := range strs {
		if f.src == nil {
			return core.Claim{}, missing(f.name)
		}
		*f.dst = *f.src
	}

	ints := []struct {
		name string
		src  *int
		dst  *int
	}{
		{"customer_age", req.CustomerAge, &c.CustomerAge},
		{"vehicle_year", req.VehicleYear, &c.VehicleYear},
		{"deductible", req.Deductible, &c.Deductible},
	}
	for _, f := range ints {
		if f.src == nil {
			return core.Claim{}, missing(f.name)
		}
		*f.dst = *f.src
	}

	if req.ClaimAmount == nil {
		return core.Claim{}, missing("claim_amount")
	}
	c.ClaimAmount = *req.ClaimAmount
	if req.AnnualPremium == nil {
		return core.Claim{}, missing("annual_premium")
	}
	c.AnnualPremium = *req.AnnualPremium

	if req.ClaimDate == nil {
		return core.Claim{}, missing("claim_date")
	}
	date, err := parseDate(*req.ClaimDate)
	if err != nil {
		return core.Claim{}, err
	}
	c.ClaimDate = date

	if req.IsFraud != nil {
		c.IsFraud = *req.IsFraud
	}
	return c, nil
}

// toPatch converts the present fields into a partial update. A claim_id in
// the body is ignored; the path names the claim.
func (req ClaimRequest) toPatch() (core.ClaimPatch, error) {
	patch := core.ClaimPatch{
		PolicyID:       req.PolicyID,
		CustomerAge:    req.CustomerAge,
		CustomerGender: req.CustomerGender,
		CustomerState:  req.CustomerState,
		VehicleMake:    req.VehicleMake,
		VehicleModel:   req.VehicleModel,
		VehicleYear:    req.VehicleYear,
		ClaimType:      req.ClaimType,
		ClaimAmount:    req.ClaimAmount,
		Deductible:     req.Deductible,
		ClaimStatus:    req.ClaimStatus,
		AnnualPremium:  req.AnnualPremium,
		IsFraud:        req.IsFraud,
	}
	if req.ClaimDate != nil {
		date, err := parseDate(*req.ClaimDate)
		if err != nil {
			return core.ClaimPatch{}, err
		}
		patch.ClaimDate = &date
	}
	return patch, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := core.ParseTimestamp(s)
	if err != nil {
		return time.Time{}, &core.ValidationError{Field: "claim_date", Value: s, Message: "must be an RFC 3339 timestamp"}
	}
	return t, nil
}

// decodeJSON reads a size-limited JSON body into v. Unknown fields are
// ignored; malformed JSON is a validation error on "body".
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return fmt.Errorf("request body over %d bytes: %w", maxJSONBody, core.ErrFileTooLarge)
		case errors.Is(err, io.EOF):
			return &core.ValidationError{Field: "body", Message: "is required"}
		default:
			return &core.ValidationError{Field: "body", Message: "must be valid JSON: " + err.Error()}
		}
	}
	return nil
}

// parseListFilter reads the GET /claims query. Both status and claim_status
// are accepted for the status filter; claim_status wins when both are set.
func parseListFilter(r *http.Request) (core.ClaimFilter, error) {
	q := r.URL.Query()
	var f core.ClaimFilter

	for _, name := range []string{"status", "claim_status"} {
		if v := q.Get(name); v != "" {
			f.Status = &v
		}
	}

	if v := q.Get("is_fraud"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, &core.ValidationError{Field: "is_fraud", Value: v, Message: "must be true or false"}
		}
		f.IsFraud = &b
	}

	for _, p := range []struct {
		name string
		dst  **decimal.Decimal
	}{
		{"min_amount", &f.MinAmount},
		{"max_amount", &f.MaxAmount},
	} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return f, &core.ValidationError{Field: p.name, Value: v, Message: "must be a number"}
		}
		*p.dst = &d
	}

	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"skip", &f.Skip},
		{"limit", &f.Limit},
	} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, &core.ValidationError{Field: p.name, Value: v, Message: "must be an integer"}
		}
		// The filter reads a zero limit as "default", so an explicit 0 is rejected here.
		if p.name == "limit" && n == 0 {
			return f, &core.ValidationError{Field: "limit", Value: v, Message: fmt.Sprintf("must be between 1 and %d", core.MaxLimit)}
		}
		*p.dst = n
	}

	return f, nil
}

// SummaryResponse is the JSON form of core.Summary.
type SummaryResponse struct {
	TotalClaims           int64            `json:"total_claims"`
	TotalAmount           json.Number      `json:"total_amount"`
	AvgAmount             json.Number      `json:"avg_amount"`
	FraudCount            int64            `json:"fraud_count"`
	FraudPercentage       json.Number      `json:"fraud_percentage"`
	StatusDistribution    map[string]int64 `json:"status_distribution"`
	ClaimTypeDistribution map[string]int64 `json:"claim_type_distribution"`
}

func toSummaryResponse(s core.Summary) SummaryResponse {
	return SummaryResponse{
		TotalClaims:           s.TotalClaims,
		TotalAmount:           money(s.TotalAmount),
		AvgAmount:             money(s.AvgAmount),
		FraudCount:            s.FraudCount,
		FraudPercentage:       money(s.FraudPercentage),
		StatusDistribution:    s.StatusDistribution,
		ClaimTypeDistribution: s.ClaimTypeDistribution,
	}
}

// ImportResponse is the JSON form of core.ImportResult.
type ImportResponse struct {
	ImportID   string `json:"import_id"`
	Source     string `json:"source"`
	Loaded     int    `json:"loaded"`
	Imported   int    `json:"imported"`
	Batches    int    `json:"batches"`
	Cleared    int64  `json:"cleared"`
	Bytes      int64  `json:"bytes"`
	DurationMS int64  `json:"duration_ms"`

	// Set only when a batch failed after earlier batches were committed.
	Error       string `json:"error,omitempty"`
	Action      string `json:"action,omitempty"`
	Code        string `json:"code,omitempty"`
	FailedBatch int    `json:"failed_batch,omitempty"`
}

func toImportResponse(res *core.ImportResult) ImportResponse {
	return ImportResponse{
		ImportID:   res.ImportID,
		Source:     res.Source,
		Loaded:     res.Loaded,
		Imported:   res.Imported,
		Batches:    res.Batches,
		Cleared:    res.Cleared,
		Bytes:      res.Bytes,
		DurationMS: res.Duration.Milliseconds(),
	}
}
