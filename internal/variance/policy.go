package variance

import (
	"fmt"
	"math"
	"strings"
)

// Kind selects how a tolerance value is interpreted.
type Kind string

const (
	// Percentage tolerances are percent of the expected value.
	Percentage Kind = "percentage"
	// AbsoluteCount tolerances are whole units of quantity.
	AbsoluteCount Kind = "absolute_count"
	// AbsoluteAmount tolerances are currency units.
	AbsoluteAmount Kind = "absolute_amount"
)

// MajorMultiplier is the factor applied to a tolerance above which a breach is
// classified as major. It is intentionally not configurable.
const MajorMultiplier = 2.0

// epsilon absorbs float noise when comparing a delta with its tolerance so a
// delta of exactly the tolerance never breaches.
const epsilon = 1e-9

// Tolerance is the allowed deviation for one numeric field.
type Tolerance struct {
	Kind  Kind    `json:"kind" yaml:"kind"`
	Value float64 `json:"tolerance" yaml:"tolerance"`
}

// Policy is the complete variance configuration read by every matching pass.
type Policy struct {
	LineItemMatchThreshold int       `json:"lineItemMatchThreshold" yaml:"line_item_match_threshold"`
	Quantity               Tolerance `json:"quantityVariance" yaml:"quantity"`
	UnitPrice              Tolerance `json:"unitPriceVariance" yaml:"unit_price"`
	TotalAmount            Tolerance `json:"totalAmountVariance" yaml:"total_amount"`
}

// DefaultPolicy returns the tolerances used when configuration omits them.
func DefaultPolicy() Policy {
	return Policy{
		LineItemMatchThreshold: 85,
		Quantity:               Tolerance{Kind: Percentage, Value: 5},
		UnitPrice:              Tolerance{Kind: Percentage, Value: 10},
		TotalAmount:            Tolerance{Kind: Percentage, Value: 5},
	}
}

// ParseKind converts a configuration string into a Kind.
func ParseKind(value string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case Percentage:
		return Percentage, true
	case AbsoluteCount:
		return AbsoluteCount, true
	case AbsoluteAmount:
		return AbsoluteAmount, true
	default:
		return "", false
	}
}

// Validate checks ranges and kind compatibility and returns the policy
// unchanged when it is usable.
func Validate(p Policy) (Policy, error) {
	if p.LineItemMatchThreshold < 0 || p.LineItemMatchThreshold > 100 {
		return Policy{}, &ConfigError{
			Field:  "line_item_match_threshold",
			Reason: fmt.Sprintf("must be between 0 and 100, got %d", p.LineItemMatchThreshold),
			Err:    ErrOutOfRange,
		}
	}
	checks := []struct {
		field     string
		tolerance Tolerance
		allowed   []Kind
	}{
		{"quantity", p.Quantity, []Kind{Percentage, AbsoluteCount}},
		{"unit_price", p.UnitPrice, []Kind{Percentage, AbsoluteAmount}},
		{"total_amount", p.TotalAmount, []Kind{Percentage, AbsoluteAmount}},
	}
	for _, check := range checks {
		if err := validateTolerance(check.field, check.tolerance, check.allowed); err != nil {
			return Policy{}, err
		}
	}
	return p, nil
}

func validateTolerance(field string, t Tolerance, allowed []Kind) error {
	if _, ok := ParseKind(string(t.Kind)); !ok {
		return &ConfigError{Field: field + "_kind", Reason: fmt.Sprintf("unknown kind %q", t.Kind), Err: ErrOutOfRange}
	}
	permitted := false
	for _, kind := range allowed {
		if t.Kind == kind {
			permitted = true
			break
		}
	}
	if !permitted {
		return &ConfigError{Field: field + "_kind", Reason: fmt.Sprintf("kind %q not valid for %s", t.Kind, field), Err: ErrKindMismatch}
	}
	if math.IsNaN(t.Value) || math.IsInf(t.Value, 0) || t.Value < 0 {
		return &ConfigError{Field: field + "_tolerance", Reason: fmt.Sprintf("must be a non-negative number, got %v", t.Value), Err: ErrOutOfRange}
	}
	return nil
}
