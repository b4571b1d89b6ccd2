package matching

import (
	"docmatch/internal/queue"
	"docmatch/internal/textutil"
	"docmatch/internal/variance"
)

// CompareLineItems compares one paired line item. A description scoring
// below the policy threshold yields a single minor issue and the numeric
// fields are not compared.
func CompareLineItems(pair Pair, expected, actual queue.LineItem, policy variance.Policy) []Issue {
	score := textutil.Similarity(expected.Description, actual.Description)
	if score < policy.LineItemMatchThreshold {
		return []Issue{{
			Severity:    SeverityMinor,
			Field:       FieldDescription,
			Pair:        pair,
			SKU:         expected.SKU,
			Description: expected.Description,
			Expected:    float64(policy.LineItemMatchThreshold),
			Actual:      float64(score),
			Delta:       float64(policy.LineItemMatchThreshold - score),
		}}
	}

	var issues []Issue
	checks := []struct {
		field     Field
		tolerance variance.Tolerance
		expected  float64
		actual    float64
	}{
		{FieldQuantity, policy.Quantity, expected.Quantity, actual.Quantity},
		{FieldUnitPrice, policy.UnitPrice, expected.UnitPrice, actual.UnitPrice},
	}
	for _, check := range checks {
		breach := check.tolerance.Check(check.expected, check.actual)
		if !breach.Exceeded {
			continue
		}
		issues = append(issues, Issue{
			Severity:    severityOf(breach),
			Field:       check.field,
			Pair:        pair,
			SKU:         expected.SKU,
			Description: expected.Description,
			Expected:    check.expected,
			Actual:      check.actual,
			Delta:       breach.Delta,
		})
	}
	return issues
}

// CompareTotals applies the total-amount rule once to a document pair.
func CompareTotals(pair Pair, expected, actual *queue.Document, policy variance.Policy) []Issue {
	if expected == nil || actual == nil {
		return nil
	}
	breach := policy.TotalAmount.Check(expected.TotalAmount, actual.TotalAmount)
	if !breach.Exceeded {
		return nil
	}
	return []Issue{{
		Severity: severityOf(breach),
		Field:    FieldTotalAmount,
		Pair:     pair,
		Expected: expected.TotalAmount,
		Actual:   actual.TotalAmount,
		Delta:    breach.Delta,
	}}
}

func severityOf(b variance.Breach) Severity {
	if b.Major {
		return SeverityMajor
	}
	return SeverityMinor
}
