package matching

import (
	"math"
	"strings"

	"docmatch/internal/queue"
	"docmatch/internal/textutil"
	"docmatch/internal/variance"
)

// Evaluate matches a document set under policy. Sets missing any document
// return Complete=false and no issues. Malformed numeric fields return a
// *ComparisonError before any comparison runs.
func Evaluate(set queue.DocumentSet, policy variance.Policy) (Result, error) {
	if !set.DocumentsPresent().Complete() {
		return Result{Complete: false}, nil
	}
	for _, doc := range set.Documents() {
		if err := checkDocument(doc); err != nil {
			return Result{}, err
		}
	}

	result := Result{Complete: true}
	for _, pair := range Pairs {
		expected := set.Slot(pair.Expected)
		actual := set.Slot(pair.Actual)
		result.Issues = append(result.Issues, compareDocuments(pair, expected, actual, policy)...)
	}
	return result, nil
}

func compareDocuments(pair Pair, expected, actual *queue.Document, policy variance.Policy) []Issue {
	var issues []Issue
	pairs, unmatchedExpected, unmatchedActual := pairLineItems(expected.LineItems, actual.LineItems, policy.LineItemMatchThreshold)
	for _, p := range pairs {
		issues = append(issues, CompareLineItems(pair, expected.LineItems[p.expected], actual.LineItems[p.actual], policy)...)
	}
	for _, idx := range unmatchedExpected {
		item := expected.LineItems[idx]
		issues = append(issues, missingCounterpart(pair, item, item.Quantity, 0))
	}
	for _, idx := range unmatchedActual {
		item := actual.LineItems[idx]
		issues = append(issues, missingCounterpart(pair, item, 0, item.Quantity))
	}
	issues = append(issues, CompareTotals(pair, expected, actual, policy)...)
	return issues
}

func missingCounterpart(pair Pair, item queue.LineItem, expectedQty, actualQty float64) Issue {
	return Issue{
		Severity:           SeverityMajor,
		Field:              FieldQuantity,
		Pair:               pair,
		SKU:                item.SKU,
		Description:        item.Description,
		Expected:           expectedQty,
		Actual:             actualQty,
		Delta:              math.Abs(expectedQty - actualQty),
		MissingCounterpart: true,
	}
}

type linePair struct {
	expected int
	actual   int
}

// pairLineItems pairs items by SKU first (case-insensitive, first unused
// match), then pairs the rest by best description similarity at or above
// threshold. Ties go to the smallest total-price difference, then to the
// earliest position.
func pairLineItems(expected, actual []queue.LineItem, threshold int) ([]linePair, []int, []int) {
	usedActual := make([]bool, len(actual))
	matchedExpected := make([]bool, len(expected))
	var pairs []linePair

	for i, item := range expected {
		sku := normalizeSKU(item.SKU)
		if sku == "" {
			continue
		}
		for j, candidate := range actual {
			if usedActual[j] || normalizeSKU(candidate.SKU) != sku {
				continue
			}
			usedActual[j] = true
			matchedExpected[i] = true
			pairs = append(pairs, linePair{expected: i, actual: j})
			break
		}
	}

	for i, item := range expected {
		if matchedExpected[i] {
			continue
		}
		best := -1
		bestScore := -1
		bestDelta := math.Inf(1)
		for j, candidate := range actual {
			if usedActual[j] {
				continue
			}
			score := textutil.Similarity(item.Description, candidate.Description)
			if score < threshold {
				continue
			}
			delta := math.Abs(item.TotalPrice - candidate.TotalPrice)
			if score > bestScore || (score == bestScore && delta < bestDelta) {
				best, bestScore, bestDelta = j, score, delta
			}
		}
		if best >= 0 {
			usedActual[best] = true
			matchedExpected[i] = true
			pairs = append(pairs, linePair{expected: i, actual: best})
		}
	}

	var unmatchedExpected, unmatchedActual []int
	for i, ok := range matchedExpected {
		if !ok {
			unmatchedExpected = append(unmatchedExpected, i)
		}
	}
	for j, ok := range usedActual {
		if !ok {
			unmatchedActual = append(unmatchedActual, j)
		}
	}
	return pairs, unmatchedExpected, unmatchedActual
}

func normalizeSKU(sku string) string {
	return strings.ToLower(strings.TrimSpace(sku))
}

func checkDocument(doc *queue.Document) error {
	if err := checkValue(doc, 0, FieldTotalAmount, doc.TotalAmount); err != nil {
		return err
	}
	for i, item := range doc.LineItems {
		fields := []struct {
			field Field
			value float64
		}{
			{FieldQuantity, item.Quantity},
			{FieldUnitPrice, item.UnitPrice},
			{FieldTotalAmount, item.TotalPrice},
		}
		for _, f := range fields {
			if err := checkValue(doc, i+1, f.field, f.value); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkValue(doc *queue.Document, line int, field Field, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return &ComparisonError{
			Kind:       doc.Kind,
			DocumentID: doc.ID,
			Line:       line,
			Field:      field,
			Value:      value,
		}
	}
	return nil
}
