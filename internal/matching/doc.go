// Package matching runs the three-way match over a document set.
//
// CompareLineItems and CompareTotals apply a variance policy to one pair of
// line items or documents. Evaluate pairs the line items of every document
// pair (PO against Invoice, PO against GRN, GRN against Invoice), compares
// them, and aggregates the resulting issues. Evaluation is a pure function of
// the set and the policy.
package matching
