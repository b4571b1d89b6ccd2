package queue

import (
	"cmp"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"docmatch/internal/textutil"
)

// StatusFilter is the primary, mutually exclusive status selection.
type StatusFilter string

const (
	StatusFilterAll            StatusFilter = "all"
	StatusFilterIncomplete     StatusFilter = StatusFilter(StatusIncomplete)
	StatusFilterReadyForReview StatusFilter = StatusFilter(StatusReadyForReview)
	StatusFilterVerified       StatusFilter = StatusFilter(StatusVerified)
	StatusFilterRejected       StatusFilter = StatusFilter(StatusRejected)
)

// SmartFilter narrows the status selection. Smart filters compose by AND.
type SmartFilter string

const (
	SmartUrgent      SmartFilter = "urgent"
	SmartHighValue   SmartFilter = "high_value"
	SmartHasIssues   SmartFilter = "has_issues"
	SmartMissingDocs SmartFilter = "missing_docs"
)

// SortKey selects the ordering of the queue.
type SortKey string

const (
	SortPriority SortKey = "priority"
	SortAmount   SortKey = "amount"
	SortAge      SortKey = "age"
	SortVendor   SortKey = "vendor"
	SortIssues   SortKey = "issues"
)

// Direction of a sort.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 500
)

// DefaultDirection is the direction a key starts in when first selected.
func (k SortKey) DefaultDirection() Direction {
	if k == SortVendor {
		return Ascending
	}
	return Descending
}

// Sort pairs a key with a direction.
type Sort struct {
	Key       SortKey
	Direction Direction
}

// DefaultSort orders by priority score, highest first.
func DefaultSort() Sort {
	return Sort{Key: SortPriority, Direction: Descending}
}

// Toggle flips the direction when key is already selected and otherwise
// selects key in its default direction.
func (s Sort) Toggle(key SortKey) Sort {
	if s.Key == key {
		if s.Direction == Ascending {
			return Sort{Key: key, Direction: Descending}
		}
		return Sort{Key: key, Direction: Ascending}
	}
	return Sort{Key: key, Direction: key.DefaultDirection()}
}

// Query describes one filter, search, sort, and paginate request.
type Query struct {
	Status   StatusFilter
	Smart    []SmartFilter
	Search   string
	Sort     Sort
	Page     int
	PageSize int
}

// Ranked is a set positioned in the sorted, filtered queue.
type Ranked struct {
	Set   DocumentSet
	Rank  int
	Score int
}

// Result is one page of the queue.
type Result struct {
	Items      []Ranked
	TotalCount int
	TotalPages int
	Page       int
	PageSize   int
}

// normalized fills defaults and rejects malformed parameters.
func (q Query) normalized() (Query, error) {
	if q.Status == "" {
		q.Status = StatusFilterAll
	}
	switch q.Status {
	case StatusFilterAll, StatusFilterIncomplete, StatusFilterReadyForReview, StatusFilterVerified, StatusFilterRejected:
	default:
		return q, &FilterError{Param: "status", Value: string(q.Status)}
	}
	for _, smart := range q.Smart {
		switch smart {
		case SmartUrgent, SmartHighValue, SmartHasIssues, SmartMissingDocs:
		default:
			return q, &FilterError{Param: "filter", Value: string(smart)}
		}
	}
	if q.Sort.Key == "" {
		q.Sort.Key = SortPriority
	}
	switch q.Sort.Key {
	case SortPriority, SortAmount, SortAge, SortVendor, SortIssues:
	default:
		return q, &FilterError{Param: "sort", Value: string(q.Sort.Key)}
	}
	if q.Sort.Direction == "" {
		q.Sort.Direction = q.Sort.Key.DefaultDirection()
	}
	if q.Sort.Direction != Ascending && q.Sort.Direction != Descending {
		return q, &FilterError{Param: "direction", Value: string(q.Sort.Direction)}
	}
	if q.PageSize == 0 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize < 0 || q.PageSize > MaxPageSize {
		return q, &FilterError{Param: "page_size", Value: strconv.Itoa(q.PageSize)}
	}
	q.Search = strings.TrimSpace(q.Search)
	return q, nil
}

// Run filters, searches, sorts, and paginates sets. The input slice and its
// sets are never modified.
func Run(sets []DocumentSet, q Query) (Result, error) {
	q, err := q.normalized()
	if err != nil {
		return Result{}, err
	}

	matched := make([]DocumentSet, 0, len(sets))
	for _, set := range sets {
		if q.matches(set) {
			matched = append(matched, set)
		}
	}

	less := comparator(q.Sort.Key)
	slices.SortStableFunc(matched, func(a, b DocumentSet) int {
		if q.Sort.Direction == Descending {
			return less(b, a)
		}
		return less(a, b)
	})

	total := len(matched)
	totalPages := (total + q.PageSize - 1) / q.PageSize
	page := min(max(q.Page, 1), max(totalPages, 1))

	start := min((page-1)*q.PageSize, total)
	end := min(start+q.PageSize, total)
	items := make([]Ranked, 0, end-start)
	for i := start; i < end; i++ {
		items = append(items, Ranked{
			Set:   matched[i].Clone(),
			Rank:  i + 1,
			Score: PriorityScore(matched[i]),
		})
	}
	return Result{
		Items:      items,
		TotalCount: total,
		TotalPages: totalPages,
		Page:       page,
		PageSize:   q.PageSize,
	}, nil
}

func (q Query) matches(set DocumentSet) bool {
	if q.Status != StatusFilterAll && StatusFilter(set.Status) != q.Status {
		return false
	}
	for _, smart := range q.Smart {
		if !smartMatches(smart, set) {
			return false
		}
	}
	if q.Search == "" {
		return true
	}
	return textutil.ContainsFold(set.Vendor, q.Search) || textutil.ContainsFold(set.PONumber, q.Search)
}

func smartMatches(filter SmartFilter, set DocumentSet) bool {
	switch filter {
	case SmartUrgent:
		return set.DaysInQueue > urgentAgeDays || set.PriorityFlag == PriorityHigh
	case SmartHighValue:
		return set.TotalAmount > highValueAmount
	case SmartHasIssues:
		return set.Issues.Major > 0 || set.Issues.Minor > 0
	case SmartMissingDocs:
		present := set.DocumentsPresent()
		return !present.PurchaseOrder || !present.GoodsReceipt
	default:
		return false
	}
}

// comparator returns the ascending ordering for key.
func comparator(key SortKey) func(a, b DocumentSet) int {
	switch key {
	case SortAmount:
		return func(a, b DocumentSet) int { return cmp.Compare(a.TotalAmount, b.TotalAmount) }
	case SortAge:
		return func(a, b DocumentSet) int { return cmp.Compare(a.DaysInQueue, b.DaysInQueue) }
	case SortVendor:
		return func(a, b DocumentSet) int { return cmp.Compare(a.Vendor, b.Vendor) }
	case SortIssues:
		return func(a, b DocumentSet) int { return cmp.Compare(a.Issues.Total(), b.Issues.Total()) }
	default:
		return func(a, b DocumentSet) int {
			if c := cmp.Compare(PriorityScore(a), PriorityScore(b)); c != 0 {
				return c
			}
			return cmp.Compare(a.DaysInQueue, b.DaysInQueue)
		}
	}
}

// ParseQuery builds a Query from string parameters as they arrive from the
// command line or an HTTP request. Recognized keys: status, filter (repeated
// or comma separated), search, sort, dir, page, page_size. Each sort value
// is applied with Sort.Toggle, so repeating a key flips its direction; an
// explicit dir wins over the toggled direction.
func ParseQuery(values url.Values) (Query, error) {
	q := Query{
		Status: StatusFilter(normalizeParam(values.Get("status"))),
		Search: values.Get("search"),
	}
	for _, raw := range values["sort"] {
		if key := SortKey(normalizeParam(raw)); key != "" {
			q.Sort = q.Sort.Toggle(key)
		}
	}
	if dir := normalizeParam(values.Get("dir")); dir != "" {
		q.Sort.Direction = Direction(dir)
	}
	for _, raw := range values["filter"] {
		for _, part := range strings.Split(raw, ",") {
			if part = normalizeParam(part); part != "" {
				q.Smart = append(q.Smart, SmartFilter(part))
			}
		}
	}
	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return Query{}, &FilterError{Param: "page", Value: raw}
		}
		q.Page = page
	}
	if raw := strings.TrimSpace(values.Get("page_size")); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 {
			return Query{}, &FilterError{Param: "page_size", Value: raw}
		}
		q.PageSize = size
	}
	return q.normalized()
}

func normalizeParam(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	return strings.ReplaceAll(value, "-", "_")
}
