package queue

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const setColumns = "id, vendor, po_number, total_amount, status, verification, issues_major, issues_minor, days_in_queue, priority_flag, assigned_to, review_note, error_message, queued_at, last_activity_at, version"

const documentColumns = "id, set_id, kind, document_number, vendor, total_amount, line_items_json, approved_for_match"

func scanSet(scanner interface{ Scan(dest ...any) error }) (*DocumentSet, error) {
	var (
		id              string
		vendor          string
		poNumber        sql.NullString
		totalAmount     float64
		statusStr       string
		verification    sql.NullString
		issuesMajor     int
		issuesMinor     int
		daysInQueue     int
		priorityFlag    string
		assignedTo      sql.NullString
		reviewNote      sql.NullString
		errorMessage    sql.NullString
		queuedRaw       sql.NullString
		lastActivityRaw sql.NullString
		version         int
	)
	if err := scanner.Scan(
		&id,
		&vendor,
		&poNumber,
		&totalAmount,
		&statusStr,
		&verification,
		&issuesMajor,
		&issuesMinor,
		&daysInQueue,
		&priorityFlag,
		&assignedTo,
		&reviewNote,
		&errorMessage,
		&queuedRaw,
		&lastActivityRaw,
		&version,
	); err != nil {
		return nil, err
	}

	set := &DocumentSet{
		ID:           id,
		Vendor:       vendor,
		PONumber:     poNumber.String,
		TotalAmount:  totalAmount,
		Status:       Status(statusStr),
		Verification: Verification(verification.String),
		Issues:       IssueCounts{Major: issuesMajor, Minor: issuesMinor},
		DaysInQueue:  daysInQueue,
		PriorityFlag: Priority(priorityFlag),
		AssignedTo:   assignedTo.String,
		ReviewNote:   reviewNote.String,
		ErrorMessage: errorMessage.String,
		Version:      version,
	}
	if queued, err := parseTimeString(queuedRaw.String); err == nil {
		set.QueuedAt = queued
	}
	if last, err := parseTimeString(lastActivityRaw.String); err == nil {
		set.LastActivityAt = last
	}
	return set, nil
}

func scanDocument(scanner interface{ Scan(dest ...any) error }) (string, *Document, error) {
	var (
		id             string
		setID          string
		kind           string
		documentNumber sql.NullString
		vendor         sql.NullString
		totalAmount    float64
		lineItemsJSON  string
		approved       int
	)
	if err := scanner.Scan(&id, &setID, &kind, &documentNumber, &vendor, &totalAmount, &lineItemsJSON, &approved); err != nil {
		return "", nil, err
	}
	doc := &Document{
		ID:               id,
		Kind:             DocumentKind(kind),
		DocumentNumber:   documentNumber.String,
		Vendor:           vendor.String,
		TotalAmount:      totalAmount,
		ApprovedForMatch: approved != 0,
	}
	if err := json.Unmarshal([]byte(lineItemsJSON), &doc.LineItems); err != nil {
		return "", nil, fmt.Errorf("decode line items for document %s: %w", id, err)
	}
	return setID, doc, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value time.Time) any {
	if value.IsZero() {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
