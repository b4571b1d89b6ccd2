package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const insertActivitySQL = `INSERT INTO set_activity (id, set_id, action, from_status, to_status, actor, note, occurred_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (s *Store) prepareActivity(entry Activity) (Activity, error) {
	if entry.SetID == "" {
		return Activity{}, errors.New("activity requires a set id")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.At.IsZero() {
		entry.At = s.now()
	}
	entry.At = entry.At.UTC()
	return entry, nil
}

func activityArgs(entry Activity) []any {
	return []any{
		entry.ID,
		entry.SetID,
		entry.Action,
		nullableString(string(entry.From)),
		nullableString(string(entry.To)),
		nullableString(entry.Actor),
		nullableString(entry.Note),
		entry.At.Format(time.RFC3339Nano),
	}
}

// Activity returns the audit trail for a set, oldest first.
func (s *Store) Activity(ctx context.Context, setID string) ([]Activity, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT id, set_id, action, COALESCE(from_status, ''), COALESCE(to_status, ''),
                COALESCE(actor, ''), COALESCE(note, ''), occurred_at
         FROM set_activity WHERE set_id = ? ORDER BY occurred_at, rowid`,
		setID,
	)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer rows.Close()

	var entries []Activity
	for rows.Next() {
		var (
			entry Activity
			at    string
		)
		if err := rows.Scan(&entry.ID, &entry.SetID, &entry.Action, &entry.From, &entry.To, &entry.Actor, &entry.Note, &at); err != nil {
			return nil, err
		}
		if parsed, err := parseTimeString(at); err == nil {
			entry.At = parsed
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
