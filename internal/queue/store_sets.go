package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Insert persists a new document set together with its documents. Missing
// identifiers are generated; an empty status starts the set as incomplete.
func (s *Store) Insert(ctx context.Context, set *DocumentSet) error {
	if set == nil {
		return errors.New("document set is nil")
	}
	now := s.now().UTC()
	s.prepareInsert(set, now)
	if err := s.withTx(ctx, func(tx *sql.Tx) error {
		return insertSet(ctx, tx, set, now)
	}); err != nil {
		return fmt.Errorf("insert document set %s: %w", set.ID, err)
	}
	return nil
}

// InsertAll persists every set and the audit entry activity builds for it in
// one transaction. Either all sets are written or none are.
func (s *Store) InsertAll(ctx context.Context, sets []DocumentSet, activity func(DocumentSet) Activity) ([]DocumentSet, []Activity, error) {
	now := s.now().UTC()
	out := make([]DocumentSet, len(sets))
	entries := make([]Activity, len(sets))
	for i := range sets {
		out[i] = sets[i].Clone()
		s.prepareInsert(&out[i], now)
		entry, err := s.prepareActivity(activity(out[i]))
		if err != nil {
			return nil, nil, err
		}
		entries[i] = entry
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for i := range out {
			if err := insertSet(ctx, tx, &out[i], now); err != nil {
				return fmt.Errorf("insert document set %s: %w", out[i].ID, err)
			}
			if _, err := tx.ExecContext(ctx, insertActivitySQL, activityArgs(entries[i])...); err != nil {
				return fmt.Errorf("append activity for %s: %w", out[i].ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return out, entries, nil
}

func (s *Store) prepareInsert(set *DocumentSet, now time.Time) {
	if set.ID == "" {
		set.ID = uuid.NewString()
	}
	if set.Status == "" {
		set.Status = StatusIncomplete
	}
	if set.PriorityFlag == "" {
		set.PriorityFlag = PriorityLow
	}
	if set.QueuedAt.IsZero() {
		set.QueuedAt = now
	}
	if set.LastActivityAt.IsZero() {
		set.LastActivityAt = now
	}
	set.DaysInQueue = set.AgeAt(now)
	set.Version = 1
}

func insertSet(ctx context.Context, tx *sql.Tx, set *DocumentSet, now time.Time) error {
	timestamp := now.Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO document_sets (
            id, vendor, po_number, total_amount, status, verification,
            issues_major, issues_minor, days_in_queue, priority_flag,
            assigned_to, review_note, error_message, queued_at, last_activity_at,
            version, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		set.ID,
		set.Vendor,
		nullableString(set.PONumber),
		set.TotalAmount,
		set.Status,
		nullableString(string(set.Verification)),
		set.Issues.Major,
		set.Issues.Minor,
		set.DaysInQueue,
		set.PriorityFlag,
		nullableString(set.AssignedTo),
		nullableString(set.ReviewNote),
		nullableString(set.ErrorMessage),
		nullableTime(set.QueuedAt),
		nullableTime(set.LastActivityAt),
		set.Version,
		timestamp,
		timestamp,
	); err != nil {
		return err
	}
	return writeDocuments(ctx, tx, set)
}

// Update persists changes to an existing set, replacing its documents. The
// write only applies when the stored version still equals set.Version; a
// set changed by another writer yields a *StaleSetError. On success
// set.Version is advanced.
func (s *Store) Update(ctx context.Context, set *DocumentSet) error {
	if set == nil {
		return errors.New("document set is nil")
	}
	now := s.now().UTC()
	set.DaysInQueue = set.AgeAt(now)
	if err := s.withTx(ctx, func(tx *sql.Tx) error {
		return updateSet(ctx, tx, set, now)
	}); err != nil {
		return fmt.Errorf("update document set %s: %w", set.ID, err)
	}
	set.Version++
	return nil
}

// Save updates set and records entry in the same transaction, so the audit
// trail never disagrees with the stored state. It applies the same version
// check as Update.
func (s *Store) Save(ctx context.Context, set *DocumentSet, entry Activity) (Activity, error) {
	if set == nil {
		return Activity{}, errors.New("document set is nil")
	}
	entry.SetID = set.ID
	entry, err := s.prepareActivity(entry)
	if err != nil {
		return Activity{}, err
	}
	now := s.now().UTC()
	set.DaysInQueue = set.AgeAt(now)
	if err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := updateSet(ctx, tx, set, now); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, insertActivitySQL, activityArgs(entry)...)
		return err
	}); err != nil {
		return Activity{}, fmt.Errorf("save document set %s: %w", set.ID, err)
	}
	set.Version++
	return entry, nil
}

func updateSet(ctx context.Context, tx *sql.Tx, set *DocumentSet, now time.Time) error {
	res, err := tx.ExecContext(
		ctx,
		`UPDATE document_sets
         SET vendor = ?, po_number = ?, total_amount = ?, status = ?, verification = ?,
             issues_major = ?, issues_minor = ?, days_in_queue = ?, priority_flag = ?,
             assigned_to = ?, review_note = ?, error_message = ?, queued_at = ?,
             last_activity_at = ?, version = version + 1, updated_at = ?
         WHERE id = ? AND version = ?`,
		set.Vendor,
		nullableString(set.PONumber),
		set.TotalAmount,
		set.Status,
		nullableString(string(set.Verification)),
		set.Issues.Major,
		set.Issues.Minor,
		set.DaysInQueue,
		set.PriorityFlag,
		nullableString(set.AssignedTo),
		nullableString(set.ReviewNote),
		nullableString(set.ErrorMessage),
		nullableTime(set.QueuedAt),
		nullableTime(set.LastActivityAt),
		now.Format(time.RFC3339Nano),
		set.ID,
		set.Version,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var current int
		err := tx.QueryRowContext(ctx, `SELECT version FROM document_sets WHERE id = ?`, set.ID).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return &StaleSetError{ID: set.ID, Version: set.Version}
	}
	return writeDocuments(ctx, tx, set)
}

func writeDocuments(ctx context.Context, tx *sql.Tx, set *DocumentSet) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE set_id = ?`, set.ID); err != nil {
		return err
	}
	for _, doc := range set.Documents() {
		if doc.ID == "" {
			doc.ID = uuid.NewString()
		}
		items := doc.LineItems
		if items == nil {
			items = []LineItem{}
		}
		payload, err := json.Marshal(items)
		if err != nil {
			return fmt.Errorf("encode line items for %s: %w", doc.ID, err)
		}
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO documents (`+documentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			doc.ID,
			set.ID,
			doc.Kind,
			nullableString(doc.DocumentNumber),
			nullableString(doc.Vendor),
			doc.TotalAmount,
			string(payload),
			boolToInt(doc.ApprovedForMatch),
		); err != nil {
			return err
		}
	}
	return nil
}

// GetByID fetches a set with its documents. It returns nil, nil when the set
// does not exist.
func (s *Store) GetByID(ctx context.Context, id string) (*DocumentSet, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+setColumns+` FROM document_sets WHERE id = ?`, id)
	set, err := scanSet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get document set: %w", err)
	}
	docs, err := s.documentsFor(ctx, `WHERE set_id = ?`, id)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs[id] {
		set.SetSlot(doc)
	}
	set.DaysInQueue = set.AgeAt(s.now())
	return set, nil
}

// List returns sets filtered by status (or all sets when none is given),
// oldest first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]DocumentSet, error) {
	query := `SELECT ` + setColumns + ` FROM document_sets`
	var args []any
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY queued_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list document sets: %w", err)
	}
	var sets []DocumentSet
	for rows.Next() {
		set, err := scanSet(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		sets = append(sets, *set)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	docs, err := s.documentsFor(ctx, "")
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range sets {
		for _, doc := range docs[sets[i].ID] {
			sets[i].SetSlot(doc)
		}
		sets[i].DaysInQueue = sets[i].AgeAt(now)
	}
	return sets, nil
}

func (s *Store) documentsFor(ctx context.Context, where string, args ...any) (map[string][]*Document, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+documentColumns+` FROM documents `+where+` ORDER BY set_id, kind`, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	bySet := make(map[string][]*Document)
	for rows.Next() {
		setID, doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		bySet[setID] = append(bySet[setID], doc)
	}
	return bySet, rows.Err()
}

// Delete removes a set, its documents, and its activity trail.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	var affected int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE set_id = ?`, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM set_activity WHERE set_id = ?`, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM document_sets WHERE id = ?`, id)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return false, fmt.Errorf("delete document set: %w", err)
	}
	return affected > 0, nil
}

// Clear removes every set from the queue.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	var affected int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range []string{`DELETE FROM documents`, `DELETE FROM set_activity`} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM document_sets`)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	return affected, nil
}
