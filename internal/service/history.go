package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"kairos/internal/model"
)

// HistoryService persists drafts and the export-history archive. The
// archive doubles as the OCR cache: every archived item carries its
// file fingerprint, and lookups by fingerprint short-circuit the
// pipeline. History writes are append-only; cleanup is the only delete
// path besides explicit user deletion.
type HistoryService struct {
	db *sql.DB
}

func NewHistoryService(db *sql.DB) *HistoryService {
	return &HistoryService{db: db}
}

// Archive appends one history record snapshotting the current ledger.
// Returns the new record id.
func (s *HistoryService) Archive(ctx context.Context, items []model.LineItem, info model.ReimbursementInfo, columns []model.Column) (int64, error) {
	for i := range items {
		items[i].ClampImageSlots()
	}
	if columns == nil {
		columns = model.DefaultColumns()
	}

	title, total := historyTitle(items, info)
	snapshot, err := json.Marshal(model.Snapshot{Items: items, Info: info, Columns: columns})
	if err != nil {
		return 0, fmt.Errorf("encode snapshot: %w", err)
	}

	var id int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO history (timestamp, title, total, count, snapshot)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, time.Now(), title, total, len(items), snapshot).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert history: %w", err)
	}
	return id, nil
}

// historyTitle builds "project_reimburser_total_date" with safe
// fallbacks for missing info fields.
func historyTitle(items []model.LineItem, info model.ReimbursementInfo) (string, float64) {
	var total float64
	for _, item := range items {
		total += CoerceNumber(item.Amount)
	}

	project := info.Project
	if project == "" {
		project = "无项目"
	}
	reimburser := info.Reimburser
	if reimburser == "" {
		reimburser = "无报销人"
	}
	date := info.ReimbursementDate
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	return fmt.Sprintf("%s_%s_%s_%s", project, reimburser, FormatCurrency(total), date), total
}

// List returns all history records, newest first.
func (s *HistoryService) List(ctx context.Context) ([]model.HistoryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, title, total, count, snapshot
		FROM history
		ORDER BY timestamp DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []model.HistoryRecord
	for rows.Next() {
		var r model.HistoryRecord
		var snapshot []byte
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.Title, &r.Total, &r.Count, &snapshot); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if err := json.Unmarshal(snapshot, &r.Snapshot); err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		records = append(records, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return records, nil
}

// Delete removes one history record.
func (s *HistoryService) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM history WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	return nil
}

// Clear removes all history records.
func (s *HistoryService) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM history`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// CleanupBefore deletes history older than the cutoff and reports how
// many records were removed.
func (s *HistoryService) CleanupBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM history WHERE timestamp < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}

// FindByFingerprint returns the most recently archived item with the
// given file hash, or nil on a miss. Fallback fingerprints miss by
// design.
func (s *HistoryService) FindByFingerprint(ctx context.Context, hash string) (*model.LineItem, error) {
	if hash == "" {
		return nil, nil
	}

	needle, err := json.Marshal([]map[string]string{{"fileHash": hash}})
	if err != nil {
		return nil, fmt.Errorf("encode lookup: %w", err)
	}

	var snapshot []byte
	err = s.db.QueryRowContext(ctx, `
		SELECT snapshot
		FROM history
		WHERE snapshot->'items' @> $1
		ORDER BY timestamp DESC
		LIMIT 1
	`, needle).Scan(&snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fingerprint lookup: %w", err)
	}

	var snap model.Snapshot
	if err := json.Unmarshal(snapshot, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	for i := range snap.Items {
		if snap.Items[i].FileHash == hash {
			return &snap.Items[i], nil
		}
	}
	return nil, nil
}

// SaveDraft upserts the single working draft.
func (s *HistoryService) SaveDraft(ctx context.Context, items []model.LineItem, info model.ReimbursementInfo) error {
	for i := range items {
		items[i].ClampImageSlots()
	}
	snapshot, err := json.Marshal(model.Snapshot{Items: items, Info: info})
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO drafts (id, timestamp, snapshot)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET timestamp = $1, snapshot = $2
	`, time.Now(), snapshot)
	if err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// GetDraft returns the saved draft, or nil when none exists.
func (s *HistoryService) GetDraft(ctx context.Context) (*model.Draft, error) {
	var ts time.Time
	var snapshot []byte
	err := s.db.QueryRowContext(ctx, `SELECT timestamp, snapshot FROM drafts WHERE id = 1`).Scan(&ts, &snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get draft: %w", err)
	}

	var snap model.Snapshot
	if err := json.Unmarshal(snapshot, &snap); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return &model.Draft{Timestamp: ts, Items: snap.Items, Info: snap.Info}, nil
}

// DeleteDraft removes the saved draft.
func (s *HistoryService) DeleteDraft(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE id = 1`); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}
