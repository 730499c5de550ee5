// Package storage persists finished explanation reports using BoltDB.
// Reports are stored as JSON keyed by kind and creation time, so the
// service can list what has been computed for a model over a time range
// without recomputing anything.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

const reportsBucket = "reports"

// Kind labels what an explanation report contains.
type Kind string

const (
	KindImportance Kind = "importance"
	KindPDP        Kind = "pdp"
	KindICE        Kind = "ice"
)

// Report is a persisted explanation result. Payload carries the engine
// result verbatim; the store never interprets it.
type Report struct {
	ID        string          `json:"id"`
	Kind      Kind            `json:"kind"`
	ModelTag  string          `json:"model_tag"`
	Feature   string          `json:"feature,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	Payload   json.RawMessage `json:"payload"`
}

// Store provides persistent report storage backed by BoltDB.
type Store struct {
	db *bbolt.DB
}

// New opens (or creates) the report database under dataPath.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, "creditscope-reports.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(reportsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create reports bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveReport persists a report, assigning it an ID and creation time.
// Returns the stored report.
func (s *Store) SaveReport(kind Kind, modelTag, feature string, payload any) (*Report, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal report payload: %w", err)
	}

	report := &Report{
		ID:        uuid.NewString(),
		Kind:      kind,
		ModelTag:  modelTag,
		Feature:   feature,
		CreatedAt: time.Now().UTC(),
		Payload:   raw,
	}

	data, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(reportsBucket))
		return b.Put(reportKey(report.Kind, report.CreatedAt, report.ID), data)
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// GetReport fetches a single report by kind and ID. Returns nil when the
// report does not exist.
func (s *Store) GetReport(kind Kind, id string) (*Report, error) {
	var report *Report
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(reportsBucket)).Cursor()
		prefix := []byte(string(kind) + "_")
		suffix := []byte("_" + id)
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			if !bytes.HasSuffix(k, suffix) {
				continue
			}
			var r Report
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("unmarshal report: %w", err)
			}
			report = &r
			return nil
		}
		return nil
	})
	return report, err
}

// ListReports retrieves reports of one kind created within [start, end],
// ordered by creation time.
func (s *Store) ListReports(kind Kind, start, end time.Time) ([]Report, error) {
	var reports []Report
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(reportsBucket)).Cursor()

		prefix := []byte(string(kind) + "_")
		startKey := reportKey(kind, start, "")
		endKey := reportKey(kind, end, "\xff")

		for k, v := c.Seek(startKey); k != nil && bytes.Compare(k, endKey) <= 0; k, v = c.Next() {
			if !bytes.HasPrefix(k, prefix) {
				continue
			}
			var r Report
			if err := json.Unmarshal(v, &r); err != nil {
				continue // skip malformed records
			}
			reports = append(reports, r)
		}
		return nil
	})
	return reports, err
}

// reportKey builds "kind_unixNano_id" keys so a cursor seek scans one kind
// in time order.
func reportKey(kind Kind, ts time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%s_%020d_%s", kind, ts.UnixNano(), id))
}
