package scheduler

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// jobKeyPrefix namespaces job records inside the store.
const jobKeyPrefix = "job:"

// JobRecord is the durable state of one cron job, surviving restarts so
// misfires can be detected.
type JobRecord struct {
	ID         string    `json:"id"`
	Expression string    `json:"expression"`
	NextRun    time.Time `json:"next_run"`
	LastRun    time.Time `json:"last_run"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// JobStore persists job records in a Badger database separate from the
// application store.
type JobStore struct {
	db *badger.DB
}

// OpenJobStore opens (or creates) the job store at dir.
func OpenJobStore(dir string) (*JobStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open job store at %q: %w", dir, err)
	}
	return &JobStore{db: db}, nil
}

// Put writes rec, stamping UpdatedAt.
func (s *JobStore) Put(rec *JobRecord) error {
	rec.UpdatedAt = time.Now().UTC()

	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode job %q: %w", rec.ID, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(jobKeyPrefix+rec.ID), b)
	})
	if err != nil {
		return fmt.Errorf("failed to store job %q: %w", rec.ID, err)
	}
	return nil
}

// Get reads the record for id; found is false when absent.
func (s *JobStore) Get(id string) (*JobRecord, bool, error) {
	var rec JobRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(jobKeyPrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read job %q: %w", id, err)
	}
	return &rec, true, nil
}

// List returns every stored job record.
func (s *JobStore) List() ([]*JobRecord, error) {
	var recs []*JobRecord
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(jobKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec JobRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return err
			}
			recs = append(recs, &rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return recs, nil
}

// Delete removes the record for id; deleting an absent id is a no-op.
func (s *JobStore) Delete(id string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(jobKeyPrefix + id))
	})
	if err != nil {
		return fmt.Errorf("failed to delete job %q: %w", id, err)
	}
	return nil
}

// Close flushes and closes the underlying database.
func (s *JobStore) Close() error {
	return s.db.Close()
}
