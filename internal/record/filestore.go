package record

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// FileStore persists one JSON document per (user, date) under
// dir/<userID>/<date>.json. It is the zero-infrastructure backend used when
// no database is configured.
type FileStore struct {
	dir string
	now func() time.Time
}

// NewFileStore creates the root directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating record dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

func (s *FileStore) path(userID, date string) string {
	return filepath.Join(s.dir, userID, date+".json")
}

// Load reads the record for the date, returning a fresh default when the file
// is absent. A corrupt file is logged and replaced by a default record rather
// than failing the request.
func (s *FileStore) Load(ctx context.Context, userID, date string) (*DailyRecord, error) {
	rec, err := s.Get(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = NewDailyRecord(userID, date, s.now())
	}
	return rec, nil
}

// Get returns nil without error when no record exists for the date.
func (s *FileStore) Get(_ context.Context, userID, date string) (*DailyRecord, error) {
	data, err := os.ReadFile(s.path(userID, date))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading record %s/%s: %w", userID, date, err)
	}
	var rec DailyRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Str("date", date).
			Msg("corrupt record file, starting fresh")
		return nil, nil
	}
	return &rec, nil
}

// Save writes the record atomically via a temp file rename.
func (s *FileStore) Save(_ context.Context, rec *DailyRecord) error {
	rec.LastUpdated = s.now()
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding record %s/%s: %w", rec.UserID, rec.Date, err)
	}
	dir := filepath.Join(s.dir, rec.UserID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating user dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, rec.Date+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp record file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing record %s/%s: %w", rec.UserID, rec.Date, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing record file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(rec.UserID, rec.Date)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("committing record %s/%s: %w", rec.UserID, rec.Date, err)
	}
	return nil
}

// Previous scans the user's directory for the newest record dated strictly
// before date.
func (s *FileStore) Previous(ctx context.Context, userID, date string) (*DailyRecord, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, userID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing records for %s: %w", userID, err)
	}
	var dates []string
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		d := strings.TrimSuffix(name, ".json")
		if _, err := time.Parse(DateLayout, d); err != nil {
			continue
		}
		if d < date {
			dates = append(dates, d)
		}
	}
	if len(dates) == 0 {
		return nil, nil
	}
	sort.Strings(dates)
	return s.Get(ctx, userID, dates[len(dates)-1])
}
