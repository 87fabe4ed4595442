package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"healthdaily/internal/record"
)

// recordCacheSize bounds the per-process record cache. Records are small
// JSON documents; a few hundred covers weeks of history for active users.
const recordCacheSize = 512

// RecordStore persists DailyRecords as one JSONB row per (user, date), with
// an LRU cache of the marshaled documents. The cache stores bytes rather
// than live records so a failed save can never leave a mutated record
// visible to later loads.
type RecordStore struct {
	pool  *pgxpool.Pool
	cache *lru.Cache[string, []byte]
	now   func() time.Time
}

// NewRecordStore builds the store on top of the service pool.
func NewRecordStore(svc *Service) (*RecordStore, error) {
	cache, err := lru.New[string, []byte](recordCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating record cache: %w", err)
	}
	return &RecordStore{pool: svc.Pool(), cache: cache, now: time.Now}, nil
}

func cacheKey(userID, date string) string {
	return userID + "/" + date
}

// Load returns the record for the date, creating a fresh default when none
// is stored.
func (s *RecordStore) Load(ctx context.Context, userID, date string) (*record.DailyRecord, error) {
	rec, err := s.Get(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = record.NewDailyRecord(userID, date, s.now())
	}
	return rec, nil
}

// Get returns nil without error for absent records. A corrupt stored
// document is treated as absent so a bad row degrades to a fresh day rather
// than wedging the user.
func (s *RecordStore) Get(ctx context.Context, userID, date string) (*record.DailyRecord, error) {
	if data, ok := s.cache.Get(cacheKey(userID, date)); ok {
		return unmarshalRecord(data, userID, date)
	}
	var doc []byte
	err := s.pool.QueryRow(ctx,
		`SELECT doc FROM daily_records WHERE user_id = $1 AND record_date = $2`,
		userID, date).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading record %s/%s: %w", userID, date, err)
	}
	s.cache.Add(cacheKey(userID, date), doc)
	return unmarshalRecord(doc, userID, date)
}

func unmarshalRecord(data []byte, userID, date string) (*record.DailyRecord, error) {
	var rec record.DailyRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Str("date", date).
			Msg("corrupt record document, starting fresh")
		return nil, nil
	}
	return &rec, nil
}

// Save upserts the record. The cache is only updated after the write
// commits.
func (s *RecordStore) Save(ctx context.Context, rec *record.DailyRecord) error {
	rec.LastUpdated = s.now()
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding record %s/%s: %w", rec.UserID, rec.Date, err)
	}
	_, err = s.pool.Exec(ctx, `
INSERT INTO daily_records (user_id, record_date, doc, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (user_id, record_date) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`,
		rec.UserID, rec.Date, doc)
	if err != nil {
		return fmt.Errorf("saving record %s/%s: %w", rec.UserID, rec.Date, err)
	}
	s.cache.Add(cacheKey(rec.UserID, rec.Date), doc)
	return nil
}

// Previous returns the most recent record strictly before the date.
func (s *RecordStore) Previous(ctx context.Context, userID, date string) (*record.DailyRecord, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx, `
SELECT doc FROM daily_records
WHERE user_id = $1 AND record_date < $2
ORDER BY record_date DESC LIMIT 1`,
		userID, date).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading previous record for %s: %w", userID, err)
	}
	return unmarshalRecord(doc, userID, date)
}
