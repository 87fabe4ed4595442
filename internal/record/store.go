package record

import "context"

// Store is the persistence contract for daily records. Load is the
// get-or-create path: it returns a fresh default record for dates with no
// data. Get returns nil without error for absent records. A non-nil Save
// error means the write did not commit and the in-memory record is stale
// relative to storage.
type Store interface {
	Load(ctx context.Context, userID, date string) (*DailyRecord, error)
	Get(ctx context.Context, userID, date string) (*DailyRecord, error)
	Save(ctx context.Context, rec *DailyRecord) error

	// Previous returns the most recent record strictly before date, or nil
	// when the user has no earlier records.
	Previous(ctx context.Context, userID, date string) (*DailyRecord, error)
}
