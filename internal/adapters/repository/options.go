package repository

import "time"

// MemoryOption applies a configuration option to the MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the time source used for UpdatedAt stamps.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// SQLiteOption applies a configuration option to the SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithSQLiteClock overrides the time source used for UpdatedAt stamps.
func WithSQLiteClock(now func() time.Time) SQLiteOption {
	return func(s *SQLiteStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithBusyTimeout sets how long sqlite waits on a locked database.
func WithBusyTimeout(d time.Duration) SQLiteOption {
	return func(s *SQLiteStore) {
		if d > 0 {
			s.busyTimeout = d
		}
	}
}
