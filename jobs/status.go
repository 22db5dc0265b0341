package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/supabase-admin/internal/connectivity"
)

const statusKey = "connectivity:last"

// ErrNoStatus is returned when no probe run has been recorded yet.
var ErrNoStatus = errors.New("jobs: no connectivity status recorded")

// StatusStore keeps the latest probe report in Redis.
type StatusStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatusStore instantiates the store. A zero ttl keeps the entry forever.
func NewStatusStore(client *redis.Client, ttl time.Duration) *StatusStore {
	return &StatusStore{client: client, ttl: ttl}
}

// Save records the report, replacing the previous one.
func (s *StatusStore) Save(ctx context.Context, report connectivity.Report) error {
	if s == nil || s.client == nil {
		return errors.New("jobs: status store not configured")
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("jobs: encode status: %w", err)
	}
	if err := s.client.Set(ctx, statusKey, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("jobs: save status: %w", err)
	}
	return nil
}

// Latest loads the most recent report.
func (s *StatusStore) Latest(ctx context.Context) (*connectivity.Report, error) {
	if s == nil || s.client == nil {
		return nil, errors.New("jobs: status store not configured")
	}
	raw, err := s.client.Get(ctx, statusKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoStatus
	}
	if err != nil {
		return nil, fmt.Errorf("jobs: load status: %w", err)
	}
	var report connectivity.Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("jobs: decode status: %w", err)
	}
	return &report, nil
}
