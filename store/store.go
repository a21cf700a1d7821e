package store

import (
	"context"

	"github.com/recallhq/recalld/internal/profile"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

// EmbeddingDim returns the configured embedding dimensionality for the
// default memory partition.
func (s *Store) EmbeddingDim() int {
	if s.profile != nil && s.profile.EmbeddingDim > 0 {
		return s.profile.EmbeddingDim
	}
	return profile.DefaultEmbeddingDim
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.driver.Ping(ctx)
}

func (s *Store) Close() error {
	return s.driver.Close()
}
