package tracker

import (
	"context"

	"go.uber.org/zap"

	"github.com/Tiliavir/shift-tracker/internal/catalog"
	"github.com/Tiliavir/shift-tracker/internal/storage"
)

// Catalog returns the task catalog.
func (s *Service) Catalog(ctx context.Context) (*catalog.Catalog, error) {
	cfg, err := s.repo.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.New(cfg), nil
}

// UpdateCatalog applies fn to the catalog and saves it if fn succeeds.
func (s *Service) UpdateCatalog(ctx context.Context, fn func(*catalog.Catalog) error) error {
	return s.withLock(ctx, storage.CatalogLock, func() error {
		cfg, err := s.repo.LoadCatalog(ctx)
		if err != nil {
			return err
		}
		c := catalog.New(cfg)
		if err := fn(c); err != nil {
			return err
		}
		if err := s.repo.SaveCatalog(ctx, c.Config()); err != nil {
			return err
		}
		s.log.Debug("catalog saved", zap.Int("locations", len(c.Locations())))
		return nil
	})
}
