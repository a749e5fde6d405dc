// Package repository loads the trial catalog from its configured source.
package repository

import (
	"context"

	"trialbridge/internal/trials/domain"
)

// Repository lists trial records in display order.
type Repository interface {
	List(ctx context.Context) ([]domain.Trial, error)
}

// Static serves a fixed list of trials.
type Static struct {
	trials []domain.Trial
}

// NewStatic returns a repository over trials.
func NewStatic(trials []domain.Trial) *Static {
	return &Static{trials: trials}
}

// NewEmbedded returns a repository over the built-in trial catalog.
func NewEmbedded() (*Static, error) {
	trials, err := domain.DefaultTrials()
	if err != nil {
		return nil, err
	}
	return NewStatic(trials), nil
}

// List returns the trials in the order they were given.
func (s *Static) List(_ context.Context) ([]domain.Trial, error) {
	out := make([]domain.Trial, len(s.trials))
	copy(out, s.trials)
	return out, nil
}

// LoadCatalog reads every trial from repo and builds the browser catalog.
func LoadCatalog(ctx context.Context, repo Repository) (*domain.Catalog, error) {
	trials, err := repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return domain.NewCatalog(trials)
}

var _ Repository = (*Static)(nil)
