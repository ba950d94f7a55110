package services

import (
	"context"

	"ctdportal/application/ports"
	"ctdportal/domain/core/entities"
	"ctdportal/infrastructure/cache"
	"ctdportal/infrastructure/session"
)

// ProfileService backs the author profile screen
type ProfileService struct {
	gateway     ports.Gateway
	cache       *cache.QueryCache
	concurrency int
}

// NewProfileService creates a new profile service
func NewProfileService(gateway ports.Gateway, queryCache *cache.QueryCache, concurrency int) *ProfileService {
	return &ProfileService{gateway: gateway, cache: queryCache, concurrency: concurrency}
}

// Profile loads a user's profile, stats and authored documents concurrently.
func (p *ProfileService) Profile(ctx context.Context, s *session.Session, userID string) (*ProfileView, error) {
	user, err := requireUser(s)
	if err != nil {
		return nil, err
	}
	backend := p.gateway.For(s)
	sc := scope(user.ID)

	var (
		profile *entities.UserProfile
		stats   *entities.UserStats
		docs    []entities.Document
	)

	g, gctx := newGroup(ctx, p.concurrency)
	g.Go(func() error {
		var err error
		profile, err = cache.Fetch(gctx, p.cache, sc.key(keyUserProfile, userID), func(ctx context.Context) (*entities.UserProfile, error) {
			return backend.GetUser(ctx, userID)
		})
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = cache.Fetch(gctx, p.cache, sc.key(keyUserStats, userID), func(ctx context.Context) (*entities.UserStats, error) {
			return backend.UserStats(ctx, userID)
		})
		return err
	})
	g.Go(func() error {
		var err error
		docs, err = cache.Fetch(gctx, p.cache, sc.key(keyUserDocuments, userID), func(ctx context.Context) ([]entities.Document, error) {
			return backend.UserDocuments(ctx, userID)
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &ProfileView{
		Profile:   *profile,
		Stats:     *stats,
		Documents: cardsOf(docs),
		IsSelf:    profile.ID == user.ID,
	}, nil
}
