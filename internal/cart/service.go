package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/arcanium-studios/arcanium-backend/internal/catalog"
	"github.com/arcanium-studios/arcanium-backend/pkg/enums"
	pkgerrors "github.com/arcanium-studios/arcanium-backend/pkg/errors"
	"github.com/arcanium-studios/arcanium-backend/pkg/logger"
	"github.com/arcanium-studios/arcanium-backend/pkg/metrics"
)

type productLookup interface {
	Get(id string) (catalog.Product, bool)
}

// Service owns one cart per browsing session and serializes mutations per session.
type Service interface {
	Cart(ctx context.Context, sessionID string) (Snapshot, error)
	Summary(ctx context.Context, sessionID string) (Summary, error)
	AddItem(ctx context.Context, sessionID string, candidate Candidate) (Snapshot, error)
	AddProduct(ctx context.Context, sessionID, productID string) (Snapshot, error)
	RemoveItem(ctx context.Context, sessionID, itemID string) (Snapshot, error)
	UpdateQuantity(ctx context.Context, sessionID, itemID string, quantity int) (Snapshot, error)
	SetIsCartOpen(ctx context.Context, sessionID string, open bool) (Snapshot, error)
	EndSession(ctx context.Context, sessionID string) error
	Sweep(ctx context.Context, now time.Time) int
}

// ServiceConfig carries the optional collaborators of the cart service.
type ServiceConfig struct {
	// Repository is nil when carts live only in memory.
	Repository Repository
	SessionTTL time.Duration
	Metrics    *metrics.CartMetrics
	Logger     *logger.Logger
	Now        func() time.Time
}

type session struct {
	mu       sync.Mutex
	store    *Store
	lastSeen time.Time
	ended    bool
}

type service struct {
	products productLookup
	repo     Repository
	ttl      time.Duration
	metrics  *metrics.CartMetrics
	logg     *logger.Logger
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*session
	loads    singleflight.Group
}

// NewService builds a cart service backed by the provided catalog.
func NewService(products productLookup, cfg ServiceConfig) (Service, error) {
	if products == nil {
		return nil, fmt.Errorf("product catalog required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		products: products,
		repo:     cfg.Repository,
		ttl:      cfg.SessionTTL,
		metrics:  cfg.Metrics,
		logg:     cfg.Logger,
		now:      now,
		sessions: map[string]*session{},
	}, nil
}

func (s *service) Cart(ctx context.Context, sessionID string) (Snapshot, error) {
	var snap Snapshot
	err := s.withSession(ctx, sessionID, func(sess *session) error {
		snap = sess.store.Snapshot()
		return nil
	})
	return snap, err
}

func (s *service) Summary(ctx context.Context, sessionID string) (Summary, error) {
	var out Summary
	err := s.withSession(ctx, sessionID, func(sess *session) error {
		out = Summary{TotalItems: sess.store.TotalItems()}
		return nil
	})
	return out, err
}

// AddItem adds a caller-built candidate. Invalid candidates leave the cart untouched.
func (s *service) AddItem(ctx context.Context, sessionID string, candidate Candidate) (Snapshot, error) {
	return s.mutate(ctx, sessionID, enums.CartMutationAdd, func(store *Store) (bool, error) {
		if candidate.valid() && !store.CanAdd() {
			return false, errQuantityOverflow(candidate.ID)
		}
		return store.AddItem(candidate), nil
	})
}

// AddProduct snapshots a catalog product into the cart.
func (s *service) AddProduct(ctx context.Context, sessionID, productID string) (Snapshot, error) {
	if err := validateSessionID(sessionID); err != nil {
		return Snapshot{}, err
	}
	product, ok := s.products.Get(productID)
	if !ok {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
			WithDetails(map[string]any{"product_id": productID})
	}
	return s.AddItem(ctx, sessionID, Candidate{
		ID:    product.ID,
		Name:  product.Name,
		Price: product.Price,
		Image: product.Image,
	})
}

func (s *service) RemoveItem(ctx context.Context, sessionID, itemID string) (Snapshot, error) {
	return s.mutate(ctx, sessionID, enums.CartMutationRemove, func(store *Store) (bool, error) {
		return store.RemoveItem(itemID), nil
	})
}

func (s *service) UpdateQuantity(ctx context.Context, sessionID, itemID string, quantity int) (Snapshot, error) {
	return s.mutate(ctx, sessionID, enums.CartMutationQuantity, func(store *Store) (bool, error) {
		if quantity > 0 && !store.CanSetQuantity(itemID, quantity) {
			return false, errQuantityOverflow(itemID)
		}
		return store.UpdateQuantity(itemID, quantity), nil
	})
}

func (s *service) SetIsCartOpen(ctx context.Context, sessionID string, open bool) (Snapshot, error) {
	return s.mutate(ctx, sessionID, enums.CartMutationVisibility, func(store *Store) (bool, error) {
		return store.SetIsCartOpen(open), nil
	})
}

// EndSession tears down the in-memory cart and its persisted copy.
func (s *service) EndSession(ctx context.Context, sessionID string) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	s.mu.RLock()
	sess := s.sessions[sessionID]
	s.mu.RUnlock()
	if sess != nil {
		sess.mu.Lock()
		defer sess.mu.Unlock()
		defer s.evict(sessionID, sess)
	}

	if err := s.deletePersisted(ctx, sessionID); err != nil {
		s.metrics.IncMutation(enums.CartMutationEnd.String(), metrics.OutcomeError)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to delete cart")
	}
	s.metrics.IncMutation(enums.CartMutationEnd.String(), metrics.OutcomeApplied)
	if s.logg != nil {
		s.logg.Info(s.logCtx(ctx, sessionID), "cart.session_ended")
	}
	return nil
}

// Sweep evicts sessions idle for longer than the session TTL and returns how many were removed.
func (s *service) Sweep(ctx context.Context, now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := now.Add(-s.ttl)

	s.mu.RLock()
	candidates := make(map[string]*session)
	for id, sess := range s.sessions {
		candidates[id] = sess
	}
	s.mu.RUnlock()

	evicted := 0
	for id, sess := range candidates {
		sess.mu.Lock()
		if sess.ended || sess.lastSeen.After(cutoff) {
			sess.mu.Unlock()
			continue
		}
		// The persisted copy goes while the session is still registered and
		// locked, so concurrent requests wait and then start from a clean load.
		if err := s.deletePersisted(ctx, id); err != nil && s.logg != nil {
			s.logg.Error(s.logCtx(ctx, id), "cart.sweep_delete_failed", err)
		}
		s.evict(id, sess)
		sess.mu.Unlock()
		evicted++
	}
	if evicted > 0 && s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "evicted", evicted), "cart.sweep")
	}
	s.purgeIdle(ctx, cutoff)
	return evicted
}

func (s *service) mutate(ctx context.Context, sessionID string, op enums.CartMutation, fn func(*Store) (bool, error)) (Snapshot, error) {
	var snap Snapshot
	err := s.withSession(ctx, sessionID, func(sess *session) error {
		before := sess.store.clone()
		changed, err := fn(sess.store)
		if err != nil {
			s.metrics.IncMutation(op.String(), metrics.OutcomeRejected)
			return err
		}
		if !changed {
			s.metrics.IncMutation(op.String(), metrics.OutcomeNoop)
			snap = sess.store.Snapshot()
			return nil
		}
		if err := s.save(ctx, sessionID, sess.store); err != nil {
			sess.store = before
			s.metrics.IncMutation(op.String(), metrics.OutcomeError)
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to save cart")
		}
		s.metrics.IncMutation(op.String(), metrics.OutcomeApplied)
		snap = sess.store.Snapshot()
		if s.logg != nil {
			logCtx := s.logg.WithFields(s.logCtx(ctx, sessionID), map[string]any{
				"op":          op.String(),
				"total_items": snap.TotalItems,
			})
			s.logg.Debug(logCtx, "cart.mutated")
		}
		return nil
	})
	return snap, err
}

// withSession runs fn while holding the session lock. A session evicted
// between lookup and lock is reacquired.
func (s *service) withSession(ctx context.Context, sessionID string, fn func(*session) error) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		sess, err := s.acquire(ctx, sessionID)
		if err != nil {
			return err
		}
		sess.mu.Lock()
		if sess.ended {
			sess.mu.Unlock()
			continue
		}
		sess.lastSeen = s.now()
		err = fn(sess)
		sess.mu.Unlock()
		return err
	}
}

func (s *service) acquire(ctx context.Context, sessionID string) (*session, error) {
	s.mu.RLock()
	sess := s.sessions[sessionID]
	s.mu.RUnlock()
	if sess != nil {
		return sess, nil
	}

	v, err, _ := s.loads.Do(sessionID, func() (any, error) {
		s.mu.RLock()
		existing := s.sessions[sessionID]
		s.mu.RUnlock()
		if existing != nil {
			return existing, nil
		}

		// Shared by every waiter, so one caller's cancellation must not fail the rest.
		store, err := s.load(context.WithoutCancel(ctx), sessionID)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if existing := s.sessions[sessionID]; existing != nil {
			return existing, nil
		}
		created := &session{store: store, lastSeen: s.now()}
		s.sessions[sessionID] = created
		s.metrics.SetActiveSessions(len(s.sessions))
		return created, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*session), nil
}

func (s *service) load(ctx context.Context, sessionID string) (*Store, error) {
	if s.repo == nil {
		return NewStore(), nil
	}
	start := time.Now()
	persisted, err := s.repo.Load(ctx, sessionID)
	if errors.Is(err, ErrCartNotFound) {
		s.metrics.ObserveStorage("load", time.Since(start), nil)
		return NewStore(), nil
	}
	s.metrics.ObserveStorage("load", time.Since(start), err)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load cart")
	}
	return Restore(persisted), nil
}

func (s *service) save(ctx context.Context, sessionID string, store *Store) error {
	if s.repo == nil {
		return nil
	}
	start := time.Now()
	err := s.repo.Save(ctx, sessionID, store.ToPersisted())
	s.metrics.ObserveStorage("save", time.Since(start), err)
	return err
}

func (s *service) deletePersisted(ctx context.Context, sessionID string) error {
	if s.repo == nil {
		return nil
	}
	start := time.Now()
	err := s.repo.Delete(ctx, sessionID)
	s.metrics.ObserveStorage("delete", time.Since(start), err)
	return err
}

// purgeIdle drops persisted carts of sessions this process never loaded.
func (s *service) purgeIdle(ctx context.Context, cutoff time.Time) {
	purger, ok := s.repo.(IdlePurger)
	if !ok {
		return
	}
	start := time.Now()
	purged, err := purger.PurgeIdle(ctx, cutoff)
	s.metrics.ObserveStorage("purge", time.Since(start), err)
	if s.logg == nil {
		return
	}
	if err != nil {
		s.logg.Error(ctx, "cart.purge_failed", err)
		return
	}
	if purged > 0 {
		s.logg.Info(s.logg.WithField(ctx, "purged", purged), "cart.purge")
	}
}

// evict must be called with sess.mu held.
func (s *service) evict(sessionID string, sess *session) {
	sess.ended = true
	s.mu.Lock()
	if s.sessions[sessionID] == sess {
		delete(s.sessions, sessionID)
	}
	s.metrics.SetActiveSessions(len(s.sessions))
	s.mu.Unlock()
}

func (s *service) logCtx(ctx context.Context, sessionID string) context.Context {
	if s.logg == nil {
		return ctx
	}
	return s.logg.WithSessionID(ctx, sessionID)
}

func errQuantityOverflow(itemID string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "cart item count would overflow").
		WithDetails(map[string]any{"item_id": itemID})
}

func validateSessionID(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	return nil
}
