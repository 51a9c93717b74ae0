// Package memstore keeps ledger data in process memory. It implements the same
// repository contracts as the gorm-backed store so services can be exercised
// without SQLite, and it can inject per-collection failures.
package memstore

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/nutrilog/internal/db"
)

// Store holds every collection behind a single mutex.
type Store struct {
	mu      sync.Mutex
	entries map[string]db.Entry
	foods   map[foodKey]db.Food
	goals   map[foodKey]db.Goal
	users   map[string]db.User
	nextID  uint

	failures map[string]error
}

// Collection names accepted by SetFailure.
const (
	CollectionEntries = "entries"
	CollectionFoods   = "foods"
	CollectionGoals   = "goals"
	CollectionUsers   = "users"
)

type foodKey struct {
	userID string
	id     string
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		entries: make(map[string]db.Entry),
		foods:   make(map[foodKey]db.Food),
		goals:   make(map[foodKey]db.Goal),
		users:   make(map[string]db.User),

		failures: make(map[string]error),
	}
}

// SetFailure makes every later operation on the named collection return err
// before touching state. A nil err clears the failure.
func (s *Store) SetFailure(collection string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, collection)
		return
	}
	s.failures[collection] = err
}

// Entries returns the entry collection.
func (s *Store) Entries() *EntryRepository { return &EntryRepository{s: s} }

// Foods returns the food catalog collection.
func (s *Store) Foods() *FoodRepository { return &FoodRepository{s: s} }

// Goals returns the goal collection.
func (s *Store) Goals() *GoalRepository { return &GoalRepository{s: s} }

// Users returns the user collection.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

func (s *Store) lock(ctx context.Context, collection string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	if err := s.failures[collection]; err != nil {
		s.mu.Unlock()
		return err
	}
	return nil
}

type EntryRepository struct{ s *Store }

func (r *EntryRepository) Create(ctx context.Context, entry *db.Entry) error {
	if err := r.s.lock(ctx, CollectionEntries); err != nil {
		return err
	}
	defer r.s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	r.s.entries[entry.ID] = *entry
	return nil
}

func (r *EntryRepository) Get(ctx context.Context, userID, id string) (*db.Entry, error) {
	if err := r.s.lock(ctx, CollectionEntries); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	entry, ok := r.s.entries[id]
	if !ok || entry.UserID != userID {
		return nil, db.ErrNotFound
	}
	return &entry, nil
}

func (r *EntryRepository) ListByDate(ctx context.Context, userID, date string) ([]db.Entry, error) {
	return r.list(ctx, func(e db.Entry) bool {
		return e.UserID == userID && e.Date == date
	})
}

func (r *EntryRepository) ListInRange(ctx context.Context, userID, start, end string) ([]db.Entry, error) {
	return r.list(ctx, func(e db.Entry) bool {
		return e.UserID == userID && e.Date >= start && e.Date <= end
	})
}

func (r *EntryRepository) list(ctx context.Context, keep func(db.Entry) bool) ([]db.Entry, error) {
	if err := r.s.lock(ctx, CollectionEntries); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	entries := []db.Entry{}
	for _, entry := range r.s.entries {
		if keep(entry) {
			entries = append(entries, entry)
		}
	}
	slices.SortFunc(entries, func(a, b db.Entry) int {
		if diff := cmp.Compare(b.Date, a.Date); diff != 0 {
			return diff
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return entries, nil
}

func (r *EntryRepository) Delete(ctx context.Context, userID, id string) (bool, error) {
	if err := r.s.lock(ctx, CollectionEntries); err != nil {
		return false, err
	}
	defer r.s.mu.Unlock()

	entry, ok := r.s.entries[id]
	if !ok || entry.UserID != userID {
		return false, nil
	}
	delete(r.s.entries, id)
	return true, nil
}

type FoodRepository struct{ s *Store }

func (r *FoodRepository) Merge(ctx context.Context, food db.Food) error {
	if err := r.s.lock(ctx, CollectionFoods); err != nil {
		return err
	}
	defer r.s.mu.Unlock()

	key := foodKey{userID: food.UserID, id: food.ID}
	if existing, ok := r.s.foods[key]; ok {
		existing.Name = food.Name
		existing.KcalPer = food.KcalPer
		existing.ProteinPer = food.ProteinPer
		existing.LastUsedAt = food.LastUsedAt
		existing.UpdatedAt = food.UpdatedAt
		r.s.foods[key] = existing
		return nil
	}

	if food.CreatedAt.IsZero() {
		food.CreatedAt = food.LastUsedAt
	}
	r.s.foods[key] = food
	return nil
}

func (r *FoodRepository) Get(ctx context.Context, userID, id string) (*db.Food, error) {
	if err := r.s.lock(ctx, CollectionFoods); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	food, ok := r.s.foods[foodKey{userID: userID, id: id}]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &food, nil
}

func (r *FoodRepository) ListRecent(ctx context.Context, userID string, limit int) ([]db.Food, error) {
	if err := r.s.lock(ctx, CollectionFoods); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	foods := []db.Food{}
	for key, food := range r.s.foods {
		if key.userID == userID {
			foods = append(foods, food)
		}
	}
	slices.SortFunc(foods, func(a, b db.Food) int {
		return b.LastUsedAt.Compare(a.LastUsedAt)
	})
	if limit > 0 && len(foods) > limit {
		foods = foods[:limit]
	}
	return foods, nil
}

type GoalRepository struct{ s *Store }

func (r *GoalRepository) Get(ctx context.Context, userID, key string) (*db.Goal, error) {
	if err := r.s.lock(ctx, CollectionGoals); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	goal, ok := r.s.goals[foodKey{userID: userID, id: key}]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &goal, nil
}

func (r *GoalRepository) Patch(ctx context.Context, seed db.Goal, patch db.GoalPatch) error {
	if err := r.s.lock(ctx, CollectionGoals); err != nil {
		return err
	}
	defer r.s.mu.Unlock()

	key := foodKey{userID: seed.UserID, id: seed.Key}
	goal, ok := r.s.goals[key]
	if !ok {
		seed.CreatedAt = patch.UpdatedAt
		seed.UpdatedAt = patch.UpdatedAt
		r.s.goals[key] = seed
		return nil
	}

	if patch.KcalTarget != nil {
		goal.KcalTarget = *patch.KcalTarget
	}
	if patch.ProteinTarget != nil {
		goal.ProteinTarget = *patch.ProteinTarget
	}
	goal.UpdatedAt = patch.UpdatedAt
	r.s.goals[key] = goal
	return nil
}

type UserRepository struct{ s *Store }

func (r *UserRepository) Create(ctx context.Context, user *db.User) error {
	if err := r.s.lock(ctx, CollectionUsers); err != nil {
		return err
	}
	defer r.s.mu.Unlock()

	r.s.nextID++
	user.ID = r.s.nextID
	if user.UID == "" {
		user.UID = uuid.NewString()
	}
	r.s.users[user.UID] = *user
	return nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*db.User, error) {
	if err := r.s.lock(ctx, CollectionUsers); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	for _, user := range r.s.users {
		if user.Username == username {
			return &user, nil
		}
	}
	return nil, db.ErrNotFound
}

func (r *UserRepository) FindByUID(ctx context.Context, uid string) (*db.User, error) {
	if err := r.s.lock(ctx, CollectionUsers); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	user, ok := r.s.users[uid]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &user, nil
}
