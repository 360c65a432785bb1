package model

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/dmitrymomot/mvc/pkg/cache"
	"github.com/dmitrymomot/mvc/pkg/query"
)

// TranslateFunc renders a message key with placeholder values.
type TranslateFunc func(key string, vars map[string]any) string

// Store owns model definitions and the state they share: connections, the
// table schema cache, the message translator and the clock. Definitions are
// registered at boot; afterwards a Store is safe for concurrent use.
type Store struct {
	conns     *query.Registry
	mu        sync.RWMutex
	defs      map[string]*Definition
	schemas   *cache.Loader[[]query.Column]
	translate TranslateFunc
	loc       *time.Location
	now       func() time.Time
	logger    *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithSchemaCache stores table schemas in c instead of process memory,
// e.g. a cache.Redis shared by several instances.
func WithSchemaCache(c cache.Cache[[]query.Column]) StoreOption {
	return func(s *Store) {
		if c != nil {
			s.schemas = cache.NewLoader(c, -1)
		}
	}
}

// WithTranslator sets the translator for validation messages. Keys it
// cannot translate fall back to built-in English messages.
func WithTranslator(fn TranslateFunc) StoreOption {
	return func(s *Store) {
		s.translate = fn
	}
}

// WithLocation sets the zone timestamps are converted to on load.
// Defaults to time.Local.
func WithLocation(loc *time.Location) StoreOption {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock overrides the clock used for timestamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore creates a Store resolving connections through conns.
func NewStore(conns *query.Registry, opts ...StoreOption) *Store {
	s := &Store{
		conns:   conns,
		defs:    make(map[string]*Definition),
		schemas: cache.NewLoader[[]query.Column](cache.NewMemory[[]query.Column](), -1),
		loc:     time.Local,
		now:     time.Now,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds model definitions.
func (s *Store) Register(defs ...Definition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range defs {
		def, err := d.normalize()
		if err != nil {
			return err
		}
		if _, ok := s.defs[def.Name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateModel, def.Name)
		}
		s.defs[def.Name] = def
	}
	return nil
}

// Check resolves every relation and connection of the registered models,
// so configuration mistakes fail at boot rather than on first use.
func (s *Store) Check() error {
	for _, name := range s.Names() {
		m, err := s.Model(name)
		if err != nil {
			return err
		}
		for rel := range m.def.Relations {
			if _, _, err := m.relation(rel); err != nil {
				return err
			}
		}
	}
	return nil
}

// Model returns the named model bound to its connection.
func (s *Store) Model(name string) (*Model, error) {
	s.mu.RLock()
	def, ok := s.defs[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}

	conn, err := s.conns.Lookup(def.Connection)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", name, err)
	}
	return &Model{store: s, def: def, conn: conn}, nil
}

// MustModel is like Model but panics on error.
func (s *Store) MustModel(name string) *Model {
	m, err := s.Model(name)
	if err != nil {
		panic(err)
	}
	return m
}

// Names returns the registered model names in sorted order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.defs))
	for name := range s.defs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Now returns the current time in the store location.
func (s *Store) Now() time.Time {
	return s.now().In(s.loc)
}

// Location returns the zone timestamps are loaded in.
func (s *Store) Location() *time.Location {
	return s.loc
}

func (s *Store) has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.defs[name]
	return ok
}

func (s *Store) schema(ctx context.Context, conn *query.Conn, table string) ([]query.Column, error) {
	key := conn.Name() + ":" + conn.Table(table)
	return s.schemas.GetOrSet(ctx, key, func(ctx context.Context) ([]query.Column, error) {
		s.logger.DebugContext(ctx, "describing table", "conn", conn.Name(), "table", conn.Table(table))
		return conn.Describe(ctx, table)
	})
}

// ForgetSchema drops the cached schema of a model table, e.g. after a
// migration altered it.
func (s *Store) ForgetSchema(ctx context.Context, m *Model) error {
	return s.schemas.Forget(ctx, m.conn.Name()+":"+m.conn.Table(m.def.Table))
}
