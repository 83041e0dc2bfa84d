package books

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

// RefreshInterval is how long a sport's sharp list is served before re-querying
const RefreshInterval = 5 * time.Minute

const sharpBooksQuery = `
	SELECT book_key
	FROM books
	WHERE active = true
	  AND book_type = 'sharp'
	  AND $1 = ANY(supported_sports)
	ORDER BY book_key
`

type entry struct {
	books     []string
	fetchedAt time.Time
}

// Registry reads sharp bookmakers per sport from the Alexandria books table
type Registry struct {
	db     *sql.DB
	logger zerolog.Logger
	now    func() time.Time

	mu    sync.RWMutex
	cache map[string]entry
}

// Open connects to Alexandria and returns a registry over it
func Open(ctx context.Context, dsn string, logger zerolog.Logger) (*Registry, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewRegistry(db, logger), nil
}

// NewRegistry wraps an open database handle
func NewRegistry(db *sql.DB, logger zerolog.Logger) *Registry {
	return &Registry{
		db:     db,
		logger: logger.With().Str("component", "book_registry").Logger(),
		now:    time.Now,
		cache:  make(map[string]entry),
	}
}

// WithClock overrides the time source (for tests)
func (r *Registry) WithClock(now func() time.Time) *Registry {
	r.now = now
	return r
}

// SharpBooks returns the active sharp books supporting sportKey. An empty
// result is not an error; the caller picks its own default.
func (r *Registry) SharpBooks(ctx context.Context, sportKey string) ([]string, error) {
	r.mu.RLock()
	cached, ok := r.cache[sportKey]
	r.mu.RUnlock()

	if ok && r.now().Sub(cached.fetchedAt) < RefreshInterval {
		return cached.books, nil
	}

	books, err := r.query(ctx, sportKey)
	if err != nil {
		if ok {
			r.logger.Warn().Err(err).Str("sport", sportKey).Msg("sharp book refresh failed, serving stale list")
			return cached.books, nil
		}
		return nil, err
	}

	r.mu.Lock()
	r.cache[sportKey] = entry{books: books, fetchedAt: r.now()}
	r.mu.Unlock()

	r.logger.Debug().Str("sport", sportKey).Strs("books", books).Msg("sharp books loaded")
	return books, nil
}

func (r *Registry) query(ctx context.Context, sportKey string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, sharpBooksQuery, sportKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query sharp books: %w", err)
	}
	defer rows.Close()

	var books []string
	for rows.Next() {
		var bookKey string
		if err := rows.Scan(&bookKey); err != nil {
			return nil, fmt.Errorf("failed to scan book row: %w", err)
		}
		books = append(books, bookKey)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating book rows: %w", err)
	}
	return books, nil
}

// Ping checks database connectivity
func (r *Registry) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection
func (r *Registry) Close() error {
	return r.db.Close()
}

// Static serves a fixed sharp list for every sport
type Static []string

// SharpBooks returns the fixed list
func (s Static) SharpBooks(context.Context, string) ([]string, error) {
	return []string(s), nil
}
