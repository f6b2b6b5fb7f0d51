package sedra

import (
	"strconv"
	"sync"

	"github.com/golang/groupcache/lru"
	"golang.org/x/sync/singleflight"

	"github.com/zapponejosh/parsha-api/internal/hdate"
)

// DefaultCacheSize is the capacity of the package-level store.
const DefaultCacheSize = 64

// Observer receives cache events. Implementations must be safe for
// concurrent use.
type Observer interface {
	CacheHit()
	CacheMiss()
	CacheEvict()
}

type nopObserver struct{}

func (nopObserver) CacheHit()   {}
func (nopObserver) CacheMiss()  {}
func (nopObserver) CacheEvict() {}

type storeKey struct {
	year int
	il   bool
}

// Store is a bounded, read-through cache of Year schedules keyed by year
// and Israel flag. Concurrent misses for the same key build the schedule
// once.
type Store struct {
	mu    sync.Mutex
	cache *lru.Cache
	group singleflight.Group
	obs   Observer
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithObserver reports cache hits, misses and evictions to o.
func WithObserver(o Observer) StoreOption {
	return func(s *Store) {
		if o != nil {
			s.obs = o
		}
	}
}

// NewStore returns a store holding at most size years. A size below 1 is
// treated as 1.
func NewStore(size int, opts ...StoreOption) *Store {
	if size < 1 {
		size = 1
	}
	s := &Store{cache: lru.New(size), obs: nopObserver{}}
	for _, opt := range opts {
		opt(s)
	}
	s.cache.OnEvicted = func(lru.Key, interface{}) { s.obs.CacheEvict() }
	return s
}

// Get returns the schedule of year, building it on a miss.
func (s *Store) Get(year int, il bool) (*Year, error) {
	key := storeKey{year: year, il: il}

	s.mu.Lock()
	if v, ok := s.cache.Get(key); ok {
		s.mu.Unlock()
		s.obs.CacheHit()
		return v.(*Year), nil
	}
	s.mu.Unlock()

	v, err, _ := s.group.Do(flightKey(key), func() (interface{}, error) {
		s.mu.Lock()
		if v, ok := s.cache.Get(key); ok {
			s.mu.Unlock()
			return v, nil
		}
		s.mu.Unlock()

		s.obs.CacheMiss()
		y, err := newYear(year, il, s)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.cache.Add(key, y)
		s.mu.Unlock()
		return y, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Year), nil
}

// Len returns the number of cached years.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Len()
}

// Lookup returns the reading for the Saturday on or after d, taken from
// the schedule of d's own year.
func (s *Store) Lookup(d hdate.HDate, il bool) (Result, error) {
	y, err := s.Get(d.Year(), il)
	if err != nil {
		return Result{}, err
	}
	return y.LookupDate(d)
}

func flightKey(k storeKey) string {
	if k.il {
		return strconv.Itoa(k.year) + "/il"
	}
	return strconv.Itoa(k.year)
}

var defaultStore = NewStore(DefaultCacheSize)

// Get returns the schedule of year from the package-level store.
func Get(year int, il bool) (*Year, error) {
	return defaultStore.Get(year, il)
}

// Lookup returns the reading for the Saturday on or after d from the
// package-level store.
func Lookup(d hdate.HDate, il bool) (Result, error) {
	return defaultStore.Lookup(d, il)
}
