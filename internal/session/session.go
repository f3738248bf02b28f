package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/agriscope/agriscope/internal/aoi"
	"github.com/agriscope/agriscope/internal/index"
	"github.com/agriscope/agriscope/internal/sensor"
	"github.com/agriscope/agriscope/internal/sentinelhub"
	"github.com/agriscope/agriscope/internal/timeseries"
)

var ErrNotFound = fmt.Errorf("session not found")

const (
	DefaultTTL    = 2 * time.Hour
	sweepInterval = 10 * time.Minute
)

// Session is the per-user dashboard state: the selected AOI, sensor and
// index plus the images found for them. Nothing is persisted beyond the
// catalog cache; an expired session starts over.
type Session struct {
	ID         string
	CreatedAt  time.Time
	LastAccess time.Time
	AOI        aoi.AreaOfInterest
	Sensor     sensor.Sensor
	Index      index.Index
	MaxCloud   float64
	Images     []sentinelhub.ImageDescriptor
	Series     *timeseries.Result
}

type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	r := &Registry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		stop:     make(chan struct{}),
	}
	go r.sweep()
	return r
}

func (r *Registry) Create() *Session {
	now := time.Now()
	s := &Session{
		ID:         newID(),
		CreatedAt:  now,
		LastAccess: now,
		Sensor:     sensor.Sentinel2,
		Index:      index.NDVI,
		MaxCloud:   100,
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get returns a snapshot of the session. Mutations go through Update;
// handing out the stored pointer would let callers race the lock.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if time.Since(s.LastAccess) > r.ttl {
		delete(r.sessions, id)
		return nil, ErrNotFound
	}
	s.LastAccess = time.Now()
	snapshot := *s
	return &snapshot, nil
}

// Update applies fn while holding the registry lock so concurrent HTTP
// handlers can't interleave partial session writes.
func (r *Registry) Update(id string, fn func(*Session)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return ErrNotFound
	}
	fn(s)
	s.LastAccess = time.Now()
	return nil
}

func (r *Registry) Delete(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
}

func (r *Registry) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.expire()
		}
	}
}

func (r *Registry) expire() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		if time.Since(s.LastAccess) > r.ttl {
			delete(r.sessions, id)
		}
	}
}

func newID() string {
	buf := make([]byte, 16)
	rand.Read(buf)
	return hex.EncodeToString(buf)
}
