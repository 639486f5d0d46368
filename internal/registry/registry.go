// Package registry keeps issued payment records in memory for local status
// answers and overdue detection.
package registry

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/vidaplan/paycode/internal/domain"
)

const shardCount = 32

// Registry is a sharded id -> record map. Records on distinct ids never
// contend for the same lock; writes to one id are linearized by its shard
// lock. All returned records are snapshots, never shared pointers.
type Registry struct {
	shards [shardCount]shard

	// now is injectable so overdue detection is testable.
	now func() time.Time

	onExpire func(id string)
}

type shard struct {
	mu      sync.RWMutex
	records map[string]*domain.PaymentRecord
}

func New() *Registry {
	r := &Registry{now: time.Now}
	for i := range r.shards {
		r.shards[i].records = make(map[string]*domain.PaymentRecord)
	}
	return r
}

// NewWithClock builds a registry with a fixed clock source for tests.
func NewWithClock(now func() time.Time) *Registry {
	r := New()
	r.now = now
	return r
}

// OnExpire registers a callback invoked after a read lazily moves a record
// to OVERDUE, so the transition can be propagated beyond this registry. It
// runs outside the shard lock. Set once at wiring time, before the registry
// is shared.
func (r *Registry) OnExpire(fn func(id string)) {
	r.onExpire = fn
}

func (r *Registry) shardFor(id string) *shard {
	h := fnv.New32a()
	h.Write([]byte(id))
	return &r.shards[h.Sum32()%shardCount]
}

// Put stores a snapshot of the record, replacing any previous entry.
func (r *Registry) Put(rec *domain.PaymentRecord) {
	s := r.shardFor(rec.ID)
	cp := clone(rec)
	s.mu.Lock()
	s.records[rec.ID] = cp
	s.mu.Unlock()
}

// Get returns a snapshot of the record. A PENDING boleto read after its due
// date is moved to OVERDUE before being returned; this lazy expiry is the
// one implicit state transition the engine performs.
func (r *Registry) Get(id string) (*domain.PaymentRecord, error) {
	s := r.shardFor(id)

	s.mu.RLock()
	rec, ok := s.records[id]
	expired := ok && rec.Overdue(r.now())
	s.mu.RUnlock()

	if !ok {
		return nil, &domain.NotFoundError{ID: id}
	}

	if expired {
		flipped := false
		s.mu.Lock()
		// Re-check under the write lock: a gateway confirmation may have
		// landed between the two lock acquisitions.
		if rec, ok = s.records[id]; ok && rec.Overdue(r.now()) {
			rec.Status = domain.StatusOverdue
			flipped = true
		}
		s.mu.Unlock()
		if !ok {
			return nil, &domain.NotFoundError{ID: id}
		}
		if flipped && r.onExpire != nil {
			r.onExpire(id)
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.records[id]), nil
}

// UpdateStatus transitions a record. Terminal statuses are frozen; OVERDUE
// is not terminal, so a late boleto can still complete.
func (r *Registry) UpdateStatus(id string, status domain.PaymentStatus) error {
	s := r.shardFor(id)
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return &domain.NotFoundError{ID: id}
	}
	if rec.Status.Terminal() && rec.Status != status {
		return &domain.UnsupportedOperationError{
			Operation:    "status transition to " + string(status),
			InstrumentID: id,
			Reason:       "status " + string(rec.Status) + " is terminal",
		}
	}
	rec.Status = status
	return nil
}

// Each visits a snapshot of every record. Visiting order is unspecified;
// the callback must not retain the record across calls.
func (r *Registry) Each(fn func(*domain.PaymentRecord)) {
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.RLock()
		snapshots := make([]*domain.PaymentRecord, 0, len(s.records))
		for _, rec := range s.records {
			snapshots = append(snapshots, clone(rec))
		}
		s.mu.RUnlock()
		for _, rec := range snapshots {
			fn(rec)
		}
	}
}

func clone(rec *domain.PaymentRecord) *domain.PaymentRecord {
	cp := *rec
	if rec.Boleto != nil {
		b := *rec.Boleto
		cp.Boleto = &b
	}
	if rec.Pix != nil {
		p := *rec.Pix
		cp.Pix = &p
	}
	return &cp
}
