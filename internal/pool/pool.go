// Package pool implements the per-key connection pool: a stash of idle
// HTTP/1 codecs (popped FIFO-from-front, returned to the back) plus an
// optional shared HTTP/2 sender, keyed by connkey.Key.
package pool

import (
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/harborlane/httpcore/internal/connkey"
	"github.com/harborlane/httpcore/internal/h1"
	"github.com/harborlane/httpcore/internal/h2"
	"github.com/harborlane/httpcore/internal/logging"
)

// bucket holds the idle HTTP/1 codecs and the shared H2 sender for one
// destination. key remembers the destination so hash collisions can be
// told apart.
type bucket struct {
	key  connkey.Key
	idle []*h1.Codec // front = oldest; Get pops index 0, Put appends
	h2   *h2.SharedSender
}

// Pool is a process-local connection cache. Buckets are addressed by
// Key.Hash with Key.Equal as the collision fallback, so two keys that
// differ only in ServerName or TLS share one bucket: destination
// identity is (host, port) alone. One mutex guards the map; callers
// that want strict per-goroutine confinement construct one Pool per
// client and never share it, in which case the mutex is never
// contended.
type Pool struct {
	mu      sync.Mutex
	buckets map[uint64][]*bucket
	log     logging.Logger
	closed  bool
}

// New returns an empty Pool. A zero Logger argument is replaced with a
// no-op logger.
func New(log logging.Logger) *Pool {
	if log == (logging.Logger{}) {
		log = logging.Nop()
	}
	return &Pool{
		buckets: make(map[uint64][]*bucket),
		log:     log,
	}
}

// lookup returns key's bucket, or nil if none exists yet.
func (p *Pool) lookup(key connkey.Key) *bucket {
	for _, b := range p.buckets[key.Hash()] {
		if b.key.Equal(key) {
			return b
		}
	}
	return nil
}

func (p *Pool) bucketFor(key connkey.Key) *bucket {
	if b := p.lookup(key); b != nil {
		return b
	}
	h := key.Hash()
	b := &bucket{key: key}
	p.buckets[h] = append(p.buckets[h], b)
	return b
}

// GetH1 pops the oldest idle HTTP/1 codec for key, if any.
func (p *Pool) GetH1(key connkey.Key) (*h1.Codec, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	b := p.lookup(key)
	if b == nil || len(b.idle) == 0 {
		return nil, false
	}
	codec := b.idle[0]
	b.idle = b.idle[1:]
	p.log.Debugw("pool hit", "key", key.String())
	return codec, true
}

// PutH1 returns codec to key's idle queue. Callers must only call this
// for codecs classified reusable; the façade computes that, not Pool.
func (p *Pool) PutH1(key connkey.Key, codec *h1.Codec) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		_ = codec.Close()
		return
	}
	b := p.bucketFor(key)
	b.idle = append(b.idle, codec)
	p.log.Debugw("pool put", "key", key.String(), "idle", len(b.idle))
}

// GetH2 returns a clone of key's shared H2 sender, if one exists and the
// peer hasn't signaled it can no longer accept streams.
func (p *Pool) GetH2(key connkey.Key) (*h2.SharedSender, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	b := p.lookup(key)
	if b == nil || b.h2 == nil {
		return nil, false
	}
	if !b.h2.CanTakeNewRequest() {
		b.h2 = nil
		return nil, false
	}
	return b.h2.Clone(), true
}

// PutH2 installs sender as key's shared H2 handle, replacing any prior one.
func (p *Pool) PutH2(key connkey.Key, sender *h2.SharedSender) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.bucketFor(key).h2 = sender
}

// Handle wraps a codec borrowed via GetH1 (or freshly dialed) with a
// back-pointer to the owning pool. If the pool has been closed by the
// time the handle is released, the connection is simply dropped instead
// of pooled.
type Handle struct {
	key      connkey.Key
	codec    *h1.Codec
	pool     *Pool
	released bool
}

// NewHandle wraps codec for key, owned by pool. A nil pool means this
// handle can never be pooled, e.g. a codec dialed fresh by a caller
// that doesn't want pooling.
func NewHandle(key connkey.Key, codec *h1.Codec, pool *Pool) *Handle {
	return &Handle{key: key, codec: codec, pool: pool}
}

// Codec returns the wrapped codec.
func (h *Handle) Codec() *h1.Codec { return h.codec }

// Release finalizes the handle: if reusable and the pool still exists,
// the codec is returned for the next Get of the same key; otherwise it
// is closed. Release is idempotent.
func (h *Handle) Release(reusable bool) {
	if h.released {
		return
	}
	h.released = true
	if reusable && h.pool != nil {
		h.pool.PutH1(h.key, h.codec)
		return
	}
	_ = h.codec.Close()
}

// Close closes every idle HTTP/1 codec held by the pool and discards any
// shared H2 senders (H2 senders aren't owned by the pool the way codecs
// are; their underlying transport is closed by whoever dialed it).
// Errors from individual codec closes are aggregated.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	var merr *multierror.Error
	for h, bs := range p.buckets {
		for _, b := range bs {
			for _, codec := range b.idle {
				if err := codec.Close(); err != nil {
					merr = multierror.Append(merr, err)
				}
			}
			b.idle = nil
			b.h2 = nil
		}
		delete(p.buckets, h)
	}
	return merr.ErrorOrNil()
}
