package h2

import (
	"context"
	"io"
	"net/http"

	"golang.org/x/sync/semaphore"

	"github.com/harborlane/httpcore/internal/body"
	"github.com/harborlane/httpcore/internal/httpx"
	"github.com/harborlane/httpcore/internal/logging"
)

// PumpLimiter bounds the number of concurrently in-flight body-pump tasks
// across every sender that shares it, so a pathological client can't spawn unbounded
// goroutines feeding request bodies. A nil limiter disables the bound.
type PumpLimiter struct {
	sem *semaphore.Weighted
}

// NewPumpLimiter returns a limiter allowing up to n concurrent pumps.
func NewPumpLimiter(n int64) *PumpLimiter {
	return &PumpLimiter{sem: semaphore.NewWeighted(n)}
}

// requestBody adapts a body.Body into the io.ReadCloser shape
// http2.ClientConn.RoundTrip expects for http.Request.Body. Because
// x/net/http2 owns frame sequencing and peer flow control internally,
// this reader *is* the body pump: its Read calls are what paces data
// into the stream, and stream reset / context cancellation are observed
// the moment the underlying RoundTrip's request context is done.
type requestBody struct {
	ctx     context.Context
	cancel  context.CancelFunc
	reader  *body.Reader
	limiter *PumpLimiter
	log     logging.Logger
	done    chan struct{}
}

// newRequestBody wraps b for submission as req.Body, acquiring a pump
// slot from limiter (blocking briefly if the bound is saturated; the
// per-frame capacity waits themselves happen inside x/net/http2's
// write loop).
func newRequestBody(ctx context.Context, b body.Body, limiter *PumpLimiter, log logging.Logger) (*requestBody, error) {
	ctx, cancel := context.WithCancel(ctx)
	if limiter != nil {
		if err := limiter.sem.Acquire(ctx, 1); err != nil {
			cancel()
			return nil, err
		}
	}
	return &requestBody{
		ctx:     ctx,
		cancel:  cancel,
		reader:  body.NewReader(ctx, b),
		limiter: limiter,
		log:     log,
		done:    make(chan struct{}),
	}, nil
}

func (r *requestBody) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	if err == io.EOF {
		r.log.Debugw("h2 body pump done")
	}
	return n, err
}

// Close releases the pump's concurrency slot. Called by x/net/http2 once
// the stream is done, reset, or canceled.
func (r *requestBody) Close() error {
	select {
	case <-r.done:
		return nil
	default:
		close(r.done)
	}
	r.cancel()
	if r.limiter != nil {
		r.limiter.sem.Release(1)
	}
	return nil
}

// NewRequest builds an *http.Request whose Body is the body-pump adapter
// for b, ready to hand to SharedSender.RoundTrip. method/target/header
// mirror the already-encoded HTTP/1 head so both protocols share one
// Request model upstream (see internal/conn).
func NewRequest(ctx context.Context, method, url string, header http.Header, b body.Body, limiter *PumpLimiter, log logging.Logger) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header = header

	if b.Hint() == httpx.HintNone {
		req.ContentLength = 0
		return req, nil
	}

	rb, err := newRequestBody(ctx, b, limiter, log)
	if err != nil {
		return nil, err
	}
	req.Body = rb
	return req, nil
}
