// Package apistats records request statistics for the API route groups.
package apistats

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/stratafight/internal/app/store/apistats"
	"github.com/dalemusser/stratafight/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Recorder writes request samples to the stats store.
type Recorder struct {
	store  *apistats.Store
	logger *zap.Logger
	window time.Duration
	now    func() time.Time
	// async is false in tests so samples are visible on return.
	async bool
}

// NewRecorder creates a recorder that aggregates into buckets of window.
func NewRecorder(store *apistats.Store, logger *zap.Logger, window time.Duration) *Recorder {
	if window <= 0 {
		window = time.Hour
	}
	return &Recorder{store: store, logger: logger, window: window, now: time.Now, async: true}
}

// Record stores one sample. Failures are logged, never returned: stats must
// not affect responses.
func (r *Recorder) Record(group apistats.Group, status int, elapsed time.Duration) {
	s := apistats.Sample{Group: group, Status: status, DurationMs: elapsed.Milliseconds(), At: r.now()}
	write := func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Ping())
		defer cancel()
		if err := r.store.Record(ctx, r.window, s); err != nil {
			r.logger.Warn("failed to record API stats",
				zap.String("group", string(group)),
				zap.Error(err))
		}
	}
	if r.async {
		go write()
		return
	}
	write()
}

// Middleware records every request that passes through it under group.
// A nil recorder disables recording.
func Middleware(rec *Recorder, group apistats.Group) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rec == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			rec.Record(group, sw.status, time.Since(start))
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

// Flush implements http.Flusher.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
