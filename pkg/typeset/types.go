// Package typeset converts rendered form markup into PDF documents using an
// external typesetting process with a bounded wait.
package typeset

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ErrRenderFailed indicates the typesetting process produced no document.
	ErrRenderFailed = errors.New("document render failed")
	// ErrRenderTimeout indicates the typesetting process exceeded its bounded wait.
	ErrRenderTimeout = errors.New("document render timed out")
)

var (
	renderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "registrar",
		Subsystem: "typeset",
		Name:      "render_duration_seconds",
		Help:      "Duration of document render invocations",
		Buckets:   prometheus.DefBuckets,
	}, []string{"backend"})

	renderTimeouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "registrar",
		Subsystem: "typeset",
		Name:      "render_timeouts_total",
		Help:      "Number of renders that hit the timeout",
	}, []string{"backend"})

	renderFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "registrar",
		Subsystem: "typeset",
		Name:      "render_failures_total",
		Help:      "Number of renders that resulted in an error",
	}, []string{"backend"})
)

// Document describes a single render job.
type Document struct {
	// Name seeds the output file name; it is sanitized before use.
	Name string
	// HTML is the markup handed to the typesetter.
	HTML string
}

// Result is the outcome of a successful render.
type Result struct {
	PDF      []byte
	FileName string
	Duration time.Duration
}

// Renderer converts markup into a PDF within a bounded wait.
type Renderer interface {
	Render(ctx context.Context, doc Document) (Result, error)
}

// sanitizeFileName builds a safe output file name from a document name.
func sanitizeFileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('-')
		}
	}

	out := b.String()
	if len(out) > 64 {
		out = out[:64]
	}
	if out == "" {
		out = fmt.Sprintf("document-%d", time.Now().Unix())
	}

	return out + ".pdf"
}
