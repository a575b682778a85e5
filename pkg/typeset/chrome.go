package typeset

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ChromeRenderer prints markup to PDF through headless Chrome.
type ChromeRenderer struct {
	timeout time.Duration
	tracer  trace.Tracer
	logger  zerolog.Logger
}

// NewChromeRenderer constructs a headless-Chrome backed renderer.
func NewChromeRenderer(timeout time.Duration, logger zerolog.Logger) *ChromeRenderer {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &ChromeRenderer{
		timeout: timeout,
		tracer:  otel.Tracer("github.com/moosefactory/registrar-api/pkg/typeset"),
		logger:  logger.With().Str("component", "chrome_renderer").Logger(),
	}
}

// Render navigates Chrome to the markup as a data URL and prints it.
func (r *ChromeRenderer) Render(parent context.Context, doc Document) (Result, error) {
	ctx, span := r.tracer.Start(parent, "typeset.chrome.render")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	// Spaces must be %20 in a data URL; url.QueryEscape would emit +.
	dataURL := "data:text/html;charset=utf-8," + percentEncode(doc.HTML)

	start := time.Now()
	var pdf []byte
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.5).
				WithPaperHeight(11.0).
				WithMarginTop(0.75).
				WithMarginBottom(0.75).
				WithMarginLeft(0.75).
				WithMarginRight(0.75).
				Do(ctx)
			return err
		}),
	)

	duration := time.Since(start)
	renderDuration.WithLabelValues("chrome").Observe(duration.Seconds())

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			renderTimeouts.WithLabelValues("chrome").Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, "render timed out")
			return Result{Duration: duration}, fmt.Errorf("%w after %s", ErrRenderTimeout, r.timeout)
		}

		renderFailures.WithLabelValues("chrome").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{Duration: duration}, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}

	return Result{
		PDF:      pdf,
		FileName: sanitizeFileName(doc.Name),
		Duration: duration,
	}, nil
}

func percentEncode(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '-', r == '_', r == '.', r == '~':
			b.WriteRune(r)
		case r == ' ':
			b.WriteString("%20")
		default:
			for _, byteValue := range []byte(string(r)) {
				b.WriteString(fmt.Sprintf("%%%02X", byteValue))
			}
		}
	}
	return b.String()
}
