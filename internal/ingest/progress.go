package ingest

import (
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"mediasort/internal/catalog"
	"mediasort/internal/logging"
)

// progressInterval paces log-line progress when no terminal is attached.
const progressInterval = 5 * time.Second

type progressEvent struct {
	status catalog.Status
	size   int64
}

// reporter consumes the progress stream on a single goroutine. Senders never
// block: when the channel is full the event is dropped, since authoritative
// counts come from the catalog anyway.
type reporter struct {
	events  chan progressEvent
	done    chan struct{}
	logger  *slog.Logger
	out     io.Writer
	tty     bool
	dropped atomic.Int64
}

func newReporter(logger *slog.Logger, out io.Writer) *reporter {
	if out == nil {
		out = os.Stderr
	}
	tty := false
	if f, ok := out.(*os.File); ok {
		tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &reporter{
		events: make(chan progressEvent, 256),
		done:   make(chan struct{}),
		logger: logger,
		out:    out,
		tty:    tty,
	}
}

func (r *reporter) start() {
	go r.loop()
}

// observe publishes one outcome to the stream without blocking the caller.
func (r *reporter) observe(status catalog.Status, size int64) {
	select {
	case r.events <- progressEvent{status: status, size: size}:
	default:
		r.dropped.Add(1)
	}
}

// stop closes the stream and waits for the reporter goroutine to drain it.
func (r *reporter) stop() {
	close(r.events)
	<-r.done
}

func (r *reporter) loop() {
	defer close(r.done)
	if r.tty {
		r.loopBar()
		return
	}
	r.loopLog()
}

func (r *reporter) loopBar() {
	bar := progressbar.NewOptions64(-1,
		progressbar.OptionSetWriter(r.out),
		progressbar.OptionSetDescription("processing"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionClearOnFinish(),
	)
	for range r.events {
		_ = bar.Add(1)
	}
	_ = bar.Finish()
}

func (r *reporter) loopLog() {
	counts := make(map[catalog.Status]int)
	total := 0
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()
	emit := func() {
		r.logger.Info("progress",
			logging.Int("files", total),
			logging.Int("duplicates", counts[catalog.StatusDuplicate]),
			logging.Int("errors", counts[catalog.StatusError]),
		)
	}
	for {
		select {
		case ev, ok := <-r.events:
			if !ok {
				if total > 0 {
					emit()
				}
				return
			}
			counts[ev.status]++
			total++
		case <-ticker.C:
			if total > 0 {
				emit()
			}
		}
	}
}
