package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"dbkr/kontoauszug-reader/internal/logging"
	"dbkr/kontoauszug-reader/internal/models"
	"dbkr/kontoauszug-reader/internal/output"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DocumentParser turns one document into a Booking. A nil Booking without
// error means the document holds no statement.
type DocumentParser interface {
	ParseFile(path string) (*models.Booking, error)
}

// BookingRouter delivers a Booking.
type BookingRouter interface {
	Route(b *models.Booking) (output.Stats, error)
}

// Options configures a Processor.
type Options struct {
	// Workers bounds concurrent extraction; values below 1 mean NumCPU.
	Workers int
	// FailFast aborts the run at the first failed document.
	FailFast bool
}

// Processor runs documents through parse and route. Documents are parsed
// concurrently but routed one at a time in input order, so stream output
// and per-date collisions are deterministic.
type Processor struct {
	parser DocumentParser
	router BookingRouter
	opts   Options
	logger logging.Logger
}

// NewProcessor creates a Processor.
func NewProcessor(parser DocumentParser, router BookingRouter, opts Options, logger logging.Logger) *Processor {
	if opts.Workers < 1 {
		opts.Workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Processor{parser: parser, router: router, opts: opts, logger: logger}
}

// slot holds one document's parse outcome. done is closed once the outcome
// is set.
type slot struct {
	done    chan struct{}
	booking *models.Booking
	err     error
	skipped bool
}

// Run processes paths. Per-document failures are collected in the Result;
// the returned error is set only when the run was aborted, by FailFast or by
// ctx.
func (p *Processor) Run(ctx context.Context, paths []string) (*Result, error) {
	runID := uuid.NewString()
	log := p.logger.WithField(logging.FieldRunID, runID)
	start := time.Now()

	log.Info("Starting batch",
		logging.F(logging.FieldCount, len(paths)),
		logging.F(logging.FieldWorkers, p.opts.Workers))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(p.opts.Workers)

	slots := make([]slot, len(paths))
	for i := range slots {
		slots[i].done = make(chan struct{})
	}

	launched := make(chan struct{})
	go func() {
		defer close(launched)
		for i, path := range paths {
			i, path := i, path
			g.Go(func() error {
				defer close(slots[i].done)
				if err := gctx.Err(); err != nil {
					slots[i].skipped = true
					return nil
				}
				slots[i].booking, slots[i].err = p.parser.ParseFile(path)
				if slots[i].err != nil && p.opts.FailFast {
					return slots[i].err
				}
				return nil
			})
		}
	}()

	result := &Result{RunID: runID}
	var abortErr error
	for i, path := range paths {
		<-slots[i].done
		s := &slots[i]
		docLog := log.WithField(logging.FieldFile, path)

		switch {
		case s.skipped || abortErr != nil:
			result.Skipped++
			continue
		case s.err != nil:
			docLog.WithError(s.err).Error("Failed to process document")
			result.Failures = append(result.Failures, Failure{Path: path, Err: s.err})
			if p.opts.FailFast {
				abortErr = s.err
				cancel()
			}
			continue
		}

		result.Documents++
		if s.booking == nil {
			docLog.Debug("No statement in document")
			continue
		}
		result.Statements++
		result.Period = result.Period.Merge(DateRange{Start: s.booking.PeriodFrom, End: s.booking.PeriodTo})

		stats, err := p.router.Route(s.booking)
		result.Output.Add(stats)
		if err != nil {
			docLog.WithError(err).Error("Failed to write records")
			result.Failures = append(result.Failures, Failure{Path: path, Err: err})
			if p.opts.FailFast {
				abortErr = err
				cancel()
			}
			continue
		}
		docLog.Debug("Document routed", logging.F(logging.FieldCount, stats.LinesEmitted))
		// Release the decoded lines as soon as they are written.
		s.booking = nil
	}

	<-launched
	_ = g.Wait()

	if abortErr == nil && ctx.Err() != nil {
		abortErr = ctx.Err()
	}

	log.Info("Batch finished",
		logging.F(logging.FieldCount, result.Documents),
		logging.F("statements", result.Statements),
		logging.F("failures", len(result.Failures)),
		logging.F("lines_emitted", result.Output.LinesEmitted),
		logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))

	if abortErr != nil {
		if errors.Is(abortErr, context.Canceled) || errors.Is(abortErr, context.DeadlineExceeded) {
			return result, fmt.Errorf("batch aborted: %w", abortErr)
		}
		return result, fmt.Errorf("batch stopped after failure: %w", abortErr)
	}
	return result, nil
}
