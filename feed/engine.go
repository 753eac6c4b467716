package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labstack/gommon/log"
)

// NoneSeen is the watermark before any entry has been merged.
const NoneSeen int64 = -1

const DefaultPollInterval = time.Second

// Policy selects how the watermark follows merged entries.
type Policy string

const (
	// WatermarkMax checks every entry against the live watermark and keeps
	// the watermark at the highest index merged so far.
	WatermarkMax Policy = "max"
	// WatermarkLastWrite checks the entries of one poll against the
	// watermark the poll was issued with, and leaves the watermark at the
	// index of the last merged entry. An out-of-order batch therefore lowers
	// the starting point of the next poll. An index that was already merged
	// is still never merged twice.
	WatermarkLastWrite Policy = "last-write"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", WatermarkMax:
		return WatermarkMax, nil
	case WatermarkLastWrite:
		return WatermarkLastWrite, nil
	}
	return "", fmt.Errorf("unknown watermark policy %q", s)
}

// Display receives merged entries in merge order and shows the latest first.
type Display interface {
	Prepend(e Entry)
}

// PollResult describes one completed poll.
type PollResult struct {
	Start    int64
	Received int
	Merged   int
	Skipped  int
	Err      error
}

// Engine keeps the watermark and pulls new feed entries into a Display.
type Engine struct {
	fetcher  Fetcher
	display  Display
	interval time.Duration
	policy   Policy
	logger   *log.Logger

	mu      sync.Mutex
	highest int64
	// indices merged above the watermark under WatermarkLastWrite
	ahead map[int64]struct{}

	inFlight atomic.Bool
}

type Option func(*Engine)

func WithInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.interval = d
		}
	}
}

func WithPolicy(p Policy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithWatermark resumes from a previously reached watermark.
func WithWatermark(index int64) Option {
	return func(e *Engine) {
		e.highest = index
	}
}

func NewEngine(fetcher Fetcher, display Display, opts ...Option) *Engine {
	e := &Engine{
		fetcher:  fetcher,
		display:  display,
		interval: DefaultPollInterval,
		policy:   WatermarkMax,
		logger:   log.New("feed"),
		highest:  NoneSeen,
		ahead:    make(map[int64]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Watermark() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.highest
}

func (e *Engine) Policy() Policy {
	return e.policy
}

// Merge applies a single entry. It returns false when the entry is nil or
// not newer than the current watermark.
func (e *Engine) Merge(entry *Entry) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	merged := e.mergeLocked(entry, e.highest)
	e.pruneLocked()
	return merged
}

func (e *Engine) mergeLocked(entry *Entry, floor int64) bool {
	if entry == nil {
		return false
	}
	if entry.Index <= floor {
		return false
	}
	if _, ok := e.ahead[entry.Index]; ok {
		return false
	}

	e.display.Prepend(*entry)

	switch e.policy {
	case WatermarkLastWrite:
		e.highest = entry.Index
		e.ahead[entry.Index] = struct{}{}
	default:
		if entry.Index > e.highest {
			e.highest = entry.Index
		}
	}
	return true
}

// pruneLocked forgets indices the watermark has caught up with; the floor
// check rejects those from now on.
func (e *Engine) pruneLocked() {
	for idx := range e.ahead {
		if idx <= e.highest {
			delete(e.ahead, idx)
		}
	}
}

// PollOnce fetches everything after the watermark and merges it in the
// order received. Failures leave the state untouched; the next poll retries
// from the same watermark.
func (e *Engine) PollOnce(ctx context.Context) PollResult {
	floor := e.Watermark()
	res := PollResult{Start: floor + 1}

	entries, err := e.fetcher.Fetch(ctx, res.Start)
	if err != nil {
		res.Err = err
		switch {
		case errors.Is(err, ErrDecode):
			e.logger.Warnf("discarding feed payload: %v", err)
		case errors.Is(err, context.Canceled):
		default:
			e.logger.Warnf("poll from %d failed: %v", res.Start, err)
		}
		return res
	}
	res.Received = len(entries)

	e.mu.Lock()
	for _, entry := range entries {
		batchFloor := e.highest
		if e.policy == WatermarkLastWrite {
			batchFloor = floor
		}
		if e.mergeLocked(entry, batchFloor) {
			res.Merged++
		} else {
			res.Skipped++
		}
	}
	e.pruneLocked()
	highest := e.highest
	e.mu.Unlock()

	if res.Merged > 0 {
		e.logger.Debugf("merged %d of %d entries, watermark now %d", res.Merged, res.Received, highest)
	}
	return res
}

// Run polls immediately and then once per interval until ctx is done. A tick
// that fires while the previous poll is still in flight is skipped.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	e.logger.Infof("polling feed every %s (watermark policy %s)", e.interval, e.policy)
	e.dispatch(ctx, &wg)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.dispatch(ctx, &wg)
		}
	}
}

func (e *Engine) dispatch(ctx context.Context, wg *sync.WaitGroup) {
	if !e.inFlight.CompareAndSwap(false, true) {
		e.logger.Debugf("previous poll still in flight, skipping tick")
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer e.inFlight.Store(false)
		e.PollOnce(ctx)
	}()
}
