package vote

import (
	"context"
	"sync"
	"time"

	"github.com/labstack/gommon/log"
)

const DefaultCooldown = time.Second

// Timer is the part of *time.Timer the submitter needs.
type Timer interface {
	Stop() bool
}

// Clock schedules the re-enable of a control after its cool-down.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// State of a single rating control.
type State string

const (
	StateEnabled  State = "enabled"
	StateDisabled State = "disabled"
)

// Transition is reported to observers every time a control changes state.
type Transition struct {
	Control string
	From    State
	To      State
}

// Control is one physical voting button. It is throttled independently of
// every other control.
type Control struct {
	id       string
	mu       sync.Mutex
	enabled  bool
	observer func(Transition)
}

func (c *Control) ID() string {
	return c.id
}

func (c *Control) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

func (c *Control) disable() bool {
	c.mu.Lock()
	if !c.enabled {
		c.mu.Unlock()
		return false
	}
	c.enabled = false
	c.mu.Unlock()

	c.notify(StateEnabled, StateDisabled)
	return true
}

func (c *Control) enable() {
	c.mu.Lock()
	if c.enabled {
		c.mu.Unlock()
		return
	}
	c.enabled = true
	c.mu.Unlock()

	c.notify(StateDisabled, StateEnabled)
}

func (c *Control) notify(from, to State) {
	if c.observer != nil {
		c.observer(Transition{Control: c.id, From: from, To: to})
	}
}

// Submitter turns control presses into one-shot vote requests. A press
// disables its control for the cool-down window whatever the outcome of the
// request, and presses on a disabled control are dropped.
type Submitter struct {
	sender   Sender
	cooldown time.Duration
	clock    Clock
	logger   *log.Logger
	observer func(Transition)

	mu       sync.Mutex
	controls map[string]*Control
	timers   map[string]Timer

	wg sync.WaitGroup
}

type Option func(*Submitter)

func WithCooldown(d time.Duration) Option {
	return func(s *Submitter) {
		if d > 0 {
			s.cooldown = d
		}
	}
}

func WithClock(c Clock) Option {
	return func(s *Submitter) {
		s.clock = c
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Submitter) {
		s.logger = l
	}
}

// WithObserver registers a callback receiving every control transition.
func WithObserver(f func(Transition)) Option {
	return func(s *Submitter) {
		s.observer = f
	}
}

func NewSubmitter(sender Sender, opts ...Option) *Submitter {
	s := &Submitter{
		sender:   sender,
		cooldown: DefaultCooldown,
		clock:    realClock{},
		logger:   log.New("vote"),
		controls: make(map[string]*Control),
		timers:   make(map[string]Timer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Control returns the control registered under id, creating it enabled.
func (s *Submitter) Control(id string) *Control {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.controls[id]
	if !ok {
		c = &Control{id: id, enabled: true, observer: s.observer}
		s.controls[id] = c
	}
	return c
}

// Enabled reports whether control id accepts presses. Controls that were
// never pressed are enabled and are not registered by the lookup.
func (s *Submitter) Enabled(id string) bool {
	s.mu.Lock()
	c, ok := s.controls[id]
	s.mu.Unlock()
	return !ok || c.Enabled()
}

// Press handles one activation of control id. It reports whether a request
// was dispatched.
func (s *Submitter) Press(id string, i Intent) bool {
	if err := i.Validate(); err != nil {
		s.logger.Warnf("dropping press on %s: %v", id, err)
		return false
	}

	c := s.Control(id)
	if !c.disable() {
		s.logger.Debugf("control %s is cooling down", id)
		return false
	}

	// the callback takes s.mu, so it cannot run before the timer is stored
	s.mu.Lock()
	s.timers[id] = s.clock.AfterFunc(s.cooldown, func() {
		s.mu.Lock()
		delete(s.timers, id)
		s.mu.Unlock()
		c.enable()
	})
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.send(i)
	}()
	return true
}

func (s *Submitter) send(i Intent) {
	if err := s.sender.Send(context.Background(), i); err != nil {
		s.logger.Warnf("vote %s=%d for %s not recorded: %v", i.Category, i.Value, i.SongHash, err)
		return
	}
	s.logger.Debugf("vote %s=%d for %s recorded", i.Category, i.Value, i.SongHash)
}

// Wait blocks until every dispatched request has completed.
func (s *Submitter) Wait() {
	s.wg.Wait()
}

// Close stops pending re-enable timers and waits for in-flight requests.
func (s *Submitter) Close() {
	s.mu.Lock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()
	s.Wait()
}
