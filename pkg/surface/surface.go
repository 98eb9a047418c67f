// Package surface binds a resizable display region to a topology graph and
// renders the element tree as SVG.
//
// A Surface owns the viewport side of a [topology.Controller]: resize
// events are debounced and written into the graph bounds, and Render walks
// the element tree through the controller's component factories.
//
//	s := surface.New(c, surface.WithState(topology.State{"selected": "db"}))
//	s.Mount()
//	defer s.Dispose()
//	s.Resize(1280, 720)
//	_ = s.Render(w)
//
// Timer callbacks run on their own goroutine, so every access to the
// controller made by a Surface is serialized by its mutex. Callers sharing
// the controller with a Surface go through [Surface.Do].
package surface

import (
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"k8s.io/utils/clock"

	"github.com/matzehuels/topoview/pkg/debounce"
	"github.com/matzehuels/topoview/pkg/geom"
	"github.com/matzehuels/topoview/pkg/topology"
)

// DefaultDebounce is the resize coalescing window.
const DefaultDebounce = 100 * time.Millisecond

// Surface is the rendering adapter for one controller.
type Surface struct {
	mu         sync.Mutex
	controller *topology.Controller
	state      topology.State
	mounted    bool
	disposed   bool

	wait     time.Duration
	clock    clock.WithDelayedExecution
	logger   *log.Logger
	onChange func()
	resize   *debounce.Debouncer[geom.Dimensions]
}

// Option configures a Surface.
type Option func(*Surface)

// WithState supplies state pushed into the controller on Mount.
func WithState(s topology.State) Option {
	return func(sf *Surface) { sf.state = s }
}

// WithDebounce sets the resize coalescing window.
func WithDebounce(d time.Duration) Option {
	return func(sf *Surface) { sf.wait = d }
}

// WithClock replaces the clock driving the resize debounce.
func WithClock(c clock.WithDelayedExecution) Option {
	return func(sf *Surface) { sf.clock = c }
}

func WithLogger(l *log.Logger) Option {
	return func(sf *Surface) { sf.logger = l }
}

// WithOnChange registers fn to run after a resize has been applied. It runs
// without the surface lock held.
func WithOnChange(fn func()) Option {
	return func(sf *Surface) { sf.onChange = fn }
}

// New returns an unmounted surface for c.
func New(c *topology.Controller, opts ...Option) *Surface {
	s := &Surface{
		controller: c,
		wait:       DefaultDebounce,
		clock:      clock.RealClock{},
		logger:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.resize = debounce.New(s.wait, s.applySize, debounce.WithClock[geom.Dimensions](s.clock))
	return s
}

// Mount pushes the initial state into the controller. It is a no-op on a
// mounted or disposed surface.
func (s *Surface) Mount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mounted || s.disposed {
		return
	}
	s.mounted = true
	if s.state != nil {
		s.controller.SetState(s.state)
	}
}

// SetState replaces the externally supplied state. A mounted surface
// pushes it into the controller immediately.
func (s *Surface) SetState(st topology.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
	if s.mounted && !s.disposed && st != nil {
		s.controller.SetState(st)
	}
}

// Resize reports a new container size in pixels. Bursts are coalesced into
// a leading and a trailing update of the graph bounds.
func (s *Surface) Resize(width, height float64) {
	s.resize.Call(geom.Dimensions{Width: width, Height: height})
}

func (s *Surface) applySize(d geom.Dimensions) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	g := s.controller.Graph()
	if g == nil {
		s.mu.Unlock()
		s.logger.Debug("resize without graph", "width", d.Width, "height", d.Height)
		return
	}
	g.SetBounds(*g.Bounds().Clone().SetSize(d.Width, d.Height))
	s.mu.Unlock()

	s.logger.Debug("viewport resized", "width", d.Width, "height", d.Height)
	if s.onChange != nil {
		s.onChange()
	}
}

// Dispose cancels pending resizes. Later calls are ignored.
func (s *Surface) Dispose() {
	s.resize.Cancel()
	s.mu.Lock()
	s.disposed = true
	s.mu.Unlock()
}

// Do runs fn with exclusive access to the controller.
func (s *Surface) Do(fn func(c *topology.Controller) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.controller)
}

// Render writes the current element tree as an SVG document.
func (s *Surface) Render(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Render(w, s.controller)
}
