package collage

import (
	"errors"
	"math"
)

// ErrSessionClosed is returned when a finished session receives more pointer events.
var ErrSessionClosed = errors.New("session already ended")

// SessionState is the state of a pointer interaction.
type SessionState int

const (
	Idle SessionState = iota
	Dragging
	Resizing
)

// String implements fmt.Stringer.
func (s SessionState) String() string {
	switch s {
	case Dragging:
		return "dragging"
	case Resizing:
		return "resizing"
	}
	return "idle"
}

// Session is a single pointer interaction on an element, created on pointer
// down, fed with pointer moves and ended on pointer up. Moves are coalesced:
// only the latest one is applied on the next Tick.
type Session struct {
	ctrl  *Controller
	state SessionState
	kind  Kind
	index int

	origin Point
	start  Point
	initW  float64
	initH  float64

	frame Coalescer[Point]
}

// BeginDrag starts a free drag of an element from the given pointer position.
func (c *Controller) BeginDrag(kind Kind, index int, pointer Point) (*Session, error) {
	pos, err := c.Position(kind, index)
	if err != nil {
		return nil, err
	}
	return &Session{
		ctrl:   c,
		state:  Dragging,
		kind:   kind,
		index:  index,
		origin: pointer,
		start:  pos,
	}, nil
}

// BeginResize starts resizing an image from its resize handle. The image's
// current rendered size is captured as the initial size whose aspect ratio
// is kept for the whole session.
func (c *Controller) BeginResize(index int, pointer Point) (*Session, error) {
	w, h, err := c.RenderedSize(index)
	if err != nil {
		return nil, err
	}
	if w <= 0 || h <= 0 {
		return nil, ErrInvalidSize
	}
	return &Session{
		ctrl:   c,
		state:  Resizing,
		kind:   KindImage,
		index:  index,
		origin: pointer,
		initW:  w,
		initH:  h,
	}, nil
}

// State returns the current session state.
func (s *Session) State() SessionState {
	return s.state
}

// Target returns the kind and index of the element the session operates on.
func (s *Session) Target() (Kind, int) {
	return s.kind, s.index
}

// Move records the latest pointer position. The composition is only
// updated on the next Tick.
func (s *Session) Move(pointer Point) error {
	if s.state == Idle {
		return ErrSessionClosed
	}
	s.frame.Offer(pointer)
	return nil
}

// Tick applies the latest pending pointer move, if any. At most one state
// mutation happens per call. It reports whether the composition changed.
func (s *Session) Tick() (bool, error) {
	if s.state == Idle {
		return false, ErrSessionClosed
	}
	var err error
	applied := s.frame.Flush(func(p Point) {
		err = s.apply(p)
	})
	return applied && err == nil, err
}

// End finishes the session. A pending move which has not been flushed yet is dropped.
func (s *Session) End() {
	s.frame.Cancel()
	s.state = Idle
}

func (s *Session) apply(pointer Point) error {
	delta := pointer.Sub(s.origin)

	switch s.state {
	case Dragging:
		return s.ctrl.SetPosition(s.kind, s.index, s.start.Add(delta))
	case Resizing:
		w, h := ResizeKeepingAspect(s.initW, s.initH, s.initW+delta.X)
		return s.ctrl.Resize(s.index, w, h)
	}
	return nil
}

// ResizeKeepingAspect derives the height matching the requested width from
// the initial size's aspect ratio. The width never drops below one pixel and
// neither side grows beyond MaxImageSize.
func ResizeKeepingAspect(initW, initH, width float64) (float64, float64) {
	ratio := initH / initW
	width = math.Min(width, math.Min(MaxImageSize, MaxImageSize/ratio))
	width = math.Max(1, width)
	return width, width * ratio
}
