package collage

import (
	"bytes"
	"image/color"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newImageController(t *testing.T, w, h int) *Controller {
	t.Helper()

	ctrl := NewController()
	require.NoError(t, ctrl.AddImage(bytes.NewReader(pngBytes(t, w, h, color.NRGBA{G: 255, A: 255}))))
	return ctrl
}

func TestSession_DragAppliesLatestMovePerTick(t *testing.T) {
	assert := assert.New(t)
	ctrl := newImageController(t, 20, 20)
	require.NoError(t, ctrl.SetPosition(KindImage, 0, Point{100, 100}))

	s, err := ctrl.BeginDrag(KindImage, 0, Point{110, 110})
	require.NoError(t, err)
	assert.Equal(Dragging, s.State())
	kind, idx := s.Target()
	assert.Equal(KindImage, kind)
	assert.Equal(0, idx)

	for x := 111.0; x <= 130; x++ {
		assert.NoError(s.Move(Point{x, 90}))
	}
	pos, _ := ctrl.Position(KindImage, 0)
	assert.Equal(Point{100, 100}, pos)

	changed, err := s.Tick()
	assert.NoError(err)
	assert.True(changed)
	pos, _ = ctrl.Position(KindImage, 0)
	assert.Equal(Point{120, 80}, pos)

	// Nothing pending, nothing applied.
	changed, err = s.Tick()
	assert.NoError(err)
	assert.False(changed)
}

func TestSession_ResizeKeepsAspectRatio(t *testing.T) {
	assert := assert.New(t)
	ctrl := newImageController(t, 200, 100)

	s, err := ctrl.BeginResize(0, Point{200, 100})
	require.NoError(t, err)
	assert.Equal(Resizing, s.State())

	assert.NoError(s.Move(Point{150, 180}))
	_, err = s.Tick()
	assert.NoError(err)

	w, h, err := ctrl.RenderedSize(0)
	assert.NoError(err)
	assert.Equal(150.0, w)
	assert.Equal(75.0, h)

	// Shrinking past the origin clamps the width to a single pixel.
	assert.NoError(s.Move(Point{-500, 100}))
	_, err = s.Tick()
	assert.NoError(err)
	w, h, _ = ctrl.RenderedSize(0)
	assert.Equal(1.0, w)
	assert.Equal(0.5, h)
}

func TestSession_EndDropsPendingMove(t *testing.T) {
	assert := assert.New(t)
	ctrl := newImageController(t, 10, 10)

	s, err := ctrl.BeginDrag(KindImage, 0, Point{})
	require.NoError(t, err)
	assert.NoError(s.Move(Point{50, 50}))
	s.End()
	assert.Equal(Idle, s.State())

	pos, _ := ctrl.Position(KindImage, 0)
	assert.Equal(Point{}, pos)

	assert.ErrorIs(s.Move(Point{1, 1}), ErrSessionClosed)
	_, err = s.Tick()
	assert.ErrorIs(err, ErrSessionClosed)
}

func TestSession_BeginErrors(t *testing.T) {
	ctrl := NewController()
	_, err := ctrl.BeginDrag(KindText, 0, Point{})
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = ctrl.BeginResize(0, Point{})
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestSession_ResizeKeepingAspect(t *testing.T) {
	w, h := ResizeKeepingAspect(200, 100, 150)
	assert.Equal(t, 150.0, w)
	assert.Equal(t, 75.0, h)

	w, h = ResizeKeepingAspect(100, 300, 0)
	assert.Equal(t, 1.0, w)
	assert.Equal(t, 3.0, h)

	w, h = ResizeKeepingAspect(100, 200, 1e7)
	assert.Equal(t, float64(MaxImageSize/2), w)
	assert.Equal(t, float64(MaxImageSize), h)
}

func TestCoalescer(t *testing.T) {
	assert := assert.New(t)
	var c Coalescer[int]

	assert.False(c.Pending())
	assert.False(c.Flush(func(int) { t.Fatal("nothing to flush") }))

	c.Offer(1)
	c.Offer(2)
	c.Offer(3)
	assert.True(c.Pending())

	var got []int
	assert.True(c.Flush(func(v int) { got = append(got, v) }))
	assert.False(c.Flush(func(v int) { got = append(got, v) }))
	assert.Equal([]int{3}, got)

	c.Offer(4)
	c.Cancel()
	assert.False(c.Pending())
}

func TestCoalescer_ConcurrentOffers(t *testing.T) {
	var (
		c  Coalescer[int]
		wg sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Offer(i*100 + j)
			}
		}(i)
	}
	wg.Wait()

	applied := 0
	for c.Flush(func(int) { applied++ }) {
	}
	assert.Equal(t, 1, applied)
}
