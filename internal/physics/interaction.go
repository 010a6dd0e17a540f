package physics

import "time"

// Gesture describes a finished pointer interaction with one body. A tap is a
// drag whose displacement stayed within the tap slop.
type Gesture struct {
	ID           int  `json:"id"`
	Displacement Vec  `json:"displacement"`
	Velocity     Vec  `json:"velocity"`
	Tap          bool `json:"tap"`
}

type pointerSample struct {
	point Vec
	at    time.Time
}

type dragState struct {
	id         int
	startPoint Vec
	startPos   Vec
	samples    []pointerSample
}

// OnRelease registers the callback fired after every release. It runs
// outside the engine lock.
func (e *Engine) OnRelease(fn func(Gesture)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onRelease = fn
}

// HitTest returns the id of the topmost body containing point.
func (e *Engine) HitTest(point Vec) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := len(e.bodies) - 1; i >= 0; i-- {
		b := e.bodies[i]
		if b.Pos.Sub(point).LenSq() <= b.R*b.R {
			return b.ID, true
		}
	}
	return 0, false
}

// Grab starts dragging a body. Only one body can be dragged at a time.
func (e *Engine) Grab(id int, point Vec, at time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	i, ok := e.index[id]
	if !ok || e.drag != nil {
		return false
	}
	b := &e.bodies[i]
	b.Dragging = true
	e.drag = &dragState{
		id:         id,
		startPoint: point,
		startPos:   b.Pos,
		samples:    []pointerSample{{point: point, at: at}},
	}
	return true
}

// Drag moves the grabbed body by the pointer delta since the grab.
func (e *Engine) Drag(id int, point Vec, at time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.drag
	if d == nil || d.id != id {
		return false
	}
	b := &e.bodies[e.index[id]]
	b.Pos = d.startPos.Add(point.Sub(d.startPoint))

	d.samples = append(d.samples, pointerSample{point: point, at: at})
	for len(d.samples) > 2 && at.Sub(d.samples[1].at) > e.cfg.ReleaseWindow {
		d.samples = d.samples[1:]
	}
	return true
}

// Release ends the drag, seeds the body's velocity from recent pointer
// motion and fires the release callback.
func (e *Engine) Release(id int, at time.Time) (Gesture, bool) {
	e.mu.Lock()
	d := e.drag
	if d == nil || d.id != id {
		e.mu.Unlock()
		return Gesture{}, false
	}
	b := &e.bodies[e.index[id]]
	b.Dragging = false
	b.Vel = e.releaseVelocity(d.samples, at)
	e.drag = nil

	disp := b.Pos.Sub(d.startPos)
	g := Gesture{
		ID:           id,
		Displacement: disp,
		Velocity:     b.Vel,
		Tap:          disp.Len() <= e.cfg.TapSlop,
	}
	fn := e.onRelease
	e.mu.Unlock()

	if fn != nil {
		fn(g)
	}
	return g, true
}

// Drop abandons the drag on id without a gesture: the body is let go at
// rest and the release callback does not fire.
func (e *Engine) Drop(id int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.drag
	if d == nil || d.id != id {
		return false
	}
	b := &e.bodies[e.index[id]]
	b.Dragging = false
	b.Vel = Vec{}
	e.drag = nil
	return true
}

// releaseVelocity is the finite difference over the samples inside the
// release window, converted to pixels per frame.
func (e *Engine) releaseVelocity(samples []pointerSample, at time.Time) Vec {
	last := samples[len(samples)-1]
	if at.Sub(last.at) > e.cfg.ReleaseWindow {
		return Vec{}
	}
	for _, s := range samples[:len(samples)-1] {
		dt := last.at.Sub(s.at)
		if dt > e.cfg.ReleaseWindow || dt <= 0 {
			continue
		}
		v := last.point.Sub(s.point).Scale(float64(e.cfg.FrameDuration) / float64(dt))
		return v.ClampLen(e.cfg.MaxSpeed)
	}
	return Vec{}
}

// Dragging returns the id of the body currently being dragged.
func (e *Engine) Dragging() (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.drag == nil {
		return 0, false
	}
	return e.drag.id, true
}
