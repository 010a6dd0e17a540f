// Package physics runs the bubble canvas simulation: center gravity, soft
// boundary containment, pairwise collision separation, ambient drift and a
// pointer drag override. The engine is renderer agnostic; callers read a
// position table once per frame.
package physics

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

// Body is one simulated bubble, co-indexed with a topic by ID.
type Body struct {
	ID       int     `json:"id"`
	Pos      Vec     `json:"pos"`
	Vel      Vec     `json:"vel"`
	R        float64 `json:"r"`
	Seed     float64 `json:"seed"`
	Dragging bool    `json:"dragging"`
}

// BodySpec is the topic data a body is built from.
type BodySpec struct {
	ID    int
	Scale float64
}

// Position is the top-left offset of a body's bounding square.
type Position struct {
	ID int     `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	R  float64 `json:"r"`
}

// Engine owns every body. All methods are safe for concurrent use; a step
// holds the lock over the whole body array.
type Engine struct {
	mu sync.Mutex

	cfg   Config
	rng   *rand.Rand
	specs []BodySpec
	view  Viewport
	prefs Preferences

	bodies []Body
	index  map[int]int
	seeded bool
	clock  time.Duration

	drag      *dragState
	onRelease func(Gesture)
}

// New creates an empty engine. A nil rng is replaced by a time-seeded one.
func New(cfg Config, rng *rand.Rand) *Engine {
	if rng == nil {
		now := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(now, now>>17|1))
	}
	return &Engine{
		cfg:   cfg,
		rng:   rng,
		index: make(map[int]int),
	}
}

// Sync brings the engine in line with the current topic set, viewport and
// preferences. Bodies are re-seeded when the set of topics, the bubble scale
// or the viewport changes; otherwise only intensity and drifting are updated.
// It reports whether a re-seed happened.
func (e *Engine) Sync(specs []BodySpec, view Viewport, prefs Preferences) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.seeded && view == e.view && sameSpecs(specs, e.specs) &&
		prefs.bubbleScale() == e.prefs.bubbleScale() {
		e.prefs = prefs
		return false
	}
	e.reseed(specs, view, prefs)
	return true
}

// Reseed discards every body and spawns a fresh generation.
func (e *Engine) Reseed(specs []BodySpec, view Viewport, prefs Preferences) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reseed(specs, view, prefs)
}

// SetViewport re-seeds with the current topic set when the size changed.
func (e *Engine) SetViewport(view Viewport) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.seeded && view == e.view {
		return false
	}
	e.reseed(e.specs, view, e.prefs)
	return true
}

func (e *Engine) reseed(specs []BodySpec, view Viewport, prefs Preferences) {
	e.specs = append([]BodySpec(nil), specs...)
	e.view = view
	e.prefs = prefs
	e.drag = nil
	e.seeded = true

	center := view.Center()
	ring := e.cfg.SpawnRing * math.Max(view.W, view.H)

	e.bodies = make([]Body, len(specs))
	e.index = make(map[int]int, len(specs))
	for i, s := range specs {
		angle := e.rng.Float64() * 2 * math.Pi
		pos := center.Add(Vec{math.Cos(angle), math.Sin(angle)}.Scale(ring))
		jitter := Vec{
			(e.rng.Float64()*2 - 1) * e.cfg.Jitter,
			(e.rng.Float64()*2 - 1) * e.cfg.Jitter,
		}
		e.bodies[i] = Body{
			ID:   s.ID,
			Pos:  pos,
			Vel:  center.Sub(pos).Scale(e.cfg.Approach).Add(jitter),
			R:    e.radius(s.Scale, prefs),
			Seed: e.rng.Float64() * 1000,
		}
		e.index[s.ID] = i
	}
}

func (e *Engine) radius(scale float64, prefs Preferences) float64 {
	r := BaseRadius(scale) * prefs.bubbleScale()
	if !(r >= e.cfg.MinRadius) {
		return e.cfg.MinRadius
	}
	return r
}

func sameSpecs(a, b []BodySpec) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Step advances the simulation by one frame. elapsed moves the drift clock.
// Each pass runs over the full body array before the next one starts.
func (e *Engine) Step(elapsed time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if elapsed > 0 {
		e.clock += elapsed
	}
	if len(e.bodies) == 0 {
		return
	}

	e.applyGravity()
	e.applyBoundary()
	e.resolveCollisions()
	e.applyDrift()
	e.integrate()
}

func (e *Engine) applyGravity() {
	g := e.cfg.Gravity * e.prefs.intensity()
	center := e.view.Center()
	for i := range e.bodies {
		b := &e.bodies[i]
		if b.Dragging {
			continue
		}
		b.Vel = b.Vel.Add(center.Sub(b.Pos).Scale(g))
	}
}

func (e *Engine) applyBoundary() {
	m, k := e.cfg.Margin, e.cfg.BoundaryStiffness
	w, h := e.view.W, e.view.H
	for i := range e.bodies {
		b := &e.bodies[i]
		if b.Dragging {
			continue
		}
		if left := b.Pos.X - b.R; left < m {
			b.Vel.X += (m - left) * k
		} else if right := b.Pos.X + b.R; right > w-m {
			b.Vel.X -= (right - (w - m)) * k
		}
		if top := b.Pos.Y - b.R; top < m {
			b.Vel.Y += (m - top) * k
		} else if bottom := b.Pos.Y + b.R; bottom > h-m {
			b.Vel.Y -= (bottom - (h - m)) * k
		}
	}
}

// resolveCollisions separates every overlapping pair. A dragged body is an
// immovable obstacle: the free body takes the whole correction.
func (e *Engine) resolveCollisions() {
	for i := 0; i < len(e.bodies); i++ {
		for j := i + 1; j < len(e.bodies); j++ {
			a, b := &e.bodies[i], &e.bodies[j]
			if a.Dragging && b.Dragging {
				continue
			}

			d := b.Pos.Sub(a.Pos)
			minDist := a.R + b.R + e.cfg.Padding
			distSq := d.LenSq()
			if distSq >= minDist*minDist {
				continue
			}

			dist := math.Sqrt(distSq)
			normal := Vec{1, 0}
			if dist < e.cfg.MinDistance {
				dist = e.cfg.MinDistance
			} else {
				normal = d.Scale(1 / dist)
			}
			overlap := minDist - dist
			impulse := normal.Scale(overlap * e.cfg.Spring)

			shareA, shareB := 0.5, 0.5
			switch {
			case a.Dragging:
				shareA, shareB = 0, 1
			case b.Dragging:
				shareA, shareB = 1, 0
			}

			if !a.Dragging {
				a.Vel = a.Vel.Sub(impulse)
				a.Pos = a.Pos.Sub(normal.Scale(overlap * shareA))
			}
			if !b.Dragging {
				b.Vel = b.Vel.Add(impulse)
				b.Pos = b.Pos.Add(normal.Scale(overlap * shareB))
			}
		}
	}
}

func (e *Engine) applyDrift() {
	if !e.prefs.Drifting {
		return
	}
	amp := e.cfg.Drift * e.prefs.intensity()
	t := float64(e.clock.Milliseconds()) * e.cfg.DriftTimeScale
	for i := range e.bodies {
		b := &e.bodies[i]
		if b.Dragging {
			continue
		}
		b.Vel.X += (math.Sin(t+b.Seed) + math.Sin(t*0.5+b.Seed*0.3)) * amp
		b.Vel.Y += (math.Cos(t*0.7+b.Seed) + math.Cos(t*1.2+b.Seed*0.8)) * amp
	}
}

func (e *Engine) integrate() {
	for i := range e.bodies {
		b := &e.bodies[i]
		if b.Dragging {
			continue
		}
		b.Vel = b.Vel.Scale(e.cfg.Friction).ClampLen(e.cfg.MaxSpeed)
		if !b.Vel.finite() {
			b.Vel = Vec{}
		}
		b.Pos = b.Pos.Add(b.Vel)
		if !b.Pos.finite() {
			b.Pos = e.view.Center()
		}
	}
}

// Positions returns the position table for the current frame.
func (e *Engine) Positions() []Position {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Position, len(e.bodies))
	for i, b := range e.bodies {
		out[i] = Position{ID: b.ID, X: b.Pos.X - b.R, Y: b.Pos.Y - b.R, R: b.R}
	}
	return out
}

// Bodies returns a copy of every body.
func (e *Engine) Bodies() []Body {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Body(nil), e.bodies...)
}

// Body returns a copy of the body with the given id.
func (e *Engine) Body(id int) (Body, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i, ok := e.index[id]
	if !ok {
		return Body{}, false
	}
	return e.bodies[i], true
}

// Viewport returns the size the bodies were seeded for.
func (e *Engine) Viewport() Viewport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view
}

// Len returns the number of bodies.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.bodies)
}
