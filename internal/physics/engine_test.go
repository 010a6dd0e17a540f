package physics_test

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/p-n-ai/dia-canvas/internal/physics"
)

const frame = time.Second / 60

func newEngine(cfg physics.Config) *physics.Engine {
	return physics.New(cfg, rand.New(rand.NewPCG(1, 2)))
}

func specs(n int) []physics.BodySpec {
	out := make([]physics.BodySpec, n)
	for i := range out {
		out[i] = physics.BodySpec{ID: i + 1, Scale: 1}
	}
	return out
}

func TestBaseRadius(t *testing.T) {
	tests := []struct {
		scale float64
		want  float64
	}{
		{0, 35},
		{1, 55},
		{1.5, 65},
	}
	for _, tt := range tests {
		if got := physics.BaseRadius(tt.scale); got != tt.want {
			t.Errorf("BaseRadius(%v) = %v, want %v", tt.scale, got, tt.want)
		}
	}
}

func TestSync_ReseedTriggers(t *testing.T) {
	e := newEngine(physics.DefaultConfig())
	view := physics.Viewport{W: 800, H: 600}
	prefs := physics.Preferences{Intensity: 1, BubbleScale: 1}

	if !e.Sync(specs(3), view, prefs) {
		t.Fatal("first Sync() did not seed")
	}
	if e.Sync(specs(3), view, physics.Preferences{Intensity: 2, Drifting: true, BubbleScale: 1}) {
		t.Error("Sync() re-seeded on intensity/drifting change")
	}
	if !e.Sync(specs(4), view, prefs) {
		t.Error("Sync() did not re-seed on topic count change")
	}
	if !e.Sync(specs(4), view, physics.Preferences{BubbleScale: 1.5}) {
		t.Error("Sync() did not re-seed on bubble scale change")
	}
	if !e.Sync(specs(4), physics.Viewport{W: 1024, H: 768}, physics.Preferences{BubbleScale: 1.5}) {
		t.Error("Sync() did not re-seed on viewport change")
	}
	if e.Len() != 4 {
		t.Errorf("Len() = %d, want 4", e.Len())
	}
}

func TestReseed_SpawnsOnRing(t *testing.T) {
	cfg := physics.DefaultConfig()
	e := newEngine(cfg)
	view := physics.Viewport{W: 1000, H: 500}
	e.Reseed(specs(5), view, physics.Preferences{BubbleScale: 2})

	ring := cfg.SpawnRing * 1000
	for _, b := range e.Bodies() {
		if d := b.Pos.Dist(view.Center()); math.Abs(d-ring) > 1e-9 {
			t.Errorf("body %d spawned %v from center, want %v", b.ID, d, ring)
		}
		if b.R != 110 {
			t.Errorf("body %d R = %v, want 110", b.ID, b.R)
		}
		if b.Seed < 0 || b.Seed >= 1000 {
			t.Errorf("body %d Seed = %v, want [0,1000)", b.ID, b.Seed)
		}
	}
}

func TestStep_ZeroBodies(t *testing.T) {
	e := newEngine(physics.DefaultConfig())
	e.Sync(nil, physics.Viewport{W: 800, H: 600}, physics.Preferences{})
	for i := 0; i < 10; i++ {
		e.Step(frame)
	}
	if got := e.Positions(); len(got) != 0 {
		t.Errorf("Positions() = %v, want empty", got)
	}
}

func TestStep_NonPositiveRadiusFloored(t *testing.T) {
	cfg := physics.DefaultConfig()
	e := newEngine(cfg)
	e.Reseed([]physics.BodySpec{{ID: 1, Scale: -10}, {ID: 2, Scale: math.NaN()}},
		physics.Viewport{W: 800, H: 600}, physics.Preferences{})

	for i := 0; i < 120; i++ {
		e.Step(frame)
	}
	for _, b := range e.Bodies() {
		if b.R != cfg.MinRadius {
			t.Errorf("body %d R = %v, want %v", b.ID, b.R, cfg.MinRadius)
		}
		if math.IsNaN(b.Pos.X) || math.IsNaN(b.Pos.Y) {
			t.Errorf("body %d position is NaN", b.ID)
		}
	}
}

func TestStep_Containment(t *testing.T) {
	cfg := physics.DefaultConfig()
	e := newEngine(cfg)
	view := physics.Viewport{W: 800, H: 600}
	e.Reseed(specs(8), view, physics.Preferences{Intensity: 1, BubbleScale: 0.5})

	const tolerance = 100
	for i := 0; i < 3000; i++ {
		e.Step(frame)
		if i < 600 {
			continue
		}
		for _, b := range e.Bodies() {
			if b.Pos.X < -cfg.Margin-tolerance || b.Pos.X > view.W+cfg.Margin+tolerance ||
				b.Pos.Y < -cfg.Margin-tolerance || b.Pos.Y > view.H+cfg.Margin+tolerance {
				t.Fatalf("step %d: body %d escaped to %+v", i, b.ID, b.Pos)
			}
		}
	}
}

func TestStep_CollisionSeparates(t *testing.T) {
	cfg := physics.DefaultConfig()
	cfg.Gravity = 0
	cfg.Jitter = 0
	e := newEngine(cfg)
	view := physics.Viewport{W: 4000, H: 4000}
	e.Reseed(specs(2), view, physics.Preferences{})
	placePair(t, e, view.Center(), 50)

	minDist := 2*physics.BaseRadius(1) + cfg.Padding
	for i := 0; i < 500; i++ {
		e.Step(frame)
	}
	if d := pairDistance(e); d < minDist-1e-6 {
		t.Errorf("distance = %v, want >= %v", d, minDist)
	}
}

func TestStep_CollisionSettlesUnderGravity(t *testing.T) {
	cfg := physics.DefaultConfig()
	e := newEngine(cfg)
	view := physics.Viewport{W: 2000, H: 2000}
	e.Reseed(specs(2), view, physics.Preferences{Intensity: 1})
	placePair(t, e, view.Center(), 20)

	minDist := 2*physics.BaseRadius(1) + cfg.Padding
	for i := 0; i < 3000; i++ {
		e.Step(frame)
	}
	if d := pairDistance(e); d < minDist-1 {
		t.Errorf("distance = %v, want >= %v within tolerance", d, minDist)
	}
}

func TestStep_CoincidentCenters(t *testing.T) {
	cfg := physics.DefaultConfig()
	cfg.Gravity = 0
	e := newEngine(cfg)
	view := physics.Viewport{W: 4000, H: 4000}
	e.Reseed(specs(2), view, physics.Preferences{})
	placePair(t, e, view.Center(), 0)

	e.Step(frame)
	for _, b := range e.Bodies() {
		if math.IsNaN(b.Pos.X) || math.IsNaN(b.Vel.X) {
			t.Fatalf("body %d has NaN state: %+v", b.ID, b)
		}
	}
	if d := pairDistance(e); d <= 0 {
		t.Errorf("distance = %v, want separation", d)
	}
}

func TestPositions_TopLeft(t *testing.T) {
	e := newEngine(physics.DefaultConfig())
	e.Reseed(specs(1), physics.Viewport{W: 800, H: 600}, physics.Preferences{})
	b, _ := e.Body(1)
	p := e.Positions()[0]
	if p.X != b.Pos.X-b.R || p.Y != b.Pos.Y-b.R {
		t.Errorf("Position = %+v, want top-left of %+v", p, b)
	}
}

// placePair grabs both bodies in turn to park them dist apart around c with
// zero velocity, then releases them in place.
func placePair(t *testing.T, e *physics.Engine, c physics.Vec, dist float64) {
	t.Helper()
	now := time.Unix(0, 0)
	targets := []physics.Vec{{X: c.X - dist/2, Y: c.Y}, {X: c.X + dist/2, Y: c.Y}}
	for i, target := range targets {
		id := i + 1
		b, _ := e.Body(id)
		if !e.Grab(id, b.Pos, now) {
			t.Fatalf("Grab(%d) failed", id)
		}
		e.Drag(id, target, now)
		if _, ok := e.Release(id, now.Add(time.Second)); !ok {
			t.Fatalf("Release(%d) failed", id)
		}
	}
	for _, b := range e.Bodies() {
		if b.Vel != (physics.Vec{}) {
			t.Fatalf("body %d Vel = %+v after placement, want zero", b.ID, b.Vel)
		}
	}
}

func pairDistance(e *physics.Engine) float64 {
	bs := e.Bodies()
	return bs[0].Pos.Dist(bs[1].Pos)
}
