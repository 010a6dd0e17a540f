// Package canvas drives the bubble simulation at a fixed frame rate and
// streams the resulting position tables to renderers.
package canvas

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/p-n-ai/dia-canvas/internal/physics"
	"github.com/p-n-ai/dia-canvas/internal/progress"
)

// TopicSource is the read side of the progress tracker the loop needs.
type TopicSource interface {
	Topics() []progress.Topic
	LadderSnapshot() progress.Ladder
	Profile() progress.UserProfile
	SweepPulses(now time.Time) int
	Revision() uint64
}

// Body is one bubble as the renderer sees it.
type Body struct {
	ID      int     `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	R       float64 `json:"r"`
	Mastery float64 `json:"mastery"`
	Pulse   string  `json:"pulse,omitempty"`
	Stars   int     `json:"stars"`
}

// Frame is the position table for one simulation step. Selected is the
// topic most recently tapped, or zero.
type Frame struct {
	Seq      uint64 `json:"seq"`
	Selected int    `json:"selected,omitempty"`
	Bodies   []Body `json:"bodies"`
}

// LoopConfig configures the frame loop. Zero values use defaults.
type LoopConfig struct {
	FPS      int              // default 60
	Viewport physics.Viewport // default 1280x800
	Now      func() time.Time
}

// Loop steps the physics engine and fans frames out to subscribers. A
// subscriber that falls behind misses frames rather than stalling the loop.
type Loop struct {
	engine *physics.Engine
	src    TopicSource
	fps    int
	now    func() time.Time

	mu       sync.Mutex
	view     physics.Viewport
	rev      uint64
	synced   bool
	seq      uint64
	selected int
	subs     map[chan Frame]struct{}
	dropped  uint64
}

// NewLoop wires a loop to an engine and a topic source.
func NewLoop(engine *physics.Engine, src TopicSource, cfg LoopConfig) *Loop {
	if cfg.FPS <= 0 {
		cfg.FPS = 60
	}
	if cfg.Viewport.W <= 0 || cfg.Viewport.H <= 0 {
		cfg.Viewport = physics.Viewport{W: 1280, H: 800}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	l := &Loop{
		engine: engine,
		src:    src,
		fps:    cfg.FPS,
		now:    cfg.Now,
		view:   cfg.Viewport,
		subs:   make(map[chan Frame]struct{}),
	}
	engine.OnRelease(l.handleRelease)
	return l
}

// Engine returns the physics engine the loop drives.
func (l *Loop) Engine() *physics.Engine {
	return l.engine
}

func (l *Loop) handleRelease(g physics.Gesture) {
	if !g.Tap {
		return
	}
	l.mu.Lock()
	l.selected = g.ID
	l.mu.Unlock()
	slog.Debug("bubble tapped", "topic_id", g.ID)
}

// Selected returns the most recently tapped topic.
func (l *Loop) Selected() (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.selected, l.selected != 0
}

// ClearSelection dismisses the tapped topic.
func (l *Loop) ClearSelection() {
	l.mu.Lock()
	l.selected = 0
	l.mu.Unlock()
}

// Sync pushes the current topic set and display preferences into the
// engine. It reports whether the engine re-seeded.
func (l *Loop) Sync() bool {
	l.mu.Lock()
	view := l.view
	l.rev = l.src.Revision()
	l.synced = true
	l.mu.Unlock()
	return l.sync(view)
}

func (l *Loop) sync(view physics.Viewport) bool {
	topics := l.src.Topics()
	specs := make([]physics.BodySpec, len(topics))
	for i, t := range topics {
		specs[i] = physics.BodySpec{ID: t.TopicID, Scale: t.Scale}
	}
	p := l.src.Profile().Preferences
	reseeded := l.engine.Sync(specs, view, physics.Preferences{
		Intensity:   p.Intensity,
		Drifting:    p.ShowDrifting,
		BubbleScale: p.BubbleScale,
	})
	if reseeded {
		slog.Debug("canvas re-seeded", "bodies", len(specs), "w", view.W, "h", view.H)
	}
	return reseeded
}

// Resize changes the viewport and re-seeds when it differs.
func (l *Loop) Resize(view physics.Viewport) bool {
	if view.W <= 0 || view.H <= 0 {
		return false
	}
	l.mu.Lock()
	l.view = view
	l.mu.Unlock()
	return l.sync(view)
}

// Viewport returns the current canvas size.
func (l *Loop) Viewport() physics.Viewport {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.view
}

// Tick runs one frame: expired pulses are cleared, topic changes are
// synced, the engine steps and the frame is broadcast.
func (l *Loop) Tick(elapsed time.Duration) Frame {
	l.src.SweepPulses(l.now())

	l.mu.Lock()
	rev := l.src.Revision()
	stale := !l.synced || rev != l.rev
	view := l.view
	l.rev = rev
	l.synced = true
	l.mu.Unlock()
	if stale {
		l.sync(view)
	}

	l.engine.Step(elapsed)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	f := l.frameLocked()
	for ch := range l.subs {
		select {
		case ch <- f:
		default:
			l.dropped++
		}
	}
	return f
}

// Current builds a frame from the engine without stepping it.
func (l *Loop) Current() Frame {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frameLocked()
}

func (l *Loop) frameLocked() Frame {
	topics := l.src.Topics()
	byID := make(map[int]progress.Topic, len(topics))
	for _, t := range topics {
		byID[t.TopicID] = t
	}
	ladder := l.src.LadderSnapshot()

	positions := l.engine.Positions()
	bodies := make([]Body, 0, len(positions))
	for _, p := range positions {
		b := Body{ID: p.ID, X: p.X, Y: p.Y, R: p.R}
		if t, ok := byID[p.ID]; ok {
			b.Mastery = t.MasteryPercent
			b.Pulse = string(t.Pulse)
		}
		b.Stars = ladder[p.ID].StarLevel
		bodies = append(bodies, b)
	}
	return Frame{Seq: l.seq, Selected: l.selected, Bodies: bodies}
}

// Subscribe registers for frames. The returned func unsubscribes and closes
// the channel.
func (l *Loop) Subscribe(buffer int) (<-chan Frame, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Frame, buffer)
	l.mu.Lock()
	l.subs[ch] = struct{}{}
	l.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.subs, ch)
			l.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers returns the number of live subscriptions.
func (l *Loop) Subscribers() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs)
}

// Dropped returns how many frames were skipped for slow subscribers.
func (l *Loop) Dropped() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}

// Run ticks at the configured frame rate until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(l.fps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("canvas loop started", "fps", l.fps)
	last := l.now()
	for {
		select {
		case <-ctx.Done():
			slog.Info("canvas loop stopped", "frames", l.Current().Seq)
			return nil
		case <-ticker.C:
			now := l.now()
			l.Tick(now.Sub(last))
			last = now
		}
	}
}
