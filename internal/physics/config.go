package physics

import "time"

// Config holds the tuning constants of the simulation. Forces are applied per
// frame, so coefficients are expressed per frame rather than per second.
type Config struct {
	Gravity           float64       // center pull per pixel of displacement, scaled by intensity
	Drift             float64       // ambient drift amplitude, scaled by intensity
	DriftTimeScale    float64       // drift phase advance per millisecond of sim time
	Friction          float64       // velocity multiplier per frame
	Spring            float64       // collision impulse per pixel of overlap
	Padding           float64       // visual gap kept between bubbles
	Margin            float64       // distance from the viewport edge that triggers containment
	BoundaryStiffness float64       // containment pull per pixel of penetration
	MaxSpeed          float64       // velocity clamp in pixels per frame
	MinRadius         float64       // floor for computed radii
	MinDistance       float64       // floor for center distance before normalizing
	SpawnRing         float64       // spawn ring radius as a fraction of max(w, h)
	Approach          float64       // initial velocity toward the center per pixel of displacement
	Jitter            float64       // max magnitude of the random initial velocity per axis
	FrameDuration     time.Duration // nominal frame time used to convert pointer speed
	ReleaseWindow     time.Duration // pointer history used for the release velocity
	TapSlop           float64       // max displacement in pixels for a gesture to count as a tap
}

// DefaultConfig returns the tuned defaults for the bubble canvas.
func DefaultConfig() Config {
	return Config{
		Gravity:           0.00018,
		Drift:             0.015,
		DriftTimeScale:    0.0008,
		Friction:          0.99,
		Spring:            0.06,
		Padding:           10,
		Margin:            30,
		BoundaryStiffness: 0.02,
		MaxSpeed:          40,
		MinRadius:         4,
		MinDistance:       0.1,
		SpawnRing:         0.4,
		Approach:          0.005,
		Jitter:            1,
		FrameDuration:     time.Second / 60,
		ReleaseWindow:     80 * time.Millisecond,
		TapSlop:           4,
	}
}

// Viewport is the canvas size in pixels.
type Viewport struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Center returns the midpoint of the viewport.
func (v Viewport) Center() Vec { return Vec{v.W / 2, v.H / 2} }

// Preferences are the user-controlled knobs the simulation reads.
type Preferences struct {
	Intensity   float64 // 0..2; non-positive means 1
	Drifting    bool
	BubbleScale float64 // 0..2; non-positive means 1
}

func (p Preferences) intensity() float64 {
	if !(p.Intensity > 0) {
		return 1
	}
	return p.Intensity
}

func (p Preferences) bubbleScale() float64 {
	if !(p.BubbleScale > 0) {
		return 1
	}
	return p.BubbleScale
}

// BaseRadius maps a topic scale onto a bubble radius before the global size
// preference is applied.
func BaseRadius(scale float64) float64 {
	return 35 + 20*scale
}
