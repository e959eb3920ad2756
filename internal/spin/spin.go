// Package spin adds user-driven rotation with spring-damped decay on top of
// the stage's steady animation.
package spin

import "github.com/charmbracelet/harmonica"

// Axis tracks an angle and an angular velocity that a spring pulls back
// toward zero.
type Axis struct {
	Position float64
	Velocity float64

	spring harmonica.Spring
	accel  float64 // Spring velocity while Velocity is being animated to 0
}

// NewAxis creates a critically damped axis updated fps times per second.
func NewAxis(fps int) Axis {
	return Axis{
		spring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0),
	}
}

// Update advances the angle by the current velocity and decays the velocity.
func (a *Axis) Update() {
	a.Position += a.Velocity
	a.Velocity, a.accel = a.spring.Update(a.Velocity, a.accel, 0)
}

// State is the pitch and yaw the user has added.
type State struct {
	Pitch, Yaw Axis
	fps        int
}

// New creates a resting state.
func New(fps int) *State {
	return &State{
		Pitch: NewAxis(fps),
		Yaw:   NewAxis(fps),
		fps:   fps,
	}
}

// Update advances both axes by one frame.
func (s *State) Update() {
	s.Pitch.Update()
	s.Yaw.Update()
}

// Impulse adds angular velocity, in radians per frame.
func (s *State) Impulse(pitch, yaw float64) {
	s.Pitch.Velocity += pitch
	s.Yaw.Velocity += yaw
}

// Reset returns both axes to rest at zero.
func (s *State) Reset() {
	s.Pitch = NewAxis(s.fps)
	s.Yaw = NewAxis(s.fps)
}
