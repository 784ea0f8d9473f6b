package sim

import (
	"fmt"
	"math"
	"time"
)

// Clock tracks game time in minutes. One real second at speed 1 advances
// minutesPerSecond game minutes.
type Clock struct {
	minutes   float64
	speed     float64
	perSecond float64
}

// NewClock creates a clock at 00:00.
func NewClock(speed, minutesPerSecond float64) *Clock {
	c := &Clock{speed: 1, perSecond: minutesPerSecond}
	if c.perSecond <= 0 {
		c.perSecond = 1
	}
	if err := c.SetSpeed(speed); err != nil {
		c.speed = 1
	}
	return c
}

// Advance moves game time forward by real elapsed time scaled by the speed
// multiplier and returns the scaled seconds used as the movement step.
func (c *Clock) Advance(elapsed time.Duration) float64 {
	dt := c.speed * elapsed.Seconds()
	c.minutes += dt * c.perSecond
	return dt
}

// SetSpeed changes the multiplier. Zero, negative and NaN values are rejected.
func (c *Clock) SetSpeed(v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return fmt.Errorf("sim: invalid clock speed %v", v)
	}
	c.speed = v
	return nil
}

// Speed returns the current multiplier.
func (c *Clock) Speed() float64 {
	return c.speed
}

// Minutes returns game time elapsed since 00:00.
func (c *Clock) Minutes() float64 {
	return c.minutes
}

// Reset rewinds to 00:00 keeping the speed.
func (c *Clock) Reset() {
	c.minutes = 0
}

// String formats game time as HH:MM.
func (c *Clock) String() string {
	m := int(c.minutes)
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
