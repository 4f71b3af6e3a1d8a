package output

import (
	"sync"
	"time"

	"github.com/nathan-osman/go-sunrise"
	"lautenbacher.net/statusled/effect"
)

// NightDimmer scales all levels by Factor between sunset and sunrise at
// the given location before handing them to the next writer.
type NightDimmer struct {
	next      Writer
	latitude  float64
	longitude float64
	factor    float64
	now       func() time.Time

	mu   sync.Mutex
	day  time.Time
	rise time.Time
	set  time.Time
}

// NewNightDimmer wraps next. A nil now uses time.Now.
func NewNightDimmer(next Writer, latitude, longitude, factor float64, now func() time.Time) *NightDimmer {
	if now == nil {
		now = time.Now
	}
	return &NightDimmer{
		next:      next,
		latitude:  latitude,
		longitude: longitude,
		factor:    factor,
		now:       now,
	}
}

func (n *NightDimmer) Write(levels effect.Color) {
	if n.IsNight() {
		levels = levels.Scale(n.factor)
	}
	n.next.Write(levels)
}

// IsNight reports whether the current time lies outside sunrise..sunset.
func (n *NightDimmer) IsNight() bool {
	now := n.now()
	n.mu.Lock()
	defer n.mu.Unlock()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if !day.Equal(n.day) {
		n.day = day
		n.rise, n.set = sunrise.SunriseSunset(n.latitude, n.longitude, now.Year(), now.Month(), now.Day())
	}
	// polar day or night: go-sunrise returns zero times
	if n.rise.IsZero() || n.set.IsZero() {
		return false
	}
	return now.Before(n.rise) || now.After(n.set)
}
