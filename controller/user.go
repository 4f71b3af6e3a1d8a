package controller

import "lautenbacher.net/statusled/effect"

// SetUserColor stores the manual color and brightness and starts the user
// override. Components and brightness are clamped to [0,1]. Safe to call
// from any goroutine; the next tick picks it up.
func (c *Controller) SetUserColor(color effect.Color, brightness float64) {
	if !color.InRange() || !effect.InUnit(brightness) {
		c.logger.Warn("User color out of range, clamping", "color", color, "brightness", brightness)
	}
	u := userColor{color: color.Clamp(), brightness: effect.Clamp01(brightness)}
	c.mu.Lock()
	c.user = u
	c.mu.Unlock()
	c.logger.Info("User color set", "color", u.color, "brightness", u.brightness)
	c.conditions.ActivateUserOverride()
}

// ClearUserColor ends the user override. The stored color is kept so a
// later activation can reuse it.
func (c *Controller) ClearUserColor() {
	c.conditions.ClearUserOverride()
	c.logger.Info("User color cleared")
}

// UserColor returns the last color and brightness passed to SetUserColor.
func (c *Controller) UserColor() (effect.Color, float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user.color, c.user.brightness
}
