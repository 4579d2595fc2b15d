package overlay

import "time"

// HUDBuilderOption is a functional option for configuring a HUD.
type HUDBuilderOption func(*hud)

// WithTitle sets the highlighted first line of the panel.
//
// Parameters:
//   - title: the heading text
//
// Returns:
//   - HUDBuilderOption: option function to apply
func WithTitle(title string) HUDBuilderOption {
	return func(h *hud) {
		h.title = title
	}
}

// WithStatsSource sets the callback supplying the body lines.
//
// Parameters:
//   - source: returns the lines to draw
//
// Returns:
//   - HUDBuilderOption: option function to apply
func WithStatsSource(source StatsSource) HUDBuilderOption {
	return func(h *hud) {
		h.source = source
	}
}

// WithRefreshInterval sets the minimum time between redraws. Non-positive values redraw every frame.
//
// Parameters:
//   - d: the refresh interval
//
// Returns:
//   - HUDBuilderOption: option function to apply
func WithRefreshInterval(d time.Duration) HUDBuilderOption {
	return func(h *hud) {
		h.refresh = max(d, 0)
	}
}

// WithVisible sets whether the panel starts shown. Defaults to true.
//
// Parameters:
//   - visible: the initial visibility
//
// Returns:
//   - HUDBuilderOption: option function to apply
func WithVisible(visible bool) HUDBuilderOption {
	return func(h *hud) {
		h.visible = visible
	}
}

// WithOrigin sets the panel's top-left corner in pixels from the top-left of the surface.
//
// Parameters:
//   - x, y: the corner position
//
// Returns:
//   - HUDBuilderOption: option function to apply
func WithOrigin(x, y float32) HUDBuilderOption {
	return func(h *hud) {
		h.originX, h.originY = x, y
	}
}
