package frame

// FrameRendererBuilderOption is a functional option for configuring a FrameRenderer.
type FrameRendererBuilderOption func(*frameRenderer)

// WithOverlays registers overlays drawn after the scene, in order.
//
// Parameters:
//   - overlays: the overlays to add; nil entries are ignored
//
// Returns:
//   - FrameRendererBuilderOption: option function to apply
func WithOverlays(overlays ...Overlay) FrameRendererBuilderOption {
	return func(f *frameRenderer) {
		for _, o := range overlays {
			if o != nil {
				f.overlays = append(f.overlays, o)
			}
		}
	}
}
