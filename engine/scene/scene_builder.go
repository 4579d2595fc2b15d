package scene

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene) error

// WithRenderables adds initial renderables to the scene, in draw order.
//
// Parameters:
//   - renderables: the renderables to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithRenderables(renderables ...Renderable) SceneBuilderOption {
	return func(s *scene) error {
		for _, r := range renderables {
			if err := s.AddRenderable(r); err != nil {
				return err
			}
		}
		return nil
	}
}
