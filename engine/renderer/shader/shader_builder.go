package shader

// ShaderBuilderOption is a functional option used to configure a Shader during construction.
type ShaderBuilderOption func(*shader)

// WithPreProcessor sets the pre-processor used to expand //@oxy: annotations.
// Without it, sources are processed by an empty pre-processor that rejects every include.
//
// Parameters:
//   - pp: the pre-processor to use
//
// Returns:
//   - ShaderBuilderOption: a function that sets the pre-processor
func WithPreProcessor(pp PreProcessor) ShaderBuilderOption {
	return func(s *shader) {
		if pp != nil {
			s.pp = pp
		}
	}
}
