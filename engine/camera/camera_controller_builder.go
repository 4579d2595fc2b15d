package camera

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*cameraControllerImpl)

// WithPanStep sets how far one arrow key press pans, in screen pixels.
//
// Parameters:
//   - step: pan distance per key press, ignored unless positive
//
// Returns:
//   - CameraControllerOption: functional option to set the pan step
func WithPanStep(step float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		if step > 0 {
			cc.panStep = step
		}
	}
}

// WithZoomStep sets the zoom multiplier applied per zoom key press.
//
// Parameters:
//   - step: zoom multiplier, ignored unless greater than 1
//
// Returns:
//   - CameraControllerOption: functional option to set the zoom step
func WithZoomStep(step float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		if step > 1 {
			cc.zoomStep = step
		}
	}
}
