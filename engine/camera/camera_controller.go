package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-quads/common"
)

// CameraController translates key presses into camera movement: arrow keys pan, minus and
// equals zoom out and in, R resets. It changes the camera's parameters only; the new matrix
// reaches the GPU on the next Publish.
type CameraController interface {
	// HandleKey applies the action bound to keyCode, if any.
	//
	// Parameters:
	//   - keyCode: a common.Key* code
	//
	// Returns:
	//   - bool: true if the key was bound to an action
	HandleKey(keyCode uint32) bool

	// HandleScroll zooms in one step for a positive delta and out one step for a negative one.
	//
	// Parameters:
	//   - delta: the vertical scroll offset
	HandleScroll(delta float32)

	// Camera returns the controlled camera.
	Camera() Camera

	// PanStep returns the pan distance per key press in screen pixels.
	PanStep() float32

	// ZoomStep returns the zoom multiplier per key press.
	ZoomStep() float32
}

// cameraControllerImpl is the single implementation of CameraController.
type cameraControllerImpl struct {
	mu *sync.Mutex

	camera Camera

	panStep  float32
	zoomStep float32
}

// Compile-time interface compliance check
var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a key-driven controller for cam.
//
// Parameters:
//   - cam: the camera to move
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(cam Camera, options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu:       &sync.Mutex{},
		camera:   cam,
		panStep:  25,
		zoomStep: 1.25,
	}
	for _, option := range options {
		option(cc)
	}
	return cc
}

func (cc *cameraControllerImpl) HandleKey(keyCode uint32) bool {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	// Pan in screen pixels so a key press moves the view the same amount at any zoom.
	step := cc.panStep / cc.camera.Zoom()
	switch keyCode {
	case common.KeyLeft:
		cc.camera.Pan(-step, 0)
	case common.KeyRight:
		cc.camera.Pan(step, 0)
	case common.KeyUp:
		cc.camera.Pan(0, step)
	case common.KeyDown:
		cc.camera.Pan(0, -step)
	case common.KeyEqual:
		cc.camera.SetZoom(cc.camera.Zoom() * cc.zoomStep)
	case common.KeyMinus:
		cc.camera.SetZoom(cc.camera.Zoom() / cc.zoomStep)
	case common.KeyR:
		cc.camera.Reset()
	default:
		return false
	}
	return true
}

func (cc *cameraControllerImpl) HandleScroll(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	switch {
	case delta > 0:
		cc.camera.SetZoom(cc.camera.Zoom() * cc.zoomStep)
	case delta < 0:
		cc.camera.SetZoom(cc.camera.Zoom() / cc.zoomStep)
	}
}

func (cc *cameraControllerImpl) Camera() Camera {
	return cc.camera
}

func (cc *cameraControllerImpl) PanStep() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.panStep
}

func (cc *cameraControllerImpl) ZoomStep() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.zoomStep
}
