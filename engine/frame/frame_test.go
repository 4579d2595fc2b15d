package frame

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-quads/engine/geometry"
	"github.com/Carmen-Shannon/oxy-quads/engine/instance"
	"github.com/Carmen-Shannon/oxy-quads/engine/renderer"
	"github.com/Carmen-Shannon/oxy-quads/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-quads/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTarget records the calls a real renderer would receive.
type fakeTarget struct {
	calls []string
	draws []renderer.DrawCommand

	beginErrs      []error
	drawErr        error
	endErr         error
	reconfigureErr error
}

func (t *fakeTarget) BeginFrame() error {
	t.calls = append(t.calls, "begin")
	if len(t.beginErrs) > 0 {
		err := t.beginErrs[0]
		t.beginErrs = t.beginErrs[1:]
		return err
	}
	return nil
}

func (t *fakeTarget) DrawCall(cmd renderer.DrawCommand) error {
	t.calls = append(t.calls, "draw:"+cmd.PipelineKey)
	if t.drawErr != nil {
		return t.drawErr
	}
	t.draws = append(t.draws, cmd)
	return nil
}

func (t *fakeTarget) EndFrame() error {
	t.calls = append(t.calls, "end")
	return t.endErr
}

func (t *fakeTarget) AbortFrame() {
	t.calls = append(t.calls, "abort")
}

func (t *fakeTarget) Present() error {
	t.calls = append(t.calls, "present")
	return nil
}

func (t *fakeTarget) Reconfigure() error {
	t.calls = append(t.calls, "reconfigure")
	return t.reconfigureErr
}

func (t *fakeTarget) SurfaceSize() (int, int) {
	return 800, 600
}

type fakeScene struct {
	target    *fakeTarget
	publishes int
	cmds      []renderer.DrawCommand
}

func (s *fakeScene) Publish() error {
	s.publishes++
	if s.target != nil {
		s.target.calls = append(s.target.calls, "publish")
	}
	return nil
}

func (s *fakeScene) DrawCommands() []renderer.DrawCommand {
	return s.cmds
}

type overlayFunc func(pass Pass, dt float32) error

func (f overlayFunc) DrawOverlay(pass Pass, dt float32) error {
	return f(pass, dt)
}

func newFixture(t *testing.T) (*fakeTarget, *fakeScene, FrameRenderer) {
	t.Helper()
	target := &fakeTarget{}
	sc := &fakeScene{target: target, cmds: []renderer.DrawCommand{{PipelineKey: "quad", InstanceCount: 2}}}
	f, err := NewFrameRenderer(target, sc)
	require.NoError(t, err)
	return target, sc, f
}

func TestRenderSequence(t *testing.T) {
	target, sc, f := newFixture(t)
	f.AddOverlay(overlayFunc(func(pass Pass, dt float32) error {
		w, h := pass.Size()
		assert.Equal(t, 800, w)
		assert.Equal(t, 600, h)
		assert.InDelta(t, 0.016, dt, 1e-6)
		return pass.Draw(renderer.DrawCommand{PipelineKey: "overlay", InstanceCount: 1})
	}))

	require.NoError(t, f.Render(0.016))
	assert.Equal(t, []string{"begin", "publish", "draw:quad", "draw:overlay", "end", "present"}, target.calls)
	assert.Equal(t, 1, sc.publishes)

	stats := f.Stats()
	assert.Equal(t, uint64(1), stats.Rendered)
	assert.Equal(t, 2, stats.Draws)
}

func TestSurfaceLostReconfiguresOnce(t *testing.T) {
	target, sc, f := newFixture(t)
	target.beginErrs = []error{renderer.ErrSurfaceLost}

	err := f.Render(0)
	assert.ErrorIs(t, err, ErrFrameSkipped)
	assert.ErrorIs(t, err, renderer.ErrSurfaceLost)
	assert.False(t, IsFatal(err))
	assert.Equal(t, []string{"begin", "reconfigure"}, target.calls)
	assert.Equal(t, 0, sc.publishes)

	target.calls = nil
	require.NoError(t, f.Render(0))
	assert.Equal(t, "begin", target.calls[0])
	assert.NotContains(t, target.calls, "reconfigure")

	stats := f.Stats()
	assert.Equal(t, uint64(1), stats.Skipped)
	assert.Equal(t, uint64(1), stats.Reconfigurations)
	assert.Equal(t, uint64(1), stats.Rendered)
}

func TestSurfaceLostReconfigureFailure(t *testing.T) {
	target, _, f := newFixture(t)
	target.beginErrs = []error{renderer.ErrSurfaceLost}
	target.reconfigureErr = errors.New("surface gone")

	err := f.Render(0)
	assert.ErrorIs(t, err, ErrFrameSkipped)
	assert.ErrorIs(t, err, target.reconfigureErr)
	assert.Equal(t, uint64(0), f.Stats().Reconfigurations)
}

func TestOutOfMemoryIsFatal(t *testing.T) {
	target, _, f := newFixture(t)
	target.beginErrs = []error{renderer.ErrSurfaceOutOfMemory}

	err := f.Render(0)
	assert.True(t, IsFatal(err))
	assert.NotErrorIs(t, err, ErrFrameSkipped)
	assert.Equal(t, []string{"begin"}, target.calls)
}

func TestTransientAcquireErrorSkipsFrame(t *testing.T) {
	target, _, f := newFixture(t)
	target.beginErrs = []error{errors.New("timeout")}

	err := f.Render(0)
	assert.ErrorIs(t, err, ErrFrameSkipped)
	assert.False(t, IsFatal(err))
	assert.Equal(t, []string{"begin"}, target.calls)
	assert.Equal(t, uint64(1), f.Stats().Skipped)
}

func TestDrawFailureAbortsWithoutPresent(t *testing.T) {
	target, _, f := newFixture(t)
	target.drawErr = errors.New("pipeline missing")

	err := f.Render(0)
	assert.ErrorIs(t, err, target.drawErr)
	assert.Equal(t, []string{"begin", "publish", "draw:quad", "abort"}, target.calls)
	assert.Equal(t, uint64(1), f.Stats().Failed)
}

func TestOverlayFailureAbortsWithoutPresent(t *testing.T) {
	target, _, f := newFixture(t)
	boom := errors.New("overlay broke")
	f.AddOverlay(overlayFunc(func(Pass, float32) error { return boom }))

	assert.ErrorIs(t, f.Render(0), boom)
	assert.NotContains(t, target.calls, "present")
	assert.Contains(t, target.calls, "abort")
}

func TestEndFailureAborts(t *testing.T) {
	target, _, f := newFixture(t)
	target.endErr = errors.New("submit failed")

	assert.ErrorIs(t, f.Render(0), target.endErr)
	assert.Equal(t, "abort", target.calls[len(target.calls)-1])
}

func TestPassInvalidAfterFrame(t *testing.T) {
	target, _, f := newFixture(t)
	var kept Pass
	f.AddOverlay(overlayFunc(func(pass Pass, _ float32) error {
		kept = pass
		return nil
	}))

	require.NoError(t, f.Render(0))
	require.NotNil(t, kept)
	before := len(target.calls)
	assert.ErrorIs(t, kept.Draw(renderer.DrawCommand{PipelineKey: "late"}), ErrPassEnded)
	assert.Len(t, target.calls, before)
}

func TestNewFrameRendererRequiresCollaborators(t *testing.T) {
	_, err := NewFrameRenderer(nil, &fakeScene{})
	assert.Error(t, err)
	_, err = NewFrameRenderer(&fakeTarget{}, nil)
	assert.Error(t, err)
}

type noopGPU struct{}

func (noopGPU) InitMeshBuffers(bind_group_provider.BindGroupProvider, []byte, []byte, int) error {
	return nil
}

func (noopGPU) InitInstanceBuffer(bind_group_provider.BindGroupProvider, []byte, int) error {
	return nil
}

func (noopGPU) WriteInstanceBuffer(bind_group_provider.BindGroupProvider, uint64, []byte) error {
	return nil
}

type staticCamera struct {
	provider bind_group_provider.BindGroupProvider
}

func (c staticCamera) Publish() error { return nil }

func (c staticCamera) Resize(int, int) {}

func (c staticCamera) BindGroupProvider() bind_group_provider.BindGroupProvider {
	return c.provider
}

func TestUnitQuadTwoInstancesDrawsSixIndicesTwice(t *testing.T) {
	g, err := geometry.New(noopGPU{}, "plane", geometry.Plane(), geometry.PlaneIndices())
	require.NoError(t, err)
	inst, err := instance.New(noopGPU{}, "quads", []instance.Record{
		instance.Identity(),
		instance.FromTranslationScale(150, 0, 0, 1),
	})
	require.NoError(t, err)

	sc, err := scene.NewScene("main", staticCamera{provider: bind_group_provider.NewBindGroupProvider("camera")},
		scene.WithRenderables(scene.Renderable{PipelineKey: "quad", Geometry: g, Instances: inst}))
	require.NoError(t, err)

	target := &fakeTarget{}
	f, err := NewFrameRenderer(target, sc)
	require.NoError(t, err)
	require.NoError(t, f.Render(0))

	require.Len(t, target.draws, 1)
	assert.Equal(t, uint32(6), g.IndexCount())
	assert.Equal(t, uint32(2), target.draws[0].InstanceCount)
}
