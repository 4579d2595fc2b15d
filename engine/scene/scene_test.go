package scene

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-quads/engine/geometry"
	"github.com/Carmen-Shannon/oxy-quads/engine/instance"
	"github.com/Carmen-Shannon/oxy-quads/engine/renderer/bind_group_provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCamera struct {
	publishes  int
	publishErr error
	w, h       int
	provider   bind_group_provider.BindGroupProvider
}

func (c *fakeCamera) Publish() error {
	c.publishes++
	return c.publishErr
}

func (c *fakeCamera) Resize(width, height int) {
	c.w, c.h = width, height
}

func (c *fakeCamera) BindGroupProvider() bind_group_provider.BindGroupProvider {
	return c.provider
}

type fakeGPU struct{}

func (fakeGPU) InitMeshBuffers(bind_group_provider.BindGroupProvider, []byte, []byte, int) error {
	return nil
}

func (fakeGPU) InitInstanceBuffer(bind_group_provider.BindGroupProvider, []byte, int) error {
	return nil
}

func (fakeGPU) WriteInstanceBuffer(bind_group_provider.BindGroupProvider, uint64, []byte) error {
	return nil
}

func newCamera() *fakeCamera {
	return &fakeCamera{provider: bind_group_provider.NewBindGroupProvider("camera")}
}

func plane(t *testing.T) geometry.GeometryBuffer {
	t.Helper()
	g, err := geometry.New(fakeGPU{}, "plane", geometry.Plane(), geometry.PlaneIndices())
	require.NoError(t, err)
	return g
}

func quads(t *testing.T, n int) instance.InstanceBuffer {
	t.Helper()
	records := make([]instance.Record, n)
	for i := range records {
		records[i] = instance.FromTranslationScale(float32(i)*10, 0, 0, 1)
	}
	b, err := instance.New(fakeGPU{}, "quads", records)
	require.NoError(t, err)
	return b
}

func TestNewSceneRequiresCamera(t *testing.T) {
	_, err := NewScene("main", nil)
	assert.Error(t, err)
}

func TestDrawCommandsCoverFullRanges(t *testing.T) {
	cam := newCamera()
	tex := bind_group_provider.NewBindGroupProvider("texture")
	g := plane(t)
	inst := quads(t, 4)

	s, err := NewScene("main", cam, WithRenderables(Renderable{
		PipelineKey: "quad",
		Geometry:    g,
		Instances:   inst,
		Bindings:    []bind_group_provider.BindGroupProvider{tex},
	}))
	require.NoError(t, err)

	cmds := s.DrawCommands()
	require.Len(t, cmds, 1)
	cmd := cmds[0]
	assert.Equal(t, "quad", cmd.PipelineKey)
	assert.Equal(t, uint32(4), cmd.InstanceCount)
	assert.Same(t, g.Provider(), cmd.Mesh)
	assert.Same(t, inst.Provider(), cmd.Instances)
	require.Len(t, cmd.BindGroups, 2)
	assert.Same(t, cam.provider, cmd.BindGroups[0])
	assert.Same(t, tex, cmd.BindGroups[1])
}

func TestDrawCommandsTrackAppends(t *testing.T) {
	inst := quads(t, 2)
	s, err := NewScene("main", newCamera(), WithRenderables(Renderable{PipelineKey: "quad", Geometry: plane(t), Instances: inst}))
	require.NoError(t, err)

	_, err = inst.Append(instance.Identity())
	require.NoError(t, err)
	assert.Equal(t, uint32(3), s.DrawCommands()[0].InstanceCount)
}

func TestDrawCommandsSkipEmptyInstances(t *testing.T) {
	s, err := NewScene("main", newCamera())
	require.NoError(t, err)

	require.NoError(t, s.AddRenderable(Renderable{PipelineKey: "quad", Geometry: plane(t), Instances: quads(t, 0)}))
	require.NoError(t, s.AddRenderable(Renderable{PipelineKey: "single", Geometry: plane(t)}))

	cmds := s.DrawCommands()
	require.Len(t, cmds, 1)
	assert.Equal(t, "single", cmds[0].PipelineKey)
	assert.Equal(t, uint32(1), cmds[0].InstanceCount)
	assert.Nil(t, cmds[0].Instances)
}

func TestAddRenderableValidates(t *testing.T) {
	s, err := NewScene("main", newCamera())
	require.NoError(t, err)

	assert.ErrorIs(t, s.AddRenderable(Renderable{Geometry: plane(t)}), ErrInvalidRenderable)
	assert.ErrorIs(t, s.AddRenderable(Renderable{PipelineKey: "quad"}), ErrInvalidRenderable)
	assert.Empty(t, s.Renderables())

	_, err = NewScene("main", newCamera(), WithRenderables(Renderable{}))
	assert.ErrorIs(t, err, ErrInvalidRenderable)
}

func TestPublishAndResizeForwardToCamera(t *testing.T) {
	cam := newCamera()
	s, err := NewScene("main", cam)
	require.NoError(t, err)

	require.NoError(t, s.Publish())
	assert.Equal(t, 1, cam.publishes)

	cam.publishErr = errors.New("queue lost")
	assert.ErrorIs(t, s.Publish(), cam.publishErr)

	s.Resize(1024, 768)
	assert.Equal(t, 1024, cam.w)
	assert.Equal(t, 768, cam.h)
	assert.Same(t, cam, s.Camera())
	assert.Equal(t, "main", s.Name())
}

func TestRelease(t *testing.T) {
	s, err := NewScene("main", newCamera(), WithRenderables(Renderable{PipelineKey: "quad", Geometry: plane(t), Instances: quads(t, 1)}))
	require.NoError(t, err)
	s.Release()
	assert.Empty(t, s.Renderables())
	assert.Empty(t, s.DrawCommands())
}
