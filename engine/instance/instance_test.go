package instance

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-quads/common"
	"github.com/Carmen-Shannon/oxy-quads/engine/renderer/bind_group_provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gpuMirror records what a real device would hold in the instance buffer.
type gpuMirror struct {
	data     []byte
	count    int
	inits    int
	writes   int
	failNext error
}

func (m *gpuMirror) InitInstanceBuffer(_ bind_group_provider.BindGroupProvider, data []byte, count int) error {
	if err := m.failNext; err != nil {
		m.failNext = nil
		return err
	}
	m.inits++
	m.data = append([]byte(nil), data...)
	m.count = count
	return nil
}

func (m *gpuMirror) WriteInstanceBuffer(_ bind_group_provider.BindGroupProvider, offset uint64, data []byte) error {
	if err := m.failNext; err != nil {
		m.failNext = nil
		return err
	}
	m.writes++
	copy(m.data[offset:], data)
	return nil
}

func TestNewPublishesInitial(t *testing.T) {
	gpu := &gpuMirror{}
	b, err := New(gpu, "instances", []Record{Identity(), FromTranslationScale(150, 0, 0, 100)})
	require.NoError(t, err)

	assert.Equal(t, 2, b.Len())
	assert.Equal(t, 1, gpu.inits)
	assert.Equal(t, 2, gpu.count)
	assert.Equal(t, b.Bytes(), gpu.data)
}

func TestNewEmptyAllocatesNothing(t *testing.T) {
	gpu := &gpuMirror{}
	b, err := New(gpu, "instances", nil)
	require.NoError(t, err)
	assert.Zero(t, b.Len())
	assert.Zero(t, gpu.inits)
	assert.Empty(t, b.Bytes())
}

func TestAppendKeepsMirrorInSync(t *testing.T) {
	gpu := &gpuMirror{}
	b, err := New(gpu, "instances", nil)
	require.NoError(t, err)

	records := []Record{
		FromTranslationScale(-150, 0, 0, 100),
		FromTranslationScale(150, 0, 0, 100),
		FromTransform([3]float32{0, 120, 0}, 0.5, 40),
	}
	for i, r := range records {
		offset, err := b.Append(r)
		require.NoError(t, err)
		assert.Equal(t, i, offset)
		assert.Equal(t, b.Bytes(), gpu.data)
		assert.Equal(t, i+1, gpu.count)
	}
	assert.Equal(t, records, b.Records())
}

func TestAppendFailureLeavesStateUntouched(t *testing.T) {
	gpu := &gpuMirror{}
	b, err := New(gpu, "instances", []Record{Identity()})
	require.NoError(t, err)
	before := b.Bytes()

	boom := errors.New("out of memory")
	gpu.failNext = boom
	offset, err := b.Append(FromTranslationScale(1, 2, 3, 4))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, -1, offset)
	assert.Equal(t, 1, b.Len())
	assert.Equal(t, before, b.Bytes())
	assert.Equal(t, before, gpu.data)
}

func TestUpdateChangesOnlyOneRecord(t *testing.T) {
	gpu := &gpuMirror{}
	initial := []Record{
		FromTranslationScale(-150, 0, 0, 100),
		FromTranslationScale(0, 0, 0, 100),
		FromTranslationScale(150, 0, 0, 100),
	}
	b, err := New(gpu, "instances", initial)
	require.NoError(t, err)
	before := b.Bytes()

	replacement := FromTranslationScale(0, 200, 0, 50)
	require.NoError(t, b.Update(1, replacement))

	after := b.Bytes()
	assert.Equal(t, before[:RecordSize], after[:RecordSize])
	assert.Equal(t, before[2*RecordSize:], after[2*RecordSize:])
	assert.Equal(t, replacement.Marshal(), after[RecordSize:2*RecordSize])
	assert.Equal(t, after, gpu.data)
	assert.Equal(t, 1, gpu.inits)
	assert.Equal(t, 1, gpu.writes)
}

func TestUpdateOutOfRange(t *testing.T) {
	gpu := &gpuMirror{}
	b, err := New(gpu, "instances", []Record{Identity()})
	require.NoError(t, err)
	before := b.Bytes()

	for _, offset := range []int{1, 5, -1} {
		err := b.Update(offset, FromTranslationScale(9, 9, 9, 9))
		assert.ErrorIs(t, err, ErrOutOfRange)
	}
	assert.Equal(t, before, b.Bytes())
	assert.Equal(t, before, gpu.data)
	assert.Zero(t, gpu.writes)

	_, err = b.Record(1)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestUpdateFailureLeavesStateUntouched(t *testing.T) {
	gpu := &gpuMirror{}
	b, err := New(gpu, "instances", []Record{Identity()})
	require.NoError(t, err)

	gpu.failNext = errors.New("queue closed")
	assert.Error(t, b.Update(0, FromTranslationScale(1, 1, 1, 1)))
	r, err := b.Record(0)
	require.NoError(t, err)
	assert.Equal(t, Identity(), r)
}

func TestRecordHelpers(t *testing.T) {
	r := FromTranslationScale(150, 0, 0, 100)
	p := common.TransformPoint(r.Model[:], 1, 1, 0)
	assert.InDelta(t, 250, p[0], 1e-4)
	assert.InDelta(t, 100, p[1], 1e-4)

	moved := FromTransform([3]float32{150, 0, 0}, 0, 100)
	assert.InDeltaSlice(t, r.Model[:], moved.Model[:], 1e-5)

	assert.Len(t, Identity().Marshal(), RecordSize)
	assert.Equal(t, []float32{1, 0, 0, 0}, common.Float32s(Identity().Marshal())[:4])
}
