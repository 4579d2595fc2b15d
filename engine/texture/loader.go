package texture

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-quads/common"
)

var (
	// ErrLoaderBusy is returned by Submit when the queue already holds QueueSize undrained requests.
	ErrLoaderBusy = errors.New("texture loader queue is full")

	// ErrLoaderClosed is returned by Submit after Close.
	ErrLoaderClosed = errors.New("texture loader is closed")
)

// Result is a finished decode handed back by Loader.Drain.
type Result struct {
	// ID is the value Submit returned for the request.
	ID int
	// Path is the file that was decoded.
	Path string
	// Staging holds the pixels when Err is nil.
	Staging common.TextureStagingData
	// Err is the decode failure, if any.
	Err error
}

type loaderImpl struct {
	mu *sync.Mutex

	pool      worker.DynamicWorkerPool
	workers   int
	queueSize int
	decode    func(path string) (common.TextureStagingData, error)

	results chan Result
	pending atomic.Int32
	nextID  int
	closed  bool
}

// Loader decodes image files off the render thread. Decodes run on a bounded worker pool;
// finished results wait in a channel until the render thread drains them, so GPU uploads
// only ever happen on the thread that calls Drain.
type Loader interface {
	// Submit queues path for decoding. It never blocks.
	//
	// Parameters:
	//   - path: the image file to decode
	//
	// Returns:
	//   - int: the request ID reported back in Result.ID
	//   - error: ErrLoaderBusy when too many results are undrained, ErrLoaderClosed after Close
	Submit(path string) (int, error)

	// Drain calls fn for every finished result without waiting for outstanding decodes.
	//
	// Parameters:
	//   - fn: called once per result, in completion order
	//
	// Returns:
	//   - int: the number of results delivered
	Drain(fn func(Result)) int

	// Pending returns the number of submitted requests not yet drained.
	Pending() int

	// Close stops the workers. Results already finished can still be drained.
	Close()
}

var _ Loader = &loaderImpl{}

// NewLoader creates a Loader backed by a dynamic worker pool.
//
// Parameters:
//   - options: functional options to configure the loader
//
// Returns:
//   - Loader: the running loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loaderImpl{
		mu:        &sync.Mutex{},
		workers:   2,
		queueSize: 8,
		decode:    Load,
	}
	for _, option := range options {
		option(l)
	}
	l.results = make(chan Result, l.queueSize)
	l.pool = worker.NewDynamicWorkerPool(l.workers, l.queueSize, 1*time.Second)
	return l
}

func (l *loaderImpl) Submit(path string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return 0, ErrLoaderClosed
	}
	if int(l.pending.Load()) >= l.queueSize {
		return 0, ErrLoaderBusy
	}

	id := l.nextID
	l.nextID++
	l.pending.Add(1)

	decode := l.decode
	results := l.results
	l.pool.SubmitTask(worker.Task{
		ID:      id,
		Payload: path,
		Do: func() (any, error) {
			staging, err := decode(path)
			results <- Result{ID: id, Path: path, Staging: staging, Err: err}
			return nil, err
		},
	})
	common.Logger().Debug("texture decode queued", "id", id, "path", path)
	return id, nil
}

func (l *loaderImpl) Drain(fn func(Result)) int {
	n := 0
	for {
		select {
		case r := <-l.results:
			l.pending.Add(-1)
			fn(r)
			n++
		default:
			return n
		}
	}
}

func (l *loaderImpl) Pending() int {
	return int(l.pending.Load())
}

func (l *loaderImpl) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	l.pool.Stop()
}
