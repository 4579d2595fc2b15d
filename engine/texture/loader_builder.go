package texture

import "github.com/Carmen-Shannon/oxy-quads/common"

// LoaderBuilderOption is a functional option for configuring a Loader.
type LoaderBuilderOption func(*loaderImpl)

// WithWorkers sets the maximum number of concurrent decodes. Values below 1 are ignored.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - LoaderBuilderOption: the option
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loaderImpl) {
		if n >= 1 {
			l.workers = n
		}
	}
}

// WithQueueSize sets how many requests may be outstanding before Submit reports ErrLoaderBusy.
// Values below 1 are ignored.
//
// Parameters:
//   - n: the queue size
//
// Returns:
//   - LoaderBuilderOption: the option
func WithQueueSize(n int) LoaderBuilderOption {
	return func(l *loaderImpl) {
		if n >= 1 {
			l.queueSize = n
		}
	}
}

// WithDecodeFunc replaces the file decoder. Defaults to Load.
//
// Parameters:
//   - decode: reads path and returns its pixels
//
// Returns:
//   - LoaderBuilderOption: the option
func WithDecodeFunc(decode func(path string) (common.TextureStagingData, error)) LoaderBuilderOption {
	return func(l *loaderImpl) {
		if decode != nil {
			l.decode = decode
		}
	}
}
