package dedupe

// Option applies a configuration option to the in-memory deduper.
type Option func(*fifoDeduper)

// WithMaxSize sets how many IDs are remembered before the oldest is evicted.
// A value <= 0 disables eviction.
func WithMaxSize(maxSize int) Option {
	return func(d *fifoDeduper) {
		d.maxSize = maxSize
	}
}
