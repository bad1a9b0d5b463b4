package importer

// inBatches slices items into runs of at most size and invokes fn for
// each run. A size of zero or less processes everything in one call.
func inBatches[T any](items []T, size int, fn func([]T) error) error {
	if size <= 0 {
		size = len(items)
	}
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		if err := fn(items[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// collectInBatches buffers streamed items and flushes fn whenever the
// buffer reaches size. The returned flush must be called once the stream
// ends to drain the remainder.
func collectInBatches[T any](size int, fn func([]T) error) (add func(T) error, flush func() error) {
	if size <= 0 {
		size = 1
	}
	buf := make([]T, 0, size)

	add = func(item T) error {
		buf = append(buf, item)
		if len(buf) >= size {
			err := fn(buf)
			buf = buf[:0]
			return err
		}
		return nil
	}
	flush = func() error {
		if len(buf) == 0 {
			return nil
		}
		err := fn(buf)
		buf = buf[:0]
		return err
	}
	return add, flush
}
