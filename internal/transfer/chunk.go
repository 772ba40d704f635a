package transfer

// Split partitions records into at most workers nearly-equal contiguous
// chunks. Chunk sizes differ by at most one, so no chunk exceeds
// ceil(len(records)/workers). Fewer records than workers degenerate to one
// single-record chunk each. Concatenating the chunks in order reproduces
// the input exactly; chunks share the input's backing array, so in-chunk
// record order is the input order.
func Split[T any](records []T, workers int) [][]T {
	if len(records) == 0 || workers <= 0 {
		return nil
	}

	if workers > len(records) {
		workers = len(records)
	}

	base := len(records) / workers
	rem := len(records) % workers

	chunks := make([][]T, 0, workers)
	start := 0
	for i := 0; i < workers; i++ {
		size := base
		if i < rem {
			size++
		}
		chunks = append(chunks, records[start:start+size])
		start += size
	}
	return chunks
}
