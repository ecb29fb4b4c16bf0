// Package sizing bounds how much decoded data is buffered per entry.
package sizing

import (
	"io"
	"math"
)

// ReadAll reads r to EOF. If maxSize is non-zero, it returns overflowErr
// as soon as more than maxSize bytes are available.
func ReadAll(r io.Reader, maxSize uint64, overflowErr error) ([]byte, error) {
	if maxSize == 0 {
		return io.ReadAll(r)
	}
	if maxSize > uint64(math.MaxInt-1) {
		return io.ReadAll(r)
	}
	limit := int64(maxSize) + 1 //nolint:gosec // checked above
	lr := &io.LimitedReader{R: r, N: limit}
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if uint64(len(data)) > maxSize { //nolint:gosec // len is always non-negative
		return nil, overflowErr
	}
	return data, nil
}

// Exceeds reports whether a declared size is over a non-zero limit.
func Exceeds(size int64, maxSize uint64) bool {
	return maxSize > 0 && size > 0 && uint64(size) > maxSize
}
