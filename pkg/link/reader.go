// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"context"
	"errors"
	"io"
	"time"
)

// ReadBufferSize is the size of each read from the transport
const ReadBufferSize = 128

// retryDelay is the pause after a transient read error
const retryDelay = 10 * time.Millisecond

// ReadChunks reads from r until ctx is cancelled or r fails permanently,
// handing each chunk to fn. fn owns the slice it receives.
//
// isFatal decides which read errors end the loop; io.EOF always does.
// Other errors are retried after a short pause, as serial ports report
// transient errors while a device re-enumerates.
func ReadChunks(ctx context.Context, r io.Reader, isFatal func(error) bool, fn func([]byte)) error {
	buf := make([]byte, ReadBufferSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			fn(chunk)
		}
		if err == nil {
			continue
		}

		if errors.Is(err, io.EOF) || (isFatal != nil && isFatal(err)) {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelay):
		}
	}
}

// StreamChunks runs ReadChunks on its own goroutine so the caller can
// select on ctx alongside the data. Chunks arrive in order on the first
// channel. The second channel receives the error ReadChunks stopped with.
//
// A Read blocked on a quiet link does not observe ctx; closing r releases
// it, after which the error channel fires.
func StreamChunks(ctx context.Context, r io.Reader, isFatal func(error) bool, buffer int) (<-chan []byte, <-chan error) {
	chunks := make(chan []byte, buffer)
	errs := make(chan error, 1)

	go func() {
		errs <- ReadChunks(ctx, r, isFatal, func(chunk []byte) {
			select {
			case chunks <- chunk:
			case <-ctx.Done():
			}
		})
	}()

	return chunks, errs
}
