// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package freeroam

import (
	"bytes"
	"fmt"
	"strings"
)

// Reassembler turns a chunked byte stream into newline-terminated lines.
// The unterminated tail is held until the rest of the line arrives.
type Reassembler struct {
	tail       []byte
	maxLength  int
	eagerFlush bool
}

// ReassemblerOption configures a Reassembler
type ReassemblerOption func(*Reassembler)

// WithMaxFrameLength bounds the number of unterminated bytes held.
func WithMaxFrameLength(n int) ReassemblerOption {
	return func(r *Reassembler) {
		if n > 0 {
			r.maxLength = n
		}
	}
}

// WithEagerFlush emits an unterminated tail as soon as it classifies as a
// complete packet. Firmware that omits the final newline needs this; it
// gives up chunk-boundary invariance for lines whose prefix is itself a
// valid packet (e.g. "good:4" followed later by "2\n").
func WithEagerFlush() ReassemblerOption {
	return func(r *Reassembler) {
		r.eagerFlush = true
	}
}

// NewReassembler creates a reassembler with an empty tail
func NewReassembler(opts ...ReassemblerOption) *Reassembler {
	r := &Reassembler{maxLength: MaxFrameLength}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Feed appends a chunk and returns every line it completed, in order.
// Blank lines are skipped and a trailing carriage return is stripped.
//
// When the held tail grows past the frame limit the tail is discarded and
// ErrFrameTooLong is returned alongside any lines completed by this chunk.
func (r *Reassembler) Feed(chunk []byte) ([]string, error) {
	r.tail = append(r.tail, chunk...)

	segments := bytes.Split(r.tail, []byte{LineTerminator})
	last := segments[len(segments)-1]

	var lines []string
	for _, seg := range segments[:len(segments)-1] {
		if line := strings.TrimRight(string(seg), "\r"); line != "" {
			lines = append(lines, line)
		}
	}

	if r.eagerFlush && len(last) > 0 && Classify(string(last)).Kind != KindUnrecognized {
		lines = append(lines, strings.TrimRight(string(last), "\r"))
		r.tail = r.tail[:0]
		return lines, nil
	}

	// Copy so the backing array of the consumed lines can be released
	r.tail = append(make([]byte, 0, len(last)), last...)

	if len(r.tail) > r.maxLength {
		n := len(r.tail)
		r.tail = r.tail[:0]
		return lines, fmt.Errorf("%w: %d bytes without terminator (max %d)", ErrFrameTooLong, n, r.maxLength)
	}

	return lines, nil
}

// Pending returns the unterminated tail currently held
func (r *Reassembler) Pending() string {
	return string(r.tail)
}

// Reset discards the held tail
func (r *Reassembler) Reset() {
	r.tail = r.tail[:0]
}
