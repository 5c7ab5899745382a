// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package freeroam

import (
	"fmt"
	"math/rand"
	"os"
	"reflect"
	"strconv"
	"testing"
	"time"
)

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS env var, default 1000
func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

// getFuzzSeed returns the seed from FUZZ_SEED env var, or generates one from current time
func getFuzzSeed() int64 {
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if seed, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}

// newFuzzRng creates a new random number generator and logs the seed for reproducibility
func newFuzzRng(t *testing.T) *rand.Rand {
	seed := getFuzzSeed()
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

// randomLine builds one line of any packet shape, or noise
func randomLine(rng *rand.Rand) string {
	mac := fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x",
		rng.Intn(256), rng.Intn(256), rng.Intn(256), rng.Intn(256), rng.Intn(256), rng.Intn(256))

	switch rng.Intn(5) {
	case 0:
		return fmt.Sprintf("init|%s|%s|%s|freeroam|", mac, mac, mac)
	case 1:
		return fmt.Sprintf("init|%s|%d|", mac, rng.Intn(100000))
	case 2:
		x, y, theta := rng.Float64()*100-50, rng.Float64()*100-50, rng.Float64()*6.28
		return fmt.Sprintf("%d|%d|%g|%g|%g|%g", rng.Intn(1000), rng.Intn(8), x, y, theta, x+y+theta)
	case 3:
		return fmt.Sprintf("good:%d", rng.Intn(100000))
	default:
		noise := make([]byte, rng.Intn(20))
		for i := range noise {
			noise[i] = byte(0x20 + rng.Intn(0x5E))
		}
		return string(noise)
	}
}

// splitRandomly cuts data into chunks of random size (including empty ones)
func splitRandomly(rng *rand.Rand, data []byte) [][]byte {
	var chunks [][]byte
	for len(data) > 0 {
		n := rng.Intn(len(data) + 1)
		chunks = append(chunks, data[:n])
		data = data[n:]
	}
	return chunks
}

func feedAll(t *testing.T, r *Reassembler, chunks [][]byte) []string {
	var out []string
	for _, c := range chunks {
		lines, err := r.Feed(c)
		if err != nil {
			t.Fatalf("Feed error: %v", err)
		}
		out = append(out, lines...)
	}
	return out
}

func TestFuzz_ReassemblerChunkBoundaryInvariance(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	for round := 0; round < rounds; round++ {
		var stream []byte
		numLines := 1 + rng.Intn(10)
		for i := 0; i < numLines; i++ {
			stream = append(stream, randomLine(rng)...)
			if rng.Intn(4) == 0 {
				stream = append(stream, '\r')
			}
			stream = append(stream, '\n')
		}
		// Optional unterminated tail
		if rng.Intn(2) == 0 {
			stream = append(stream, randomLine(rng)...)
		}

		whole := feedAll(t, NewReassembler(), [][]byte{stream})
		split := feedAll(t, NewReassembler(), splitRandomly(rng, stream))

		if !reflect.DeepEqual(whole, split) {
			t.Fatalf("round %d: chunked delivery diverged\nwhole: %q\nsplit: %q", round, whole, split)
		}
	}
}

func TestFuzz_ClassifyNeverPanics(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	for round := 0; round < rounds; round++ {
		data := make([]byte, rng.Intn(64))
		rng.Read(data)
		p := Classify(string(data))
		if p.Kind == KindTelemetry && p.Raw == "" {
			t.Fatalf("round %d: telemetry with empty raw line", round)
		}
	}
}

func TestFuzz_MotorChecksum(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	for round := 0; round < rounds; round++ {
		x, y := rng.Intn(121)-60, rng.Intn(121)-60
		p := Classify(string(NewMotorCommand(x, y).Encode()))
		// Motor commands are host-to-platform and never classify as ingress packets
		if p.Kind != KindUnrecognized {
			t.Fatalf("round %d: motor command classified as %s", round, p.Kind)
		}
		if NewMotorCommand(x, y).Checksum() != x+y+1 {
			t.Fatalf("round %d: checksum mismatch", round)
		}
	}
}
