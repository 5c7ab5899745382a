// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package freeroam

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	macPattern    = `[0-9A-Fa-f]{2}(?::[0-9A-Fa-f]{2}){5}`
	numberPattern = `-?(?:\d+(?:\.\d*)?|\.\d+)`

	// theta and the checksum may be left empty by the firmware
	optionalNumberPattern = `(?:` + numberPattern + `)?`
)

var (
	initRegex      = regexp.MustCompile(`^init\|(` + macPattern + `)\|(` + macPattern + `)\|(` + macPattern + `)\|freeroam\|$`)
	handshakeRegex = regexp.MustCompile(`^init\|(` + macPattern + `)\|(\d+)\|$`)
	telemetryRegex = regexp.MustCompile(`^(\d+)\|(\d+)\|(` + numberPattern + `)\|(` + numberPattern + `)\|(` + optionalNumberPattern + `)\|(` + optionalNumberPattern + `)$`)
	ackRegex       = regexp.MustCompile(`^good:(\d+)$`)
	macRegex       = regexp.MustCompile(`^` + macPattern + `$`)
)

// ValidMAC reports whether s is a six-group colon-separated hex token
func ValidMAC(s string) bool {
	return macRegex.MatchString(s)
}

// Classify decodes a candidate line into one of the known packet kinds.
// Shapes are tested in the order init, handshake, telemetry, ack and the
// first match wins. Lines matching nothing come back as KindUnrecognized.
func Classify(line string) Packet {
	line = strings.TrimRight(line, "\r\n")
	p := Packet{Kind: KindUnrecognized, Raw: line, Timestamp: time.Now()}

	if m := initRegex.FindStringSubmatch(line); m != nil {
		p.Kind = KindInit
		p.Init = InitBurst{MACs: [3]string{m[1], m[2], m[3]}}
		return p
	}

	if m := handshakeRegex.FindStringSubmatch(line); m != nil {
		seq, err := strconv.ParseUint(m[2], 10, 64)
		if err == nil {
			p.Kind = KindHandshake
			p.Beacon = Beacon{MAC: m[1], Sequence: seq}
		}
		return p
	}

	if m := telemetryRegex.FindStringSubmatch(line); m != nil {
		if t, err := parseTelemetry(m[1:]); err == nil {
			p.Kind = KindTelemetry
			p.Telemetry = t
		}
		return p
	}

	if m := ackRegex.FindStringSubmatch(line); m != nil {
		counter, err := strconv.ParseUint(m[1], 10, 64)
		if err == nil {
			p.Kind = KindAck
			p.Ack = Ack{Counter: counter}
		}
		return p
	}

	return p
}

// Parse is Classify for callers that want unrecognized lines as an error
func Parse(line string) (Packet, error) {
	p := Classify(line)
	if p.Kind == KindUnrecognized {
		return p, fmt.Errorf("%w: %q", ErrUnrecognized, p.Raw)
	}
	return p, nil
}

func parseTelemetry(fields []string) (Telemetry, error) {
	var t Telemetry
	var err error

	if t.Key, err = strconv.ParseUint(fields[0], 10, 64); err != nil {
		return t, err
	}
	if t.PlatformID, err = strconv.ParseUint(fields[1], 10, 64); err != nil {
		return t, err
	}

	floats := []*float64{&t.X, &t.Y, &t.Theta, &t.Checksum}
	for i, dst := range floats {
		field := fields[i+2]
		if field == "" {
			// Only theta and checksum can be empty; an empty theta reads as 0
			t.ChecksumOmitted = i == 3
			continue
		}
		if *dst, err = strconv.ParseFloat(field, 64); err != nil {
			return t, err
		}
	}
	return t, nil
}
