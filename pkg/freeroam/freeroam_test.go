// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package freeroam

import (
	"errors"
	"strings"
	"testing"
)

const testMAC = "aa:bb:cc:dd:ee:ff"

// ============================================================
// Grammar Tests
// ============================================================

func TestClassify_Telemetry(t *testing.T) {
	p := Classify("5|2|10|-3.5|0|6.5")
	if p.Kind != KindTelemetry {
		t.Fatalf("Kind = %s, want TELEMETRY", p.Kind)
	}

	want := Telemetry{Key: 5, PlatformID: 2, X: 10, Y: -3.5, Theta: 0, Checksum: 6.5}
	if p.Telemetry != want {
		t.Errorf("Telemetry = %+v, want %+v", p.Telemetry, want)
	}
	if !p.Telemetry.ChecksumValid() {
		t.Error("expected checksum x+y+theta to validate")
	}
}

func TestClassify_TelemetryEmptyFields(t *testing.T) {
	p := Classify("5|2|10|-3.5||6.5")
	if p.Kind != KindTelemetry {
		t.Fatalf("Kind = %s, want TELEMETRY", p.Kind)
	}
	want := Telemetry{Key: 5, PlatformID: 2, X: 10, Y: -3.5, Theta: 0, Checksum: 6.5}
	if p.Telemetry != want {
		t.Errorf("Telemetry = %+v, want %+v", p.Telemetry, want)
	}

	p = Classify("5|2|10|-3.5|0|")
	if p.Kind != KindTelemetry {
		t.Fatalf("Kind = %s, want TELEMETRY", p.Kind)
	}
	if !p.Telemetry.ChecksumOmitted || p.Telemetry.Checksum != 0 {
		t.Errorf("Telemetry = %+v, want omitted checksum", p.Telemetry)
	}
	if !p.Telemetry.ChecksumValid() {
		t.Error("a report without a checksum must not count as a mismatch")
	}
	if errs := ValidatePacket(p); len(errs) != 0 {
		t.Errorf("ValidatePacket = %v, want none", errs)
	}
}

func TestClassify_Kinds(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Kind
	}{
		{"init burst", "init|" + testMAC + "|" + testMAC + "|" + testMAC + "|freeroam|", KindInit},
		{"init burst with newline", "init|" + testMAC + "|" + testMAC + "|" + testMAC + "|freeroam|\n", KindInit},
		{"init burst with crlf", "init|" + testMAC + "|" + testMAC + "|" + testMAC + "|freeroam|\r\n", KindInit},
		{"init burst uppercase", "init|AA:BB:CC:DD:EE:FF|AA:BB:CC:DD:EE:FF|AA:BB:CC:DD:EE:FF|freeroam|", KindInit},
		{"init burst disagreeing", "init|" + testMAC + "|" + testMAC + "|11:22:33:44:55:66|freeroam|", KindInit},
		{"init burst missing trailing field", "init|" + testMAC + "|" + testMAC + "|" + testMAC + "|freeroam", KindUnrecognized},
		{"init burst two macs", "init|" + testMAC + "|" + testMAC + "|freeroam|", KindUnrecognized},
		{"handshake", "init|" + testMAC + "|17|", KindHandshake},
		{"handshake negative sequence", "init|" + testMAC + "|-1|", KindUnrecognized},
		{"telemetry fractional", "0|1|1.25|2.5|-0.75|3", KindTelemetry},
		{"telemetry bare fraction", "0|1|.5|.5|-.5|.5", KindTelemetry},
		{"telemetry trailing dot", "0|1|1.|2|0|3.", KindTelemetry},
		{"telemetry negative key", "-1|1|1|2|0|3", KindUnrecognized},
		{"telemetry five fields", "1|2|3|4|5", KindUnrecognized},
		{"telemetry empty x", "1|2||4|5|9", KindUnrecognized},
		{"telemetry empty theta", "5|2|10|-3.5||6.5", KindTelemetry},
		{"telemetry empty checksum", "5|2|10|-3.5|0|", KindTelemetry},
		{"telemetry empty y", "5|2|10||0|10", KindUnrecognized},
		{"ack", "good:42", KindAck},
		{"ack empty counter", "good:", KindUnrecognized},
		{"noise", "\x00\x01garbage", KindUnrecognized},
		{"empty", "", KindUnrecognized},
		{"bad mac", "init|aa:bb:cc:dd:ee|17|", KindUnrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.line).Kind; got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.line, got, tt.want)
			}
		})
	}
}

func TestClassify_InitBurst(t *testing.T) {
	p := Classify("init|" + testMAC + "|" + testMAC + "|" + testMAC + "|freeroam|")
	mac, ok := p.Init.Confirmed()
	if !ok || mac != testMAC {
		t.Errorf("Confirmed() = %q, %v; want %q, true", mac, ok, testMAC)
	}

	p = Classify("init|" + testMAC + "|11:22:33:44:55:66|" + testMAC + "|freeroam|")
	if _, ok := p.Init.Confirmed(); ok {
		t.Error("disagreeing burst should not confirm")
	}
}

func TestClassify_Handshake(t *testing.T) {
	p := Classify("init|" + testMAC + "|12345|")
	if p.Beacon.MAC != testMAC || p.Beacon.Sequence != 12345 {
		t.Errorf("Beacon = %+v", p.Beacon)
	}
}

func TestClassify_Ack(t *testing.T) {
	p := Classify("good:42")
	if p.Ack.Counter != 42 {
		t.Errorf("Counter = %d, want 42", p.Ack.Counter)
	}
	if p.Actionable() {
		t.Error("ack should not be actionable")
	}
}

func TestParse_Unrecognized(t *testing.T) {
	_, err := Parse("hello world")
	if !errors.Is(err, ErrUnrecognized) {
		t.Errorf("Parse error = %v, want ErrUnrecognized", err)
	}
}

func TestValidMAC(t *testing.T) {
	if !ValidMAC(testMAC) {
		t.Errorf("ValidMAC(%q) = false", testMAC)
	}
	if ValidMAC("aa:bb:cc:dd:ee:fg") {
		t.Error("ValidMAC accepted a non-hex group")
	}
}

// ============================================================
// Reassembler Tests
// ============================================================

func TestReassembler_SingleChunk(t *testing.T) {
	r := NewReassembler()
	lines, err := r.Feed([]byte("good:1\ngood:2\ngood:"))
	if err != nil {
		t.Fatalf("Feed error: %v", err)
	}
	if strings.Join(lines, ",") != "good:1,good:2" {
		t.Errorf("lines = %q", lines)
	}
	if r.Pending() != "good:" {
		t.Errorf("Pending() = %q, want %q", r.Pending(), "good:")
	}

	lines, err = r.Feed([]byte("3\n"))
	if err != nil {
		t.Fatalf("Feed error: %v", err)
	}
	if len(lines) != 1 || lines[0] != "good:3" {
		t.Errorf("lines = %q, want [good:3]", lines)
	}
	if r.Pending() != "" {
		t.Errorf("Pending() = %q, want empty", r.Pending())
	}
}

func TestReassembler_NoTerminator(t *testing.T) {
	r := NewReassembler()
	for _, chunk := range []string{"5|2|", "10|-3.5", "|0|6.5"} {
		lines, err := r.Feed([]byte(chunk))
		if err != nil || len(lines) != 0 {
			t.Fatalf("Feed(%q) = %q, %v; want no lines", chunk, lines, err)
		}
	}
	if r.Pending() != "5|2|10|-3.5|0|6.5" {
		t.Errorf("Pending() = %q", r.Pending())
	}
}

func TestReassembler_StripsCarriageReturnAndBlankLines(t *testing.T) {
	r := NewReassembler()
	lines, _ := r.Feed([]byte("good:1\r\n\r\n\ngood:2\r\n"))
	if len(lines) != 2 || lines[0] != "good:1" || lines[1] != "good:2" {
		t.Errorf("lines = %q", lines)
	}
}

func TestReassembler_FrameTooLong(t *testing.T) {
	r := NewReassembler(WithMaxFrameLength(16))

	lines, err := r.Feed([]byte("good:1\n" + strings.Repeat("x", 17)))
	if !errors.Is(err, ErrFrameTooLong) {
		t.Fatalf("Feed error = %v, want ErrFrameTooLong", err)
	}
	if len(lines) != 1 || lines[0] != "good:1" {
		t.Errorf("lines completed before the overflow should still be returned, got %q", lines)
	}
	if r.Pending() != "" {
		t.Errorf("tail should be discarded, got %d bytes", len(r.Pending()))
	}
}

func TestReassembler_EagerFlush(t *testing.T) {
	r := NewReassembler(WithEagerFlush())

	lines, err := r.Feed([]byte("good:1\n5|2|10|-3.5|0|6.5"))
	if err != nil {
		t.Fatalf("Feed error: %v", err)
	}
	if len(lines) != 2 || lines[1] != "5|2|10|-3.5|0|6.5" {
		t.Errorf("lines = %q", lines)
	}
	if r.Pending() != "" {
		t.Errorf("Pending() = %q, want empty", r.Pending())
	}

	// Incomplete tails are still held
	lines, _ = r.Feed([]byte("init|aa:bb"))
	if len(lines) != 0 || r.Pending() != "init|aa:bb" {
		t.Errorf("lines = %q, pending = %q", lines, r.Pending())
	}
}

func TestReassembler_Reset(t *testing.T) {
	r := NewReassembler()
	r.Feed([]byte("partial"))
	r.Reset()
	if r.Pending() != "" {
		t.Errorf("Pending() after Reset = %q", r.Pending())
	}
}

// ============================================================
// Encoder Tests
// ============================================================

func TestMotorCommand_Encode(t *testing.T) {
	tests := []struct {
		x, y int
		want string
	}{
		{-30, 0, "1234|0|0|353|0|-30|0|1|-29\n"},
		{0, 0, "1234|0|0|353|0|0|0|1|1\n"},
		{60, -60, "1234|0|0|353|0|60|-60|1|1\n"},
		{12, 7, "1234|0|0|353|0|12|7|1|20\n"},
	}

	for _, tt := range tests {
		c := NewMotorCommand(tt.x, tt.y)
		if got := string(c.Encode()); got != tt.want {
			t.Errorf("Encode(%d, %d) = %q, want %q", tt.x, tt.y, got, tt.want)
		}
		if c.Checksum() != tt.x+tt.y+1 {
			t.Errorf("Checksum(%d, %d) = %d", tt.x, tt.y, c.Checksum())
		}
	}
}

func TestEmergencyStop_Encode(t *testing.T) {
	if got := string(EmergencyStop{}.Encode()); got != "1234|E_STOP|\n" {
		t.Errorf("Encode() = %q", got)
	}
}

func TestInitAck_Encode(t *testing.T) {
	ack := InitAck{
		MAC:              testMAC,
		SessionKey:       123456789,
		PlatformID:       0,
		Distance:         0.5,
		Radius:           0.25,
		TicksPerRotation: 20,
	}

	want := "init|353|aa:bb:cc:dd:ee:ff|123456789|0|0.5|0.25|20|20.75\n"
	if got := string(ack.Encode()); got != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
	if ack.Checksum() != 20.75 {
		t.Errorf("Checksum() = %v, want 20.75", ack.Checksum())
	}
}

func TestInitAck_ChecksumIsFieldSum(t *testing.T) {
	ack := InitAck{MAC: testMAC, Distance: 1 * FeetToMeters, Radius: 2 * FeetToMeters, TicksPerRotation: 20}
	fields := strings.Split(strings.TrimSuffix(string(ack.Encode()), "\n"), FieldSeparator)
	if len(fields) != 9 {
		t.Fatalf("expected 9 fields, got %d: %q", len(fields), fields)
	}
	if fields[8] != formatNumber(ack.Distance+ack.Radius+20) {
		t.Errorf("checksum field = %s", fields[8])
	}
}

func TestFormatCommand(t *testing.T) {
	if got := FormatCommand(NewMotorCommand(3, -4)); got != "MOTOR x=3 y=-4" {
		t.Errorf("FormatCommand = %q", got)
	}
	if got := FormatCommand(EmergencyStop{}); got != "E_STOP" {
		t.Errorf("FormatCommand = %q", got)
	}
}

// ============================================================
// Validator and Statistics Tests
// ============================================================

func TestValidatePacket(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []AnomalyType
	}{
		{"valid telemetry", "5|2|10|-3.5|0|6.5", nil},
		{"checksum mismatch", "5|2|10|-3.5|0|7", []AnomalyType{AnomalyChecksumMismatch}},
		{"identity mismatch", "init|" + testMAC + "|" + testMAC + "|11:22:33:44:55:66|freeroam|", []AnomalyType{AnomalyIdentityMismatch}},
		{"unrecognized", "nope", []AnomalyType{AnomalyUnrecognized}},
		{"ack", "good:1", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidatePacket(Classify(tt.line))
			if len(errs) != len(tt.want) {
				t.Fatalf("got %d errors, want %d: %v", len(errs), len(tt.want), errs)
			}
			for i, e := range errs {
				if e.Type != tt.want[i] {
					t.Errorf("error[%d].Type = %d, want %d", i, e.Type, tt.want[i])
				}
			}
		})
	}
}

func TestValidationError_Unwrap(t *testing.T) {
	errs := ValidatePacket(Classify("5|2|10|-3.5|0|7"))
	if len(errs) != 1 {
		t.Fatalf("expected one error")
	}
	if !errors.Is(&errs[0], ErrChecksumMismatch) {
		t.Error("checksum anomaly should unwrap to ErrChecksumMismatch")
	}
}

func TestStatistics_Update(t *testing.T) {
	s := NewStatistics()
	for _, line := range []string{"good:1", "5|2|10|-3.5|0|7", "junk", "init|" + testMAC + "|1|"} {
		p := Classify(line)
		s.Update(p, ValidatePacket(p))
	}

	if s.TotalLines != 4 || s.Acks != 1 || s.TelemetryPackets != 1 || s.Beacons != 1 {
		t.Errorf("unexpected counters: %+v", s)
	}
	if s.Unrecognized != 1 || s.ChecksumMismatches != 1 {
		t.Errorf("unexpected error counters: %+v", s)
	}
	if !strings.Contains(s.String(), "Checksum Errors") {
		t.Error("String() should report checksum errors")
	}

	s.Reset()
	if s.TotalLines != 0 {
		t.Error("Reset() should clear counters")
	}
}

func TestFormatPacket(t *testing.T) {
	out := FormatPacket(Classify("5|2|10|-3.5|0|6.5"))
	if !strings.Contains(out, "TELEMETRY") || !strings.Contains(out, "Platform: 2") {
		t.Errorf("FormatPacket = %q", out)
	}

	out = FormatPacket(Classify("init|" + testMAC + "|" + testMAC + "|11:22:33:44:55:66|freeroam|"))
	if !strings.Contains(out, "DISAGREE") {
		t.Errorf("FormatPacket = %q", out)
	}
}
