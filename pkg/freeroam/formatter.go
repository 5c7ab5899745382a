// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package freeroam

import "fmt"

// FormatPacket formats a packet into a human-readable string
func FormatPacket(p Packet) string {
	timestamp := p.Timestamp.Format("15:04:05.000")
	result := fmt.Sprintf("[%s] %s\n", timestamp, p.Kind)

	switch p.Kind {
	case KindInit:
		if mac, ok := p.Init.Confirmed(); ok {
			result += fmt.Sprintf("  MAC: %s (confirmed x3)\n", mac)
		} else {
			result += fmt.Sprintf("  MACs: %s, %s, %s (DISAGREE)\n", p.Init.MACs[0], p.Init.MACs[1], p.Init.MACs[2])
		}

	case KindHandshake:
		result += fmt.Sprintf("  MAC: %s, Sequence: %d\n", p.Beacon.MAC, p.Beacon.Sequence)

	case KindTelemetry:
		result += FormatTelemetry(p.Telemetry)

	case KindAck:
		result += fmt.Sprintf("  Counter: %d\n", p.Ack.Counter)

	default:
		result += fmt.Sprintf("  Raw: %q\n", p.Raw)
	}

	return result
}

// FormatTelemetry formats the fields of a telemetry report
func FormatTelemetry(t Telemetry) string {
	status := "OK"
	if !t.ChecksumValid() {
		status = fmt.Sprintf("MISMATCH (expected %s)", formatNumber(t.ExpectedChecksum()))
	}
	return fmt.Sprintf("  Platform: %d, Key: %d\n  X: %s, Y: %s, Theta: %s\n  Checksum: %s %s\n",
		t.PlatformID, t.Key,
		formatNumber(t.X), formatNumber(t.Y), formatNumber(t.Theta),
		formatNumber(t.Checksum), status)
}
