// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/freeroam/roamctl/pkg/freeroam"
	"github.com/freeroam/roamctl/pkg/link"
	"github.com/freeroam/roamctl/pkg/registry"
	"github.com/spf13/cobra"
)

var discoveryTimeout int

var discoveryCmd = &cobra.Command{
	Use:     "discover",
	Aliases: []string{"discovery"},
	Short:   "List platforms announcing themselves on the link",
	Long: `Listen for init bursts and handshake beacons without answering them.

Platforms that are not yet registered keep repeating their init burst, so a
few seconds of listening finds every powered platform in range. Nothing is
sent and nothing is registered; MACs already in the registry are shown with
their id.

Examples:
  roamctl discover --port /dev/ttyUSB0
  roamctl discover --url ws://bridge.local/freeroam --timeout 10

Exit codes:
  0 - Discovery successful (at least one platform found)
  1 - Discovery failed (no platforms announced before timeout)
  2 - Connection error`,
	RunE: runDiscovery,
}

func init() {
	rootCmd.AddCommand(discoveryCmd)
	discoveryCmd.Flags().IntVar(&discoveryTimeout, "timeout", 5, "Timeout in seconds for discovery")
}

func runDiscovery(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		exitf(2, "Connection error: %v\n", err)
	}
	defer conn.Close()

	fmt.Printf("roamctl - Platform Discovery\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n\n", discoveryTimeout)

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(discoveryTimeout)*time.Second)
	defer cancel()

	collector := newDiscoveryCollector()
	reassembler := freeroam.NewReassembler()
	chunks, readErr := link.StreamChunks(ctx, conn, isFatalReadError, 16)

collect:
	for {
		select {
		case chunk := <-chunks:
			lines, feedErr := reassembler.Feed(chunk)
			for _, line := range lines {
				if dev, isNew := collector.observe(freeroam.Classify(line)); isNew {
					fmt.Printf("Platform found: %s\n", dev.mac)
				}
			}
			if feedErr != nil {
				reassembler.Reset()
			}
		case err := <-readErr:
			if ctx.Err() == nil {
				fmt.Printf("READ FAILED: %v\n", err)
				os.Exit(2)
			}
			break collect
		case <-ctx.Done():
			break collect
		}
	}

	devices := collector.devices()

	fmt.Printf("\n--- Discovery summary ---\n")
	fmt.Printf("Platforms found: %d\n", len(devices))

	if len(devices) == 0 {
		fmt.Printf("No platforms announced. Check the radio bridge and platform power.\n")
		os.Exit(1)
	}

	known := make(map[string]registry.Record)
	records, err := registry.New(registry.NewFileStore(dataDir, registry.DocumentName)).List(context.Background())
	if err != nil {
		logger.Warn().Err(err).Msg("failed to load registry")
	}
	for _, rec := range records {
		known[rec.MAC] = rec
	}

	fmt.Println(renderDiscoveryTable(devices, known))
	return nil
}

// discoveredDevice summarises what one MAC sent during discovery
type discoveredDevice struct {
	mac          string
	initBursts   int
	beacons      int
	lastSequence uint64
	firstSeen    time.Time
}

// discoveryCollector tracks announcing MACs in first-seen order
type discoveryCollector struct {
	byMAC map[string]*discoveredDevice
	order []string
}

func newDiscoveryCollector() *discoveryCollector {
	return &discoveryCollector{byMAC: make(map[string]*discoveredDevice)}
}

// observe records an init burst or beacon. It returns the device and
// whether this is the first time its MAC was seen.
func (c *discoveryCollector) observe(p freeroam.Packet) (*discoveredDevice, bool) {
	var mac string
	switch p.Kind {
	case freeroam.KindInit:
		confirmed, ok := p.Init.Confirmed()
		if !ok {
			return nil, false
		}
		mac = confirmed
	case freeroam.KindHandshake:
		mac = p.Beacon.MAC
	default:
		return nil, false
	}

	dev, seen := c.byMAC[mac]
	if !seen {
		dev = &discoveredDevice{mac: mac, firstSeen: p.Timestamp}
		c.byMAC[mac] = dev
		c.order = append(c.order, mac)
	}

	if p.Kind == freeroam.KindInit {
		dev.initBursts++
	} else {
		dev.beacons++
		dev.lastSequence = p.Beacon.Sequence
	}
	return dev, !seen
}

func (c *discoveryCollector) devices() []discoveredDevice {
	out := make([]discoveredDevice, 0, len(c.order))
	for _, mac := range c.order {
		out = append(out, *c.byMAC[mac])
	}
	return out
}

func renderDiscoveryTable(devices []discoveredDevice, known map[string]registry.Record) string {
	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("MAC", "ID", "INIT", "BEACONS", "STATUS").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	sorted := slices.Clone(devices)
	slices.SortStableFunc(sorted, func(a, b discoveredDevice) int {
		return a.firstSeen.Compare(b.firstSeen)
	})

	for _, dev := range sorted {
		id, status := "-", "unregistered"
		if rec, ok := known[dev.mac]; ok {
			id = strconv.FormatUint(rec.ID, 10)
			status = "registered"
		}
		if dev.beacons > 0 {
			status += fmt.Sprintf(", handshaking (seq %d)", dev.lastSequence)
		}
		t.Row(dev.mac, id, strconv.Itoa(dev.initBursts), strconv.Itoa(dev.beacons), status)
	}

	return t.Render()
}
