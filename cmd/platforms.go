// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/freeroam/roamctl/pkg/registry"
	"github.com/spf13/cobra"
)

var platformsCmd = &cobra.Command{
	Use:   "platforms",
	Short: "List registered platforms",
	Long: `Print every platform in the registry under --data-dir, with its id,
name, color and calibration.

No connection is opened.`,
	RunE: runPlatforms,
}

func init() {
	rootCmd.AddCommand(platformsCmd)
}

func runPlatforms(cmd *cobra.Command, args []string) error {
	store := registry.NewFileStore(dataDir, registry.DocumentName)
	records, err := registry.New(store, registry.WithLogger(logger)).List(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Registry: %s\n", store.Path())
	if len(records) == 0 {
		fmt.Printf("No platforms registered\n")
		return nil
	}

	fmt.Println(renderPlatformTable(records))
	return nil
}

func renderPlatformTable(records []registry.Record) string {
	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("ID", "MAC", "NAME", "COLOR", "DISTANCE", "RADIUS", "TICKS", "MAX SPEED").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, rec := range records {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(rec.Color)).Render(rec.Color)
		t.Row(
			strconv.FormatUint(rec.ID, 10),
			rec.MAC,
			rec.Name,
			swatch,
			strconv.FormatFloat(rec.EncoderDistance, 'f', -1, 64),
			strconv.FormatFloat(rec.EncoderRadius, 'f', -1, 64),
			strconv.Itoa(rec.TicksPerRotation),
			strconv.Itoa(rec.MaxSpeed),
		)
	}

	return t.Render()
}
