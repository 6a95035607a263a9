package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/trackmap/trackmap-engine/pkg/models"
)

var (
	headerStyle     = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle       = lipgloss.NewStyle().Padding(0, 1)
	contextualStyle = cellStyle.Foreground(lipgloss.Color("6"))
	dialogStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// valueRow is one suggested value as printed by the CLI.
type valueRow struct {
	ID             string `json:"id" yaml:"id"`
	Value          string `json:"value" yaml:"value"`
	Type           string `json:"type" yaml:"type"`
	UsageCount     int    `json:"usageCount" yaml:"usageCount"`
	AffectedEvents *int   `json:"affectedEvents,omitempty" yaml:"affectedEvents,omitempty"`
}

func newValueRow(v *models.SuggestedValue) valueRow {
	row := valueRow{ID: v.ID.String(), Value: v.Value, Type: "static", UsageCount: v.UsageCount}
	if v.IsContextual {
		row.Type = "contextual"
	}
	return row
}

// writeValues prints rows in the requested format. The impact column is shown
// only when withImpact is set; an unknown count prints as "?".
func writeValues(w io.Writer, format string, rows []valueRow, withImpact bool) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return err
		}
		return enc.Close()
	}

	headers := []string{"ID", "VALUE", "TYPE", "USAGE"}
	if withImpact {
		headers = append(headers, "EVENTS")
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 2 && row >= 0 && row < len(rows) && rows[row].Type == "contextual" {
				return contextualStyle
			}
			return cellStyle
		})

	for _, r := range rows {
		cells := []string{r.ID, r.Value, r.Type, strconv.Itoa(r.UsageCount)}
		if withImpact {
			events := "?"
			if r.AffectedEvents != nil {
				events = strconv.Itoa(*r.AffectedEvents)
			}
			cells = append(cells, events)
		}
		t.Row(cells...)
	}

	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// writeDialog prints confirmation text in a box.
func writeDialog(w io.Writer, text string) {
	fmt.Fprintln(w, dialogStyle.Render(strings.TrimRight(text, "\n")))
}
