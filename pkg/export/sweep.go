package export

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/gocarina/gocsv"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/llm-d-incubation/fleet-planner/pkg/config"
	"github.com/llm-d-incubation/fleet-planner/pkg/manager"
)

// planned or failed scenario of a sweep
type sweepEntry struct {
	Rate  float64        `json:"rate" yaml:"rate"`
	Fleet map[string]any `json:"fleet,omitempty" yaml:"fleet,omitempty"`
	Error string         `json:"error,omitempty" yaml:"error,omitempty"`
}

type sweepRow struct {
	Rate  float64 `csv:"rate"`
	Name  string  `csv:"name"`
	Value string  `csv:"value"`
}

// WriteSweep writes the scenarios of a sweep to w in the given format.
func WriteSweep(w io.Writer, format Format, scenarios []manager.Scenario) error {
	switch format {
	case FormatJSON, FormatYAML:
		entries := make([]sweepEntry, len(scenarios))
		for i, s := range scenarios {
			entries[i] = sweepEntry{Rate: s.Rate}
			if s.Err != nil {
				entries[i].Error = s.Err.Error()
				continue
			}
			entries[i].Fleet = FleetMap(s.Solution)
		}
		if format == FormatYAML {
			enc := yaml.NewEncoder(w)
			if err := enc.Encode(entries); err != nil {
				return err
			}
			return enc.Close()
		}
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		_, err = w.Write(append(data, '\n'))
		return err
	case FormatCSV:
		var rows []*sweepRow
		for _, s := range scenarios {
			if s.Err != nil {
				rows = append(rows, &sweepRow{Rate: s.Rate, Name: "error", Value: s.Err.Error()})
				continue
			}
			for _, r := range csvRows(s.Solution) {
				rows = append(rows, &sweepRow{Rate: s.Rate, Name: r.Name, Value: r.Value})
			}
		}
		return gocsv.Marshal(rows, w)
	case FormatTable:
		writeSweepTable(w, scenarios)
		return nil
	default:
		return fmt.Errorf("unknown output format %q, expected one of %v", format, Formats)
	}
}

func writeSweepTable(w io.Writer, scenarios []manager.Scenario) {
	var types []string
	for _, s := range scenarios {
		if s.Solution == nil {
			continue
		}
		for _, t := range s.Solution.Types() {
			if !slices.Contains(types, t) {
				types = append(types, t)
			}
		}
	}
	slices.Sort(types)

	table := tablewriter.NewWriter(w)
	table.SetHeader(append(append([]string{"Rate"}, types...), config.CostKey))
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, s := range scenarios {
		row := []string{strconv.FormatFloat(s.Rate, 'g', -1, 64)}
		if s.Err != nil {
			for range types {
				row = append(row, "-")
			}
			table.Append(append(row, "no plan"))
			continue
		}
		for _, t := range types {
			row = append(row, strconv.Itoa(s.Solution.Fleet[t]))
		}
		table.Append(append(row, formatCost(s.Solution.TotalCost)))
	}
	table.Render()
}
