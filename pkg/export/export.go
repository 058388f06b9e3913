package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gocarina/gocsv"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/llm-d-incubation/fleet-planner/pkg/config"
	"github.com/llm-d-incubation/fleet-planner/pkg/manager"
	"github.com/llm-d-incubation/fleet-planner/pkg/solver"
)

// Output format of a planned fleet
type Format string

const (
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatCSV   Format = "csv"
	FormatTable Format = "table"
)

var Formats = []Format{FormatJSON, FormatYAML, FormatCSV, FormatTable}

// ParseFormat returns the format with the given name.
func ParseFormat(name string) (Format, error) {
	for _, f := range Formats {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q, expected one of %v", name, Formats)
}

// Report is what gets exported: the fleet and, optionally, the homogeneous
// fleets it is compared against.
type Report struct {
	Solution  *solver.Solution
	Baselines []manager.HomogeneousBaseline
}

// FleetMap flattens a solution into accelerator type -> count, plus the total
// cost under config.CostKey.
func FleetMap(sol *solver.Solution) map[string]any {
	out := make(map[string]any, len(sol.Fleet)+1)
	for t, count := range sol.Fleet {
		out[t] = count
	}
	out[config.CostKey] = sol.TotalCost
	return out
}

// one line of the CSV output
type csvRow struct {
	Name  string `csv:"name"`
	Value string `csv:"value"`
}

// Write writes the report to w in the given format.
func Write(w io.Writer, format Format, report *Report) error {
	if report == nil || report.Solution == nil {
		return fmt.Errorf("export: no solution to write")
	}
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(FleetMap(report.Solution), "", "  ")
		if err != nil {
			return err
		}
		_, err = w.Write(append(data, '\n'))
		return err
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(FleetMap(report.Solution)); err != nil {
			return err
		}
		return enc.Close()
	case FormatCSV:
		return gocsv.Marshal(csvRows(report.Solution), w)
	case FormatTable:
		writeTables(w, report)
		return nil
	default:
		return fmt.Errorf("unknown output format %q, expected one of %v", format, Formats)
	}
}

// WriteFile writes the report to the file at path, creating its directory.
func WriteFile(path string, format Format, report *Report) error {
	var b bytes.Buffer
	if err := Write(&b, format, report); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, b.Bytes(), 0o644)
}

func csvRows(sol *solver.Solution) []*csvRow {
	rows := make([]*csvRow, 0, len(sol.Fleet)+1)
	for _, t := range sol.Types() {
		rows = append(rows, &csvRow{Name: t, Value: strconv.Itoa(sol.Fleet[t])})
	}
	rows = append(rows, &csvRow{Name: config.CostKey, Value: strconv.FormatFloat(sol.TotalCost, 'f', -1, 64)})
	return rows
}

func writeTables(w io.Writer, report *Report) {
	sol := report.Solution
	fleet := tablewriter.NewWriter(w)
	fleet.SetHeader([]string{"Accelerator", "Count"})
	fleet.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, t := range sol.Types() {
		fleet.Append([]string{t, strconv.Itoa(sol.Fleet[t])})
	}
	fleet.SetFooter([]string{"Total cost", formatCost(sol.TotalCost)})
	fleet.Render()

	if len(report.Baselines) == 0 {
		return
	}
	savings := tablewriter.NewWriter(w)
	savings.SetHeader([]string{"Homogeneous fleet", "Count", "Cost", "Savings", "Savings %"})
	savings.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, b := range report.Baselines {
		savings.Append([]string{
			b.Type,
			strconv.Itoa(b.Count),
			formatCost(b.Cost),
			formatCost(b.Savings(sol.TotalCost)),
			strconv.FormatFloat(b.SavingsPercent(sol.TotalCost), 'f', 1, 64),
		})
	}
	savings.Render()
}

func formatCost(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
