package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v2"
)

// Table list format
const (
	tableFormatCSV   = "csv"
	tableFormatJSON  = "json"
	tableFormatTable = "table"
	tableFormatYAML  = "yaml"
)

// renderTable renders tabular data in various formats.
func renderTable(format string, header []string, data [][]string, raw any) error {
	switch format {
	case tableFormatTable:
		table := tablewriter.NewWriter(os.Stdout)
		table.SetAutoWrapText(false)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		table.SetRowLine(true)
		table.SetHeader(header)
		table.AppendBulk(data)
		table.Render()
	case tableFormatCSV:
		w := csv.NewWriter(os.Stdout)
		err := w.WriteAll(data)
		if err != nil {
			return err
		}

		err = w.Error()
		if err != nil {
			return err
		}
	case tableFormatJSON:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		err := enc.Encode(raw)
		if err != nil {
			return err
		}
	case tableFormatYAML:
		out, err := yaml.Marshal(raw)
		if err != nil {
			return err
		}

		fmt.Printf("%s", out)
	default:
		return fmt.Errorf("Invalid format %q", format)
	}

	return nil
}
