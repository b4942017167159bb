package app

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Tabular is a command result that can also be rendered as a table
type Tabular interface {
	WriteTable(w io.Writer) error
}

// FormatOutput writes result to w in the given format
func FormatOutput(w io.Writer, result Tabular, format string) error {
	switch format {
	case "json":
		return formatJSON(w, result)
	case "yaml":
		return formatYAML(w, result)
	case "table":
		return result.WriteTable(w)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// formatJSON formats results as JSON
func formatJSON(w io.Writer, result any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// formatYAML formats results as YAML
func formatYAML(w io.Writer, result any) error {
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(result)
}

// FormatBytes formats byte count as human readable
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
