package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

func addOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", outputText, "output format (text, json, yaml)")
}

// render writes v in the format selected by --output. Text output is produced by text.
func render(cmd *cobra.Command, v interface{}, text func(w io.Writer)) error {
	format, err := cmd.Flags().GetString("output")
	if err != nil {
		format = outputText
	}
	w := cmd.OutOrStdout()

	switch format {
	case outputText:
		text(w)
		return nil
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
