package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/sanity-io/litter"
	"gopkg.in/yaml.v3"
)

const yamlIndent = 2

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	err := enc.Encode(v)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	return nil
}

// WriteYAML writes v as YAML.
func WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(yamlIndent)

	err := enc.Encode(v)
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	err = enc.Close()
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	return nil
}

// WriteDump writes a Go-syntax dump of v for debugging.
func WriteDump(w io.Writer, v any) error {
	dumper := litter.Options{
		HidePrivateFields: true,
		Compact:           false,
		StripPackageNames: true,
	}

	_, err := io.WriteString(w, dumper.Sdump(v)+"\n")
	if err != nil {
		return fmt.Errorf("write dump: %w", err)
	}

	return nil
}
