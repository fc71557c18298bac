// Package modelinfo loads the description of the embedded classification model.
package modelinfo

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed description.yaml
var embedded []byte

// Description is the static metadata of a classification model.
type Description struct {
	ID           string   `yaml:"id"           json:"id"`
	Name         string   `yaml:"name"         json:"name"`
	Version      string   `yaml:"version"      json:"version"`
	ReleaseDate  string   `yaml:"releaseDate"  json:"releaseDate"`
	CavityLabels []string `yaml:"cavityLabels" json:"cavityLabels"`
	FaultLabels  []string `yaml:"faultLabels"  json:"faultLabels"`
	TrainingData string   `yaml:"trainingData" json:"trainingData"`
	Brief        string   `yaml:"brief"        json:"brief"`
	Details      string   `yaml:"details"      json:"details"`
}

// Load returns the description at path, or the embedded one when path is empty.
func Load(path string) (*Description, error) {
	raw := embedded
	src := "embedded description"
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read model description: %w", err)
		}
		raw, src = b, path
	}

	var d Description
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parse %s: %w", src, err)
	}
	if d.Name == "" || d.Version == "" {
		return nil, fmt.Errorf("parse %s: name and version are required", src)
	}
	return &d, nil
}

// Identity returns the stable model token, e.g. "cnn_lstm_v1_0".
func (d *Description) Identity() string {
	return fmt.Sprintf("%s_v%s", d.Name, strings.ReplaceAll(d.Version, ".", "_"))
}

// Print writes the human-readable description. Details are included when verbose.
func (d *Description) Print(w io.Writer, verbose bool) error {
	_, err := fmt.Fprintf(w, `
Model ID:      %s
Release Date:  %s
Cavity Labels: %s
Fault Labels:  %s
Training Data: %s
Brief:         %s
`, d.ID, d.ReleaseDate, listString(d.CavityLabels), listString(d.FaultLabels), d.TrainingData, d.Brief)
	if err != nil {
		return err
	}
	if verbose {
		_, err = fmt.Fprintf(w, "\nDetails:       %s\n", d.Details)
	}
	return err
}

func listString(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "'" + s + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
