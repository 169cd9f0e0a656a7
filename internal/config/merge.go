package config

import (
	"bytes"
	"fmt"
	"io"

	"github.com/qjebbs/go-jsons"
)

// Merge decodes the JSON documents in order, later values overriding
// earlier ones. Blank documents count as absent.
func Merge(docs []io.Reader) (*Config, error) {
	var inputs []io.Reader
	for i, r := range docs {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration %d: %w", i, err)
		}
		if len(bytes.TrimSpace(data)) == 0 {
			continue
		}
		inputs = append(inputs, bytes.NewReader(data))
	}
	if len(inputs) == 0 {
		return &Config{}, nil
	}

	merged, err := jsons.Merge(inputs)
	if err != nil {
		return nil, fmt.Errorf("failed to merge configuration: %w", err)
	}
	return LoadReader(bytes.NewReader(merged))
}
