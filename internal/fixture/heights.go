// Package fixture reads measured-height fixtures and scroll traces, and
// replays traces through the windowing engine.
package fixture

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// HeightsFile is the on-disk form of a set of measurements.
//
//	{"estimated": 3, "heights": {"12": 7, "40": 1}}
type HeightsFile struct {
	Estimated float64         `json:"estimated,omitempty"`
	Heights   map[int]float64 `json:"heights"`
}

// ReadHeights decodes a heights fixture.
func ReadHeights(r io.Reader) (HeightsFile, error) {
	var hf HeightsFile
	if err := json.NewDecoder(r).Decode(&hf); err != nil {
		return HeightsFile{}, fmt.Errorf("failed to decode heights: %w", err)
	}
	if hf.Heights == nil {
		hf.Heights = map[int]float64{}
	}
	for index, h := range hf.Heights {
		if index < 0 || h <= 0 {
			return HeightsFile{}, fmt.Errorf("invalid height %v for item %d", h, index)
		}
	}
	return hf, nil
}

// LoadHeights reads a heights fixture from path.
func LoadHeights(path string) (HeightsFile, error) {
	fd, err := os.Open(path)
	if err != nil {
		return HeightsFile{}, fmt.Errorf("failed to open heights file %s: %w", path, err)
	}
	defer fd.Close()
	return ReadHeights(fd)
}

// Diff returns the indices whose measurement differs between old and next,
// including indices that disappeared from next.
func Diff(old, next HeightsFile) (changed map[int]float64, removed []int) {
	changed = make(map[int]float64)
	for index, h := range next.Heights {
		if prev, ok := old.Heights[index]; !ok || prev != h {
			changed[index] = h
		}
	}
	for index := range old.Heights {
		if _, ok := next.Heights[index]; !ok {
			removed = append(removed, index)
		}
	}
	return changed, removed
}
