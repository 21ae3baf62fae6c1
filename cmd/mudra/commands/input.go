package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// readInput reads path, or stdin when path is "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// readLandmarks reads a landmarks file. Both a bare [[x,y,z], ...] array and
// a {"landmarks": [...]} request body are accepted.
func readLandmarks(path string) ([][]float64, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}
	return parseLandmarks(data)
}

func parseLandmarks(data []byte) ([][]float64, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var rows [][]float64
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("parse landmarks: %w", err)
		}
		return rows, nil
	}

	var body struct {
		Landmarks [][]float64 `json:"landmarks"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("parse landmarks: %w", err)
	}
	return body.Landmarks, nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
