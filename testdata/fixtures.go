package testdata

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/ayusman/mudra/internal/dictionary"
)

//go:embed landmarks/*.json
var landmarksFS embed.FS

// LoadLandmarks loads the rows of a single hand fixture by name, e.g. "victory".
func LoadLandmarks(name string) ([][]float64, error) {
	data, err := landmarksFS.ReadFile("landmarks/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("load landmarks %s: %w", name, err)
	}

	var body struct {
		Landmarks [][]float64 `json:"landmarks"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("decode landmarks %s: %w", name, err)
	}

	return body.Landmarks, nil
}

// LoadSamples loads the recorded samples used to build a test dictionary.
func LoadSamples() ([]dictionary.Samples, error) {
	data, err := landmarksFS.ReadFile("landmarks/samples.json")
	if err != nil {
		return nil, fmt.Errorf("load samples: %w", err)
	}

	var samples []dictionary.Samples
	if err := json.Unmarshal(data, &samples); err != nil {
		return nil, fmt.Errorf("decode samples: %w", err)
	}

	return samples, nil
}

// SignNames lists the hand fixtures, in samples order.
func SignNames() []string {
	return []string{"thumbs_up", "open_palm", "victory"}
}
