package inference

import (
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/ayusman/mudra/internal/detector"
)

// Classifier maps a flattened, normalized landmark vector to one score per label.
type Classifier interface {
	Predict(input []float32) ([]float32, error)
	Close() error
}

var ortMu sync.Mutex

// initRuntime initializes the process-wide ONNX Runtime environment once.
func initRuntime(libraryPath string) error {
	ortMu.Lock()
	defer ortMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}
	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}
	return ort.InitializeEnvironment()
}

// ONNXClassifier runs a trained model exported to ONNX. The model takes a
// (1, 63) float32 tensor and returns (1, n) class scores.
type ONNXClassifier struct {
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
}

// NewONNXClassifier loads the model at modelPath. libraryPath points at the
// onnxruntime shared library; empty uses the platform default.
func NewONNXClassifier(modelPath, libraryPath string) (*ONNXClassifier, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model not found: %w", err)
	}

	if err := initRuntime(libraryPath); err != nil {
		return nil, fmt.Errorf("initialize onnxruntime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("inspect model: %w", err)
	}
	if len(inputs) != 1 || len(outputs) < 1 {
		return nil, fmt.Errorf("model must have one input and at least one output, got %d and %d", len(inputs), len(outputs))
	}

	in := inputs[0]
	if n := len(in.Dimensions); n > 0 {
		if last := in.Dimensions[n-1]; last > 0 && last != detector.FlatLen {
			return nil, fmt.Errorf("model input %q expects %d values, landmarks provide %d", in.Name, last, detector.FlatLen)
		}
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{in.Name}, []string{outputs[0].Name}, nil)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &ONNXClassifier{
		session:    session,
		inputName:  in.Name,
		outputName: outputs[0].Name,
	}, nil
}

// Predict runs one forward pass. It is safe for concurrent use.
func (c *ONNXClassifier) Predict(input []float32) ([]float32, error) {
	data := make([]float32, len(input))
	copy(data, input)

	tensor, err := ort.NewTensor(ort.NewShape(1, int64(len(data))), data)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	defer tensor.Destroy()

	outputs := []ort.Value{nil}
	if err := c.session.Run([]ort.Value{tensor}, outputs); err != nil {
		return nil, fmt.Errorf("run %s: %w", c.outputName, err)
	}
	defer outputs[0].Destroy()

	scores, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("output %s is not a float32 tensor", c.outputName)
	}

	out := make([]float32, len(scores.GetData()))
	copy(out, scores.GetData())
	return out, nil
}

// Close releases the session.
func (c *ONNXClassifier) Close() error {
	if c == nil || c.session == nil {
		return nil
	}
	err := c.session.Destroy()
	c.session = nil
	return err
}
