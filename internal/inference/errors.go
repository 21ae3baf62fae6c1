package inference

import "errors"

var (
	// ErrModelLoad wraps failures to load the trained classifier.
	ErrModelLoad = errors.New("model load failed")
	// ErrDictionaryLoad wraps failures to load the reference dictionary.
	ErrDictionaryLoad = errors.New("dictionary load failed")
	// ErrInference wraps classifier or matcher failures during a prediction.
	ErrInference = errors.New("inference failed")
)
