package capture

import (
	"testing"

	"gocv.io/x/gocv"
)

func solidFrame(value float64) gocv.Mat {
	mat := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	if value > 0 {
		mat.SetTo(gocv.NewScalar(value, value, value, 0))
	}
	return mat
}

func TestNewMotionDetector(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		want      float64
	}{
		{name: "explicit threshold", threshold: 5, want: 5},
		{name: "zero uses default", threshold: 0, want: DefaultMotionThreshold},
		{name: "negative uses default", threshold: -2, want: DefaultMotionThreshold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := NewMotionDetector(tt.threshold)
			defer md.Close()

			if got := md.Threshold(); got != tt.want {
				t.Errorf("Threshold() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestMotionDetector_Detect(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	black := solidFrame(0)
	defer black.Close()
	white := solidFrame(255)
	defer white.Close()

	t.Run("first frame is the baseline", func(t *testing.T) {
		md := NewMotionDetector(1)
		defer md.Close()

		if got := md.Detect(&white); got.Moved || got.Changed != 0 {
			t.Errorf("first frame = %+v, want no motion", got)
		}
	})

	t.Run("identical frames do not move", func(t *testing.T) {
		md := NewMotionDetector(1)
		defer md.Close()

		md.Detect(&black)
		if got := md.Detect(&black); got.Moved {
			t.Errorf("identical frames moved: %+v", got)
		}
	})

	t.Run("black to white moves", func(t *testing.T) {
		md := NewMotionDetector(1)
		defer md.Close()

		md.Detect(&black)
		got := md.Detect(&white)
		if !got.Moved {
			t.Errorf("black to white did not move: %+v", got)
		}
		if got.Changed < 50 {
			t.Errorf("Changed = %f, want > 50", got.Changed)
		}
	})

	t.Run("reset drops the baseline", func(t *testing.T) {
		md := NewMotionDetector(1)
		defer md.Close()

		md.Detect(&black)
		md.Reset()
		if got := md.Detect(&white); got.Moved {
			t.Errorf("first frame after Reset moved: %+v", got)
		}
	})

	t.Run("nil and empty frames", func(t *testing.T) {
		md := NewMotionDetector(1)
		defer md.Close()

		empty := gocv.NewMat()
		defer empty.Close()

		if got := md.Detect(nil); got.Moved {
			t.Error("nil frame moved")
		}
		if got := md.Detect(&empty); got.Moved {
			t.Error("empty frame moved")
		}
	})
}

func TestMotionDetector_ReuseAfterClose(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	black := solidFrame(0)
	defer black.Close()
	white := solidFrame(255)
	defer white.Close()

	md := NewMotionDetector(1)

	// Each cycle replaces the baseline Mat, whether or not it held a frame.
	for i := 0; i < 3; i++ {
		md.Detect(&black)
		md.Close()
		md.Reset()

		if got := md.Detect(&white); got.Moved {
			t.Fatalf("cycle %d: first frame after Close moved: %+v", i, got)
		}
		if got := md.Detect(&black); !got.Moved {
			t.Fatalf("cycle %d: white to black did not move: %+v", i, got)
		}
	}
	md.Close()
}

func TestMotionDetector_CloseTwice(t *testing.T) {
	md := NewMotionDetector(1)
	md.Close()
	md.Close()
}
