package detector

// Preset hand poses in image coordinates (Y grows downward), indexed by landmark.
var (
	thumbsUpRows = [NumLandmarks][Dimensions]float64{
		{0.50, 0.80, 0.00},                                                                 // wrist
		{0.55, 0.75, 0.00}, {0.58, 0.65, 0.00}, {0.58, 0.50, 0.00}, {0.58, 0.35, 0.00},     // thumb up
		{0.55, 0.70, -0.02}, {0.55, 0.68, -0.05}, {0.52, 0.70, -0.04}, {0.50, 0.72, -0.02}, // index curled
		{0.50, 0.68, -0.02}, {0.50, 0.66, -0.05}, {0.47, 0.68, -0.04}, {0.45, 0.70, -0.02}, // middle curled
		{0.45, 0.70, -0.02}, {0.45, 0.68, -0.05}, {0.42, 0.70, -0.04}, {0.40, 0.72, -0.02}, // ring curled
		{0.40, 0.72, -0.02}, {0.40, 0.70, -0.05}, {0.37, 0.72, -0.04}, {0.35, 0.74, -0.02}, // pinky curled
	}

	openPalmRows = [NumLandmarks][Dimensions]float64{
		{0.50, 0.80, 0.00},
		{0.55, 0.75, 0.02}, {0.62, 0.70, 0.03}, {0.68, 0.65, 0.03}, {0.73, 0.60, 0.03},
		{0.55, 0.68, 0.00}, {0.57, 0.55, 0.00}, {0.58, 0.45, 0.00}, {0.58, 0.35, 0.00},
		{0.50, 0.66, 0.00}, {0.50, 0.52, 0.00}, {0.50, 0.40, 0.00}, {0.50, 0.28, 0.00},
		{0.45, 0.68, 0.00}, {0.43, 0.55, 0.00}, {0.42, 0.45, 0.00}, {0.42, 0.35, 0.00},
		{0.40, 0.70, 0.00}, {0.37, 0.60, 0.00}, {0.35, 0.50, 0.00}, {0.34, 0.42, 0.00},
	}

	// Index and middle extended in a V, the rest folded.
	victoryRows = [NumLandmarks][Dimensions]float64{
		{0.50, 0.80, 0.00},
		{0.55, 0.76, -0.01}, {0.57, 0.70, -0.03}, {0.54, 0.66, -0.05}, {0.51, 0.66, -0.06},
		{0.55, 0.68, 0.00}, {0.60, 0.55, 0.00}, {0.63, 0.45, 0.00}, {0.66, 0.36, 0.00},
		{0.50, 0.66, 0.00}, {0.47, 0.52, 0.00}, {0.45, 0.42, 0.00}, {0.43, 0.32, 0.00},
		{0.45, 0.69, -0.02}, {0.45, 0.66, -0.05}, {0.46, 0.70, -0.04}, {0.47, 0.73, -0.02},
		{0.41, 0.71, -0.02}, {0.41, 0.68, -0.05}, {0.42, 0.72, -0.04}, {0.43, 0.74, -0.02},
	}
)

func fromRows(rows [NumLandmarks][Dimensions]float64) Landmarks {
	var lm Landmarks
	for i, r := range rows {
		lm[i] = Point3D{X: r[0], Y: r[1], Z: r[2]}
	}
	return lm
}

func rightHand(rows [NumLandmarks][Dimensions]float64) HandLandmarks {
	return HandLandmarks{
		Points:     fromRows(rows),
		Handedness: "Right",
		Score:      0.95,
	}
}

// ThumbsUpLandmarks returns a right hand with the thumb extended upward and the other fingers curled.
func ThumbsUpLandmarks() HandLandmarks {
	return rightHand(thumbsUpRows)
}

// OpenPalmLandmarks returns a right hand with all fingers extended.
func OpenPalmLandmarks() HandLandmarks {
	return rightHand(openPalmRows)
}

// VictoryLandmarks returns a right hand with index and middle fingers spread in a V.
func VictoryLandmarks() HandLandmarks {
	return rightHand(victoryRows)
}
