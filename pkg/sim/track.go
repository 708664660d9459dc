// Package sim simulates the robot on a guide line so the controller can
// run without hardware. The line is unrolled into one dimension: S is
// the distance along the line and Y the lateral offset from it.
package sim

import "math"

// Track describes the guide line.
type Track struct {
	// Markers are the marker positions along the line, home first.
	Markers []float64
	// MarkerWidth is the length of a marker along the line.
	MarkerWidth float64
	// LineWidth is the width of the guide line.
	LineWidth float64
	// Curvature and Wavelength define a sinusoidal bend profile (1/m, m).
	Curvature  float64
	Wavelength float64
}

// EvenTrack creates a track with home at 0 and tables evenly spaced.
func EvenTrack(tables int, spacing float64) Track {
	t := Track{
		MarkerWidth: 0.03,
		LineWidth:   0.018,
		Curvature:   0.2,
		Wavelength:  2.5,
	}
	for i := 0; i <= tables; i++ {
		t.Markers = append(t.Markers, float64(i)*spacing)
	}
	return t
}

// CurvatureAt returns the line curvature at s, positive bending right.
func (t *Track) CurvatureAt(s float64) float64 {
	if t.Wavelength <= 0 {
		return 0
	}
	return t.Curvature * math.Sin(2*math.Pi*s/t.Wavelength)
}

// MarkerAt returns the index of the marker under s, or -1.
func (t *Track) MarkerAt(s float64) int {
	for i, m := range t.Markers {
		if math.Abs(s-m) <= t.MarkerWidth/2 {
			return i
		}
	}
	return -1
}
