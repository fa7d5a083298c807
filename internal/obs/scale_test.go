package obs

import (
	"math"
	"testing"
)

func TestScaleResolutionPreservesAspectRatio(t *testing.T) {
	tests := []struct {
		name                      string
		baseW, baseH              int
		targetW, targetH          int
		expectedW, expectedH      int
	}{
		{name: "16:9 to 720p area", baseW: 1920, baseH: 1080, targetW: 1280, targetH: 720, expectedW: 1280, expectedH: 720},
		{name: "retina 16:10 shrinks", baseW: 2880, baseH: 1800, targetW: 1280, targetH: 720, expectedW: 1212, expectedH: 758},
		{name: "identity", baseW: 1280, baseH: 720, targetW: 1280, targetH: 720, expectedW: 1280, expectedH: 720},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			width, height := scaleResolution(tt.baseW, tt.baseH, tt.targetW, tt.targetH)
			// Truncation may land one pixel under the ideal value.
			if abs(width-tt.expectedW) > 1 || abs(height-tt.expectedH) > 1 {
				t.Errorf("Expected about %dx%d, got: %dx%d", tt.expectedW, tt.expectedH, width, height)
			}

			baseRatio := float64(tt.baseW) / float64(tt.baseH)
			gotRatio := float64(width) / float64(height)
			if math.Abs(baseRatio-gotRatio) > 0.01 {
				t.Errorf("Aspect ratio drifted: base %f, got: %f", baseRatio, gotRatio)
			}
		})
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestBitrateUsesRecommendedTable(t *testing.T) {
	tests := []struct {
		width, height, fps int
		expected           float64
	}{
		{1920, 1080, 30, 8},
		{1920, 1080, 60, 12},
		{1280, 720, 30, 5},
		{3840, 2160, 60, 60.5},
		{640, 480, 30, 2.5},
	}
	for _, tt := range tests {
		if got := bitrateMbps(tt.width, tt.height, tt.fps); got != tt.expected {
			t.Errorf("bitrateMbps(%d, %d, %d): expected %f, got: %f", tt.width, tt.height, tt.fps, tt.expected, got)
		}
	}
}

func TestBitrateInterpolatesUnlistedResolutions(t *testing.T) {
	// 1000x800 at 30fps through the linear area model.
	expected := 3.5982188179592543e-06*800000 + 2.418399836285939
	if got := bitrateMbps(1000, 800, 30); math.Abs(got-expected) > 1e-9 {
		t.Errorf("Expected %f, got: %f", expected, got)
	}

	// Non-30fps uses the steeper model.
	expected60 := 5.396175171097084e-06*800000 + 3.742780056500365
	if got := bitrateMbps(1000, 800, 60); math.Abs(got-expected60) > 1e-9 {
		t.Errorf("Expected %f, got: %f", expected60, got)
	}
	if bitrateMbps(1000, 800, 60) <= bitrateMbps(1000, 800, 30) {
		t.Error("Expected higher framerate to need more bitrate")
	}
}
