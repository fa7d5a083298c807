package obs

import "math"

// scaleResolution finds an output resolution close to the target area while
// preserving the base aspect ratio.
func scaleResolution(baseWidth, baseHeight, targetWidth, targetHeight int) (int, int) {
	targetArea := float64(targetWidth * targetHeight)
	aspectRatio := float64(baseWidth) / float64(baseHeight)

	scaledHeight := int(math.Sqrt(targetArea / aspectRatio))
	scaledWidth := int(aspectRatio * float64(scaledHeight))

	return scaledWidth, scaledHeight
}

// youtubeBitrates maps resolutions to the YouTube recommended upload bitrate
// in Mbps, per framerate. https://support.google.com/youtube/answer/1722171
var youtubeBitrates = map[[2]int]map[int]float64{
	{7680, 4320}: {30: 120, 60: 180},
	{3840, 2160}: {30: 40, 60: 60.5},
	{2160, 1440}: {30: 16, 60: 24},
	{1920, 1080}: {30: 8, 60: 12},
	{1280, 720}:  {30: 5, 60: 7.5},
	{640, 480}:   {30: 2.5, 60: 4},
	{480, 360}:   {30: 1, 60: 1.5},
}

// bitrateMbps returns the recommended bitrate for a resolution and framerate,
// interpolating with a linear area model when the resolution is not listed.
func bitrateMbps(width, height, fps int) float64 {
	if perFPS, ok := youtubeBitrates[[2]int{width, height}]; ok {
		if rate, ok := perFPS[fps]; ok {
			return rate
		}
	}

	area := float64(width * height)
	multiplier := 3.5982188179592543e-06
	constant := 2.418399836285939
	if fps != 30 {
		multiplier = 5.396175171097084e-06
		constant = 3.742780056500365
	}
	return multiplier*area + constant
}
