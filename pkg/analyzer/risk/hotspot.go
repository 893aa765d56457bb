package risk

import "math"

// Empirical CDF of change counts per file or function over the analyzed
// history. Most units change once or twice; ten or more changes is hotspot
// territory.
var churnCDF = [][2]float64{
	{0, 0.0},
	{1, 0.30},
	{2, 0.50},
	{3, 0.60},
	{5, 0.75},
	{7, 0.85},
	{10, 0.92},
	{15, 0.96},
	{20, 0.98},
	{50, 1.0},
}

// Empirical CDF of cyclomatic complexity per function. McCabe's threshold of
// 10 sits at the 80th percentile.
var complexityCDF = [][2]float64{
	{0, 0.0},
	{1, 0.10},
	{2, 0.20},
	{3, 0.30},
	{5, 0.50},
	{7, 0.70},
	{10, 0.80},
	{15, 0.90},
	{20, 0.95},
	{30, 0.98},
	{50, 1.0},
}

// Hotspot severity thresholds on the 0-1 hotspot score.
const (
	HotspotCritical = 0.6
	HotspotHigh     = 0.4
	HotspotModerate = 0.25
)

// NormalizeChurnCDF maps a change count to its percentile, 0-1.
func NormalizeChurnCDF(changes int) float64 {
	return interpolateCDF(churnCDF, float64(changes))
}

// NormalizeComplexityCDF maps a complexity value to its percentile, 0-1.
func NormalizeComplexityCDF(complexity float64) float64 {
	return interpolateCDF(complexityCDF, complexity)
}

// HotspotScore is the geometric mean of the CDF-normalized churn and
// complexity. Both must be elevated for a high score.
func HotspotScore(changes int, complexity float64) float64 {
	c := NormalizeChurnCDF(changes)
	x := NormalizeComplexityCDF(complexity)
	if c <= 0 || x <= 0 {
		return 0
	}
	return math.Sqrt(c * x)
}

// HotspotSeverity labels a hotspot score.
func HotspotSeverity(score float64) string {
	switch {
	case score >= HotspotCritical:
		return "critical"
	case score >= HotspotHigh:
		return "high"
	case score >= HotspotModerate:
		return "moderate"
	default:
		return "low"
	}
}

func interpolateCDF(cdf [][2]float64, value float64) float64 {
	if value <= cdf[0][0] {
		return cdf[0][1]
	}
	last := len(cdf) - 1
	if value >= cdf[last][0] {
		return cdf[last][1]
	}

	for i := 0; i < last; i++ {
		v1, p1 := cdf[i][0], cdf[i][1]
		v2, p2 := cdf[i+1][0], cdf[i+1][1]

		if value >= v1 && value <= v2 {
			t := (value - v1) / (v2 - v1)
			return p1 + t*(p2-p1)
		}
	}
	return 0
}
