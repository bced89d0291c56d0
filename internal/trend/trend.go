// Package trend classifies the direction of a metric's recent history.
package trend

import (
	"math"

	"github.com/saaga0h/wellness-engine/internal/wellness"
)

// SlopeThreshold separates a stable series from a moving one, in metric units per sample
const SlopeThreshold = 0.1

// PrimaryMetrics is the metric each domain's trend is computed on
var PrimaryMetrics = map[wellness.Domain]string{
	wellness.DomainMood:      wellness.MetricMoodScore,
	wellness.DomainSleep:     wellness.MetricSleepHours,
	wellness.DomainActivity:  wellness.MetricSteps,
	wellness.DomainRecovery:  wellness.MetricHRV,
	wellness.DomainHydration: wellness.MetricGlasses,
	wellness.DomainEmotion:   wellness.MetricValence,
	wellness.DomainSkin:      wellness.MetricSkinOverall,
}

// Analyze fits an ordinary least-squares line of value against index.
// Every point has the same weight. Confidence is the R² of the fit, or zero
// when fewer than two points are available.
func Analyze(values []float64) wellness.TrendResult {
	n := len(values)
	result := wellness.TrendResult{
		Direction: wellness.DirectionStable,
		Points:    n,
	}
	if n < 2 {
		return result
	}

	var sumX, sumY float64
	for i, v := range values {
		sumX += float64(i)
		sumY += v
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var sxx, sxy, syy float64
	for i, v := range values {
		dx := float64(i) - meanX
		dy := v - meanY
		sxx += dx * dx
		sxy += dx * dy
		syy += dy * dy
	}

	slope := sxy / sxx
	result.Slope = slope

	switch {
	case slope > SlopeThreshold:
		result.Direction = wellness.DirectionImproving
	case slope < -SlopeThreshold:
		result.Direction = wellness.DirectionDeclining
	}

	if syy == 0 {
		// A flat series is fit exactly
		result.Confidence = 1
	} else {
		result.Confidence = (sxy * sxy) / (sxx * syy)
	}
	result.Confidence = math.Max(0, math.Min(1, result.Confidence))

	return result
}

// AnalyzeContext computes one trend per domain from the primary metric of
// its history. Domains without history get a stable trend with zero confidence.
func AnalyzeContext(c *wellness.Context) map[wellness.Domain]wellness.TrendResult {
	trends := make(map[wellness.Domain]wellness.TrendResult, len(wellness.AllDomains))

	for _, d := range wellness.AllDomains {
		metric := PrimaryMetrics[d]

		var values []float64
		if c != nil {
			for _, s := range c.History[d] {
				if v, ok := s.Values[metric]; ok {
					values = append(values, v)
				}
			}
		}

		r := Analyze(values)
		r.Metric = metric
		trends[d] = r
	}

	return trends
}
