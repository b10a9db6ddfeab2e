package domain

import (
	"math"
	"strconv"
)

// Severity levels produced by the confidence fallback.
const (
	MinSeverity = 1
	MaxSeverity = 5
)

// AlertColor marks a detection whose severity has no palette entry, either
// because it could not be determined or because the provider sent a value
// outside 1-5.
const AlertColor = "red"

var severityPalette = map[int]string{
	1: "#2ca02c", // low
	2: "#98df8a",
	3: "#ff7f0e", // medium
	4: "#d62728",
	5: "#9467bd", // high
}

// EffectiveSeverity returns the severity level used for rendering a
// detection, or nil when there is no integer level to color by.
//
// An authoritative severity is returned unchanged, without range checks; a
// present value that is not an integer yields nil and is shown as sent, see
// SeverityLabel. Otherwise the confidence score is mapped onto 1-5 as
// ceil(conf/100*5), clamped, so a confidence of 0 still yields 1. Confidence
// is read from its leading number, so "85%" counts as 85.
func EffectiveSeverity(d Detection) *int {
	if d.Severity.Present() {
		sev, ok := integerLevel(d.Severity)
		if !ok {
			return nil
		}
		return &sev
	}
	conf, ok := d.Confidence.LeadingFloat()
	if !ok {
		return nil
	}
	sev := SeverityFromConfidence(conf)
	return &sev
}

// SeverityLabel returns the severity text for a detection's popup: the
// effective level, the authoritative value as sent when it is not an
// integer, or "N/A".
func SeverityLabel(d Detection) string {
	if sev := EffectiveSeverity(d); sev != nil {
		return strconv.Itoa(*sev)
	}
	if d.Severity.Present() {
		return d.Severity.String()
	}
	return "N/A"
}

func integerLevel(s Scalar) (int, bool) {
	v, ok := s.Float()
	if !ok || v != math.Trunc(v) {
		return 0, false
	}
	return s.Int()
}

// SeverityFromConfidence maps a 0-100 confidence score onto MinSeverity..MaxSeverity.
func SeverityFromConfidence(confidence float64) int {
	sev := math.Ceil(confidence / 100 * MaxSeverity)
	switch {
	case sev < MinSeverity:
		return MinSeverity
	case sev > MaxSeverity:
		return MaxSeverity
	default:
		return int(sev)
	}
}

// SeverityColor returns the marker color for an effective severity.
func SeverityColor(sev *int) string {
	if sev == nil {
		return AlertColor
	}
	if c, ok := severityPalette[*sev]; ok {
		return c
	}
	return AlertColor
}
