// Package domain models wildfire detections and shelters served by the
// hosted search index, and the logical search requests that fetch them.
//
// # Records
//
// Hits arrive as loosely typed JSON. The ingestion job writes FIRMS satellite
// detections with a confidence column that is numeric for MODIS ("85") and
// categorical for VIIRS ("n", "l", "h"), always stored as a string. Scalar
// absorbs number and string encodings and leaves interpretation to the
// accessor that needs it. The index has no schema, so no attribute is allowed
// to fail a whole record: objects and arrays in a scalar slot read as absent
// and Flag treats an unrecognized boolean the same way.
//
// # Severity
//
// A detection may carry an authoritative severity (written by an external
// enrichment workflow). When it does not, a severity is derived from
// confidence:
//
//	severity = clamp(ceil(confidence / 100 * 5), 1, 5)
//
//	confidence   0 -> 1
//	confidence  50 -> 3
//	confidence 100 -> 5
//	"h", "", absent -> none
//
// Confidence is read from its leading number, so "85%" counts as 85.
// Authoritative values are not range checked; a value outside 1-5 renders
// with AlertColor, and a non-integer value such as "high" is shown as sent.
//
// # Viewports
//
// Bounds follow the map widget's (south-west, north-east) corner order and
// are tested with an S2 lat/lng rectangle, which handles viewports that
// straddle the antimeridian.
package domain
