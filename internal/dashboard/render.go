package dashboard

import (
	"strings"

	"github.com/couchcryptid/firewatch/internal/domain"
	"github.com/mmcloughlin/geohash"
)

// TileURL is the raster tile template for the base map.
const TileURL = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"

const (
	markerRadius     = 6
	markerOpacity    = 0.6
	shelterColor     = "blue"
	geohashPrecision = 9
	notAvailable     = "N/A"
)

// Marker kinds.
const (
	KindFire    = "fire"
	KindShelter = "shelter"
)

// PopupField is one labelled line of a marker popup.
type PopupField struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Marker is a circle marker ready to be placed on the map.
type Marker struct {
	ID       string       `json:"id"`
	Kind     string       `json:"kind"`
	Lat      float64      `json:"lat"`
	Lng      float64      `json:"lng"`
	Color    string       `json:"color"`
	Radius   int          `json:"radius"`
	Opacity  float64      `json:"fill_opacity"`
	Severity *int         `json:"severity,omitempty"`
	Geohash  string       `json:"geohash"`
	Title    string       `json:"title,omitempty"`
	Popup    []PopupField `json:"popup"`
}

// FireMarkers renders detections colored by effective severity. Detections
// without usable coordinates are skipped.
func FireMarkers(fires []domain.Detection) []Marker {
	markers := make([]Marker, 0, len(fires))
	for _, f := range fires {
		lat, lng, ok := f.Position()
		if !ok {
			continue
		}
		sev := domain.EffectiveSeverity(f)
		m := newMarker(KindFire, f.ID, lat, lng)
		m.Color = domain.SeverityColor(sev)
		m.Severity = sev
		m.Popup = firePopup(f)
		markers = append(markers, m)
	}
	return markers
}

// ShelterMarkers renders shelters as blue markers. Shelters without usable
// coordinates are skipped.
func ShelterMarkers(shelters []domain.Shelter) []Marker {
	markers := make([]Marker, 0, len(shelters))
	for _, s := range shelters {
		lat, lng, ok := s.Position()
		if !ok {
			continue
		}
		m := newMarker(KindShelter, s.ID, lat, lng)
		m.Color = shelterColor
		m.Title = s.Name.String()
		m.Popup = shelterPopup(s)
		markers = append(markers, m)
	}
	return markers
}

// MarkersInBounds returns the markers that fall inside b.
func MarkersInBounds(markers []Marker, b domain.Bounds) []Marker {
	out := make([]Marker, 0, len(markers))
	for _, m := range markers {
		if b.Contains(m.Lat, m.Lng) {
			out = append(out, m)
		}
	}
	return out
}

func newMarker(kind string, id domain.Scalar, lat, lng float64) Marker {
	cell := geohash.EncodeWithPrecision(lat, lng, geohashPrecision)
	markerID := id.String()
	if markerID == "" {
		markerID = kind + ":" + cell
	}
	return Marker{
		ID:      markerID,
		Kind:    kind,
		Lat:     lat,
		Lng:     lng,
		Radius:  markerRadius,
		Opacity: markerOpacity,
		Geohash: cell,
	}
}

func firePopup(f domain.Detection) []PopupField {
	date := f.Date.String()
	if date == "" {
		date = "n/a"
	}
	fields := []PopupField{
		{Label: "Severity", Value: domain.SeverityLabel(f)},
		{Label: "Date", Value: date},
		{Label: "Confidence", Value: f.Confidence.String()},
	}
	if f.Summary.Present() {
		fields = append(fields, PopupField{Label: "Summary", Value: f.Summary.String()})
	}
	return fields
}

func shelterPopup(s domain.Shelter) []PopupField {
	capacity := s.Capacity.String()
	if n, ok := s.Capacity.Float(); capacity == "" || (ok && n == 0) {
		capacity = notAvailable
	}
	fields := []PopupField{
		{Label: "Name", Value: s.Name.String()},
		{Label: "Address", Value: addressLine(s)},
		{Label: "Capacity", Value: capacity},
	}
	if high, ok := s.CapacityRisk.Bool(); ok {
		risk := "Low"
		if high {
			risk = "High"
		}
		fields = append(fields, PopupField{Label: "Capacity Risk", Value: risk})
	}
	return fields
}

// addressLine formats "address, city, state zip".
func addressLine(s domain.Shelter) string {
	var b strings.Builder
	b.WriteString(s.Address.String())
	b.WriteString(", ")
	b.WriteString(s.City.String())
	b.WriteString(", ")
	b.WriteString(s.State.String())
	if zip := s.Zip.String(); zip != "" {
		b.WriteString(" ")
		b.WriteString(zip)
	}
	return b.String()
}
