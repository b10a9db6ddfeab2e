package dashboard

// FeatureCollection is a GeoJSON feature collection of map markers.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// ToGeoJSON converts markers into point features, longitude first.
func ToGeoJSON(markers ...[]Marker) FeatureCollection {
	n := 0
	for _, set := range markers {
		n += len(set)
	}
	features := make([]Feature, 0, n)

	for _, set := range markers {
		for _, m := range set {
			props := map[string]any{
				"id":           m.ID,
				"kind":         m.Kind,
				"color":        m.Color,
				"radius":       m.Radius,
				"fill_opacity": m.Opacity,
				"geohash":      m.Geohash,
				"popup":        m.Popup,
			}
			if m.Severity != nil {
				props["severity"] = *m.Severity
			}
			if m.Title != "" {
				props["title"] = m.Title
			}
			features = append(features, Feature{
				Type: "Feature",
				Geometry: Geometry{
					Type:        "Point",
					Coordinates: []float64{m.Lng, m.Lat},
				},
				Properties: props,
			})
		}
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}
