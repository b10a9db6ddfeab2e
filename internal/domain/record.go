package domain

// Detection is a single geotagged wildfire hit from the "fires" index.
// Records are read-only; every successful search replaces the whole set.
// The index has no schema, so every attribute decodes leniently.
type Detection struct {
	ID         Scalar `json:"objectID"`
	Latitude   Scalar `json:"latitude"`
	Longitude  Scalar `json:"longitude"`
	Severity   Scalar `json:"severity"`   // authoritative level, expected 1-5
	Confidence Scalar `json:"confidence"` // 0-100, number or numeric string
	Date       Scalar `json:"date"`
	Summary    Scalar `json:"summary"`
}

// Position returns the detection's coordinates. ok is false when either
// coordinate is missing or non-finite; such records cannot be placed on a map.
func (d Detection) Position() (lat, lng float64, ok bool) {
	return position(d.Latitude, d.Longitude)
}

// Shelter is an evacuation shelter hit from the "shelters" index.
type Shelter struct {
	ID           Scalar `json:"objectID"`
	Latitude     Scalar `json:"latitude"`
	Longitude    Scalar `json:"longitude"`
	Name         Scalar `json:"name"`
	Address      Scalar `json:"address"`
	City         Scalar `json:"city"`
	State        Scalar `json:"state"`
	Zip          Scalar `json:"zip"`
	Capacity     Scalar `json:"capacity"`
	CapacityRisk Flag   `json:"capacityRisk"`
}

// Position returns the shelter's coordinates, see Detection.Position.
func (s Shelter) Position() (lat, lng float64, ok bool) {
	return position(s.Latitude, s.Longitude)
}

func position(latitude, longitude Scalar) (float64, float64, bool) {
	lat, okLat := latitude.Float()
	lng, okLng := longitude.Float()
	if !okLat || !okLng {
		return 0, 0, false
	}
	return lat, lng, true
}
