package model

// GeoPoint is a GeoJSON point, coordinates ordered [longitude, latitude].
type GeoPoint struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// Point builds a GeoPoint.
func Point(lng, lat float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: [2]float64{lng, lat}}
}

// Lng is the longitude.
func (p GeoPoint) Lng() float64 { return p.Coordinates[0] }
// Lat is the latitude.
func (p GeoPoint) Lat() float64 { return p.Coordinates[1] }

// LocationInput is the payload form of a GeoPoint.
type LocationInput struct {
	Lng float64 `json:"lng" validate:"longitude"`
	Lat float64 `json:"lat" validate:"latitude"`
}

// Point converts the payload into a GeoPoint.
func (l *LocationInput) Point() GeoPoint {
	if l == nil {
		return Point(0, 0)
	}
	return Point(l.Lng, l.Lat)
}
