package geo

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"quboassign/internal/model"
)

// Point is a latitude/longitude pair in decimal degrees.
type Point struct {
	Lat float64
	Lon float64
}

// HaversineKm returns the great-circle distance between two points in km.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return model.EarthRadius * c
}

// Distance is HaversineKm over Points.
func Distance(a, b Point) float64 { return HaversineKm(a.Lat, a.Lon, b.Lat, b.Lon) }

// Matrix derives the [warehouse][customer] distance matrix from coordinates.
func Matrix(warehouses []model.WarehouseNode, customers []model.CustomerNode) model.DistanceMatrix {
	out := make(model.DistanceMatrix, len(warehouses))
	for i, w := range warehouses {
		row := make([]float64, len(customers))
		for j, c := range customers {
			row[j] = HaversineKm(w.Lat, w.Lon, c.Lat, c.Lon)
		}
		out[i] = row
	}
	return out
}

// Resolve returns p.Distances when present, otherwise the haversine matrix.
func Resolve(p model.Problem) model.DistanceMatrix {
	if p.Distances != nil {
		return p.Distances
	}
	return Matrix(p.Warehouses, p.Customers)
}

// Centroid is the arithmetic mean of the points. Empty input yields the zero Point.
func Centroid(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}
	lats := make([]float64, len(points))
	lons := make([]float64, len(points))
	for i, p := range points {
		lats[i] = p.Lat
		lons[i] = p.Lon
	}
	return Point{Lat: stat.Mean(lats, nil), Lon: stat.Mean(lons, nil)}
}
