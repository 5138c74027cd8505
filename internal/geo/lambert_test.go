package geo

import (
	"math"
	"testing"
)

func TestLambert93_Origin(t *testing.T) {
	// The projection origin (46.5°N, 3°E) maps to the false origin.
	x, y := Lambert93(46.5, 3.0)
	if math.Abs(x-700000) > 1.0 {
		t.Errorf("x = %f, want 700000 ±1m", x)
	}
	if math.Abs(y-6600000) > 1.0 {
		t.Errorf("y = %f, want 6600000 ±1m", y)
	}
}

func TestLambert93_Monotonic(t *testing.T) {
	x0, y0 := Lambert93(46.5, 3.0)

	xEast, _ := Lambert93(46.5, 3.5)
	if xEast <= x0 {
		t.Errorf("moving east should increase easting: %f <= %f", xEast, x0)
	}

	xWest, _ := Lambert93(46.5, 2.5)
	if xWest >= x0 {
		t.Errorf("moving west should decrease easting: %f >= %f", xWest, x0)
	}

	_, yNorth := Lambert93(47.5, 3.0)
	if yNorth <= y0 {
		t.Errorf("moving north should increase northing: %f <= %f", yNorth, y0)
	}

	_, ySouth := Lambert93(45.5, 3.0)
	if ySouth >= y0 {
		t.Errorf("moving south should decrease northing: %f >= %f", ySouth, y0)
	}
}

func TestLambert93_MetropolitanWindow(t *testing.T) {
	// Mainland France lands inside the official Lambert-93 usage window.
	points := []struct {
		name     string
		lat, lon float64
	}{
		{name: "Paris", lat: 48.8566, lon: 2.3522},
		{name: "Marseille", lat: 43.2965, lon: 5.3698},
		{name: "Brest", lat: 48.3904, lon: -4.4861},
		{name: "Strasbourg", lat: 48.5734, lon: 7.7521},
	}
	for _, p := range points {
		x, y := Lambert93(p.lat, p.lon)
		if x < 100000 || x > 1300000 {
			t.Errorf("%s: easting %f outside metropolitan window", p.name, x)
		}
		if y < 6000000 || y > 7200000 {
			t.Errorf("%s: northing %f outside metropolitan window", p.name, y)
		}
	}
}
