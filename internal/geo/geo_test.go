package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	// Two Tainan district centers roughly 7.9 km apart.
	sinhua := Point{Lat: 23.0386, Lng: 120.3108}
	shanshang := Point{Lat: 23.0975, Lng: 120.3547}

	d := Distance(sinhua, shanshang)
	assert.InDelta(t, 7940, d, 30, "新化區 to 山上區 should be ~7.9km")

	assert.Equal(t, 0.0, Distance(sinhua, sinhua), "identical points are 0m apart")
	assert.Equal(t, Distance(sinhua, shanshang), Distance(shanshang, sinhua), "distance is symmetric")
}

func TestDistanceShortRange(t *testing.T) {
	// 0.0009° of latitude is ~100m, the default cluster radius scale.
	a := Point{Lat: 23.0000, Lng: 120.2000}
	b := Point{Lat: 23.0009, Lng: 120.2000}

	assert.InDelta(t, 100, Distance(a, b), 1)
}

func TestValid(t *testing.T) {
	assert.True(t, Point{Lat: 23.0, Lng: 120.2}.Valid())
	assert.True(t, Point{Lat: -90, Lng: 180}.Valid())
	assert.False(t, Point{Lat: 91, Lng: 120.2}.Valid())
	assert.False(t, Point{Lat: 23.0, Lng: -181}.Valid())
}
