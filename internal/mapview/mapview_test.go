package mapview

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BearBump/LogiTrack/config"
	"github.com/BearBump/LogiTrack/internal/models"
)

func loc(lat, lng float64) *models.Location {
	return &models.Location{Lat: lat, Lng: lng}
}

func TestNew_Defaults(t *testing.T) {
	m := New(Options{})
	require.Equal(t, DefaultCenter, m.Center())
	require.Equal(t, DefaultZoom, m.Zoom())
	require.Empty(t, m.Markers())

	st := m.Snapshot()
	require.Equal(t, "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png", st.Tiles.URLTemplate)
	require.Equal(t, "© OpenStreetMap", st.Tiles.Attribution)
}

func TestUpdate_NoLocations_KeepsView(t *testing.T) {
	m := New(Options{})
	m.Update(nil, nil)
	require.Empty(t, m.Markers())
	require.Equal(t, DefaultCenter, m.Center())
	require.Equal(t, DefaultZoom, m.Zoom())
}

func TestUpdate_SinglePoint_MaxZoom(t *testing.T) {
	m := New(Options{})
	m.Update(loc(32.9, 13.2), nil)

	ms := m.Markers()
	require.Len(t, ms, 1)
	require.Equal(t, MarkerDriver, ms[0].Kind)
	require.Equal(t, "blue", ms[0].Color)
	require.Equal(t, DefaultMaxZoom, m.Zoom())
	require.InDelta(t, 32.9, m.Center().Lat, 1e-9)
	require.InDelta(t, 13.2, m.Center().Lng, 1e-9)
}

func TestUpdate_RepeatedCoordinates_OneMarker(t *testing.T) {
	m := New(Options{})
	for i := 0; i < 5; i++ {
		m.Update(loc(32.9, 13.2), loc(32.9, 13.2))
	}
	ms := m.Markers()
	require.Len(t, ms, 2)
	require.Equal(t, 2, m.Created())
	for _, mk := range ms {
		require.Equal(t, models.Location{Lat: 32.9, Lng: 13.2}, mk.Position)
	}
}

func TestUpdate_MovesWithoutRecreating(t *testing.T) {
	m := New(Options{})
	m.Update(loc(32.9, 13.2), nil)
	m.Update(loc(32.95, 13.25), nil)

	require.Equal(t, 1, m.Created())
	require.Equal(t, models.Location{Lat: 32.95, Lng: 13.25}, m.Markers()[0].Position)
}

func TestUpdate_DisappearedLocationFreezesMarker(t *testing.T) {
	m := New(Options{})
	m.Update(loc(32.9, 13.2), loc(32.8, 13.1))
	m.Update(loc(32.91, 13.21), nil)

	ms := m.Markers()
	require.Len(t, ms, 2)
	require.Equal(t, MarkerCustomer, ms[1].Kind)
	require.Equal(t, models.Location{Lat: 32.8, Lng: 13.1}, ms[1].Position)
}

func TestUpdate_FitsBothMarkersWithPadding(t *testing.T) {
	m := New(Options{Width: 600, Height: 300, Padding: 40})
	a, b := loc(32.8872, 13.1913), loc(32.8500, 13.3500)
	m.Update(a, b)

	z := m.Zoom()
	require.Greater(t, z, 0)
	require.Less(t, z, DefaultMaxZoom)

	ax, ay := project(*a)
	bx, by := project(*b)
	spread := func(zoom int) (float64, float64) {
		s := math.Exp2(float64(zoom))
		return math.Abs(ax-bx) * s, math.Abs(ay-by) * s
	}
	w, h := spread(z)
	require.LessOrEqual(t, w, 520.0)
	require.LessOrEqual(t, h, 220.0)
	w, h = spread(z + 1)
	require.True(t, w > 520 || h > 220, "zoom must be the largest that fits")

	c := m.Center()
	require.InDelta(t, (13.1913+13.35)/2, c.Lng, 1e-9)
	require.True(t, c.Lat > 32.85 && c.Lat < 32.8872)
}

func TestNew_DefaultPaddingMatchesExplicit(t *testing.T) {
	for i := 1; i <= 200; i++ {
		spread := float64(i) * 0.0005
		a, b := loc(32.0, 13.0), loc(32.0+spread, 13.0+spread)

		def := New(Options{})
		def.Update(a, b)
		explicit := New(Options{Padding: DefaultPadding})
		explicit.Update(a, b)
		require.Equal(t, explicit.Zoom(), def.Zoom(), "spread %v", spread)
	}

	// 0.0025 fits at 17 edge to edge but needs 16 with the default padding
	a, b := loc(32.0, 13.0), loc(32.0025, 13.0025)
	def := New(Options{})
	def.Update(a, b)
	none := New(Options{Padding: -1})
	none.Update(a, b)
	require.Equal(t, 16, def.Zoom())
	require.Equal(t, 17, none.Zoom())
}

func TestProjectRoundTrip(t *testing.T) {
	for _, l := range []models.Location{{Lat: 0, Lng: 0}, {Lat: 32.8872, Lng: 13.1913}, {Lat: -33.9, Lng: 151.2}} {
		x, y := project(l)
		got := unproject(x, y)
		require.InDelta(t, l.Lat, got.Lat, 1e-9)
		require.InDelta(t, l.Lng, got.Lng, 1e-9)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	m := New(OptionsFromConfig(config.MapConfig{}))
	require.Equal(t, DefaultTiles, m.Snapshot().Tiles)

	opts := OptionsFromConfig(config.MapConfig{Width: 800, Padding: 10, TileURL: "https://tiles.local/{z}/{x}/{y}.png", TileAttribution: "local"})
	require.Equal(t, 800, opts.Width)
	require.Equal(t, 10, opts.Padding)
	require.Equal(t, TileLayer{URLTemplate: "https://tiles.local/{z}/{x}/{y}.png", Attribution: "local"}, opts.Tiles)
}
