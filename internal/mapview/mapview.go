package mapview

import (
	"math"

	"github.com/BearBump/LogiTrack/config"
	"github.com/BearBump/LogiTrack/internal/models"
)

// Tripoli. Used until the first location arrives.
var DefaultCenter = models.Location{Lat: 32.8872, Lng: 13.1913}

const (
	DefaultZoom    = 12
	DefaultMaxZoom = 18
	DefaultPadding = 40
	DefaultWidth   = 600
	DefaultHeight  = 300

	tileSize    = 256
	maxLatitude = 85.0511287798
)

type TileLayer struct {
	URLTemplate string `json:"urlTemplate"`
	Attribution string `json:"attribution"`
}

var DefaultTiles = TileLayer{
	URLTemplate: "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
	Attribution: "© OpenStreetMap",
}

type MarkerKind string

const (
	MarkerDriver   MarkerKind = "driver"
	MarkerCustomer MarkerKind = "customer"
)

type Marker struct {
	Kind     MarkerKind      `json:"kind"`
	Color    string          `json:"color"`
	Position models.Location `json:"position"`
}

var markerColors = map[MarkerKind]string{
	MarkerDriver:   "blue",
	MarkerCustomer: "red",
}

type Options struct {
	Width  int
	Height int
	// Padding is kept clear around the fitted markers. 0 means DefaultPadding, negative means none.
	Padding int
	MaxZoom int
	Tiles   TileLayer
}

// Map keeps at most one marker per kind. Markers are created on first sight, moved
// afterwards and never removed: if a location disappears its marker stays where it was.
type Map struct {
	opts    Options
	center  models.Location
	zoom    int
	markers map[MarkerKind]*Marker
	created int
}

// OptionsFromConfig maps the map section of the config file. Zero values fall back to defaults in New.
func OptionsFromConfig(c config.MapConfig) Options {
	opts := Options{
		Width:   c.Width,
		Height:  c.Height,
		Padding: c.Padding,
		MaxZoom: c.MaxZoom,
	}
	if c.TileURL != "" {
		opts.Tiles = TileLayer{URLTemplate: c.TileURL, Attribution: c.TileAttribution}
	}
	return opts
}

func New(opts Options) *Map {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	switch {
	case opts.Padding == 0:
		opts.Padding = DefaultPadding
	case opts.Padding < 0:
		opts.Padding = 0
	}
	if opts.MaxZoom <= 0 {
		opts.MaxZoom = DefaultMaxZoom
	}
	if opts.Tiles.URLTemplate == "" {
		opts.Tiles = DefaultTiles
	}
	return &Map{
		opts:    opts,
		center:  DefaultCenter,
		zoom:    DefaultZoom,
		markers: make(map[MarkerKind]*Marker, 2),
	}
}

func (m *Map) Update(driver, customer *models.Location) {
	m.place(MarkerDriver, driver)
	m.place(MarkerCustomer, customer)
	if driver == nil && customer == nil {
		return
	}
	m.fit()
}

func (m *Map) place(kind MarkerKind, loc *models.Location) {
	if loc == nil {
		return
	}
	if mk, ok := m.markers[kind]; ok {
		mk.Position = *loc
		return
	}
	m.markers[kind] = &Marker{Kind: kind, Color: markerColors[kind], Position: *loc}
	m.created++
}

// fit подбирает центр и максимальный целый zoom, при котором все маркеры влезают с отступом.
func (m *Map) fit() {
	ms := m.Markers()
	if len(ms) == 0 {
		return
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, mk := range ms {
		x, y := project(mk.Position)
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}

	availW := float64(m.opts.Width - 2*m.opts.Padding)
	availH := float64(m.opts.Height - 2*m.opts.Padding)
	zoom := m.opts.MaxZoom
	for zoom > 0 {
		scale := math.Exp2(float64(zoom))
		if (maxX-minX)*scale <= availW && (maxY-minY)*scale <= availH {
			break
		}
		zoom--
	}

	m.zoom = zoom
	m.center = unproject((minX+maxX)/2, (minY+maxY)/2)
}

// project returns Web Mercator pixel coordinates at zoom 0.
func project(l models.Location) (float64, float64) {
	lat := math.Max(-maxLatitude, math.Min(maxLatitude, l.Lat))
	x := (l.Lng + 180) / 360 * tileSize
	sin := math.Sin(lat * math.Pi / 180)
	y := (0.5 - math.Log((1+sin)/(1-sin))/(4*math.Pi)) * tileSize
	return x, y
}

func unproject(x, y float64) models.Location {
	lng := x/tileSize*360 - 180
	n := math.Pi - 2*math.Pi*y/tileSize
	lat := 180 / math.Pi * math.Atan(math.Sinh(n))
	return models.Location{Lat: lat, Lng: lng}
}

// Markers returns the markers in a stable order: driver first.
func (m *Map) Markers() []Marker {
	out := make([]Marker, 0, len(m.markers))
	for _, k := range []MarkerKind{MarkerDriver, MarkerCustomer} {
		if mk, ok := m.markers[k]; ok {
			out = append(out, *mk)
		}
	}
	return out
}

func (m *Map) Center() models.Location {
	return m.center
}

func (m *Map) Zoom() int {
	return m.zoom
}

// Created counts marker creations over the map lifetime.
func (m *Map) Created() int {
	return m.created
}

type State struct {
	Center  models.Location `json:"center"`
	Zoom    int             `json:"zoom"`
	Tiles   TileLayer       `json:"tiles"`
	Markers []Marker        `json:"markers"`
}

func (m *Map) Snapshot() State {
	return State{
		Center:  m.center,
		Zoom:    m.zoom,
		Tiles:   m.opts.Tiles,
		Markers: m.Markers(),
	}
}
