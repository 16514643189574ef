package trackview

import (
	"fmt"
	"io"
	"strconv"
)

// RenderText writes the view state for a terminal.
func RenderText(w io.Writer, st State) error {
	p := &printer{w: w}
	switch {
	case st.Loading:
		p.line("Searching %s ...", st.Input)
	case st.Error != "":
		p.line("! %s", st.Error)
	}
	if st.Card != nil {
		c := st.Card
		live := ""
		if c.LiveTracking {
			live = "  [LIVE TRACKING]"
		}
		p.line("Shipment %s  %s%s", c.Code, c.StatusLabel, live)
		p.line("  Product:       %s x%d", c.Product, c.Quantity)
		p.line("  Price:         %s", c.Price)
		p.line("  Receiver:      %s", c.ReceiverName)
		p.line("  Phone:         %s", c.Phone)
		p.line("  Address:       %s", c.Address)
		p.line("  Last location: %s", c.LastLocation)
	}
	if st.Map != nil {
		p.line("  Map: center %s, zoom %d", latLng(st.Map.Center.Lat, st.Map.Center.Lng), st.Map.Zoom)
		for _, m := range st.Map.Markers {
			p.line("    %-8s %s", m.Kind, latLng(m.Position.Lat, m.Position.Lng))
		}
		p.line("  %s", st.Map.Tiles.Attribution)
	}
	return p.err
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}

func latLng(lat, lng float64) string {
	return strconv.FormatFloat(lat, 'f', 5, 64) + "," + strconv.FormatFloat(lng, 'f', 5, 64)
}
