package trackview

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BearBump/LogiTrack/internal/mapview"
	"github.com/BearBump/LogiTrack/internal/services/lookup"
)

func TestRenderText(t *testing.T) {
	f := newFinder()
	f.set("LY-1001", answer{order: outForDelivery()})
	f.set("LY-9999", answer{err: lookup.ErrNotFound})
	v := New("v1", f, mapview.Options{})

	require.NoError(t, v.Search(context.Background(), "LY-1001"))
	var buf bytes.Buffer
	require.NoError(t, RenderText(&buf, v.State()))
	out := buf.String()
	require.Contains(t, out, "Shipment LY-1001  Out for Delivery  [LIVE TRACKING]")
	require.Contains(t, out, "Price:         150 LYD")
	require.Contains(t, out, "Phone:         ---")
	require.Contains(t, out, "driver   32.00000,13.00000")
	require.Contains(t, out, "customer 32.10000,13.10000")
	require.Contains(t, out, "© OpenStreetMap")

	require.ErrorIs(t, v.Search(context.Background(), "LY-9999"), lookup.ErrNotFound)
	buf.Reset()
	require.NoError(t, RenderText(&buf, v.State()))
	require.Equal(t, "! Shipment not found.\n", buf.String())
}
