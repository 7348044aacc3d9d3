package sensors

import (
	"math"
	"testing"

	"codeberg.org/mutker/serialstat/internal/frame"
	"github.com/distatus/battery"
	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name  string
		raw   battery.AgnosticState
		state frame.ChargeState
	}{
		{"charging", battery.Charging, frame.Charging},
		{"discharging", battery.Discharging, frame.Discharging},
		{"full", battery.Full, frame.Discharging},
		{"idle", battery.Idle, frame.Discharging},
		{"empty", battery.Empty, frame.Discharging},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := statusOf(&battery.Battery{State: battery.State{Raw: tt.raw}, Current: 30, Full: 40})
			assert.Equal(t, tt.state, got.State)
			assert.InDelta(t, 75, got.Charge, 0.001)
		})
	}

	unknown := statusOf(&battery.Battery{State: battery.State{Raw: battery.Charging}})
	assert.True(t, math.IsNaN(unknown.Charge), "no full capacity reported")
}

func TestMediaFrom(t *testing.T) {
	fields := map[string]dbus.Variant{
		metadataTitle:  dbus.MakeVariant("Sinnerman"),
		metadataArtist: dbus.MakeVariant([]string{"Nina Simone", "Trio"}),
	}

	media, ok := mediaFrom(dbus.MakeVariant(statusPlaying), fields)
	require.True(t, ok)
	assert.Equal(t, frame.Playing, media.State)
	assert.Equal(t, "Sinnerman", media.Title)
	assert.Equal(t, "Nina Simone, Trio", media.Artist)

	fields = map[string]dbus.Variant{
		metadataArtist:      dbus.MakeVariant([]string{}),
		metadataAlbumArtist: dbus.MakeVariant("Various"),
	}
	media, ok = mediaFrom(dbus.MakeVariant(statusPaused), fields)
	require.True(t, ok)
	assert.Equal(t, frame.Paused, media.State)
	assert.Equal(t, "Various", media.Artist)
	assert.Empty(t, media.Title)

	media, ok = mediaFrom(dbus.MakeVariant(statusPaused), nil)
	require.True(t, ok, "metadata is optional")
	assert.Empty(t, media.Artist)

	_, ok = mediaFrom(dbus.MakeVariant("Stopped"), fields)
	assert.False(t, ok)

	_, ok = mediaFrom(dbus.MakeVariant(uint32(1)), fields)
	assert.False(t, ok)
}
