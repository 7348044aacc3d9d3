package sensors

import (
	"strings"
	"sync"

	"codeberg.org/mutker/serialstat/internal/errors"
	"codeberg.org/mutker/serialstat/internal/frame"
	"github.com/godbus/dbus/v5"
)

const (
	mprisPrefix         = "org.mpris.MediaPlayer2."
	mprisPath           = "/org/mpris/MediaPlayer2"
	mprisStatus         = "org.mpris.MediaPlayer2.Player.PlaybackStatus"
	mprisMetadata       = "org.mpris.MediaPlayer2.Player.Metadata"
	dbusListNames       = "org.freedesktop.DBus.ListNames"
	statusPlaying       = "Playing"
	statusPaused        = "Paused"
	metadataArtist      = "xesam:artist"
	metadataAlbumArtist = "xesam:albumArtist"
	metadataTitle       = "xesam:title"
)

// Media is the state of one media player session.
type Media struct {
	State  frame.PlaybackState
	Artist string
	Title  string
}

// MPRIS reads media players over the D-Bus session bus.
type MPRIS struct {
	mu   sync.Mutex
	conn *dbus.Conn
}

func NewMPRIS() *MPRIS {
	return &MPRIS{}
}

// HasSession reports whether any player is playing or paused.
func (m *MPRIS) HasSession() bool {
	media, err := m.ActiveMedia()
	return err == nil && media != nil
}

// ActiveMedia returns the first playing session, else the first paused
// one, else nil.
func (m *MPRIS) ActiveMedia() (*Media, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, err := m.connect()
	if err != nil {
		return nil, err
	}

	var names []string
	if err := conn.BusObject().Call(dbusListNames, 0).Store(&names); err != nil {
		m.reset()
		return nil, errors.New().Wrap(ErrMediaReadFailed, err)
	}

	var paused *Media
	for _, name := range names {
		if !strings.HasPrefix(name, mprisPrefix) {
			continue
		}

		media, ok := readPlayer(conn, name)
		if !ok {
			continue
		}
		if media.State == frame.Playing {
			return media, nil
		}
		if paused == nil && media.State == frame.Paused {
			paused = media
		}
	}

	return paused, nil
}

// Close releases the session bus connection.
func (m *MPRIS) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn == nil {
		return nil
	}
	err := m.conn.Close()
	m.conn = nil

	return err
}

func (m *MPRIS) connect() (*dbus.Conn, error) {
	if m.conn != nil && m.conn.Connected() {
		return m.conn, nil
	}

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, errors.New().Wrap(ErrMediaReadFailed, err)
	}
	m.conn = conn

	return conn, nil
}

func (m *MPRIS) reset() {
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
}

func readPlayer(conn *dbus.Conn, name string) (*Media, bool) {
	obj := conn.Object(name, dbus.ObjectPath(mprisPath))

	status, err := obj.GetProperty(mprisStatus)
	if err != nil {
		return nil, false
	}

	var fields map[string]dbus.Variant
	if meta, err := obj.GetProperty(mprisMetadata); err == nil {
		fields, _ = meta.Value().(map[string]dbus.Variant)
	}

	return mediaFrom(status, fields)
}

// mediaFrom maps a player's status and metadata properties. Stopped or
// unknown players yield false.
func mediaFrom(status dbus.Variant, fields map[string]dbus.Variant) (*Media, bool) {
	media := &Media{}
	switch variantString(status) {
	case statusPlaying:
		media.State = frame.Playing
	case statusPaused:
		media.State = frame.Paused
	default:
		return nil, false
	}

	media.Title = variantString(fields[metadataTitle])
	media.Artist = variantString(fields[metadataArtist])
	if media.Artist == "" {
		media.Artist = variantString(fields[metadataAlbumArtist])
	}

	return media, true
}

// variantString reads a string or joins a string list.
func variantString(v dbus.Variant) string {
	switch val := v.Value().(type) {
	case string:
		return val
	case []string:
		if len(val) > 0 {
			return strings.Join(val, ", ")
		}
	}

	return ""
}
