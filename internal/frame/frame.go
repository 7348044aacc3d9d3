// Package frame encodes metric snapshots into the two-line text frames
// understood by the display device.
package frame

import "strings"

const (
	// Separator joins the two display rows on the wire
	Separator = ";"
	// Terminator ends every frame on the wire
	Terminator = "\n"
	// Placeholder replaces values that cannot be computed
	Placeholder = "--"
)

// Frame is one complete unit sent per tick: exactly two display rows.
type Frame struct {
	Top    string
	Bottom string
}

// String returns the rows joined by the separator, without terminator.
func (f Frame) String() string {
	return f.Top + Separator + f.Bottom
}

// Bytes returns the wire encoding of the frame.
func (f Frame) Bytes() []byte {
	return []byte(f.String() + Terminator)
}

// Glyphs are the device-specific symbols used in the line templates.
type Glyphs struct {
	Charging    string
	Discharging string
	Mains       string
	Degree      string
	Playing     string
	Paused      string
}

// DefaultGlyphs matches the character set of the reference display firmware.
func DefaultGlyphs() Glyphs {
	return Glyphs{
		Charging:    "`",
		Discharging: "&",
		Mains:       "~",
		Degree:      "^C",
		Playing:     ">",
		Paused:      "=",
	}
}

var textReplacer = strings.NewReplacer(Separator, ",", "\r", " ", "\n", " ")

// sanitize keeps free text from breaking the row and frame boundaries.
func sanitize(s string) string {
	return strings.TrimSpace(textReplacer.Replace(s))
}
