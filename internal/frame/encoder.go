package frame

// Encoder turns snapshots into frames using a fixed glyph set.
type Encoder struct {
	glyphs Glyphs
}

func NewEncoder(g Glyphs) *Encoder {
	return &Encoder{glyphs: g}
}

// Encode renders the snapshot's line template.
func (e *Encoder) Encode(s Snapshot) Frame {
	top, bottom := s.rows(e.glyphs)

	return Frame{Top: top, Bottom: bottom}
}

// Unavailable is sent when not even the default screen could be read.
func (e *Encoder) Unavailable() Frame {
	return Frame{Top: Placeholder, Bottom: Placeholder}
}
