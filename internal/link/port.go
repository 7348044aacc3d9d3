package link

import (
	"io"

	"codeberg.org/mutker/serialstat/internal/errors"
	"go.bug.st/serial"
)

// Port is an open serial endpoint.
type Port interface {
	io.WriteCloser
}

// Opener opens and configures a serial endpoint by name.
type Opener interface {
	Open(name string) (Port, error)
}

// SerialOpener opens real serial ports at a fixed baud rate, 8N1 with no
// flow control.
type SerialOpener struct {
	Baud int
}

func (o SerialOpener) Open(name string) (Port, error) {
	mode := &serial.Mode{
		BaudRate: o.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, errors.New().Wrap(errors.ErrOpen, err)
	}

	return port, nil
}
