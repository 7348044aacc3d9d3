package device

import (
	"strings"

	"codeberg.org/mutker/serialstat/internal/errors"
	"go.bug.st/serial/enumerator"
)

// SerialEnumerator lists ports through the operating system's serial
// port registry.
type SerialEnumerator struct{}

func (SerialEnumerator) List() ([]Endpoint, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, errors.New().Wrap(errors.ErrDiscovery, err)
	}

	endpoints := make([]Endpoint, 0, len(ports))
	for _, p := range ports {
		endpoints = append(endpoints, Endpoint{
			Name:         p.Name,
			IsUSB:        p.IsUSB,
			VID:          strings.ToUpper(p.VID),
			PID:          strings.ToUpper(p.PID),
			SerialNumber: p.SerialNumber,
		})
	}

	return endpoints, nil
}
