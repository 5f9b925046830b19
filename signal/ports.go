package signal

import (
	"sort"

	"go.bug.st/serial"
)

// SerialPorts lists the serial devices that can feed samples, sorted by
// name.
func SerialPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, err
	}

	sort.Strings(ports)

	return ports, nil
}
