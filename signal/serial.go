package signal

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

// ReaderSource reads little-endian 16-bit samples from a byte stream, such as
// the serial link of an analog front end.
type ReaderSource struct {
	r   io.Reader
	buf [SampleSize]byte
}

// NewReaderSource creates a source reading from r.
func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{r: r}
}

// Next blocks until a whole sample has been read.
func (s *ReaderSource) Next() (Sample, error) {
	if _, err := io.ReadFull(s.r, s.buf[:]); err != nil {
		return 0, err
	}

	return Sample(binary.LittleEndian.Uint16(s.buf[:])), nil
}

// SerialSource is a ReaderSource over a serial port.
type SerialSource struct {
	*ReaderSource

	port *serial.Port
}

// OpenSerial opens the serial device. A zero readTimeout blocks forever.
func OpenSerial(
	device string,
	baud int,
	readTimeout time.Duration,
) (*SerialSource, error) {
	c := &serial.Config{
		Name:        device,
		Baud:        baud,
		ReadTimeout: readTimeout,
	}

	p, err := serial.OpenPort(c)
	if err != nil {
		return nil, fmt.Errorf("serial open %s: %w", device, err)
	}

	return &SerialSource{
		ReaderSource: NewReaderSource(p),
		port:         p,
	}, nil
}

// Close closes the serial port.
func (s *SerialSource) Close() error {
	if s.port == nil {
		return nil
	}

	return s.port.Close()
}
