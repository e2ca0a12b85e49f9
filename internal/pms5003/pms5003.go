// Package pms5003 drives the Plantower PMS5003 particulate matter sensor
// over its serial link and exposes the fault conditions that require a
// connection reset.
package pms5003

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	serial "github.com/jacobsa/go-serial/serial"
)

// Declared fault taxonomy. Any of these means the current measurement is
// unusable and the serial connection should be reset before the next read.
var (
	ErrReadTimeout      = errors.New("pms5003: read timeout waiting for frame")
	ErrChecksumMismatch = errors.New("pms5003: checksum mismatch")
	ErrSerialTimeout    = errors.New("pms5003: serial timeout")
)

// IsFault reports whether err is one of the declared sensor faults.
func IsFault(err error) bool {
	return errors.Is(err, ErrReadTimeout) ||
		errors.Is(err, ErrChecksumMismatch) ||
		errors.Is(err, ErrSerialTimeout)
}

const (
	frameStart1 = 0x42
	frameStart2 = 0x4D

	// 13 big-endian data words plus the checksum word.
	frameDataLen = 28

	// Bytes to scan for a start-of-frame marker before giving up.
	maxSyncBytes = 64
)

// Sample is one decoded measurement frame. Mass concentrations are µg/m³
// (CF=1 and atmospheric-environment variants), counts are particles per
// 0.1L of air above each size threshold. All values are unsigned on the
// wire, so fields are non-negative by construction.
type Sample struct {
	PM1  uint16
	PM25 uint16
	PM10 uint16

	PM1Atm  uint16
	PM25Atm uint16
	PM10Atm uint16

	Count03um  uint16
	Count05um  uint16
	Count10um  uint16
	Count25um  uint16
	Count50um  uint16
	Count100um uint16
}

// Device is an open PMS5003 serial connection.
type Device struct {
	opts serial.OpenOptions
	port io.ReadWriteCloser
	r    *bufio.Reader
}

// Open opens the sensor's serial port. The PMS5003 streams frames
// continuously at 9600 baud in its default active mode.
func Open(portName string, baudRate uint) (*Device, error) {
	d := &Device{
		opts: serial.OpenOptions{
			PortName:              portName,
			BaudRate:              baudRate,
			DataBits:              8,
			StopBits:              1,
			ParityMode:            serial.PARITY_NONE,
			MinimumReadSize:       0,
			InterCharacterTimeout: 5000,
		},
	}
	if err := d.reopen(); err != nil {
		return nil, fmt.Errorf("pms5003 open: %w", err)
	}
	return d, nil
}

// Reset re-establishes the serial connection in place after a declared
// fault. The device itself keeps streaming; reopening the port discards
// whatever partial frame caused the desync.
func (d *Device) Reset() error {
	if err := d.reopen(); err != nil {
		return fmt.Errorf("pms5003 reset: %w", err)
	}
	return nil
}

func (d *Device) reopen() error {
	if d.port != nil {
		d.port.Close()
		d.port = nil
	}
	port, err := serial.Open(d.opts)
	if err != nil {
		return err
	}
	d.port = port
	d.r = bufio.NewReader(port)
	return nil
}

// Close releases the serial port.
func (d *Device) Close() error {
	if d.port == nil {
		return nil
	}
	err := d.port.Close()
	d.port = nil
	return err
}

// Read blocks until one full frame is received and decoded.
func (d *Device) Read() (Sample, error) {
	if err := d.sync(); err != nil {
		return Sample{}, err
	}

	var header [2]byte
	if err := d.readFull(header[:]); err != nil {
		return Sample{}, err
	}
	frameLen := binary.BigEndian.Uint16(header[:])
	if frameLen != frameDataLen {
		return Sample{}, fmt.Errorf("%w: frame length %d", ErrChecksumMismatch, frameLen)
	}

	data := make([]byte, frameDataLen)
	if err := d.readFull(data); err != nil {
		return Sample{}, err
	}

	sum := uint16(frameStart1) + uint16(frameStart2) + uint16(header[0]) + uint16(header[1])
	for _, b := range data[:frameDataLen-2] {
		sum += uint16(b)
	}
	if got := binary.BigEndian.Uint16(data[frameDataLen-2:]); got != sum {
		return Sample{}, fmt.Errorf("%w: got 0x%04X want 0x%04X", ErrChecksumMismatch, got, sum)
	}

	return decode(data), nil
}

// sync scans the byte stream for the two-byte start-of-frame marker.
func (d *Device) sync() error {
	b, err := d.readByte()
	if err != nil {
		return err
	}

	for scanned := 1; ; scanned++ {
		if scanned > maxSyncBytes {
			return ErrReadTimeout
		}
		if b != frameStart1 {
			if b, err = d.readByte(); err != nil {
				return err
			}
			continue
		}

		next, err := d.readByte()
		if err != nil {
			return err
		}
		if next == frameStart2 {
			return nil
		}
		// The byte after a false start may itself open the marker.
		b = next
	}
}

func (d *Device) readByte() (byte, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return 0, serialErr(err)
	}
	return b, nil
}

func (d *Device) readFull(buf []byte) error {
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return serialErr(err)
	}
	return nil
}

// serialErr folds port-level stalls into the declared serial timeout fault.
func serialErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.ErrNoProgress) {
		return fmt.Errorf("%w: %v", ErrSerialTimeout, err)
	}
	return fmt.Errorf("pms5003 read: %w", err)
}

func decode(data []byte) Sample {
	word := func(i int) uint16 {
		return binary.BigEndian.Uint16(data[2*i:])
	}
	return Sample{
		PM1:  word(0),
		PM25: word(1),
		PM10: word(2),

		PM1Atm:  word(3),
		PM25Atm: word(4),
		PM10Atm: word(5),

		Count03um:  word(6),
		Count05um:  word(7),
		Count10um:  word(8),
		Count25um:  word(9),
		Count50um:  word(10),
		Count100um: word(11),
	}
}
