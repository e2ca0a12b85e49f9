package pms5003

import (
	"bufio"
	"bytes"
	"errors"
	"testing"
)

// buildFrame assembles a wire frame from 13 data words, computing the
// checksum unless a corrupt one is requested.
func buildFrame(words [13]uint16, corruptChecksum bool) []byte {
	frame := []byte{frameStart1, frameStart2, 0x00, frameDataLen}
	for _, w := range words {
		frame = append(frame, byte(w>>8), byte(w))
	}

	var sum uint16
	for _, b := range frame {
		sum += uint16(b)
	}
	if corruptChecksum {
		sum ^= 0xFFFF
	}
	return append(frame, byte(sum>>8), byte(sum))
}

func deviceFor(stream []byte) *Device {
	return &Device{r: bufio.NewReader(bytes.NewReader(stream))}
}

var fixtureWords = [13]uint16{
	4, 9, 12, // pm1/pm2.5/pm10 CF=1
	3, 8, 11, // atmospheric
	660, 180, 40, 6, 2, 1, // counts per 0.1L
	0, // reserved
}

func TestReadDecodesFrame(t *testing.T) {
	d := deviceFor(buildFrame(fixtureWords, false))

	s, err := d.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if s.PM1 != 4 || s.PM25 != 9 || s.PM10 != 12 {
		t.Errorf("mass concentrations: got %d/%d/%d, want 4/9/12", s.PM1, s.PM25, s.PM10)
	}
	if s.PM1Atm != 3 || s.PM25Atm != 8 || s.PM10Atm != 11 {
		t.Errorf("atmospheric: got %d/%d/%d, want 3/8/11", s.PM1Atm, s.PM25Atm, s.PM10Atm)
	}
	if s.Count03um != 660 || s.Count05um != 180 || s.Count10um != 40 {
		t.Errorf("small counts: got %d/%d/%d", s.Count03um, s.Count05um, s.Count10um)
	}
	if s.Count25um != 6 || s.Count50um != 2 || s.Count100um != 1 {
		t.Errorf("large counts: got %d/%d/%d", s.Count25um, s.Count50um, s.Count100um)
	}
}

func TestReadSyncsPastGarbage(t *testing.T) {
	stream := append([]byte{0x00, 0x42, 0x00, 0x17}, buildFrame(fixtureWords, false)...)
	d := deviceFor(stream)

	s, err := d.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if s.PM25 != 9 {
		t.Errorf("pm2.5: got %d, want 9", s.PM25)
	}
}

func TestReadSyncsOnRepeatedStartByte(t *testing.T) {
	// A stray 0x42 right before the frame: the second 0x42 is the real
	// marker and must not be thrown away during sync.
	stream := append([]byte{frameStart1}, buildFrame(fixtureWords, false)...)
	d := deviceFor(stream)

	s, err := d.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if s.PM25 != 9 {
		t.Errorf("pm2.5: got %d, want 9", s.PM25)
	}
}

func TestReadChecksumMismatch(t *testing.T) {
	d := deviceFor(buildFrame(fixtureWords, true))

	_, err := d.Read()
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("error: got %v, want ErrChecksumMismatch", err)
	}
	if !IsFault(err) {
		t.Error("checksum mismatch not classified as declared fault")
	}
}

func TestReadBadFrameLength(t *testing.T) {
	frame := buildFrame(fixtureWords, false)
	frame[3] = 0x20 // claim 32 data bytes

	_, err := deviceFor(frame).Read()
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("error: got %v, want ErrChecksumMismatch", err)
	}
}

func TestReadTimeoutOnEndlessGarbage(t *testing.T) {
	d := deviceFor(bytes.Repeat([]byte{0x00}, maxSyncBytes+8))

	_, err := d.Read()
	if !errors.Is(err, ErrReadTimeout) {
		t.Fatalf("error: got %v, want ErrReadTimeout", err)
	}
	if !IsFault(err) {
		t.Error("read timeout not classified as declared fault")
	}
}

func TestReadSerialTimeoutOnStall(t *testing.T) {
	// Stream ends mid-frame: the port stalled.
	frame := buildFrame(fixtureWords, false)
	d := deviceFor(frame[:10])

	_, err := d.Read()
	if !errors.Is(err, ErrSerialTimeout) {
		t.Fatalf("error: got %v, want ErrSerialTimeout", err)
	}
	if !IsFault(err) {
		t.Error("serial timeout not classified as declared fault")
	}
}

func TestIsFaultRejectsGenericErrors(t *testing.T) {
	if IsFault(errors.New("i2c bus stuck")) {
		t.Error("generic error classified as declared fault")
	}
	if IsFault(nil) {
		t.Error("nil classified as declared fault")
	}
}
