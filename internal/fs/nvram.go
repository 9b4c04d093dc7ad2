package fs

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// BootCountFilename holds a fixed-size binary boot counter
// (original_source/src/dev/lfs.c lfs_init: "boot_count").
const BootCountFilename = "BOOT.CNT"

// ReadBootCount reads the persisted boot counter, returning 0 if the
// file does not yet exist.
func ReadBootCount(v Volume) (uint32, error) {
	f, err := v.Open(BootCountFilename, OpenRead)
	if err != nil {
		if err == ErrNotExist {
			return 0, nil
		}
		return 0, err
	}
	defer f.Close()
	var n uint32
	if err := binary.Read(f, binary.LittleEndian, &n); err != nil && err != io.EOF {
		return 0, err
	}
	return n, nil
}

// IncrementBootCount reads, increments, and persists the boot counter,
// matching lfs_init's read-modify-write-close sequence, and returns the
// new value.
func IncrementBootCount(v Volume) (uint32, error) {
	n, err := ReadBootCount(v)
	if err != nil {
		return 0, err
	}
	n++
	f, err := v.Open(BootCountFilename, OpenWrite|OpenCreateAlways)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	if err := binary.Write(f, binary.LittleEndian, n); err != nil {
		return 0, err
	}
	return n, nil
}

// ModemSettingsFilename holds persisted modem/NVRAM settings
// (original_source/src/ria/net/nvr.c: "MODEM0.SYS").
const ModemSettingsFilename = "MODEM0.SYS"

// ModemSettings mirrors nvr.c's nvr_settings_t, minus the
// never-persisted s_pointer field.
type ModemSettings struct {
	Echo       bool
	Quiet      bool
	Verbose    bool
	AutoAnswer uint8
	EscChar    byte
	CRChar     byte
	LFChar     byte
	BSChar     byte
}

// FactoryModemSettings matches nvr_factory_reset.
func FactoryModemSettings() ModemSettings {
	return ModemSettings{
		Echo: true, Quiet: false, Verbose: true,
		AutoAnswer: 0, EscChar: '+', CRChar: '\r', LFChar: '\n', BSChar: '\b',
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// WriteModemSettings persists s as a line-oriented ASCII file, matching
// nvr_write's lfs_printf format exactly.
func WriteModemSettings(v Volume, s ModemSettings) error {
	f, err := v.Open(ModemSettingsFilename, OpenWrite|OpenCreateAlways)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintf(f,
		"E%d\nQ%d\nV%d\nS0=%d\nS2=%d\nS3=%d\nS4=%d\nS5=%d\n",
		boolToInt(s.Echo), boolToInt(s.Quiet), boolToInt(s.Verbose),
		s.AutoAnswer, s.EscChar, s.CRChar, s.LFChar, s.BSChar)
	return err
}

// ReadModemSettings parses the line format WriteModemSettings produces,
// falling back to FactoryModemSettings for any field not present.
func ReadModemSettings(v Volume) (ModemSettings, error) {
	f, err := v.Open(ModemSettingsFilename, OpenRead)
	if err != nil {
		if err == ErrNotExist {
			return FactoryModemSettings(), nil
		}
		return ModemSettings{}, err
	}
	defer f.Close()

	data := new(bytes.Buffer)
	if _, err := data.ReadFrom(f); err != nil {
		return ModemSettings{}, err
	}

	s := FactoryModemSettings()
	for _, line := range bytes.Split(data.Bytes(), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var iv int
		switch {
		case line[0] == 'E':
			fmt.Sscanf(string(line[1:]), "%d", &iv)
			s.Echo = iv != 0
		case line[0] == 'Q':
			fmt.Sscanf(string(line[1:]), "%d", &iv)
			s.Quiet = iv != 0
		case line[0] == 'V':
			fmt.Sscanf(string(line[1:]), "%d", &iv)
			s.Verbose = iv != 0
		case bytes.HasPrefix(line, []byte("S0=")):
			fmt.Sscanf(string(line[3:]), "%d", &iv)
			s.AutoAnswer = uint8(iv)
		case bytes.HasPrefix(line, []byte("S2=")):
			fmt.Sscanf(string(line[3:]), "%d", &iv)
			s.EscChar = byte(iv)
		case bytes.HasPrefix(line, []byte("S3=")):
			fmt.Sscanf(string(line[3:]), "%d", &iv)
			s.CRChar = byte(iv)
		case bytes.HasPrefix(line, []byte("S4=")):
			fmt.Sscanf(string(line[3:]), "%d", &iv)
			s.LFChar = byte(iv)
		case bytes.HasPrefix(line, []byte("S5=")):
			fmt.Sscanf(string(line[3:]), "%d", &iv)
			s.BSChar = byte(iv)
		}
	}
	return s, nil
}
