package fs

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ConfigFilename is the boot configuration's file name on the volume
// (original_source/src/mon/cfg.c: "CONFIG.SYS").
const ConfigFilename = "CONFIG.SYS"

// Config is the parsed line-oriented configuration file: one
// `<key><value>\n` pair per line (spec.md §3 "configuration files use
// line-oriented ASCII (<key><value>\n)"), e.g. "+V1" (version),
// "+P8000" (PHI2 kHz), "+C0" (caps), "+R0" (RESB ms), "+S437" (code
// page), with a trailing boot-ROM name line that has no key prefix.
type Config struct {
	Version  int
	Phi2KHz  uint32
	Caps     bool
	ResetMS  uint8
	CodePage int
	BootROM  string
}

// DefaultConfig matches a freshly formatted volume.
func DefaultConfig() Config {
	return Config{Version: 1, Phi2KHz: 4000, CodePage: 437}
}

// ParseConfig reads a CONFIG.SYS-shaped stream. Unrecognized lines are
// ignored rather than treated as an error, since the format is meant
// to tolerate additions across firmware versions.
func ParseConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		if line[0] != '+' {
			cfg.BootROM = line
			continue
		}
		if len(line) < 2 {
			continue
		}
		key, val := line[1], line[2:]
		switch key {
		case 'V':
			fmt.Sscanf(val, "%d", &cfg.Version)
		case 'P':
			fmt.Sscanf(val, "%d", &cfg.Phi2KHz)
		case 'C':
			cfg.Caps = val != "0"
		case 'R':
			var ms int
			fmt.Sscanf(val, "%d", &ms)
			cfg.ResetMS = uint8(ms)
		case 'S':
			fmt.Sscanf(val, "%d", &cfg.CodePage)
		}
	}
	return cfg, sc.Err()
}

// WriteConfig renders cfg back to CONFIG.SYS's line format.
func WriteConfig(w io.Writer, cfg Config) error {
	lines := []string{
		fmt.Sprintf("+V%d", cfg.Version),
		fmt.Sprintf("+P%d", cfg.Phi2KHz),
	}
	if cfg.Caps {
		lines = append(lines, "+C1")
	} else {
		lines = append(lines, "+C0")
	}
	lines = append(lines, fmt.Sprintf("+R%d", cfg.ResetMS))
	lines = append(lines, fmt.Sprintf("+S%d", cfg.CodePage))
	if cfg.BootROM != "" {
		lines = append(lines, cfg.BootROM)
	}
	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

// LoadConfig reads CONFIG.SYS from v, returning DefaultConfig if it
// does not yet exist (first boot).
func LoadConfig(v Volume) (Config, error) {
	f, err := v.Open(ConfigFilename, OpenRead)
	if err != nil {
		if err == ErrNotExist {
			return DefaultConfig(), nil
		}
		return Config{}, err
	}
	defer f.Close()
	return ParseConfig(f)
}

// SaveConfig writes cfg to CONFIG.SYS, truncating any prior contents.
func SaveConfig(v Volume, cfg Config) error {
	f, err := v.Open(ConfigFilename, OpenWrite|OpenCreateAlways)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteConfig(f, cfg)
}
