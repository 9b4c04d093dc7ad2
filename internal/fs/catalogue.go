package fs

// InstallROM validates name against RomNamePattern and stores data
// under it, matching spec.md §3's catalogue naming rule ("files named
// A-Z[A-Z0-9]{0..N}").
func InstallROM(v Volume, name string, data []byte) error {
	if !RomNamePattern.MatchString(name) {
		return ErrNoExec
	}
	f, err := v.Open(name, OpenWrite|OpenCreateAlways)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(data)
	return err
}

// LoadROM reads back a previously installed ROM image, failing with
// ErrNoExec if name does not match the catalogue naming rule (so a
// caller can't load an arbitrary config/NVRAM file as a ROM).
func LoadROM(v Volume, name string) ([]byte, error) {
	if !RomNamePattern.MatchString(name) {
		return nil, ErrNoExec
	}
	f, err := v.Open(name, OpenRead)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	for {
		n, err := f.Read(chunk)
		buf = append(buf, chunk[:n]...)
		if err != nil {
			break
		}
	}
	return buf, nil
}

// ListROMs returns the names on v that match the catalogue naming
// rule, excluding configuration and settings files.
func ListROMs(v Volume) []string {
	var roms []string
	for _, name := range v.List() {
		if RomNamePattern.MatchString(name) {
			roms = append(roms, name)
		}
	}
	return roms
}
