package main

import (
	"os"

	"github.com/rumbledethumps/ria/internal/fs"
	"github.com/rumbledethumps/ria/internal/system"
)

// stageFile copies a local file's bytes into the machine's in-memory
// flash volume under volumePath, so a fixture's "load" instruction has
// something to fast-store, without needing a real flash image.
func stageFile(m *system.Machine, volumePath, localPath string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	f, err := m.Volume.Open(volumePath, fs.OpenWrite|fs.OpenCreateAlways)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(data)
	return err
}
