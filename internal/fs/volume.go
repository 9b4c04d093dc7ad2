// Package fs implements the flash key-value store (spec.md §3 "Flash
// layout"): configuration files, installed ROM images, and persisted
// modem/NVRAM settings, all addressed by name on one little-filesystem
// volume. The real volume lives in flash on-device
// (original_source/src/dev/lfs.c); this port models it behind a
// Volume/File interface the way the teacher's internal/cart package
// modeled cartridge banking behind a Cartridge interface with a
// factory choosing the concrete implementation — here there is one
// concrete backend (Memory), but the same seam lets a future
// `//go:build hardware` implementation bind real NOR flash without
// touching callers.
package fs

import (
	"bytes"
	"encoding/gob"
	"errors"
	"io"
	"regexp"
)

// OpenMode mirrors the CC65-POSIX-ish flag bits apifs.TranslateFlags
// derives from the 6502 API call, and the FatFs FA_* modes std_api_open
// maps them to.
type OpenMode uint8

const (
	OpenRead  OpenMode = 0x01
	OpenWrite OpenMode = 0x02

	OpenCreateNew    OpenMode = 0x10
	OpenCreateAlways OpenMode = 0x20
	OpenOpenAlways   OpenMode = 0x40
	OpenAppend       OpenMode = 0x80

	// Aliases read better at call sites that build on the CC65 bits.
	OpenAlways = OpenOpenAlways
)

// Errors returned by Volume/File operations; internal/api's fsErrno
// maps these the way api_fresult_errno mapped FatFs's FRESULT
// (errno.FromFS only recognises the standard library's io/fs sentinels).
var (
	ErrNotExist          = errors.New("fs: file does not exist")
	ErrExist             = errors.New("fs: file already exists")
	ErrTooManyOpenFiles  = errors.New("fs: too many open files")
	ErrInvalidParameter  = errors.New("fs: invalid parameter")
	ErrNoSpace           = errors.New("fs: volume full")
	ErrNoExec            = errors.New("fs: file not a loadable ROM")
)

// File is an open handle into the volume.
type File interface {
	io.Reader
	io.Writer
	io.Closer
	Truncate(size int64) error
}

// Volume is the key-value store's file-level interface: open by name,
// list entries, remove. ROM catalogue names must satisfy
// RomNamePattern (spec.md §3: "installed ROM images (files named
// A-Z[A-Z0-9]{0..N})"); config/NVRAM files are not subject to that
// restriction.
type Volume interface {
	Open(name string, mode OpenMode) (File, error)
	Remove(name string) error
	List() []string
}

// RomNamePattern validates installed ROM catalogue entries.
var RomNamePattern = regexp.MustCompile(`^[A-Z][A-Z0-9]*$`)

// entry is one stored file's bytes plus a read/write cursor template;
// each Open call gets its own *memFile view over the same backing
// slice.
type entry struct {
	data []byte
}

// Memory is an in-memory Volume standing in for the real NOR-flash
// little-filesystem; tests and hosts without a flash device use it
// directly, and it round-trips through gob so tests can snapshot and
// restore a volume's contents without a real flash image (teacher's
// bus.go SaveState/LoadState pattern, generalized).
type Memory struct {
	files map[string]*entry
}

// NewMemory returns an empty volume.
func NewMemory() *Memory {
	return &Memory{files: make(map[string]*entry)}
}

// Open implements Volume.
func (m *Memory) Open(name string, mode OpenMode) (File, error) {
	e, ok := m.files[name]
	switch {
	case !ok && mode&(OpenCreateNew|OpenCreateAlways|OpenOpenAlways) != 0:
		e = &entry{}
		m.files[name] = e
	case !ok:
		return nil, ErrNotExist
	case ok && mode&OpenCreateNew != 0:
		return nil, ErrExist
	case ok && mode&OpenCreateAlways != 0:
		e.data = nil
	}
	pos := int64(0)
	if mode&OpenAppend != 0 {
		pos = int64(len(e.data))
	}
	return &memFile{e: e, pos: pos, writable: mode&(OpenWrite|OpenCreateNew|OpenCreateAlways|OpenOpenAlways|OpenAppend) != 0}, nil
}

// Remove implements Volume.
func (m *Memory) Remove(name string) error {
	if _, ok := m.files[name]; !ok {
		return ErrNotExist
	}
	delete(m.files, name)
	return nil
}

// List implements Volume.
func (m *Memory) List() []string {
	names := make([]string, 0, len(m.files))
	for name := range m.files {
		names = append(names, name)
	}
	return names
}

// snapshot is the gob wire format for SaveState/LoadState.
type snapshot struct {
	Files map[string][]byte
}

// SaveState serializes the whole volume for archival or test fixtures.
func (m *Memory) SaveState() []byte {
	s := snapshot{Files: make(map[string][]byte, len(m.files))}
	for name, e := range m.files {
		s.Files[name] = append([]byte(nil), e.data...)
	}
	var buf bytes.Buffer
	_ = gob.NewEncoder(&buf).Encode(s)
	return buf.Bytes()
}

// LoadState replaces the volume's contents with a SaveState snapshot.
func (m *Memory) LoadState(data []byte) error {
	var s snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return err
	}
	m.files = make(map[string]*entry, len(s.Files))
	for name, b := range s.Files {
		m.files[name] = &entry{data: append([]byte(nil), b...)}
	}
	return nil
}

// memFile is Memory's File implementation.
type memFile struct {
	e        *entry
	pos      int64
	writable bool
}

func (f *memFile) Read(p []byte) (int, error) {
	if f.pos >= int64(len(f.e.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.e.data[f.pos:])
	f.pos += int64(n)
	return n, nil
}

func (f *memFile) Write(p []byte) (int, error) {
	if !f.writable {
		return 0, ErrInvalidParameter
	}
	end := f.pos + int64(len(p))
	if end > int64(len(f.e.data)) {
		grown := make([]byte, end)
		copy(grown, f.e.data)
		f.e.data = grown
	}
	n := copy(f.e.data[f.pos:end], p)
	f.pos += int64(n)
	return n, nil
}

func (f *memFile) Close() error { return nil }

func (f *memFile) Truncate(size int64) error {
	if size < 0 {
		return ErrInvalidParameter
	}
	if size <= int64(len(f.e.data)) {
		f.e.data = f.e.data[:size]
		return nil
	}
	grown := make([]byte, size)
	copy(grown, f.e.data)
	f.e.data = grown
	return nil
}
