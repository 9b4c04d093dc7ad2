package fs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenCreateReadWriteRoundTrip(t *testing.T) {
	v := NewMemory()
	f, err := v.Open("A", OpenWrite|OpenCreateAlways)
	require.NoError(t, err)
	_, err = f.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	f, err = v.Open("A", OpenRead)
	require.NoError(t, err)
	buf := make([]byte, 5)
	n, err := f.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "hello", string(buf[:n]))
}

func TestOpenMissingWithoutCreateFails(t *testing.T) {
	v := NewMemory()
	_, err := v.Open("MISSING", OpenRead)
	require.ErrorIs(t, err, ErrNotExist)
}

func TestCreateNewFailsIfExists(t *testing.T) {
	v := NewMemory()
	f, _ := v.Open("A", OpenCreateAlways)
	f.Close()
	_, err := v.Open("A", OpenCreateNew)
	require.ErrorIs(t, err, ErrExist)
}

func TestSaveLoadStateRoundTrips(t *testing.T) {
	v := NewMemory()
	f, _ := v.Open("A", OpenWrite|OpenCreateAlways)
	f.Write([]byte("payload"))
	f.Close()

	snap := v.SaveState()
	v2 := NewMemory()
	require.NoError(t, v2.LoadState(snap))

	f2, err := v2.Open("A", OpenRead)
	require.NoError(t, err)
	buf := make([]byte, 7)
	n, _ := f2.Read(buf)
	require.Equal(t, "payload", string(buf[:n]))
}

func TestConfigRoundTrip(t *testing.T) {
	v := NewMemory()
	cfg := Config{Version: 1, Phi2KHz: 8000, Caps: true, ResetMS: 3, CodePage: 437, BootROM: "BASIC"}
	require.NoError(t, SaveConfig(v, cfg))

	got, err := LoadConfig(v)
	require.NoError(t, err)
	require.Equal(t, cfg, got)
}

func TestLoadConfigDefaultsWhenAbsent(t *testing.T) {
	v := NewMemory()
	got, err := LoadConfig(v)
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), got)
}

func TestBootCountIncrements(t *testing.T) {
	v := NewMemory()
	n, err := IncrementBootCount(v)
	require.NoError(t, err)
	require.Equal(t, uint32(1), n)
	n, err = IncrementBootCount(v)
	require.NoError(t, err)
	require.Equal(t, uint32(2), n)
}

func TestModemSettingsRoundTrip(t *testing.T) {
	v := NewMemory()
	s := FactoryModemSettings()
	s.Quiet = true
	s.AutoAnswer = 3
	require.NoError(t, WriteModemSettings(v, s))

	got, err := ReadModemSettings(v)
	require.NoError(t, err)
	require.Equal(t, s, got)
}

func TestInstallROMValidatesName(t *testing.T) {
	v := NewMemory()
	require.NoError(t, InstallROM(v, "BASIC", []byte{1, 2, 3}))
	require.ErrorIs(t, InstallROM(v, "basic", nil), ErrNoExec)
	require.ErrorIs(t, InstallROM(v, "CONFIG.SYS", nil), ErrNoExec)
}

func TestLoadROMRoundTrips(t *testing.T) {
	v := NewMemory()
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	require.NoError(t, InstallROM(v, "GAME1", payload))

	got, err := LoadROM(v, "GAME1")
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestListROMsExcludesConfig(t *testing.T) {
	v := NewMemory()
	require.NoError(t, InstallROM(v, "GAME1", []byte{1}))
	require.NoError(t, SaveConfig(v, DefaultConfig()))
	require.ElementsMatch(t, []string{"GAME1"}, ListROMs(v))
}
