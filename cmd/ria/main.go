// Package main is ria's primary binary: it parses operator flags,
// wires an internal/system.Machine, and drives it until interrupted,
// mirroring the teacher's cmd/gbemu (flag-parse -> construct -> run
// loop -> persist-on-exit shape), generalized to spec.md §6's primary
// binary and the "run"/"flash" split urfave/cli.v2 gives us for free.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"gopkg.in/urfave/cli.v2"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rumbledethumps/ria/internal/action"
	"github.com/rumbledethumps/ria/internal/fs"
	"github.com/rumbledethumps/ria/internal/pix"
	"github.com/rumbledethumps/ria/internal/system"
)

var (
	flagPhi2KHz  = &cli.IntFlag{Name: "phi2khz", Value: 4000, Usage: "target PHI2 frequency in kHz", EnvVars: []string{"RIA_PHI2_KHZ"}}
	flagResetUS  = &cli.IntFlag{Name: "reset-us", Value: 0, Usage: "minimum reset pulse width in microseconds", EnvVars: []string{"RIA_RESET_US"}}
	flagConsole  = &cli.StringFlag{Name: "console", Value: "stdio", Usage: "console UART: a serial device path, or \"stdio\"", EnvVars: []string{"RIA_CONSOLE"}}
	flagFlash    = &cli.StringFlag{Name: "flash", Usage: "little-fs flash image path (gob-encoded volume snapshot)", EnvVars: []string{"RIA_FLASH"}}
	flagVGA      = &cli.BoolFlag{Name: "vga", Usage: "enable the PIX link to a companion VGA board", EnvVars: []string{"RIA_VGA"}}
	flagHeadless = &cli.BoolFlag{Name: "headless", Usage: "skip the monitor line editor (CI / conformance harnesses)", EnvVars: []string{"RIA_HEADLESS"}}
)

func main() {
	app := &cli.App{
		Name:  "ria",
		Usage: "Rumbledethumps Interface Adapter host",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "run the machine",
				Flags:  []cli.Flag{flagPhi2KHz, flagResetUS, flagConsole, flagFlash, flagVGA, flagHeadless},
				Action: runCmd,
			},
			{
				Name:      "flash",
				Usage:     "write a file into the flash volume and exit",
				ArgsUsage: "<image> <name> <source-file>",
				Action:    flashCmd,
			},
		},
		Action: runCmd,
		Flags:  []cli.Flag{flagPhi2KHz, flagResetUS, flagConsole, flagFlash, flagVGA, flagHeadless},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runCmd(c *cli.Context) error {
	cfg := system.Config{
		Phi2KHz:   uint32(c.Int("phi2khz")),
		ResetUS:   uint32(c.Int("reset-us")),
		EnableVGA: c.Bool("vga"),
		Headless:  c.Bool("headless"),
	}

	console, closeConsole := openConsole(c.String("console"))
	defer closeConsole()

	var sink pix.Sink
	if cfg.EnableVGA {
		sink = newLogSink()
	}

	m := system.New(cfg, console, sink, nil)
	wireHardware(m)

	if path := c.String("flash"); path != "" {
		if err := loadFlashImage(m, path); err != nil {
			return fmt.Errorf("load flash image: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if cfg.Headless {
		err := m.Run(ctx)
		return saveFlashImage(m, c.String("flash"), err)
	}

	go func() { _ = m.Run(ctx) }()
	p := tea.NewProgram(m.Monitor)
	if _, err := p.Run(); err != nil {
		stop()
		return err
	}
	stop()
	return saveFlashImage(m, c.String("flash"), nil)
}

func flashCmd(c *cli.Context) error {
	if c.Args().Len() < 3 {
		return fmt.Errorf("usage: ria flash <image> <name> <source-file>")
	}
	imagePath := c.Args().Get(0)
	name := c.Args().Get(1)
	srcPath := c.Args().Get(2)

	vol := fs.NewMemory()
	if data, err := os.ReadFile(imagePath); err == nil {
		if err := vol.LoadState(data); err != nil {
			return fmt.Errorf("load %s: %w", imagePath, err)
		}
	}

	src, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", srcPath, err)
	}
	f, err := vol.Open(name, fs.OpenWrite|fs.OpenCreateAlways)
	if err != nil {
		return fmt.Errorf("open %s in volume: %w", name, err)
	}
	if _, err := f.Write(src); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	f.Close()

	if err := os.WriteFile(imagePath, vol.SaveState(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", imagePath, err)
	}
	log.Printf("staged %s (%d bytes) into %s as %s", srcPath, len(src), imagePath, name)
	return nil
}

func openConsole(spec string) (action.UART, func()) {
	if spec == "" || spec == "stdio" {
		return newStdioUART(), func() {}
	}
	f, err := os.OpenFile(spec, os.O_RDWR, 0)
	if err != nil {
		log.Printf("console %s unavailable (%v), falling back to stdio", spec, err)
		return newStdioUART(), func() {}
	}
	u := newFileUART(f)
	return u, func() { f.Close() }
}

func loadFlashImage(m *system.Machine, path string) error {
	vol, ok := m.Volume.(interface{ LoadState([]byte) error })
	if !ok {
		return nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return vol.LoadState(data)
}

func saveFlashImage(m *system.Machine, path string, runErr error) error {
	if path != "" {
		if vol, ok := m.Volume.(interface{ SaveState() []byte }); ok {
			if err := os.WriteFile(path, vol.SaveState(), 0o644); err != nil {
				log.Printf("write flash image %s: %v", path, err)
			}
		}
	}
	return runErr
}
