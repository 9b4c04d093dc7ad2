// Package system is Core A, the orchestrator that wires the bus
// engine, action loop, API dispatcher, PIX link, audio pump, and
// command monitor together into one running machine (spec.md §5
// "Core A (\"main\"): runs a single infinite loop that polls every
// subsystem"). It is grounded on the teacher's top-level emu.Machine
// construction-then-step-loop shape, generalized from a Game Boy
// frame stepper to a non-blocking multi-subsystem poll loop.
package system

import (
	"context"

	"github.com/rumbledethumps/ria/internal/action"
	"github.com/rumbledethumps/ria/internal/api"
	"github.com/rumbledethumps/ria/internal/apifs"
	"github.com/rumbledethumps/ria/internal/audio"
	"github.com/rumbledethumps/ria/internal/bus"
	"github.com/rumbledethumps/ria/internal/clock"
	"github.com/rumbledethumps/ria/internal/cpu"
	"github.com/rumbledethumps/ria/internal/fs"
	"github.com/rumbledethumps/ria/internal/monitor"
	"github.com/rumbledethumps/ria/internal/pio"
	"github.com/rumbledethumps/ria/internal/pix"
	"github.com/rumbledethumps/ria/internal/xram"
	"github.com/rumbledethumps/ria/internal/xstack"
)

// defaultLoadAddr is where the monitor's "load" command stages a
// program image absent any other instruction, matching the firmware
// convention of handing a freshly loaded ROM control at a fixed low
// address before it relocates itself.
const defaultLoadAddr = 0x0800

// Machine bundles every subsystem the orchestrator polls, plus the
// action-loop goroutine (Core B) it launches.
type Machine struct {
	cfg Config

	Window     *bus.Window
	Engine     *pio.Engine
	Controller *cpu.Controller
	Loop       *action.Loop
	API        *api.Dispatcher
	XStack     *xstack.Stack
	XRAM       *xram.Ram
	Pool       *apifs.Pool
	Volume     fs.Volume
	Pix        *pix.Link
	Presence   *pix.Presence
	Audio      *audio.Pump
	Monitor    monitor.Model

	lastVsync byte
}

// New constructs a fully-wired Machine. console backs the action
// loop's UART shim; sink and audioSink are nil unless the PIX link /
// audio backend are enabled, matching cfg.EnableVGA and an explicit
// Plug call respectively.
func New(cfg Config, console action.UART, sink pix.Sink, audioSink audio.Sink) *Machine {
	cfg.Defaults()

	window := bus.New()
	engine := pio.New(window)
	ctrl := cpu.New(engine)
	ctrl.SetClock(clock.New(cfg.Phi2KHz))

	loop := action.New(window, engine.Action, ctrl, console)

	xs := xstack.New()
	xr := xram.New()
	pool := &apifs.Pool{}
	volume := fs.NewMemory()
	dispatcher := api.New(window, xs, xr, pool, volume)

	var link *pix.Link
	var presence *pix.Presence
	if cfg.EnableVGA && sink != nil {
		link = pix.New(sink)
		presence = pix.NewPresence(link)
		dispatcher.Pix = link
	}

	audioPump := audio.NewPump()
	if audioSink != nil {
		audioPump.Plug(audioSink, ctrl.Clock().SysClockKHz)
	}

	m := &Machine{
		cfg:        cfg,
		Window:     window,
		Engine:     engine,
		Controller: ctrl,
		Loop:       loop,
		API:        dispatcher,
		XStack:     xs,
		XRAM:       xr,
		Pool:       pool,
		Volume:     volume,
		Pix:        link,
		Presence:   presence,
		Audio:      audioPump,
	}

	loop.OnAPIOpcode = dispatcher.LatchOpcode
	loop.APIBusy = dispatcher.Busy

	table := monitor.NewTable()
	for _, c := range monitor.DefaultCommands(m.hooks()) {
		table.Register(c)
	}
	m.Monitor = monitor.NewModel(table, monitor.NewHistory())

	return m
}

func (m *Machine) hooks() monitor.Hooks {
	return monitor.Hooks{
		Status:   m.Status,
		Reset:    func() { m.Controller.Reset(m.cfg.ResetUS) },
		Load:     m.LoadFile,
		ReadReg:  m.ReadRegByName,
		WriteReg: m.WriteRegByName,
	}
}

// Run launches the action-loop goroutine (Core B) and drives Core A's
// poll loop until ctx is cancelled.
func (m *Machine) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- m.Loop.Run(ctx) }()

	for {
		select {
		case <-ctx.Done():
			m.Engine.Action.Close()
			return <-errCh
		default:
			m.Tick()
		}
	}
}

// Tick runs exactly one Core A iteration: every subsystem gets one
// non-blocking pass (spec.md §5: "No task may block; each returns
// quickly and is called again").
func (m *Machine) Tick() {
	m.Controller.Tick()
	m.API.Poll()
	m.consumeJump()
	m.consumeExit()
	if m.Presence != nil {
		m.Presence.Tick()
		if frame := m.Presence.VsyncFrame(); frame != m.lastVsync {
			m.lastVsync = frame
			m.Window.Set(bus.Vsync, frame)
		}
	}
	m.Audio.Task()
}

// consumeJump drives the orchestrator's side of apiJmp: the dispatcher
// stays CPU-agnostic and only decodes the address (see internal/api's
// Dispatcher doc); Tick is what actually calls Controller.Jump.
func (m *Machine) consumeJump() {
	if m.API.JumpAddr == nil {
		return
	}
	addr := *m.API.JumpAddr
	m.API.JumpAddr = nil
	m.Controller.Jump(m.Window, addr)
}

func (m *Machine) consumeExit() {
	if m.API.ExitCode == nil {
		return
	}
	m.API.ExitCode = nil
	m.Controller.MarkDone()
}

// LoadFile reads path from the flash volume and stages it into the
// 6502 via the fast-store stub, the monitor's "load" command.
func (m *Machine) LoadFile(path string) error {
	f, err := m.Volume.Open(path, fs.OpenRead)
	if err != nil {
		return err
	}
	defer f.Close()

	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 512)
	for {
		n, err := f.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if err != nil {
			break
		}
	}

	m.Loop.StartFastStore(defaultLoadAddr, buf)
	return nil
}

// Cancel discards any in-flight API call (spec.md §4.4
// "Cancellation"). The action loop's fast-load/fast-store stub is
// left as it is.
func (m *Machine) Cancel() {
	m.API.Cancel()
}
