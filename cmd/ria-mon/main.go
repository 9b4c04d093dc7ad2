// cmd/ria-mon is a standalone companion viewer that subscribes to the
// VGA presence state machine and vsync watchdog and renders the six
// states from spec.md §3 ("PIX link state") as a live-updating panel,
// a supplemented feature: the original firmware only exposes this
// state via ad hoc printf (SPEC_FULL.md "Supplemented features"). It
// reads backchannel bytes from a path given via -backchannel (piped
// from a real link, or a capture file for a demo) and feeds them
// straight to internal/pix.Presence.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rumbledethumps/ria/internal/pix"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	connectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	lostStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// discardSink absorbs outbound PIX frames; cmd/ria-mon only observes
// the backchannel, it never sends SET_XREG writes of its own.
type discardSink struct{}

func (discardSink) Send(uint32) {}

type backchannelByte byte

type watchdogTick struct{}

type monModel struct {
	presence *pix.Presence
	bytesIn  <-chan byte
}

func (m monModel) Init() tea.Cmd {
	return tea.Batch(readByteCmd(m.bytesIn), tickCmd())
}

func (m monModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch v := msg.(type) {
	case tea.KeyMsg:
		if v.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	case backchannelByte:
		m.presence.ReceiveBackchannelByte(byte(v))
		return m, readByteCmd(m.bytesIn)
	case watchdogTick:
		m.presence.Tick()
		return m, tickCmd()
	}
	return m, nil
}

func (m monModel) View() string {
	state := m.presence.State()
	var stateLine string
	switch state {
	case pix.Connected:
		stateLine = connectedStyle.Render(state.String())
	case pix.NoVersion, pix.Testing, pix.Found:
		stateLine = warnStyle.Render(state.String())
	case pix.ConnectionLost, pix.NotFound:
		stateLine = lostStyle.Render(state.String())
	}
	return fmt.Sprintf(
		"%s\nlink state : %s\nversion    : %q\nvsync frame: %#02x\n\nctrl-c to quit\n",
		titleStyle.Render("ria-mon — PIX link presence"),
		stateLine, m.presence.VersionMessage(), m.presence.VsyncFrame(),
	)
}

func readByteCmd(ch <-chan byte) tea.Cmd {
	return func() tea.Msg {
		b, ok := <-ch
		if !ok {
			return nil
		}
		return backchannelByte(b)
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(pix.VsyncWatchdog, func(time.Time) tea.Msg { return watchdogTick{} })
}

// fileByteChan streams path's bytes in, blocking at EOF until more
// arrive — the shape a named pipe fed by a real backchannel capture
// needs. stdin is reserved for bubbletea's own keyboard input, so the
// backchannel source is always a separate path, never "-".
func fileByteChan(path string) (<-chan byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	ch := make(chan byte, 256)
	go func() {
		defer close(ch)
		defer f.Close()
		r := bufio.NewReader(f)
		for {
			b, err := r.ReadByte()
			if err != nil {
				return
			}
			ch <- b
		}
	}()
	return ch, nil
}

func main() {
	backchannelPath := flag.String("backchannel", "", "path (or named pipe) streaming raw backchannel bytes")
	flag.Parse()

	link := pix.New(discardSink{})
	presence := pix.NewPresence(link)
	presence.BeginTest()

	var bytesIn <-chan byte
	if *backchannelPath != "" {
		ch, err := fileByteChan(*backchannelPath)
		if err != nil {
			log.Fatalf("open backchannel %s: %v", *backchannelPath, err)
		}
		bytesIn = ch
	} else {
		bytesIn = make(chan byte)
	}

	m := monModel{presence: presence, bytesIn: bytesIn}
	if _, err := tea.NewProgram(m).Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
