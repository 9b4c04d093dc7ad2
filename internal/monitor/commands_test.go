package monitor

import "testing"

func hooksForTest() (*Hooks, *bool, *string) {
	resetCalled := false
	loadedPath := ""
	regs := map[string]byte{"A": 0x42}
	h := &Hooks{
		Status: func() string { return "ok" },
		Reset:  func() { resetCalled = true },
		Load: func(path string) error {
			loadedPath = path
			return nil
		},
		ReadReg: func(name string) (byte, bool) {
			v, ok := regs[name]
			return v, ok
		},
		WriteReg: func(name string, value byte) bool {
			if _, ok := regs[name]; !ok {
				return false
			}
			regs[name] = value
			return true
		},
	}
	return h, &resetCalled, &loadedPath
}

func newTestTable() (*Table, *bool, *string) {
	h, resetCalled, loadedPath := hooksForTest()
	table := NewTable()
	for _, c := range DefaultCommands(*h) {
		table.Register(c)
	}
	return table, resetCalled, loadedPath
}

func TestDispatchStatus(t *testing.T) {
	table, _, _ := newTestTable()
	out, err := table.Dispatch("status")
	if err != nil || out != "ok" {
		t.Fatalf("got %q, %v", out, err)
	}
}

func TestDispatchReset(t *testing.T) {
	table, resetCalled, _ := newTestTable()
	out, err := table.Dispatch("reset")
	if err != nil || out != "reset asserted" || !*resetCalled {
		t.Fatalf("got %q, %v, resetCalled=%v", out, err, *resetCalled)
	}
}

func TestDispatchLoadRequiresPath(t *testing.T) {
	table, _, _ := newTestTable()
	if _, err := table.Dispatch("load"); err == nil {
		t.Fatal("expected an error for a missing path argument")
	}
}

func TestDispatchLoadRunsWithPath(t *testing.T) {
	table, _, loadedPath := newTestTable()
	out, err := table.Dispatch("load prog.bin")
	if err != nil || out != "loaded prog.bin" || *loadedPath != "prog.bin" {
		t.Fatalf("got %q, %v, loadedPath=%q", out, err, *loadedPath)
	}
}

func TestDispatchRegReadAndWrite(t *testing.T) {
	table, _, _ := newTestTable()
	out, err := table.Dispatch("reg A")
	if err != nil || out != "A = $42" {
		t.Fatalf("read: got %q, %v", out, err)
	}
	out, err = table.Dispatch("reg A 0x10")
	if err != nil || out != "A = $10" {
		t.Fatalf("write: got %q, %v", out, err)
	}
	if _, err := table.Dispatch("reg ZZZ"); err == nil {
		t.Fatal("expected an error for an unknown register")
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	table, _, _ := newTestTable()
	if _, err := table.Dispatch("frobnicate"); err == nil {
		t.Fatal("expected an error for an unknown command")
	}
}

func TestDispatchEmptyLineIsNoop(t *testing.T) {
	table, _, _ := newTestTable()
	out, err := table.Dispatch("   ")
	if err != nil || out != "" {
		t.Fatalf("got %q, %v", out, err)
	}
}

func TestCommandsSnapshotIsIndependent(t *testing.T) {
	table, _, _ := newTestTable()
	snap := table.Commands()
	table.Register(Command{Name: "extra", Run: func(args []string) (string, error) { return "", nil }})
	if len(snap) == len(table.Commands()) {
		t.Fatal("Commands() should return a point-in-time snapshot")
	}
}
