package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ape-emu/ape/core"
	"github.com/ape-emu/ape/hook"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	opStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#98FB98"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type inspectorOp struct {
	name   string
	desc   string
	params []string
}

var inspectorOps = []inspectorOp{
	{name: "read", desc: "Read a memory range", params: []string{"domain", "address (hex)", "size"}},
	{name: "write", desc: "Write bytes to the system bus", params: []string{"address (hex)", "bytes (hex)"}},
	{name: "hash", desc: "Show the content hash"},
	{name: "status", desc: "Show system and content info"},
}

type inspectorState int

const (
	stateSelectOp inspectorState = iota
	stateInputArgs
	stateShowResult
)

type inspectorModel struct {
	err      error
	handle   hook.Handle[*core.Core]
	romPath  string
	result   string
	inputs   []textinput.Model
	selected int
	focusIdx int
	state    inspectorState
}

type opResultMsg struct {
	err    error
	result string
}

func newInspectorModel(handle hook.Handle[*core.Core], romPath string) *inspectorModel {
	return &inspectorModel{
		handle:  handle,
		romPath: romPath,
		state:   stateSelectOp,
	}
}

func (m *inspectorModel) Init() tea.Cmd {
	return nil
}

func (m *inspectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state != stateInputArgs {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectOp && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectOp && m.selected < len(inspectorOps)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectOp:
				m.prepareInputs()
				if len(m.inputs) == 0 {
					return m, m.runOp
				}
				m.state = stateInputArgs

			case stateInputArgs:
				return m, m.runOp

			case stateShowResult:
				m.state = stateSelectOp
				m.result = ""
				m.err = nil
			}

		case "tab":
			if m.state == stateInputArgs && len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			switch m.state {
			case stateInputArgs:
				m.state = stateSelectOp
				m.inputs = nil
			case stateShowResult:
				m.state = stateSelectOp
				m.result = ""
				m.err = nil
			}
		}

	case opResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputArgs {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *inspectorModel) prepareInputs() {
	op := inspectorOps[m.selected]
	m.inputs = make([]textinput.Model, len(op.params))
	for i, p := range op.params {
		ti := textinput.New()
		ti.Placeholder = p
		ti.Prompt = p + ": "
		ti.Width = 40
		if i == 0 {
			ti.Focus()
		}
		if p == "domain" {
			ti.SetValue(core.DomainSystemBus)
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
}

func (m *inspectorModel) runOp() tea.Msg {
	op := inspectorOps[m.selected]
	args := make([]string, len(m.inputs))
	for i, input := range m.inputs {
		args[i] = strings.TrimSpace(input.Value())
	}

	switch op.name {
	case "read":
		return m.runRead(args[0], args[1], args[2])
	case "write":
		return m.runWrite(args[0], args[1])
	case "hash":
		return m.runHash()
	case "status":
		return m.runStatus()
	}
	return opResultMsg{err: fmt.Errorf("unknown operation %q", op.name)}
}

func (m *inspectorModel) runRead(domain, addrStr, sizeStr string) tea.Msg {
	addr, err := parseHex(addrStr)
	if err != nil {
		return opResultMsg{err: fmt.Errorf("invalid address: %w", err)}
	}
	size, err := strconv.Atoi(sizeStr)
	if err != nil || size <= 0 {
		return opResultMsg{err: fmt.Errorf("invalid size %q", sizeStr)}
	}

	var data []byte
	var readErr error
	if err := m.handle.Run(func(c *core.Core) {
		data, readErr = c.ReadDomain(domain, uint(addr), size)
	}); err != nil {
		return opResultMsg{err: err}
	}
	if readErr != nil {
		return opResultMsg{err: readErr}
	}
	if len(data) == 0 {
		return opResultMsg{result: "(no mapped memory at that address)"}
	}
	return opResultMsg{result: hexDump(addr, data)}
}

func (m *inspectorModel) runWrite(addrStr, bytesStr string) tea.Msg {
	addr, err := parseHex(addrStr)
	if err != nil {
		return opResultMsg{err: fmt.Errorf("invalid address: %w", err)}
	}
	data := make([]byte, 0, 8)
	for _, field := range strings.Fields(bytesStr) {
		v, err := strconv.ParseUint(strings.TrimPrefix(field, "0x"), 16, 8)
		if err != nil {
			return opResultMsg{err: fmt.Errorf("invalid byte %q", field)}
		}
		data = append(data, byte(v))
	}
	if len(data) == 0 {
		return opResultMsg{err: fmt.Errorf("no bytes to write")}
	}

	var written int
	var writeErr error
	if err := m.handle.Run(func(c *core.Core) {
		written, writeErr = c.WriteDomain(core.DomainSystemBus, uint(addr), data)
	}); err != nil {
		return opResultMsg{err: err}
	}
	if writeErr != nil {
		return opResultMsg{err: writeErr}
	}
	return opResultMsg{result: fmt.Sprintf("wrote %d of %d bytes at %06X", written, len(data), addr)}
}

func (m *inspectorModel) runHash() tea.Msg {
	var hash string
	if err := m.handle.Run(func(c *core.Core) {
		hash = c.ROMHash()
	}); err != nil {
		return opResultMsg{err: err}
	}
	return opResultMsg{result: "sha1: " + hash}
}

func (m *inspectorModel) runStatus() tea.Msg {
	var info core.SystemInfo
	var av core.AVInfo
	var name, id string
	if err := m.handle.Run(func(c *core.Core) {
		info = c.SystemInfo()
		av = c.AVInfo()
		name = c.ROMName()
		id = c.SystemID()
	}); err != nil {
		return opResultMsg{err: err}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "core:    %s %s\n", info.LibraryName, info.LibraryVersion)
	fmt.Fprintf(&b, "system:  %s\n", id)
	fmt.Fprintf(&b, "content: %s\n", name)
	fmt.Fprintf(&b, "video:   %dx%d @ %.2f fps\n", av.BaseWidth, av.BaseHeight, av.FPS)
	fmt.Fprintf(&b, "audio:   %.0f Hz", av.SampleRate)
	return opResultMsg{result: b.String()}
}

func (m *inspectorModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("APE Inspector"))
	b.WriteString(" ")
	b.WriteString(m.romPath)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectOp:
		b.WriteString("Select an operation:\n\n")
		for i, op := range inspectorOps {
			line := op.name + " - " + op.desc
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + opStyle.Render(op.name) + " - " + op.desc)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter run • q quit"))

	case stateInputArgs:
		op := inspectorOps[m.selected]
		b.WriteString(fmt.Sprintf("Running %s\n\n", opStyle.Render(op.name)))
		for _, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter run • esc back"))

	case stateShowResult:
		op := inspectorOps[m.selected]
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", opStyle.Render(op.name)))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func parseHex(s string) (uint64, error) {
	return strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 64)
}

// hexDump renders rows of 16 bytes with a leading address column.
func hexDump(base uint64, data []byte) string {
	var b strings.Builder
	for i := 0; i < len(data); i += 16 {
		end := i + 16
		if end > len(data) {
			end = len(data)
		}
		fmt.Fprintf(&b, "%06X ", base+uint64(i))
		for _, byt := range data[i:end] {
			fmt.Fprintf(&b, " %02X", byt)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func runInspector(handle hook.Handle[*core.Core], romPath string) error {
	p := tea.NewProgram(newInspectorModel(handle, romPath), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
