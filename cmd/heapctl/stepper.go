package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	overlay "github.com/rmhubbert/bubbletea-overlay"

	"github.com/joshuapare/heapkit/alloc"
	"github.com/joshuapare/heapkit/internal/logger"
	"github.com/joshuapare/heapkit/internal/trace"
)

// Layout constants
const (
	minPaneHeight  = 5
	chromeHeight   = 9 // header, borders, status and help lines
	scriptPaneMin  = 30
	defaultWidth   = 100
	defaultHeight  = 30
	blockPaneRatio = 2 // block pane gets 2/3 of the width
)

// stepModel steps through a script one op at a time. Going backwards resets
// the heap and replays, so the block map always reflects a real run.
type stepModel struct {
	path string
	ops  []trace.Op
	open func() (*alloc.Allocator, error)

	a      *alloc.Allocator
	runner *trace.Runner
	events []trace.Event
	pos    int   // ops executed so far
	err    error // script error at ops[pos], halts stepping

	keys   KeyMap
	help   help.Model
	blocks viewport.Model

	width    int
	height   int
	showHelp bool
	message  string

	copy func(string) error
}

func newStepModel(path string, ops []trace.Op, open func() (*alloc.Allocator, error)) (stepModel, error) {
	m := stepModel{
		path:   path,
		ops:    ops,
		open:   open,
		keys:   DefaultKeyMap(),
		help:   help.New(),
		blocks: viewport.New(0, 0),
		copy:   clipboard.WriteAll,
	}
	m.resize(defaultWidth, defaultHeight)
	if err := m.reset(); err != nil {
		return stepModel{}, err
	}
	return m, nil
}

// Close releases the heap.
func (m stepModel) Close() error {
	if m.a == nil {
		return nil
	}
	return m.a.Close()
}

func (m stepModel) Init() tea.Cmd {
	return nil
}

func (m stepModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			if key.Matches(msg, m.keys.Esc) || key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Quit) {
				m.showHelp = false
			}
			return m, nil
		}

		m.message = ""
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.showHelp = true
		case key.Matches(msg, m.keys.Next):
			m.next()
		case key.Matches(msg, m.keys.Prev):
			m.prev()
		case key.Matches(msg, m.keys.End):
			for m.next() {
			}
		case key.Matches(msg, m.keys.Reset):
			m.replay(0)
		case key.Matches(msg, m.keys.Copy):
			if err := m.copy(m.transcript()); err != nil {
				m.message = "copy failed: " + err.Error()
			} else {
				m.message = fmt.Sprintf("Copied %d ops to clipboard", len(m.events))
			}
		case key.Matches(msg, m.keys.ScrollUp), key.Matches(msg, m.keys.ScrollDown):
			m.blocks, cmd = m.blocks.Update(msg)
		}
		return m, cmd
	}

	m.blocks, cmd = m.blocks.Update(msg)
	return m, cmd
}

// next runs ops[pos] and reports whether stepping can continue.
func (m *stepModel) next() bool {
	if m.err != nil {
		return false
	}
	if m.pos >= len(m.ops) {
		m.message = "End of script"
		return false
	}
	op := m.ops[m.pos]
	ev, err := m.runner.Step(op)
	if err != nil {
		logger.Warn("step failed", "line", op.Line, "op", op.String(), "error", err)
		m.err = err
		m.refresh()
		return false
	}
	m.events = append(m.events, ev)
	m.pos++
	m.refresh()
	return true
}

func (m *stepModel) prev() {
	target := m.pos - 1
	if m.err != nil {
		target = m.pos
	}
	if target < 0 {
		m.message = "Start of script"
		return
	}
	m.replay(target)
}

// replay resets the heap and runs the first n ops again.
func (m *stepModel) replay(n int) {
	if err := m.reset(); err != nil {
		m.err = err
		return
	}
	for m.pos < n && m.next() {
	}
}

func (m *stepModel) reset() error {
	if m.a != nil {
		if err := m.a.Close(); err != nil {
			logger.Warn("closing heap", "error", err)
		}
	}
	a, err := m.open()
	if err != nil {
		m.a = nil
		return err
	}
	m.a = a
	m.runner = trace.NewRunner(a)
	m.events = nil
	m.pos = 0
	m.err = nil
	m.refresh()
	return nil
}

func (m *stepModel) resize(width, height int) {
	m.width, m.height = width, height
	m.help.Width = width

	paneHeight := max(height-chromeHeight, minPaneHeight)
	m.blocks.Width = m.blockPaneWidth() - 4
	m.blocks.Height = paneHeight
}

func (m stepModel) scriptPaneWidth() int {
	return max(m.width/(blockPaneRatio+1), scriptPaneMin)
}

func (m stepModel) blockPaneWidth() int {
	return max(m.width-m.scriptPaneWidth(), scriptPaneMin)
}

func (m *stepModel) refresh() {
	if m.a == nil {
		m.blocks.SetContent("")
		return
	}
	m.blocks.SetContent(m.renderBlocks())
}

// transcript renders the executed ops in script syntax, each annotated with
// its result and the break after it.
func (m stepModel) transcript() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n", m.path)
	for _, ev := range m.events {
		line := ev.Op.String()
		note := fmt.Sprintf("break %#x %s", ev.BreakAfter, formatMove(ev.Moved()))
		if r := formatResult(ev); r != "" {
			note = r + ", " + note
		}
		fmt.Fprintf(&sb, "%-28s # %s\n", line, note)
	}
	return sb.String()
}

func (m stepModel) View() string {
	body := m.renderMain()
	if !m.showHelp {
		return body
	}
	return overlay.New(
		staticView(m.renderHelp()),
		staticView(body),
		overlay.Center,
		overlay.Center,
		0,
		0,
	).View()
}

func (m stepModel) renderMain() string {
	header := headerStyle.Render("heapctl step") + " " + pathStyle.Render(m.path)

	script := paneStyle.
		Width(m.scriptPaneWidth() - 2).
		Render(paneTitleStyle.Render("Script") + "\n" + m.renderScript())
	blocks := paneStyle.
		Width(m.blockPaneWidth() - 2).
		Render(paneTitleStyle.Render("Heap") + "\n" + m.blocks.View())

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		lipgloss.JoinHorizontal(lipgloss.Top, script, blocks),
		m.renderStatus(),
		m.help.View(m.keys),
	)
}

// renderScript shows a window of ops around the cursor.
func (m stepModel) renderScript() string {
	if len(m.ops) == 0 {
		return doneOpStyle.Render("(empty script)")
	}
	rows := max(m.blocks.Height, minPaneHeight)
	start := max(m.pos-rows/2, 0)
	end := min(start+rows, len(m.ops))
	start = max(end-rows, 0)

	var sb strings.Builder
	for i := start; i < end; i++ {
		op := m.ops[i]
		line := fmt.Sprintf("%3d  %s", op.Line, op.String())
		switch {
		case i < m.pos:
			sb.WriteString(doneOpStyle.Render("  " + line))
		case i == m.pos && m.err != nil:
			sb.WriteString(errorStyle.Render("✗ " + line))
		case i == m.pos:
			sb.WriteString(currentOpStyle.Render("▶ " + line))
		default:
			sb.WriteString(pendingOpStyle.Render("  " + line))
		}
		if i < end-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func (m stepModel) renderBlocks() string {
	s := m.a.Stats()

	var sb strings.Builder
	stat := func(label, value string) {
		sb.WriteString(statLabel.Render(fmt.Sprintf("%-10s", label)))
		sb.WriteString(statValue.Render(value))
		sb.WriteByte('\n')
	}
	stat("break", fmt.Sprintf("%#x (%s)", s.Break, formatBytes(s.Break)))
	stat("blocks", fmt.Sprintf("%d live, %d free", s.Blocks-s.FreeBlocks, s.FreeBlocks))
	stat("in use", formatNumber(s.InUse)+" B")
	stat("free", formatNumber(s.Free)+" B")
	stat("overhead", formatNumber(s.Overhead)+" B")
	sb.WriteByte('\n')

	names := make(map[uint64][]string)
	for name, off := range m.runner.Live() {
		names[off] = append(names[off], name)
	}

	blocks := m.a.Blocks()
	if len(blocks) == 0 {
		sb.WriteString(doneOpStyle.Render("(no blocks)"))
		return sb.String()
	}
	for _, b := range blocks {
		style, state := liveBlockStyle, "live"
		if b.Free {
			style, state = freeBlockStyle, "free"
		}
		line := fmt.Sprintf("%#08x  %-4s  %8s  %8s", b.Offset, state, formatNumber(b.Size), formatNumber(b.Extent))
		if n := names[b.Payload]; len(n) > 0 && !b.Free {
			slices.Sort(n)
			line += "  " + strings.Join(n, ", ")
		}
		sb.WriteString(style.Render(line))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (m stepModel) renderStatus() string {
	var line string
	switch {
	case m.err != nil:
		line = errorStyle.Render(m.err.Error())
	case m.message != "":
		line = messageStyle.Render(m.message)
	case len(m.events) > 0:
		ev := m.events[len(m.events)-1]
		move := formatMove(ev.Moved())
		switch {
		case ev.Null:
			move = nullStyle.Render(formatResult(ev))
		case ev.Moved() > 0:
			move = growStyle.Render(move)
		case ev.Moved() < 0:
			move = shrinkStyle.Render(move)
		}
		line = fmt.Sprintf("%s  %s", ev.Op.String(), move)
	default:
		line = "Press → to run the first op"
	}
	progress := fmt.Sprintf("%d/%d", m.pos, len(m.ops))
	return statusStyle.Width(m.width).Render(progress + "  " + line)
}

func (m stepModel) renderHelp() string {
	var sb strings.Builder
	sb.WriteString(helpTitleStyle.Render("Keyboard Shortcuts"))
	sb.WriteString("\n")
	full := help.New()
	full.ShowAll = true
	sb.WriteString(full.View(m.keys))
	return modalStyle.Render(sb.String())
}

// staticView adapts rendered text to tea.Model for the overlay.
type staticView string

func (v staticView) Init() tea.Cmd                       { return nil }
func (v staticView) Update(tea.Msg) (tea.Model, tea.Cmd) { return v, nil }
func (v staticView) View() string                        { return string(v) }
