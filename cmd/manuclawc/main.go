package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rahul/manuclaw/internal/protocol"
	"github.com/rahul/manuclaw/internal/store"
)

var (
	userStyle = lipgloss.NewStyle().
			Align(lipgloss.Right).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("24")).
			Padding(0, 1).
			MarginTop(1)

	phaseStyles = map[protocol.Phase]lipgloss.Style{
		protocol.PhaseGateway:  lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
		protocol.PhasePlanner:  lipgloss.NewStyle().Foreground(lipgloss.Color("#5cabff")),
		protocol.PhaseExecutor: lipgloss.NewStyle().Foreground(lipgloss.Color("#f5c242")),
		protocol.PhaseMemory:   lipgloss.NewStyle().Foreground(lipgloss.Color("#c678dd")),
		protocol.PhaseResult: lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("22")).
			Padding(0, 1).
			MarginTop(1),
		protocol.PhaseError: lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("52")).
			Padding(0, 1),
	}

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("52")).
			Padding(0, 1).
			MarginTop(1)

	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

type model struct {
	wsURL  string
	dbPath string
	userID int64

	input      textinput.Model
	chat       viewport.Model
	memory     table.Model
	lines      []string
	status     string
	busy       bool
	showMemory bool
	width      int
	height     int

	stream chan tea.Msg
}

func newModel(wsURL, dbPath string, userID int64) model {
	input := textinput.New()
	input.Placeholder = "Type a message..."
	input.Focus()

	columns := []table.Column{
		{Title: "#", Width: 4},
		{Title: "Tool", Width: 24},
		{Title: "Status", Width: 6},
		{Title: "Time", Width: 8},
		{Title: "Prompt", Width: 42},
	}
	memory := table.New(table.WithColumns(columns), table.WithFocused(false))

	return model{
		wsURL:  wsURL,
		dbPath: dbPath,
		userID: userID,
		input:  input,
		chat:   viewport.New(80, 20),
		memory: memory,
		status: "Idle | ctrl+b: memory",
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.chat.Width = msg.Width
		m.chat.Height = msg.Height - 3
		if m.showMemory {
			m.chat.Height -= m.memoryHeight()
		}
		m.memory.SetHeight(m.memoryHeight())
		m.refreshChat()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "ctrl+b":
			m.showMemory = !m.showMemory
			if m.showMemory {
				m.loadMemory()
				m.chat.Height = m.height - 3 - m.memoryHeight()
			} else {
				m.chat.Height = m.height - 3
			}
			m.refreshChat()
			return m, nil
		case "enter":
			text := strings.TrimSpace(m.input.Value())
			if text == "" || m.busy {
				return m, nil
			}
			m.input.Reset()
			m.appendLine(userStyle.Render("You: " + text))
			m.busy = true
			m.status = "Connecting..."
			ch, cmd := openStream(m.wsURL, text)
			m.stream = ch
			return m, cmd
		}

	case streamEventMsg:
		style, ok := phaseStyles[msg.event.Phase]
		if !ok {
			style = phaseStyles[protocol.PhaseGateway]
		}
		m.appendLine(style.Render(msg.event.Text))
		m.status = strings.ToLower(string(msg.event.Phase))
		return m, waitForStream(m.stream)

	case streamDoneMsg:
		m.busy = false
		m.status = "Done"
		return m, nil

	case streamErrMsg:
		m.busy = false
		m.status = "Disconnected"
		m.appendLine(errStyle.Render(fmt.Sprintf("Cannot reach gateway at %s", m.wsURL)))
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(m.chat.View())
	b.WriteString("\n")
	if m.showMemory {
		b.WriteString(m.memory.View())
		b.WriteString("\n")
	}
	b.WriteString(statusStyle.Render(fmt.Sprintf("%s | %s", m.wsURL, m.status)))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	return b.String()
}

func (m *model) memoryHeight() int {
	h := m.height * 2 / 5
	if h < 5 {
		h = 5
	}
	return h
}

func (m *model) appendLine(line string) {
	m.lines = append(m.lines, line)
	m.refreshChat()
}

func (m *model) refreshChat() {
	m.chat.SetContent(strings.Join(m.lines, "\n"))
	m.chat.GotoBottom()
}

// loadMemory reads recent step records straight from the gateway's
// SQLite file, same data the server writes.
func (m *model) loadMemory() {
	mem, err := store.NewMemoryStore(m.dbPath)
	if err != nil {
		m.memory.SetRows([]table.Row{{"", "error", "", "", err.Error()}})
		return
	}
	defer mem.Close()

	entries, err := mem.Recent(m.userID, 50)
	if err != nil {
		m.memory.SetRows([]table.Row{{"", "error", "", "", err.Error()}})
		return
	}

	rows := make([]table.Row, 0, len(entries))
	for _, e := range entries {
		status := "✓"
		if e.ResponseCode != 200 {
			status = "✗"
		}
		prompt := e.Prompt
		if len(prompt) > 40 {
			prompt = prompt[:40] + "…"
		}
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", e.ID),
			strings.TrimSuffix(e.Tool, "_tool"),
			status,
			time.Unix(e.Timestamp, 0).Format("15:04:05"),
			prompt,
		})
	}
	m.memory.SetRows(rows)
}

func main() {
	wsURL := flag.String("url", "ws://localhost:8765/ws", "gateway WebSocket URL")
	dbPath := flag.String("db", "manuclaw.db", "path to the gateway's memory database")
	userID := flag.Int64("user", 1, "user identity for the memory panel")
	flag.Parse()

	p := tea.NewProgram(newModel(*wsURL, *dbPath, *userID), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatal(err)
	}
}
