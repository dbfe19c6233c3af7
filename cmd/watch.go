// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Roverlab

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/roverlab/dynctl/pkg/dxl"
)

var (
	watchIDs      []uint
	watchInterval time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live position/load/temperature dashboard",
	Long: `Poll a set of motors with sync reads and display their present
position, velocity, load, voltage and temperature in a live table.

Motors that stop answering are flagged rather than dropped, so a flaky
connection is visible at a glance.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().UintSliceVar(&watchIDs, "ids", []uint{1}, "Motor IDs to watch")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 100*time.Millisecond, "Poll interval")
	rootCmd.AddCommand(watchCmd)
}

//////////////////////////////////////////////////////////////
// Styles
//////////////////////////////////////////////////////////////

var (
	watchTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("57")).
			Padding(0, 1)

	watchHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("245"))

	watchRowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	watchStaleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))

	watchHelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// motorState is one motor's most recent feedback sample.
type motorState struct {
	id          byte
	position    uint32
	velocity    uint32
	current     uint16
	voltage     uint16
	temperature byte
	alert       bool
	lastSeen    time.Time
	seen        bool
}

type watchModel struct {
	bus      *dxl.Bus
	connInfo string
	ids      []byte
	interval time.Duration

	motors  map[byte]*motorState
	spin    spinner.Model
	polls   int
	partial int
	lastErr error

	width    int
	quitting bool
}

type watchTickMsg time.Time

type watchSampleMsg struct {
	samples map[byte][]byte
	alerts  map[byte]bool
	err     error
}

//////////////////////////////////////////////////////////////
// Model
//////////////////////////////////////////////////////////////

func newWatchModel(bus *dxl.Bus, connInfo string, ids []byte, interval time.Duration) watchModel {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	motors := make(map[byte]*motorState, len(ids))
	for _, id := range ids {
		motors[id] = &motorState{id: id}
	}

	return watchModel{
		bus:      bus,
		connInfo: connInfo,
		ids:      ids,
		interval: interval,
		motors:   motors,
		spin:     sp,
	}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.pollCmd())
}

// pollCmd samples every watched motor's feedback block with one bulk
// read. The feedback registers are contiguous from present current
// through present position; voltage and temperature are fetched in the
// same broadcast.
func (m watchModel) pollCmd() tea.Cmd {
	bus := m.bus
	ids := m.ids
	return func() tea.Msg {
		reads := make([]dxl.BulkReadRequest, len(ids))
		for i, id := range ids {
			reads[i] = dxl.BulkReadRequest{
				ID:      id,
				Address: dxl.RegPresentCurrent.Address,
				Count:   21, // current(2) + velocity(4) + position(4) + gap(8) + voltage(2) + temperature(1)
			}
		}
		samples := make(map[byte][]byte, len(ids))
		alerts := make(map[byte]bool, len(ids))
		err := bus.BulkRead(reads, func(resp dxl.Response[[]byte]) {
			samples[resp.MotorID] = resp.Data
			alerts[resp.MotorID] = resp.Alert
		})
		return watchSampleMsg{samples: samples, alerts: alerts, err: err}
	}
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case watchSampleMsg:
		m.polls++
		m.lastErr = nil
		if msg.err != nil {
			if dxl.IsTimeout(msg.err) {
				m.partial++
			} else {
				m.lastErr = msg.err
			}
		}
		now := time.Now()
		for id, data := range msg.samples {
			state, ok := m.motors[id]
			if !ok || len(data) < 21 {
				continue
			}
			state.current = uint16(data[0]) | uint16(data[1])<<8
			state.velocity = uint32(data[2]) | uint32(data[3])<<8 | uint32(data[4])<<16 | uint32(data[5])<<24
			state.position = uint32(data[6]) | uint32(data[7])<<8 | uint32(data[8])<<16 | uint32(data[9])<<24
			state.voltage = uint16(data[18]) | uint16(data[19])<<8
			state.temperature = data[20]
			state.alert = msg.alerts[id]
			state.lastSeen = now
			state.seen = true
		}
		return m, tea.Tick(m.interval, func(t time.Time) tea.Msg {
			return watchTickMsg(t)
		})

	case watchTickMsg:
		return m, m.pollCmd()
	}

	return m, nil
}

func (m watchModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(watchTitleStyle.Render("Dynctl Watch"))
	b.WriteString("  " + m.connInfo + "  " + m.spin.View())
	b.WriteString("\n\n")

	b.WriteString(watchHeaderStyle.Render(fmt.Sprintf(
		"%4s  %10s  %10s  %8s  %7s  %5s  %s",
		"ID", "Position", "Velocity", "Current", "Volt", "Temp", "Status")))
	b.WriteString("\n")

	now := time.Now()
	for _, id := range m.ids {
		state := m.motors[id]
		if !state.seen {
			b.WriteString(watchStaleStyle.Render(fmt.Sprintf("%4d  %63s", id, "no reply yet")))
			b.WriteString("\n")
			continue
		}

		status := "ok"
		style := watchRowStyle
		if state.alert {
			status = "alert"
			style = watchStaleStyle
		}
		if now.Sub(state.lastSeen) > 3*m.interval+time.Second {
			status = "stale " + now.Sub(state.lastSeen).Truncate(time.Second).String()
			style = watchStaleStyle
		}

		b.WriteString(style.Render(fmt.Sprintf(
			"%4d  %10d  %10d  %8d  %5.1fV  %4d°  %s",
			id, state.position, state.velocity, int16(state.current),
			float64(state.voltage)/10, state.temperature, status)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	summary := fmt.Sprintf("%d polls, %d partial", m.polls, m.partial)
	if m.lastErr != nil {
		summary += "  last error: " + m.lastErr.Error()
	}
	b.WriteString(watchHelpStyle.Render(summary))
	b.WriteString("\n")
	b.WriteString(watchHelpStyle.Render("q: quit"))
	return b.String()
}

//////////////////////////////////////////////////////////////
// Command
//////////////////////////////////////////////////////////////

func runWatch(cmd *cobra.Command, args []string) error {
	if len(watchIDs) == 0 {
		return fmt.Errorf("at least one motor ID is required")
	}

	bus, connInfo, err := openBus()
	if err != nil {
		return err
	}
	defer bus.Close()

	ids := make([]byte, len(watchIDs))
	for i, id := range watchIDs {
		if id > uint(dxl.MaxMotorID) {
			return fmt.Errorf("invalid motor ID %d", id)
		}
		ids[i] = byte(id)
	}

	model := newWatchModel(bus, connInfo, ids, watchInterval)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
