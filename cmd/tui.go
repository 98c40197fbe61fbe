// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/otlink/pkg/opentherm"
	"github.com/Thermoquad/otlink/pkg/otgw"
)

// Error log entry
type errorLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for warnings
}

// Latest values reported by the boiler
type boilerState struct {
	timestamp   time.Time
	masterFlags uint8
	slaveFlags  uint8
	hasStatus   bool
	values      map[opentherm.DataID]float64
}

// Data-ids shown in the boiler panel, in display order
var boilerPanelIDs = []struct {
	id    opentherm.DataID
	label string
	unit  string
}{
	{opentherm.MsgTSet, "Setpoint", "°C"},
	{opentherm.MsgTBoiler, "Flow", "°C"},
	{opentherm.MsgTRet, "Return", "°C"},
	{opentherm.MsgTDHW, "DHW", "°C"},
	{opentherm.MsgTOutside, "Outside", "°C"},
	{opentherm.MsgRelModLevel, "Modulation", "%"},
	{opentherm.MsgCHPressure, "Pressure", "bar"},
}

// TUI model
type model struct {
	connInfo      string
	statsInterval int
	showAll       bool
	stats         *opentherm.Statistics
	errorLog      []errorLogEntry
	maxLogEntries int
	logView       viewport.Model
	synchronized  bool
	invalidLines  int
	width         int
	height        int
	quitting      bool
	startTime     time.Time
	boiler        *boilerState
}

// Messages
type tickMsg time.Time
type gatewayDataMsg struct {
	message          *otgw.Message
	decodeErr        error
	validationErrors []opentherm.ValidationError
}
type syncMsg struct {
	invalidLines int
}

// formatUptime formats a duration in milliseconds to human-friendly string
func formatUptime(ms uint64) string {
	if ms == 0 {
		return "0 seconds"
	}

	seconds := ms / 1000
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	seconds %= 60
	minutes %= 60
	hours %= 24

	plural := func(n uint64, unit string) string {
		if n == 1 {
			return "1 " + unit
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}

	parts := []string{}
	if days > 0 {
		parts = append(parts, plural(days, "day"))
	}
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, plural(seconds, "second"))
	}

	// Join with commas and "and" for last item
	if len(parts) == 1 {
		return parts[0]
	}
	if len(parts) == 2 {
		return parts[0] + " and " + parts[1]
	}
	last := parts[len(parts)-1]
	rest := strings.Join(parts[:len(parts)-1], ", ")
	return rest + ", and " + last
}

func initialModel(connInfo string, statsInterval int, showAll bool) model {
	m := model{
		connInfo:      connInfo,
		statsInterval: statsInterval,
		showAll:       showAll,
		stats:         opentherm.NewStatistics(),
		errorLog:      make([]errorLogEntry, 0),
		maxLogEntries: 500,
		logView:       viewport.New(76, 5),
		width:         80,
		height:        24,
		startTime:     time.Now(),
	}
	m.refreshLog()
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		tea.EnterAltScreen,
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			m.stats.Reset()
			m.addLogEntry("Statistics reset", false)
			return m, nil
		}
		// Remaining keys scroll the event log
		var cmd tea.Cmd
		m.logView, cmd = m.logView.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeLog()

	case tickMsg:
		// Update statistics rates
		m.stats.CalculateRates()
		return m, tickCmd()

	case syncMsg:
		m.synchronized = true
		m.invalidLines = msg.invalidLines
		if msg.invalidLines > 0 {
			m.addLogEntry(fmt.Sprintf("Synchronized after skipping %d invalid lines", msg.invalidLines), false)
		} else {
			m.addLogEntry("Synchronized", false)
		}

	case gatewayDataMsg:
		if msg.decodeErr != nil {
			if m.synchronized {
				m.addLogEntry(fmt.Sprintf("DECODE ERROR: %v", msg.decodeErr), true)
			}
		} else if msg.message != nil && !msg.message.IsFrame() {
			if m.showAll {
				m.addLogEntry("GATEWAY: "+msg.message.Text, false)
			}
		} else if msg.message != nil {
			gm := msg.message
			m.stats.Update(exchangeFromMessage(gm), msg.validationErrors)
			m.trackBoiler(gm)

			name := fmt.Sprintf("%s %s %s", gm.Source, gm.Frame.MessageType(), gm.Frame.DataID())
			if len(msg.validationErrors) > 0 {
				for _, err := range msg.validationErrors {
					m.addLogEntry(fmt.Sprintf("%s: %s", name, err.Message), true)
				}
			} else if m.showAll {
				m.addLogEntry(fmt.Sprintf("%s = %s", name, opentherm.FormatPayload(gm.Frame.DataID(), gm.Frame.UInt16())), false)
			}
		}
	}

	return m, nil
}

func (m *model) addLogEntry(message string, isError bool) {
	entry := errorLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.errorLog = append(m.errorLog, entry)

	// Keep only last N entries
	if len(m.errorLog) > m.maxLogEntries {
		m.errorLog = m.errorLog[len(m.errorLog)-m.maxLogEntries:]
	}
	m.refreshLog()
}

func (m *model) resizeLog() {
	// Reserve space for header, stats and the boiler panel
	logHeight := m.height - 20
	if logHeight < 5 {
		logHeight = 5
	}
	m.logView.Width = m.width - 6
	m.logView.Height = logHeight
	m.refreshLog()
}

func (m *model) refreshLog() {
	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warningStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	if len(m.errorLog) == 0 {
		m.logView.SetContent(headerStyle.Render("  (no events yet)"))
		return
	}

	var content strings.Builder
	for _, entry := range m.errorLog {
		timestamp := entry.timestamp.Format("01/02/06 15:04:05.000")
		if entry.isError {
			content.WriteString(fmt.Sprintf("%s %s\n", headerStyle.Render(timestamp), errorStyle.Render("✗ "+entry.message)))
		} else {
			content.WriteString(fmt.Sprintf("%s %s\n", headerStyle.Render(timestamp), warningStyle.Render("ℹ "+entry.message)))
		}
	}
	m.logView.SetContent(content.String())
	m.logView.GotoBottom()
}

// trackBoiler keeps the latest acknowledged values per data-id
func (m *model) trackBoiler(msg *otgw.Message) {
	f := msg.Frame
	if frameStatus(msg) != opentherm.ResponseSuccess {
		return
	}
	// Only boiler answers and the thermostat's own setpoint writes
	if msg.Source.IsRequest() && f.MessageType() != opentherm.WriteData {
		return
	}

	if m.boiler == nil {
		m.boiler = &boilerState{values: make(map[opentherm.DataID]float64)}
	}
	m.boiler.timestamp = msg.Timestamp

	if f.DataID() == opentherm.MsgStatus && !msg.Source.IsRequest() {
		m.boiler.masterFlags = f.HighByte()
		m.boiler.slaveFlags = f.LowByte()
		m.boiler.hasStatus = true
		return
	}
	if f.DataID().Kind() == opentherm.KindF88 {
		m.boiler.values[f.DataID()] = f.Float()
	}
}

func (m model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	statsLabelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	statsValueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	// Header
	var s strings.Builder
	s.WriteString(titleStyle.Render("OTLINK - ERROR DETECTION"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | Mode: %s | Up %s | 'r' reset, 'q' quit",
		m.connInfo, func() string {
			if m.showAll {
				return "All frames"
			}
			return "Errors only"
		}(), formatUptime(uint64(time.Since(m.startTime).Milliseconds())))))
	s.WriteString("\n\n")

	// Sync status
	if !m.synchronized {
		s.WriteString(warningStyle.Render("⏳ Waiting for synchronization..."))
		s.WriteString("\n\n")
	} else {
		s.WriteString(statsValueStyle.Render("✓ Synchronized"))
		if m.invalidLines > 0 {
			s.WriteString(headerStyle.Render(fmt.Sprintf(" (skipped %d invalid lines)", m.invalidLines)))
		}
		s.WriteString("\n\n")
	}

	// Statistics
	m.stats.CalculateRates()
	totalErrors := m.stats.ErrorFrames
	var errorPercent float64
	if m.stats.TotalFrames > 0 {
		errorPercent = float64(totalErrors) * 100.0 / float64(m.stats.TotalFrames)
	}

	statsContent := strings.Builder{}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Total:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.TotalFrames)),
		statsLabelStyle.Render("Valid:"), statsValueStyle.Render(fmt.Sprintf("%d (%.1f%%)", m.stats.ValidFrames, m.stats.SuccessRate())),
		statsLabelStyle.Render("Errors:"), errorStyle.Render(fmt.Sprintf("%d (%.1f%%)", totalErrors, errorPercent)),
	))

	if m.stats.ParityErrors > 0 || m.stats.IllegalTypes > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %s   %s %s\n",
			statsLabelStyle.Render("Parity Errors:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.ParityErrors)),
			statsLabelStyle.Render("Illegal Types:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.IllegalTypes)),
		))
	}

	if m.stats.UnknownDataIDs > 0 || m.stats.AnomalousValues > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %s   %s %s\n",
			statsLabelStyle.Render("Unknown IDs:"), warningStyle.Render(fmt.Sprintf("%d", m.stats.UnknownDataIDs)),
			statsLabelStyle.Render("Anomalous:"), warningStyle.Render(fmt.Sprintf("%d", m.stats.AnomalousValues)),
		))
	}

	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s",
		statsLabelStyle.Render("Frame Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f frames/s", m.stats.FrameRate)),
		statsLabelStyle.Render("Error Rate:"), func() string {
			if m.stats.ErrorRate > 0 {
				return errorStyle.Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate))
			}
			return statsValueStyle.Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate))
		}(),
	))

	s.WriteString(boxStyle.Render(statsContent.String()))
	s.WriteString("\n\n")

	// Boiler section (only shown once an answer was seen)
	if m.boiler != nil {
		s.WriteString(statsLabelStyle.Render("Boiler:"))
		s.WriteString("\n")

		boilerContent := strings.Builder{}
		if m.boiler.hasStatus {
			flag := func(on bool, name string) string {
				if on {
					return statsValueStyle.Render(name)
				}
				return headerStyle.Render(name)
			}
			sf := m.boiler.slaveFlags
			boilerContent.WriteString(fmt.Sprintf("%s %s %s %s %s %s\n",
				statsLabelStyle.Render("Status:"),
				flag(sf&opentherm.SlaveCHActive != 0, "CH"),
				flag(sf&opentherm.SlaveDHWActive != 0, "DHW"),
				flag(sf&opentherm.SlaveFlameOn != 0, "FLAME"),
				flag(sf&opentherm.SlaveCoolingActive != 0, "COOL"),
				func() string {
					if sf&opentherm.SlaveFault != 0 {
						return errorStyle.Render("FAULT")
					}
					return headerStyle.Render("FAULT")
				}(),
			))
		}

		for _, row := range boilerPanelIDs {
			v, ok := m.boiler.values[row.id]
			if !ok {
				continue
			}
			boilerContent.WriteString(fmt.Sprintf("%s %s\n",
				statsLabelStyle.Render(fmt.Sprintf("%-11s", row.label+":")),
				statsValueStyle.Render(fmt.Sprintf("%.2f %s", v, row.unit)),
			))
		}
		boilerContent.WriteString(headerStyle.Render("updated " + m.boiler.timestamp.Format("15:04:05")))

		s.WriteString(boxStyle.Render(boilerContent.String()))
		s.WriteString("\n\n")
	}

	// Event log
	s.WriteString(statsLabelStyle.Render("Recent Events:"))
	s.WriteString("\n")
	s.WriteString(boxStyle.Width(m.width - 4).Render(m.logView.View()))

	return s.String()
}
