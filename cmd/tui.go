// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ventolink/ventoctl/pkg/vento"
)

// Error log entry
type errorLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for info
}

// unitSnapshot is the latest state a unit reported
type unitSnapshot struct {
	timestamp time.Time
	from      string
	status    vento.Status
}

// TUI model
type model struct {
	address       string
	showAll       bool
	stats         *vento.Statistics
	errorLog      []errorLogEntry
	maxLogEntries int
	units         map[string]*unitSnapshot
	width         int
	height        int
	quitting      bool
	err           error
}

// Messages
type tickMsg time.Time
type datagramMsg observation
type monitorErrMsg struct {
	err error
}

// formatElapsed formats a duration to a human-friendly string
func formatElapsed(d time.Duration) string {
	if d < time.Second {
		return "0 seconds"
	}

	seconds := int64(d / time.Second)
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	seconds %= 60
	minutes %= 60
	hours %= 24

	parts := []string{}
	plural := func(n int64, unit string) {
		if n == 1 {
			parts = append(parts, "1 "+unit)
		} else if n > 1 {
			parts = append(parts, fmt.Sprintf("%d %ss", n, unit))
		}
	}
	plural(days, "day")
	plural(hours, "hour")
	plural(minutes, "minute")
	if seconds > 0 || len(parts) == 0 {
		plural(seconds, "second")
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

func initialModel(address string, showAll bool) model {
	return model{
		address:       address,
		showAll:       showAll,
		stats:         vento.NewStatistics(),
		errorLog:      make([]errorLogEntry, 0),
		maxLogEntries: 100,
		units:         make(map[string]*unitSnapshot),
		width:         80,
		height:        24,
	}
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
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		m.stats.CalculateRates()
		return m, tickCmd()

	case monitorErrMsg:
		m.err = msg.err
		m.quitting = true
		return m, tea.Quit

	case datagramMsg:
		m.stats.Update(msg.Packet, msg.Err, msg.validationErrors)
		if msg.Err != nil {
			m.addLogEntry(fmt.Sprintf("DECODE ERROR from %s: %v", msg.From, msg.Err), true)
			return m, nil
		}

		m.recordUnit(observation(msg))
		fn := vento.FormatFunctionType(msg.Packet.FunctionType())
		if len(msg.validationErrors) > 0 {
			for _, err := range msg.validationErrors {
				m.addLogEntry(fmt.Sprintf("%s %s: %s", fn, msg.Packet.DeviceID(), err.Message), true)
			}
		} else if m.showAll {
			m.addLogEntry(fmt.Sprintf("%s %s from %s, %d entries (valid)", fn, msg.Packet.DeviceID(), msg.From, msg.Packet.Len()), false)
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
}

// recordUnit keeps the latest state of each responding unit. Partial
// replies update only the fields they carry.
func (m *model) recordUnit(obs observation) {
	if !obs.Packet.IsResponse() {
		return
	}
	status := vento.StatusFromPacket(obs.Packet)
	snap, ok := m.units[status.DeviceID]
	if !ok {
		snap = &unitSnapshot{}
		m.units[status.DeviceID] = snap
	}
	snap.timestamp = obs.Time
	snap.from = obs.From.IP.String()
	snap.status.Merge(status)
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
	s.WriteString(titleStyle.Render("VENTOCTL - MONITOR"))
	s.WriteString("\n")
	mode := "Errors only"
	if m.showAll {
		mode = "All packets"
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("Listening: %s | Mode: %s | Press 'q' to quit", m.address, mode)))
	s.WriteString("\n\n")

	// Statistics
	m.stats.CalculateRates()
	totalErrors := m.stats.DecodeErrors() + m.stats.AnomalousPackets
	var validPercent, errorPercent float64
	if m.stats.TotalPackets > 0 {
		validPercent = float64(m.stats.ValidPackets) * 100.0 / float64(m.stats.TotalPackets)
		errorPercent = float64(totalErrors) * 100.0 / float64(m.stats.TotalPackets)
	}

	statsContent := strings.Builder{}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Total:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.TotalPackets)),
		statsLabelStyle.Render("Valid:"), statsValueStyle.Render(fmt.Sprintf("%d (%.1f%%)", m.stats.ValidPackets, validPercent)),
		statsLabelStyle.Render("Errors:"), errorStyle.Render(fmt.Sprintf("%d (%.1f%%)", totalErrors, errorPercent)),
	))

	if m.stats.DecodeErrors() > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %s (%s: %d, %s: %d, %s: %d, %s: %d, %s: %d)\n",
			statsLabelStyle.Render("Decode Errors:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.DecodeErrors())),
			headerStyle.Render("header"), m.stats.HeaderErrors,
			headerStyle.Render("protocol"), m.stats.ProtocolErrors,
			headerStyle.Render("checksum"), m.stats.ChecksumErrors,
			headerStyle.Render("parameter"), m.stats.ParameterErrors,
			headerStyle.Render("truncated"), m.stats.TruncatedPackets,
		))
	}

	if m.stats.AnomalousPackets > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %s (%s: %d, %s: %d, %s: %d, %s: %d)\n",
			statsLabelStyle.Render("Anomalous:"), warningStyle.Render(fmt.Sprintf("%d", m.stats.AnomalousPackets)),
			headerStyle.Render("size mismatch"), m.stats.SizeMismatches,
			headerStyle.Render("invalid value"), m.stats.InvalidValues,
			headerStyle.Render("high RPM"), m.stats.HighRPM,
			headerStyle.Render("invalid humidity"), m.stats.InvalidHumidities,
		))
	}

	errorRate := statsValueStyle.Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate))
	if m.stats.ErrorRate > 0 {
		errorRate = errorStyle.Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate))
	}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s",
		statsLabelStyle.Render("Packet Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f pkts/s", m.stats.PacketRate)),
		statsLabelStyle.Render("Error Rate:"), errorRate,
		statsLabelStyle.Render("Uptime:"), statsValueStyle.Render(formatElapsed(time.Since(m.stats.StartTime))),
	))

	s.WriteString(boxStyle.Render(statsContent.String()))
	s.WriteString("\n\n")

	// Units section (only shown once a unit has answered)
	if len(m.units) > 0 {
		s.WriteString(statsLabelStyle.Render("Units:"))
		s.WriteString("\n")

		ids := make([]string, 0, len(m.units))
		for id := range m.units {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		unitContent := strings.Builder{}
		for _, id := range ids {
			snap := m.units[id]
			unitContent.WriteString(fmt.Sprintf("%s %s  %s\n",
				statsLabelStyle.Render(id),
				headerStyle.Render(snap.from),
				headerStyle.Render("seen "+formatElapsed(time.Since(snap.timestamp))+" ago"),
			))
			var fields []string
			for _, f := range statusFields(snap.status, "") {
				if f.key == "device_id" {
					continue
				}
				fields = append(fields, fmt.Sprintf("%s %s", f.label+":", statsValueStyle.Render(f.value)))
			}
			if len(fields) > 0 {
				unitContent.WriteString("  " + strings.Join(fields, "   ") + "\n")
			}
		}

		s.WriteString(boxStyle.Render(strings.TrimSuffix(unitContent.String(), "\n")))
		s.WriteString("\n\n")
	}

	// Error log
	s.WriteString(statsLabelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	// Calculate how many log entries we can show
	logHeight := m.height - 15 - 3*len(m.units)
	if logHeight < 5 {
		logHeight = 5
	}

	logContent := strings.Builder{}
	startIdx := len(m.errorLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	if len(m.errorLog) == 0 {
		logContent.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.errorLog); i++ {
			entry := m.errorLog[i]
			timestamp := entry.timestamp.Format("01/02/06 15:04:05.000")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					errorStyle.Render("✗ "+entry.message),
				))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					warningStyle.Render("ℹ "+entry.message),
				))
			}
		}
	}

	s.WriteString(boxStyle.Width(m.width - 4).Render(logContent.String()))

	return s.String()
}
