// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ventolink/ventoctl/pkg/vento"
	"github.com/ventolink/ventoctl/pkg/ventonet"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

// Focus states
const (
	focusDeviceList = iota
	focusSpeedInput
	focusButton
)

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// device represents a discovered or configured unit
type device struct {
	target
	status    vento.Status
	hasStatus bool
	lastSeen  time.Time
	silent    int // consecutive polls without reply
}

// Implement list.Item interface
func (d device) Title() string {
	if d.Name != "" {
		return d.Name
	}
	return "Unit " + d.ID
}

func (d device) Description() string {
	switch {
	case d.silent > 0:
		return fmt.Sprintf("%s  NO RESPONSE", d.IP)
	case !d.hasStatus:
		return d.IP
	case !d.status.On:
		return fmt.Sprintf("%s  OFF", d.IP)
	default:
		return fmt.Sprintf("%s  %s %s", d.IP, d.status.Speed, d.status.Mode)
	}
}

func (d device) FilterValue() string { return d.ID }

// controlModel is the Bubble Tea model for the control TUI
type controlModel struct {
	poller   *unitPoller
	password string // used for units without a configured password

	// Device tracking
	devices    []device
	deviceList list.Model

	// Discovery state
	discoveryDone  bool
	discoveryStart time.Time

	// Monitoring (reused from tui.go patterns)
	stats         *vento.Statistics
	errorLog      []errorLogEntry
	maxLogEntries int
	lastRTT       time.Duration

	// Control
	speedInput   textinput.Model
	focusedField int

	// UI state
	width    int
	height   int
	quitting bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type controlTickMsg time.Time

type controlDataMsg struct {
	packet           *vento.Packet
	decodeErr        error
	validationErrors []vento.ValidationError
}

type controlBatchMsg struct {
	messages []controlDataMsg
}

type discoveryResultMsg struct {
	devices []ventonet.DeviceAddress
	err     error
}

type controlStatusMsg struct {
	id     string
	ip     string
	status vento.Status
	rtt    time.Duration
}

type unitSilentMsg struct {
	id       string
	failures int
	retry    time.Duration
}

type commandResultMsg struct {
	id     string
	label  string
	status *vento.Status
	err    error
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialControlModel(poller *unitPoller, password string) controlModel {
	// Initialize text input for manual speed
	ti := textinput.New()
	ti.Placeholder = "128"
	ti.CharLimit = 3
	ti.Width = 6

	// Initialize device list with empty items
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.SetHeight(2)
	deviceList := list.New([]list.Item{}, delegate, 30, 10)
	deviceList.Title = "Units"
	deviceList.SetShowStatusBar(false)
	deviceList.SetShowHelp(false)
	deviceList.SetFilteringEnabled(false)

	return controlModel{
		poller:         poller,
		password:       password,
		devices:        make([]device, 0),
		deviceList:     deviceList,
		discoveryStart: time.Now(),
		stats:          vento.NewStatistics(),
		errorLog:       make([]errorLogEntry, 0),
		maxLogEntries:  100,
		speedInput:     ti,
		focusedField:   focusDeviceList,
		width:          80,
		height:         24,
	}
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m controlModel) Init() tea.Cmd {
	return tea.Batch(controlTickCmd(), m.poller.discover())
}

func controlTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return controlTickMsg(t)
	})
}

func (m controlModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.MouseMsg:
		return m.handleMouseMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateListSize()

	case controlTickMsg:
		m.stats.CalculateRates()
		return m, controlTickCmd()

	case controlBatchMsg:
		for _, data := range msg.messages {
			m.processControlData(data)
		}

	case discoveryResultMsg:
		m.finishDiscovery(msg)

	case controlStatusMsg:
		m.lastRTT = msg.rtt
		if dev := m.findDevice(msg.id); dev != nil {
			if dev.silent > 0 {
				m.addLogEntry(fmt.Sprintf("%s answering again", dev.Title()), false)
			}
			m.applyStatus(dev, msg.status)
			dev.silent = 0
			m.updateDeviceList()
		}

	case unitSilentMsg:
		if dev := m.findDevice(msg.id); dev != nil {
			dev.silent = msg.failures
			m.updateDeviceList()
			m.addLogEntry(fmt.Sprintf("%s did not answer (%d), retry in %s", dev.Title(), msg.failures, msg.retry), true)
		}

	case commandResultMsg:
		m.handleCommandResult(msg)
	}

	// Update child components
	var cmd tea.Cmd
	if m.focusedField == focusSpeedInput {
		m.speedInput, cmd = m.speedInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	if m.focusedField == focusDeviceList {
		m.deviceList, cmd = m.deviceList.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *controlModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "tab":
		return m.cycleFocus(1), nil

	case "shift+tab":
		return m.cycleFocus(-1), nil

	case "enter":
		if m.discoveryDone {
			return m.handleEnter()
		}
		return m, nil
	}

	// The speed input consumes everything else
	if m.focusedField == focusSpeedInput {
		var cmd tea.Cmd
		m.speedInput, cmd = m.speedInput.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit

	case "r":
		if m.discoveryDone {
			m.resetDiscovery()
			m.addLogEntry("Rediscovering units", false)
			return m, m.poller.discover()
		}

	case "p":
		return m.sendPowerToggle()

	case "1", "2", "3":
		speed := vento.Speed(msg.String()[0] - '0')
		return m.sendCommand(fmt.Sprintf("speed %s", speed), func(t target) *vento.Packet {
			return vento.NewSpeedCommand(t.ID, t.Password, speed)
		})

	case "m":
		return m.sendModeCycle()

	case "up", "k", "down", "j":
		if m.focusedField == focusDeviceList {
			m.deviceList, _ = m.deviceList.Update(msg)
		}
	}

	return m, nil
}

func (m *controlModel) handleMouseMsg(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}

	// Pass clicks to the list
	m.deviceList, _ = m.deviceList.Update(msg)

	return m, nil
}

func (m *controlModel) cycleFocus(delta int) *controlModel {
	if !m.discoveryDone {
		return m
	}

	maxFocus := focusButton
	selected := m.getSelectedDevice()
	if selected == nil {
		m.focusedField = focusDeviceList
		return m
	}

	m.focusedField = (m.focusedField + delta + maxFocus + 1) % (maxFocus + 1)

	// Skip the speed input until the unit has reported its state
	if m.focusedField == focusSpeedInput && !selected.hasStatus {
		m.focusedField = (m.focusedField + delta + maxFocus + 1) % (maxFocus + 1)
	}

	if m.focusedField == focusSpeedInput {
		m.speedInput.Focus()
	} else {
		m.speedInput.Blur()
	}

	return m
}

func (m *controlModel) handleEnter() (tea.Model, tea.Cmd) {
	switch m.focusedField {
	case focusSpeedInput:
		return m.sendManualSpeed()
	case focusButton:
		return m.sendPowerToggle()
	}
	return m, nil
}

func (m controlModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder

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

	focusedBoxStyle := boxStyle.
		BorderForeground(lipgloss.Color("12"))

	buttonStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("0")).
		Background(lipgloss.Color("12")).
		Padding(0, 2)

	focusedButtonStyle := buttonStyle.
		Background(lipgloss.Color("10"))

	// Header
	helpText := "ctrl+c=quit"
	if m.discoveryDone {
		helpText = "q=quit Tab=switch p=power 1-3=speed m=mode r=rediscover"
	}
	s.WriteString(titleStyle.Render("VENTOCTL CONTROL"))
	s.WriteString(" ")
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s:%d | %s", cfg.BroadcastAddress, cfg.Port, helpText)))
	s.WriteString("\n\n")

	if !m.discoveryDone {
		s.WriteString(m.renderDiscoveryView(statsLabelStyle, warningStyle, boxStyle))
	} else {
		s.WriteString(m.renderControlView(statsLabelStyle, statsValueStyle, errorStyle, warningStyle, headerStyle, boxStyle, focusedBoxStyle, buttonStyle, focusedButtonStyle))
	}

	return s.String()
}

//////////////////////////////////////////////////////////////
// View Helpers
//////////////////////////////////////////////////////////////

func (m controlModel) renderDiscoveryView(statsLabelStyle, warningStyle, boxStyle lipgloss.Style) string {
	var s strings.Builder

	s.WriteString(warningStyle.Render("Discovering units..."))
	s.WriteString("\n")
	s.WriteString(fmt.Sprintf("Elapsed: %s (quiet window %s)\n\n", formatElapsed(time.Since(m.discoveryStart)), cfg.Timeout))

	s.WriteString(m.renderEventLog(statsLabelStyle, warningStyle, boxStyle))

	return s.String()
}

func (m controlModel) renderControlView(statsLabelStyle, statsValueStyle, errorStyle, warningStyle, headerStyle, boxStyle, focusedBoxStyle, buttonStyle, focusedButtonStyle lipgloss.Style) string {
	var s strings.Builder

	// Layout: left panel (devices) | right panel (control)
	leftWidth := 30
	rightWidth := m.width - leftWidth - 6

	listStyle := boxStyle.Width(leftWidth)
	if m.focusedField == focusDeviceList {
		listStyle = focusedBoxStyle.Width(leftWidth)
	}
	devicePanel := listStyle.Render(m.deviceList.View())

	controlContent := m.renderControlPanel(statsLabelStyle, statsValueStyle, headerStyle, buttonStyle, focusedButtonStyle)
	controlPanel := boxStyle.Width(rightWidth).Render(controlContent)

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, devicePanel, " ", controlPanel))
	s.WriteString("\n\n")

	s.WriteString(m.renderStatisticsBar(statsLabelStyle, statsValueStyle, errorStyle, boxStyle))
	s.WriteString("\n\n")

	if selected := m.getSelectedDevice(); selected != nil {
		s.WriteString(m.renderStatus(selected, statsLabelStyle, statsValueStyle, boxStyle))
		s.WriteString("\n\n")
	}

	s.WriteString(m.renderEventLog(statsLabelStyle, warningStyle, boxStyle))

	return s.String()
}

func (m controlModel) renderControlPanel(statsLabelStyle, statsValueStyle, headerStyle, buttonStyle, focusedButtonStyle lipgloss.Style) string {
	var s strings.Builder

	selected := m.getSelectedDevice()
	if selected == nil {
		s.WriteString(headerStyle.Render("No unit selected (r to rediscover)"))
		return s.String()
	}

	s.WriteString(fmt.Sprintf("%s %s\n", statsLabelStyle.Render("Selected:"), selected.target))
	if !selected.hasStatus {
		s.WriteString(headerStyle.Render("Waiting for status..."))
		return s.String()
	}

	st := selected.status
	s.WriteString(fmt.Sprintf("%s %s  %s %s  %s %s\n\n",
		statsLabelStyle.Render("Power:"), statsValueStyle.Render(onOff(st.On)),
		statsLabelStyle.Render("Speed:"), statsValueStyle.Render(st.Speed.String()),
		statsLabelStyle.Render("Mode:"), statsValueStyle.Render(st.Mode.String()),
	))

	s.WriteString(statsLabelStyle.Render("Manual speed (0-255): "))
	if m.focusedField == focusSpeedInput {
		s.WriteString(m.speedInput.View())
	} else {
		val := m.speedInput.Value()
		if val == "" {
			val = strconv.Itoa(int(st.ManualSpeed))
		}
		s.WriteString(fmt.Sprintf("[%s]", val))
	}
	s.WriteString("\n\n")

	btnText := "[ Turn On ]"
	if st.On {
		btnText = "[ Turn Off ]"
	}
	if m.focusedField == focusButton {
		s.WriteString(focusedButtonStyle.Render(btnText))
	} else {
		s.WriteString(buttonStyle.Render(btnText))
	}

	return s.String()
}

func (m controlModel) renderStatisticsBar(statsLabelStyle, statsValueStyle, errorStyle, boxStyle lipgloss.Style) string {
	m.stats.CalculateRates()
	var validPercent, errorPercent float64
	if m.stats.TotalPackets > 0 {
		validPercent = float64(m.stats.ValidPackets) * 100.0 / float64(m.stats.TotalPackets)
		totalErrors := m.stats.DecodeErrors() + m.stats.AnomalousPackets
		errorPercent = float64(totalErrors) * 100.0 / float64(m.stats.TotalPackets)
	}

	errText := statsValueStyle.Render("0.0%")
	if errorPercent > 0 {
		errText = errorStyle.Render(fmt.Sprintf("%.1f%%", errorPercent))
	}
	content := fmt.Sprintf("%s %s  %s %s  %s %s  %s %s  %s %s",
		statsLabelStyle.Render("Total:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.TotalPackets)),
		statsLabelStyle.Render("Valid:"), statsValueStyle.Render(fmt.Sprintf("%.1f%%", validPercent)),
		statsLabelStyle.Render("Errors:"), errText,
		statsLabelStyle.Render("Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f pkt/s", m.stats.PacketRate)),
		statsLabelStyle.Render("RTT:"), statsValueStyle.Render(m.lastRTT.Round(time.Millisecond).String()),
	)

	return boxStyle.Width(m.width - 4).Render(content)
}

func (m controlModel) renderStatus(dev *device, statsLabelStyle, statsValueStyle, boxStyle lipgloss.Style) string {
	var content strings.Builder
	content.WriteString(statsLabelStyle.Render("STATUS"))
	content.WriteString(" | ")

	if !dev.hasStatus {
		content.WriteString("No status data")
		return boxStyle.Width(m.width - 4).Render(content.String())
	}

	var fields []string
	for _, f := range statusFields(dev.status, "") {
		if f.key == "device_id" {
			continue
		}
		fields = append(fields, fmt.Sprintf("%s %s", statsLabelStyle.Render(f.label+":"), statsValueStyle.Render(f.value)))
	}
	content.WriteString(strings.Join(fields, "  "))
	content.WriteString(fmt.Sprintf("  %s %s ago",
		statsLabelStyle.Render("Updated:"),
		statsValueStyle.Render(formatElapsed(time.Since(dev.lastSeen)))))

	return boxStyle.Width(m.width - 4).Render(content.String())
}

func (m controlModel) renderEventLog(statsLabelStyle, warningStyle, boxStyle lipgloss.Style) string {
	var s strings.Builder
	s.WriteString(statsLabelStyle.Render("EVENTS"))
	s.WriteString("\n")

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyleLocal := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

	logHeight := 8
	if len(m.errorLog) < logHeight {
		logHeight = len(m.errorLog)
	}

	startIdx := len(m.errorLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	if len(m.errorLog) == 0 {
		s.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.errorLog); i++ {
			entry := m.errorLog[i]
			timestamp := entry.timestamp.Format("15:04:05.000")
			icon := "i"
			style := warningStyle
			if entry.isError {
				icon = "x"
				style = errorStyleLocal
			}
			s.WriteString(fmt.Sprintf("%s %s %s\n",
				headerStyle.Render(timestamp),
				style.Render(icon),
				entry.message))
		}
	}

	return boxStyle.Width(m.width - 4).Render(s.String())
}

//////////////////////////////////////////////////////////////
// Data Processing
//////////////////////////////////////////////////////////////

func (m *controlModel) processControlData(msg controlDataMsg) {
	if msg.decodeErr != nil {
		m.stats.Update(nil, msg.decodeErr, nil)
		m.addLogEntry(fmt.Sprintf("DECODE ERROR: %v", msg.decodeErr), true)
		return
	}

	m.stats.Update(msg.packet, nil, msg.validationErrors)
	for _, err := range msg.validationErrors {
		m.addLogEntry(fmt.Sprintf("%s %s: %s",
			vento.FormatFunctionType(msg.packet.FunctionType()), msg.packet.DeviceID(), err.Message), true)
	}
}

func (m *controlModel) applyStatus(dev *device, status vento.Status) {
	if dev.hasStatus && dev.status.On != status.On && status.Has[vento.ParamOnOff] {
		m.addLogEntry(fmt.Sprintf("%s: power %s -> %s", dev.Title(), onOff(dev.status.On), onOff(status.On)), false)
	}
	dev.status.Merge(status)
	dev.hasStatus = true
	dev.lastSeen = time.Now()
}

func (m *controlModel) handleCommandResult(msg commandResultMsg) {
	dev := m.findDevice(msg.id)
	name := msg.id
	if dev != nil {
		name = dev.Title()
	}

	if msg.err != nil {
		if errors.Is(msg.err, ventonet.ErrCancelled) {
			return
		}
		m.addLogEntry(fmt.Sprintf("%s: %s failed: %v", name, msg.label, msg.err), true)
		return
	}

	m.addLogEntry(fmt.Sprintf("%s: %s applied", name, msg.label), false)
	if dev != nil && msg.status != nil {
		m.applyStatus(dev, *msg.status)
		dev.silent = 0
		m.updateDeviceList()
	}
}

//////////////////////////////////////////////////////////////
// Commands
//////////////////////////////////////////////////////////////

// sendCommand builds a packet for the selected unit and sends it
func (m *controlModel) sendCommand(label string, build func(t target) *vento.Packet) (tea.Model, tea.Cmd) {
	selected := m.getSelectedDevice()
	if selected == nil {
		return m, nil
	}

	m.addLogEntry(fmt.Sprintf("Sending %s to %s", label, selected.Title()), false)
	return m, m.poller.command(selected.target, label, build(selected.target))
}

func (m *controlModel) sendPowerToggle() (tea.Model, tea.Cmd) {
	selected := m.getSelectedDevice()
	if selected == nil {
		return m, nil
	}
	on := !selected.status.On
	return m.sendCommand(fmt.Sprintf("power %s", onOff(on)), func(t target) *vento.Packet {
		return vento.NewPowerCommand(t.ID, t.Password, on)
	})
}

func (m *controlModel) sendModeCycle() (tea.Model, tea.Cmd) {
	selected := m.getSelectedDevice()
	if selected == nil {
		return m, nil
	}
	mode := nextMode(selected.status.Mode)
	return m.sendCommand(fmt.Sprintf("mode %s", mode), func(t target) *vento.Packet {
		return vento.NewModeCommand(t.ID, t.Password, mode)
	})
}

// nextMode cycles ONEWAY -> TWOWAY -> IN -> ONEWAY
func nextMode(mode vento.Mode) vento.Mode {
	switch mode {
	case vento.ModeOneWay:
		return vento.ModeTwoWay
	case vento.ModeTwoWay:
		return vento.ModeIn
	default:
		return vento.ModeOneWay
	}
}

func (m *controlModel) sendManualSpeed() (tea.Model, tea.Cmd) {
	val := m.speedInput.Value()
	if val == "" {
		val = m.speedInput.Placeholder
	}

	level, err := strconv.Atoi(val)
	if err != nil || level < 0 || level > 255 {
		m.addLogEntry(fmt.Sprintf("Invalid manual speed: %s (0-255)", val), true)
		return m, nil
	}

	return m.sendCommand(fmt.Sprintf("manual speed %d", level), func(t target) *vento.Packet {
		return vento.NewManualSpeedCommand(t.ID, t.Password, uint8(level))
	})
}

//////////////////////////////////////////////////////////////
// Helpers
//////////////////////////////////////////////////////////////

func (m *controlModel) addLogEntry(message string, isError bool) {
	entry := errorLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.errorLog = append(m.errorLog, entry)

	if len(m.errorLog) > m.maxLogEntries {
		m.errorLog = m.errorLog[len(m.errorLog)-m.maxLogEntries:]
	}
}

func (m *controlModel) getSelectedDevice() *device {
	if len(m.devices) == 0 {
		return nil
	}

	idx := m.deviceList.Index()
	if idx < 0 || idx >= len(m.devices) {
		return nil
	}

	return &m.devices[idx]
}

func (m *controlModel) findDevice(id string) *device {
	for i := range m.devices {
		if m.devices[i].ID == id {
			return &m.devices[i]
		}
	}
	return nil
}

// finishDiscovery merges discovered units with config units that have a
// fixed IP and starts polling them
func (m *controlModel) finishDiscovery(msg discoveryResultMsg) {
	if m.discoveryDone {
		return
	}
	m.discoveryDone = true

	if msg.err != nil && !errors.Is(msg.err, ventonet.ErrCancelled) {
		m.addLogEntry(fmt.Sprintf("Discovery failed: %v", msg.err), true)
	}

	m.devices = controlDevices(msg.devices, m.password)
	m.updateDeviceList()

	targets := make([]target, len(m.devices))
	for i, d := range m.devices {
		targets[i] = d.target
	}
	m.poller.setTargets(targets)

	m.addLogEntry(fmt.Sprintf("Discovery complete: %d unit(s)", len(m.devices)), false)

	if len(m.devices) > 0 {
		m.focusedField = focusDeviceList
	}
}

// controlDevices builds the device list from discovery results and config
func controlDevices(found []ventonet.DeviceAddress, password string) []device {
	devices := make([]device, 0, len(found))
	seen := make(map[string]bool, len(found))

	add := func(t target) {
		if t.Password == "" {
			t.Password = password
		}
		seen[t.ID] = true
		devices = append(devices, device{target: t})
	}

	for _, d := range found {
		if seen[d.DeviceID] {
			continue
		}
		t := target{ID: d.DeviceID, IP: d.IP}
		if dev, ok := cfg.Device(d.DeviceID); ok {
			t.Name = dev.Name
			t.Password = dev.Password
		}
		add(t)
	}
	for _, dev := range cfg.Devices {
		if seen[dev.ID] || dev.IP == "" {
			continue
		}
		add(target{ID: dev.ID, Password: dev.Password, IP: dev.IP, Name: dev.Name})
	}
	return devices
}

func (m *controlModel) resetDiscovery() {
	m.discoveryDone = false
	m.discoveryStart = time.Now()
	m.devices = make([]device, 0)
	m.focusedField = focusDeviceList
	m.speedInput.Blur()
	m.poller.setTargets(nil)
	m.updateDeviceList()
}

func (m *controlModel) updateDeviceList() {
	items := make([]list.Item, len(m.devices))
	for i, d := range m.devices {
		items[i] = d
	}
	m.deviceList.SetItems(items)
}

func (m *controlModel) updateListSize() {
	listHeight := m.height / 3
	if listHeight < 5 {
		listHeight = 5
	}
	m.deviceList.SetSize(28, listHeight)
}
