// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"net"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ventolink/ventoctl/internal/config"
	"github.com/ventolink/ventoctl/pkg/vento"
	"github.com/ventolink/ventoctl/pkg/ventonet"
)

func withConfig(t *testing.T, c config.Config) {
	t.Helper()
	saved := cfg
	cfg = c
	t.Cleanup(func() { cfg = saved })
}

func TestPollBackoff(t *testing.T) {
	interval := 2 * time.Second
	assert.Equal(t, 2*time.Second, pollBackoff(interval, 0))
	assert.Equal(t, 2*time.Second, pollBackoff(interval, 1))
	assert.Equal(t, 4*time.Second, pollBackoff(interval, 2))
	assert.Equal(t, 16*time.Second, pollBackoff(interval, 4))
	assert.Equal(t, maxPollBackoff, pollBackoff(interval, 5))
	assert.Equal(t, maxPollBackoff, pollBackoff(interval, 50))
}

func TestUnitPoller_Due(t *testing.T) {
	u := newUnitPoller(context.Background(), time.Second)
	u.setTargets([]target{{ID: "UNIT_A"}, {ID: "UNIT_B"}})

	now := time.Now()
	require.Len(t, u.due(now), 2)

	// Targets in flight are not handed out twice
	assert.Empty(t, u.due(now))

	u.targets[0].inFlight = false
	u.targets[1].inFlight = false
	u.targets[0].next = now.Add(time.Minute)
	due := u.due(now)
	require.Len(t, due, 1)
	assert.Equal(t, "UNIT_B", due[0].ID)

	u.setTargets(nil)
	assert.Empty(t, u.due(now))
}

func TestUnitPoller_SilentUnitDoesNotDelayOthers(t *testing.T) {
	port := startFakeDevice(t, func(conn *net.UDPConn, req *vento.Packet, from *net.UDPAddr) {
		if req.DeviceID() == "UNIT_B" {
			poweredOn(conn, req, from)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs := make(chan tea.Msg, 16)
	u := newUnitPoller(ctx, time.Minute)
	u.client = ventonet.New(
		ventonet.WithBroadcastAddress("127.0.0.1"),
		ventonet.WithListenAddress("127.0.0.1:0"),
		ventonet.WithPort(port),
		ventonet.WithTimeout(time.Second),
	)
	u.send = func(msg tea.Msg) { msgs <- msg }

	done := make(chan struct{})
	go func() {
		defer close(done)
		u.run()
	}()
	defer func() {
		cancel()
		<-done
	}()

	// UNIT_A is first and never answers
	u.setTargets([]target{
		{ID: "UNIT_A", Password: "1111", IP: "127.0.0.1"},
		{ID: "UNIT_B", Password: "1111", IP: "127.0.0.1"},
	})

	select {
	case msg := <-msgs:
		status, ok := msg.(controlStatusMsg)
		require.True(t, ok, "expected a status message, got %T", msg)
		assert.Equal(t, "UNIT_B", status.id)
		assert.True(t, status.status.On)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("UNIT_B was not polled while UNIT_A was silent")
	}

	select {
	case msg := <-msgs:
		silent, ok := msg.(unitSilentMsg)
		require.True(t, ok, "expected a silent message, got %T", msg)
		assert.Equal(t, "UNIT_A", silent.id)
		assert.Equal(t, 1, silent.failures)
	case <-time.After(2 * time.Second):
		t.Fatal("UNIT_A was never reported silent")
	}
}

func TestNextMode(t *testing.T) {
	assert.Equal(t, vento.ModeTwoWay, nextMode(vento.ModeOneWay))
	assert.Equal(t, vento.ModeIn, nextMode(vento.ModeTwoWay))
	assert.Equal(t, vento.ModeOneWay, nextMode(vento.ModeIn))
}

func TestControlDevices(t *testing.T) {
	withConfig(t, config.Config{Devices: []config.Device{
		{ID: "UNIT_A", Name: "kitchen", Password: "abcd"},
		{ID: "UNIT_C", Name: "garage", IP: "10.0.0.3"},
		{ID: "UNIT_D", Name: "attic"},
	}})

	found := []ventonet.DeviceAddress{
		{DeviceID: "UNIT_A", IP: "10.0.0.1"},
		{DeviceID: "UNIT_B", IP: "10.0.0.2"},
		{DeviceID: "UNIT_A", IP: "10.0.0.1"},
	}
	devices := controlDevices(found, "1111")

	require.Len(t, devices, 3)
	assert.Equal(t, target{ID: "UNIT_A", Password: "abcd", IP: "10.0.0.1", Name: "kitchen"}, devices[0].target)
	assert.Equal(t, target{ID: "UNIT_B", Password: "1111", IP: "10.0.0.2"}, devices[1].target)
	assert.Equal(t, target{ID: "UNIT_C", Password: "1111", IP: "10.0.0.3", Name: "garage"}, devices[2].target)
}

func TestDevice_ListItem(t *testing.T) {
	d := device{target: target{ID: "UNIT_A", IP: "10.0.0.1"}}
	assert.Equal(t, "Unit UNIT_A", d.Title())
	assert.Equal(t, "10.0.0.1", d.Description())

	d.Name = "kitchen"
	d.hasStatus = true
	d.status = vento.Status{On: true, Speed: vento.SpeedHigh, Mode: vento.ModeTwoWay}
	assert.Equal(t, "kitchen", d.Title())
	assert.Equal(t, "10.0.0.1  HIGH TWOWAY", d.Description())

	d.status.On = false
	assert.Equal(t, "10.0.0.1  OFF", d.Description())

	d.silent = 2
	assert.Equal(t, "10.0.0.1  NO RESPONSE", d.Description())
}

func TestControlModel_StatusFlow(t *testing.T) {
	withConfig(t, config.Default())
	m := initialControlModel(newUnitPoller(context.Background(), time.Second), "1111")

	next, _ := m.Update(discoveryResultMsg{devices: []ventonet.DeviceAddress{{DeviceID: "UNIT_A", IP: "10.0.0.1"}}})
	m = next.(controlModel)
	require.True(t, m.discoveryDone)
	require.Len(t, m.devices, 1)
	require.Len(t, m.poller.targets, 1)

	next, _ = m.Update(controlStatusMsg{
		id: "UNIT_A",
		status: vento.Status{
			DeviceID: "UNIT_A",
			On:       true,
			Speed:    vento.SpeedLow,
			Has:      map[vento.Parameter]bool{vento.ParamOnOff: true, vento.ParamSpeed: true},
		},
		rtt: 12 * time.Millisecond,
	})
	m = next.(controlModel)
	dev := m.getSelectedDevice()
	require.NotNil(t, dev)
	assert.True(t, dev.hasStatus)
	assert.True(t, dev.status.On)
	assert.Equal(t, vento.SpeedLow, dev.status.Speed)

	next, _ = m.Update(unitSilentMsg{id: "UNIT_A", failures: 2, retry: 4 * time.Second})
	m = next.(controlModel)
	assert.Equal(t, 2, m.getSelectedDevice().silent)

	// A command reply updates the state and clears the silence counter
	speed := vento.Status{Speed: vento.SpeedHigh, Has: map[vento.Parameter]bool{vento.ParamSpeed: true}}
	next, _ = m.Update(commandResultMsg{id: "UNIT_A", label: "speed HIGH", status: &speed})
	m = next.(controlModel)
	dev = m.getSelectedDevice()
	assert.Equal(t, 0, dev.silent)
	assert.True(t, dev.status.On)
	assert.Equal(t, vento.SpeedHigh, dev.status.Speed)
	assert.Contains(t, m.errorLog[len(m.errorLog)-1].message, "speed HIGH applied")
}

func TestControlModel_ManualSpeedValidation(t *testing.T) {
	withConfig(t, config.Default())
	m := initialControlModel(newUnitPoller(context.Background(), time.Second), "1111")
	next, _ := m.Update(discoveryResultMsg{devices: []ventonet.DeviceAddress{{DeviceID: "UNIT_A", IP: "10.0.0.1"}}})
	m = next.(controlModel)

	m.speedInput.SetValue("300")
	_, cmd := m.sendManualSpeed()
	assert.Nil(t, cmd)
	assert.True(t, m.errorLog[len(m.errorLog)-1].isError)

	m.speedInput.SetValue("120")
	_, cmd = m.sendManualSpeed()
	assert.NotNil(t, cmd)
}

func TestControlModel_BatchUpdatesStatistics(t *testing.T) {
	withConfig(t, config.Default())
	m := initialControlModel(newUnitPoller(context.Background(), time.Second), "1111")

	good, err := vento.Decode(response("UNIT_A", vento.EntryValue(vento.ParamOnOff, 1)))
	require.NoError(t, err)
	_, decodeErr := vento.Decode([]byte{0x00})
	require.Error(t, decodeErr)

	var model tea.Model = m
	model, _ = model.Update(controlBatchMsg{messages: []controlDataMsg{
		{packet: good},
		{decodeErr: decodeErr},
	}})
	m = model.(controlModel)
	assert.Equal(t, uint64(2), m.stats.TotalPackets)
	assert.Equal(t, uint64(1), m.stats.ValidPackets)
	assert.Equal(t, uint64(1), m.stats.DecodeErrors())
}
