// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vento

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFromPacket(t *testing.T) {
	p, err := Decode(statusResponse)
	require.NoError(t, err)

	s := StatusFromPacket(p)

	assert.Equal(t, "003E00285742570F", s.DeviceID)
	assert.True(t, s.On)
	assert.Equal(t, SpeedHigh, s.Speed)
	assert.Equal(t, uint8(9), s.ManualSpeed)
	assert.Equal(t, ModeIn, s.Mode)
	assert.Equal(t, uint16(2220), s.Fan1RPM)
	assert.True(t, s.FilterAlarm)
	assert.Equal(t, time.Duration(0), s.FilterTime)
	assert.Equal(t, uint8(63), s.Humidity)
	assert.Equal(t, "0.4", s.FirmwareVersion)
	assert.Equal(t, time.Date(2019, time.December, 20, 0, 0, 0, 0, time.UTC), s.FirmwareDate)
	assert.Equal(t, "192.168.4.1", s.IPAddress)

	assert.Len(t, s.Has, 10)
	assert.False(t, s.Has[ParamFan2RPM])
}

func TestStatusFromPacket_SampleResponse(t *testing.T) {
	p, err := Decode(sampleResponse())
	require.NoError(t, err)

	s := StatusFromPacket(p)
	assert.Equal(t, uint16(3), s.UnitType)
	assert.True(t, s.Has[ParamUnitType])
	assert.False(t, s.Has[ParamSearch])
}

func TestStatus_FilterTimer(t *testing.T) {
	// 5 minutes, 3 hours, 12 days
	p := NewPacket("dev", "", FuncResponse, []DataEntry{
		{Parameter: ParamFilterTimer, Value: []byte{5, 3, 12}},
	})

	s := StatusFromPacket(p)
	assert.Equal(t, 12*24*time.Hour+3*time.Hour+5*time.Minute, s.FilterTime)
	assert.Equal(t, "12d 03h 05m", formatMinutes(s.FilterTime))
}

func TestStatus_ShortValuesSkipped(t *testing.T) {
	p := NewPacket("dev", "", FuncResponse, []DataEntry{
		{Parameter: ParamFan1RPM, Value: []byte{0x10}},
		{Parameter: ParamFirmwareVersion, Value: []byte{1, 2}},
		Entry(ParamOnOff),
	})

	s := StatusFromPacket(p)
	assert.Empty(t, s.Has)
	assert.Zero(t, s.Fan1RPM)
}

func TestStatus_Packet(t *testing.T) {
	s := Status{On: true, Speed: SpeedManual, ManualSpeed: 77, Mode: ModeTwoWay}
	p := s.Packet("dev", "1111")

	require.Equal(t, FuncWriteRead, p.FunctionType())
	data, err := Encode(p)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	back := StatusFromPacket(decoded)
	assert.Equal(t, s.On, back.On)
	assert.Equal(t, s.Speed, back.Speed)
	assert.Equal(t, s.ManualSpeed, back.ManualSpeed)
	assert.Equal(t, s.Mode, back.Mode)
}

func TestParseSpeedAndMode(t *testing.T) {
	speed, err := ParseSpeed("medium")
	require.NoError(t, err)
	assert.Equal(t, SpeedMedium, speed)

	speed, err = ParseSpeed("MANUAL")
	require.NoError(t, err)
	assert.Equal(t, SpeedManual, speed)

	_, err = ParseSpeed("turbo")
	assert.Error(t, err)

	mode, err := ParseMode("TwoWay")
	require.NoError(t, err)
	assert.Equal(t, ModeTwoWay, mode)

	_, err = ParseMode("sideways")
	assert.Error(t, err)

	assert.Equal(t, "UNKNOWN", Speed(7).String())
	assert.Equal(t, "UNKNOWN", Mode(9).String())
}

func TestStatus_Merge(t *testing.T) {
	var s Status
	s.Merge(StatusFromPacket(NewPacket("dev", "", FuncResponse, []DataEntry{
		EntryValue(ParamOnOff, 1),
		EntryValue(ParamSpeed, 2),
	})))
	s.Merge(StatusFromPacket(NewPacket("dev", "", FuncResponse, []DataEntry{
		EntryValue(ParamSpeed, 3),
		EntryValue(ParamCurrentHumidity, 40),
	})))

	assert.Equal(t, "dev", s.DeviceID)
	assert.True(t, s.On)
	assert.Equal(t, SpeedHigh, s.Speed)
	assert.Equal(t, uint8(40), s.Humidity)
	assert.Len(t, s.Has, 3)
	assert.False(t, s.Has[ParamVentilationMode])
}
