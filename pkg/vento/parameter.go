// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vento

import "fmt"

// Parameter identifies a device attribute or control
type Parameter uint8

// Parameters - Control
const (
	ParamOnOff                   Parameter = 0x01
	ParamSpeed                   Parameter = 0x02
	ParamBootMode                Parameter = 0x06
	ParamTimerMode               Parameter = 0x07
	ParamTimerCountdown          Parameter = 0x08
	ParamManualSpeed             Parameter = 0x44
	ParamBoostDeactivationDelay  Parameter = 0x66 // 0-60 minutes
	ParamVentilationMode         Parameter = 0xB7
	ParamResetFilterTimer        Parameter = 0x65
	ParamResetAlarms             Parameter = 0x80
	ParamRestoreFactorySettings  Parameter = 0x87
	ParamCloudServerPermission   Parameter = 0x85
	ParamWeeklySchedule          Parameter = 0x72
	ParamScheduleSetup           Parameter = 0x77
	ParamHumiditySensorActivate  Parameter = 0x0F
	ParamRelaySensorActivate     Parameter = 0x14
	ParamVoltageSensorActivate   Parameter = 0x16 // 0-10V
	ParamHumidityThreshold       Parameter = 0x19
)

// Parameters - Sensors and status
const (
	ParamRTCBatteryVoltage  Parameter = 0x24 // 0-5000 mV
	ParamCurrentHumidity    Parameter = 0x25
	ParamVoltageSensorState Parameter = 0x2D // 0-100
	ParamRelaySensorState   Parameter = 0x32
	ParamFan1RPM            Parameter = 0x4A
	ParamFan2RPM            Parameter = 0x4B
	ParamFilterTimer        Parameter = 0x64
	ParamRTCTime            Parameter = 0x6F
	ParamRTCCalendar        Parameter = 0x70
	ParamSearch             Parameter = 0x7C
	ParamPassword           Parameter = 0x7D
	ParamMachineHours       Parameter = 0x7E
	ParamReadAlarm          Parameter = 0x83
	ParamFirmwareVersion    Parameter = 0x86
	ParamFilterAlarm        Parameter = 0x88
	ParamUnitType           Parameter = 0xB9
)

// Parameters - Network configuration
const (
	ParamWifiMode         Parameter = 0x94
	ParamWifiName         Parameter = 0x95
	ParamWifiPassword     Parameter = 0x96
	ParamWifiEncryption   Parameter = 0x99
	ParamWifiChannel      Parameter = 0x9A
	ParamWifiDHCP         Parameter = 0x9B
	ParamIPAddress        Parameter = 0x9C
	ParamSubnetMask       Parameter = 0x9D
	ParamGateway          Parameter = 0x9E
	ParamCurrentIPAddress Parameter = 0xA3
)

// SizeUnknown is returned by SizeOf for parameters outside the registry
const SizeUnknown = -1

type parameterInfo struct {
	name string
	size int
}

// registry maps every known parameter to its encoded width. Parameters that
// have a name but no fixed width are listed with SizeUnknown; they are only
// decodable through the size override escape.
var registry = map[Parameter]parameterInfo{
	ParamOnOff:                  {"ON_OFF", 1},
	ParamSpeed:                  {"SPEED", 1},
	ParamBootMode:               {"BOOT_MODE", 1},
	ParamTimerMode:              {"TIMER_MODE", 1},
	ParamTimerCountdown:         {"TIMER_COUNT_DOWN", 3},
	ParamHumiditySensorActivate: {"HUMIDITY_SENSOR_ACTIVATION", 1},
	ParamRelaySensorActivate:    {"RELAY_SENSOR_ACTIVATION", SizeUnknown},
	ParamVoltageSensorActivate:  {"VOLTAGE_SENSOR_ACTIVATION", 1},
	ParamHumidityThreshold:      {"HUMIDITY_THRESHOLD", 1},
	ParamRTCBatteryVoltage:      {"CURRENT_RTC_BATTERY_VOLTAGE", 2},
	ParamCurrentHumidity:        {"CURRENT_HUMIDITY", 1},
	ParamVoltageSensorState:     {"CURRENT_VOLTAGE_SENSOR_STATE", 1},
	ParamRelaySensorState:       {"CURRENT_RELAY_SENSOR_STATE", 1},
	ParamManualSpeed:            {"MANUAL_SPEED", 1},
	ParamFan1RPM:                {"FAN1RPM", 2},
	ParamFan2RPM:                {"FAN2RPM", 2},
	ParamFilterTimer:            {"FILTER_TIMER", 3},
	ParamResetFilterTimer:       {"RESET_FILTER_TIMER", 1},
	ParamBoostDeactivationDelay: {"BOOST_MODE_DEACTIVATION_DELAY", 1},
	ParamRTCTime:                {"RTC_TIME", 3},
	ParamRTCCalendar:            {"RTC_CALENDAR", 4},
	ParamWeeklySchedule:         {"WEEKLY_SCHEDULE", 1},
	ParamScheduleSetup:          {"SCHEDULE_SETUP", 6},
	ParamSearch:                 {"SEARCH", 16},
	ParamPassword:               {"PASSWORD", SizeUnknown},
	ParamMachineHours:           {"MACHINE_HOURS", 4},
	ParamResetAlarms:            {"RESET_ALARMS", 1},
	ParamReadAlarm:              {"READ_ALARM", 1},
	ParamCloudServerPermission:  {"CLOUD_SERVER_OPERATION_PERMISSION", 1},
	ParamFirmwareVersion:        {"READ_FIRMWARE_VERSION", 6},
	ParamRestoreFactorySettings: {"RESTORE_FACTORY_SETTINGS", 1},
	ParamFilterAlarm:            {"FILTER_ALARM", 1},
	ParamWifiMode:               {"WIFI_MODE", 1},
	ParamWifiName:               {"WIFI_NAME", 0},
	ParamWifiPassword:           {"WIFI_PASSWORD", 0},
	ParamWifiEncryption:         {"WIFI_ENCRYPTION", 1},
	ParamWifiChannel:            {"WIFI_CHANNEL", 1},
	ParamWifiDHCP:               {"WIFI_DHCP", 1},
	ParamIPAddress:              {"IP_ADDRESS", 4},
	ParamSubnetMask:             {"SUBNET_MASK", 4},
	ParamGateway:                {"GATEWAY", SizeUnknown},
	ParamCurrentIPAddress:       {"CURRENT_IP_ADDRESS", SizeUnknown},
	ParamVentilationMode:        {"VENTILATION_MODE", 1},
	ParamUnitType:               {"UNIT_TYPE", 2},
}

// SizeOf returns the encoded width of a parameter in bytes, or SizeUnknown
func SizeOf(p Parameter) int {
	info, ok := registry[p]
	if !ok {
		return SizeUnknown
	}
	return info.size
}

// Known reports whether the parameter has a fixed width in the registry
func (p Parameter) Known() bool {
	return SizeOf(p) != SizeUnknown
}

// String returns the protocol name of the parameter
func (p Parameter) String() string {
	if info, ok := registry[p]; ok {
		return info.name
	}
	return fmt.Sprintf("PARAM_0x%02X", uint8(p))
}
