package models

import "strings"

// SensorKind identifies which physical sensor produced a reading.
type SensorKind int

const (
	KindUnknown SensorKind = iota
	KindAccelerometer
	KindGyroscope
	KindMagnetometer
	KindPressure
)

var kindNames = map[SensorKind]string{
	KindAccelerometer: "acc",
	KindGyroscope:     "gyro",
	KindMagnetometer:  "mag",
	KindPressure:      "press",
}

// String returns the tag written to the sensor column.
func (k SensorKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// KnownKinds lists the sensors the logger subscribes to, in registration order.
func KnownKinds() []SensorKind {
	return []SensorKind{KindAccelerometer, KindGyroscope, KindMagnetometer, KindPressure}
}

// ParseSensorKind maps a CSV tag or config name back to a kind.
// Long names ("accelerometer", "magnetometer", ...) are accepted too.
func ParseSensorKind(s string) SensorKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "acc", "accel", "accelerometer":
		return KindAccelerometer
	case "gyro", "gyroscope":
		return KindGyroscope
	case "mag", "magnetometer", "magnetic_field":
		return KindMagnetometer
	case "press", "pressure", "barometer":
		return KindPressure
	}
	return KindUnknown
}
