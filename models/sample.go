package models

// Reading is one raw event as delivered by a sensor reader.
// Values carries as many axes as the sensor reports (pressure has one).
type Reading struct {
	Kind        SensorKind `json:"kind"`
	TimestampNs int64      `json:"timestamp_ns"` // wall-clock capture time
	Values      []float32  `json:"values"`
}

// Sample is a reading placed on a session's time axis.
type Sample struct {
	RelativeTime float64    `json:"time_since_start"` // seconds since session start
	Kind         SensorKind `json:"sensor"`
	X            float32    `json:"x"`
	Y            float32    `json:"y"`
	Z            float32    `json:"z"`
}

// NewSample copies up to three axes out of r; missing axes are zero.
func NewSample(rel float64, r Reading) Sample {
	s := Sample{RelativeTime: rel, Kind: r.Kind}
	if len(r.Values) > 0 {
		s.X = r.Values[0]
	}
	if len(r.Values) > 1 {
		s.Y = r.Values[1]
	}
	if len(r.Values) > 2 {
		s.Z = r.Values[2]
	}
	return s
}

// CSVHeader is the column line written under the start timestamp.
func (Sample) CSVHeader() []string {
	return []string{"time_since_start(s)", "sensor", "x", "y", "z"}
}

func (s Sample) CSVRow() []string {
	return []string{
		ftoa(s.RelativeTime, 8),
		s.Kind.String(),
		axis(s.X), axis(s.Y), axis(s.Z),
	}
}
