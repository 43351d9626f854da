package views

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"motion-logger/models"
	"motion-logger/utils"
)

// ErrMalformedSession reports a file that does not follow the session layout.
var ErrMalformedSession = errors.New("malformed session file")

// SessionFile is a parsed session log.
type SessionFile struct {
	Start   time.Time
	End     time.Time // zero when the session was never stopped cleanly
	Samples []models.Sample
}

// Complete reports whether the file carries an end line.
func (f *SessionFile) Complete() bool { return !f.End.IsZero() }

// Span is the relative time of the last sample.
func (f *SessionFile) Span() float64 {
	if len(f.Samples) == 0 {
		return 0
	}
	return f.Samples[len(f.Samples)-1].RelativeTime
}

// CountByKind tallies rows per sensor tag.
func (f *SessionFile) CountByKind() map[models.SensorKind]int {
	out := make(map[models.SensorKind]int)
	for _, s := range f.Samples {
		out[s.Kind]++
	}
	return out
}

// ReadSessionFile opens and parses path.
func ReadSessionFile(path string) (*SessionFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	defer f.Close()
	return ReadSession(f)
}

// ReadSession parses a session log. A missing end line is tolerated.
func ReadSession(r io.Reader) (*SessionFile, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	out := &SessionFile{}
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read session line %d: %w", line+1, err)
		}
		line++

		switch {
		case line == 1:
			if len(rec) != 2 || rec[0] != StartTimeKey {
				return nil, fmt.Errorf("line 1: %w: missing %s", ErrMalformedSession, StartTimeKey)
			}
			t, err := utils.ParseUTC(rec[1])
			if err != nil {
				return nil, fmt.Errorf("line 1: %w: %v", ErrMalformedSession, err)
			}
			out.Start = t
		case line == 2:
			if len(rec) != len(SampleColumns) || rec[0] != SampleColumns[0] {
				return nil, fmt.Errorf("line 2: %w: missing column header", ErrMalformedSession)
			}
		case len(rec) == 2 && rec[0] == EndTimeKey:
			t, err := utils.ParseUTC(rec[1])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w: %v", line, ErrMalformedSession, err)
			}
			out.End = t
		default:
			s, err := parseSampleRow(rec)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w: %v", line, ErrMalformedSession, err)
			}
			out.Samples = append(out.Samples, s)
		}
	}
	if line == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrMalformedSession)
	}
	return out, nil
}

func parseSampleRow(rec []string) (models.Sample, error) {
	if len(rec) != len(SampleColumns) {
		return models.Sample{}, fmt.Errorf("want %d fields, got %d", len(SampleColumns), len(rec))
	}
	rel, err := strconv.ParseFloat(rec[0], 64)
	if err != nil {
		return models.Sample{}, fmt.Errorf("time: %v", err)
	}
	var xyz [3]float32
	for i := range xyz {
		v, err := strconv.ParseFloat(rec[2+i], 32)
		if err != nil {
			return models.Sample{}, fmt.Errorf("%s: %v", SampleColumns[2+i], err)
		}
		xyz[i] = float32(v)
	}
	return models.Sample{
		RelativeTime: rel,
		Kind:         models.ParseSensorKind(rec[1]),
		X:            xyz[0],
		Y:            xyz[1],
		Z:            xyz[2],
	}, nil
}
