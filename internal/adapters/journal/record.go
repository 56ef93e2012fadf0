package journal

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/ghalamif/wavescope/internal/domain"
)

// record is the on-disk body of a journal entry. Floats go through
// jsonFloat so NaN and infinities survive the round trip.
type record struct {
	SeriesID  string        `json:"series_id"`
	Timestamp time.Time     `json:"ts"`
	Value     []jsonFloat   `json:"value"`
	Position  jsonFloat     `json:"position"`
	Status    domain.Status `json:"status"`
}

type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

func (f *jsonFloat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		switch s {
		case "NaN":
			*f = jsonFloat(math.NaN())
		case "+Inf", "Inf":
			*f = jsonFloat(math.Inf(1))
		case "-Inf":
			*f = jsonFloat(math.Inf(-1))
		default:
			return fmt.Errorf("journal: unknown float literal %q", s)
		}
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*f = jsonFloat(v)
	return nil
}

func encodeSample(s *domain.Sample) ([]byte, error) {
	rec := record{
		SeriesID:  s.SeriesID,
		Timestamp: s.Timestamp,
		Position:  jsonFloat(s.Position),
		Status:    s.Status,
	}
	// nil and empty Value differ: nil means the sample carries no reading.
	if s.Value != nil {
		rec.Value = make([]jsonFloat, len(s.Value))
		for i, v := range s.Value {
			rec.Value[i] = jsonFloat(v)
		}
	}
	return json.Marshal(rec)
}

func decodeSample(b []byte) (*domain.Sample, error) {
	var rec record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, err
	}
	s := &domain.Sample{
		SeriesID:  rec.SeriesID,
		Timestamp: rec.Timestamp,
		Position:  float64(rec.Position),
		Status:    rec.Status,
	}
	if rec.Value != nil {
		s.Value = make([]float64, len(rec.Value))
		for i, v := range rec.Value {
			s.Value[i] = float64(v)
		}
	}
	return s, nil
}
