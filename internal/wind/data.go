package wind

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Data is a Wind result frame. Values are column-major: Data[i] is the column of Fields[i],
// and Times carries naive wall-clock times (location UTC, meaningless).
type Data struct {
	ErrorCode int
	Codes     []string
	Fields    []string
	Times     []time.Time
	Data      [][]float64
}

func (d Data) Rows() int {
	return len(d.Times)
}

// Column returns the values of field, matched case-insensitively since Wind echoes
// field names upper-cased on some endpoints.
func (d Data) Column(field string) ([]float64, bool) {
	for i, f := range d.Fields {
		if strings.EqualFold(f, field) && i < len(d.Data) {
			return d.Data[i], true
		}
	}
	return nil, false
}

// Value returns the row-th value of field, NaN when the column or the row is absent.
func (d Data) Value(field string, row int) float64 {
	column, ok := d.Column(field)
	if !ok || row >= len(column) {
		return math.NaN()
	}
	return column[row]
}

// AttachZone reads the wall clock of t as local time in loc, without converting it.
func AttachZone(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

var naiveLayouts = []string{
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

const naiveLayout = "2006-01-02 15:04:05"

func parseNaive(raw string) (time.Time, error) {
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid wind time %q", raw)
}

// Float decodes bridge numbers, null and "NaN" become NaN.
type Float float64

func (f *Float) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	switch s {
	case "null", `"NaN"`, `"nan"`, `""`:
		*f = Float(math.NaN())
		return nil
	}

	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("invalid wind value %s: %w", s, err)
	}
	*f = Float(v)
	return nil
}

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

type wireData struct {
	ErrorCode int       `json:"error_code"`
	Codes     []string  `json:"codes"`
	Fields    []string  `json:"fields"`
	Times     []string  `json:"times"`
	Data      [][]Float `json:"data"`
}

func (w wireData) toData() (Data, error) {
	d := Data{
		ErrorCode: w.ErrorCode,
		Codes:     w.Codes,
		Fields:    w.Fields,
		Times:     make([]time.Time, 0, len(w.Times)),
		Data:      make([][]float64, 0, len(w.Data)),
	}

	for _, raw := range w.Times {
		t, err := parseNaive(raw)
		if err != nil {
			return Data{}, err
		}
		d.Times = append(d.Times, t)
	}

	for _, column := range w.Data {
		values := make([]float64, len(column))
		for i, v := range column {
			values[i] = float64(v)
		}
		d.Data = append(d.Data, values)
	}

	return d, nil
}
