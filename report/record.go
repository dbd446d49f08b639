// Package report formats optimization results as CSV or JSON lines.
package report

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/shengjiex98/pwcet-safety/config"
	"github.com/shengjiex98/pwcet-safety/optimizer"
)

// Float is a float64 that survives JSON and CSV round trips when it is infinite.
// Non-finite values are written as "inf", "-inf" and "nan".
type Float float64

func (f Float) String() string {
	v := float64(f)
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsNaN(v):
		return "nan"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return []byte(strconv.Quote(f.String())), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

func (f *Float) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	s := string(data)
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	v, err := ParseFloat(s)
	if err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// JSONSchema describes Float as a number or one of the non-finite spellings.
func (Float) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "number"},
			{Type: "string", Enum: []any{"inf", "-inf", "nan"}},
		},
	}
}

// ParseFloat accepts plain numbers as well as "inf", "+inf", "-inf" and "nan" in any case.
func ParseFloat(s string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inf", "+inf":
		return math.Inf(1), nil
	case "-inf":
		return math.Inf(-1), nil
	}
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// Record is one row of output: the optimum found for a single configuration.
type Record struct {
	RunID        string    `json:"run_id,omitempty" jsonschema:"format=uuid"`
	Window       int       `json:"window" jsonschema:"minimum=1,maximum=12"`
	Hits         int       `json:"hits" jsonschema:"minimum=0"`
	Horizon      int       `json:"horizon" jsonschema:"minimum=1"`
	Utilization  Float     `json:"utilization"`
	Confidence   float64   `json:"confidence" jsonschema:"exclusiveMinimum=0,exclusiveMaximum=1"`
	Achieved     float64   `json:"achieved" jsonschema:"minimum=0,maximum=1"`
	PhaseCount   int       `json:"phase_count" jsonschema:"enum=1,enum=2,enum=4"`
	Distribution string    `json:"distribution" jsonschema:"enum=pareto,enum=normal,enum=uniform"`
	Params       []float64 `json:"params"`
	Feasible     bool      `json:"feasible"`
	Evaluations  int       `json:"evaluations"`
}

// NewRecord combines the configuration that was searched with the search result.
// Confidence is the target; the confidence the chosen tuple reaches is Achieved.
func NewRecord(cfg *config.Config, res optimizer.Result) Record {
	return Record{
		Window:       cfg.Window,
		Hits:         cfg.Hits,
		Horizon:      cfg.Horizon,
		Utilization:  Float(res.Utilization),
		Confidence:   cfg.Confidence,
		Achieved:     res.Confidence,
		PhaseCount:   res.Phases,
		Distribution: strings.ToLower(strings.TrimSpace(cfg.Distribution)),
		Params:       res.Params,
		Feasible:     res.Feasible,
		Evaluations:  res.Evaluations,
	}
}
