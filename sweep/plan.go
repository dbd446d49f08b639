// Package sweep runs the optimizer over a list of configurations and streams one
// report record per configuration.
package sweep

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shengjiex98/pwcet-safety/utilization"
	"github.com/shengjiex98/pwcet-safety/utils"
)

// Case overrides the base configuration for one run. Zero fields keep the base value.
type Case struct {
	Window       int    `json:"window"`
	Hits         int    `json:"hits"`
	Distribution string `json:"distribution,omitempty"`
	Phases       int    `json:"phases,omitempty"`
}

func (c Case) String() string {
	return fmt.Sprintf("window=%d hits=%d distribution=%s phases=%d", c.Window, c.Hits, c.Distribution, c.Phases)
}

type Plan []Case

// DefaultPlan is the study grid: windows 1 to 6, every hits count strictly below the
// window, each distribution, first with one phase and then with two.
func DefaultPlan() Plan {
	var plan Plan
	for _, phases := range []int{1, 2} {
		for window := 1; window <= 6; window++ {
			for hits := 1; hits < window; hits++ {
				for _, d := range utilization.Distributions() {
					plan = append(plan, Case{Window: window, Hits: hits, Distribution: d.String(), Phases: phases})
				}
			}
		}
	}
	return plan
}

// ReadPlan loads a plan from a .txt/.csv file of "window,hits[,distribution[,phases]]"
// lines or from a .jsonl file of Case objects.
func ReadPlan(path string) (Plan, error) {
	lines, format, err := utils.ReadLines(path)
	if err != nil {
		return nil, err
	}

	plan := make(Plan, 0, len(lines))
	for i, line := range lines {
		var c Case
		var err error
		if format == utils.LineFormatJSON {
			err = json.Unmarshal([]byte(line), &c)
		} else {
			c, err = parseCase(line)
		}
		if err != nil {
			return nil, utils.NewError(utils.ErrorTypeConfiguration, fmt.Sprintf("%s: entry %d", path, i+1), err)
		}
		plan = append(plan, c)
	}
	return plan, nil
}

func parseCase(line string) (Case, error) {
	fields := strings.Split(line, ",")
	if len(fields) < 2 || len(fields) > 4 {
		return Case{}, fmt.Errorf("expected 2 to 4 fields, got %d", len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	var c Case
	var err error
	if c.Window, err = strconv.Atoi(fields[0]); err != nil {
		return Case{}, fmt.Errorf("window: %w", err)
	}
	if c.Hits, err = strconv.Atoi(fields[1]); err != nil {
		return Case{}, fmt.Errorf("hits: %w", err)
	}
	if len(fields) > 2 {
		c.Distribution = fields[2]
	}
	if len(fields) > 3 && fields[3] != "" {
		if c.Phases, err = strconv.Atoi(fields[3]); err != nil {
			return Case{}, fmt.Errorf("phases: %w", err)
		}
	}
	return c, nil
}
