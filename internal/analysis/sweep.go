package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/san-kum/physlab/internal/dynamo"
)

// SweepPoint holds the distinct values a column settled on for one
// parameter value.
type SweepPoint struct {
	Param  float64
	Values []float64
}

// SweepSpec describes a one-parameter sweep. Each point resets the system,
// applies the parameter, skips Transient seconds and then records Column
// for Record seconds.
type SweepSpec struct {
	Param     string
	Min, Max  float64
	Steps     int
	Column    string
	Dt        float64
	Transient float64
	Record    float64
}

// Sweep runs spec against sys. The system must be Configurable and expose
// Column in its labels. The parameter is put back to its starting value at the end.
func Sweep(ctx context.Context, sys dynamo.System, spec SweepSpec) ([]SweepPoint, error) {
	tunable, ok := sys.(dynamo.Configurable)
	if !ok {
		return nil, fmt.Errorf("%w: system has no parameters", dynamo.ErrUnknownParam)
	}
	original, ok := tunable.GetParams()[spec.Param]
	if !ok {
		return nil, fmt.Errorf("%q: %w", spec.Param, dynamo.ErrUnknownParam)
	}
	col := dynamo.Index(sys.Labels(), spec.Column)
	if col < 0 {
		return nil, fmt.Errorf("%w: no column %q", dynamo.ErrInvalidConfig, spec.Column)
	}
	if spec.Dt <= 0 || spec.Record <= 0 {
		return nil, fmt.Errorf("%w: sweep needs positive dt and record time", dynamo.ErrInvalidConfig)
	}

	steps := spec.Steps
	if steps <= 1 {
		steps = 2
	}
	paramStep := (spec.Max - spec.Min) / float64(steps-1)

	defer func() {
		_ = tunable.SetParam(spec.Param, original)
		sys.Reset()
	}()

	results := make([]SweepPoint, 0, steps)
	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		param := spec.Min + float64(i)*paramStep
		sys.Reset()
		if err := tunable.SetParam(spec.Param, param); err != nil {
			return results, err
		}

		t := 0.0
		for t < spec.Transient {
			sys.Step(spec.Dt)
			t += spec.Dt
		}

		values := make([]float64, 0, 16)
		seen := make(map[int]bool)
		for t < spec.Transient+spec.Record {
			sys.Step(spec.Dt)
			t += spec.Dt

			val := sys.State()[col]
			// quantized to 1e-3
			key := int(val * 1000)
			if !seen[key] {
				seen[key] = true
				values = append(values, val)
			}
		}

		results = append(results, SweepPoint{Param: param, Values: values})
	}

	return results, nil
}

// SweepToASCII converts sweep data to ASCII art, one column per point.
func SweepToASCII(data []SweepPoint, width, height int) string {
	if len(data) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	var minVal, maxVal float64
	foundFirst := false
	for _, p := range data {
		for _, v := range p.Values {
			if !foundFirst {
				minVal, maxVal = v, v
				foundFirst = true
				continue
			}
			minVal, maxVal = min(minVal, v), max(maxVal, v)
		}
	}
	if !foundFirst {
		return ""
	}

	if maxVal == minVal {
		maxVal = minVal + 1
	}

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	for i, p := range data {
		col := i * width / len(data)
		if col >= width {
			col = width - 1
		}

		for _, v := range p.Values {
			row := height - 1 - int((v-minVal)/(maxVal-minVal)*float64(height-1))
			if row >= 0 && row < height {
				canvas[row][col] = '•'
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
