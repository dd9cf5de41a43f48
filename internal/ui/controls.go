package ui

import (
	"math"
	"strconv"

	"hydro-terrain/internal/core"
)

const defaultFloatStep = 0.05

// stepTarget returns the value one step from current in direction, clamped to
// the control bounds. ok is false when the step would not change the value.
func stepTarget(ctrl core.ParameterControl, current float64, direction int) (float64, bool) {
	if direction == 0 {
		return current, false
	}
	step := ctrl.Step
	if ctrl.Type == core.ParamTypeInt {
		step = math.Round(step)
		if step <= 0 {
			step = 1
		}
	} else if step <= 0 {
		step = defaultFloatStep
	}
	target := ctrl.Clamp(current + float64(direction)*step)
	if ctrl.Type == core.ParamTypeInt {
		target = math.Round(target)
	}
	if math.Abs(target-current) < 1e-9 {
		return current, false
	}
	return target, true
}

// formatValue renders v with a precision that shows one step of change.
func formatValue(ctrl core.ParameterControl, v float64) string {
	if ctrl.Type == core.ParamTypeInt {
		return strconv.Itoa(int(math.Round(v)))
	}
	step := ctrl.Step
	if step <= 0 {
		step = defaultFloatStep
	}
	precision := 1
	switch {
	case step < 0.001:
		precision = 4
	case step < 0.01:
		precision = 3
	case step < 0.1:
		precision = 2
	}
	return strconv.FormatFloat(v, 'f', precision, 64)
}

// parseValue reads a snapshot value for ctrl.
func parseValue(ctrl core.ParameterControl, raw string) (float64, bool) {
	switch ctrl.Type {
	case core.ParamTypeInt:
		n, err := strconv.Atoi(raw)
		return float64(n), err == nil
	case core.ParamTypeFloat:
		f, err := strconv.ParseFloat(raw, 64)
		return f, err == nil
	}
	return 0, false
}
