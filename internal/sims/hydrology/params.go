package hydrology

import (
	"math"

	"hydro-terrain/internal/core"
	"hydro-terrain/internal/hydrology"
	"hydro-terrain/internal/terrain"
)

var terrainControls = []core.ParameterControl{
	core.RangeControl("terrain_seed", "Noise seed", core.ParamTypeInt, terrain.SeedMin, terrain.SeedMax, 1),
	core.RangeControl("base_amplitude", "Base amplitude", core.ParamTypeFloat, terrain.AmplitudeMin, terrain.AmplitudeMax, 1),
	core.RangeControl("base_frequency", "Base frequency", core.ParamTypeFloat, terrain.FrequencyMin, terrain.FrequencyMax, 0.0005),
}

// Parameters reports the current tunables grouped for display.
func (w *World) Parameters() core.ParameterSnapshot {
	noise := w.cfg.Noise
	hydro := make([]core.Parameter, 0, len(hydrology.Fields()))
	for _, f := range hydrology.Fields() {
		v, _ := w.cfg.Erosion.Get(f.Key)
		if f.Int {
			hydro = append(hydro, core.IntParam(f.Key, f.Label, int(v)))
		} else {
			hydro = append(hydro, core.FloatParam(f.Key, f.Label, roundFloat32(v)))
		}
	}
	groups := []core.ParameterGroup{
		{
			Name: "Terrain",
			Params: []core.Parameter{
				core.IntParam("w", "Width", w.w),
				core.IntParam("h", "Height", w.h),
				core.IntParam("terrain_seed", "Noise seed", int(noise.Seed)),
				core.FloatParam("base_amplitude", "Base amplitude", roundFloat32(float64(noise.BaseAmplitude))),
				core.FloatParam("base_frequency", "Base frequency", roundFloat32(float64(noise.BaseFrequency))),
			},
		},
		{Name: "Hydrology", Params: hydro},
		{
			Name: "Budget",
			Params: []core.Parameter{
				core.IntParam("drop_count", "Drops count", w.DropCount()),
				core.IntParam("drops_remaining", "Drops remaining", w.cfg.Erosion.Remaining()),
			},
			Summary: budgetSummary(w.cfg.Erosion),
		},
	}
	return core.ParameterSnapshot{Groups: groups}
}

func budgetSummary(c hydrology.Config) string {
	if c.Exhausted() {
		return "budget exhausted"
	}
	return "eroding"
}

// roundFloat32 trims float32 widening noise so 0.1 reports as 0.1.
func roundFloat32(v float64) float64 {
	const scale = 1e7
	return math.Round(v*scale) / scale
}

// ParameterControls lists the HUD-adjustable tunables.
func (w *World) ParameterControls() []core.ParameterControl {
	controls := append([]core.ParameterControl(nil), terrainControls...)
	for _, f := range hydrology.Fields() {
		typ := core.ParamTypeFloat
		if f.Int {
			typ = core.ParamTypeInt
		}
		controls = append(controls, core.RangeControl(f.Key, f.Label, typ, f.Min, f.Max, f.Step))
	}
	return controls
}

// SetIntParameter updates an integer tunable. Noise changes schedule a
// terrain rebuild before the next Step.
func (w *World) SetIntParameter(key string, value int) bool {
	if key == "terrain_seed" {
		seed := int64(terrainControls[0].Clamp(float64(value)))
		if seed != w.cfg.Noise.Seed {
			w.cfg.Noise.Seed = seed
			w.pendingMap = true
		}
		return true
	}
	if f, ok := field(key); ok && f.Int {
		return w.cfg.Erosion.Set(key, float64(value))
	}
	return false
}

// SetFloatParameter updates a floating point tunable.
func (w *World) SetFloatParameter(key string, value float64) bool {
	switch key {
	case "base_amplitude":
		amp := float32(terrainControls[1].Clamp(value))
		if amp != w.cfg.Noise.BaseAmplitude {
			w.cfg.Noise.BaseAmplitude = amp
			w.pendingMap = true
		}
		return true
	case "base_frequency":
		freq := float32(terrainControls[2].Clamp(value))
		if freq != w.cfg.Noise.BaseFrequency {
			w.cfg.Noise.BaseFrequency = freq
			w.pendingMap = true
		}
		return true
	}
	if f, ok := field(key); ok && !f.Int {
		return w.cfg.Erosion.Set(key, value)
	}
	return false
}

// RebuildPending reports whether a noise change is waiting for the next Step.
func (w *World) RebuildPending() bool { return w.pendingMap }

// ResetDefaults restores the erosion tunables and clears the drop counter.
// Terrain noise and the current heights are left alone.
func (w *World) ResetDefaults() {
	w.cfg.Erosion = hydrology.DefaultConfig()
	w.exhaustedLogged = false
}

func field(key string) (hydrology.Field, bool) {
	for _, f := range hydrology.Fields() {
		if f.Key == key {
			return f, true
		}
	}
	return hydrology.Field{}, false
}
