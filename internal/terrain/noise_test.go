package terrain

import (
	"math"
	"strings"
	"testing"
)

type constPrimitive float64

func (c constPrimitive) Noise2D(x, y float64) float64 { return float64(c) }

type recordingPrimitive struct {
	xs []float64
}

func (r *recordingPrimitive) Noise2D(x, y float64) float64 {
	r.xs = append(r.xs, x)
	return 0
}

func TestOctavesHalveAmplitudeDoubleFrequency(t *testing.T) {
	cfg := NoiseConfig{BaseAmplitude: 16, BaseFrequency: 0.01}
	octaves := cfg.Octaves()
	if len(octaves) != OctaveCount {
		t.Fatalf("expected %d octaves, got %d", OctaveCount, len(octaves))
	}
	for i := 1; i < len(octaves); i++ {
		if octaves[i].Amplitude != octaves[i-1].Amplitude/2 {
			t.Fatalf("octave %d amplitude %v, want half of %v", i, octaves[i].Amplitude, octaves[i-1].Amplitude)
		}
		if octaves[i].Frequency != octaves[i-1].Frequency*2 {
			t.Fatalf("octave %d frequency %v, want double of %v", i, octaves[i].Frequency, octaves[i-1].Frequency)
		}
	}
}

func TestSamplerSumsOctaves(t *testing.T) {
	s := NewSamplerFrom(constPrimitive(1), NoiseConfig{BaseAmplitude: 20, BaseFrequency: 0.01})
	if got := s.Sample(3, 4); got != 39.375 {
		t.Fatalf("expected 20+10+5+2.5+1.25+0.625, got %v", got)
	}
}

func TestSamplerScalesCoordinatesPerOctave(t *testing.T) {
	rec := &recordingPrimitive{}
	s := NewSamplerFrom(rec, NoiseConfig{BaseAmplitude: 1, BaseFrequency: 0.5})
	s.Sample(2, 0)
	want := []float64{1, 2, 4, 8, 16, 32}
	if len(rec.xs) != len(want) {
		t.Fatalf("expected %d primitive calls, got %d", len(want), len(rec.xs))
	}
	for i, x := range rec.xs {
		if x != want[i] {
			t.Fatalf("octave %d sampled x=%v, want %v", i, x, want[i])
		}
	}
}

func TestSamplerDeterministic(t *testing.T) {
	for _, kind := range []NoiseKind{NoisePerlin, NoiseSimplex} {
		cfg := DefaultNoiseConfig()
		cfg.Kind = kind
		a, err := NewSampler(cfg)
		if err != nil {
			t.Fatalf("%s: %v", kind, err)
		}
		b, err := NewSampler(cfg)
		if err != nil {
			t.Fatalf("%s: %v", kind, err)
		}
		for i := 0; i < 50; i++ {
			x := float32(i)*3.7 - 90
			z := float32(i)*1.3 - 20
			if a.Sample(x, z) != b.Sample(x, z) {
				t.Fatalf("%s: sample (%v,%v) not deterministic", kind, x, z)
			}
		}
	}
}

func TestSamplerSeedChangesTerrain(t *testing.T) {
	cfgA := DefaultNoiseConfig()
	cfgB := cfgA
	cfgB.Seed = cfgA.Seed + 1
	a, _ := NewSampler(cfgA)
	b, _ := NewSampler(cfgB)
	differs := false
	for i := 0; i < 64 && !differs; i++ {
		x := float32(i)*7.3 + 0.5
		z := float32(i)*5.1 + 0.25
		differs = a.Sample(x, z) != b.Sample(x, z)
	}
	if !differs {
		t.Fatal("different seeds should yield different heights")
	}
}

func TestSamplerZeroAmplitudeIsFlat(t *testing.T) {
	cfg := DefaultNoiseConfig()
	cfg.BaseAmplitude = 0
	s, err := NewSampler(cfg)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		if h := s.Sample(float32(i)*11.1, float32(i)*-3.3); h != 0 {
			t.Fatalf("expected flat terrain, got %v", h)
		}
	}
}

func TestSamplerBounded(t *testing.T) {
	s, err := NewSampler(DefaultNoiseConfig())
	if err != nil {
		t.Fatal(err)
	}
	// Primitive output lies within [-1, 1], so the sum is bounded by the
	// total amplitude.
	limit := 2 * float64(DefaultNoiseConfig().BaseAmplitude)
	for i := 0; i < 200; i++ {
		h := float64(s.Sample(float32(i)*2.9-300, float32(i)*1.7-150))
		if math.IsNaN(h) || math.Abs(h) > limit {
			t.Fatalf("sample %d out of bounds: %v", i, h)
		}
	}
}

func TestNewPrimitiveUnknownKind(t *testing.T) {
	if _, err := NewPrimitive("worley", 1); err == nil {
		t.Fatal("expected error for unknown noise kind")
	}
}

func TestNoiseConfigValidate(t *testing.T) {
	if err := DefaultNoiseConfig().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	bad := NoiseConfig{Seed: 500, BaseAmplitude: -1, BaseFrequency: 1, Kind: "worley"}
	err := bad.Validate()
	if err == nil {
		t.Fatal("expected validation failure")
	}
	for _, field := range []string{"seed", "base_amplitude", "base_frequency", "worley"} {
		if !strings.Contains(err.Error(), field) {
			t.Fatalf("expected error to mention %q, got %v", field, err)
		}
	}
	clamped := bad.Clamped()
	clamped.Kind = NoisePerlin
	if err := clamped.Validate(); err != nil {
		t.Fatalf("clamped config should validate: %v", err)
	}
}
