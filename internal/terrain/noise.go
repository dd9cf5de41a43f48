package terrain

import (
	"errors"
	"fmt"

	perlin "github.com/aquilax/go-perlin"
	opensimplex "github.com/ojrac/opensimplex-go"
)

// NoiseKind selects the gradient noise primitive behind a Sampler.
type NoiseKind string

const (
	NoisePerlin  NoiseKind = "perlin"
	NoiseSimplex NoiseKind = "simplex"
)

// OctaveCount is the number of layers summed by a Sampler.
const OctaveCount = 6

// Bounds exposed to interactive controls.
const (
	SeedMin      = 0
	SeedMax      = 120
	AmplitudeMin = 0.0
	AmplitudeMax = 120.0
	FrequencyMin = 0.0005
	FrequencyMax = 0.05
)

// NoiseConfig parameterizes the fractal height function.
type NoiseConfig struct {
	Seed          int64     `yaml:"seed"`
	BaseAmplitude float32   `yaml:"base_amplitude"`
	BaseFrequency float32   `yaml:"base_frequency"`
	Kind          NoiseKind `yaml:"kind"`
}

// DefaultNoiseConfig returns the standard terrain parameters.
func DefaultNoiseConfig() NoiseConfig {
	return NoiseConfig{
		Seed:          96,
		BaseAmplitude: 20,
		BaseFrequency: 0.01,
		Kind:          NoisePerlin,
	}
}

// Octave is one layer of the fractal sum.
type Octave struct {
	Amplitude float32
	Frequency float32
}

// Octaves derives the layer list: frequency doubles and amplitude halves per
// octave.
func (c NoiseConfig) Octaves() []Octave {
	octaves := make([]Octave, OctaveCount)
	amp, freq := c.BaseAmplitude, c.BaseFrequency
	for i := range octaves {
		octaves[i] = Octave{Amplitude: amp, Frequency: freq}
		amp /= 2
		freq *= 2
	}
	return octaves
}

// Validate reports every field outside its documented range.
func (c NoiseConfig) Validate() error {
	var errs []error
	if c.Seed < SeedMin || c.Seed > SeedMax {
		errs = append(errs, fmt.Errorf("seed %d outside [%d, %d]", c.Seed, SeedMin, SeedMax))
	}
	if c.BaseAmplitude < AmplitudeMin || c.BaseAmplitude > AmplitudeMax {
		errs = append(errs, fmt.Errorf("base_amplitude %g outside [%g, %g]", c.BaseAmplitude, AmplitudeMin, AmplitudeMax))
	}
	if c.BaseFrequency < FrequencyMin || c.BaseFrequency > FrequencyMax {
		errs = append(errs, fmt.Errorf("base_frequency %g outside [%g, %g]", c.BaseFrequency, FrequencyMin, FrequencyMax))
	}
	switch c.Kind {
	case "", NoisePerlin, NoiseSimplex:
	default:
		errs = append(errs, fmt.Errorf("unknown noise kind %q", c.Kind))
	}
	return errors.Join(errs...)
}

// Clamped pins every numeric field into range.
func (c NoiseConfig) Clamped() NoiseConfig {
	c.Seed = min(max(c.Seed, SeedMin), SeedMax)
	c.BaseAmplitude = min(max(c.BaseAmplitude, AmplitudeMin), AmplitudeMax)
	c.BaseFrequency = min(max(c.BaseFrequency, FrequencyMin), FrequencyMax)
	return c
}

// Primitive is a deterministic 2D coherent noise function.
type Primitive interface {
	Noise2D(x, y float64) float64
}

// NewPrimitive returns the seeded primitive for kind. An empty kind selects
// Perlin noise.
func NewPrimitive(kind NoiseKind, seed int64) (Primitive, error) {
	switch kind {
	case "", NoisePerlin:
		// n=1: a single octave; the fractal sum lives in Sampler.
		return perlin.NewPerlin(2, 2, 1, seed), nil
	case NoiseSimplex:
		return simplex{n: opensimplex.New(seed)}, nil
	default:
		return nil, fmt.Errorf("terrain: unknown noise kind %q", kind)
	}
}

type simplex struct {
	n opensimplex.Noise
}

func (s simplex) Noise2D(x, y float64) float64 { return s.n.Eval2(x, y) }

// Sampler evaluates the fractal height at a world position.
type Sampler struct {
	prim    Primitive
	octaves []Octave
}

// NewSampler builds a Sampler for cfg.
func NewSampler(cfg NoiseConfig) (*Sampler, error) {
	prim, err := NewPrimitive(cfg.Kind, cfg.Seed)
	if err != nil {
		return nil, err
	}
	return NewSamplerFrom(prim, cfg), nil
}

// NewSamplerFrom sums octaves of an arbitrary primitive.
func NewSamplerFrom(prim Primitive, cfg NoiseConfig) *Sampler {
	return &Sampler{prim: prim, octaves: cfg.Octaves()}
}

// Sample returns the height at world coordinates (x, z).
func (s *Sampler) Sample(x, z float32) float32 {
	var sum float64
	for _, o := range s.octaves {
		f := float64(o.Frequency)
		sum += s.prim.Noise2D(float64(x)*f, float64(z)*f) * float64(o.Amplitude)
	}
	return float32(sum)
}
