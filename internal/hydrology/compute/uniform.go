package compute

import (
	"encoding/binary"
	"math"
	"time"

	"hydro-terrain/internal/hydrology"
	"hydro-terrain/internal/terrain"
)

// UniformSize is the std140 size of the Terrain uniform block: thirteen
// scalars rounded up to a vec4 boundary.
const UniformSize = 64

// DefaultGPUNoise returns the noise parameters the compute path starts with.
func DefaultGPUNoise() terrain.NoiseConfig {
	cfg := terrain.DefaultNoiseConfig()
	cfg.BaseAmplitude = 15
	cfg.BaseFrequency = 1.0 / 80
	return cfg
}

// Uniform mirrors the shader's Terrain block.
type Uniform struct {
	Seed           int32
	Amplitude      float32
	Frequency      float32
	TimeSeconds    float32
	DT             float32
	Density        float32
	EvapRate       float32
	DepositionRate float32
	MinVolume      float32
	Friction       float32
	DropsPerFrame  uint32
	DropCount      uint32
	MaxDrops       uint32
}

// NewUniform builds the block from the CPU-side configs.
func NewUniform(noise terrain.NoiseConfig, erosion hydrology.Config) Uniform {
	u := Uniform{
		Seed:      int32(noise.Seed),
		Amplitude: noise.BaseAmplitude,
		Frequency: noise.BaseFrequency,
	}
	u.setErosion(erosion)
	return u
}

// Refresh stamps the elapsed time and the current erosion parameters. It is
// called once per tick before dispatch.
func (u *Uniform) Refresh(elapsed time.Duration, erosion hydrology.Config) {
	u.TimeSeconds = float32(elapsed.Seconds())
	u.setErosion(erosion)
}

func (u *Uniform) setErosion(c hydrology.Config) {
	u.DT = c.DT
	u.Density = c.Density
	u.EvapRate = c.EvapRate
	u.DepositionRate = c.DepositionRate
	u.MinVolume = c.MinVolume
	u.Friction = c.Friction
	u.DropsPerFrame = uint32(max(c.DropsPerCycle, 0))
	u.DropCount = uint32(max(c.TotalDropsIssued, 0))
	u.MaxDrops = uint32(max(c.MaxDrops, 0))
}

// Bytes encodes the block in std140 layout, little endian.
func (u Uniform) Bytes() []byte {
	buf := make([]byte, UniformSize)
	words := []uint32{
		uint32(u.Seed),
		math.Float32bits(u.Amplitude),
		math.Float32bits(u.Frequency),
		math.Float32bits(u.TimeSeconds),
		math.Float32bits(u.DT),
		math.Float32bits(u.Density),
		math.Float32bits(u.EvapRate),
		math.Float32bits(u.DepositionRate),
		math.Float32bits(u.MinVolume),
		math.Float32bits(u.Friction),
		u.DropsPerFrame,
		u.DropCount,
		u.MaxDrops,
	}
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}
	return buf
}
