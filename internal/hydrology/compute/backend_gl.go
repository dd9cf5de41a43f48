//go:build gl

package compute

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.3-core/gl"

	"hydro-terrain/internal/core"
)

// GLBackend owns the OpenGL resources of the compute path. All methods must
// be called from the goroutine holding the current GL context.
type GLBackend struct {
	size core.Size

	queue    []PipelineID
	status   map[PipelineID]PipelineStatus
	errs     map[PipelineID]error
	programs map[PipelineID]uint32

	textures []uint32
	ubo      uint32
}

// NewGLBackend allocates the textures and uniform buffer. gl.Init must have
// succeeded on the current context.
func NewGLBackend(size core.Size) (*GLBackend, error) {
	b := &GLBackend{
		size:     size,
		status:   map[PipelineID]PipelineStatus{},
		errs:     map[PipelineID]error{},
		programs: map[PipelineID]uint32{},
	}
	for _, spec := range Textures(size) {
		var tex uint32
		gl.GenTextures(1, &tex)
		gl.BindTexture(gl.TEXTURE_2D, tex)
		gl.TexStorage2D(gl.TEXTURE_2D, 1, internalFormat(spec.Format), int32(size.W), int32(size.H))
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
		b.textures = append(b.textures, tex)
	}
	gl.GenBuffers(1, &b.ubo)
	gl.BindBuffer(gl.UNIFORM_BUFFER, b.ubo)
	gl.BufferData(gl.UNIFORM_BUFFER, UniformSize, nil, gl.DYNAMIC_DRAW)
	if code := gl.GetError(); code != gl.NO_ERROR {
		b.Release()
		return nil, fmt.Errorf("compute: allocate resources: gl error 0x%x", code)
	}
	return b, nil
}

func internalFormat(f TextureFormat) uint32 {
	if f == FormatRGBA32Float {
		return gl.RGBA32F
	}
	return gl.R32F
}

// Queue schedules pipelines for compilation.
func (b *GLBackend) Queue(ids ...PipelineID) {
	for _, id := range ids {
		if _, seen := b.status[id]; seen {
			continue
		}
		b.status[id] = StatusQueued
		b.queue = append(b.queue, id)
	}
}

// Poll compiles at most one queued pipeline.
func (b *GLBackend) Poll() {
	if len(b.queue) == 0 {
		return
	}
	id := b.queue[0]
	b.queue = b.queue[1:]
	b.status[id] = StatusCompiling

	src, err := ShaderSource(id)
	if err == nil {
		var prog uint32
		prog, err = compileComputeProgram(src)
		if err == nil {
			b.programs[id] = prog
			b.status[id] = StatusReady
			return
		}
	}
	b.errs[id] = fmt.Errorf("failed to compile %s shader: %w", id, err)
	b.status[id] = StatusFailed
}

// Status implements PipelineCache.
func (b *GLBackend) Status(id PipelineID) PipelineStatus {
	s, ok := b.status[id]
	if !ok {
		return StatusQueued
	}
	return s
}

// Err returns the compile error of a failed pipeline.
func (b *GLBackend) Err(id PipelineID) error { return b.errs[id] }

// Upload copies the uniform block to the GPU.
func (b *GLBackend) Upload(u Uniform) {
	data := u.Bytes()
	gl.BindBuffer(gl.UNIFORM_BUFFER, b.ubo)
	gl.BufferSubData(gl.UNIFORM_BUFFER, 0, len(data), gl.Ptr(data))
}

// Dispatch implements Dispatcher.
func (b *GLBackend) Dispatch(id PipelineID, x, y, z uint32) error {
	prog, ok := b.programs[id]
	if !ok {
		return fmt.Errorf("pipeline %s not ready", id)
	}
	gl.UseProgram(prog)
	gl.BindBufferBase(gl.UNIFORM_BUFFER, 0, b.ubo)
	for i, spec := range Textures(b.size) {
		gl.BindImageTexture(uint32(spec.Binding), b.textures[i], 0, false, 0, gl.READ_WRITE, internalFormat(spec.Format))
	}
	gl.DispatchCompute(x, y, z)
	gl.MemoryBarrier(gl.SHADER_IMAGE_ACCESS_BARRIER_BIT | gl.TEXTURE_FETCH_BARRIER_BIT)
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("gl error 0x%x", code)
	}
	return nil
}

// ReadHeights copies the heightmap back to the CPU.
func (b *GLBackend) ReadHeights() *core.Grid[float32] {
	g := core.NewGrid[float32](b.size.W, b.size.H)
	gl.BindTexture(gl.TEXTURE_2D, b.textures[BindingHeightmap])
	gl.GetTexImage(gl.TEXTURE_2D, 0, gl.RED, gl.FLOAT, gl.Ptr(g.Cells()))
	return g
}

// Release deletes every GL object owned by the backend.
func (b *GLBackend) Release() {
	for id, prog := range b.programs {
		gl.DeleteProgram(prog)
		delete(b.programs, id)
	}
	if len(b.textures) > 0 {
		gl.DeleteTextures(int32(len(b.textures)), &b.textures[0])
		b.textures = nil
	}
	if b.ubo != 0 {
		gl.DeleteBuffers(1, &b.ubo)
		b.ubo = 0
	}
}

func compileComputeProgram(source string) (uint32, error) {
	shader := gl.CreateShader(gl.COMPUTE_SHADER)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("shader compilation failed: %v", log)
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, shader)
	gl.LinkProgram(program)
	gl.DeleteShader(shader)

	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("program link failed: %v", log)
	}
	return program, nil
}
