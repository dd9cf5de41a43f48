package compute

import "hydro-terrain/internal/core"

// TextureFormat identifies a texel layout.
type TextureFormat int

const (
	FormatR32Float TextureFormat = iota
	FormatRGBA32Float
)

// Channels reports float components per texel.
func (f TextureFormat) Channels() int {
	if f == FormatRGBA32Float {
		return 4
	}
	return 1
}

// Texture bindings shared by the shader and the backend.
const (
	BindingHeightmap = iota
	BindingNormalTopRight
	BindingNormalBottomLeft
)

// TextureSpec describes one storage image resident on the GPU.
type TextureSpec struct {
	Name    string
	Binding int
	Format  TextureFormat
	Size    core.Size
}

// Bytes is the allocation size of the texture.
func (t TextureSpec) Bytes() int {
	return t.Size.Cells() * t.Format.Channels() * 4
}

// Textures lists the images used by both passes: the heightmap plus one
// normal map per triangle of each cell.
func Textures(size core.Size) []TextureSpec {
	return []TextureSpec{
		{Name: "heightmap", Binding: BindingHeightmap, Format: FormatR32Float, Size: size},
		{Name: "normalmap_topright", Binding: BindingNormalTopRight, Format: FormatRGBA32Float, Size: size},
		{Name: "normalmap_bottomleft", Binding: BindingNormalBottomLeft, Format: FormatRGBA32Float, Size: size},
	}
}
