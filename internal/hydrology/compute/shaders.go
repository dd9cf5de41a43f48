package compute

import (
	_ "embed"
	"fmt"
	"strings"
)

//go:embed shaders/erosion.comp
var erosionSource string

// ShaderSource returns the GLSL compute source for a pipeline with its entry
// point selected by a preprocessor define placed after the #version line.
func ShaderSource(id PipelineID) (string, error) {
	var define string
	switch id {
	case PipelineInit:
		define = "#define ENTRY_INIT"
	case PipelineUpdate:
		define = "#define ENTRY_UPDATE"
	default:
		return "", fmt.Errorf("compute: no shader entry for %s", id)
	}
	version, rest, ok := strings.Cut(erosionSource, "\n")
	if !ok || !strings.HasPrefix(version, "#version") {
		return "", fmt.Errorf("compute: shader source lacks a #version line")
	}
	return version + "\n" + define + "\n" + rest, nil
}
