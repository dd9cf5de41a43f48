//go:build !gl

package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(os.Stderr, "gpu-erode requires an OpenGL 4.3 driver and the gl build tag.")
	fmt.Fprintln(os.Stderr, "Re-run with `go run -tags gl ./cmd/gpu-erode` or use ./cmd/erode on the CPU.")
	os.Exit(2)
}
