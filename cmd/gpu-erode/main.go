//go:build gl

// Command gpu-erode runs the compute-shader erosion path in a hidden window
// and writes the resulting heightmap as a grayscale PNG.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"hydro-terrain/internal/config"
	"hydro-terrain/internal/core"
	"hydro-terrain/internal/hydrology/compute"
	"hydro-terrain/internal/logging"
	"hydro-terrain/internal/render"
)

func init() {
	// GL calls must stay on the thread owning the context.
	runtime.LockOSThread()
}

func main() {
	opts := config.Bind(flag.CommandLine)
	tps := flag.Int("tps", 60, "node ticks per second")
	maxTicks := flag.Int("ticks", 5000, "stop after this many ticks even if the budget remains")
	out := flag.String("out", "gpu-heights.png", "heightmap PNG output path")
	flag.Parse()

	cfg, err := opts.Resolve()
	if err != nil {
		logging.New("info", os.Stderr).Error("configuration", "error", err)
		os.Exit(2)
	}
	log := logging.New(cfg.LogLevel, os.Stdout)
	if err := run(log, cfg, *tps, *maxTicks, *out); err != nil {
		log.Error("gpu erosion failed", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger, cfg *config.Config, tps, maxTicks int, out string) error {
	size := core.Size{W: cfg.World.Width, H: cfg.World.Height}

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize GLFW: %w", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	window, err := glfw.CreateWindow(64, 64, "gpu-erode", nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	defer window.Destroy()
	window.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		return fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	log.Info("gl context ready", "version", gl.GoStr(gl.GetString(gl.VERSION)), "size", size)

	backend, err := compute.NewGLBackend(size)
	if err != nil {
		return err
	}
	defer backend.Release()
	backend.Queue(compute.PipelineInit, compute.PipelineUpdate)

	noise := compute.DefaultGPUNoise()
	noise.Seed = cfg.World.Noise.Seed
	budget := cfg.World.Erosion
	uniform := compute.NewUniform(noise, budget)
	node := compute.NewNode(size)
	ticker := core.NewFixedStep(tps)

	start := time.Now()
	state := node.State()
	for tick := 0; tick < maxTicks && !window.ShouldClose(); {
		glfw.PollEvents()
		backend.Poll()
		if !ticker.ShouldStep() {
			time.Sleep(ticker.Interval() / 4)
			continue
		}
		tick++

		if err := node.Update(backend); err != nil {
			for _, id := range []compute.PipelineID{compute.PipelineInit, compute.PipelineUpdate} {
				if perr := backend.Err(id); perr != nil {
					log.Error("pipeline", "id", id, "error", perr)
				}
			}
			return err
		}
		if s := node.State(); s != state {
			log.Info("node state", "from", state, "to", s, "tick", tick)
			state = s
		}

		uniform.Refresh(time.Since(start), budget)
		backend.Upload(uniform)
		if err := node.Run(backend, &budget); err != nil {
			return err
		}
		if state == compute.StateUpdate && budget.Exhausted() {
			log.Info("drop budget exhausted", "drops", budget.TotalDropsIssued, "tick", tick)
			break
		}
	}

	if state == compute.StateLoading {
		return fmt.Errorf("pipelines never became ready")
	}
	gl.Finish()
	heights := backend.ReadHeights()
	if err := render.WritePNG(out, render.HeightCells(heights.Cells()), size, render.GrayPalette()); err != nil {
		return err
	}
	log.Info("heightmap written", "path", out, "drops", budget.TotalDropsIssued, "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}
