// Command erosion-sweep runs the same terrain under a grid of erosion
// parameters and ranks the results by how deeply they carve.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"hydro-terrain/internal/core"
	simhydro "hydro-terrain/internal/sims/hydrology"
	pcore "hydro-terrain/pkg/core"
)

type kvList []string

func (l *kvList) String() string {
	return strings.Join(*l, ",")
}

func (l *kvList) Set(value string) error {
	if !strings.Contains(value, "=") {
		return fmt.Errorf("override %q is not key=value", value)
	}
	*l = append(*l, value)
	return nil
}

type paramSet struct {
	dt         float64
	deposition float64
	evap       float64
	friction   float64
}

func (p paramSet) String() string {
	return fmt.Sprintf("dt=%.2f deposition=%.3f evap=%.4f friction=%.3f", p.dt, p.deposition, p.evap, p.friction)
}

func (p paramSet) apply(base map[string]string) map[string]string {
	m := make(map[string]string, len(base)+4)
	for k, v := range base {
		m[k] = v
	}
	m["dt"] = strconv.FormatFloat(p.dt, 'f', -1, 64)
	m["deposition_rate"] = strconv.FormatFloat(p.deposition, 'f', -1, 64)
	m["evap_rate"] = strconv.FormatFloat(p.evap, 'f', -1, 64)
	m["friction"] = strconv.FormatFloat(p.friction, 'f', -1, 64)
	return m
}

type scenarioResult struct {
	params   paramSet
	drops    int
	maxCut   float32
	maxFill  float32
	volume   float64
	reliefIn float32
	reliefAt float32
	elapsed  time.Duration
}

func main() {
	passes := flag.Int("passes", 40, "erosion passes per scenario")
	workers := flag.Int("workers", runtime.NumCPU(), "number of worker goroutines")
	size := flag.Int("size", 96, "grid width and height")
	seed := flag.Int64("seed", 1337, "droplet seed shared by every scenario")
	samples := flag.Int("samples", 0, "extra random parameter sets drawn inside the UI ranges")
	top := flag.Int("top", 5, "results to print")
	var overrides kvList
	flag.Var(&overrides, "set", "base parameter override in key=value form (repeatable)")
	flag.Parse()

	factory, ok := core.Sims()["hydrology"]
	if !ok {
		fmt.Fprintln(os.Stderr, "hydrology sim not registered")
		os.Exit(1)
	}

	base := map[string]string{
		"w":    strconv.Itoa(*size),
		"h":    strconv.Itoa(*size),
		"seed": strconv.FormatInt(*seed, 10),
	}
	for _, kv := range overrides {
		parts := strings.SplitN(kv, "=", 2)
		base[parts[0]] = parts[1]
	}

	var sets []paramSet
	for _, dt := range []float64{0.8, 1.2, 1.6} {
		for _, dep := range []float64{0.05, 0.1, 0.3} {
			for _, evap := range []float64{0.0005, 0.001, 0.004} {
				for _, fr := range []float64{0.02, 0.05, 0.15} {
					sets = append(sets, paramSet{dt: dt, deposition: dep, evap: evap, friction: fr})
				}
			}
		}
	}
	rng := pcore.NewRNG(*seed)
	for i := 0; i < *samples; i++ {
		sets = append(sets, paramSet{
			dt:         rng.Range(0.01, 2.0),
			deposition: rng.Range(0.01, 1.0),
			evap:       rng.Range(0.0001, 0.01),
			friction:   rng.Range(0.005, 0.5),
		})
	}

	fmt.Printf("Sweeping %d parameter sets (%d workers, %d passes, %dx%d)\n", len(sets), *workers, *passes, *size, *size)

	jobs := make(chan paramSet)
	results := make(chan scenarioResult)
	var wg sync.WaitGroup

	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for params := range jobs {
				results <- runScenario(factory, base, params, *passes)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	go func() {
		for _, params := range sets {
			jobs <- params
		}
		close(jobs)
	}()

	start := time.Now()
	var all []scenarioResult
	for res := range results {
		all = append(all, res)
	}

	sort.Slice(all, func(i, j int) bool { return all[i].maxCut > all[j].maxCut })

	fmt.Printf("\nTop %d results (elapsed %s):\n", *top, time.Since(start).Round(time.Millisecond))
	for i := 0; i < len(all) && i < *top; i++ {
		res := all[i]
		fmt.Printf("%2d) cut=%.3f fill=%.3f moved=%.2f relief=%.2f->%.2f drops=%d took=%s params=%s\n",
			i+1, res.maxCut, res.maxFill, res.volume, res.reliefIn, res.reliefAt, res.drops,
			res.elapsed.Round(time.Millisecond), res.params)
	}
}

func runScenario(factory core.Factory, base map[string]string, params paramSet, passes int) scenarioResult {
	start := time.Now()
	world := factory(params.apply(base)).(*simhydro.World)
	world.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	initial := append([]float32(nil), world.ElevationField()...)
	lo, hi := world.Mesh().HeightRange()
	_ = world.Run(context.Background(), passes, nil)

	res := scenarioResult{params: params, drops: world.DropCount(), reliefIn: hi - lo}
	for i, h := range world.ElevationField() {
		d := initial[i] - h
		res.maxCut = max(res.maxCut, d)
		res.maxFill = max(res.maxFill, -d)
		if d > 0 {
			res.volume += float64(d)
		}
	}
	lo, hi = world.Mesh().HeightRange()
	res.reliefAt = hi - lo
	res.elapsed = time.Since(start)
	return res
}
