package compute

import (
	"errors"
	"strings"
	"testing"

	"hydro-terrain/internal/core"
	"hydro-terrain/internal/hydrology"
)

type fakeCache map[PipelineID]PipelineStatus

func (c fakeCache) Status(id PipelineID) PipelineStatus { return c[id] }

type dispatch struct {
	id      PipelineID
	x, y, z uint32
}

type fakeDispatcher struct {
	calls []dispatch
	err   error
}

func (d *fakeDispatcher) Dispatch(id PipelineID, x, y, z uint32) error {
	if d.err != nil {
		return d.err
	}
	d.calls = append(d.calls, dispatch{id, x, y, z})
	return nil
}

func TestNextTransitions(t *testing.T) {
	cases := []struct {
		from                    State
		initReady, updateReady bool
		want                    State
	}{
		{StateLoading, false, false, StateLoading},
		{StateLoading, false, true, StateLoading},
		{StateLoading, true, false, StateInit},
		{StateLoading, true, true, StateInit},
		{StateInit, true, false, StateInit},
		{StateInit, true, true, StateUpdate},
		{StateUpdate, false, false, StateUpdate},
		{StateUpdate, true, true, StateUpdate},
	}
	for _, tc := range cases {
		if got := Next(tc.from, tc.initReady, tc.updateReady); got != tc.want {
			t.Fatalf("Next(%s, %v, %v) = %s, want %s", tc.from, tc.initReady, tc.updateReady, got, tc.want)
		}
	}
}

func TestNodeLifecycle(t *testing.T) {
	cache := fakeCache{PipelineInit: StatusCompiling, PipelineUpdate: StatusQueued}
	d := &fakeDispatcher{}
	budget := hydrology.DefaultConfig()
	node := NewNode(DefaultSize)

	tick := func() {
		t.Helper()
		if err := node.Update(cache); err != nil {
			t.Fatal(err)
		}
		if err := node.Run(d, &budget); err != nil {
			t.Fatal(err)
		}
	}

	tick()
	if node.State() != StateLoading || len(d.calls) != 0 {
		t.Fatalf("expected idle loading node, state %s calls %v", node.State(), d.calls)
	}

	cache[PipelineInit] = StatusReady
	tick()
	if node.State() != StateInit {
		t.Fatalf("expected init, got %s", node.State())
	}
	if len(d.calls) != 1 || d.calls[0] != (dispatch{PipelineInit, 32, 32, 1}) {
		t.Fatalf("unexpected init dispatch %v", d.calls)
	}

	// Waiting for the update pipeline must not repeat the init pass.
	tick()
	tick()
	if node.State() != StateInit || len(d.calls) != 1 {
		t.Fatalf("init pass repeated: state %s calls %v", node.State(), d.calls)
	}

	cache[PipelineUpdate] = StatusReady
	tick()
	if node.State() != StateUpdate {
		t.Fatalf("expected update, got %s", node.State())
	}
	if last := d.calls[len(d.calls)-1]; last != (dispatch{PipelineUpdate, 2, 4, 1}) {
		t.Fatalf("unexpected update dispatch %v", last)
	}
	if budget.TotalDropsIssued != budget.DropsPerCycle {
		t.Fatalf("budget charged %d, want %d", budget.TotalDropsIssued, budget.DropsPerCycle)
	}

	// Update is terminal even if readiness flickers.
	cache[PipelineInit] = StatusCompiling
	tick()
	if node.State() != StateUpdate {
		t.Fatalf("state regressed to %s", node.State())
	}
}

func TestNodeSkipsUpdateWhenBudgetExhausted(t *testing.T) {
	cache := fakeCache{PipelineInit: StatusReady, PipelineUpdate: StatusReady}
	d := &fakeDispatcher{}
	budget := hydrology.DefaultConfig()
	budget.MaxDrops = 0
	node := NewNode(core.Size{W: 16, H: 16})
	for i := 0; i < 4; i++ {
		if err := node.Update(cache); err != nil {
			t.Fatal(err)
		}
		if err := node.Run(d, &budget); err != nil {
			t.Fatal(err)
		}
	}
	if len(d.calls) != 1 || d.calls[0].id != PipelineInit {
		t.Fatalf("expected only the init pass, got %v", d.calls)
	}
	if budget.TotalDropsIssued != 0 {
		t.Fatalf("exhausted budget charged: %d", budget.TotalDropsIssued)
	}
}

func TestNodeReportsFailedPipeline(t *testing.T) {
	node := NewNode(DefaultSize)
	err := node.Update(fakeCache{PipelineInit: StatusReady, PipelineUpdate: StatusFailed})
	if err == nil || !strings.Contains(err.Error(), "update") {
		t.Fatalf("expected update pipeline failure, got %v", err)
	}
}

func TestNodeRunWrapsDispatchError(t *testing.T) {
	node := NewNode(DefaultSize)
	if err := node.Update(fakeCache{PipelineInit: StatusReady}); err != nil {
		t.Fatal(err)
	}
	boom := errors.New("device lost")
	budget := hydrology.DefaultConfig()
	err := node.Run(&fakeDispatcher{err: boom}, &budget)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped dispatch error, got %v", err)
	}
	if id, _, ok := node.Plan(); !ok || id != PipelineInit {
		t.Fatal("failed init dispatch should be retried next tick")
	}
}

func TestInitGroupsRoundsUp(t *testing.T) {
	if got := InitGroups(core.Size{W: 20, H: 8}); got != [3]uint32{3, 1, 1} {
		t.Fatalf("InitGroups = %v", got)
	}
}

func TestShaderSourceSelectsEntry(t *testing.T) {
	for id, define := range map[PipelineID]string{PipelineInit: "ENTRY_INIT", PipelineUpdate: "ENTRY_UPDATE"} {
		src, err := ShaderSource(id)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(src, "#version 430") {
			t.Fatalf("%s: #version must stay first", id)
		}
		lines := strings.SplitN(src, "\n", 3)
		if lines[1] != "#define "+define {
			t.Fatalf("%s: second line %q", id, lines[1])
		}
	}
	if _, err := ShaderSource(PipelineID(9)); err == nil {
		t.Fatal("expected error for unknown pipeline")
	}
}

func TestTexturesLayout(t *testing.T) {
	specs := Textures(DefaultSize)
	if len(specs) != 3 {
		t.Fatalf("expected 3 textures, got %d", len(specs))
	}
	if specs[BindingHeightmap].Format != FormatR32Float || specs[BindingHeightmap].Bytes() != 256*256*4 {
		t.Fatalf("heightmap spec %+v", specs[BindingHeightmap])
	}
	for _, s := range specs[1:] {
		if s.Format != FormatRGBA32Float || s.Bytes() != 256*256*16 {
			t.Fatalf("normal map spec %+v", s)
		}
	}
}
