package transpiler

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qpass/internal/gates"
	"github.com/roach88/qpass/internal/ir"
	"github.com/roach88/qpass/internal/target"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ============================================================================
// Bell scenario
// ============================================================================

func TestPreset_BellOnNativeTarget(t *testing.T) {
	tg := builtin(t, "bell2")
	for level := 0; level <= 3; level++ {
		t.Run(fmt.Sprintf("level %d", level), func(t *testing.T) {
			pm, err := GeneratePresetPassManager(tg, gates.Standard(), level)
			require.NoError(t, err)

			c := bell(t)
			out, props, err := pm.Run(c, tg)
			require.NoError(t, err)

			assert.Equal(t, 2, out.Len())
			assert.Equal(t, c.Instructions(), out.Instructions())
			layout, ok := props.Layout()
			require.True(t, ok)
			assert.Equal(t, []int{0, 1}, layout.Mapping())
			final, ok := props.FinalLayout()
			require.True(t, ok)
			assert.Equal(t, []int{0, 1}, final.Mapping())

			swaps, _ := props.Int(KeySwapCount)
			assert.Equal(t, 0, swaps)
			counts, _ := props.Get(KeyCountOps)
			assert.Equal(t, map[string]int{"h": 1, "cx": 1}, counts)
		})
	}
}

// ============================================================================
// PassManager
// ============================================================================

func TestRun_DoesNotModifyInput(t *testing.T) {
	tg := builtin(t, "line5")
	c := ir.NewWithQubits("c", 3, 0)
	require.NoError(t, c.AppendAt(gates.H(), []int{0}))
	require.NoError(t, c.AppendAt(gates.CX(), []int{0, 2}))
	before := c.Copy()

	pm, err := GeneratePresetPassManager(tg, gates.Standard(), 2)
	require.NoError(t, err)
	_, _, err = pm.Run(c, tg)
	require.NoError(t, err)
	assert.True(t, c.Equal(before))
	assert.Equal(t, 3, c.NumQubits())
}

func TestRun_UnknownOperation(t *testing.T) {
	tg := builtin(t, "bell2")
	c := ir.NewWithQubits("c", 1, 0)
	require.NoError(t, c.AppendAt(ir.NewOperation("frob", 1, 0), []int{0}))

	pm, err := GeneratePresetPassManager(tg, gates.Standard(), 0)
	require.NoError(t, err)
	out, props, err := pm.Run(c, tg)
	require.Error(t, err)
	assert.True(t, gates.IsUnknownOperation(err))
	assert.Nil(t, out)
	assert.Nil(t, props)
}

func TestRun_AbortsOnFirstFailure(t *testing.T) {
	tg := builtin(t, "split4")
	c := ir.NewWithQubits("c", 4, 0)
	require.NoError(t, c.AppendAt(gates.CX(), []int{0, 1}))
	require.NoError(t, c.AppendAt(gates.CX(), []int{2, 3}))
	require.NoError(t, c.AppendAt(gates.CX(), []int{0, 2}))

	ran := false
	probe := AnalysisFunc{Label: "Probe", Fn: func(*ir.Circuit, *Env) error {
		ran = true
		return nil
	}}
	pm, err := GeneratePresetPassManager(tg, gates.Standard(), 1, WithStagePasses(StageTranslation, probe))
	require.NoError(t, err)

	out, props, err := pm.Run(c, tg)
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Nil(t, props)
	assert.False(t, ran, "passes after the failure must not run")
	assert.True(t, IsUnsatisfiableConnectivity(err))

	var pe *PassError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "Layout", pe.Pass)
	assert.Equal(t, 1, pe.Index)
}

func TestRun_NilTarget(t *testing.T) {
	pm := NewPassManager(gates.Standard(), nil)
	_, _, err := pm.Run(bell(t), nil)
	assert.Error(t, err)
}

func TestRun_PassReturningNilCircuit(t *testing.T) {
	broken := brokenPass{}
	pm := NewPassManager(gates.Standard(), []Pass{broken})
	_, _, err := pm.Run(bell(t), builtin(t, "bell2"))
	require.Error(t, err)
	var pe *PassError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "Broken", pe.Pass)
}

func TestRun_LogsEveryPass(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	tg := builtin(t, "bell2")

	pm, err := GeneratePresetPassManager(tg, gates.Standard(), 0, WithLogger(logger))
	require.NoError(t, err)
	_, _, err = pm.Run(bell(t), tg)
	require.NoError(t, err)

	for _, p := range pm.Passes() {
		assert.Contains(t, buf.String(), "pass="+p.Name())
	}
}

func TestRun_KeepProperties(t *testing.T) {
	tg := builtin(t, "bell2")
	pm, err := GeneratePresetPassManager(tg, gates.Standard(), 0, WithKeepProperties(KeyLayout, KeySwapCount))
	require.NoError(t, err)

	_, props, err := pm.Run(bell(t), tg)
	require.NoError(t, err)
	assert.Equal(t, []string{KeyLayout, KeySwapCount}, props.Keys())
}

func TestRun_ExplicitPassList(t *testing.T) {
	tg := builtin(t, "bell2")
	c := ir.NewWithQubits("c", 1, 0)
	require.NoError(t, c.AppendAt(gates.H(), []int{0}))
	require.NoError(t, c.AppendAt(gates.H(), []int{0}))

	pm := NewPassManager(gates.Standard(), []Pass{CancelInversesPass{}, CountOpsPass()})
	out, props, err := pm.Run(c, tg)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Len())
	size, _ := props.Int(KeySize)
	assert.Equal(t, 0, size)
}

// ============================================================================
// Preset generation
// ============================================================================

func TestPreset_PassOrder(t *testing.T) {
	tg := builtin(t, "line5")
	extra := AnalysisFunc{Label: "Extra", Fn: func(*ir.Circuit, *Env) error { return nil }}

	tests := []struct {
		level int
		opts  []Option
		want  []string
	}{
		{0, nil, []string{"UnrollMultiQubit", "Layout", "Routing", "BasisTranslator", "CountOps"}},
		{1, nil, []string{"UnrollMultiQubit", "Layout", "Routing", "BasisTranslator", "RemoveIdentities", "CancelInverses", "CountOps"}},
		{2, nil, []string{"UnrollMultiQubit", "Layout", "Routing", "BasisTranslator", "CancelInverses", "MergeRotations", "RemoveIdentities", "CountOps"}},
		{3, nil, []string{"UnrollMultiQubit", "Layout", "Routing", "BasisTranslator", "FixedPoint[CancelInverses MergeRotations RemoveIdentities]", "CountOps"}},
		{0, []Option{WithStagePasses(StageLayout, extra)}, []string{"UnrollMultiQubit", "Layout", "Extra", "Routing", "BasisTranslator", "CountOps"}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("level %d", tt.level), func(t *testing.T) {
			pm, err := GeneratePresetPassManager(tg, gates.Standard(), tt.level, tt.opts...)
			require.NoError(t, err)
			var got []string
			for _, p := range pm.Passes() {
				got = append(got, p.Name())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPreset_PlacesGroupsOnDisconnectedTarget(t *testing.T) {
	tg := islands(t, 7, [][2]int{{0, 1}, {1, 2}, {2, 3}, {4, 5}, {5, 6}})
	c := ir.NewWithQubits("c", 7, 0)
	for _, pair := range [][]int{{0, 1}, {1, 2}, {3, 4}, {5, 6}} {
		require.NoError(t, c.AppendAt(gates.CX(), pair))
	}

	for level := 0; level <= 3; level++ {
		t.Run(fmt.Sprintf("level%d", level), func(t *testing.T) {
			pm, err := GeneratePresetPassManager(tg, gates.Standard(), level)
			require.NoError(t, err)
			out, props, err := pm.Run(c, tg)
			require.NoError(t, err)

			mapped, ok := props.Bool(KeyIsSwapMapped)
			assert.True(t, ok && mapped)
			for _, in := range out.Instructions() {
				if len(in.Qubits) == 2 {
					assert.True(t, tg.Coupling().Adjacent(in.Qubits[0], in.Qubits[1]), "%s on %v", in.Name(), in.Qubits)
				}
			}
		})
	}
}

func TestFingerprint(t *testing.T) {
	assert.Empty(t, Fingerprint())
	assert.Empty(t, Fingerprint(WithLogger(discardLogger())))

	keep := Fingerprint(WithKeepProperties("swap_count", "depth"))
	assert.Equal(t, "keep=depth,swap_count", keep)
	assert.Equal(t, keep, Fingerprint(WithKeepProperties("depth", "swap_count")))

	staged := Fingerprint(
		WithStagePasses(StageOptimization, CancelInversesPass{}),
		WithStagePasses(StageInit, RemoveIdentitiesPass{}),
		WithMaxIterations(4),
	)
	assert.Equal(t, "stage.init=RemoveIdentities;stage.optimization=CancelInverses;max_iterations=4", staged)
	assert.Equal(t, "layout=trivial", Fingerprint(WithLayoutMethod(LayoutTrivial)))
}

func TestPreset_InvalidLevel(t *testing.T) {
	tg := builtin(t, "line5")
	for _, level := range []int{-1, 4} {
		_, err := GeneratePresetPassManager(tg, gates.Standard(), level)
		assert.Error(t, err, "level %d", level)
	}
}

func TestPreset_UnknownBasisOperation(t *testing.T) {
	tg, err := target.New("odd", 1, []string{"frob"}, target.FullyConnected(1))
	require.NoError(t, err)
	_, err = GeneratePresetPassManager(tg, gates.Standard(), 0)
	assert.True(t, gates.IsUnknownOperation(err))
}

func TestPreset_UnknownLayoutMethod(t *testing.T) {
	_, err := GeneratePresetPassManager(builtin(t, "line5"), gates.Standard(), 0, WithLayoutMethod("dense"))
	assert.Error(t, err)
}

func TestPreset_PreservesSemantics(t *testing.T) {
	reg := gates.Standard()
	circuits := map[string]func(*testing.T) *ir.Circuit{
		"line5": func(t *testing.T) *ir.Circuit {
			c := ir.NewWithQubits("mix", 5, 0)
			appendAll(t, c,
				gate(gates.H(), 0), gate(gates.CX(), 0, 4), gate(gates.RZ(0.3), 2),
				gate(gates.CCX(), 1, 2, 3), gate(gates.CZ(), 3, 0), gate(gates.Swap(), 1, 4),
				gate(gates.RY(0.7), 4), gate(gates.CX(), 4, 0), gate(gates.T(), 1), gate(gates.Tdg(), 1),
			)
			return c
		},
		"ring6": func(t *testing.T) *ir.Circuit {
			c := ir.NewWithQubits("mix", 6, 0)
			appendAll(t, c,
				gate(gates.H(), 0), gate(gates.CX(), 0, 3), gate(gates.CRZ(0.9), 5, 2),
				gate(gates.SX(), 4), gate(gates.CP(0.4), 1, 4), gate(gates.X(), 3),
				gate(gates.X(), 3), gate(gates.CY(), 2, 0),
			)
			return c
		},
	}
	for name, build := range circuits {
		tg := builtin(t, name)
		for level := 0; level <= 3; level++ {
			t.Run(fmt.Sprintf("%s level %d", name, level), func(t *testing.T) {
				c := build(t)
				pm, err := GeneratePresetPassManager(tg, reg, level)
				require.NoError(t, err)
				out, props, err := pm.Run(c, tg)
				require.NoError(t, err)

				cm := tg.Coupling()
				for _, in := range out.Instructions() {
					assert.True(t, tg.Supports(in.Name()), "%s is not native", in.Name())
					if len(in.Qubits) == 2 {
						assert.True(t, cm.Adjacent(in.Qubits[0], in.Qubits[1]), "%s on %v", in.Name(), in.Qubits)
					}
				}

				initial, ok := props.Layout()
				require.True(t, ok)
				final, ok := props.FinalLayout()
				require.True(t, ok)
				assertEquivalent(t, reg, c, out, initial, final)
			})
		}
	}
}

func TestPreset_HigherLevelsNeverGrow(t *testing.T) {
	tg := builtin(t, "line5")
	c := ir.NewWithQubits("c", 3, 0)
	appendAll(t, c,
		gate(gates.H(), 0), gate(gates.H(), 0), gate(gates.RZ(0.2), 1),
		gate(gates.RZ(0.3), 1), gate(gates.CX(), 0, 2), gate(gates.S(), 2), gate(gates.Sdg(), 2),
	)
	prev := -1
	for level := 0; level <= 3; level++ {
		pm, err := GeneratePresetPassManager(tg, gates.Standard(), level)
		require.NoError(t, err)
		out, _, err := pm.Run(c, tg)
		require.NoError(t, err)
		if prev >= 0 {
			assert.LessOrEqual(t, out.Len(), prev, "level %d", level)
		}
		prev = out.Len()
	}
}

// ============================================================================
// Helpers
// ============================================================================

type brokenPass struct{}

func (brokenPass) Name() string                               { return "Broken" }
func (brokenPass) Run(*ir.Circuit, *Env) (*ir.Circuit, error) { return nil, nil }

type gateSpec struct {
	op     ir.Operation
	qubits []int
}

func gate(op ir.Operation, qubits ...int) gateSpec { return gateSpec{op, qubits} }

func appendAll(t *testing.T, c *ir.Circuit, gs ...gateSpec) {
	t.Helper()
	for _, g := range gs {
		require.NoError(t, c.AppendAt(g.op, g.qubits))
	}
}
