package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	cubism "github.com/wippyai/cubism-runtime"
	"github.com/wippyai/cubism-runtime/backend/direct"
	"github.com/wippyai/cubism-runtime/backend/hostobj"
	"github.com/wippyai/cubism-runtime/internal/enginetest"
	"github.com/wippyai/cubism-runtime/runtime"
)

func main() {
	var (
		mocFile     = flag.String("moc", "", "Path to a compiled moc file")
		coreFile    = flag.String("core", "", "Path to a wasm-compiled core (default: built-in reference core)")
		demo        = flag.Bool("demo", false, "Use the built-in demo moc")
		verbose     = flag.Bool("v", false, "Verbose logging")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *mocFile == "" && !*demo {
		fmt.Fprintln(os.Stderr, "Usage: mocview -moc <file.moc3> [-core core.wasm] [-v]")
		fmt.Fprintln(os.Stderr, "       mocview -demo  (built-in demo moc)")
		fmt.Fprintln(os.Stderr, "       mocview -demo -i  (interactive mode)")
		os.Exit(1)
	}

	if err := run(*mocFile, *coreFile, *demo, *verbose, *interactive); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(mocFile, coreFile string, demo, verbose, interactive bool) error {
	ctx := context.Background()

	log := zap.NewNop()
	if verbose {
		var err error
		if log, err = zap.NewDevelopment(); err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
	}

	core, cleanup, err := buildCore(ctx, coreFile, log)
	if err != nil {
		return err
	}
	defer cleanup()

	data, err := mocBytes(mocFile, demo)
	if err != nil {
		return err
	}

	if interactive {
		return runInteractive(core, data)
	}
	return inspect(core, data, len(data))
}

// buildCore selects the backend: a wasm-hosted core when -core is given,
// otherwise the built-in reference core on the zero-copy backend.
func buildCore(ctx context.Context, coreFile string, log *zap.Logger) (*runtime.Core, func(), error) {
	if coreFile == "" {
		eng := direct.New(enginetest.NewEngine(), direct.WithLogger(log))
		return runtime.New(eng, runtime.WithLogger(log)), func() {}, nil
	}

	wasm, err := os.ReadFile(coreFile)
	if err != nil {
		return nil, nil, fmt.Errorf("read core: %w", err)
	}
	wc, err := hostobj.LoadWasmCore(ctx, wasm)
	if err != nil {
		return nil, nil, fmt.Errorf("load core: %w", err)
	}
	eng, err := hostobj.New(wc.Namespace(), hostobj.WithLogger(log))
	if err != nil {
		wc.Close(ctx)
		return nil, nil, fmt.Errorf("bind core: %w", err)
	}
	return runtime.New(eng, runtime.WithLogger(log)), func() { wc.Close(ctx) }, nil
}

func mocBytes(mocFile string, demo bool) ([]byte, error) {
	if demo {
		return enginetest.EncodeMoc(enginetest.DemoDesc(), 4), nil
	}
	data, err := os.ReadFile(mocFile)
	if err != nil {
		return nil, fmt.Errorf("read moc: %w", err)
	}
	return data, nil
}

func inspect(core *runtime.Core, data []byte, size int) error {
	fmt.Printf("Core version: %s\n", core.Version())
	fmt.Printf("Latest moc version: %s\n", core.LatestMocVersion())

	moc, err := core.MocFromBytes(data)
	if err != nil {
		return fmt.Errorf("decode moc: %w", err)
	}
	defer moc.Close()
	fmt.Printf("\nMoc: %d bytes, format %s\n", size, moc.Version())

	model, err := moc.NewModel()
	if err != nil {
		return fmt.Errorf("derive model: %w", err)
	}
	defer model.Close()

	static := model.Static()
	canvas := static.CanvasInfo()
	fmt.Printf("Canvas: %gx%g px, origin (%g, %g), %g px/unit\n",
		canvas.SizeInPixels.X, canvas.SizeInPixels.Y,
		canvas.OriginInPixels.X, canvas.OriginInPixels.Y,
		canvas.PixelsPerUnit)

	fmt.Printf("\nParameters (%d):\n", len(static.Parameters()))
	for _, p := range static.Parameters() {
		keys := ""
		if len(p.Keys) > 0 {
			keys = fmt.Sprintf(", %d keys", len(p.Keys))
		}
		fmt.Printf("  %-24s %s [%g .. %g] default %g%s\n",
			p.ID, p.Type, p.MinimumValue, p.MaximumValue, p.DefaultValue, keys)
	}

	fmt.Printf("\nParts (%d):\n", len(static.Parts()))
	for i, p := range static.Parts() {
		parent := "-"
		if p.HasParent {
			parent = fmt.Sprintf("%d", p.ParentPartIndex)
		}
		fmt.Printf("  %-3d %-24s parent %s\n", i, p.ID, parent)
	}

	fmt.Printf("\nDrawables (%d):\n", len(static.Drawables()))
	for i, d := range static.Drawables() {
		fmt.Printf("  %-3d %-24s tex %d, %d verts, %d tris, %s\n",
			i, d.ID, d.TextureIndex, len(d.VertexUVs), len(d.TriangleIndices)/3,
			constantFlagString(d.ConstantFlags))
	}

	// One evaluation with default inputs, to show the dynamic half works.
	err = model.WriteDynamic(func(d *runtime.DynamicState) {
		d.Update()
		fmt.Printf("\nAfter update:\n")
		for i := range static.Drawables() {
			fmt.Printf("  %-3d opacity %.2f, draw order %d, render order %d, flags %08b\n",
				i, d.DrawableOpacities()[i], d.DrawableDrawOrders()[i],
				d.DrawableRenderOrders()[i], d.DrawableDynamicFlags()[i])
		}
	})
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	return nil
}

func constantFlagString(f cubism.ConstantDrawableFlags) string {
	var parts []string
	if f.Has(cubism.BlendAdditive) {
		parts = append(parts, "additive")
	}
	if f.Has(cubism.BlendMultiplicative) {
		parts = append(parts, "multiplicative")
	}
	if f.Has(cubism.IsDoubleSided) {
		parts = append(parts, "double-sided")
	}
	if f.Has(cubism.IsInvertedMask) {
		parts = append(parts, "inverted-mask")
	}
	if len(parts) == 0 {
		return "normal"
	}
	return strings.Join(parts, "|")
}
