// Command stepmesh tessellates a STEP file into a binary STL mesh.
//
// Usage:
//
//	stepmesh [flags] input.step
//
// Defaults can also come from a .env file in the working directory
// (STEPMESH_BACKEND, STEPMESH_TOL); explicit flags win.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/chazu/stepmesh/pkg/kernel"
	"github.com/chazu/stepmesh/pkg/kernel/native"
	"github.com/chazu/stepmesh/pkg/kernel/occt"
	"github.com/chazu/stepmesh/pkg/simplify"
	"github.com/chazu/stepmesh/pkg/stl"
	"github.com/chazu/stepmesh/pkg/topo"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("stepmesh: ")

	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	var (
		out         = flag.String("o", "", "output STL path (default: input with .stl extension)")
		tol         = flag.Float64("tol", envFloat("STEPMESH_TOL", kernel.DefaultChordTol), "chord tolerance in model units")
		backend     = flag.String("backend", envString("STEPMESH_BACKEND", "native"), "tessellation backend: native or occt")
		ratio       = flag.Float64("simplify", 0, "simplify to this fraction of the triangle count (0 disables)")
		maxErr      = flag.Float64("max-error", 0, "simplification error bound in model units (0 = unbounded)")
		nonManifold = flag.String("non-manifold", "reject", "non-manifold edge policy: reject or skip")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: stepmesh [flags] input.step")
		flag.PrintDefaults()
		os.Exit(2)
	}
	input := flag.Arg(0)
	if ext := strings.ToLower(filepath.Ext(input)); ext != ".step" && ext != ".stp" {
		log.Fatalf("%s: not a STEP file (want .step or .stp)", input)
	}
	if *out == "" {
		*out = strings.TrimSuffix(input, filepath.Ext(input)) + ".stl"
	}

	opts := kernel.DefaultOptions()
	opts.ChordTol = *tol
	switch *nonManifold {
	case "reject":
		opts.NonManifold = topo.RejectNonManifold
	case "skip":
		opts.NonManifold = topo.SkipNonManifold
	default:
		log.Fatalf("unknown non-manifold policy %q (want reject or skip)", *nonManifold)
	}

	k, err := pickBackend(*backend)
	if err != nil {
		log.Fatal(err)
	}

	if err := run(k, input, *out, opts, *ratio, *maxErr); err != nil {
		log.Fatal(err)
	}
}

func run(k kernel.Kernel, input, output string, opts kernel.Options, ratio, maxErr float64) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	mesh, warnings, err := triangulate(ctx, k, data, opts)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		color.Yellow("warning: %s", w)
	}
	elapsed := time.Since(start)

	before := mesh.TriangleCount()
	if ratio > 0 {
		mesh, err = simplify.Simplify(mesh, ratio, maxErr)
		if err != nil {
			return err
		}
	}

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	if err := stl.Write(f, mesh); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	color.Green("%s -> %s", input, output)
	fmt.Printf("  backend    %s\n", k.Name())
	fmt.Printf("  tolerance  %g\n", opts.ChordTol)
	fmt.Printf("  vertices   %d\n", mesh.VertexCount())
	if mesh.TriangleCount() != before {
		fmt.Printf("  triangles  %d (simplified from %d)\n", mesh.TriangleCount(), before)
	} else {
		fmt.Printf("  triangles  %d\n", mesh.TriangleCount())
	}
	fmt.Printf("  elapsed    %s\n", elapsed.Round(time.Millisecond))
	return nil
}

// triangulate prefers the native kernel's warning-aware entry point so
// skip-policy runs still report what was dropped.
func triangulate(ctx context.Context, k kernel.Kernel, data []byte, opts kernel.Options) (*kernel.Mesh, []string, error) {
	if nk, ok := k.(*native.Kernel); ok {
		return nk.TriangulateWarnings(ctx, data, opts)
	}
	mesh, err := k.Triangulate(ctx, data, opts)
	return mesh, nil, err
}

func pickBackend(name string) (kernel.Kernel, error) {
	switch name {
	case "native":
		return native.New(), nil
	case "occt":
		return occt.New()
	default:
		return nil, fmt.Errorf("unknown backend %q (want native or occt)", name)
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Fatalf("%s: %v", key, err)
	}
	return f
}
