//go:build occt

// Package occt provides a CGo-based tessellation backend bound to the
// Open CASCADE Technology kernel (https://dev.opencascade.org). OCCT
// handles STEP entity coverage far beyond the native backend (swept
// surfaces, offset surfaces, assemblies) at the cost of a C++
// dependency.
//
// This package requires the OCCT development libraries to be
// installed. Build with: go build -tags=occt
package occt

/*
#cgo CPPFLAGS: -I/usr/include/opencascade -I/usr/local/include/opencascade
#cgo CXXFLAGS: -std=c++14
#cgo LDFLAGS: -lTKSTEP -lTKSTEPBase -lTKXSBase -lTKMesh -lTKShHealing -lTKTopAlgo -lTKGeomAlgo -lTKBRep -lTKGeomBase -lTKG3d -lTKG2d -lTKMath -lTKernel

#include <stdlib.h>
#include "shim.h"
*/
import "C"

import (
	"context"
	"errors"
	"unsafe"

	"github.com/chazu/stepmesh/pkg/kernel"
)

// Compile-time interface check.
var _ kernel.Kernel = (*Kernel)(nil)

// Kernel is the OCCT-backed tessellation backend.
type Kernel struct{}

// New returns a new OCCT Kernel.
func New() (kernel.Kernel, error) {
	return &Kernel{}, nil
}

// Name identifies the backend in logs and CLI output.
func (k *Kernel) Name() string {
	return "occt"
}

// Triangulate hands the STEP data to OCCT's reader and incremental
// mesher and copies the resulting triangulation into the flat
// kernel.Mesh layout. The chord tolerance maps to OCCT's linear
// deflection. Cancellation is checked before the C call; the call
// itself is not interruptible.
func (k *Kernel) Triangulate(ctx context.Context, data []byte, opts kernel.Options) (*kernel.Mesh, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.ChordTol <= 0 {
		opts.ChordTol = kernel.DefaultChordTol
	}
	if len(data) == 0 {
		return nil, errors.New("occt: empty input")
	}

	errbuf := make([]byte, 256)
	m := C.occt_triangulate(
		(*C.char)(unsafe.Pointer(&data[0])),
		C.int(len(data)),
		C.double(opts.ChordTol),
		(*C.char)(unsafe.Pointer(&errbuf[0])),
		C.int(len(errbuf)),
	)
	if m == nil {
		n := 0
		for n < len(errbuf) && errbuf[n] != 0 {
			n++
		}
		return nil, errors.New("occt: " + string(errbuf[:n]))
	}
	defer C.occt_mesh_free(m)

	nv := int(C.occt_mesh_vert_count(m))
	nt := int(C.occt_mesh_tri_count(m))

	mesh := &kernel.Mesh{
		Vertices: make([]float32, nv*3),
		Normals:  make([]float32, nv*3),
		Indices:  make([]uint32, nt*3),
	}
	C.occt_mesh_vertices(m, (*C.float)(unsafe.Pointer(&mesh.Vertices[0])))
	C.occt_mesh_normals(m, (*C.float)(unsafe.Pointer(&mesh.Normals[0])))
	C.occt_mesh_indices(m, (*C.uint)(unsafe.Pointer(&mesh.Indices[0])))
	return mesh, nil
}
