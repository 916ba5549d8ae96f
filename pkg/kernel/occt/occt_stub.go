//go:build !occt

// Package occt provides a CGo-based tessellation backend bound to the
// Open CASCADE Technology kernel. When the "occt" build tag is not
// set, this stub package is compiled instead, returning an error from
// New().
//
// Build with: go build -tags=occt
package occt

import (
	"errors"

	"github.com/chazu/stepmesh/pkg/kernel"
)

// New returns an error indicating OCCT is not available.
// Build with -tags=occt to enable.
func New() (kernel.Kernel, error) {
	return nil, errors.New("occt kernel not available: build with -tags=occt")
}
