package loader

import "github.com/ckiee/automancy/common"

// LoaderBuilderOption is a functional option for configuring a Loader via
// NewLoader.
type LoaderBuilderOption func(*loaderImpl)

// WithDefaultColor is an option builder that sets the vertex color applied
// to primitives without a COLOR_0 attribute. Defaults to white.
//
// Parameters:
//   - color: the fallback vertex color
//
// Returns:
//   - LoaderBuilderOption: a function that applies the color to a loader
func WithDefaultColor(color common.Color) LoaderBuilderOption {
	return func(l *loaderImpl) {
		l.defaultColor = color
	}
}
