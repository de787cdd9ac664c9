// Package dsl expands pattern-directed macros in JavaScript sources.
//
// A source declares its macros in a leading block and uses them below:
//
//	macros: {
//	    $macro LOG $msg #(
//	        console.log("[log]", $msg);
//	    )#
//	}
//	LOG "ready"
//
// Compile returns the source with the block removed and every invocation
// rewritten. The macro subpackage exposes the individual stages.
package dsl

import (
	"github.com/dsljs/dsl/macro"
)

// Options tune Compile. The zero value uses the defaults.
type Options struct {
	// Marker introduces the macro block, "macros:" by default.
	Marker string
	// MaxPasses bounds expansion, macro.DefaultMaxPasses by default.
	MaxPasses int
	// Library macros are tried before the ones declared in the source.
	Library []*macro.Definition
}

// Compile expands source using the macros it declares.
func Compile(source string) (string, error) {
	return CompileWith(source, Options{})
}

// CompileWith expands source with opts.
func CompileWith(source string, opts Options) (string, error) {
	defs, rest, err := macro.ParseSource(source, opts.Marker)
	if err != nil {
		return "", err
	}
	if len(opts.Library) > 0 {
		defs = append(append([]*macro.Definition{}, opts.Library...), defs...)
	}
	return macro.Expand(rest, defs, opts.MaxPasses)
}

// ExtractMacroDefinitions parses the definitions of a macro block, the text
// between the braces of "macros: { ... }".
func ExtractMacroDefinitions(block string) ([]*macro.Definition, error) {
	return macro.ExtractDefinitions(block)
}

// Expand rewrites src with defs until it stops changing, failing after
// maxPasses passes. A non-positive maxPasses selects the default.
func Expand(src string, defs []*macro.Definition, maxPasses int) (string, error) {
	return macro.Expand(src, defs, maxPasses)
}
