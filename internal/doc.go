// Package internal provides the compilation services around the macro
// engine: the file-level Engine, its compile cache, shared macro libraries
// and the file watcher used by the long-running CLI modes.
//
// Key components:
//
// Engine: Splits a source into its macro block and body, prepends library
// macros, runs expansion and reports failures as *types.Diagnostic with a
// line and column.
//
// Cache: Stores expanded output per source path and drops entries when the
// source text, a library or the engine settings change.
//
// Library: A YAML document of shared macros, loaded with LoadLibrary.
//
// Watcher: Debounced fsnotify watching of single files and directory trees.
//
// Usage:
//
//	engine, err := internal.NewEngine(internal.EngineConfig{
//	    Libraries: []string{"macros/log.yaml"},
//	    CacheDir:  ".dsl-cache",
//	}, logger)
//	if err != nil {
//	    // handle error
//	}
//
//	if err := engine.CompileFile("src/main.dsl.js", "dist/main.js"); err != nil {
//	    // handle error
//	}
//
// This package is intended for internal use within the dsl tool and should
// not be imported by external packages.
package internal
