// Package resolver connects macro sources to module-based build tools.
//
// A module id ending in the module extension is rewritten to a virtual id,
// Prefix followed by the absolute file path, so the host tool hands it back
// to Load instead of reading the raw file itself. Load expands the file and
// returns plain code.
package resolver

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dsljs/dsl/internal/types"
	"go.uber.org/zap"
)

// Prefix marks virtual ids owned by the resolver. The leading NUL keeps
// other plugins from treating them as file paths.
const Prefix = "\x00dsljs:"

// DefaultModuleExt is the extension of importable macro modules.
const DefaultModuleExt = ".dsljs"

// ErrCorruptedID is returned by Load for virtual ids whose path still
// carries a prefix fragment.
var ErrCorruptedID = errors.New("corrupted module id")

// Compiler turns a source file into expanded output.
type Compiler interface {
	Compile(filename string) (*types.Result, error)
}

// Resolver maps module ids to virtual ids and loads their expansion.
type Resolver struct {
	compiler  Compiler
	moduleExt string
	logger    *zap.Logger
}

// New returns a Resolver for modules named with moduleExt.
func New(c Compiler, moduleExt string, logger *zap.Logger) *Resolver {
	if moduleExt == "" {
		moduleExt = DefaultModuleExt
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{compiler: c, moduleExt: moduleExt, logger: logger}
}

// ResolveID returns the virtual id for id imported from importer. Virtual
// ids pass through unchanged. It reports false for ids it does not own.
// Relative ids resolve against the importer's directory, or the working
// directory without an importer.
func (r *Resolver) ResolveID(id, importer string) (string, bool, error) {
	if strings.HasPrefix(id, Prefix) {
		return id, true, nil
	}
	if !strings.HasSuffix(id, r.moduleExt) {
		return "", false, nil
	}

	var resolved string
	if base := cleanImporter(importer); base != "" && !filepath.IsAbs(id) {
		resolved = filepath.Join(filepath.Dir(base), id)
	} else {
		abs, err := filepath.Abs(id)
		if err != nil {
			return "", false, fmt.Errorf("error resolving %s: %w", id, err)
		}
		resolved = abs
	}
	return Prefix + filepath.Clean(resolved), true, nil
}

func cleanImporter(importer string) string {
	return strings.TrimPrefix(importer, Prefix)
}

// Path returns the file path behind a virtual id.
func Path(id string) (string, bool, error) {
	if !strings.HasPrefix(id, Prefix) {
		return "", false, nil
	}
	path := strings.TrimPrefix(id, Prefix)
	if strings.Contains(path, "dsljs:") || strings.ContainsRune(path, 0) {
		return "", true, fmt.Errorf("%w: %q", ErrCorruptedID, path)
	}
	return path, true, nil
}

// Load expands the file behind a virtual id. It reports false for ids it
// does not own.
func (r *Resolver) Load(id string) (string, bool, error) {
	path, ok, err := Path(id)
	if !ok || err != nil {
		return "", ok, err
	}

	res, err := r.compiler.Compile(path)
	if err != nil {
		return "", true, err
	}
	r.logger.Debug("module loaded", zap.String("path", path), zap.Bool("cached", res.Cached))
	return res.Output, true, nil
}
