// Package paths resolves the project root and the raw/derived data directories.
package paths

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geopanel/internal/config"
)

// ErrMissingInput marks a required input file that does not exist. Callers
// treat it as fatal: the upstream step has not run.
var ErrMissingInput = eris.New("missing input file")

// rootMarkers identify the repository root when walking up from the working directory.
var rootMarkers = []string{"go.mod", ".git"}

// Paths holds resolved absolute directories for one run.
type Paths struct {
	Root    string
	Data    string
	RawDir  string
	Derived string
	store   string
}

// Resolve builds Paths from configuration. The root is taken from
// cfg.ProjectRoot when set (PROJECT_ROOT is already folded in by config.Load),
// otherwise detected by walking up from the working directory.
func Resolve(cfg config.PathsConfig, storePath string) (*Paths, error) {
	root := cfg.ProjectRoot
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, eris.Wrap(err, "paths: get working directory")
		}
		root = DetectRoot(wd)
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, eris.Wrapf(err, "paths: absolute root %s", root)
	}

	p := &Paths{Root: root}
	p.Data = join(root, cfg.DataDir)
	p.RawDir = join(p.Data, cfg.RawDir)
	p.Derived = join(p.Data, cfg.DerivedDir)
	p.store = join(p.Data, storePath)
	return p, nil
}

// DetectRoot walks up from dir to the first directory containing a root
// marker. It returns dir itself when none is found.
func DetectRoot(dir string) string {
	cur := dir
	for {
		for _, m := range rootMarkers {
			if _, err := os.Stat(filepath.Join(cur, m)); err == nil {
				return cur
			}
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return dir
		}
		cur = parent
	}
}

// Raw returns the path of a raw input file.
func (p *Paths) Raw(name string) string { return join(p.RawDir, name) }

// Out returns the path of a derived output file.
func (p *Paths) Out(name string) string { return join(p.Derived, name) }

// Store returns the path of the SQLite table store.
func (p *Paths) Store() string { return p.store }

// EnsureDerived creates the derived output directory.
func (p *Paths) EnsureDerived() error {
	if err := os.MkdirAll(p.Derived, 0o755); err != nil {
		return eris.Wrapf(err, "paths: create %s", p.Derived)
	}
	return nil
}

// RequireFile returns a wrapped ErrMissingInput naming the file and the step
// that produces it when path does not exist.
func RequireFile(path, producer string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return eris.Wrapf(ErrMissingInput, "%s (produced by %s)", path, producer)
		}
		return eris.Wrapf(err, "paths: stat %s", path)
	}
	if info.IsDir() {
		return eris.Errorf("paths: %s is a directory, expected a file", path)
	}
	return nil
}

// join resolves name against base unless name is already absolute.
func join(base, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(base, name)
}
