package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/signalmaster/internal/config"
	"github.com/vovakirdan/signalmaster/internal/railmap"
	"github.com/vovakirdan/signalmaster/internal/sim"
)

// Extension of map files.
const Extension = ".smap"

// Loader parses map files into a catalog. A file that fails to parse is
// logged and skipped; the rest of the load continues.
type Loader struct {
	Options railmap.Options
	Sim     config.SimConfig
	Logger  *log.Logger
}

// NewLoader creates a loader that scales maps to cfg's display.
func NewLoader(cfg config.SimConfig, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{
		Options: railmap.Options{
			DisplayWidth:  cfg.Display.Width,
			DisplayHeight: cfg.Display.Height,
			SwitchMargin:  cfg.Switch.HitMargin,
		},
		Sim:    cfg,
		Logger: logger,
	}
}

// LoadFS registers every map file under root in fsys. label prefixes file
// names in errors and map sources. It returns one error per rejected file.
func (l *Loader) LoadFS(c *Catalog, fsys fs.FS, root, label string) []error {
	var failures []error

	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(path.Ext(p), Extension) {
			return nil
		}
		opts := l.Options
		opts.File = path.Join(label, p)
		if err := l.register(c, func() (*railmap.Map, error) { return railmap.ParseFS(fsys, p, opts) }); err != nil {
			failures = append(failures, err)
		}
		return nil
	})
	if err != nil {
		l.Logger.Error("map directory unreadable", "dir", path.Join(label, root), "err", err)
		failures = append(failures, fmt.Errorf("walking %s: %w", path.Join(label, root), err))
	}
	return failures
}

// LoadDir registers every map file under dir.
func (l *Loader) LoadDir(c *Catalog, dir string) []error {
	return l.LoadFS(c, os.DirFS(dir), ".", filepath.ToSlash(dir))
}

// LoadFile registers a single map file.
func (l *Loader) LoadFile(c *Catalog, file string) error {
	opts := l.Options
	opts.File = file
	return l.register(c, func() (*railmap.Map, error) { return railmap.ParseFile(file, opts) })
}

func (l *Loader) register(c *Catalog, parse func() (*railmap.Map, error)) error {
	m, err := parse()
	if err != nil {
		var pe *railmap.ParseError
		if errors.As(err, &pe) {
			l.Logger.Error("map rejected", "file", pe.File, "line", pe.Line, "err", pe.Err)
		} else {
			l.Logger.Error("map unavailable", "err", err)
		}
		return err
	}
	for _, w := range sim.Validate(m, l.Sim) {
		l.Logger.Warn("map content outside the movement model", "map", m.Name, "file", m.Source, "problem", w)
	}
	if c.Register(m) {
		l.Logger.Info("map overridden", "map", m.Name, "file", m.Source)
	} else {
		l.Logger.Debug("map registered", "map", m.Name, "file", m.Source)
	}
	return nil
}
