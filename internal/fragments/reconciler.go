package fragments

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/vbanctl/internal/config"
	"github.com/danmuck/vbanctl/internal/observability"
)

var ErrFilesystem = errors.New("fragment filesystem error")

// Report lists the fragment files touched by one Apply.
type Report struct {
	Written []string `json:"written" yaml:"written"`
	Removed []string `json:"removed" yaml:"removed"`
}

// Reconciler owns the generated files inside one drop-in directory.
type Reconciler struct {
	dir string
}

func NewReconciler(dir string) *Reconciler {
	return &Reconciler{dir: dir}
}

func (r *Reconciler) Dir() string {
	return r.dir
}

type declared struct {
	kind    Kind
	id      uuid.UUID
	enabled bool
	render  func() string
}

func declarations(cfg config.AppConfig) []declared {
	out := make([]declared, 0, len(cfg.Sends)+len(cfg.Recvs))
	for _, s := range cfg.Sends {
		out = append(out, declared{
			kind:    KindSend,
			id:      s.ID,
			enabled: s.Enabled,
			render:  func() string { return RenderSend(s, cfg.HostInfo) },
		})
	}
	for _, rv := range cfg.Recvs {
		out = append(out, declared{
			kind:    KindRecv,
			id:      rv.ID,
			enabled: rv.Enabled,
			render:  func() string { return RenderRecv(rv, cfg.HostInfo) },
		})
	}
	return out
}

// Apply writes one fragment per enabled endpoint, removes fragments of
// disabled endpoints, then sweeps generated fragments nobody declares.
// The first filesystem failure aborts the pass.
func (r *Reconciler) Apply(cfg config.AppConfig) (Report, error) {
	report := Report{Written: []string{}, Removed: []string{}}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return report, fmt.Errorf("%w: create %s: %w", ErrFilesystem, r.dir, err)
	}

	items := declarations(cfg)
	keep := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item.enabled {
			keep[FilenameFor(item.kind, item.id)] = struct{}{}
		}
	}

	for _, item := range items {
		name := FilenameFor(item.kind, item.id)
		path := filepath.Join(r.dir, name)
		if item.enabled {
			if err := os.WriteFile(path, []byte(item.render()), 0o644); err != nil {
				return report, fmt.Errorf("%w: write %s: %w", ErrFilesystem, path, err)
			}
			observability.RecordFragment(string(item.kind), "written")
			report.Written = append(report.Written, name)
			continue
		}
		removed, err := removeIfPresent(path)
		if err != nil {
			return report, err
		}
		if removed {
			observability.RecordFragment(string(item.kind), "removed")
			report.Removed = append(report.Removed, name)
		}
	}

	swept, err := r.sweep(keep)
	report.Removed = append(report.Removed, swept...)
	if err != nil {
		return report, err
	}

	log.Info().
		Str("dir", r.dir).
		Int("written", len(report.Written)).
		Int("removed", len(report.Removed)).
		Msg("fragments.Reconciler.Apply")
	return report, nil
}

// sweep deletes generated fragments not in keep.
func (r *Reconciler) sweep(keep map[string]struct{}) ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %w", ErrFilesystem, r.dir, err)
	}

	var removed []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !IsFragment(name) {
			continue
		}
		if _, ok := keep[name]; ok {
			continue
		}
		if err := os.Remove(filepath.Join(r.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("%w: remove %s: %w", ErrFilesystem, filepath.Join(r.dir, name), err)
		}
		observability.RecordFragment(kindOf(name), "swept")
		log.Debug().Str("file", name).Msg("fragments.Reconciler.sweep removed")
		removed = append(removed, name)
	}
	return removed, nil
}

// List returns the generated fragments currently on disk, sorted.
func (r *Reconciler) List() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %w", ErrFilesystem, r.dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && IsFragment(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func removeIfPresent(path string) (bool, error) {
	err := os.Remove(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("%w: remove %s: %w", ErrFilesystem, path, err)
}

func kindOf(name string) string {
	if len(name) > len(filePrefix)+4 {
		return name[len(filePrefix) : len(filePrefix)+4]
	}
	return "unknown"
}
