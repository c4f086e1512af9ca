package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"go.trai.ch/lathe/internal/adapters/cas" //nolint:depguard // Wired in app layer
	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports"
	"go.trai.ch/lathe/internal/engine/coordinator"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// RenderOptions holds the options for a batch render.
type RenderOptions struct {
	ConfigPath string
	Params     map[string]domain.Param
	// Output is the mesh path of a single input. Empty derives it from the input name.
	Output string
	// OutDir switches to the content-addressed export store rooted there.
	OutDir string
	// Text writes text STL instead of binary.
	Text bool
}

// Render renders every file through one session. Files render concurrently; a
// failed file does not stop the others. Degraded renders are exported and logged.
func (a *App) Render(ctx context.Context, files []string, opts RenderOptions) error {
	if len(files) == 0 {
		return domain.ErrNoInputFiles
	}
	if opts.Output != "" && len(files) > 1 {
		return zerr.With(zerr.Wrap(domain.ErrOutputConflict, "invalid output"), "inputs", len(files))
	}

	session, err := a.Open(ctx, opts.ConfigPath)
	if err != nil {
		return err
	}
	defer func() {
		if errClose := session.Close(); errClose != nil {
			a.logger.Warn("failed to close render session", "error", errClose)
		}
	}()

	store, err := exportStore(opts)
	if err != nil {
		return err
	}

	if n := a.renderBatch(ctx, session, store, files, opts); n > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		return zerr.With(zerr.Wrap(domain.ErrRenderFailed, "batch incomplete"), "failed", n)
	}
	return ctx.Err()
}

// renderBatch renders files concurrently and returns the number that failed.
func (a *App) renderBatch(ctx context.Context, s *Session, store ports.ExportStore, files []string, opts RenderOptions) int {
	var failed atomic.Int32
	var g errgroup.Group
	for _, file := range files {
		g.Go(func() error {
			if err := a.renderFile(ctx, s, store, file, opts); err != nil {
				failed.Add(1)
				if ctx.Err() == nil {
					a.logger.Error(err, "file", file)
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	return int(failed.Load())
}

func exportStore(opts RenderOptions) (ports.ExportStore, error) {
	if opts.OutDir == "" {
		return nil, nil //nolint:nilnil // No store means plain file export
	}
	store, err := cas.NewStore(opts.OutDir)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func (a *App) renderFile(ctx context.Context, s *Session, store ports.ExportStore, file string, opts RenderOptions) error {
	g, err := LoadGeometry(file, opts.Params)
	if err != nil {
		return err
	}
	res, err := s.Render(ctx, g)
	if err != nil {
		return err
	}
	if res.Degraded {
		a.logger.Warn("degraded render", "file", file, "source", res.Source, "cause", res.Cause)
	}

	var data []byte
	if opts.Text {
		data = a.codec.EncodeText(res.Mesh, solidName(file))
	} else {
		data = a.codec.EncodeBinary(res.Mesh)
	}

	path, err := a.export(store, file, res, data, opts)
	if err != nil {
		return err
	}
	a.report(file, res, path)
	return nil
}

func (a *App) export(
	store ports.ExportStore,
	file string,
	res *coordinator.Result,
	data []byte,
	opts RenderOptions,
) (string, error) {
	checksum := strconv.FormatUint(res.Mesh.Checksum(), 16)
	if store != nil {
		existing, err := store.Get(res.Fingerprint)
		if err != nil {
			return "", err
		}
		if existing != nil && existing.Path != "" && existing.Checksum == checksum && !res.Degraded {
			a.logger.Debug("export unchanged", "file", file, "path", existing.Path)
			return existing.Path, nil
		}
		return store.Put(domain.ExportRecord{
			Fingerprint: res.Fingerprint,
			Source:      res.Source,
			Degraded:    res.Degraded,
			Triangles:   res.Mesh.Len(),
			Checksum:    checksum,
			Timestamp:   time.Now(),
		}, data)
	}

	path := opts.Output
	if path == "" {
		path = strings.TrimSuffix(file, filepath.Ext(file)) + ".stl"
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // Exported meshes are not secret
		return "", zerr.With(zerr.Wrap(domain.ErrStoreWriteFailed, err.Error()), "path", path)
	}
	return path, nil
}

func (a *App) report(file string, res *coordinator.Result, path string) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	_, _ = fmt.Fprintf(a.out, "%s\t%s\t%s\t%d triangles\t%s\n",
		file, res.Fingerprint.Short(), res.Status(), res.Mesh.Len(), path)
}

func solidName(file string) string {
	return strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
}
