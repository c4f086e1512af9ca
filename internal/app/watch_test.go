package app_test

import (
	"context"
	"errors"
	"iter"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lathe/internal/app"
	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports"
	"go.trai.ch/lathe/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func statuses(out string) []string {
	var got []string
	for line := range strings.Lines(out) {
		fields := strings.Split(strings.TrimSpace(line), "\t")
		if len(fields) >= 3 {
			got = append(got, fields[2])
		}
	}
	return got
}

func TestApp_Watch_RerendersEditedFiles(t *testing.T) {
	dir := t.TempDir()
	f := newFixture(t, testConfig(writeKernel(t, dir)))
	f.logger.EXPECT().Info("watching for changes", gomock.Any()).Times(1)
	f.quiet()
	file := writeGeometry(t, dir, "cube.scad", "cube(10);")

	ctrl := gomock.NewController(t)
	w := mocks.NewMockWatcher(ctrl)
	w.EXPECT().Start(gomock.Any(), []string{file}).Return(nil)
	w.EXPECT().Stop().Return(nil).Times(1)
	w.EXPECT().Changes().Return(iter.Seq[[]string](func(yield func([]string) bool) {
		require.Equal(t, []string{"rendered"}, statuses(f.out.String()))

		require.NoError(t, os.WriteFile(file, []byte("cube(20);"), 0o600))
		if !yield([]string{file}) {
			return
		}
		require.Equal(t, []string{"rendered", "rendered"}, statuses(f.out.String()))

		// Saving without changes is served from the cache.
		yield([]string{file})
	}))
	f.app.WithWatcher(func(ports.Logger) (ports.Watcher, error) { return w, nil })

	err := f.app.Watch(context.Background(), []string{file}, app.RenderOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"rendered", "rendered", "cached"}, statuses(f.out.String()))
	lines := strings.Split(strings.TrimSpace(f.out.String()), "\n")
	require.Len(t, lines, 3)
	assert.NotEqual(t, strings.Split(lines[0], "\t")[1], strings.Split(lines[1], "\t")[1])
	assert.Equal(t, strings.Split(lines[1], "\t")[1], strings.Split(lines[2], "\t")[1])
}

func TestApp_Watch_FailuresDoNotStopWatching(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(nil)
	cfg.FallbackEnabled = false
	f := newFixture(t, cfg)
	f.logger.EXPECT().Info("watching for changes", gomock.Any()).Times(1)
	f.logger.EXPECT().Error(gomock.Any(), gomock.Any()).Times(2)
	f.quiet()
	file := writeGeometry(t, dir, "broken.scad", "cube(1);")

	ctrl := gomock.NewController(t)
	w := mocks.NewMockWatcher(ctrl)
	w.EXPECT().Start(gomock.Any(), gomock.Any()).Return(nil)
	w.EXPECT().Stop().Return(nil)
	w.EXPECT().Changes().Return(iter.Seq[[]string](func(yield func([]string) bool) {
		require.NoError(t, os.WriteFile(file, []byte("cube(2);"), 0o600))
		yield([]string{file})
	}))
	f.app.WithWatcher(func(ports.Logger) (ports.Watcher, error) { return w, nil })

	require.NoError(t, f.app.Watch(context.Background(), []string{file}, app.RenderOptions{}))
	assert.Empty(t, f.out.String())
}

func TestApp_Watch_Errors(t *testing.T) {
	t.Run("no files", func(t *testing.T) {
		f := newFixture(t, testConfig(nil))
		err := f.app.Watch(context.Background(), nil, app.RenderOptions{})
		assert.ErrorIs(t, err, domain.ErrNoInputFiles)
	})

	t.Run("watcher unavailable", func(t *testing.T) {
		dir := t.TempDir()
		f := newFixture(t, testConfig(writeKernel(t, dir)))
		f.quiet()
		file := writeGeometry(t, dir, "cube.scad", "cube(1);")

		f.app.WithWatcher(func(ports.Logger) (ports.Watcher, error) {
			return nil, domain.ErrWatchFailed
		})
		err := f.app.Watch(context.Background(), []string{file}, app.RenderOptions{})
		assert.ErrorIs(t, err, domain.ErrWatchFailed)
	})

	t.Run("start failure", func(t *testing.T) {
		dir := t.TempDir()
		f := newFixture(t, testConfig(writeKernel(t, dir)))
		f.quiet()
		file := writeGeometry(t, dir, "cube.scad", "cube(1);")

		ctrl := gomock.NewController(t)
		w := mocks.NewMockWatcher(ctrl)
		w.EXPECT().Start(gomock.Any(), gomock.Any()).Return(errors.New("too many watches"))
		w.EXPECT().Stop().Return(nil)
		f.app.WithWatcher(func(ports.Logger) (ports.Watcher, error) { return w, nil })

		err := f.app.Watch(context.Background(), []string{file}, app.RenderOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "too many watches")
	})
}
