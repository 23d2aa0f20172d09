package session

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuviman/PogPaint/internal/format"
	v0 "github.com/kuviman/PogPaint/internal/format/v0"
	v2 "github.com/kuviman/PogPaint/internal/format/v2"
	"github.com/kuviman/PogPaint/internal/persist"
	"github.com/kuviman/PogPaint/internal/raster"
	"github.com/kuviman/PogPaint/internal/scene"
)

func paintedModel(t *testing.T, c color.NRGBA) *scene.Model {
	p := scene.NewPlane(0, mgl32.Ident4())
	require.NoError(t, p.Texture.Draw(image.Rect(0, 0, 1, 1), func(v raster.View[color.NRGBA]) {
		v.Set(0, 0, c)
	}))
	return &scene.Model{Planes: []*scene.Plane{p}}
}

func wait(t *testing.T, s *Session) *Result {
	t.Helper()
	select {
	case <-s.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("load did not finish")
	}
	r, ok := s.Poll()
	require.True(t, ok)
	return r
}

// blockingLoader never resolves references until its context is cancelled.
type blockingLoader struct{ started chan struct{} }

func (l blockingLoader) Load(ctx context.Context, ref string) (*image.NRGBA, error) {
	close(l.started)
	<-ctx.Done()
	return nil, ctx.Err()
}

func writeRefScene(t *testing.T, path string) {
	doc := &v0.Scene{Planes: []v0.Plane{{Image: v0.LoadImage("slow.png"), Transform: [16]float32(mgl32.Ident4())}}}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, format.WriteVersion(f, 0, doc))
	require.NoError(t, f.Close())
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.pp")
	blue := color.NRGBA{B: 200, A: 255}

	s := New(Options{Model: paintedModel(t, blue)})
	defer s.Close()
	require.NoError(t, <-s.Save(context.Background(), path))
	assert.Equal(t, path, s.Path())

	s.Reset(scene.New())
	assert.Empty(t, s.Path())
	require.NoError(t, s.StartLoad(context.Background(), path))

	r := wait(t, s)
	require.NoError(t, r.Err)
	assert.Equal(t, format.Info{Version: format.CurrentVersion}, r.Info)
	assert.Same(t, r.Model, s.Model())
	assert.Equal(t, path, s.Path())
	assert.Equal(t, blue, s.Model().Planes[0].Texture.At(image.Pt(0, 0)))
	assert.False(t, s.Loading())

	_, ok := s.Poll()
	assert.False(t, ok, "result is consumed once")
}

func TestFailedLoadKeepsModel(t *testing.T) {
	m := scene.New()
	s := New(Options{Model: m})
	defer s.Close()

	require.NoError(t, s.StartLoad(context.Background(), filepath.Join(t.TempDir(), "missing.pp")))
	r := wait(t, s)
	assert.ErrorIs(t, r.Err, os.ErrNotExist)
	assert.Nil(t, r.Model)
	assert.Same(t, m, s.Model())
}

func TestNewLoadSupersedesOld(t *testing.T) {
	dir := t.TempDir()
	slow := filepath.Join(dir, "slow.pp")
	writeRefScene(t, slow)
	fast := filepath.Join(dir, "fast.pp")
	require.NoError(t, persist.SaveFile(fast, paintedModel(t, color.NRGBA{R: 1, A: 255})))

	loader := blockingLoader{started: make(chan struct{})}
	s := New(Options{Persist: persist.Options{Loader: loader}})

	require.NoError(t, s.StartLoad(context.Background(), slow))
	<-loader.started
	assert.True(t, s.Loading())
	require.NoError(t, s.StartLoad(context.Background(), fast))

	r := wait(t, s)
	require.NoError(t, r.Err)
	assert.Equal(t, fast, r.Path)

	s.Close()
	_, ok := s.Poll()
	assert.False(t, ok, "cancelled load is discarded")
	assert.Equal(t, fast, s.Path())
}

func TestCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slow.pp")
	writeRefScene(t, path)
	loader := blockingLoader{started: make(chan struct{})}
	s := New(Options{Persist: persist.Options{Loader: loader}})

	require.NoError(t, s.StartLoad(context.Background(), path))
	<-loader.started
	s.Cancel()
	assert.False(t, s.Loading())
	s.Close()

	select {
	case <-s.Ready():
		t.Fatal("cancelled load signalled ready")
	default:
	}
	_, ok := s.Poll()
	assert.False(t, ok)
}

func TestSaveBusy(t *testing.T) {
	release := make(chan struct{})
	s := New(Options{})
	s.write = func(path string, doc *v2.Scene) error {
		<-release
		return nil
	}

	first := s.Save(context.Background(), "a.pp")
	assert.ErrorIs(t, <-s.Save(context.Background(), "b.pp"), ErrBusy)
	close(release)
	require.NoError(t, <-first)
	assert.Equal(t, "a.pp", s.Path())

	second := s.Save(context.Background(), "c.pp")
	require.NoError(t, <-second)
	_, open := <-second
	assert.False(t, open)
	s.Close()
}

func TestSaveSnapshotsSynchronously(t *testing.T) {
	var got *v2.Scene
	s := New(Options{Model: paintedModel(t, color.NRGBA{G: 9, A: 255})})
	s.write = func(path string, doc *v2.Scene) error {
		got = doc
		return nil
	}
	done := s.Save(context.Background(), "a.pp")
	s.Model().Planes[0].Texture.Draw(image.Rect(0, 0, 1, 1), func(v raster.View[color.NRGBA]) {
		v.Set(0, 0, color.NRGBA{})
	})
	require.NoError(t, <-done)
	assert.Equal(t, []byte{0, 9, 0, 255}, got.Planes[0].Image.Data.Data)
}

func TestSaveError(t *testing.T) {
	boom := errors.New("boom")
	s := New(Options{})
	s.write = func(string, *v2.Scene) error { return boom }
	assert.ErrorIs(t, <-s.Save(context.Background(), "a.pp"), boom)
	assert.Empty(t, s.Path())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, <-s.Save(ctx, "a.pp"), context.Canceled)
}

func TestClosed(t *testing.T) {
	s := New(Options{})
	s.Close()
	assert.ErrorIs(t, s.StartLoad(context.Background(), "a.pp"), ErrClosed)
	assert.ErrorIs(t, <-s.Save(context.Background(), "a.pp"), ErrClosed)
}
