package scene

import (
	"context"
	"errors"
	"image"
	"testing"

	embedded "tilemap/assets"
	"tilemap/internal/assets"
	"tilemap/internal/atlas"
	"tilemap/internal/config"
	"tilemap/internal/geometry"
	"tilemap/pkg/tiles"
)

func newLoader(t *testing.T) *assets.Loader {
	t.Helper()
	l, err := assets.NewLoader(embedded.FS, "")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(l.Close)
	return l
}

func TestLoadDefaultScene(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.World.Width, cfg.World.Height = 10, 6
	cfg.Atlas.CacheDir = ""

	s, err := Load(context.Background(), newLoader(t), cfg)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.World.Width != 10 || s.World.Height != 6 {
		t.Errorf("world = %dx%d", s.World.Width, s.World.Height)
	}
	if s.Grid != (tiles.Grid{Columns: 2, Rows: 2}) {
		t.Errorf("grid = %s", s.Grid)
	}
	if got := s.World.At(1, 0); got != tiles.BottomRight {
		t.Errorf("world(1,0) = %s, want %s", got, tiles.BottomRight)
	}

	tex, err := s.Textures()
	if err != nil {
		t.Fatal(err)
	}
	if len(tex.Mips) != atlas.MipLevelCount(s.Atlas.Width, s.Atlas.Height) {
		t.Errorf("mips = %d", len(tex.Mips))
	}
}

func TestLoadMissingAtlas(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Atlas.Source = "embedded:missing.png"
	cfg.Atlas.CacheDir = ""

	if _, err := Load(context.Background(), newLoader(t), cfg); err == nil {
		t.Fatal("expected error for missing atlas")
	}
}

func TestLoadSharesLoader(t *testing.T) {
	loader := newLoader(t)

	small := config.DefaultConfig()
	small.World.Width, small.World.Height = 4, 4
	large := config.DefaultConfig()
	large.World.Width, large.World.Height = 12, 8

	a, err := Load(context.Background(), loader, small)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Load(context.Background(), loader, large)
	if err != nil {
		t.Fatal(err)
	}
	if a.World.Width != 4 || b.World.Width != 12 {
		t.Errorf("worlds = %d, %d wide", a.World.Width, b.World.Width)
	}
	if a.Atlas.Width != b.Atlas.Width || a.Atlas.Height != b.Atlas.Height {
		t.Errorf("atlases differ: %dx%d vs %dx%d", a.Atlas.Width, a.Atlas.Height, b.Atlas.Width, b.Atlas.Height)
	}
}

func TestNewRejectsGridMismatch(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 6, 4))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	bm, err := atlas.FromImage(img)
	if err != nil {
		t.Fatal(err)
	}

	_, err = New(4, 4, tiles.DefaultPattern(), bm, tiles.Grid{Columns: 4, Rows: 2}, geometry.DefaultQuad())
	if !errors.Is(err, atlas.ErrGridMismatch) {
		t.Errorf("err = %v, want ErrGridMismatch", err)
	}

	if _, err := New(4, 4, tiles.DefaultPattern(), bm, tiles.Grid{Columns: 3, Rows: 2}, geometry.DefaultQuad()); err != nil {
		t.Errorf("3x2 grid over 6x4 atlas: %v", err)
	}
}
