package scene

import (
	"context"
	"fmt"

	"tilemap/internal/assets"
	"tilemap/internal/atlas"
	"tilemap/internal/config"
	"tilemap/internal/geometry"
	"tilemap/internal/log"
	"tilemap/internal/pipeline"
	"tilemap/internal/world"
	"tilemap/pkg/tiles"
)

// Scene is the immutable data both renderers draw: the index raster, the
// decoded atlas and the quad they are mapped onto.
type Scene struct {
	World *world.Raster
	Atlas *atlas.Bitmap
	Grid  tiles.Grid
	Quad  geometry.Quad
}

// Load resolves the atlas source through loader, decodes it and generates
// the world. The loader is owned by the caller so scenes built from the same
// atlas share its bytes.
func Load(ctx context.Context, loader *assets.Loader, cfg *config.Config) (*Scene, error) {
	raw, name, err := loader.Load(ctx, cfg.Atlas.Source)
	if err != nil {
		return nil, fmt.Errorf("atlas load failed: %w", err)
	}

	format := cfg.Atlas.Format
	if format == "" {
		format = atlas.FormatFromPath(name)
	}
	bm, err := atlas.Decode(raw, atlas.Options{Format: format})
	if err != nil {
		return nil, fmt.Errorf("atlas %s: %w", cfg.Atlas.Source, err)
	}

	pattern, err := cfg.Pattern()
	if err != nil {
		return nil, err
	}

	return New(cfg.World.Width, cfg.World.Height, pattern, bm, cfg.Grid(), cfg.QuadGeometry())
}

// New generates the world and checks it against the atlas grid
func New(worldW, worldH int, pattern tiles.Pattern, bm *atlas.Bitmap, grid tiles.Grid, quad geometry.Quad) (*Scene, error) {
	if err := bm.FitsGrid(grid); err != nil {
		return nil, err
	}
	if w, h := bm.TileSize(grid); w != h {
		log.Warnf("atlas cells are %dx%d, not square", w, h)
	}

	raster, err := world.Generate(worldW, worldH, pattern)
	if err != nil {
		return nil, err
	}
	if err := raster.Validate(grid); err != nil {
		return nil, err
	}

	log.WithField("grid", grid.String()).Debugf("scene: world %dx%d, atlas %dx%d",
		raster.Width, raster.Height, bm.Width, bm.Height)

	return &Scene{World: raster, Atlas: bm, Grid: grid, Quad: quad}, nil
}

// Textures builds the CPU sampling state for reference renders
func (s *Scene) Textures() (*pipeline.Textures, error) {
	return pipeline.NewTextures(s.World, s.Atlas, s.Grid)
}
