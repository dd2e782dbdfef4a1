package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/sync/errgroup"

	embedded "tilemap/assets"
	"tilemap/internal/assets"
	"tilemap/internal/config"
	"tilemap/internal/geometry"
	"tilemap/internal/log"
	"tilemap/internal/pipeline"
	"tilemap/internal/raster"
	"tilemap/internal/scene"
)

func main() {
	configFile := flag.String("config", "tilemap.json", "Path to config file")
	zoom := flag.Float64("zoom", 1, "Zoom factor to render")
	width := flag.Int("width", 0, "Output width (default: window width)")
	height := flag.Int("height", 0, "Output height (default: window height)")
	out := flag.String("out", "tilemap.webp", "Output file (.webp or .png)")
	provokingLast := flag.Bool("provoking-last", false, "Anchor on the last vertex of each triangle")
	workers := flag.Int("workers", runtime.NumCPU(), "Parallel renders when several configs are given")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: snapshot [flags] [config ...]\n\n")
		fmt.Fprintf(os.Stderr, "With several configs, each frame is written next to -out with the config name appended.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	configs := flag.Args()
	if len(configs) == 0 {
		configs = []string{*configFile}
	}

	opts := Options{
		Zoom:          float32(*zoom),
		Width:         *width,
		Height:        *height,
		Out:           *out,
		ProvokingLast: *provokingLast,
		Workers:       *workers,
	}
	if err := run(configs, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Options are the render settings shared by every config in a run
type Options struct {
	Zoom          float32
	Width, Height int
	Out           string
	ProvokingLast bool
	Workers       int
}

// run renders one frame per config. All configs share a single atlas
// loader, so configs naming the same atlas read it once.
func run(configs []string, opts Options) error {
	if opts.Zoom <= 0 {
		return fmt.Errorf("zoom must be positive, got %v", opts.Zoom)
	}
	if len(configs) == 0 {
		return fmt.Errorf("no config given")
	}

	cfgs := make([]*config.Config, len(configs))
	for i, path := range configs {
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		cfgs[i] = cfg
	}
	if err := log.Setup(log.Options{Level: cfgs[0].Log.Level}); err != nil {
		return err
	}

	// The first config decides where downloads are cached.
	loader, err := assets.NewLoader(embedded.FS, cfgs[0].Atlas.CacheDir)
	if err != nil {
		return err
	}
	defer loader.Close()

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(max(opts.Workers, 1))
	for i, cfg := range cfgs {
		out := opts.Out
		if len(cfgs) > 1 {
			out = outputPath(opts.Out, configs[i])
		}
		g.Go(func() error {
			if err := render(ctx, loader, cfg, opts, out); err != nil {
				return fmt.Errorf("%s: %w", configs[i], err)
			}
			return nil
		})
	}
	return g.Wait()
}

func render(ctx context.Context, loader *assets.Loader, cfg *config.Config, opts Options, out string) error {
	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = cfg.Window.Width
	}
	if height <= 0 {
		height = cfg.Window.Height
	}

	s, err := scene.Load(ctx, loader, cfg)
	if err != nil {
		return err
	}
	tex, err := s.Textures()
	if err != nil {
		return err
	}

	provoking := geometry.ProvokingFirst
	if opts.ProvokingLast {
		provoking = geometry.ProvokingLast
	}
	c := cfg.Rendering.ClearColor
	img := raster.Render(s.Quad, tex, opts.Zoom, raster.Options{
		Width:     width,
		Height:    height,
		Clear:     color.RGBA{R: unit(c[0]), G: unit(c[1]), B: unit(c[2]), A: unit(c[3])},
		Provoking: provoking,
	})

	span := pipeline.VisibleSpan([2]float32{0, 0}, opts.Zoom)
	log.WithFields(map[string]interface{}{"span": span, "out": out}).
		Infof("rendered %dx%d at zoom %g", width, height, opts.Zoom)

	return save(out, img)
}

// outputPath derives a per-config file name from out, e.g.
// shots/frame.webp + configs/night.yaml -> shots/frame-night.webp
func outputPath(out, configFile string) string {
	ext := filepath.Ext(out)
	stem := strings.TrimSuffix(out, ext)
	name := strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
	return stem + "-" + name + ext
}

func unit(v float64) uint8 {
	return uint8(min(max(v, 0), 1)*255 + 0.5)
}

func save(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".png") {
		err = png.Encode(f, img)
	} else {
		err = nativewebp.Encode(f, img, nil)
	}
	if err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
