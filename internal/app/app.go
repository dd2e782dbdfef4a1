package app

import (
	"fmt"
	"runtime"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/rajveermalviya/go-webgpu/wgpu"

	"tilemap/internal/camera"
	"tilemap/internal/config"
	"tilemap/internal/log"
	"tilemap/internal/renderer"
	"tilemap/internal/scene"
)

type App struct {
	window   *glfw.Window
	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	renderer *renderer.Renderer
	camera   *camera.Camera
	cfg      *config.Config

	width, height int

	// resizeErr is set by the framebuffer callback and returned by Run
	resizeErr error
}

// New opens the window, brings up the device and uploads the scene
func New(cfg *config.Config, s *scene.Scene) (*App, error) {
	runtime.LockOSThread()

	policy, err := cfg.ZoomPolicy()
	if err != nil {
		return nil, err
	}

	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("GLFW init failed: %w", err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.CocoaRetinaFramebuffer, glfw.True)

	window, err := glfw.CreateWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("window creation failed: %w", err)
	}

	app := &App{
		window: window,
		cfg:    cfg,
		width:  cfg.Window.Width,
		height: cfg.Window.Height,
	}

	if err := app.initWebGPU(); err != nil {
		app.Cleanup()
		return nil, err
	}

	// Retina framebuffers are larger than the window
	fbw, fbh := window.GetFramebufferSize()
	if fbw > 0 && fbh > 0 {
		app.width, app.height = fbw, fbh
	}

	c := cfg.Rendering.ClearColor
	app.renderer, err = renderer.NewRenderer(app.adapter, app.device, app.queue, app.surface,
		uint32(app.width), uint32(app.height), s, renderer.Options{
			ClearColor: wgpu.Color{R: c[0], G: c[1], B: c[2], A: c[3]},
			VSync:      cfg.Rendering.VSync,
		})
	if err != nil {
		app.Cleanup()
		return nil, fmt.Errorf("renderer creation failed: %w", err)
	}

	app.setupCallbacks()

	// The animation clock starts once everything is uploaded
	app.camera = camera.NewCamera(time.Now(), policy)

	return app, nil
}

func (app *App) initWebGPU() error {
	app.instance = wgpu.CreateInstance(&wgpu.InstanceDescriptor{
		Backends: instanceBackends,
	})
	if app.instance == nil {
		return fmt.Errorf("%w: instance", renderer.ErrGPUResource)
	}

	app.surface = CreateSurface(app.instance, app.window)
	if app.surface == nil {
		return fmt.Errorf("%w: surface", renderer.ErrGPUResource)
	}

	// Request adapter - try with surface first, then without
	var err error
	app.adapter, err = app.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: app.surface,
		PowerPreference:   wgpu.PowerPreference_HighPerformance,
	})
	if err != nil {
		log.Warn("trying adapter without surface constraint")
		app.adapter, err = app.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
			PowerPreference: wgpu.PowerPreference_HighPerformance,
		})
		if err != nil {
			return fmt.Errorf("%w: adapter: %v", renderer.ErrGPUResource, err)
		}
	}

	props := app.adapter.GetProperties()
	log.Infof("GPU: %s (%s)", props.Name, props.DriverDescription)

	app.device, err = app.adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "TilemapDevice",
	})
	if err != nil {
		return fmt.Errorf("%w: device: %v", renderer.ErrGPUResource, err)
	}

	app.queue = app.device.GetQueue()
	return nil
}

func (app *App) setupCallbacks() {
	// Only the swap chain follows the framebuffer; the quad stays in NDC.
	app.window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		app.width = width
		app.height = height
		if err := app.renderer.Resize(uint32(width), uint32(height)); err != nil && app.resizeErr == nil {
			app.resizeErr = err
		}
	})

	app.window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action == glfw.Press && key == glfw.KeyEscape {
			w.SetShouldClose(true)
		}
	})
}

// Run draws frames until the window is closed
func (app *App) Run() error {
	lastTime := time.Now()
	frames := 0

	for !app.window.ShouldClose() {
		glfw.PollEvents()
		if app.resizeErr != nil {
			return fmt.Errorf("resize to %dx%d failed: %w", app.width, app.height, app.resizeErr)
		}

		frame := app.camera.Frame(time.Now())
		if err := app.renderer.Render(frame.Zoom); err != nil {
			return fmt.Errorf("render failed at zoom %g: %w", frame.Zoom, err)
		}

		frames++
		if time.Since(lastTime) >= time.Second {
			app.window.SetTitle(fmt.Sprintf("%s | Zoom: %.4g | FPS: %d", app.cfg.Window.Title, frame.Zoom, frames))
			log.Debugf("t=%.2fs zoom=%.4g fps=%d", frame.Elapsed.Seconds(), frame.Zoom, frames)
			frames = 0
			lastTime = time.Now()
		}
	}

	return nil
}

func (app *App) Cleanup() {
	if app.renderer != nil {
		app.renderer.Release()
	}
	if app.queue != nil {
		app.queue.Release()
	}
	if app.device != nil {
		app.device.Release()
	}
	if app.adapter != nil {
		app.adapter.Release()
	}
	if app.surface != nil {
		app.surface.Release()
	}
	if app.instance != nil {
		app.instance.Release()
	}
	if app.window != nil {
		app.window.Destroy()
	}
	glfw.Terminate()
}
