package main

import (
	"errors"
	"flag"
	"net/http"
	"runtime"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/xlab/closer"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"voxtrace/internal/config"
	"voxtrace/internal/game"
	gamewindow "voxtrace/internal/game/window"
	"voxtrace/internal/gpu"
	"voxtrace/internal/input"
	"voxtrace/internal/persistence"
	"voxtrace/internal/streaming"
	"voxtrace/internal/terrain"
	"voxtrace/internal/transport/observer"
	"voxtrace/internal/world"
)

func init() {
	runtime.LockOSThread()
}

var spawn = mgl32.Vec3{16, 16, 16}

func main() {
	var (
		configPath = flag.String("config", "", "YAML settings file")
		fetchURL   = flag.String("fetch", "", "download the world from this go-getter URL before loading")
		debug      = flag.Bool("debug", false, "development logging")
		headless   = flag.Bool("headless", false, "run without a visible window")
		ticks      = flag.Int("ticks", 600, "ticks to run when headless")

		def            = config.Default()
		worldPath      = flag.String("world", def.World, "world file (.vxw, .vxw.zst or .db)")
		backend        = flag.String("backend", def.Backend, "device backend: gl or soft")
		renderDistance = flag.Int("render-distance", def.RenderDistance, "render distance in chunks")
		chunkSize      = flag.Int("chunk-size", def.ChunkSize, "chunk edge length in blocks")
		seed           = flag.Int64("seed", def.Seed, "terrain seed")
		observeAddr    = flag.String("observe", def.ObserverAddr, "serve tick reports on ws://ADDR/observe")
	)
	flag.Parse()

	log := newLogger(*debug)
	closer.Bind(func() { _ = log.Sync() })

	settings := def
	if *configPath != "" {
		s, err := config.Load(*configPath)
		if err != nil {
			log.Error("load settings", zap.Error(err))
			closer.Fatalln(err)
		}
		settings = s
	}
	// Explicitly set flags win over the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "world":
			settings.World = *worldPath
		case "backend":
			settings.Backend = *backend
		case "render-distance":
			settings.RenderDistance = *renderDistance
		case "chunk-size":
			settings.ChunkSize = *chunkSize
		case "seed":
			settings.Seed = *seed
		case "observe":
			settings.ObserverAddr = *observeAddr
		}
	})
	if err := settings.Validate(); err != nil {
		log.Error("invalid settings", zap.Error(err))
		closer.Fatalln(err)
	}
	settings.Apply()
	log.Info("settings", zap.Any("settings", settings))

	if *fetchURL != "" {
		if err := persistence.Fetch(*fetchURL, settings.World, log); err != nil {
			log.Error("fetch world", zap.Error(err))
			closer.Fatalln(err)
		}
	}

	worldDB, err := persistence.Open(settings.World, log)
	if err != nil {
		log.Error("open world", zap.Error(err))
		closer.Fatalln(err)
	}
	closer.Bind(func() { _ = worldDB.Close() })

	dev, window, err := openDevice(settings.Backend, *headless, log)
	if err != nil {
		log.Error("open device", zap.Error(err))
		closer.Fatalln(err)
	}

	ring := world.Ring{RenderDistance: config.GetRenderDistance()}
	pool, err := gpu.NewSlotPool(dev, ring, settings.ChunkSize)
	if err != nil {
		log.Error("allocate slots", zap.Error(err))
		closer.Fatalln(err)
	}
	sched := gpu.NewScheduler(dev, log)
	gen := terrain.NewGenerator(sched, pool, settings.Seed, log)

	chunks, err := worldDB.Load(settings.ChunkSize, gen)
	if err != nil {
		log.Error("load world", zap.Error(err))
		closer.Fatalln(err)
	}
	saver := persistence.NewSaver(worldDB, chunks, log)
	save := func() error {
		_, err := saver.Save()
		return err
	}
	// Bound after Close, so it runs first.
	closer.Bind(func() {
		if err := save(); err != nil {
			log.Error("save world", zap.Error(err))
		}
	})

	ctrl, err := streaming.NewController(chunks, sched, pool, log)
	if err != nil {
		log.Error("create controller", zap.Error(err))
		closer.Fatalln(err)
	}

	var hub *observer.Hub
	if settings.ObserverAddr != "" {
		hub = observer.NewHub(log)
		mux := http.NewServeMux()
		mux.Handle(observer.Path, hub)
		srv := &http.Server{Addr: settings.ObserverAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("observer server", zap.Error(err))
			}
		}()
		closer.Bind(func() { _ = srv.Close() })
		log.Info("observer listening", zap.String("addr", settings.ObserverAddr))
	}

	autosave := rate.Sometimes{Interval: time.Duration(settings.AutosaveSeconds) * time.Second}

	initial := game.State{Viewer: game.NewViewer(spawn), FieldOfView: config.ClampFieldOfView(settings.FieldOfView)}
	session := game.NewSession(ctrl, initial, game.SessionOptions{
		Sensitivity:    config.GetMouseSensitivity(),
		EditsPerSecond: settings.EditsPerSecond,
		OnTick: func(snap game.Snapshot) {
			if hub != nil {
				if err := hub.Publish(snap); err != nil {
					log.Warn("publish tick", zap.Error(err))
				}
			}
			if settings.AutosaveSeconds > 0 {
				autosave.Do(func() {
					if err := save(); err != nil {
						log.Error("autosave", zap.Error(err))
					}
				})
			}
		},
	}, log)

	if window != nil && !*headless {
		im := input.NewInputManager()
		app := gamewindow.NewApp(window, im, session, settings.TickRate, log)
		app.Save = save
		gamewindow.SetupInputHandlers(app)
		err = app.Run()
	} else {
		err = runHeadless(session, *ticks, settings.TickRate, log)
	}
	if err == nil {
		err = ctrl.Drain()
	}
	if err != nil {
		if errors.Is(err, gpu.ErrDeviceFailure) {
			log.Error("device lost", zap.Error(err))
		} else {
			log.Error("run", zap.Error(err))
		}
		closer.Fatalln(err)
	}

	// GL objects belong to this thread.
	if err := dev.Close(); err != nil {
		log.Warn("close device", zap.Error(err))
	}
	if window != nil {
		window.Destroy()
		glfw.Terminate()
	}
	closer.Close()
}

func newLogger(debug bool) *zap.Logger {
	var (
		log *zap.Logger
		err error
	)
	if debug {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return log
}
