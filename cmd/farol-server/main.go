// Package main is the entry point for the farol engine server.
// It only handles dependency injection and server initialization.
// NO game logic belongs here.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/farolengine/farol/internal/assets"
	"github.com/farolengine/farol/internal/engine"
	"github.com/farolengine/farol/internal/events"
	"github.com/farolengine/farol/internal/game"
	"github.com/farolengine/farol/internal/gfx"
	"github.com/farolengine/farol/internal/infra/storage"
	"github.com/farolengine/farol/internal/input"
	"github.com/farolengine/farol/internal/network"
	"github.com/farolengine/farol/internal/platform/config"
	"github.com/farolengine/farol/internal/platform/logger"
	"github.com/farolengine/farol/internal/platform/metrics"
	"github.com/farolengine/farol/internal/script"
	"github.com/farolengine/farol/internal/states"
)

// JournalPersisterAdapter translates journal events to storage events.
type JournalPersisterAdapter struct {
	repo storage.EventRepository
}

func (a *JournalPersisterAdapter) Append(event events.SessionEvent) error {
	started := time.Now()
	err := a.repo.Append(context.Background(), storage.SessionEvent{
		ID:        event.ID,
		SessionID: event.SessionID,
		Tick:      event.Tick,
		EventType: string(event.Type),
		Source:    event.Source,
		Payload:   event.Payload,
		Timestamp: event.Timestamp,
	})
	metrics.Get().RecordEventWrite(time.Since(started), err)
	return err
}

// transitionProxy lets the script bindings and built-in states request
// transitions before the engine exists; the wiring order demands it.
type transitionProxy struct {
	engine *engine.Engine
}

func (p *transitionProxy) RequestTransition(name string) {
	if p.engine != nil {
		p.engine.RequestTransition(name)
	}
}

func main() {
	replayFlag := flag.String("replay", "", "replay a recorded session's input timeline (session ID, or 'latest')")
	flag.Parse()

	log.Println("[FAROL] Initializing farol console server...")

	appLogger := logger.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		appLogger.Error("Failed to load configuration: " + err.Error())
		os.Exit(1)
	}

	appLogger.Infof("Initializing SQLite database %q...", cfg.Storage.Path)
	db, err := storage.InitSQLite(cfg.Storage.Path, cfg.Tuning.DBMaxConns, cfg.Tuning.DBMaxIdleConns)
	if err != nil {
		appLogger.Error("Failed to initialize SQLite: " + err.Error())
		os.Exit(1)
	}
	defer db.Close()

	eventRepo := storage.NewSQLiteEventRepository(db)
	sessionRepo := storage.NewSQLiteSessionRepository(db)
	replayer := storage.NewReplayer(eventRepo, sessionRepo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Every run is a session. Recording can be switched off, in which
	// case the journal stays memory-only and nothing lands in SQLite.
	sessionID := uuid.NewString()
	var persister events.EventPersister
	if cfg.Storage.Record {
		persister = &JournalPersisterAdapter{repo: eventRepo}
		record := storage.SessionRecord{
			ID:           sessionID,
			StartedAt:    time.Now(),
			ScriptPath:   cfg.Script.Path,
			InitialState: cfg.Engine.InitialState,
			Seed:         time.Now().UnixNano(),
		}
		if err := sessionRepo.Create(ctx, record); err != nil {
			appLogger.Error("Failed to create session record: " + err.Error())
			os.Exit(1)
		}
		appLogger.Info("Recording session " + sessionID)
	}
	journal := events.NewJournal(sessionID, persister)
	journal.Append(0, events.EventSessionStart, "server", map[string]interface{}{
		"script": cfg.Script.Path,
	})

	appLogger.Infof("Loading assets from %q...", cfg.Assets.Root)
	loader := assets.NewLoader(cfg.Assets.Root, assets.NewMemoryStore(), appLogger)

	screen, err := gfx.NewScreen(cfg.Display.Width, cfg.Display.Height, nil)
	if err != nil {
		appLogger.Error("Failed to create screen: " + err.Error())
		os.Exit(1)
	}
	if pal, err := loader.Palette("default"); err == nil {
		screen.SetPalette(pal)
	} else {
		appLogger.Warn("No default palette asset, using the built-in one")
	}

	font, err := loader.Font("system")
	if err != nil {
		appLogger.Warn("No system font asset, text rendering disabled: " + err.Error())
		font = nil
	}
	logo, err := loader.Sprite("logo")
	if err != nil {
		logo = nil
	}

	pad := input.NewPad()

	appLogger.Info("Bootstrapping WebSocket Hub...")
	var minInputGap time.Duration
	if cfg.Tuning.InputRateLimit > 0 {
		minInputGap = time.Second / time.Duration(cfg.Tuning.InputRateLimit)
	}
	hub := network.NewHub(network.HubConfig{
		FrameBuffer: cfg.Tuning.FrameChannelBuffer,
		InputBuffer: cfg.Tuning.InputChannelBuffer,
		SendBuffer:  cfg.Tuning.ClientSendBuffer,
		MaxClients:  cfg.Tuning.MaxClients,
		MinInputGap: minInputGap,
	}, appLogger)
	go hub.Run(ctx)

	// Pad input either comes live from the hub or from a recorded
	// session's timeline.
	var source engine.InputSource
	if *replayFlag != "" {
		targetID := *replayFlag
		if targetID == "latest" {
			latest, err := sessionRepo.Latest(ctx)
			if err != nil || latest == nil {
				appLogger.Error("No recorded session to replay")
				os.Exit(1)
			}
			targetID = latest.ID
		}
		samples, err := replayer.InputTimeline(ctx, targetID)
		if err != nil {
			appLogger.Error("Failed to load input timeline: " + err.Error())
			os.Exit(1)
		}
		appLogger.Infof("Replaying session %s (%d pad changes)", targetID, len(samples))
		source = engine.NewReplaySource(samples)
	} else {
		source = engine.NewLiveSource(hub.Inputs(), journal, appLogger)
	}

	appLogger.Infof("Loading script %q...", cfg.Script.Path)
	proxy := &transitionProxy{}
	bindings := script.NewBindings(screen, pad, loader, font, proxy, appLogger, nil)
	vm := script.NewVM(bindings)
	if err := vm.Run(cfg.Script.Path); err != nil {
		appLogger.Error("Failed to load script: " + err.Error())
		os.Exit(1)
	}

	registry := game.NewRegistry(map[string]game.State{
		"title": states.NewTitleState(screen, pad, font, logo, proxy, "game"),
		"game":  states.NewScriptedState(vm, "game"),
		"diag":  states.NewDiagnosticsState(screen, pad, font, []string{"title", "game", "diag"}, proxy),
	})

	appLogger.Info("Bootstrapping Engine...")
	eng, err := engine.NewEngine(engine.Options{
		Registry:     registry,
		InitialState: cfg.Engine.InitialState,
		Screen:       screen,
		Pad:          pad,
		Journal:      journal,
		Source:       source,
		Sink:         hub,
		Logger:       appLogger,
		TickRate:     cfg.Engine.TickRate,
		StreamEvery:  cfg.Engine.StreamEvery,
		DebugOverlay: cfg.Engine.DebugOverlay,
	})
	if err != nil {
		appLogger.Error("Failed to start engine: " + err.Error())
		os.Exit(1)
	}
	proxy.engine = eng

	engineErr := make(chan error, 1)
	go func() {
		engineErr <- eng.Run(ctx)
	}()

	// Setup API Routes
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(hub, w, r, appLogger)
	})

	controlBridge := network.NewControlBridge(eng, hub, appLogger)
	controlBridge.RegisterRoutes(mux)

	timelineHandler := network.NewTimelineHandler(eventRepo, replayer, appLogger)
	timelineHandler.RegisterRoutes(mux)

	mux.HandleFunc("/metrics", metrics.Handler())
	mux.HandleFunc("/metrics/prometheus", metrics.PrometheusHandler())

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: mux}
	go func() {
		log.Printf("[FAROL] HTTP API & WS server listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	log.Println("[FAROL] Server running. Press Ctrl+C to exit.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		appLogger.Info("Shutdown signal received.")
	case err := <-engineErr:
		if err != nil {
			appLogger.Error("Engine halted: " + err.Error())
		}
	}

	log.Println("[FAROL] Shutting down...")
	journal.Append(eng.Tick(), events.EventSessionEnd, "server", nil)
	eng.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if cfg.Storage.Record {
		if err := sessionRepo.Close(shutdownCtx, sessionID, time.Now()); err != nil {
			appLogger.Error("Failed to close session record: " + err.Error())
		}
	}
	_ = srv.Shutdown(shutdownCtx)

	// Let the async persister land the tail of the journal before the
	// database handle goes away.
	time.Sleep(250 * time.Millisecond)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Spectator frontends run on their own origins.
	},
}

// serveWs handles websocket requests from the peer.
func serveWs(hub *network.Hub, w http.ResponseWriter, r *http.Request, log *logger.Logger) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("Failed to upgrade websocket connection")
		return
	}

	client := network.NewClient(hub, conn)
	client.Register()

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.WritePump()
	go client.ReadPump()
}
