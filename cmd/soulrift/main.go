package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/soulrift/server/internal/config"
	"github.com/soulrift/server/internal/data"
	gonet "github.com/soulrift/server/internal/net"
	"github.com/soulrift/server/internal/persist"
	"github.com/soulrift/server/internal/protocol"
	"github.com/soulrift/server/internal/scripting"
	"github.com/soulrift/server/internal/sim"
	"github.com/soulrift/server/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string, serverID int) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m            Soulrift  v0.1.0               \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m     two-faction territory simulation      \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s \033[90m(id: %d)\033[0m\n\n", serverName, serverID)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("SOULRIFT_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name, cfg.Server.ID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Optional match-history store
	var recorder *persist.Recorder
	var matchRepo *persist.MatchRepo
	var matchID int64
	if cfg.Database.Enabled {
		printSection("database")
		dbCtx, dbCancel := context.WithTimeout(ctx, 30*time.Second)
		db, err := persist.NewDB(dbCtx, cfg.Database, log)
		dbCancel()
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")

		migCtx, migCancel := context.WithTimeout(ctx, 30*time.Second)
		err = persist.Migrate(migCtx, db.Pool)
		migCancel()
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK("migrations applied")

		matchRepo = persist.NewMatchRepo(db)
		matchID, err = matchRepo.CreateMatch(ctx, cfg.Server.ID, time.Now())
		if err != nil {
			return fmt.Errorf("create match: %w", err)
		}
		recorder = persist.NewRecorder(matchRepo, log, matchID, cfg.Database.FlushInterval)
		defer recorder.Close()
		fmt.Println()
	}

	// 4. Load static data tables
	printSection("data")

	disasterTable, err := data.LoadDisasterTable("data/yaml/disaster_list.yaml")
	if err != nil {
		return fmt.Errorf("load disaster table: %w", err)
	}
	printStat("disaster templates", disasterTable.Count())

	phaseTable, err := data.LoadPhaseTable("data/yaml/daynight_list.yaml")
	if err != nil {
		return fmt.Errorf("load daynight table: %w", err)
	}
	printStat("day/night phases", phaseTable.Count())

	luaEngine, err := scripting.NewEngine("scripts", log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()
	printOK("Lua scripts loaded")
	fmt.Println()

	// 5. Build the simulation
	printSection("world")

	mgr := sim.NewManager(cfg, log, sim.Options{
		Scripts:   luaEngine,
		Disasters: disasterTable,
		Phases:    phaseTable,
		Seed:      time.Now().UnixNano(),
	})
	ws := mgr.World()
	printStat("tiles", cfg.Map.Width*cfg.Map.Height)
	printStat("souls per faction", cfg.Soul.InitialPopulation)
	printStat("orbs per faction", cfg.Orb.CountPerFaction)
	fmt.Println()

	// 6. Observer endpoint
	netServer := gonet.NewServer(cfg, log)
	netErr := make(chan error, 1)
	go func() {
		netErr <- netServer.Run(ctx)
	}()

	// 7. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Network.TickRate)
	defer ticker.Stop()

	printSection("server ready")
	printReady(fmt.Sprintf("observers on ws://%s/ws", cfg.Network.BindAddress))
	printReady(fmt.Sprintf("game loop running (tick: %s)", cfg.Network.TickRate))
	fmt.Println()

	snapshotEvery := int(cfg.Network.SnapshotInterval / cfg.Network.TickRate)
	if snapshotEvery < 1 {
		snapshotEvery = 1
	}
	sinceSnapshot := 0
	reportedOver := false

	for {
		select {
		case <-ticker.C:
			events := mgr.Tick(cfg.Network.TickRate)

			if len(events) > 0 {
				frame, err := protocol.EncodeTick(mgr.TickCount(), events)
				if err != nil {
					log.Warn("event encoding", zap.Error(err))
				}
				if b, err := json.Marshal(frame); err == nil {
					netServer.Broadcast(b)
				}
				if recorder != nil {
					recorder.Record(mgr.TickCount(), events)
				}
			}

			sinceSnapshot++
			if sinceSnapshot >= snapshotEvery {
				sinceSnapshot = 0
				snap := protocol.BuildSnapshot(ws, mgr.TickCount(), time.Now())
				if b, err := json.Marshal(snap); err == nil {
					netServer.PublishSnapshot(b)
				}
			}

			if mgr.Over() && !reportedOver {
				reportedOver = true
				winner := winnerFaction(ws)
				log.Info("match over", zap.Int("winner", winner))
				if matchRepo != nil {
					if err := matchRepo.FinishMatch(ctx, matchID, winner, time.Now()); err != nil {
						log.Error("finish match", zap.Error(err))
					}
				}
			}

		case err := <-netErr:
			if err != nil {
				return fmt.Errorf("observer server: %w", err)
			}
			return nil

		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()))
			cancel()
			<-netErr
			log.Info("server stopped")
			return nil
		}
	}
}

// winnerFaction returns the faction whose nexus survived.
func winnerFaction(ws *world.State) int {
	for f := world.Faction(0); f < world.NumFactions; f++ {
		if n := ws.Nexus(f); n != nil && n.Destroyed {
			return int(f.Opponent())
		}
	}
	return int(world.FactionNone)
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
