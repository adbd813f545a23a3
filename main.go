package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/watchher-data/risk.report/internal/alerting"
	"github.com/watchher-data/risk.report/internal/api"
	"github.com/watchher-data/risk.report/internal/config"
	"github.com/watchher-data/risk.report/internal/db"
	"github.com/watchher-data/risk.report/internal/framesource"
	"github.com/watchher-data/risk.report/internal/monitor"
	"github.com/watchher-data/risk.report/internal/perception"
	"github.com/watchher-data/risk.report/internal/risk"
	"github.com/watchher-data/risk.report/internal/version"
	"github.com/watchher-data/risk.report/internal/zones"
)

var (
	devMode     = flag.Bool("dev", false, "Replay fixtures.txt instead of listening for frames")
	listen      = flag.String("listen", ":8080", "HTTP listen address")
	udpAddr     = flag.String("udp", ":9999", "UDP listen address for perception frames")
	configPath  = flag.String("config", "", "Path to engine config JSON (defaults apply when empty)")
	dbFile      = flag.String("db", "risk_data.db", "Path to sqlite database")
	plotsDir    = flag.String("plots", "", "Record per-camera score plots into this directory")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// snapshotInterval is how often zone profiles are persisted.
const snapshotInterval = 60 * time.Second

// pipeline owns everything one frame passes through after the mux delivers it.
type pipeline struct {
	engine  *risk.Engine
	db      *db.DB
	api     *api.Server
	alerter *alerting.Alerter
	acc     *zones.Accumulator
	plotter *monitor.RiskPlotter
}

func (p *pipeline) handleFrame(payload string) error {
	frame, err := perception.ParseFrame([]byte(payload))
	if err != nil {
		return fmt.Errorf("failed to parse frame: %w", err)
	}

	a := p.engine.Evaluate(frame)
	a.ID = uuid.New().String()
	p.acc.Update(a.CameraID, a.Score)

	if err := p.db.RecordAssessment(a); err != nil {
		return fmt.Errorf("failed to record assessment: %w", err)
	}
	p.api.Publish(a)
	p.plotter.Sample(a)

	if alert := p.alerter.Evaluate(a); alert != nil {
		if err := p.db.RecordAlert(*alert); err != nil {
			return fmt.Errorf("failed to record alert: %w", err)
		}
	}
	return nil
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("risk-report %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}
	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	cfg := config.EmptyEngineConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadEngineConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	} else if _, err := os.Stat(config.DefaultConfigPath); err == nil {
		cfg, err = config.LoadEngineConfig(config.DefaultConfigPath)
		if err != nil {
			log.Fatalf("Failed to load default config: %v", err)
		}
	}

	var src interface {
		Read([]byte) (int, error)
		Close() error
	}
	if *devMode {
		lines, err := framesource.LoadFixtures("fixtures.txt")
		if err != nil {
			log.Fatalf("failed to load fixtures: %v", err)
		}
		src = framesource.NewMockSource(lines, 500*time.Millisecond)
	} else {
		udp, err := framesource.ListenUDP(*udpAddr)
		if err != nil {
			log.Fatalf("failed to listen for frames: %v", err)
		}
		log.Printf("listening for perception frames on %s", udp.LocalAddr())
		src = udp
	}

	mux := framesource.NewMux(src)
	defer mux.Close()

	database, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	acc := zones.NewAccumulator(cfg.GetZoneDecay(), nil)
	plotter := monitor.NewRiskPlotter()
	if *plotsDir != "" {
		if err := plotter.Start(*plotsDir); err != nil {
			log.Fatalf("failed to start plotter: %v", err)
		}
	}

	p := &pipeline{
		engine:  risk.NewEngine(cfg),
		db:      database,
		api:     api.NewServer(database, cfg, acc),
		alerter: alerting.NewAlerter(cfg, nil),
		acc:     acc,
		plotter: plotter,
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run the monitor routine to manage IO on the frame stream
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := mux.Monitor(ctx); err != nil && err != context.Canceled {
			log.Printf("failed to monitor frame stream: %v", err)
		}
		log.Print("monitor routine terminated")
	}()

	// subscribe to frame payloads and run each through the pipeline
	wg.Add(1)
	go func() {
		defer wg.Done()
		id, c := mux.Subscribe()
		defer mux.Unsubscribe(id)
		for {
			select {
			case payload := <-c:
				if err := p.handleFrame(payload); err != nil {
					log.Printf("error handling frame: %v", err)
				}
			case <-ctx.Done():
				log.Printf("subscribe routine terminated")
				return
			}
		}
	}()

	// persist zone profiles periodically so long-horizon trends survive restarts
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(snapshotInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := database.RecordZoneSnapshots(acc.Snapshots()); err != nil {
					log.Printf("failed to persist zone snapshots: %v", err)
				}
			case <-ctx.Done():
				log.Printf("snapshot routine terminated")
				return
			}
		}
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		httpMux := p.api.ServeMux()
		database.AttachAdminRoutes(httpMux)
		monitor.NewWebServer(database, acc).AttachMonitorRoutes(httpMux)

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(httpMux),
		}

		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()

	if plotter.IsEnabled() {
		plotter.Stop()
		if count, err := plotter.GeneratePlots(); err != nil {
			log.Printf("failed to generate plots: %v", err)
		} else {
			log.Printf("wrote %d score plots to %s", count, *plotsDir)
		}
	}

	log.Printf("Graceful shutdown complete")
}
