// Command dwellwatch watches a visual stream for objects that stop
// moving. Frames come from a capture device, video file, image
// directory or HTTP snapshot endpoint; an external detector/tracker
// service provides per-object boxes and track ids; the dwell store
// flags any track that stays within the movement tolerance for longer
// than the stop-time threshold.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/quaystone/dwellwatch/internal/api"
	"github.com/quaystone/dwellwatch/internal/config"
	"github.com/quaystone/dwellwatch/internal/db"
	"github.com/quaystone/dwellwatch/internal/detect"
	"github.com/quaystone/dwellwatch/internal/ingest"
	"github.com/quaystone/dwellwatch/internal/source"
	"github.com/quaystone/dwellwatch/internal/track"
)

// headerFlags collects repeatable -header key:value flags.
type headerFlags []string

func (h *headerFlags) String() string { return strings.Join(*h, ", ") }
func (h *headerFlags) Set(v string) error {
	*h = append(*h, v)
	return nil
}

var (
	sourceFlag   = flag.String("source", "", "Source descriptor: device index, video file, image directory, or URL")
	configFile   = flag.String("config", "", "Optional JSON tuning file")
	dbFile       = flag.String("db", "dwellwatch.db", "Event database path")
	listen       = flag.String("listen", ":8080", "API listen address (empty disables the API)")
	detectorURL  = flag.String("detector", "", "External detector service URL")
	devMode      = flag.Bool("dev", false, "Run with a no-op detector instead of a real service")
	display      = flag.Bool("display", false, "Show an interactive window (q or ESC quits)")
	classesFlag  = flag.String("classes", "", "Comma-separated allow-list of class ids")
	tolerance    = flag.Float64("tolerance", config.DefaultMovementTolerancePx, "Movement tolerance in pixels")
	stopSeconds  = flag.Float64("stop-seconds", config.DefaultStopTimeSeconds, "Stop-time threshold in seconds")
	replayFPS    = flag.Float64("fps", config.DefaultReplayFPS, "Directory replay target frame rate")
	pollInterval = flag.Float64("poll-interval", config.DefaultPollIntervalSeconds, "Snapshot polling interval in seconds")
	headers      headerFlags
)

func main() {
	flag.Var(&headers, "header", "Snapshot request header key:value (repeatable)")
	flag.Parse()

	if *sourceFlag == "" {
		log.Fatal("-source is required")
	}
	if !*devMode && *detectorURL == "" {
		log.Fatal("-detector is required (or pass -dev)")
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	classes, err := parseClasses(*classesFlag, cfg)
	if err != nil {
		log.Fatalf("failed to parse -classes: %v", err)
	}

	database, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("failed to open event database: %v", err)
	}
	defer database.Close()

	runID, err := database.StartRun(*sourceFlag, time.Now())
	if err != nil {
		log.Fatalf("failed to record run: %v", err)
	}
	log.Printf("run %s: source %q", runID, *sourceFlag)

	store := track.NewStore(track.Config{
		MovementTolerancePx: cfg.GetMovementTolerancePx(),
		StopTimeThreshold:   cfg.GetStopTime(),
		TrackExpiry:         cfg.GetTrackExpiry(),
	})

	headerList := append([]string(nil), cfg.PollHeaders...)
	headerList = append(headerList, headers...)
	src, err := source.Resolve(*sourceFlag, source.Options{
		ReplayFPS:    cfg.GetReplayFPS(),
		PollInterval: cfg.GetPollInterval(),
		HTTPTimeout:  cfg.GetHTTPTimeout(),
		Headers:      source.ParseHeaders(headerList),
	})
	if err != nil {
		log.Fatalf("failed to resolve source %q: %v", *sourceFlag, err)
	}

	var detector detect.Detector
	if *devMode {
		detector = detect.NewScriptedDetector(nil)
		log.Print("dev mode: using no-op detector")
	} else {
		detector = detect.NewRemoteDetector(*detectorURL, detect.Config{
			Confidence:   cfg.GetConfidence(),
			IoUThreshold: cfg.GetIoUThreshold(),
			DecodeSize:   cfg.GetDecodeSize(),
			Device:       cfg.GetDetectorDevice(),
			Persist:      true,
		}, cfg.GetHTTPTimeout())
	}
	defer detector.Close()

	loop := ingest.NewLoop(src, detector, store, &dbSink{db: database, runID: runID}, ingest.Config{
		Classes:          classes,
		SoftReadFailures: source.Classify(*sourceFlag) == source.KindSnapshot,
		Display:          *display,
		WindowTitle:      "dwellwatch " + *sourceFlag,
		LogInterval:      500,
	})

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Ingestion goroutine: when the source ends (or the user quits),
	// bring the rest of the process down too.
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer stop()
		if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("ingestion loop failed: %v", err)
		}
		log.Print("ingestion loop terminated")
	}()

	// API server goroutine.
	if *listen != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()

			mux := http.NewServeMux()
			database.AttachAdminRoutes(mux)
			apiMux := api.NewServer(store, database, runID, *sourceFlag).ServeMux()
			mux.Handle("/api/", http.StripPrefix("/api", apiMux))

			server := &http.Server{Addr: *listen, Handler: mux}
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatalf("failed to start server: %v", err)
				}
			}()
			log.Printf("API listening on %s", *listen)

			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Printf("HTTP server shutdown error: %v", err)
			}
			log.Print("HTTP server stopped")
		}()
	}

	wg.Wait()
	created, stops := store.Counters()
	log.Printf("shutdown complete: %d tracks seen, %d stop events", created, stops)
}

// loadConfig merges the optional config file with flag overrides; a
// flag passed explicitly wins over the file value.
func loadConfig() (*config.Config, error) {
	cfg := config.Empty()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "tolerance":
			cfg.MovementTolerancePx = tolerance
		case "stop-seconds":
			cfg.StopTimeSeconds = stopSeconds
		case "fps":
			cfg.ReplayFPS = replayFPS
		case "poll-interval":
			cfg.PollIntervalSeconds = pollInterval
		}
	})
	return cfg, nil
}

func parseClasses(raw string, cfg *config.Config) (detect.ClassFilter, error) {
	if raw == "" {
		return detect.NewClassFilter(cfg.AllowedClasses), nil
	}
	var classes []int
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid class id %q: %w", part, err)
		}
		classes = append(classes, id)
	}
	return detect.NewClassFilter(classes), nil
}

// dbSink adapts the event database to the ingestion loop's sink
// boundary.
type dbSink struct {
	db    *db.DB
	runID string
}

func (s *dbSink) RecordStop(trackID int64, classID int, center track.Point, at time.Time) error {
	return s.db.RecordStopEvent(db.StopEvent{
		RunID:     s.runID,
		TrackID:   trackID,
		ClassID:   classID,
		CenterX:   center.X,
		CenterY:   center.Y,
		StoppedAt: at,
	})
}
