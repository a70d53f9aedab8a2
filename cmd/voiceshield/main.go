package main

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/LeeJaeHaeng/voiceshield/internal/analyzer"
	"github.com/LeeJaeHaeng/voiceshield/internal/audio"
	"github.com/LeeJaeHaeng/voiceshield/internal/config"
	"github.com/LeeJaeHaeng/voiceshield/internal/models"
	"github.com/LeeJaeHaeng/voiceshield/internal/store"
	"github.com/LeeJaeHaeng/voiceshield/internal/summarize"
	"github.com/LeeJaeHaeng/voiceshield/internal/transcribe/deepgram"
	"github.com/LeeJaeHaeng/voiceshield/internal/transcribe/vosk"
	"github.com/LeeJaeHaeng/voiceshield/internal/vad"
	"github.com/LeeJaeHaeng/voiceshield/internal/voiceid"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logging
	setupLogging(cfg.LogLevel)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		log.Info().Msg("Shutting down...")
		cancel()
	}()

	app, err := newApp(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize")
	}
	defer app.close()

	if err := app.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: voiceshield <command> [args]

Commands:
  analyze <audio.wav> [...]       analyze audio files for synthetic speech
  analyze-image <image> [...]     analyze images for manipulation
  enroll <name> <audio.wav>       register a voice fingerprint
  verify <name> <audio.wav>       verify a clip against an enrolled voice
  identify <audio.wav>            identify the speaker among enrolled voices
  delete <name>                   delete an enrolled voice
  logs [limit]                    print recent analysis records`)
}

type app struct {
	cfg      *config.Config
	db       *store.Badger
	matcher  *voiceid.Matcher
	analyzer *analyzer.Analyzer
	closers  []func() error
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	db, err := store.Open(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	a.db = db
	a.closers = append(a.closers, db.Close)

	registry, err := a.buildRegistry(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	a.matcher = voiceid.NewMatcher(db, voiceid.DefaultThresholds())
	a.analyzer = analyzer.New(registry, a.matcher, db)
	return a, nil
}

// buildRegistry loads every configured model. Optional models that fail
// to load are logged and left out; the pipeline degrades accordingly.
func (a *app) buildRegistry(ctx context.Context) (*models.Registry, error) {
	registry := &models.Registry{}

	if a.cfg.InferenceURL != "" {
		remote := models.NewRemoteClient(a.cfg.InferenceURL)
		registry.Audio = remote.MelClassifier()
		registry.SecondaryAudio = remote.WaveClassifier()
		registry.Image = []models.ImageClassifier{
			remote.ImageDetector("umm-maybe"),
			remote.ImageDetector("sdxl"),
		}
		registry.AgeGender = remote.AgeGender()
		registry.Embedder = remote.Embedder()
		log.Info().Str("url", a.cfg.InferenceURL).Msg("Using remote inference service")
	} else {
		log.Warn().Msg("INFERENCE_URL not set, classifier-backed analysis unavailable")
	}

	// VAD: Silero when a model is on disk, WebRTC otherwise.
	if a.cfg.SileroModelPath != "" {
		silero, err := vad.NewSilero(a.cfg.SileroModelPath)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to load Silero VAD, falling back to WebRTC")
		} else {
			registry.VAD = silero
			a.closers = append(a.closers, silero.Close)
		}
	}
	if registry.VAD == nil {
		webrtc, err := vad.NewWebRTC()
		if err != nil {
			log.Warn().Err(err).Msg("Failed to create WebRTC VAD, diarization unavailable")
		} else {
			registry.VAD = webrtc
			a.closers = append(a.closers, webrtc.Close)
		}
	}

	switch a.cfg.STTBackend {
	case "deepgram":
		dg := deepgram.New(a.cfg.DeepgramAPIKey, a.cfg.DeepgramModel, a.cfg.DeepgramLanguage)
		registry.STT = dg
		a.closers = append(a.closers, dg.Close)
	default:
		vk, err := vosk.New(a.cfg.VoskModelPath, audio.TargetRate)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to load Vosk model, transcription unavailable")
		} else {
			registry.STT = vk
			a.closers = append(a.closers, vk.Close)
		}
	}

	if a.cfg.GenAIAPIKey != "" {
		gem, err := summarize.NewGemini(a.cfg.GenAIAPIKey, a.cfg.GenAIModel)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to create Gemini client, summaries unavailable")
		} else {
			registry.Summarizer = gem
			a.closers = append(a.closers, gem.Close)
		}
	}

	return registry, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("Close failed")
		}
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "analyze":
		return a.analyzeAudio(ctx, args)
	case "analyze-image":
		return a.analyzeImages(ctx, args)
	case "enroll":
		if len(args) != 2 {
			return fmt.Errorf("usage: enroll <name> <audio.wav>")
		}
		return a.enroll(ctx, args[0], args[1])
	case "verify":
		if len(args) != 2 {
			return fmt.Errorf("usage: verify <name> <audio.wav>")
		}
		return a.verify(ctx, args[0], args[1])
	case "identify":
		if len(args) != 1 {
			return fmt.Errorf("usage: identify <audio.wav>")
		}
		return a.identify(ctx, args[0])
	case "delete":
		if len(args) != 1 {
			return fmt.Errorf("usage: delete <name>")
		}
		return a.db.Delete(args[0])
	case "logs":
		limit := 10
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return fmt.Errorf("limit must be a positive integer")
			}
			limit = n
		}
		return a.printLogs(limit)
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

// analyzeAudio fans the given files out over the worker pool and prints
// one JSON result per file.
func (a *app) analyzeAudio(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("usage: analyze <audio.wav> [...]")
	}

	pool := analyzer.NewPool(a.analyzer, a.cfg.AnalysisWorkers)
	if err := pool.Start(ctx); err != nil {
		return err
	}

	submitted := 0
	var failed bool
	for _, path := range paths {
		clip, err := a.loadClip(path)
		if err != nil {
			log.Error().Err(err).Str("path", path).Msg("Failed to load audio")
			failed = true
			continue
		}
		if err := pool.Submit(&analyzer.Job{Path: path, Clip: clip}); err != nil {
			log.Error().Err(err).Str("path", path).Msg("Failed to queue file")
			failed = true
			continue
		}
		submitted++
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for i := 0; i < submitted; i++ {
		outcome, ok := <-pool.Outcomes()
		if !ok {
			break
		}
		if outcome.Err != nil {
			failed = true
			continue
		}
		if err := enc.Encode(outcome.Result); err != nil {
			pool.Stop()
			return err
		}
	}
	pool.Stop()

	if failed {
		return fmt.Errorf("one or more files failed analysis")
	}
	return nil
}

func (a *app) analyzeImages(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("usage: analyze-image <image> [...]")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for _, path := range paths {
		img, err := loadImage(path)
		if err != nil {
			return fmt.Errorf("failed to load image %s: %w", path, err)
		}
		result, err := a.analyzer.AnalyzeImage(ctx, img)
		if err != nil {
			return fmt.Errorf("failed to analyze %s: %w", path, err)
		}
		if err := enc.Encode(result); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) enroll(ctx context.Context, name, path string) error {
	clip, err := a.loadClip(path)
	if err != nil {
		return err
	}
	if err := a.matcher.Enroll(ctx, name, clip); err != nil {
		return err
	}
	fmt.Printf("Enrolled %q\n", name)
	return nil
}

func (a *app) verify(ctx context.Context, name, path string) error {
	clip, err := a.loadClip(path)
	if err != nil {
		return err
	}
	match, err := a.matcher.Verify(ctx, name, clip)
	if err != nil {
		return err
	}
	return printJSON(match)
}

func (a *app) identify(ctx context.Context, path string) error {
	clip, err := a.loadClip(path)
	if err != nil {
		return err
	}
	match, err := a.matcher.Identify(ctx, clip)
	if err != nil {
		return err
	}
	return printJSON(match)
}

func (a *app) printLogs(limit int) error {
	records, err := a.db.RecentLogs(limit)
	if err != nil {
		return err
	}
	return printJSON(records)
}

func (a *app) loadClip(path string) (*audio.Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return audio.Decode(f, audio.TargetRate, float64(a.cfg.MaxAudioSeconds))
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func setupLogging(level string) {
	// Setup zerolog
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	// Set log level
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
