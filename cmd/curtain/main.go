package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/noriah/curtain"
	"github.com/noriah/curtain/assets"
	"github.com/noriah/curtain/graphic"
	"github.com/noriah/curtain/input"

	_ "github.com/noriah/curtain/input/all"

	"github.com/integrii/flaggy"
	"github.com/pkg/errors"
)

// AppName is the app name
const AppName = "curtain"

// AppDesc is the app description
const AppDesc = "Blow into the microphone to open the curtain"

// AppSite is the app website
const AppSite = "https://github.com/noriah/curtain"

var version = "unknown"

type command int

const (
	cmdRun command = iota
	cmdDone
	cmdCalibrate
)

func main() {
	log.SetFlags(0)

	cfg := newZeroConfig()
	applyEnv(&cfg, os.LookupEnv)

	cmd := doFlags(&cfg)
	if cmd == cmdDone {
		return
	}

	chk(cfg.Sanitize(), "invalid config")

	if cfg.logFile != "" {
		f, err := os.OpenFile(cfg.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		chk(err, "failed to open log file")
		defer f.Close()

		log.SetOutput(f)
	}

	// Root Context
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var err error

	switch {
	case cmd == cmdCalibrate:
		err = calibrate(ctx, &cfg, os.Stdout)

	case cfg.raw:
		err = runRaw(ctx, &cfg)

	default:
		err = runDisplay(ctx, &cfg)
	}

	if errors.Is(err, context.Canceled) {
		return
	}

	chk(err, "failed to run curtain")
}

func curtainConfig(cfg *config, seqs *assets.Sequences) curtain.Config {
	return curtain.Config{
		Backend:         cfg.backend,
		Device:          cfg.device,
		SampleRate:      cfg.sampleRate,
		SampleSize:      cfg.sampleSize,
		ChannelCount:    cfg.channelCount,
		ProcessRate:     cfg.processRate,
		SmoothingFactor: cfg.smoothFactor,
		Playback:        cfg.playback(seqs.Lengths()),
	}
}

func loadConfig(cfg *config) assets.LoadConfig {
	return assets.LoadConfig{
		Dir:     cfg.assetsDir,
		Specs:   assets.DefaultSpecs(),
		Workers: cfg.workers,
	}
}

// runRaw loads the images only to check them and to learn the sequence
// lengths, then prints frames to stdout.
func runRaw(ctx context.Context, cfg *config) error {
	seqs, err := assets.Load(ctx, loadConfig(cfg))
	if err != nil {
		return err
	}

	curtainCfg := curtainConfig(cfg, seqs)
	curtainCfg.Output = NewRawOutput(os.Stdout)

	return curtain.Run(&curtainCfg, ctx)
}

func runDisplay(ctx context.Context, cfg *config) error {
	display := graphic.NewDisplay()

	if err := display.Init(); err != nil {
		return err
	}
	defer display.Close()

	// the poller runs from here on so q works on the loading screens
	ctx = display.Start(ctx)
	defer display.Stop()

	loadCfg := loadConfig(cfg)
	loadCfg.Progress = display.ShowLoading

	display.ShowLoading(0, loadCfg.Total())

	seqs, err := assets.Load(ctx, loadCfg)
	if err != nil {
		var lerr *assets.LoadError
		if errors.As(err, &lerr) {
			display.ShowFailures(lerr.Paths())
			// halt on the failure screen until the user quits
			<-ctx.Done()
		}

		return err
	}

	curtainCfg := curtainConfig(cfg, seqs)
	curtainCfg.Output = display
	curtainCfg.SetupFunc = func() error {
		display.SetSequences(seqs)
		display.SetStatus(cfg.status)
		return nil
	}

	return curtain.Run(&curtainCfg, ctx)
}

func doFlags(cfg *config) command {

	parser := flaggy.NewParser(AppName)
	parser.Description = AppDesc
	parser.AdditionalHelpPrepend = AppSite
	parser.Version = version

	listBackendsCmd := flaggy.Subcommand{
		Name:                 "list-backends",
		ShortName:            "lb",
		Description:          "list all supported backends",
		AdditionalHelpAppend: "\nuse the full name after the '-'",
	}

	parser.AttachSubcommand(&listBackendsCmd, 1)

	listDevicesCmd := flaggy.Subcommand{
		Name:                 "list-devices",
		ShortName:            "ld",
		Description:          "list all devices for a backend",
		AdditionalHelpAppend: "\nuse the full name after the '-'",
	}

	parser.AttachSubcommand(&listDevicesCmd, 1)

	calibrateCmd := flaggy.Subcommand{
		Name:                 "calibrate",
		ShortName:            "cal",
		Description:          "listen to a quiet room and suggest a threshold",
		AdditionalHelpAppend: "\nkeep quiet while it listens",
	}

	calibrateCmd.Int(&cfg.seconds, "s", "seconds", "seconds to listen for")

	parser.AttachSubcommand(&calibrateCmd, 1)

	parser.String(&cfg.backend, "b", "backend", "backend name ($"+EnvBackend+")")
	parser.String(&cfg.device, "d", "device", "device name ($"+EnvDevice+")")
	parser.Float64(&cfg.sampleRate, "r", "rate", "sample rate")
	parser.Int(&cfg.sampleSize, "n", "samples", "sample size")
	parser.Int(&cfg.channelCount, "ch", "channels", "channel count (1 or 2)")
	parser.Int(&cfg.processRate, "f", "fps", "most frames per second when the input stalls")
	parser.Float64(&cfg.smoothFactor, "sf", "smoothing", "smooth factor (0-100]")
	parser.Float64(&cfg.threshold, "t", "threshold", "level where the curtain starts to move")
	parser.Float64(&cfg.maxLevel, "m", "max", "level that opens the curtain all the way")
	parser.Duration(&cfg.idleInterval, "ii", "idle-interval", "time between idle frames")
	parser.Duration(&cfg.endingInterval, "ei", "ending-interval", "time between ending frames")
	parser.String(&cfg.assetsDir, "a", "assets", "image directory ($"+EnvAssets+")")
	parser.Int(&cfg.workers, "w", "workers", "images decoded at once (0 for one per cpu)")
	parser.Bool(&cfg.raw, "R", "raw", "print frames instead of drawing them")
	parser.Bool(&cfg.status, "S", "status", "show the status line ('s' toggles it)")
	parser.String(&cfg.logFile, "l", "log", "write log output to a file")

	chk(parser.Parse(), "failed to parse arguments")

	switch {
	case listBackendsCmd.Used:
		def := input.DefaultBackend()
		for _, backend := range input.Backends {
			star := ' '
			if backend.Name == def {
				star = '*'
			}

			fmt.Printf("- %s %c\n", backend.Name, star)
		}

		return cmdDone

	case listDevicesCmd.Used:
		if cfg.backend == "" {
			cfg.backend = input.DefaultBackend()
		}

		backend, err := input.InitBackend(cfg.backend)
		chk(err, "failed to init backend")

		devices, err := backend.Devices()
		chk(err, "failed to get devices")

		// We don't really need the default device to be indicated.
		defaultDevice, _ := backend.DefaultDevice()

		fmt.Printf("all devices for %q backend. '*' marks default\n", cfg.backend)

		for idx := range devices {
			star := ' '
			if defaultDevice != nil && devices[idx].String() == defaultDevice.String() {
				star = '*'
			}

			fmt.Printf("- %v %c\n", devices[idx], star)
		}

		return cmdDone

	case calibrateCmd.Used:
		return cmdCalibrate
	}

	return cmdRun
}

func chk(err error, wrap string) {
	if err != nil {
		log.Fatalln(wrap+": ", err)
	}
}
