package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ridge/must/v2"
	"github.com/spf13/cobra"

	"github.com/ironsheep/textmap-mcp/internal/config"
	"github.com/ironsheep/textmap-mcp/internal/logger"
	"github.com/ironsheep/textmap-mcp/internal/server"
)

// flags holds command-line overrides; zero values leave the environment's
// settings in place.
type flags struct {
	envFile        string
	logLevel       string
	language       string
	tessdataPrefix string
	preprocess     bool
	minConfidence  float64
	captureCommand string
	captureTimeout time.Duration
	workDir        string
}

func newRootCmd() *cobra.Command {
	var f flags

	root := &cobra.Command{
		Use:   "textmap-mcp",
		Short: "MCP server that turns photos into tappable text blocks",
		Long: "textmap-mcp imports or captures an image, recognizes the text in it with Tesseract,\n" +
			"and presents the result as a map of text blocks the user can tap.\n\n" +
			"It communicates via MCP protocol over stdin/stdout. Configure it in your MCP client.\n\n" +
			"Environment variables (also read from --env-file):\n" +
			"  " + config.EnvLogLevel + "        debug, info, warn or error\n" +
			"  " + config.EnvLanguage + "         Tesseract language, e.g. eng+deu\n" +
			"  " + config.EnvTessdataPrefix + "  traineddata directory\n" +
			"  " + config.EnvPreprocess + "       grayscale and contrast before OCR\n" +
			"  " + config.EnvMinConfidence + "   drop words below this score (0-1)\n" +
			"  " + config.EnvCaptureCommand + "  camera command, must contain " + config.OutputPlaceholder + "\n" +
			"  " + config.EnvCaptureTimeout + "  camera command timeout\n" +
			"  " + config.EnvWorkDir + "         directory for captured and edited images",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, &f)
		},
	}

	f.register(root)

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve MCP over stdin/stdout (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, &f)
		},
	})
	root.AddCommand(newRecognizeCmd(&f))
	root.AddCommand(newVersionCmd())

	return root
}

// register adds the configuration flags to cmd and its subcommands.
func (f *flags) register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&f.envFile, "env-file", ".env", "load environment variables from this file if it exists")
	pf.StringVar(&f.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&f.language, "language", "", "Tesseract language")
	pf.StringVar(&f.tessdataPrefix, "tessdata", "", "Tesseract traineddata directory")
	pf.BoolVar(&f.preprocess, "preprocess", false, "convert images to high-contrast grayscale before OCR")
	pf.Float64Var(&f.minConfidence, "min-confidence", 0, "drop recognized words below this confidence (0-1)")
	pf.StringVar(&f.captureCommand, "capture-command", "", "camera command; "+config.OutputPlaceholder+" is replaced with the output path")
	pf.DurationVar(&f.captureTimeout, "capture-timeout", 0, "camera command timeout")
	pf.StringVar(&f.workDir, "work-dir", "", "directory for captured and edited images")
	must.OK(cmd.MarkPersistentFlagFilename("env-file", "env"))
}

// loadConfig reads the environment and applies flags the user set.
func loadConfig(cmd *cobra.Command, f *flags) (config.Config, error) {
	cfg, err := config.Load(f.envFile)
	if err != nil {
		return config.Config{}, err
	}

	changed := cmd.Flags().Changed
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if changed("language") {
		cfg.Language = f.language
	}
	if changed("tessdata") {
		cfg.TessdataPrefix = f.tessdataPrefix
	}
	if changed("preprocess") {
		cfg.Preprocess = f.preprocess
	}
	if changed("min-confidence") {
		cfg.MinConfidence = f.minConfidence
	}
	if changed("capture-command") {
		cfg.CaptureCommand = config.SplitCommand(f.captureCommand)
	}
	if changed("capture-timeout") {
		cfg.CaptureTimeout = f.captureTimeout
	}
	if changed("work-dir") {
		cfg.WorkDir = f.workDir
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, f *flags) error {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}

	// Logging goes to stderr (stdout is for MCP protocol)
	log := logger.New(os.Stderr, cfg.Level())
	log.Debug("textmap-mcp v%s (built %s, commit %s)", Version, BuildTime, GitCommit)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, log, server.WithVersion(Version))
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error("server error: %v", err)
		return err
	}
	return nil
}
