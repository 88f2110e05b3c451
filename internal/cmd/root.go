package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"png2jpg/config"
	"png2jpg/core/converter"
	"png2jpg/internal/logger"
	"png2jpg/internal/ui"
	"png2jpg/internal/version"
)

var (
	cfgFile string
	verbose bool

	inputDir   string
	outputDir  string
	quality    int
	recursive  bool
	background string

	log *zap.Logger
	cfg *config.Config
)

// ErrNothingConverted signals the exit-code-1 case: files were skipped and
// none converted. Note that a run that finds zero PNGs still exits 0; that
// leniency is long-standing behavior and is kept on purpose.
var ErrNothingConverted = errors.New("no files converted")

// rootCmd launches the interactive shell when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "png2jpg",
	Short: "Batch convert PNG images to JPEG",
	Long: `png2jpg converts directories of PNG images to JPEG, compositing
transparency onto a configurable background color and preserving the
directory structure under the output root.

Run without arguments for the interactive shell, or use the convert
subcommand for direct conversion.`,
	Version:       version.GetVersion(),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runInteractive,
}

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a directory of PNG files to JPEG",
	Long: `Convert all PNG files under the input directory to JPEG files under
the output directory, mirroring the relative paths.

Examples:
  png2jpg convert -i ./input_images -o ./output_images -q 90
  png2jpg convert -i ./photos -o ./converted -q 80 -r
  png2jpg convert -i ./input -o ./output -b 0,0,0`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runConvert,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.png2jpg.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	convertCmd.Flags().StringVarP(&inputDir, "input", "i", "", "input directory containing PNG files (required)")
	convertCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for JPEG files (required, created if missing)")
	convertCmd.Flags().IntVarP(&quality, "quality", "q", config.DefaultQuality, "JPEG quality 1-100")
	convertCmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "process subdirectories recursively")
	convertCmd.Flags().StringVarP(&background, "background", "b", config.DefaultBackground, "RGB background color for transparent PNGs (R,G,B)")
	_ = convertCmd.MarkFlagRequired("input")
	_ = convertCmd.MarkFlagRequired("output")

	rootCmd.AddCommand(convertCmd)
}

func initConfig() {
	var err error

	// Console-only bootstrap logger so config loading has somewhere to
	// report; rebuilt below once the logging config is known.
	opts := logger.DefaultOptions()
	opts.Verbose = verbose
	opts.EnableFile = false
	log, err = logger.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg, err = config.NewConfig(cfgFile, log)
	if err != nil {
		log.Fatal("configuration error", zap.Error(err))
	}

	opts = logger.DefaultOptions()
	opts.Verbose = verbose || cfg.Logging.Level == "debug"
	opts.EnableFile = cfg.Logging.EnableFile
	opts.LogDir = cfg.LogDirectory()
	full, err := logger.New(opts)
	if err != nil {
		log.Warn("file logging unavailable", zap.Error(err))
	} else {
		log = full
	}

	log.Debug("png2jpg initialized", zap.String("version", version.GetVersion()))
}

func runInteractive(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unknown command %q", args[0])
	}

	session, err := ui.NewSession(log, cfg)
	if err != nil {
		return err
	}
	defer session.Close()
	defer func() { _ = log.Sync() }()

	return session.Run()
}

func runConvert(cmd *cobra.Command, args []string) error {
	defer func() { _ = log.Sync() }()

	// Flags not given on the command line fall back to config file defaults.
	if !cmd.Flags().Changed("quality") {
		quality = cfg.Conversion.Quality
	}
	if !cmd.Flags().Changed("background") {
		background = cfg.Conversion.Background
	}
	if !cmd.Flags().Changed("recursive") {
		recursive = cfg.Conversion.Recursive
	}

	bg, err := converter.ParseBackground(background)
	if err != nil {
		return err
	}

	req := converter.ConversionRequest{
		InputDir:   inputDir,
		OutputDir:  outputDir,
		Quality:    quality,
		Recursive:  recursive,
		Background: bg,
	}
	if err := req.Validate(); err != nil {
		return err
	}

	preflight(log, req.OutputDir)

	fmt.Println("Starting PNG to JPEG conversion...")
	fmt.Printf("Input directory: %s\n", req.InputDir)
	fmt.Printf("Output directory: %s\n", req.OutputDir)
	fmt.Printf("Quality: %d\n", req.Quality)
	fmt.Printf("Recursive: %v\n", req.Recursive)
	fmt.Printf("Background color: RGB(%d,%d,%d)\n", bg.R, bg.G, bg.B)
	fmt.Println(strings.Repeat("-", 50))

	walker := converter.NewWalker(log)
	result, err := walker.Run(req, newConsoleSink())

	fmt.Println(strings.Repeat("-", 50))
	fmt.Printf("Converted %d files. %d files skipped.\n", result.Converted, result.Skipped)

	if err != nil {
		return err
	}
	if result.Converted == 0 && result.Skipped > 0 {
		return ErrNothingConverted
	}
	return nil
}
