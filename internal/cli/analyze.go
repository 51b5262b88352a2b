package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/project-census/internal/analyzer"
	"github.com/mvp-joe/project-census/internal/config"
	"github.com/mvp-joe/project-census/internal/manifest"
	"github.com/mvp-joe/project-census/internal/report"
	"github.com/mvp-joe/project-census/internal/watcher"
)

var (
	quietFlag   bool
	watchFlag   bool
	printFlag   bool
	textOutFlag string
	jsonOutFlag string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Analyze a project and write its structural reports",
	Long: `Analyze walks the project tree, extracts the structural elements of every
Python, TypeScript and JavaScript file, and writes two reports:

  PROJECT_ANALYSIS.md    hierarchical text report
  PROJECT_ANALYSIS.json  structured summary

Files that cannot be parsed are reported as warnings and skipped.

Examples:
  # Analyze the current directory
  census analyze

  # Analyze another project and print the text report
  census analyze ../climatemaps --print

  # Re-analyze whenever a source file changes
  census analyze --watch

  # Write the reports somewhere else
  census analyze --text-out docs/ANALYSIS.md --json-out docs/analysis.json
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Disable progress bars and non-error output")
	analyzeCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch for file changes and re-analyze")
	analyzeCmd.Flags().BoolVarP(&printFlag, "print", "p", false, "Print the text report to stdout")
	analyzeCmd.Flags().StringVar(&textOutFlag, "text-out", "", "Text report path (overrides output.text)")
	analyzeCmd.Flags().StringVar(&jsonOutFlag, "json-out", "", "JSON report path (overrides output.json)")
}

// analyzeOptions carries the flags of one analyze invocation.
type analyzeOptions struct {
	rootDir    string
	configFile string
	quiet      bool
	watch      bool
	print      bool
	textOut    string
	jsonOut    string
	verbose    bool
	stdout     io.Writer
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	// Set up context with cancellation for Ctrl+C
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			fmt.Println("\nInterrupted! Cancelling analysis...")
			cancel()
		case <-ctx.Done():
		}
	}()

	rootDir := "."
	if len(args) > 0 {
		rootDir = args[0]
	}

	return executeAnalyze(ctx, analyzeOptions{
		rootDir:    rootDir,
		configFile: cfgFile,
		quiet:      quietFlag,
		watch:      watchFlag,
		print:      printFlag,
		textOut:    textOutFlag,
		jsonOut:    jsonOutFlag,
		verbose:    verbose,
		stdout:     cmd.OutOrStdout(),
	})
}

// executeAnalyze runs one analysis, and keeps re-running it on change when
// watch is set, until ctx is cancelled.
func executeAnalyze(ctx context.Context, opts analyzeOptions) error {
	if opts.stdout == nil {
		opts.stdout = os.Stdout
	}

	rootDir, err := filepath.Abs(opts.rootDir)
	if err != nil {
		return fmt.Errorf("failed to resolve project root: %w", err)
	}
	info, err := os.Stat(rootDir)
	if err != nil {
		return fmt.Errorf("failed to access project root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("project root %s is not a directory", rootDir)
	}

	var loaderOpts []config.LoaderOption
	if opts.configFile != "" {
		loaderOpts = append(loaderOpts, config.WithConfigFile(opts.configFile))
	}
	cfg, err := config.NewLoader(rootDir, loaderOpts...).Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.textOut != "" {
		cfg.Output.Text = opts.textOut
	}
	if opts.jsonOut != "" {
		cfg.Output.JSON = opts.jsonOut
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid output flags: %w", err)
	}

	p, err := newPipeline(rootDir, cfg, opts)
	if err != nil {
		return err
	}
	defer p.analyzer.Close()

	if !opts.quiet {
		fmt.Fprintln(opts.stdout, "🚀 Starting Project Analysis...")
		fmt.Fprintln(opts.stdout)
		if opts.verbose {
			p.describe()
		}
	}

	if err := p.run(ctx); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("analysis cancelled")
		}
		return err
	}

	if !opts.watch {
		return nil
	}

	fw, err := watcher.NewFileWatcher(rootDir, watcher.Options{
		Extensions:  []string{".py", ".ts", ".js"},
		ExcludeDirs: cfg.Paths.ExcludeDirs,
	})
	if err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}

	if !opts.quiet {
		log.Println("Starting watch mode...")
	}

	coordinator := watcher.NewWatchCoordinator(fw, func(ctx context.Context, changed []string) error {
		return p.run(ctx)
	})
	if err := coordinator.Start(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("watch mode failed: %w", err)
	}

	if !opts.quiet {
		log.Println("Watch mode stopped")
	}
	return nil
}

// pipeline is the configured analyze → render → write sequence.
type pipeline struct {
	rootDir     string
	cfg         *config.Config
	opts        analyzeOptions
	analyzer    *analyzer.Analyzer
	progress    *CLIProgressReporter
	boilerplate *report.Boilerplate
	textPath    string
	jsonPath    string
}

func newPipeline(rootDir string, cfg *config.Config, opts analyzeOptions) (*pipeline, error) {
	bp, err := report.LoadBoilerplate(cfg.BoilerplatePath(rootDir))
	if err != nil {
		return nil, fmt.Errorf("failed to load report boilerplate: %w", err)
	}

	progress := NewCLIProgressReporter(opts.quiet)
	progress.out = opts.stdout

	a, err := analyzer.NewWithProgress(cfg.ToAnalyzerConfig(rootDir), progress)
	if err != nil {
		return nil, fmt.Errorf("failed to create analyzer: %w", err)
	}

	textPath, jsonPath := cfg.OutputPaths(rootDir)
	return &pipeline{
		rootDir:     rootDir,
		cfg:         cfg,
		opts:        opts,
		analyzer:    a,
		progress:    progress,
		boilerplate: bp,
		textPath:    textPath,
		jsonPath:    jsonPath,
	}, nil
}

// run performs one complete analysis and overwrites both reports.
func (p *pipeline) run(ctx context.Context) error {
	store, stats, err := p.analyzer.Run(ctx)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	stack := manifest.ReadTechStack(p.rootDir, p.cfg.ManifestPaths())
	out := report.Generate(store, p.boilerplate, stack)
	if err := out.Save(p.textPath, p.jsonPath); err != nil {
		return fmt.Errorf("failed to write reports: %w", err)
	}

	if p.opts.print {
		fmt.Fprintln(p.opts.stdout)
		fmt.Fprintln(p.opts.stdout, out.Text)
	}

	if p.opts.quiet {
		fmt.Fprintf(p.opts.stdout, "Analysis complete: %d files in %.2fs\n", stats.FilesAnalyzed, stats.DurationSeconds)
		return nil
	}

	fmt.Fprintln(p.opts.stdout)
	fmt.Fprintln(p.opts.stdout, "✅ Analysis Complete!")
	fmt.Fprintln(p.opts.stdout)
	fmt.Fprintln(p.opts.stdout, "Reports generated:")
	fmt.Fprintf(p.opts.stdout, "  📄 Markdown: %s\n", p.relative(p.textPath))
	fmt.Fprintf(p.opts.stdout, "  📊 JSON: %s\n", p.relative(p.jsonPath))

	if skipped := p.progress.Skipped(); len(skipped) > 0 {
		fmt.Fprintln(p.opts.stdout)
		fmt.Fprintf(p.opts.stdout, "⚠️  Skipped %d file(s) that could not be analyzed:\n", len(skipped))
		for _, file := range skipped {
			if p.opts.verbose {
				fmt.Fprintf(p.opts.stdout, "  - %s: %v\n", file.Path, file.Err)
				continue
			}
			fmt.Fprintf(p.opts.stdout, "  - %s\n", file.Path)
		}
	}
	return nil
}

// describe prints the resolved settings of the pipeline.
func (p *pipeline) describe() {
	modes := make([]string, 0, 3)
	for _, mode := range p.analyzer.ExtractionModes() {
		modes = append(modes, mode.String())
	}
	fmt.Fprintf(p.opts.stdout, "Project root:  %s\n", p.rootDir)
	fmt.Fprintf(p.opts.stdout, "Extraction:    %s\n", strings.Join(modes, ", "))
	fmt.Fprintf(p.opts.stdout, "Module prefix: %q\n", p.cfg.Analysis.ModulePrefix)
	fmt.Fprintf(p.opts.stdout, "Cache size:    %d\n", p.cfg.Analysis.CacheSize)
	fmt.Fprintln(p.opts.stdout)
}

func (p *pipeline) relative(path string) string {
	if rel, err := filepath.Rel(p.rootDir, path); err == nil {
		return rel
	}
	return path
}
