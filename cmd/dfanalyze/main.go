package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/societymartingale/dockerfile-analyzer/internal/config"
	"github.com/societymartingale/dockerfile-analyzer/pkg/analyzer"
	"github.com/societymartingale/dockerfile-analyzer/pkg/dockerfile"
)

var (
	// Version information (set by build)
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"

	// Global flags
	cfgFile       string
	verbose       bool
	outputFormat  string
	failOn        string
	disabledRules []string

	log = logrus.New()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "dfanalyze [flags] DOCKERFILE",
	Short: "Static analysis for Dockerfiles",
	Long: `Dfanalyze parses a Dockerfile, builds its multi-stage graph and runs a
set of lint rules against it. Findings are reported in a deterministic
order with line numbers, severities and suggestions.

The engine never touches the build context or a Docker daemon; analysis
is purely textual.`,
	Version:      version,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runAnalyze,
}

// versionCmd prints detailed version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("dfanalyze version: %s\n", version)
		fmt.Printf("Git commit: %s\n", commit)
		fmt.Printf("Build time: %s\n", buildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.dfanalyze.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "output format (text, json, yaml)")
	rootCmd.Flags().StringVar(&failOn, "fail-on", "", "lowest severity that causes a non-zero exit (info, warning, error, never)")
	rootCmd.Flags().StringSliceVar(&disabledRules, "disable-rule", nil, "rule ids to skip (repeatable)")

	rootCmd.AddCommand(versionCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path := args[0]

	cfg, err := loadConfiguration(cmd)
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	log.WithFields(logrus.Fields{
		"path":   path,
		"format": cfg.OutputFormat,
	}).Debug("starting analysis")

	text, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", path)
	}

	// Handle interrupt signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nAnalysis interrupted")
		cancel()
	}()

	a := analyzer.New(
		analyzer.WithDisabledRules(cfg.DisabledRules),
		analyzer.WithConcurrency(cfg.Concurrency),
	)
	res, err := a.Analyze(ctx, string(text))
	if err != nil {
		var serr *dockerfile.SyntaxError
		if errors.As(err, &serr) {
			return fmt.Errorf("%s:%d: %s", path, serr.Line, serr.Message)
		}
		return err
	}

	log.WithField("findings", len(res.Findings)).Debug("analysis complete")

	if err := render(cfg.OutputFormat, path, res); err != nil {
		return err
	}
	return checkFailOn(cfg.FailOn, res)
}

// loadConfiguration loads the config file and applies flag overrides.
func loadConfiguration(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("format") {
		cfg.OutputFormat = outputFormat
	}
	if cmd.Flags().Changed("fail-on") {
		cfg.FailOn = failOn
	}
	if cmd.Flags().Changed("disable-rule") {
		cfg.DisabledRules = append(cfg.DisabledRules, disabledRules...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func render(format, path string, res *analyzer.Result) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	case "yaml":
		// Round-trip through JSON so both structured formats use the same
		// field names and enum spellings.
		data, err := json.Marshal(res)
		if err != nil {
			return err
		}
		var tree interface{}
		if err := json.Unmarshal(data, &tree); err != nil {
			return err
		}
		out, err := yaml.Marshal(tree)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	default:
		return analyzer.WriteText(os.Stdout, path, res)
	}
}

// checkFailOn turns findings at or above the configured severity into a
// non-zero exit.
func checkFailOn(threshold string, res *analyzer.Result) error {
	if threshold == "never" {
		return nil
	}
	rank := map[string]int{"info": 1, "warning": 2, "error": 3}
	min, ok := rank[threshold]
	if !ok {
		return nil
	}

	count := 0
	for _, f := range res.Findings {
		if rank[string(f.Severity)] >= min {
			count++
		}
	}
	if count > 0 {
		return fmt.Errorf("%d finding(s) at or above %s severity", count, threshold)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
