package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"spider-indexer-scraper/internal/config"
	"spider-indexer-scraper/internal/logger"
)

// app carries the state shared by every subcommand
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	// flags
	logLevel string
	region   string
	profile  string
	dev      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "spider [event-json]",
		Short: "Crawl the configured start pages and index them into DynamoDB",
		Long: `Crawl a fixed list of start pages, extract title, headings and paragraph
text from each, store one item per page in DynamoDB and print every record
as a JSON line. The optional argument is a JSON object overriding the
defaults, for example:

  spider '{"start_urls": ["https://en.wikipedia.org/wiki/Poland"], "dry_run": true}'`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: a.runCrawl,
	}

	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")
	root.PersistentFlags().StringVar(&a.region, "region", "", "AWS region; overrides AWS_REGION")
	root.PersistentFlags().StringVar(&a.profile, "profile", "", "shared AWS config profile")
	root.PersistentFlags().BoolVar(&a.dev, "dev", false, "human readable console logs")

	root.AddCommand(
		a.newExtractCmd(),
		a.newTableCmd(),
		a.newCheckCmd(),
		a.newInvokeCmd(),
		a.newEnqueueCmd(),
	)

	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	a.cfg = config.Load()

	if a.logLevel != "" {
		a.cfg.LogLevel = a.logLevel
	}
	if a.region != "" {
		a.cfg.AWSRegion = a.region
	}
	if a.profile != "" {
		a.cfg.AWSProfile = a.profile
	}
	if a.dev {
		a.cfg.LogDev = true
	}

	l, err := logger.New(a.cfg.LogLevel, a.cfg.LogDev)
	if err != nil {
		return err
	}
	a.logger = l

	return nil
}

func (a *app) awsConfig(ctx context.Context) (aws.Config, error) {
	return config.LoadAWSConfig(ctx, a.cfg.AWSRegion, a.cfg.AWSProfile)
}

// eventArg returns the optional JSON event argument
func eventArg(args []string) []byte {
	if len(args) == 0 {
		return nil
	}
	return []byte(args[0])
}

// signalContext returns a context cancelled on interrupt or termination
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
