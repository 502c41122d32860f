package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"spider-indexer-scraper/internal/models"
	"spider-indexer-scraper/internal/services"
)

// runCrawl runs one crawl in-process and prints each record to stdout.
// Per-page failures only show up in the logged summary.
func (a *app) runCrawl(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	awsCfg, err := a.awsConfig(ctx)
	if err != nil {
		return err
	}

	invoker := services.NewInvoker(
		dynamodb.NewFromConfig(awsCfg),
		s3.NewFromConfig(awsCfg),
		a.cfg.AWSRegion,
		a.cfg.CrawlDefaults(),
		a.logger,
	)
	invoker.SetOutput(cmd.OutOrStdout())

	run, err := invoker.Invoke(ctx, eventArg(args))
	if err != nil {
		return err
	}

	for _, f := range run.Failures {
		a.logger.Warn("Page failed",
			zap.String("run_id", run.ID),
			zap.String("url", f.URL),
			zap.String("kind", f.Kind),
			zap.String("error", f.Error),
		)
	}
	for _, w := range run.Warnings {
		a.logger.Warn("Run warning", zap.String("run_id", run.ID), zap.String("warning", w))
	}

	return nil
}

func (a *app) newExtractCmd() *cobra.Command {
	var trimOffset int

	cmd := &cobra.Command{
		Use:   "extract <file.html>",
		Short: "Extract a page record from a local HTML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()

			if !cmd.Flags().Changed("trim-offset") {
				trimOffset = a.cfg.TrimOffset
			}

			rec, err := services.NewPageExtractor(trimOffset).ExtractHTML(f)
			if err != nil {
				return err
			}

			return services.NewJSONLinesEmitter(cmd.OutOrStdout()).Emit(cmd.Context(), rec)
		},
	}

	cmd.Flags().IntVar(&trimOffset, "trim-offset", models.DefaultTrimOffset, "leading characters dropped from the paragraph text")

	return cmd
}

func (a *app) newTableCmd() *cobra.Command {
	table := &cobra.Command{
		Use:   "table",
		Short: "Manage the page table",
	}

	var wait time.Duration
	create := &cobra.Command{
		Use:   "create",
		Short: "Create the page table with Title as its hash key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			awsCfg, err := a.awsConfig(ctx)
			if err != nil {
				return err
			}

			store := services.NewPageStore(dynamodb.NewFromConfig(awsCfg), a.cfg.TableName, a.cfg.StorePageTitle)
			if err := store.CreateTable(ctx, wait); err != nil {
				return err
			}

			a.logger.Info("Table ready", zap.String("table", store.TableName()), zap.String("region", a.cfg.AWSRegion))
			printf(cmd, "table %s is active\n", store.TableName())
			return nil
		},
	}
	create.Flags().DurationVar(&wait, "wait", 5*time.Minute, "how long to wait for the table to become active")

	table.AddCommand(create)
	return table
}

func (a *app) newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the page table is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			awsCfg, err := a.awsConfig(ctx)
			if err != nil {
				return err
			}

			store := services.NewPageStore(dynamodb.NewFromConfig(awsCfg), a.cfg.TableName, a.cfg.StorePageTitle)
			n, err := store.CheckConnectivity(ctx)
			if err != nil {
				return err
			}

			printf(cmd, "table %s in %s is reachable (%d item(s) read)\n", store.TableName(), a.cfg.AWSRegion, n)
			return nil
		},
	}
}

func (a *app) newInvokeCmd() *cobra.Command {
	var (
		functionName string
		async        bool
	)

	cmd := &cobra.Command{
		Use:   "invoke [event-json]",
		Short: "Run a crawl on the deployed crawl function",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if functionName == "" {
				functionName = a.cfg.FunctionName
			}
			if functionName == "" {
				return errors.New("no function name: set SPIDER_FUNCTION_NAME or --function")
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			awsCfg, err := a.awsConfig(ctx)
			if err != nil {
				return err
			}

			remote := services.NewRemoteInvoker(lambda.NewFromConfig(awsCfg), functionName)
			run, err := remote.InvokeCrawl(ctx, eventArg(args), async)
			if err != nil {
				return err
			}

			if run == nil {
				printf(cmd, "crawl queued on %s\n", functionName)
				return nil
			}

			out, err := json.MarshalIndent(run, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal crawl run: %w", err)
			}
			printf(cmd, "%s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&functionName, "function", "", "crawl function name; overrides SPIDER_FUNCTION_NAME")
	cmd.Flags().BoolVar(&async, "async", false, "return once the invocation is accepted")

	return cmd
}

func (a *app) newEnqueueCmd() *cobra.Command {
	var queueURL string

	cmd := &cobra.Command{
		Use:   "enqueue [event-json]",
		Short: "Queue a crawl for the queue worker",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if queueURL == "" {
				queueURL = a.cfg.QueueURL
			}
			if queueURL == "" {
				return errors.New("no queue URL: set SPIDER_QUEUE_URL or --queue-url")
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			awsCfg, err := a.awsConfig(ctx)
			if err != nil {
				return err
			}

			id, err := services.NewQueueClient(sqs.NewFromConfig(awsCfg), queueURL).EnqueueCrawl(ctx, eventArg(args))
			if err != nil {
				return err
			}

			a.logger.Info("Queued crawl", zap.String("message_id", id))
			printf(cmd, "%s\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&queueURL, "queue-url", "", "queue URL; overrides SPIDER_QUEUE_URL")

	return cmd
}
