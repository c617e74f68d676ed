package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gitcloneid/crates-mcp/internal"
	"github.com/gitcloneid/crates-mcp/internal/config"
	"github.com/gitcloneid/crates-mcp/mcp"
	"github.com/gitcloneid/crates-mcp/upstream"
)

var rootCmd = &cobra.Command{
	Use:   "crates-mcp",
	Short: "An MCP server for the crates.io registry and docs.rs",
	Long: `crates-mcp is an MCP stdio server exposing read-only queries against the
public crates.io registry and the docs.rs documentation host. It processes
JSON-RPC requests from stdin and writes JSON-RPC responses to stdout, so an
LLM-driven agent can look up Rust crate metadata, versions, dependencies,
and documentation during a conversation.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		g, ctx := errgroup.WithContext(ctx)

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		if !verbose {
			logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		}

		g.Go(func() error {
			cfg, err := config.LoadFile(configPath)
			if err != nil {
				return fmt.Errorf("error loading config: %w", err)
			}

			retryClient := retryablehttp.NewClient()
			retryClient.RetryMax = retries
			retryClient.RetryWaitMin = 1 * time.Second
			retryClient.RetryWaitMax = 30 * time.Second
			retryClient.HTTPClient.Timeout = timeout
			retryClient.Logger = logger

			// crates.io requires a User-Agent identifying the client
			retryClient.HTTPClient.Transport = &internal.HeaderTransport{
				Base: retryClient.HTTPClient.Transport,
				Headers: http.Header{
					"User-Agent": []string{fmt.Sprintf("crates-mcp/%s (+https://github.com/gitcloneid/crates-mcp)", version)},
				},
			}

			if rps > 0 {
				retryClient.Backoff = func(min, max time.Duration, attemptNum int, resp *http.Response) time.Duration {
					// Ensure we wait at least 1/rps between requests
					minWait := time.Second / time.Duration(rps)
					if min < minWait {
						min = minWait
					}
					return retryablehttp.DefaultBackoff(min, max, attemptNum, resp)
				}
			}

			client := upstream.NewClient(
				upstream.WithHTTPClient(retryClient.StandardClient()),
				upstream.WithLogger(logger),
			)

			server, err := mcp.NewServer(
				mcp.WithUpstreamClient(client),
				mcp.WithConfig(cfg),
				mcp.WithLogger(logger),
				mcp.WithServerInfo("crates-mcp", version),
			)
			if err != nil {
				return fmt.Errorf("error creating server: %w", err)
			}

			transport := mcp.NewStdioTransport(server, os.Stdin, os.Stdout, os.Stderr)
			logger.Info("server starting")
			return transport.Run(ctx)
		})

		return g.Wait()
	},
}

var (
	configPath string
	verbose    bool
	retries    int
	timeout    time.Duration
	rps        int

	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging to stderr")
	rootCmd.Flags().IntVar(&retries, "retries", 0, "Maximum number of retries for failed upstream requests")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "HTTP request timeout")
	rootCmd.Flags().IntVarP(&rps, "rps", "r", 0, "Maximum requests per second (0 for no limit)")

	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built at: %s)", version, commit, date)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
