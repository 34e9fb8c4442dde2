package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/stake-plus/raiinmaker-verify/src/actions"
	"github.com/stake-plus/raiinmaker-verify/src/actions/verify"
	_ "github.com/stake-plus/raiinmaker-verify/src/ai/providers"
	"github.com/stake-plus/raiinmaker-verify/src/logging"
	"go.uber.org/zap"
)

var (
	// Global flags
	verbose      bool
	settingsFile string
	room         string
	jsonOutput   bool
	timeout      time.Duration

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "raiinmaker-verify",
	Short: "Submit agent content for Raiinmaker verification and track the outcome",
	Long: `raiinmaker-verify screens content with an optional AI pre-check and sends
anything that is not auto-approved to Raiinmaker for human verification.

Run "serve" to expose the HTTP API and Discord commands, or use the
one-shot subcommands from a shell.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and Discord bot until interrupted",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&settingsFile, "settings", "", "YAML settings file")
	rootCmd.PersistentFlags().StringVar(&room, "room", "cli", "room the submissions are remembered under")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "deadline for one-shot commands")

	rootCmd.AddCommand(serveCmd, verifyCmd, statusCmd, tasksCmd, validateCmd, campaignCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := actions.NewRuntime(ctx, actions.Options{SettingsFile: settingsFile, Logger: logger})
	if err != nil {
		return err
	}
	defer rt.Close()

	manager, err := actions.StartAll(ctx, rt)
	if err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("shutting down")
	manager.Stop(context.Background())
	return nil
}

// withRuntime runs fn against a fresh runtime under the command deadline.
func withRuntime(cmd *cobra.Command, fn func(ctx context.Context, o *verify.Orchestrator) (*verify.Result, error)) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	rt, err := actions.NewRuntime(ctx, actions.Options{SettingsFile: settingsFile, Logger: logger})
	if err != nil {
		return err
	}
	defer rt.Close()

	res, err := fn(ctx, rt.Orchestrator)
	if res != nil {
		if perr := printResult(cmd, res); perr != nil {
			return perr
		}
	}
	return err
}

func printResult(cmd *cobra.Command, res *verify.Result) error {
	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	_, err := fmt.Fprintln(out, res.Text)
	return err
}
