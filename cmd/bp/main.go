package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"bp-cli/internal/api"
	"bp-cli/internal/config"
	"bp-cli/internal/render"
	"bp-cli/internal/session"
	"bp-cli/internal/stream"
	"bp-cli/internal/version"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// TurnResult captures a run's output for JSON mode.
type TurnResult struct {
	RunID      string                `json:"run_id"`
	SessionID  string                `json:"session_id"`
	StartedAt  time.Time             `json:"timestamp_start"`
	FinishedAt time.Time             `json:"timestamp_end"`
	Status     string                `json:"status"`
	Messages   []session.ChatMessage `json:"messages"`
	State      session.State         `json:"state"`
	Debug      []session.DebugEvent  `json:"debug_events"`
	Error      string                `json:"error,omitempty"`
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "bp [message]",
		Short:         "bp - terminal client for AI-assisted blueprint design sessions",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			cfg, err := config.Load(cmd)
			if err != nil {
				return err
			}
			interactive, _ := cmd.Flags().GetBool("interactive")
			watch, _ := cmd.Flags().GetBool("watch")
			message := strings.TrimSpace(strings.Join(args, " "))
			if message == "" && !interactive && !watch {
				return errors.New("a message is required unless --interactive or --watch is set")
			}

			logger := buildLogger(cfg.Verbose)
			defer func() { _ = logger.Sync() }()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			mockMode := os.Getenv("BP_MOCK_STREAM") == "1"
			sessionID := "local-mock"
			resumed := false
			var restClient *api.Client
			if !mockMode {
				if cfg.Project == "" {
					return errors.New("a project id is required (--project or BP_PROJECT)")
				}
				restClient = api.NewClient(cfg.BaseURL, cfg.APITimeout, logger)
				handle, err := restClient.OpenSession(ctx, cfg.Project)
				if err != nil {
					return fmt.Errorf("open session: %w", err)
				}
				sessionID = handle.SessionID
				resumed = !handle.IsNew
				logger.Debug("session opened",
					zap.String("session_id", handle.SessionID),
					zap.Bool("is_new", handle.IsNew))
			}

			writer := io.Writer(os.Stdout)
			var logFile *os.File
			if cfg.LogFile != "" {
				logPath := cfg.LogFile
				if !filepath.IsAbs(logPath) {
					logPath, _ = filepath.Abs(logPath)
				}
				file, err := os.Create(logPath)
				if err != nil {
					return err
				}
				logFile = file
				defer logFile.Close()
				writer = io.MultiWriter(os.Stdout, logFile)
			}

			var renderer render.Renderer
			if !cfg.JSON {
				renderer = render.NewStdoutRenderer(writer, cfg.Verbose, cfg.Quiet)
				defer renderer.Close()
			}

			var source stream.Source
			streamClient := stream.NewClient(cfg.BaseURL, logger)
			if mockMode {
				source = stream.NewMockSource()
			} else {
				source = streamClient
			}

			reducer := session.NewReducer(sessionID, source, renderer, logger)
			if restClient != nil && resumed && !cfg.NoResume {
				snap, err := restClient.GetSession(ctx, sessionID)
				if err != nil {
					if !errors.Is(err, api.ErrNotFound) {
						logger.Warn("failed to fetch session for rehydration", zap.Error(err))
					}
				} else if len(snap.Messages) > 0 {
					reducer.Rehydrate(snap)
				}
			}

			if watch {
				if mockMode {
					return errors.New("--watch is unavailable in mock mode")
				}
				return runWatch(ctx, streamClient, reducer, renderer, sessionID)
			}

			runID := uuid.NewString()
			started := time.Now()
			var runErr error
			if message != "" {
				runErr = sendTurn(ctx, reducer, cfg.Timeout, message)
			}
			if interactive && runErr == nil {
				runErr = runInteractive(ctx, reducer, cfg.Timeout, writer)
			}

			if cfg.JSON {
				result := TurnResult{
					RunID:      runID,
					SessionID:  sessionID,
					StartedAt:  started,
					FinishedAt: time.Now(),
					Status:     "success",
					Messages:   reducer.Messages(),
					State:      reducer.State(),
					Debug:      reducer.Debug(),
				}
				if runErr != nil {
					result.Status = "failure"
					result.Error = runErr.Error()
				}
				payload, _ := json.MarshalIndent(result, "", "  ")
				fmt.Fprintln(os.Stdout, string(payload))
			} else if cfg.ShowDebug {
				printDebugTrace(writer, reducer.Debug())
			}
			return runErr
		},
	}

	cmd.Flags().String("base-url", config.DefaultBaseURL, "Backend base URL")
	cmd.Flags().String("project", "", "Project id to open a session for")
	cmd.Flags().String("timeout", config.DefaultTimeout.String(), "Per-turn timeout (e.g. 120s)")
	cmd.Flags().BoolP("interactive", "i", false, "Read further messages from stdin")
	cmd.Flags().Bool("watch", false, "Follow the session event feed instead of sending")
	cmd.Flags().Bool("quiet", false, "Only print assistant output")
	cmd.Flags().Bool("json", false, "Output the full turn result as JSON")
	cmd.Flags().Bool("verbose", false, "Enable verbose logging and tool summaries")
	cmd.Flags().Bool("show-debug", false, "Print the debug trace after the turn")
	cmd.Flags().Bool("no-resume", false, "Skip rehydrating a resumed session")
	cmd.Flags().String("log-file", "", "Write plain-text output to a file")

	return cmd
}

func sendTurn(ctx context.Context, reducer *session.Reducer, timeout time.Duration, message string) error {
	turnCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return reducer.Send(turnCtx, message)
}

func runInteractive(ctx context.Context, reducer *session.Reducer, timeout time.Duration, w io.Writer) error {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(w, "you: ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}
		// A reply acts on whatever widget is outstanding.
		reducer.ClearPending()
		if err := sendTurn(ctx, reducer, timeout, line); err != nil {
			fmt.Fprintf(w, "\nError: %s\n", err)
			reducer.ClearError()
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func runWatch(ctx context.Context, client *stream.Client, reducer *session.Reducer, renderer render.Renderer, sessionID string) error {
	for ev, err := range client.Watch(ctx, sessionID) {
		if err != nil {
			return err
		}
		reducer.Apply(ev)
		if renderer != nil {
			renderer.Emit(ev)
		}
	}
	return nil
}

func printDebugTrace(w io.Writer, events []session.DebugEvent) {
	if len(events) == 0 {
		return
	}
	fmt.Fprintln(w, "\nDebug trace:")
	for _, ev := range events {
		fmt.Fprintf(w, "%3d %-16s %s\n", ev.ID, ev.Kind, ev.Title)
	}
}

func buildLogger(verbose bool) *zap.Logger {
	if verbose {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	logger, _ := zap.NewProduction()
	return logger
}
