package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/loykin/oratr/internal/config"
	"github.com/spf13/cobra"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		code := 1
		var ec *exitCodeError
		if errors.As(err, &ec) {
			code = ec.code
		}
		os.Exit(code)
	}
}

// GlobalFlags holds persistent flags shared by all subcommands.
type GlobalFlags struct {
	ConfigPath string
	Verbose    bool
}

// command carries the loaded configuration and logger into the
// subcommand handlers.
type command struct {
	flags  *GlobalFlags
	cfg    *config.Config
	logger *slog.Logger
}

// setup loads configuration once per invocation. Subcommand handlers
// can rely on cfg and logger being non-nil.
func (c *command) setup() error {
	if c.cfg != nil {
		return nil
	}
	cfg, err := config.Load(c.flags.ConfigPath)
	if err != nil {
		return err
	}
	if c.flags.Verbose {
		cfg.Log.Level = "debug"
	}
	c.cfg = cfg
	c.logger = cfg.Log.New(os.Stderr)
	slog.SetDefault(c.logger)
	return nil
}

// exitCodeError carries a specific process exit code through cobra.
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string { return e.err.Error() }
func (e *exitCodeError) Unwrap() error { return e.err }

// usagef reports a misuse of the CLI, which exits 2 instead of 1.
func usagef(format string, args ...any) error {
	return &exitCodeError{code: 2, err: fmt.Errorf(format, args...)}
}

// buildRoot creates the root command and attaches all subcommands.
func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	c := &command{flags: globalFlags}

	root := createRootCommand(globalFlags)
	root.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		return c.setup()
	}

	root.AddCommand(
		createDaemonCommand(c),
		createSayCommand(c, &SayFlags{}),
		createTranscribeCommand(c, &TranscribeFlags{}),
		createRecordCommand(c, &RecordFlags{}),
		createModelCommand(c),
		createHistoryCommand(c, &HistoryFlags{}),
		createConfigCommand(c, &ConfigInitFlags{}),
	)

	return root
}

// createRootCommand creates the root command with minimal persistent flags
func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "oratr",
		Short: "Local speech toolbox",
		Long: `Oratr wraps local speech tooling: text-to-speech with a warm daemon,
speech-to-text, microphone recording, and model runtime housekeeping.

Examples:
  oratr say "hello there"
  oratr transcribe meeting.wav
  oratr record --max-duration 30s
  oratr daemon start              # keep the synthesis engine warm
  oratr model pull llama3`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (default ~/.oratr/config.toml)")
	root.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "debug logging")

	return root
}

// createDaemonCommand groups the daemon lifecycle subcommands.
func createDaemonCommand(c *command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Manage the synthesis daemon",
		Long: `Manage the background synthesis daemon that keeps the TTS engine
loaded between requests.

Examples:
  oratr daemon start
  oratr daemon status
  oratr daemon logs --follow
  oratr daemon restart`,
	}

	logsFlags := &DaemonLogsFlags{}

	start := &cobra.Command{
		Use:   "start",
		Short: "Start the daemon and wait for it to become ready",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.DaemonStart(cmd.OutOrStdout())
		},
	}
	stop := &cobra.Command{
		Use:   "stop",
		Short: "Stop the daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.DaemonStop(cmd.OutOrStdout())
		},
	}
	status := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		Long: `Show daemon status as JSON. Exits 1 when the daemon is not
running, so scripts can branch on it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.DaemonStatus(cmd.OutOrStdout())
		},
	}
	restart := &cobra.Command{
		Use:   "restart",
		Short: "Restart the daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.DaemonRestart(cmd.OutOrStdout())
		},
	}
	run := &cobra.Command{
		Use:   "run",
		Short: "Run the daemon in the foreground",
		Long: `Run the daemon server in the foreground. This is what "daemon
start" launches in the background; running it directly is useful for
debugging engine problems.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return c.DaemonRun()
		},
	}
	logs := &cobra.Command{
		Use:   "logs",
		Short: "Show the daemon log",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.DaemonLogs(cmd.OutOrStdout(), *logsFlags)
		},
	}
	logs.Flags().IntVarP(&logsFlags.Lines, "lines", "n", 50, "number of trailing lines to show")
	logs.Flags().BoolVarP(&logsFlags.Follow, "follow", "f", false, "keep printing as the log grows")

	cmd.AddCommand(start, stop, status, restart, run, logs)
	return cmd
}

// createSayCommand creates the say subcommand.
func createSayCommand(c *command, flags *SayFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "say TEXT...",
		Short: "Speak text aloud",
		Long: `Synthesize text to speech. Uses the running daemon when one is up
(the model stays loaded between calls), otherwise runs the engine
directly. Without --out the audio plays through the first available
player.

Examples:
  oratr say "hello there"
  oratr say --voice bf_emma "good morning"
  oratr say --out hello.wav "hello there"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Say(cmd.OutOrStdout(), *flags, args)
		},
	}

	cmd.Flags().StringVar(&flags.Voice, "voice", "", "voice id (default from config)")
	cmd.Flags().Float64Var(&flags.Speed, "speed", 0, "speed multiplier (default from config)")
	cmd.Flags().StringVar(&flags.Lang, "lang", "", "language code (default derived from voice)")
	cmd.Flags().StringVar(&flags.Out, "out", "", "write WAV to file instead of playing")
	cmd.Flags().StringVar(&flags.Player, "player", "", "playback command override")
	cmd.Flags().BoolVar(&flags.NoDaemon, "no-daemon", false, "skip the daemon and run the engine directly")

	return cmd
}

// createTranscribeCommand creates the transcribe subcommand.
func createTranscribeCommand(c *command, flags *TranscribeFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcribe FILE...",
		Short: "Transcribe audio files to text",
		Long: `Transcribe audio files with the configured speech-to-text engine.
The transcript goes to stdout, one segment per line; a one-line
summary goes to stderr.

Examples:
  oratr transcribe meeting.wav
  oratr transcribe --language ja interview.wav`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Transcribe(cmd.OutOrStdout(), *flags, args)
		},
	}

	cmd.Flags().StringVar(&flags.Model, "model", "", "model name (default from config)")
	cmd.Flags().StringVar(&flags.Language, "language", "", "language hint, e.g. en or ja")

	return cmd
}

// createRecordCommand creates the record subcommand.
func createRecordCommand(c *command, flags *RecordFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record from the microphone",
		Long: `Record microphone audio to a 16-bit WAV file. Recording runs until
Ctrl-C or --max-duration. The output path is printed on stdout so it
can feed straight into transcribe.

Examples:
  oratr record
  oratr record --out note.wav --max-duration 30s
  oratr record devices`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.Record(cmd.OutOrStdout(), *flags)
		},
	}

	cmd.Flags().StringVar(&flags.Out, "out", "", "output WAV path (default recording-<timestamp>.wav)")
	cmd.Flags().DurationVar(&flags.MaxDuration, "max-duration", 0, "stop automatically after this long")
	cmd.Flags().StringVar(&flags.Device, "device", "", "capture device for the platform backend")
	cmd.Flags().StringVar(&flags.Backend, "backend", "", "ffmpeg capture backend override (avfoundation, pulse, alsa, dshow)")

	devices := &cobra.Command{
		Use:   "devices",
		Short: "List capture devices",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.RecordDevices(cmd.OutOrStdout(), *flags)
		},
	}
	devices.Flags().StringVar(&flags.Backend, "backend", "", "ffmpeg capture backend override")

	cmd.AddCommand(devices)
	return cmd
}

// createModelCommand groups the model runtime subcommands.
func createModelCommand(c *command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Manage models in the local runtime",
		Long: `Manage models in the local Ollama-compatible runtime.

Examples:
  oratr model pull llama3
  oratr model list
  oratr model rm old-model:7b
  oratr model prune --dry-run
  oratr model check llama3`,
	}

	pruneFlags := &ModelPruneFlags{}

	pull := &cobra.Command{
		Use:   "pull NAME",
		Short: "Download a model",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usagef("model name is required")
			}
			return c.ModelPull(cmd.OutOrStdout(), args[0])
		},
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List installed models",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.ModelList(cmd.OutOrStdout())
		},
	}
	rm := &cobra.Command{
		Use:   "rm NAME",
		Short: "Remove an installed model",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usagef("model name is required")
			}
			return c.ModelRemove(cmd.OutOrStdout(), args[0])
		},
	}
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Remove models not on the keep list",
		Long: `Remove every installed model not on the configured keep list
([models].keep in the config file).

Examples:
  oratr model prune --dry-run
  oratr model prune --keep llama3 --keep whisper-helper`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.ModelPrune(cmd.OutOrStdout(), *pruneFlags)
		},
	}
	prune.Flags().BoolVar(&pruneFlags.DryRun, "dry-run", false, "only print what would be removed")
	prune.Flags().StringArrayVar(&pruneFlags.Keep, "keep", nil, "extra models to keep (repeatable)")

	check := &cobra.Command{
		Use:   "check NAME",
		Short: "Smoke-test a model with a tiny prompt",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usagef("model name is required")
			}
			return c.ModelCheck(cmd.OutOrStdout(), args[0])
		},
	}

	cmd.AddCommand(pull, list, rm, prune, check)
	return cmd
}

// createConfigCommand groups the configuration helpers.
func createConfigCommand(c *command, initFlags *ConfigInitFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented starter config file",
		Long: `Write a commented starter config file documenting every section
with its default value.

Examples:
  oratr config init
  oratr config init --out ./oratr.toml --force`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.ConfigInit(cmd.OutOrStdout(), *initFlags)
		},
	}
	initCmd.Flags().StringVar(&initFlags.Out, "out", "", "output path (default ~/.oratr/config.toml)")
	initCmd.Flags().BoolVar(&initFlags.Force, "force", false, "overwrite an existing file")

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the config file path in effect",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.ConfigPath(cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(initCmd, pathCmd)
	return cmd
}

// createHistoryCommand creates the history subcommand.
func createHistoryCommand(c *command, flags *HistoryFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent operations",
		Long: `List recent recorded operations from the history sink. Requires
[history] enabled in the config.

Examples:
  oratr history
  oratr history --limit 10 --kind say,transcribe`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.History(cmd.OutOrStdout(), *flags)
		},
	}

	cmd.Flags().IntVar(&flags.Limit, "limit", 20, "maximum events to show")
	cmd.Flags().StringVar(&flags.Kind, "kind", "", "comma-separated event kinds to include")

	return cmd
}
