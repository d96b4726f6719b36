package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sqreport/go/internal/config"
	"github.com/sqreport/go/internal/logger"
	"github.com/sqreport/go/internal/report"
	"github.com/sqreport/go/internal/sonar"
	"github.com/sqreport/go/internal/ui"
)

// runReport is the root command: one report run from four positional arguments
func (a *app) runReport(cmd *cobra.Command, args []string) error {
	if len(args) != 4 {
		fmt.Fprint(cmd.OutOrStdout(), usage)
		return nil
	}

	if err := config.LoadEnvFile(a.envFile); err != nil {
		return err
	}
	a.flags.Changed = cmd.Flags().Changed
	cfg, err := config.Load(args, a.flags)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if cfg.Mode == config.ModeUnknown {
		log.Debug("unknown mode, nothing to report", zap.String("mode", cfg.RawMode))
		return nil
	}

	token, err := a.resolveToken(cmd, cfg, log)
	if err != nil {
		return err
	}

	client, err := sonar.NewClient(cfg.BaseURL, token,
		sonar.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		sonar.WithLogger(log),
	)
	if err != nil {
		return err
	}

	console := ui.NewConsole(cmd.ErrOrStderr())
	log.Debug("starting report",
		zap.String("mode", string(cfg.Mode)),
		zap.String("server", client.BaseURL()),
		zap.String("output", cfg.OutputFile),
	)

	switch cfg.Mode {
	case config.ModeUsers:
		return runUsers(cmd.Context(), cfg, client, log, console)
	default:
		return runSecrets(cmd.Context(), cfg, client, log, console)
	}
}

func runUsers(ctx context.Context, cfg *config.Config, src report.UsersSource, log *zap.Logger, console *ui.Console) error {
	users, buildErr := report.NewUsersReport(src, report.UsersConfig{
		LoginDays: cfg.LoginDays,
		ToolDays:  cfg.ToolDays,
		Policy:    cfg.Policy,
	}, log).Build(ctx)

	rows := report.UserRows(users)
	return finish(cfg, report.UsersHeader, rows, buildErr, log, console)
}

func runSecrets(ctx context.Context, cfg *config.Config, src report.SecretsSource, log *zap.Logger, console *ui.Console) error {
	var progress report.Progress = report.LogProgress{Log: log}
	if !cfg.Quiet && cfg.LogFormat != "json" {
		progress = report.MultiProgress{console, report.LogProgress{Log: log, Level: zap.DebugLevel}}
	}

	findings, buildErr := report.NewSecretsReport(src, report.SecretsConfig{
		Policy:   cfg.Policy,
		Progress: progress,
	}, log).Build(ctx)

	rows := report.FindingRows(findings, cfg.IncludeAssignee)
	return finish(cfg, report.SecretsHeader(cfg.IncludeAssignee), rows, buildErr, log, console)
}

// finish writes whatever was gathered, including a partial result after an
// aborted build, and reports the build error last
func finish(cfg *config.Config, header []string, rows [][]string, buildErr error, log *zap.Logger, console *ui.Console) error {
	if err := report.WriteFile(cfg.OutputFile, header, rows); err != nil {
		log.Error("cannot write report", zap.String("path", cfg.OutputFile), zap.Error(err))
		return err
	}

	if buildErr != nil {
		if !cfg.Quiet {
			console.Warn(fmt.Sprintf("report aborted, %d rows written to %s are incomplete", len(rows), cfg.OutputFile))
		}
		return buildErr
	}

	log.Info("report written", zap.String("path", cfg.OutputFile), zap.Int("rows", len(rows)))
	if !cfg.Quiet {
		console.Wrote(cfg.OutputFile, len(rows))
	}
	return nil
}

// resolveToken returns the token argument, or looks it up when the argument is "-":
// environment first, then keyring, then an interactive prompt.
func (a *app) resolveToken(cmd *cobra.Command, cfg *config.Config, log *zap.Logger) (string, error) {
	if cfg.Token != config.TokenFromPrompt {
		return cfg.Token, nil
	}

	if token := config.TokenFromEnv(); token != "" {
		log.Debug("using token from environment", zap.String("variable", config.EnvToken))
		return token, nil
	}

	token, err := a.keyring.GetToken(cfg.BaseURL)
	if err == nil {
		log.Debug("using token from keyring", zap.String("server", cfg.BaseURL))
		return token, nil
	}
	log.Debug("no token in keyring", zap.Error(err))

	if !a.isTerminal() {
		return "", ErrNoToken
	}
	token, err = a.prompt(cmd, fmt.Sprintf("Token for %s: ", cfg.BaseURL))
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}
