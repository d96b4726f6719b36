package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sqreport/go/internal/config"
	"github.com/sqreport/go/internal/keyring"
	"github.com/sqreport/go/internal/report"
)

// ErrNoToken indicates no token could be found for the server
var ErrNoToken = errors.New("no token available: pass it as first argument, set SQREPORT_TOKEN or run 'sqreport keyring set <baseURL>'")

const usage = `Usage: sqreport <token> <baseURL> <outputFile> <mode>
where:
	<token>      is your SonarQube token ("-" reads SQREPORT_TOKEN, the keyring, or prompts),
	<baseURL>    is your SonarQube URL (for example https://sonar.example.com),
	<outputFile> is the name of the file to save results,
	<mode>       is either "users" or "secrets"

Run 'sqreport --help' for flags and subcommands.
`

// app holds what the commands share
type app struct {
	flags     config.Flags
	envFile   string
	noKeyring bool

	keyring *keyring.Manager

	// isTerminal and prompt are replaced in tests
	isTerminal func() bool
	prompt     func(cmd *cobra.Command, label string) (string, error)
}

func newApp() *app {
	return &app{
		keyring:    keyring.NewManager(),
		isTerminal: func() bool { return term.IsTerminal(int(os.Stdin.Fd())) },
		prompt:     promptHidden,
	}
}

// NewRootCmd builds the sqreport command tree
func NewRootCmd() *cobra.Command {
	return newRootCmd(newApp())
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sqreport <token> <baseURL> <outputFile> <mode>",
		Short: "Report SonarLint adoption and secrets findings from a SonarQube server",
		Long: `sqreport queries the SonarQube web API and writes a CSV report.

Modes:
  users    users who logged into SonarQube within --login-days but have not
           connected SonarLint in connected mode for more than --tool-days
  secrets  every finding of every branch of every project raised by a
           secrets detection rule

The secrets report walks every branch of every project and can take a long
time on large servers; progress is printed to stderr.

Examples:
  sqreport squ_abc https://sonar.example.com users.csv users
  sqreport squ_abc https://sonar.example.com secrets.csv secrets --on-http-error skip
  sqreport - https://sonar.example.com users.csv users   # token from env, keyring or prompt`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if a.noKeyring {
				a.keyring.Disable()
			}
		},
		RunE: a.runReport,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&a.flags.LoginDays, "login-days", report.DefaultLoginDays, "Report users who logged into SonarQube fewer than this many days ago")
	flags.IntVar(&a.flags.ToolDays, "tool-days", report.DefaultToolDays, "Report users whose last SonarLint connection is more than this many days ago")
	flags.StringVar(&a.flags.OnHTTPError, "on-http-error", report.Abort.String(), "On a non-200 response: abort or skip")
	flags.StringVar(&a.flags.OnNetworkError, "on-network-error", report.Skip.String(), "On a network failure: abort or skip")
	flags.StringVar(&a.flags.OnDecodeError, "on-decode-error", report.Skip.String(), "On a malformed payload or timestamp: abort or skip")
	flags.BoolVar(&a.flags.IncludeAssignee, "include-assignee", false, "Add an assignee column to the secrets report")
	flags.DurationVar(&a.flags.Timeout, "timeout", 0, "HTTP timeout per request (0 means none)")
	flags.BoolVarP(&a.flags.Quiet, "quiet", "q", false, "Do not print progress to the terminal")

	persistent := cmd.PersistentFlags()
	persistent.StringVar(&a.envFile, "env-file", ".env", "Dotenv file to load if present")
	persistent.StringVar(&a.flags.LogLevel, "log-level", "info", "Log level: debug, info, warn or error")
	persistent.StringVar(&a.flags.LogFormat, "log-format", "console", "Log format: console or json")
	persistent.BoolVar(&a.noKeyring, "no-keyring", false, "Never read or write the system keyring")

	cmd.AddGroup(&cobra.Group{ID: "management", Title: "Management Commands:"})
	keyringCmd := newKeyringCmd(a)
	keyringCmd.GroupID = "management"
	versionCmd := newVersionCmd()
	versionCmd.GroupID = "management"
	cmd.AddCommand(keyringCmd, versionCmd)

	return cmd
}

// SetVersion sets the version information for the CLI
func SetVersion(version, commit, date string) {
	versionInfo.version = version
	versionInfo.commit = commit
	versionInfo.date = date
}

// Execute runs the root command and exits 1 on failure
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// promptHidden asks for a secret without echo on a terminal, or reads one
// line from the command input otherwise
func promptHidden(cmd *cobra.Command, label string) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), label)
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(secret)), nil
	}
	return readLine(cmd.InOrStdin())
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
