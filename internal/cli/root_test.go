package cli

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gokeyring "github.com/zalando/go-keyring"

	"github.com/sqreport/go/internal/config"
	"github.com/sqreport/go/internal/report"
)

func newTestApp(t *testing.T) *app {
	t.Helper()
	gokeyring.MockInit()

	a := newApp()
	a.isTerminal = func() bool { return false }
	a.prompt = func(*cobra.Command, string) (string, error) {
		t.Fatal("unexpected prompt")
		return "", nil
	}
	return a
}

func execute(t *testing.T, a *app, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer

	cmd := newRootCmd(a)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(append(args, "--env-file", "", "--log-level", "error"))

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

// sonarServer answers the endpoints both reports use
func sonarServer(t *testing.T, token string) *httptest.Server {
	t.Helper()
	recent := time.Now().Add(-5 * 24 * time.Hour).Format(report.TimestampLayout)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/users-management/users", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("pageSize") == "0" {
			fmt.Fprint(w, `{"page":{"total":2},"users":[]}`)
			return
		}
		fmt.Fprintf(w, `{"page":{"total":2},"users":[
			{"login":"alice","name":"Alice","sonarQubeLastConnectionDate":%q,"sonarLintLastConnectionDate":null},
			{"login":"bob","name":"Bob","sonarQubeLastConnectionDate":%q,"sonarLintLastConnectionDate":%q}
		]}`, recent, recent, recent)
	})
	mux.HandleFunc("/api/projects/search", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"paging":{"total":2},"components":[{"key":"alpha"},{"key":"beta"}]}`)
	})
	mux.HandleFunc("/api/project_branches/list", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"branches":[{"name":"main"}]}`)
	})
	mux.HandleFunc("/api/projects/export_findings", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("project") {
		case "alpha":
			fmt.Fprint(w, `{"export_findings":[
				{"ruleReference":"secrets:S6290","path":"src/aws.go","issueStatus":"OPEN","message":"AWS key","author":"dev@example.com","assignee":"alice"},
				{"ruleReference":"go:S1234","path":"src/main.go","issueStatus":"OPEN","message":"style","author":"dev@example.com"}
			]}`)
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+token, r.Header.Get("Authorization"))
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestWrongArgCountPrintsUsage(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.csv")

	for _, args := range [][]string{{}, {"tok", "https://sonar", out}, {"tok", "https://sonar", out, "users", "extra"}} {
		stdout, _, err := execute(t, newTestApp(t), args...)
		require.NoError(t, err)
		assert.Contains(t, stdout, "Usage: sqreport <token> <baseURL> <outputFile> <mode>")
		assert.NoFileExists(t, out)
	}
}

func TestUnknownModeWritesNothing(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.csv")

	stdout, _, err := execute(t, newTestApp(t), "tok", "not a url", out, "issues")
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.NoFileExists(t, out)
}

func TestUsersReport(t *testing.T) {
	srv := sonarServer(t, "squ_tok")
	out := filepath.Join(t.TempDir(), "users.csv")

	_, stderr, err := execute(t, newTestApp(t), "squ_tok", srv.URL+"/", out, "users")
	require.NoError(t, err)

	lines := readLines(t, out)
	require.Len(t, lines, 2)
	assert.Equal(t, "name,login,lastSonarQubeDate,lastSonarQubeDays,lastSonarLintDate,lastSonarLintDays", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Alice,alice,"), lines[1])
	assert.True(t, strings.HasSuffix(lines[1], ",5,Never,Never"), lines[1])
	assert.Contains(t, stderr, "wrote 1 rows to "+out)
}

func TestSecretsReportAbortWritesPartialFile(t *testing.T) {
	srv := sonarServer(t, "squ_tok")
	out := filepath.Join(t.TempDir(), "secrets.csv")

	_, stderr, err := execute(t, newTestApp(t), "squ_tok", srv.URL, out, "secrets", "--include-assignee")
	require.Error(t, err)
	assert.ErrorIs(t, err, report.ErrAborted)

	assert.Equal(t, []string{
		"projectKey,branch,fileName,rule,status,message,author,assignee",
		"alpha,main,src/aws.go,secrets:S6290,OPEN,AWS key,dev@example.com,alice",
	}, readLines(t, out))
	assert.Contains(t, stderr, "[1/2] Finding secrets for alpha")
	assert.Contains(t, stderr, "incomplete")
}

func TestSecretsReportSkipsFailedBranches(t *testing.T) {
	srv := sonarServer(t, "squ_tok")
	out := filepath.Join(t.TempDir(), "secrets.csv")

	_, stderr, err := execute(t, newTestApp(t), "squ_tok", srv.URL, out, "secrets", "--on-http-error", "skip", "--quiet")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"projectKey,branch,fileName,rule,status,message,author",
		"alpha,main,src/aws.go,secrets:S6290,OPEN,AWS key,dev@example.com",
	}, readLines(t, out))
	assert.Empty(t, stderr)
}

func TestWriteFailureIsReported(t *testing.T) {
	srv := sonarServer(t, "squ_tok")
	out := filepath.Join(t.TempDir(), "missing", "users.csv")

	_, _, err := execute(t, newTestApp(t), "squ_tok", srv.URL, out, "users")
	require.Error(t, err)
	assert.True(t, report.IsWriteError(err))
}

func TestInvalidPolicyFlag(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.csv")

	_, _, err := execute(t, newTestApp(t), "tok", "https://sonar", out, "users", "--on-http-error", "retry")
	assert.ErrorIs(t, err, config.ErrInvalidValue)
	assert.NoFileExists(t, out)
}

func TestTokenLookup(t *testing.T) {
	t.Run("environment", func(t *testing.T) {
		t.Setenv(config.EnvToken, "squ_env")
		srv := sonarServer(t, "squ_env")
		out := filepath.Join(t.TempDir(), "users.csv")

		_, _, err := execute(t, newTestApp(t), "-", srv.URL, out, "users")
		require.NoError(t, err)
		assert.FileExists(t, out)
	})

	t.Run("keyring", func(t *testing.T) {
		t.Setenv(config.EnvToken, "")
		srv := sonarServer(t, "squ_kr")
		out := filepath.Join(t.TempDir(), "users.csv")

		a := newTestApp(t)
		require.NoError(t, a.keyring.SaveToken(srv.URL, "squ_kr"))

		_, _, err := execute(t, a, "-", srv.URL, out, "users")
		require.NoError(t, err)
		assert.FileExists(t, out)
	})

	t.Run("prompt", func(t *testing.T) {
		t.Setenv(config.EnvToken, "")
		srv := sonarServer(t, "squ_typed")
		out := filepath.Join(t.TempDir(), "users.csv")

		a := newTestApp(t)
		a.isTerminal = func() bool { return true }
		a.prompt = func(*cobra.Command, string) (string, error) { return "squ_typed", nil }

		_, _, err := execute(t, a, "-", srv.URL, out, "users")
		require.NoError(t, err)
		assert.FileExists(t, out)
	})

	t.Run("nowhere", func(t *testing.T) {
		t.Setenv(config.EnvToken, "")
		out := filepath.Join(t.TempDir(), "users.csv")

		_, _, err := execute(t, newTestApp(t), "-", "https://sonar.invalid", out, "users", "--no-keyring")
		assert.ErrorIs(t, err, ErrNoToken)
		assert.NoFileExists(t, out)
	})
}

func TestKeyringCommands(t *testing.T) {
	a := newTestApp(t)
	a.prompt = func(*cobra.Command, string) (string, error) { return "squ_saved", nil }
	server := "https://sonar.example.com"

	stdout, _, err := execute(t, a, "keyring", "set", server)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Token saved to keyring successfully")

	stdout, _, err = execute(t, a, "keyring", "status", server+"/")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Has Stored Token: true")

	// overwriting asks first, and there is no terminal to answer
	_, _, err = execute(t, a, "keyring", "set", server)
	assert.ErrorIs(t, err, ErrCancelled)

	_, _, err = execute(t, a, "keyring", "set", server, "--force")
	require.NoError(t, err)

	stdout, _, err = execute(t, a, "keyring", "clear", server, "--force")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Token removed from keyring successfully")
	assert.False(t, a.keyring.HasToken(server))

	stdout, _, err = execute(t, a, "keyring", "clear", server)
	require.NoError(t, err)
	assert.Contains(t, stdout, "No token stored in keyring")
}

func TestVersionCommand(t *testing.T) {
	SetVersion("1.2.3", "abc123", "unknown")
	t.Cleanup(func() { SetVersion("dev", "unknown", "unknown") })

	stdout, _, err := execute(t, newTestApp(t), "version")
	require.NoError(t, err)
	assert.Equal(t, "sqreport version 1.2.3\ncommit: abc123\n", stdout)
}
