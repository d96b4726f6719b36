package report

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"go.uber.org/zap"

	"github.com/sqreport/go/internal/sonar"
)

// SecretsRulePrefix is shared by every secrets detection rule reference
const SecretsRulePrefix = "secrets"

var secretsHeader = []string{"projectKey", "branch", "fileName", "rule", "status", "message", "author"}

// SecretsHeader returns the first line of the secrets report
func SecretsHeader(includeAssignee bool) []string {
	header := append([]string(nil), secretsHeader...)
	if includeAssignee {
		header = append(header, "assignee")
	}
	return header
}

// IsSecretRule reports whether rule belongs to secrets detection
func IsSecretRule(rule string) bool {
	return strings.HasPrefix(rule, SecretsRulePrefix)
}

// SecretsSource enumerates projects, branches and branch findings
type SecretsSource interface {
	ProjectPages(ctx context.Context) iter.Seq2[sonar.Page[sonar.ProjectKey], error]
	ListBranches(ctx context.Context, project sonar.ProjectKey) ([]string, error)
	ExportFindings(ctx context.Context, project sonar.ProjectKey, branch string) ([]sonar.Finding, error)
}

// FindingRecord is a secrets finding with the project and branch it belongs to
type FindingRecord struct {
	ProjectKey string
	Branch     string
	FileName   string
	Rule       string
	Status     string
	Message    string
	Author     string
	Assignee   string
}

// Row renders the record in SecretsHeader order
func (f FindingRecord) Row(includeAssignee bool) []string {
	row := []string{f.ProjectKey, f.Branch, f.FileName, f.Rule, f.Status, f.Message, f.Author}
	if includeAssignee {
		row = append(row, f.Assignee)
	}
	return row
}

// SecretsConfig holds the failure handling of a secrets report
type SecretsConfig struct {
	Policy   Policy
	Progress Progress
}

// SecretsReport crawls every branch of every project for secrets findings
type SecretsReport struct {
	source SecretsSource
	cfg    SecretsConfig
	log    *zap.Logger
}

// NewSecretsReport creates a secrets report over source
func NewSecretsReport(source SecretsSource, cfg SecretsConfig, log *zap.Logger) *SecretsReport {
	if cfg.Progress == nil {
		cfg.Progress = NopProgress{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SecretsReport{
		source: source,
		cfg:    cfg,
		log:    log,
	}
}

// Build collects project keys, then scans each project's branches one at a
// time. On an aborting failure the findings gathered so far are returned
// together with the error.
func (r *SecretsReport) Build(ctx context.Context) ([]FindingRecord, error) {
	findings := []FindingRecord{}

	projects, err := r.projects(ctx)
	if err != nil {
		return findings, err
	}
	r.cfg.Progress.ProjectsFound(len(projects))

	for i, key := range projects {
		r.cfg.Progress.ProjectStarted(i+1, len(projects), key)

		branches, err := r.source.ListBranches(ctx, key)
		if err != nil {
			if r.cfg.Policy.Decide(err) == Abort {
				return findings, &StepError{Step: fmt.Sprintf("listing branches of %s", key), Err: err}
			}
			r.log.Warn("skipping project", zap.String("project", string(key)), zap.Error(err))
			continue
		}

		for _, branch := range branches {
			found, err := r.scanBranch(ctx, key, branch)
			if err != nil {
				if r.cfg.Policy.Decide(err) == Abort {
					return findings, &StepError{Step: fmt.Sprintf("exporting findings of %s@%s", key, branch), Err: err}
				}
				r.log.Warn("skipping branch",
					zap.String("project", string(key)),
					zap.String("branch", branch),
					zap.Error(err),
				)
				continue
			}
			findings = append(findings, found...)
			r.cfg.Progress.BranchScanned(key, branch, len(found))
		}
	}

	r.cfg.Progress.Finished(len(findings))
	return findings, nil
}

func (r *SecretsReport) projects(ctx context.Context) ([]sonar.ProjectKey, error) {
	var keys []sonar.ProjectKey
	for page, err := range r.source.ProjectPages(ctx) {
		if err != nil {
			if r.cfg.Policy.Decide(err) == Abort {
				return nil, &StepError{Step: fmt.Sprintf("listing projects page %d", page.Index), Err: err}
			}
			// a failed page carries no total, so paging ends here
			r.log.Warn("project listing cut short", zap.Int("page", page.Index), zap.Error(err))
			continue
		}
		keys = append(keys, page.Items...)
	}
	return keys, nil
}

func (r *SecretsReport) scanBranch(ctx context.Context, key sonar.ProjectKey, branch string) ([]FindingRecord, error) {
	all, err := r.source.ExportFindings(ctx, key, branch)
	if err != nil {
		return nil, err
	}

	var found []FindingRecord
	for _, f := range all {
		if !IsSecretRule(f.RuleReference) {
			continue
		}
		found = append(found, FindingRecord{
			ProjectKey: string(key),
			Branch:     branch,
			FileName:   f.Path,
			Rule:       f.RuleReference,
			Status:     f.IssueStatus,
			Message:    f.Message,
			Author:     f.Author,
			Assignee:   f.Assignee,
		})
	}
	return found, nil
}
