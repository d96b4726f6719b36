package report

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sqreport/go/internal/sonar"
)

// Progress receives milestones of a secrets crawl
type Progress interface {
	ProjectsFound(n int)
	ProjectStarted(index, total int, key sonar.ProjectKey)
	BranchScanned(key sonar.ProjectKey, branch string, secrets int)
	Finished(secrets int)
}

// NopProgress ignores every milestone
type NopProgress struct{}

func (NopProgress) ProjectsFound(int) {}
func (NopProgress) ProjectStarted(int, int, sonar.ProjectKey) {}
func (NopProgress) BranchScanned(sonar.ProjectKey, string, int) {}
func (NopProgress) Finished(int) {}

// LogProgress writes milestones to a zap logger at Level, branches at debug
type LogProgress struct {
	Log   *zap.Logger
	Level zapcore.Level
}

func (p LogProgress) ProjectsFound(n int) {
	p.Log.Log(p.Level, "projects found", zap.Int("count", n))
}

func (p LogProgress) ProjectStarted(index, total int, key sonar.ProjectKey) {
	p.Log.Log(p.Level, "finding secrets",
		zap.String("project", string(key)),
		zap.Int("index", index),
		zap.Int("total", total),
	)
}

func (p LogProgress) BranchScanned(key sonar.ProjectKey, branch string, secrets int) {
	p.Log.Debug("branch scanned",
		zap.String("project", string(key)),
		zap.String("branch", branch),
		zap.Int("secrets", secrets),
	)
}

func (p LogProgress) Finished(secrets int) {
	p.Log.Log(p.Level, "secrets scan finished", zap.Int("secrets", secrets))
}

// MultiProgress fans milestones out to several receivers
type MultiProgress []Progress

func (m MultiProgress) ProjectsFound(n int) {
	for _, p := range m {
		p.ProjectsFound(n)
	}
}

func (m MultiProgress) ProjectStarted(index, total int, key sonar.ProjectKey) {
	for _, p := range m {
		p.ProjectStarted(index, total, key)
	}
}

func (m MultiProgress) BranchScanned(key sonar.ProjectKey, branch string, secrets int) {
	for _, p := range m {
		p.BranchScanned(key, branch, secrets)
	}
}

func (m MultiProgress) Finished(secrets int) {
	for _, p := range m {
		p.Finished(secrets)
	}
}
