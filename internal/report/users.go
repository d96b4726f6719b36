package report

import (
	"context"
	"fmt"
	"iter"
	"math"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/sqreport/go/internal/sonar"
)

const (
	// NeverDays stands in for the day count of a missing timestamp
	NeverDays = math.MaxInt32

	// TimestampLayout is the local date-time layout of user connection dates
	TimestampLayout = "2006-01-02T15:04:05"

	// DefaultLoginDays is the default server login threshold
	DefaultLoginDays = 90

	// DefaultToolDays is the default SonarLint connection threshold
	DefaultToolDays = 90

	never = "Never"
)

// UsersHeader is the first line of the users report
var UsersHeader = []string{
	"name", "login", "lastSonarQubeDate", "lastSonarQubeDays", "lastSonarLintDate", "lastSonarLintDays",
}

// UsersSource lists users page by page
type UsersSource interface {
	CountUsers(ctx context.Context) (int, error)
	UserPages(ctx context.Context, total int) iter.Seq2[sonar.Page[sonar.User], error]
}

// UserRecord is a user with the age in days of both connection dates
type UserRecord struct {
	Name               string
	Login              string
	LastServerLogin    *time.Time
	LastToolConnection *time.Time
	ServerDays         int
	ToolDays           int
}

// Included reports whether the user logged into the server within
// loginDays but has not connected SonarLint for more than toolDays.
func (u UserRecord) Included(loginDays, toolDays int) bool {
	return u.ServerDays < loginDays && u.ToolDays > toolDays
}

// Row renders the record in UsersHeader order
func (u UserRecord) Row() []string {
	row := make([]string, 0, len(UsersHeader))
	row = append(row, u.Name, u.Login)
	if u.LastServerLogin == nil {
		row = append(row, never)
	} else {
		row = append(row, u.LastServerLogin.Format(TimestampLayout))
	}
	row = append(row, strconv.Itoa(u.ServerDays))

	if u.LastToolConnection == nil {
		return append(row, never, never)
	}
	return append(row, u.LastToolConnection.Format(TimestampLayout), strconv.Itoa(u.ToolDays))
}

// DaysBetween returns the whole days between now and t in either direction,
// truncated. A nil t yields NeverDays.
func DaysBetween(now time.Time, t *time.Time) int {
	if t == nil {
		return NeverDays
	}
	d := now.Sub(*t)
	if d < 0 {
		d = -d
	}
	return int(d / (24 * time.Hour))
}

// ParseTimestamp reads a connection date in local time. Anything after the
// seconds field, such as a zone offset, is ignored.
func ParseTimestamp(s string) (time.Time, error) {
	if len(s) > len(TimestampLayout) {
		s = s[:len(TimestampLayout)]
	}
	return time.ParseInLocation(TimestampLayout, s, time.Local)
}

// UsersConfig holds the thresholds and failure handling of a users report
type UsersConfig struct {
	LoginDays int
	ToolDays  int
	Policy    Policy
	// Now defaults to time.Now
	Now func() time.Time
}

// UsersReport finds users active on the server but not in SonarLint
type UsersReport struct {
	source UsersSource
	cfg    UsersConfig
	log    *zap.Logger
}

// NewUsersReport creates a users report over source
func NewUsersReport(source UsersSource, cfg UsersConfig, log *zap.Logger) *UsersReport {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &UsersReport{
		source: source,
		cfg:    cfg,
		log:    log,
	}
}

// Build walks every user page and returns the users that pass the
// thresholds. On an aborting failure the users gathered so far are returned
// together with the error.
func (r *UsersReport) Build(ctx context.Context) ([]UserRecord, error) {
	users := []UserRecord{}

	total, err := r.source.CountUsers(ctx)
	if err != nil {
		if r.cfg.Policy.Decide(err) == Abort {
			return users, &StepError{Step: "counting users", Err: err}
		}
		r.log.Warn("cannot count users, reporting none", zap.Error(err))
		return users, nil
	}
	if total == 0 {
		return users, nil
	}

	r.log.Info("scanning users",
		zap.Int("total", total),
		zap.Int("login_days", r.cfg.LoginDays),
		zap.Int("tool_days", r.cfg.ToolDays),
	)

	now := r.cfg.Now()
	for page, err := range r.source.UserPages(ctx, total) {
		if err != nil {
			if r.cfg.Policy.Decide(err) == Abort {
				return users, &StepError{Step: fmt.Sprintf("fetching users page %d", page.Index), Err: err}
			}
			r.log.Warn("skipping users page", zap.Int("page", page.Index), zap.Error(err))
			continue
		}

		matched, err := r.filter(page.Items, now)
		users = append(users, matched...)
		if err != nil {
			if r.cfg.Policy.Decide(err) == Abort {
				return users, &StepError{Step: fmt.Sprintf("reading users page %d", page.Index), Err: err}
			}
			// the rest of the page is dropped
			r.log.Warn("dropping remainder of users page", zap.Int("page", page.Index), zap.Error(err))
		}
	}

	r.log.Info("users scanned", zap.Int("matched", len(users)))
	return users, nil
}

// filter converts and filters one page. It stops at the first unparsable
// timestamp and returns the matches found before it.
func (r *UsersReport) filter(page []sonar.User, now time.Time) ([]UserRecord, error) {
	var matched []UserRecord
	for _, u := range page {
		rec, err := newUserRecord(u, now)
		if err != nil {
			return matched, err
		}
		if rec.Included(r.cfg.LoginDays, r.cfg.ToolDays) {
			matched = append(matched, rec)
		}
	}
	return matched, nil
}

func newUserRecord(u sonar.User, now time.Time) (UserRecord, error) {
	rec := UserRecord{
		Name:  u.Name,
		Login: u.Login,
	}

	var err error
	if rec.LastServerLogin, err = parseOptional(u.Login, "sonarQubeLastConnectionDate", u.SonarQubeLastConnectionDate); err != nil {
		return rec, err
	}
	if rec.LastToolConnection, err = parseOptional(u.Login, "sonarLintLastConnectionDate", u.SonarLintLastConnectionDate); err != nil {
		return rec, err
	}

	rec.ServerDays = DaysBetween(now, rec.LastServerLogin)
	rec.ToolDays = DaysBetween(now, rec.LastToolConnection)
	return rec, nil
}

func parseOptional(login, field string, value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := ParseTimestamp(*value)
	if err != nil {
		return nil, &TimestampError{Login: login, Field: field, Value: *value, Err: err}
	}
	return &t, nil
}
