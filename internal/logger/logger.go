package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var (
	User *UserLogger // crew progress for people watching a run (stdout)
	Op   *OpLogger   // task, retry and storage detail (stderr)
)

func init() {
	bind(GetLogger().GetInternalLogger())
}

func bind(l *logrus.Logger) {
	User = &UserLogger{logger: l}
	Op = &OpLogger{logger: l}
}

// UserLogger prefixes each line with a marker for the kind of event.
type UserLogger struct {
	logger *logrus.Logger
}

func (u *UserLogger) marked(marker string) *logrus.Entry {
	fields := logrus.Fields{"log_type": string(UserLog)}
	if marker != "" {
		fields["emoji"] = marker
	}
	return u.logger.WithFields(fields)
}

func (u *UserLogger) Info(msg string) { u.marked("").Info(msg) }

func (u *UserLogger) Infof(format string, args ...interface{}) { u.marked("").Infof(format, args...) }

func (u *UserLogger) Warnf(format string, args ...interface{}) { u.marked("⚠️").Warnf(format, args...) }

// Starting announces a run or phase.
func (u *UserLogger) Starting(msg string) { u.marked("🚀").Info(msg) }

// Taskf reports agent task progress.
func (u *UserLogger) Taskf(format string, args ...interface{}) { u.marked("🤖").Infof(format, args...) }

// Retryf reports a degraded retry inside the executor.
func (u *UserLogger) Retryf(format string, args ...interface{}) { u.marked("🔁").Warnf(format, args...) }

// Persistf reports artifacts written to disk or the product store.
func (u *UserLogger) Persistf(format string, args ...interface{}) {
	u.marked("💾").Infof(format, args...)
}

// OpLogger writes unmarked entries tagged for the operational stream.
type OpLogger struct {
	logger *logrus.Logger
}

func (o *OpLogger) entry() *logrus.Entry {
	return o.logger.WithField("log_type", string(OpLog))
}

func (o *OpLogger) Info(msg string) { o.entry().Info(msg) }

func (o *OpLogger) Debugf(format string, args ...interface{}) { o.entry().Debugf(format, args...) }

// WithFields attaches structured fields such as task, attempt or path.
func (o *OpLogger) WithFields(fields map[string]interface{}) *logrus.Entry {
	return o.entry().WithFields(fields)
}

// CLIFormatter renders "LEVEL: message k=v" lines with fields in key order.
type CLIFormatter struct {
	DisableTimestamp bool
	DisableLevel     bool
	DisableColors    bool
}

var levelColors = map[logrus.Level]string{
	logrus.ErrorLevel: "\033[31m",
	logrus.WarnLevel:  "\033[33m",
	logrus.InfoLevel:  "\033[36m",
	logrus.DebugLevel: "\033[37m",
}

func (f *CLIFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer

	if !f.DisableTimestamp {
		b.WriteString(entry.Time.Format("2006-01-02 15:04:05 "))
	}

	if !f.DisableLevel {
		level := strings.ToUpper(entry.Level.String())
		if color, ok := levelColors[entry.Level]; ok && !f.DisableColors {
			level = color + level + "\033[0m"
		}
		b.WriteString(level + ": ")
	}

	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		if k != "log_type" && k != "emoji" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

// Setup configures level, format and output routing. LOG_MODE and LOG_FORMAT
// environment variables override the flags.
func Setup(verbose bool, jsonLogs bool, quiet bool) {
	SetupWithWriters(verbose, jsonLogs, quiet, os.Stdout, os.Stderr)
}

// SetupWithWriters is Setup with explicit user and op destinations.
func SetupWithWriters(verbose, jsonLogs, quiet bool, userOut, opOut io.Writer) {
	verbose, quiet = modeFromEnv(verbose, quiet)
	switch os.Getenv("LOG_FORMAT") {
	case "json":
		jsonLogs = true
	case "text":
		jsonLogs = false
	}

	l := GetLogger().GetInternalLogger()
	l.ReplaceHooks(make(logrus.LevelHooks))
	l.SetOutput(io.Discard) // the router hook does all writing
	l.SetLevel(levelFor(verbose, quiet))
	l.SetFormatter(&logrus.TextFormatter{})

	hook := NewOutputRouterHook()
	hook.UserWriter = userOut
	hook.OpWriter = opOut

	switch {
	case jsonLogs:
		l.SetFormatter(&logrus.JSONFormatter{})
		hook.UserFormatter = &logrus.JSONFormatter{}
		hook.OpFormatter = &logrus.JSONFormatter{}
	case verbose:
		hook.UserFormatter = &CLIFormatter{DisableTimestamp: true, DisableLevel: true}
		hook.OpFormatter = &logrus.TextFormatter{FullTimestamp: true, ForceColors: isTerminal(opOut)}
	default:
		hook.UserFormatter = &CLIFormatter{DisableTimestamp: true, DisableLevel: true}
		hook.OpFormatter = &CLIFormatter{DisableTimestamp: true, DisableColors: !isTerminal(opOut)}
	}

	l.AddHook(hook)
	bind(l)
}

func modeFromEnv(verbose, quiet bool) (bool, bool) {
	switch os.Getenv("LOG_MODE") {
	case "quiet":
		return false, true
	case "verbose", "debug":
		return true, false
	}
	return verbose, quiet
}

func levelFor(verbose, quiet bool) logrus.Level {
	switch {
	case quiet:
		return logrus.ErrorLevel
	case verbose:
		return logrus.DebugLevel
	}
	return logrus.InfoLevel
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
