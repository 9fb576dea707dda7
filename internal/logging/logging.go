package logging

import (
	"github.com/sirupsen/logrus"
)

// New returns a logger tagged with env. Prod logs JSON at info unless level
// says otherwise; other environments log text at debug.
func New(env, level string) logrus.FieldLogger {
	l := logrus.New()

	if env == "prod" {
		l.Formatter = &logrus.JSONFormatter{}
		l.Level = logrus.InfoLevel
	} else {
		l.Formatter = &logrus.TextFormatter{FullTimestamp: true}
		l.Level = logrus.DebugLevel
	}

	if level != "" {
		if lvl, err := logrus.ParseLevel(level); err == nil {
			l.Level = lvl
		} else {
			l.WithField("level", level).Warn("unknown log level, keeping default")
		}
	}

	return l.WithField("env", env)
}
