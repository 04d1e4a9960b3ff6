// Copyright (c) 2026 Javier Podavini (YindSoft)
// Licensed under the MIT License. See LICENSE file in the project root.

package surfacebridge

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// bridgeLog is used where no bridge is in reach (native trampolines).
var bridgeLog = logrus.NewEntry(logrus.StandardLogger()).WithField("component", "surfacebridge")

// Log formats accepted by NewLogger.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// NewLogger builds a logrus logger writing to stderr. An empty level means
// info; an empty format means text.
func NewLogger(level, format string) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	if level != "" {
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %s", level)
		}
		logger.SetLevel(lvl)
	}

	switch format {
	case "", LogFormatText:
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	case LogFormatJSON:
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}
	return logger, nil
}

func sessionFields(s *Session) logrus.Fields {
	return logrus.Fields{
		"session": s.ID(),
		"surface": fmt.Sprintf("%#x", s.surface.addr),
		"state":   s.State().String(),
	}
}
