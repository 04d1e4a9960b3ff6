// Copyright (c) 2026 Javier Podavini (YindSoft)
// Licensed under the MIT License. See LICENSE file in the project root.

package surfacebridge

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DefaultAttachTimeout bounds how long a session waits for its swap chain.
const DefaultAttachTimeout = 5 * time.Second

// Options for loading a renderer and running a bridge. All fields are optional.
type Options struct {
	BaseDir string `yaml:"base_dir"` // Directory containing the renderer shared library. Defaults to working directory, then executable directory.
	Library string `yaml:"library"`  // Library file name. Defaults to the platform name of cappy3ds_render.
	Debug   bool   `yaml:"debug"`    // Log every state transition at debug level.

	// AttachTimeout bounds the wait for the swap chain callback. Zero means
	// DefaultAttachTimeout, negative disables the bound.
	AttachTimeout time.Duration `yaml:"attach_timeout"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Logger overrides the logger built from LogLevel and LogFormat.
	Logger *logrus.Logger `yaml:"-"`
}

// LoadOptions reads Options from a YAML file.
func LoadOptions(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading options %s: %w", path, err)
	}
	var opts Options
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return nil, fmt.Errorf("parsing options %s: %w", path, err)
	}
	return &opts, nil
}

func (o *Options) attachTimeout() time.Duration {
	if o == nil || o.AttachTimeout == 0 {
		return DefaultAttachTimeout
	}
	return o.AttachTimeout
}

// logger returns the configured logger, falling back to the standard logger
// when the level or format cannot be parsed.
func (o *Options) logger() *logrus.Logger {
	if o == nil {
		return logrus.StandardLogger()
	}
	if o.Logger != nil {
		return o.Logger
	}
	level := o.LogLevel
	if level == "" && o.Debug {
		level = "debug"
	}
	if level == "" && o.LogFormat == "" {
		return logrus.StandardLogger()
	}
	l, err := NewLogger(level, o.LogFormat)
	if err != nil {
		logrus.WithError(err).Warn("falling back to standard logger")
		return logrus.StandardLogger()
	}
	return l
}

func resolveOpts(opts *Options) (baseDir, library string) {
	if opts != nil {
		baseDir = opts.BaseDir
		library = opts.Library
	}
	if library == "" {
		library = rendererLibName()
	}
	if baseDir == "" {
		baseDir, _ = os.Getwd()
		if _, err := os.Stat(filepath.Join(baseDir, library)); err != nil {
			if exe, _ := os.Executable(); exe != "" {
				baseDir = filepath.Dir(exe)
			}
		}
	}
	return baseDir, library
}
