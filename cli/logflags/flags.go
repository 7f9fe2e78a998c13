package logflags

import (
	"flag"
	"strings"

	"github.com/brimdata/openrec/pkg/logger"
	"go.uber.org/zap"
)

type Flags struct {
	Config logger.Config
}

func (f *Flags) SetFlags(fs *flag.FlagSet) {
	fs.BoolVar(&f.Config.DevMode, "log.devmode", false, "development mode (if enabled dpanic level logs will cause a panic)")
	f.Config.Level = zap.WarnLevel
	fs.Var(&f.Config.Level, "log.level", "logging level")
	fs.StringVar(&f.Config.Path, "log.path", "stderr", "path to send logs (values: stderr, stdout, path in file system)")
	f.Config.Mode = logger.FileModeTruncate
	fs.Var(&f.Config.Mode, "log.filemode", "logger file write mode (values: append, truncate, rotate)")
}

// Override copies into conf the logger settings whose flags were set in fs.
func (f *Flags) Override(fs *flag.FlagSet, conf *logger.Config) {
	fs.Visit(func(fl *flag.Flag) {
		switch strings.TrimPrefix(fl.Name, "log.") {
		case "devmode":
			conf.DevMode = f.Config.DevMode
		case "level":
			conf.Level = f.Config.Level
		case "path":
			conf.Path = f.Config.Path
		case "filemode":
			conf.Mode = f.Config.Mode
		}
	})
}
