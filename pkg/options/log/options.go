// Package log provides logger configuration options.
package log

import (
	"github.com/kart-io/logger"
	logoption "github.com/kart-io/logger/option"
	"github.com/spf13/pflag"

	"github.com/iranzithierry/cognova-backend/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options wraps the logger option.LogOption.
type Options struct {
	*logoption.LogOption
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		LogOption: logoption.DefaultLogOption(),
	}
}

// AddFlags adds flags for logger options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	join := options.Join(prefixes...)
	fs.StringVar(&o.Engine, join+"log.engine", o.Engine, "Logging engine (zap|slog).")
	fs.StringVar(&o.Level, join+"log.level", o.Level, "Log level (DEBUG|INFO|WARN|ERROR|FATAL).")
	fs.StringVar(&o.Format, join+"log.format", o.Format, "Log format (json|console).")
	fs.StringSliceVar(&o.OutputPaths, join+"log.output-paths", o.OutputPaths, "Output paths for logs.")
	fs.BoolVar(&o.Development, join+"log.development", o.Development, "Enable development mode.")
	fs.BoolVar(&o.DisableCaller, join+"log.disable-caller", o.DisableCaller, "Disable caller detection.")
	fs.BoolVar(&o.DisableStacktrace, join+"log.disable-stacktrace", o.DisableStacktrace, "Disable stacktrace capture.")
}

// Validate validates the logger options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}
	if err := o.LogOption.Validate(); err != nil {
		return []error{err}
	}
	return nil
}

// Init initializes the global logger with the options.
func (o *Options) Init() error {
	log, err := logger.New(o.LogOption)
	if err != nil {
		return err
	}
	logger.SetGlobal(log)
	return nil
}
