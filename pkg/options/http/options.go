// Package http provides HTTP server configuration options.
package http

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/iranzithierry/cognova-backend/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains HTTP server configuration.
type Options struct {
	// Addr is the address to listen on.
	Addr string `json:"addr" mapstructure:"addr"`

	// Mode is the gin mode (debug, release, test).
	Mode string `json:"mode" mapstructure:"mode"`

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration `json:"read-timeout" mapstructure:"read-timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. Zero disables the deadline; streamed chat responses can
	// outlive any fixed write timeout.
	WriteTimeout time.Duration `json:"write-timeout" mapstructure:"write-timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request.
	IdleTimeout time.Duration `json:"idle-timeout" mapstructure:"idle-timeout"`
}

// NewOptions creates a new Options with default values.
func NewOptions() *Options {
	return &Options{
		Addr:         ":8080",
		Mode:         "release",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}
}

// AddFlags adds flags for HTTP options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Addr, options.Join(prefixes...)+"http.addr", o.Addr, "HTTP server listen address.")
	fs.StringVar(&o.Mode, options.Join(prefixes...)+"http.mode", o.Mode, "HTTP server mode (debug, release, test).")
	fs.DurationVar(&o.ReadTimeout, options.Join(prefixes...)+"http.read-timeout", o.ReadTimeout, "HTTP server read timeout.")
	fs.DurationVar(&o.WriteTimeout, options.Join(prefixes...)+"http.write-timeout", o.WriteTimeout, "HTTP server write timeout (0 disables, required for streaming).")
	fs.DurationVar(&o.IdleTimeout, options.Join(prefixes...)+"http.idle-timeout", o.IdleTimeout, "HTTP server idle timeout.")
}

// Validate validates the HTTP options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Addr == "" {
		errs = append(errs, fmt.Errorf("http addr is required"))
	}
	if o.Mode != "debug" && o.Mode != "release" && o.Mode != "test" {
		errs = append(errs, fmt.Errorf("http mode must be one of debug, release, test"))
	}
	if o.ReadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("http read-timeout must be positive"))
	}
	return errs
}
