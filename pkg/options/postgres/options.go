// Package postgres provides PostgreSQL configuration options.
package postgres

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/iranzithierry/cognova-backend/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options defines configuration options for PostgreSQL.
type Options struct {
	Host                  string        `json:"host" mapstructure:"host"`
	Port                  int           `json:"port" mapstructure:"port"`
	Username              string        `json:"username" mapstructure:"username"`
	Password              string        `json:"-" mapstructure:"password"`
	Database              string        `json:"database" mapstructure:"database"`
	SSLMode               string        `json:"ssl-mode" mapstructure:"ssl-mode"`
	MaxIdleConnections    int           `json:"max-idle-connections" mapstructure:"max-idle-connections"`
	MaxOpenConnections    int           `json:"max-open-connections" mapstructure:"max-open-connections"`
	MaxConnectionLifeTime time.Duration `json:"max-connection-life-time" mapstructure:"max-connection-life-time"`
	LogLevel              int           `json:"log-level" mapstructure:"log-level"`
}

// NewOptions creates a new Options object with default values.
func NewOptions() *Options {
	return &Options{
		Host:                  "127.0.0.1",
		Port:                  5432,
		Username:              "postgres",
		Password:              "",
		Database:              "cognova",
		SSLMode:               "disable",
		MaxIdleConnections:    10,
		MaxOpenConnections:    100,
		MaxConnectionLifeTime: 10 * time.Second,
		LogLevel:              1, // Silent
	}
}

// DSN returns the PostgreSQL connection string.
func (o *Options) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		o.Host, o.Port, o.Username, o.Password, o.Database, o.SSLMode)
}

// AddFlags adds flags for PostgreSQL options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Host, options.Join(prefixes...)+"postgres.host", o.Host, "PostgreSQL host.")
	fs.IntVar(&o.Port, options.Join(prefixes...)+"postgres.port", o.Port, "PostgreSQL port.")
	fs.StringVar(&o.Username, options.Join(prefixes...)+"postgres.username", o.Username, "PostgreSQL username.")
	fs.StringVar(&o.Password, options.Join(prefixes...)+"postgres.password", o.Password, "PostgreSQL password.")
	fs.StringVar(&o.Database, options.Join(prefixes...)+"postgres.database", o.Database, "PostgreSQL database.")
	fs.StringVar(&o.SSLMode, options.Join(prefixes...)+"postgres.ssl-mode", o.SSLMode, "PostgreSQL SSL mode.")
	fs.IntVar(&o.MaxIdleConnections, options.Join(prefixes...)+"postgres.max-idle-connections", o.MaxIdleConnections, "PostgreSQL max idle connections.")
	fs.IntVar(&o.MaxOpenConnections, options.Join(prefixes...)+"postgres.max-open-connections", o.MaxOpenConnections, "PostgreSQL max open connections.")
	fs.DurationVar(&o.MaxConnectionLifeTime, options.Join(prefixes...)+"postgres.max-connection-life-time", o.MaxConnectionLifeTime, "PostgreSQL max connection life time.")
	fs.IntVar(&o.LogLevel, options.Join(prefixes...)+"postgres.log-level", o.LogLevel, "PostgreSQL log level.")
}

// Validate validates the options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Host == "" {
		errs = append(errs, fmt.Errorf("postgres host is required"))
	}
	if o.Port <= 0 || o.Port > 65535 {
		errs = append(errs, fmt.Errorf("postgres port must be between 1 and 65535"))
	}
	if o.Database == "" {
		errs = append(errs, fmt.Errorf("postgres database is required"))
	}
	return errs
}
