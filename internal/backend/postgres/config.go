package postgres

import (
	"strconv"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
)

// Config defines connection and signing parameters for a Store instance.
type Config struct {
	User     string `env:"PGUSER" envDefault:"postgres"`
	Password string `env:"PGPASSWORD" envDefault:"postgres"`
	Host     string `env:"PGHOST" envDefault:"localhost"`
	Port     uint16 `env:"PGPORT" envDefault:"5432"`
	DBName   string `env:"PGDATABASE" envDefault:"notechat"`

	// PublicBaseURL prefixes the path of every uploaded object to form its
	// publicly resolvable URL.
	PublicBaseURL string `env:"STORAGE_PUBLIC_URL" envDefault:"http://localhost:9000/storage"`

	TokenSecret string        `env:"TOKEN_SECRET" envDefault:"dev-secret-change-me"`
	TokenTTL    time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
}

// DSN renders the libpq-style connection string for pgxpool.
func (c Config) DSN() string {
	return "user=" + c.User +
		" password=" + c.Password +
		" host=" + c.Host +
		" port=" + strconv.FormatUint(uint64(c.Port), 10) +
		" dbname=" + c.DBName +
		" sslmode=disable"
}

// Option alters the default pgxpool.Config used during Store construction.
type Option interface {
	apply(*pgxpool.Config)
}

type optionFunc func(c *pgxpool.Config)

func (f optionFunc) apply(c *pgxpool.Config) { f(c) }

// ConnectionTimeout sets timeout for connection to be established
func ConnectionTimeout(d time.Duration) Option {
	return optionFunc(func(c *pgxpool.Config) {
		c.ConnConfig.ConnectTimeout = d
	})
}

// MaxConns caps the pool size.
func MaxConns(n int32) Option {
	return optionFunc(func(c *pgxpool.Config) {
		c.MaxConns = n
	})
}
