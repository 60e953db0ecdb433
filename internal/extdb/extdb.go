// Package extdb talks to the student records database that extension data is
// read from. It only knows how to connect, run a statement and hand back rows
// as lower-cased, UTF-8 decoded field maps; the meaning of those rows belongs
// to the callers.
package extdb

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

var ErrUnsupportedType = errors.New("unsupported external database type")

type Options struct {
	Type          string
	Host          string
	Name          string
	User          string
	Password      string
	Encoding      string
	SetupSQL      string
	SybaseQuoting bool
	Debug         bool
}

// Conn is a single scoped connection to the external database.
type Conn struct {
	db      *sqlx.DB
	decoder *Decoder
	debug   bool
	logger  *zap.Logger
}

// Open connects, pings, and runs the optional setup SQL. The pool is pinned
// to one connection so session settings from the setup SQL stick.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (*Conn, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	decoder, err := NewDecoder(opts.Encoding)
	if err != nil {
		return nil, err
	}

	driver, dsn, err := dataSource(opts)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s at %s: %w", opts.Type, opts.Host, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	conn := &Conn{
		db:      db,
		decoder: decoder,
		debug:   opts.Debug,
		logger:  logger.With(zap.String("extdb", opts.Name)),
	}

	if opts.SetupSQL != "" {
		if _, err := conn.Exec(ctx, opts.SetupSQL); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup sql: %w", err)
		}
	}

	conn.logger.Info("External database connected",
		zap.String("type", opts.Type),
		zap.String("host", opts.Host),
		zap.String("encoding", decoder.Name()),
		zap.Bool("sybase_quoting", opts.SybaseQuoting),
		zap.Bool("debug", opts.Debug))

	return conn, nil
}

// Query runs a select and returns a cursor over its rows.
func (c *Conn) Query(ctx context.Context, query string) (Rows, error) {
	c.trace(query)
	rows, err := c.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return &cursor{rows: rows, decoder: c.decoder}, nil
}

// Exec runs a statement and returns the number of affected rows.
func (c *Conn) Exec(ctx context.Context, query string) (int64, error) {
	c.trace(query)
	res, err := c.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		// some drivers cannot report it; the statement still ran
		return 0, nil
	}
	return n, nil
}

func (c *Conn) Close() error {
	return c.db.Close()
}

func (c *Conn) trace(query string) {
	if c.debug {
		c.logger.Info("extdb statement", zap.String("sql", query))
	}
}

// dataSource maps the configured database type to a registered driver and DSN.
// Type names follow the ones used by the records system integration settings.
func dataSource(opts Options) (string, string, error) {
	switch strings.ToLower(opts.Type) {
	case "mysql", "mysqli", "mariadb":
		cfg := mysql.NewConfig()
		cfg.User = opts.User
		cfg.Passwd = opts.Password
		cfg.Net = "tcp"
		cfg.Addr = opts.Host
		cfg.DBName = opts.Name
		return "mysql", cfg.FormatDSN(), nil
	case "postgres", "postgres7", "pgsql":
		parts := []string{
			"user=" + pqQuote(opts.User),
			"password=" + pqQuote(opts.Password),
			"dbname=" + pqQuote(opts.Name),
		}
		host, port, err := net.SplitHostPort(opts.Host)
		if err != nil {
			host, port = opts.Host, ""
		}
		parts = append(parts, "host="+pqQuote(host))
		if port != "" {
			parts = append(parts, "port="+pqQuote(port))
		}
		return "postgres", strings.Join(parts, " "), nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedType, opts.Type)
	}
}

func pqQuote(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
