package mysqlDB

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strconv"

	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/internal/domain/ragErrors"
	"github.com/akolanti/StudyRAG/internal/rag/vectorDB/mysqlDB/migrations"
	"github.com/akolanti/StudyRAG/internal/rag/vectorDB/sqlStore"
	"github.com/go-sql-driver/mysql"
)

var Dialect = sqlStore.Dialect{
	Name:        config.BackendMySQL,
	Migrations:  migrations.FS,
	FormatTime:  sqlStore.FormatNativeTime,
	Unavailable: isUnavailable,
}

// DSN builds the driver DSN; timestamps are read back as UTC time.Time.
func DSN(c config.MySQLConfig) string {
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	cfg.DBName = c.DBName
	cfg.ParseTime = true
	cfg.Timeout = config.DBConnectTimeout
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg.FormatDSN()
}

func Open(ctx context.Context, c config.MySQLConfig, opts ...sqlStore.Option) (*sqlStore.Store, error) {
	return OpenDSN(ctx, DSN(c), opts...)
}

func OpenDSN(ctx context.Context, dsn string, opts ...sqlStore.Option) (*sqlStore.Store, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, ragErrors.New(ragErrors.ErrStorageUnavailable, "mysql.Open", err)
	}
	db.SetMaxOpenConns(config.DBMaxOpenConns)
	db.SetMaxIdleConns(config.DBMaxIdleConns)
	db.SetConnMaxLifetime(config.DBConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, config.DBConnectTimeout)
	defer cancel()

	store, err := sqlStore.Open(pingCtx, db, Dialect, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// isUnavailable separates lost connections from statement failures.
// Server errors such as 1045 (access denied) and 2006/2013 (gone away) count
// as unavailable; constraint and syntax errors do not.
func isUnavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1040, 1045, 1049, 2002, 2003, 2006, 2013:
			return true
		}
	}
	return false
}
