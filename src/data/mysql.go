package data

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoDSN means neither MYSQL_DSN nor MYSQL_DSN_FILE is set.
var ErrNoDSN = errors.New("data: MYSQL_DSN is not set")

// MySQLDSN resolves the database DSN. MYSQL_DSN wins; otherwise
// MYSQL_DSN_FILE names a file holding it, as mounted container secrets do.
func MySQLDSN() (string, error) {
	if dsn := strings.TrimSpace(os.Getenv("MYSQL_DSN")); dsn != "" {
		return dsn, nil
	}
	path := strings.TrimSpace(os.Getenv("MYSQL_DSN_FILE"))
	if path == "" {
		return "", ErrNoDSN
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("data: read MYSQL_DSN_FILE: %w", err)
	}
	dsn := strings.TrimSpace(string(raw))
	if dsn == "" {
		return "", fmt.Errorf("data: %s is empty", path)
	}
	return dsn, nil
}
