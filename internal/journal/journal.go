package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Journal 本地订单流水（SQLite）
//
// 记录每一笔提交过的已签名订单及交易所的响应或错误，用于事后对账。
// 只保存签名和载荷，不保存任何凭证。
type Journal struct {
	db *sql.DB
}

// Open 打开（必要时创建）流水库；path 为 ":memory:" 时使用内存库
func Open(path string) (*Journal, error) {
	if path == "" {
		return nil, errors.New("journal path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir journal dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite：单连接更稳定
	db.SetMaxIdleConns(1)

	j := &Journal{db: db}
	if err := j.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

// Close 关闭
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

func (j *Journal) migrate() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`
CREATE TABLE IF NOT EXISTS orders (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  environment TEXT NOT NULL,
  instrument TEXT NOT NULL,
  maker TEXT NOT NULL,
  is_buy INTEGER NOT NULL,
  amount TEXT NOT NULL,
  limit_price TEXT NOT NULL,
  salt TEXT NOT NULL,
  post_only INTEGER NOT NULL,
  order_ts INTEGER NOT NULL,
  signature TEXT NOT NULL,
  order_id TEXT,
  order_status TEXT,
  http_status INTEGER,
  error TEXT,
  created_at TEXT NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at DESC);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_maker_salt ON orders(environment, maker, salt);`,
	}
	for _, stmt := range stmts {
		if _, err := j.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
