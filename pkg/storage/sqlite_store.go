package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite"
)

// SQLiteStore 基于 SQLite 单文件的键值存储
//
// 适合需要与宿主其他数据共库、或要求崩溃一致性的场景。
// 纯 Go 驱动（modernc.org/sqlite），无 CGO 依赖，可随移动端打包。
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore 打开（必要时创建）SQLite 存储
//
// 参数：
//   - ctx: 控制打开与建表的超时
//   - path: 数据库文件路径，父目录不存在时自动创建
//
// 返回：
//   - *SQLiteStore: 存储实例，用毕需 Close
//   - error: 打开、连通性检查或建表失败
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("创建数据库目录失败: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("打开 sqlite 失败: %w", err)
	}
	// modernc sqlite 单写者，限制单连接避免 SQLITE_BUSY
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite 连通性检查失败: %w", err)
	}
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("初始化 kv 表失败: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close 关闭数据库连接
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// GetString 读取字符串值
func (s *SQLiteStore) GetString(ctx context.Context, key string) (string, bool, error) {
	var val string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("查询键 %s 失败: %w", key, err)
	}
	return val, true, nil
}

// SetString 写入字符串值
func (s *SQLiteStore) SetString(ctx context.Context, key, val string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO kv(key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value
`, key, val)
	if err != nil {
		return fmt.Errorf("写入键 %s 失败: %w", key, err)
	}
	return nil
}

// GetBool 读取布尔值
func (s *SQLiteStore) GetBool(ctx context.Context, key string) (bool, bool, error) {
	val, ok, err := s.GetString(ctx, key)
	if err != nil || !ok {
		return false, ok, err
	}
	return val == "true", true, nil
}

// SetBool 写入布尔值
func (s *SQLiteStore) SetBool(ctx context.Context, key string, val bool) error {
	return s.SetString(ctx, key, strconv.FormatBool(val))
}

// GetFloat64 读取浮点值
func (s *SQLiteStore) GetFloat64(ctx context.Context, key string) (float64, bool, error) {
	val, ok, err := s.GetString(ctx, key)
	if err != nil || !ok {
		return 0, ok, err
	}
	f, perr := strconv.ParseFloat(val, 64)
	if perr != nil {
		return 0, true, fmt.Errorf("键 %s 不是合法浮点值: %w", key, perr)
	}
	return f, true, nil
}

// SetFloat64 写入浮点值
func (s *SQLiteStore) SetFloat64(ctx context.Context, key string, val float64) error {
	return s.SetString(ctx, key, strconv.FormatFloat(val, 'f', -1, 64))
}
