package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/ogurasousui/company-lifecycle/internal/platform/config"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// busyTimeoutMillis は書き込みロック待ちの上限です。
const busyTimeoutMillis = 5000

// Open は database.path の SQLite を gorm で開きます。ローカル開発とテスト向けです。
//
// SQLite の書き込みは同時に 1 つしか進まないため、コネクションプールは 1 本に固定します。
// インメモリで使う場合は "file:<name>?mode=memory&cache=shared" を指定してください。
// 素の ":memory:" はコネクションごとに別のデータベースになります。
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	if cfg.Driver != config.DriverSQLite {
		return nil, fmt.Errorf("sqlite: driver %q is not sqlite", cfg.Driver)
	}

	db, err := gorm.Open(sqlite.Open(dsn(cfg.Path)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", cfg.Path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite: underlying db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	return db, nil
}

// dsn は接続ごとに効かせたい PRAGMA をドライバのパラメータとして付け足します。
func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_foreign_keys=on&_busy_timeout=%d", path, sep, busyTimeoutMillis)
}

// Ping は接続の疎通を確認します。
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("sqlite: underlying db: %w", err)
	}
	return sqlDB.PingContext(ctx)
}
