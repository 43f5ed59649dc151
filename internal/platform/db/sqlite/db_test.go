package sqlite

import (
	"testing"

	"github.com/ogurasousui/company-lifecycle/internal/platform/config"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "plain file", path: "company.db", want: "company.db?_foreign_keys=on&_busy_timeout=5000"},
		{name: "uri with query", path: "file:x?mode=memory&cache=shared", want: "file:x?mode=memory&cache=shared&_foreign_keys=on&_busy_timeout=5000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dsn(tt.path); got != tt.want {
				t.Fatalf("dsn(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestOpen_SingleConnectionWithBusyTimeout(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:", MaxOpenConns: 10})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	if got := sqlDB.Stats().MaxOpenConnections; got != 1 {
		t.Fatalf("max open connections = %d, want 1", got)
	}

	var timeout int
	if err := db.Raw("PRAGMA busy_timeout").Scan(&timeout).Error; err != nil {
		t.Fatalf("busy_timeout: %v", err)
	}
	if timeout != busyTimeoutMillis {
		t.Fatalf("busy_timeout = %d, want %d", timeout, busyTimeoutMillis)
	}

	var foreignKeys int
	if err := db.Raw("PRAGMA foreign_keys").Scan(&foreignKeys).Error; err != nil {
		t.Fatalf("foreign_keys: %v", err)
	}
	if foreignKeys != 1 {
		t.Fatalf("foreign_keys = %d, want 1", foreignKeys)
	}

	// 素の :memory: でも 1 本のコネクションを使い回すので作ったテーブルが見え続ける。
	if err := db.AutoMigrate(&counter{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := db.Create(&counter{Value: i}).Error; err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	var count int64
	if err := db.Model(&counter{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
}
