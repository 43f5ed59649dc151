package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DriverPostgres は PostgreSQL を永続化先に使います。
	DriverPostgres = "postgres"
	// DriverSQLite は組み込みの SQLite を永続化先に使います。
	DriverSQLite = "sqlite"

	QueueDriverLog      = "log"
	QueueDriverKafka    = "kafka"
	QueueDriverRabbitMQ = "rabbitmq"
)

// Config はアプリケーション全体の設定を表現します。
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Mail      MailConfig      `yaml:"mail"`
	Queue     QueueConfig     `yaml:"queue"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig は gRPC サーバーに関する設定です。
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// HTTPConfig は HTTP サーバーに関する設定です。listen_addr が空の場合 HTTP は起動しません。
type HTTPConfig struct {
	ListenAddr         string        `yaml:"listen_addr"`
	ReadTimeout        time.Duration `yaml:"-"`
	WriteTimeout       time.Duration `yaml:"-"`
	ShutdownTimeout    time.Duration `yaml:"-"`
	ReadTimeoutRaw     string        `yaml:"read_timeout"`
	WriteTimeoutRaw    string        `yaml:"write_timeout"`
	ShutdownTimeoutRaw string        `yaml:"shutdown_timeout"`
}

// DatabaseConfig は永続化先への接続に関する設定です。
type DatabaseConfig struct {
	Driver             string        `yaml:"driver"`
	// Path は sqlite のファイルです。インメモリは "file:<name>?mode=memory&cache=shared" を指定します。
	Path               string        `yaml:"path"`
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	User               string        `yaml:"user"`
	Password           string        `yaml:"password"`
	Name               string        `yaml:"name"`
	SSLMode            string        `yaml:"ssl_mode"`
	MaxOpenConns       int           `yaml:"max_open_conns"`
	MaxIdleConns       int           `yaml:"max_idle_conns"`
	ConnMaxLifetime    time.Duration `yaml:"-"`
	ConnMaxIdleTime    time.Duration `yaml:"-"`
	ConnMaxLifetimeRaw string        `yaml:"conn_max_lifetime"`
	ConnMaxIdleTimeRaw string        `yaml:"conn_max_idle_time"`
}

// AuthConfig はベアラートークン検証の設定です。
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
}

// MailConfig は通知メール文面の設定です。
type MailConfig struct {
	Locale string `yaml:"locale"`
}

// QueueConfig は通知メールの送信キューの設定です。
type QueueConfig struct {
	Driver   string         `yaml:"driver"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
}

// KafkaConfig は Kafka プロデューサーの設定です。
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// RabbitMQConfig は RabbitMQ パブリッシャーの設定です。
type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
}

// LogConfig はロガーの設定です。
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// TelemetryConfig はトレース送信の設定です。
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
	Insecure    bool   `yaml:"insecure"`
}

// Load は指定されたパスから設定ファイルを読み込みます。
// ${VAR} 形式の記述は環境変数で置き換えてから解析します。
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(b))), &cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validateAndNormalize() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("config: server.listen_addr must be set")
	}

	if err := c.HTTP.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Database.validateAndNormalize(); err != nil {
		return err
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("config: auth.jwt_secret must be set")
	}
	if c.Mail.Locale == "" {
		c.Mail.Locale = "pl"
	}
	if err := c.Queue.validateAndNormalize(); err != nil {
		return err
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Telemetry.Enabled {
		if c.Telemetry.Endpoint == "" {
			return fmt.Errorf("config: telemetry.endpoint must be set when telemetry is enabled")
		}
		if c.Telemetry.ServiceName == "" {
			c.Telemetry.ServiceName = "company-lifecycle"
		}
	}

	return nil
}

func (h *HTTPConfig) validateAndNormalize() error {
	var err error
	if h.ReadTimeout, err = parseDurationOr(h.ReadTimeoutRaw, 10*time.Second); err != nil {
		return fmt.Errorf("config: http.read_timeout: %w", err)
	}
	if h.WriteTimeout, err = parseDurationOr(h.WriteTimeoutRaw, 10*time.Second); err != nil {
		return fmt.Errorf("config: http.write_timeout: %w", err)
	}
	if h.ShutdownTimeout, err = parseDurationOr(h.ShutdownTimeoutRaw, 5*time.Second); err != nil {
		return fmt.Errorf("config: http.shutdown_timeout: %w", err)
	}
	return nil
}

func (d *DatabaseConfig) validateAndNormalize() error {
	if d.Driver == "" {
		d.Driver = DriverPostgres
	}

	switch d.Driver {
	case DriverSQLite:
		if d.Path == "" {
			return fmt.Errorf("config: database.path must be set for sqlite")
		}
		return nil
	case DriverPostgres:
	default:
		return fmt.Errorf("config: database.driver %q is not supported", d.Driver)
	}

	if d.Host == "" {
		return fmt.Errorf("config: database.host must be set")
	}
	if d.Port == 0 {
		return fmt.Errorf("config: database.port must be set")
	}
	if d.User == "" {
		return fmt.Errorf("config: database.user must be set")
	}
	if d.Password == "" {
		return fmt.Errorf("config: database.password must be set")
	}
	if d.Name == "" {
		return fmt.Errorf("config: database.name must be set")
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}

	lifetime, err := parseDurationOr(d.ConnMaxLifetimeRaw, 0)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_lifetime: %w", err)
	}
	d.ConnMaxLifetime = lifetime

	idleTime, err := parseDurationOr(d.ConnMaxIdleTimeRaw, 0)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_idle_time: %w", err)
	}
	d.ConnMaxIdleTime = idleTime

	return nil
}

func (q *QueueConfig) validateAndNormalize() error {
	if q.Driver == "" {
		q.Driver = QueueDriverLog
	}

	switch q.Driver {
	case QueueDriverLog:
	case QueueDriverKafka:
		if len(q.Kafka.Brokers) == 0 {
			return fmt.Errorf("config: queue.kafka.brokers must be set")
		}
		if q.Kafka.Topic == "" {
			return fmt.Errorf("config: queue.kafka.topic must be set")
		}
	case QueueDriverRabbitMQ:
		if q.RabbitMQ.URL == "" {
			return fmt.Errorf("config: queue.rabbitmq.url must be set")
		}
		if q.RabbitMQ.RoutingKey == "" {
			return fmt.Errorf("config: queue.rabbitmq.routing_key must be set")
		}
	default:
		return fmt.Errorf("config: queue.driver %q is not supported", q.Driver)
	}

	return nil
}

func parseDurationOr(raw string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	return time.ParseDuration(raw)
}

// DSN は pgx 用の接続文字列を返します。認証情報はエスケープされます。
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": []string{d.SSLMode}}.Encode(),
	}
	return u.String()
}
