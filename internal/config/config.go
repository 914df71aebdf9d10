package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// 提取后端
const (
	BackendYTDLP  = "ytdlp"
	BackendNative = "native"
)

// Config 应用配置
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Redis     RedisConfig     `yaml:"redis"`
	Extractor ExtractorConfig `yaml:"extractor"`
	Cache     CacheConfig     `yaml:"cache"`
	CORS      CORSConfig      `yaml:"cors"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	KeepAlive KeepAliveConfig `yaml:"keepalive"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port           int           `yaml:"port"`
	GRPCPort       int           `yaml:"grpc_port"` // gRPC 健康检查端口, 0 表示关闭
	Mode           string        `yaml:"mode"`      // debug, release
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"` // 单个请求的提取总时限, 须小于 WriteTimeout
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// ExtractorConfig 提取器配置, 启动后不再变化
type ExtractorConfig struct {
	Backend            string   `yaml:"backend"` // ytdlp, native
	BinaryPath         string   `yaml:"binary_path"`
	Format             string   `yaml:"format"`
	CookieFile         string   `yaml:"cookie_file"`
	CreateCookieFile   bool     `yaml:"create_cookie_file"` // 启动时若不存在则创建空文件
	Retries            int      `yaml:"retries"`
	SocketTimeout      int      `yaml:"socket_timeout"` // 秒
	Timeout            int      `yaml:"timeout"`        // 单次提取进程超时(秒)
	NoCheckCertificate bool     `yaml:"no_check_certificate"`
	GeoBypass          bool     `yaml:"geo_bypass"`
	PlaylistItems      string   `yaml:"playlist_items"`
	IgnoreErrors       bool     `yaml:"ignore_errors"`
	MaxConcurrent      int      `yaml:"max_concurrent"`
	Proxy              string   `yaml:"proxy"`
	ExtraArgs          []string `yaml:"extra_args"`
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	TTL     int  `yaml:"ttl"` // 缓存TTL(秒), 流地址会过期, 不宜过长
}

// CORSConfig CORS 配置
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
	MaxAge         int      `yaml:"max_age"`
}

// RateLimitConfig 限流配置, GlobalRPS 为 0 时关闭
type RateLimitConfig struct {
	GlobalRPS int `yaml:"global_rps"`
	IPRPS     int `yaml:"ip_rps"`
	Burst     int `yaml:"burst"`
}

// KeepAliveConfig 自 ping 配置
type KeepAliveConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"url"`
	Interval int    `yaml:"interval"` // 秒
	Timeout  int    `yaml:"timeout"`  // 秒
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default 默认配置
func Default() *Config {
	cfg := newConfig()
	applyDefaults(cfg)
	return cfg
}

// newConfig 只带布尔默认值的配置; 其余默认值在读取文件后补齐, 以便派生值跟随文件中的设置
func newConfig() *Config {
	cfg := &Config{}
	cfg.Extractor.CreateCookieFile = true
	cfg.Extractor.GeoBypass = true
	cfg.Extractor.IgnoreErrors = true
	return cfg
}

// LoadConfig 加载配置文件, 文件不存在时使用默认配置
func LoadConfig(configPath string) (*Config, error) {
	cfg := newConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// 使用默认值
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv 从环境变量覆盖配置
func applyEnv(cfg *Config) error {
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		cfg.Server.Port = p
	}
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		cfg.Server.Mode = mode
	}
	if cookieFile := os.Getenv("COOKIE_FILE"); cookieFile != "" {
		cfg.Extractor.CookieFile = cookieFile
	}
	if binary := os.Getenv("YTDLP_PATH"); binary != "" {
		cfg.Extractor.BinaryPath = binary
	}

	// Redis 配置
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		cfg.Redis.Addr = redisAddr
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		cfg.Redis.Password = redisPassword
	}

	if url := os.Getenv("KEEPALIVE_URL"); url != "" {
		cfg.KeepAlive.URL = url
		cfg.KeepAlive.Enabled = true
	}

	return nil
}

// applyDefaults 设置默认值
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 90 * time.Second
	}
	if cfg.Server.RequestTimeout == 0 {
		// 留出写响应的余量
		cfg.Server.RequestTimeout = cfg.Server.WriteTimeout * 9 / 10
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = 1 << 20
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 10
	}

	if cfg.Extractor.Backend == "" {
		cfg.Extractor.Backend = BackendYTDLP
	}
	if cfg.Extractor.BinaryPath == "" {
		cfg.Extractor.BinaryPath = "yt-dlp"
	}
	if cfg.Extractor.Format == "" {
		cfg.Extractor.Format = "bestaudio/best"
	}
	if cfg.Extractor.CookieFile == "" {
		cfg.Extractor.CookieFile = "cookies.txt"
	}
	if cfg.Extractor.Retries == 0 {
		cfg.Extractor.Retries = 3
	}
	if cfg.Extractor.SocketTimeout == 0 {
		cfg.Extractor.SocketTimeout = 30
	}
	if cfg.Extractor.Timeout == 0 {
		cfg.Extractor.Timeout = 60
	}
	if cfg.Extractor.PlaylistItems == "" {
		cfg.Extractor.PlaylistItems = "1"
	}
	if cfg.Extractor.MaxConcurrent == 0 {
		cfg.Extractor.MaxConcurrent = 10
	}

	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 300
	}

	if cfg.RateLimit.IPRPS == 0 {
		cfg.RateLimit.IPRPS = 5
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = 10
	}

	if cfg.KeepAlive.Interval == 0 {
		cfg.KeepAlive.Interval = 840
	}
	if cfg.KeepAlive.Timeout == 0 {
		cfg.KeepAlive.Timeout = 10
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	switch c.Extractor.Backend {
	case BackendYTDLP, BackendNative:
	default:
		return fmt.Errorf("unknown extractor backend %q", c.Extractor.Backend)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 {
		return fmt.Errorf("invalid grpc port %d", c.Server.GRPCPort)
	}
	if c.Server.RequestTimeout <= 0 || c.Server.RequestTimeout >= c.Server.WriteTimeout {
		return fmt.Errorf("request timeout %v must be positive and below write timeout %v",
			c.Server.RequestTimeout, c.Server.WriteTimeout)
	}
	if c.KeepAlive.Enabled && c.KeepAlive.URL == "" {
		return errors.New("keepalive enabled but no url configured")
	}
	return nil
}

// GetCacheTTL 获取缓存TTL时间
func (c *CacheConfig) GetCacheTTL() time.Duration {
	return time.Duration(c.TTL) * time.Second
}

// GetTimeout 获取超时时间
func (c *ExtractorConfig) GetTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// GetInterval 获取 ping 间隔
func (c *KeepAliveConfig) GetInterval() time.Duration {
	return time.Duration(c.Interval) * time.Second
}

// GetTimeout 获取 ping 超时
func (c *KeepAliveConfig) GetTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}
