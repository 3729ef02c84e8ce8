package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Serial  SerialConfig  `yaml:"serial"`
	Server  ServerConfig  `yaml:"server"`
	Colors  ColorConfig   `yaml:"colors"`
	Redis   RedisConfig   `yaml:"redis"`
	Log     LogConfig     `yaml:"log"`
	Monitor MonitorConfig `yaml:"monitor"`
}

type SerialConfig struct {
	Device      string        `yaml:"device"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	MaxConnections int           `yaml:"max_connections"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	KeepAlive      time.Duration `yaml:"keep_alive"`
	OpenOnStart    bool          `yaml:"open_on_start"` // 启动时立即打开串口,否则首条命令时惰性打开
}

type ColorConfig struct {
	Foreground string `yaml:"foreground"` // 置位像素颜色 #rrggbb
	Background string `yaml:"background"` // 背景颜色 #rrggbb
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
	Channel  string `yaml:"channel"`
}

type LogConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type MonitorConfig struct {
	Enabled     bool `yaml:"enabled"`
	MetricsPort int  `yaml:"metrics_port"`
}

// LoadConfig 加载配置文件
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	return &config, nil
}

// GetDefaultConfig 返回默认配置
func GetDefaultConfig() *Config {
	return &Config{
		Serial: SerialConfig{
			Device:      "/dev/ttyUSB0",
			ReadTimeout: time.Second,
		},
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           5025,
			MaxConnections: 32,
			WriteTimeout:   30 * time.Second,
			KeepAlive:      180 * time.Second,
			OpenOnStart:    false,
		},
		Colors: ColorConfig{
			Foreground: "#000000",
			Background: "#ffffff",
		},
		Redis: RedisConfig{
			Enabled:  false,
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			PoolSize: 10,
			Channel:  "scopegrab_events",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
		Monitor: MonitorConfig{
			Enabled:     true,
			MetricsPort: 9090,
		},
	}
}
