package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	content := `
serial:
  device: /dev/ttyS3
  read_timeout: 2s
server:
  host: 0.0.0.0
  port: 5555
  max_connections: 8
  write_timeout: 10s
  open_on_start: true
colors:
  foreground: "#202020"
  background: "#e0e0e0"
redis:
  enabled: true
  addr: redis.lab:6379
  channel: lab_events
log:
  level: debug
monitor:
  enabled: false
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	if cfg.Serial.Device != "/dev/ttyS3" || cfg.Serial.ReadTimeout != 2*time.Second {
		t.Errorf("串口配置错误: %+v", cfg.Serial)
	}
	if cfg.Server.Port != 5555 || cfg.Server.MaxConnections != 8 || !cfg.Server.OpenOnStart {
		t.Errorf("服务器配置错误: %+v", cfg.Server)
	}
	if cfg.Colors.Foreground != "#202020" || cfg.Colors.Background != "#e0e0e0" {
		t.Errorf("颜色配置错误: %+v", cfg.Colors)
	}
	if !cfg.Redis.Enabled || cfg.Redis.Channel != "lab_events" {
		t.Errorf("Redis 配置错误: %+v", cfg.Redis)
	}
	if cfg.Log.Level != "debug" || cfg.Monitor.Enabled {
		t.Errorf("日志/监控配置错误: %+v %+v", cfg.Log, cfg.Monitor)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("缺失文件应返回错误")
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("serial: [порт"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("畸形 YAML 应返回错误")
	}
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if cfg.Serial.Device != "/dev/ttyUSB0" {
		t.Errorf("默认串口设备错误: %s", cfg.Serial.Device)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 5025 {
		t.Errorf("默认监听地址错误: %s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.Colors.Foreground != "#000000" || cfg.Colors.Background != "#ffffff" {
		t.Errorf("默认颜色错误: %+v", cfg.Colors)
	}
	if cfg.Redis.Enabled {
		t.Error("Redis 默认应关闭")
	}
	if cfg.Server.OpenOnStart {
		t.Error("默认应惰性打开串口")
	}
}
