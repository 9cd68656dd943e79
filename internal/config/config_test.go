package config

import (
	"testing"
	"time"
)

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	t.Setenv("RATE_LIMIT_BURST", "")

	cfg := LoadRateLimitConfig()
	if cfg.Capacity != 1 {
		t.Fatalf("capacity = %d, want 1", cfg.Capacity)
	}
	if cfg.TTL != 10*time.Second {
		t.Fatalf("ttl = %s, want 10s", cfg.TTL)
	}
}

func TestLoadDefaults(t *testing.T) {
	for k, v := range map[string]string{
		"APP_ENV": "test", "APP_PORT": "8080", "DB_USER": "app", "DB_HOST": "localhost",
		"DB_PORT": "3306", "DB_NAME": "rides", "JWT_SECRET": "s3cret",
		"ACCESS_TOKEN_TTL_MIN": "15", "REFRESH_TOKEN_TTL_DAYS": "7", "BCRYPT_COST": "10",
		"LOCK_WAIT_TIMEOUT_SEC": "", "NOTIFY_QUEUE": "", "RABBITMQ_URL": "", "AMQP_URL": "amqp://guest:guest@mq:5672/",
	} {
		t.Setenv(k, v)
	}

	cfg := Load()
	if cfg.LockWaitSec != 5 {
		t.Fatalf("lock wait = %d, want 5", cfg.LockWaitSec)
	}
	if cfg.NotifyQueue != "ride.notifications" {
		t.Fatalf("queue = %q", cfg.NotifyQueue)
	}
	if cfg.AMQPURL != "amqp://guest:guest@mq:5672/" {
		t.Fatalf("amqp url = %q, want AMQP_URL fallback", cfg.AMQPURL)
	}
	if !cfg.Cache.Methods["GET"] {
		t.Fatal("GET is not cached by default")
	}
}
