package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

type redisConfig struct{ url string }

func (c redisConfig) GetRedisURL() string       { return c.url }
func (c redisConfig) GetRedisTLSInsecure() bool { return false }
func (c redisConfig) GetAsynqQueueName() string { return "default" }
func (c redisConfig) GetAsynqConcurrency() int  { return 1 }

func TestParseOptions(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		insecure bool
		wantTLS  bool
		wantErr  bool
	}{
		{"plain", "redis://localhost:6379/2", false, false, false},
		{"tls", "rediss://cache.example.test:6380", false, true, false},
		{"insecure forces tls", "redis://localhost:6379", true, true, false},
		{"empty", "", false, false, true},
		{"bad scheme", "http://localhost", false, false, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			opt, err := ParseOptions(tc.url, tc.insecure)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if err != nil {
				return
			}
			if (opt.TLSConfig != nil) != tc.wantTLS {
				t.Fatalf("tls = %v, want %v", opt.TLSConfig != nil, tc.wantTLS)
			}
			if tc.insecure && !opt.TLSConfig.InsecureSkipVerify {
				t.Fatalf("expected InsecureSkipVerify")
			}
		})
	}
}

func TestNewClientPings(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()

	client, err := NewClient(context.Background(), redisConfig{url: "redis://" + addr})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	mr.Close()
	if _, err := NewClient(context.Background(), redisConfig{url: "redis://" + addr}); err == nil {
		t.Fatalf("expected error for unreachable redis")
	}
}
