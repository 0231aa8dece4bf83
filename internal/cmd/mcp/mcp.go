// Package mcp parses MCP command configuration and starts the Cuti-E adapter.
package mcp

import (
	"context"
	"flag"
	"log"
	"strings"
	"time"

	entrypoint "github.com/cuti-e/cutie-mcp/internal/platform/cmd"
	"github.com/cuti-e/cutie-mcp/internal/services/mcp/cutieapi"
	"github.com/cuti-e/cutie-mcp/internal/services/mcp/service"
)

// Config holds MCP command configuration.
type Config struct {
	APIKey       string        `env:"CUTIE_API_KEY"`
	APIURL       string        `env:"CUTIE_API_URL"           envDefault:"https://api.cuti-e.com"`
	APITimeout   time.Duration `env:"CUTIE_API_TIMEOUT"       envDefault:"30s"`
	Transport    string        `env:"CUTIE_MCP_TRANSPORT"     envDefault:"stdio"`
	HTTPAddr     string        `env:"CUTIE_MCP_HTTP_ADDR"     envDefault:"localhost:8081"`
	HTTPToken    string        `env:"CUTIE_MCP_HTTP_TOKEN"`
	AllowedHosts []string      `env:"CUTIE_MCP_ALLOWED_HOSTS" envSeparator:","`
}

// ParseConfig parses environment and flags into a Config. A nil environ
// reads the process environment.
func ParseConfig(fs *flag.FlagSet, args []string, environ map[string]string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg, environ); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.APIURL, "api-url", cfg.APIURL, "Cuti-E API base URL")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address (for HTTP transport)")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport type: stdio or http")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports configuration the adapter cannot start without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return cutieapi.ErrAPIKeyRequired
	}
	return nil
}

// Run starts the MCP protocol adapter and blocks until ctx ends or the
// client disconnects.
func Run(ctx context.Context, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	metrics := service.NewMetrics()
	client, err := cutieapi.New(cfg.APIURL, cfg.APIKey,
		cutieapi.WithTimeout(cfg.APITimeout),
		cutieapi.WithUserAgent(entrypoint.ServiceMCP+"/"+service.Version()),
		cutieapi.WithObserver(metrics),
	)
	if err != nil {
		return err
	}

	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMCP, func(ctx context.Context) error {
		transport := service.TransportKind(strings.ToLower(strings.TrimSpace(cfg.Transport)))
		if transport == "" || transport == service.TransportStdio {
			log.Printf("Cuti-E MCP server running on stdio")
		}
		return service.Run(ctx, client, metrics, service.Config{
			Transport:    transport,
			HTTPAddr:     cfg.HTTPAddr,
			AuthToken:    cfg.HTTPToken,
			AllowedHosts: cfg.AllowedHosts,
		})
	})
}
