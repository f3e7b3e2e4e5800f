// Package mentord parses mentor daemon flags and composes the service
// entrypoint.
package mentord

import (
	"context"
	"flag"
	"fmt"

	entrypoint "github.com/dhleesep9/gayoon/internal/platform/cmd"
	server "github.com/dhleesep9/gayoon/internal/services/mentor/app"
)

// Config holds mentor daemon configuration.
type Config struct {
	HTTPAddr     string `env:"GAYOON_HTTP_ADDR"      envDefault:":8080"`
	DBPath       string `env:"GAYOON_DB_PATH"        envDefault:"gayoon.db"`
	GeminiAPIKey string `env:"GAYOON_GEMINI_API_KEY"`
	GeminiModel  string `env:"GAYOON_GEMINI_MODEL"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "mentor HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "sqlite database path")
	fs.StringVar(&cfg.GeminiAPIKey, "gemini-api-key", cfg.GeminiAPIKey, "gemini api key")
	fs.StringVar(&cfg.GeminiModel, "gemini-model", cfg.GeminiModel, "gemini generative model name")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run builds the mentor app and serves it until the context ends.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMentor, func(context.Context) error {
		if err := server.Run(ctx, server.Config{
			HTTPAddr:     cfg.HTTPAddr,
			DBPath:       cfg.DBPath,
			GeminiAPIKey: cfg.GeminiAPIKey,
			GeminiModel:  cfg.GeminiModel,
		}); err != nil {
			return fmt.Errorf("serve mentor: %w", err)
		}
		return nil
	})
}
