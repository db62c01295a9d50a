package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/d2chub/internal"
	pkgconfig "github.com/starford/d2chub/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()

	configPath := cmd.String("config")
	load := pkgconfig.LoadOptional[internal.Config]
	if cmd.IsSet("config") {
		load = pkgconfig.Load[internal.Config]
	}
	if err := load(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cmd.IsSet("root") {
		cfg.Content.Root = cmd.String("root")
	}
	if cmd.IsSet("out") {
		cfg.Index.Output = cmd.String("out")
	}
	if cmd.IsSet("strict") {
		cfg.Index.Strict = cmd.Bool("strict")
	}
	if cmd.IsSet("parser") {
		cfg.Content.Parser = cmd.String("parser")
	}
	if cmd.IsSet("workers") {
		cfg.Index.Workers = int(cmd.Int("workers"))
	}
	if cmd.IsSet("sqlite") {
		cfg.SQLite.Path = cmd.String("sqlite")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func action(run func(context.Context, ...internal.Option) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return run(ctx, internal.WithConfig(cfg), internal.WithVersion(version))
	}
}

func flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to config file (.yaml or .toml)",
			DefaultText: "config/config.yaml",
			Value:       "config/config.yaml",
			Sources:     cli.EnvVars("APP_CONFIG_FILE"),
		},
		&cli.StringFlag{Name: "root", Usage: "Content root directory"},
		&cli.StringFlag{Name: "out", Usage: `Index output path, "-" for stdout`},
		&cli.BoolFlag{Name: "strict", Usage: "Fail on the first invalid content file"},
		&cli.StringFlag{Name: "parser", Usage: "Frontmatter parser: matter or simple"},
		&cli.IntFlag{Name: "workers", Usage: "Concurrent file parsers"},
		&cli.StringFlag{Name: "sqlite", Usage: "Write a SQLite snapshot to this path"},
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "d2chub",
		Usage:   "Build and serve the Design-to-Code Hub content index",
		Version: version,
		Flags:   flags(),
		Action:  action(internal.Build),
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "Validate content and write the search index",
				Flags:  flags(),
				Action: action(internal.Build),
			},
			{
				Name:   "serve",
				Usage:  "Serve the index over HTTP and rebuild on change",
				Flags:  flags(),
				Action: action(internal.Serve),
			},
			{
				Name:   "mcp",
				Usage:  "Serve the index to MCP clients over stdio",
				Flags:  flags(),
				Action: action(internal.ServeMCP),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
