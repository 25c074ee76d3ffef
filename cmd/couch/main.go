package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/go-couch-client/internal/config"
	"github.com/robert-malhotra/go-couch-client/internal/logger"
	"github.com/robert-malhotra/go-couch-client/pkg/client"
	"github.com/robert-malhotra/go-couch-client/pkg/couch"
)

var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to a config file (yaml, json or toml)",
	}
	urlFlag = &cli.StringFlag{
		Name:    "url",
		Aliases: []string{"u"},
		Usage:   "CouchDB base URL (default http://localhost:5984)",
	}
	dbFlag = &cli.StringFlag{
		Name:    "db",
		Aliases: []string{"d"},
		Usage:   "Database name",
	}
	userFlag = &cli.StringFlag{
		Name:  "user",
		Usage: "Username for basic authentication",
	}
	passwordFlag = &cli.StringFlag{
		Name:  "password",
		Usage: "Password for basic authentication",
	}
	timeoutFlag = &cli.DurationFlag{
		Name:    "timeout",
		Aliases: []string{"t"},
		Usage:   "HTTP client timeout (e.g. 30s, 1m)",
	}
	logLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "Log level: debug, info, warn or error",
	}
)

func main() {
	cmd := &cli.Command{
		Name:  "couch",
		Usage: "Query and manage a CouchDB database",
		Flags: []cli.Flag{
			configFlag, urlFlag, dbFlag, userFlag, passwordFlag, timeoutFlag, logLevelFlag,
		},
		Commands: []*cli.Command{
			newDocsCommand(),
			newFindCommand(),
			newCountCommand(),
			newListCommand(),
			newViewCommand(),
			newSelectorCommand(),
			newImportCommand(),
			newExportCommand(),
			newDBCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// configFromCommand loads the config file and environment, then applies the
// flags that were set explicitly.
func configFromCommand(cmd *cli.Command) (*config.Config, error) {
	overrides := make(map[string]any)
	for key, flag := range map[string]string{
		"url":       urlFlag.Name,
		"database":  dbFlag.Name,
		"username":  userFlag.Name,
		"password":  passwordFlag.Name,
		"log.level": logLevelFlag.Name,
	} {
		if cmd.IsSet(flag) {
			overrides[key] = cmd.String(flag)
		}
	}
	if cmd.IsSet(timeoutFlag.Name) {
		overrides["timeout"] = cmd.Duration(timeoutFlag.Name)
	}

	cfg, err := config.Load(cmd.String(configFlag.Name), overrides)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newClientFromCommand(cmd *cli.Command) (*client.Client[couch.DynamicDoc], *config.Config, error) {
	cfg, err := configFromCommand(cmd)
	if err != nil {
		return nil, nil, err
	}

	log := logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	opts := append(cfg.ClientOptions(), client.WithLogger(logger.ClientLogger(log)))
	c, err := client.New[couch.DynamicDoc](opts...)
	if err != nil {
		return nil, nil, err
	}
	return c, cfg, nil
}
