package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/go-couch-client/internal/logger"
	"github.com/robert-malhotra/go-couch-client/pkg/couch"
	"github.com/robert-malhotra/go-couch-client/pkg/provision"
)

func newDBCommand() *cli.Command {
	return &cli.Command{
		Name:  "db",
		Usage: "Inspect and provision the database",
		Commands: []*cli.Command{
			{
				Name:  "info",
				Usage: "Show server version and database statistics",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Print raw JSON"},
				},
				Action: dbInfoAction,
			},
			{
				Name:  "provision",
				Usage: "Create the database, its Mango index and design documents",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "indexes",
						Usage: "Fields of the Mango index (repeatable or comma separated)",
					},
					&cli.StringFlag{
						Name:  "design-docs",
						Usage: "JSON file describing design documents and their views",
					},
					&cli.IntFlag{
						Name:  "retries",
						Usage: "Retry count for provisioning requests",
						Value: 2,
					},
				},
				Action: dbProvisionAction,
			},
		},
	}
}

func dbInfoAction(ctx context.Context, cmd *cli.Command) error {
	c, _, err := newClientFromCommand(cmd)
	if err != nil {
		return err
	}
	server, err := c.ServerInfo(ctx)
	if err != nil {
		return err
	}
	info, err := c.DatabaseInfo(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return printJSON(struct {
			Server   *couch.ServerInfo   `json:"server"`
			Database *couch.DatabaseInfo `json:"database"`
		}{server, info})
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Server\t%s %s\n", c.BaseURL(), server.Version)
	fmt.Fprintf(w, "Mango queries\t%t\n", couch.IsVersion2OrAbove(server.Version))
	fmt.Fprintf(w, "Database\t%s\n", info.Name)
	fmt.Fprintf(w, "Documents\t%s\n", humanize.Comma(info.DocCount))
	fmt.Fprintf(w, "Deleted\t%s\n", humanize.Comma(info.DelCount))
	fmt.Fprintf(w, "File size\t%s\n", humanize.IBytes(uint64(info.Sizes.File)))
	fmt.Fprintf(w, "Data size\t%s\n", humanize.IBytes(uint64(info.Sizes.External)))
	fmt.Fprintf(w, "Active size\t%s\n", humanize.IBytes(uint64(info.Sizes.Active)))
	return w.Flush()
}

func splitFields(values []string) []string {
	var fields []string
	for _, v := range values {
		for _, f := range strings.Split(v, ",") {
			if f = strings.TrimSpace(f); f != "" {
				fields = append(fields, f)
			}
		}
	}
	return fields
}

func dbProvisionAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := configFromCommand(cmd)
	if err != nil {
		return err
	}
	log := logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	var designDocs []couch.DesignDocConfig
	if path := cmd.String("design-docs"); path != "" {
		designDocs, err = provision.LoadDesignDocs(path)
		if err != nil {
			return err
		}
	}

	p, err := provision.New(provision.Options{
		URL:        cfg.URL,
		Database:   cfg.Database,
		Username:   cfg.Username,
		Password:   cfg.Password,
		RetryCount: int(cmd.Int("retries")),
		Timeout:    cfg.Timeout,
		Logger:     logger.ClientLogger(log),
	})
	if err != nil {
		return err
	}
	if err := p.ConfigureDatabase(ctx, splitFields(cmd.StringSlice("indexes")), designDocs); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "database %s is ready\n", cfg.Database)
	return nil
}
