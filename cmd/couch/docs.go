package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/go-couch-client/pkg/couch"
)

var revFlag = &cli.StringFlag{
	Name:    "rev",
	Aliases: []string{"r"},
	Usage:   "Document revision",
}

func newDocsCommand() *cli.Command {
	return &cli.Command{
		Name:  "docs",
		Usage: "Read and write single documents",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Fetch a document by ID",
				ArgsUsage: "<id>",
				Flags:     []cli.Flag{revFlag},
				Action:    getDocAction,
			},
			{
				Name:      "exists",
				Usage:     "Report whether a document exists",
				ArgsUsage: "<id>",
				Flags:     []cli.Flag{revFlag},
				Action:    existsDocAction,
			},
			{
				Name:      "create",
				Usage:     "Create a document from a JSON file or stdin",
				ArgsUsage: "[file|-]",
				Action:    createDocAction,
			},
			{
				Name:      "update",
				Usage:     "Replace a document with the JSON in a file or stdin",
				ArgsUsage: "<id> [file|-]",
				Flags:     []cli.Flag{revFlag},
				Action:    updateDocAction,
			},
			{
				Name:      "delete",
				Usage:     "Delete a document",
				ArgsUsage: "<id>",
				Flags:     []cli.Flag{revFlag},
				Action:    deleteDocAction,
			},
			{
				Name:      "copy",
				Usage:     "Copy a document to a new ID (random when omitted)",
				ArgsUsage: "<id> [new-id]",
				Action:    copyDocAction,
			},
		},
	}
}

func getDocAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("expected 1 argument: document id")
	}
	c, _, err := newClientFromCommand(cmd)
	if err != nil {
		return err
	}
	doc, err := c.Get(ctx, cmd.Args().First(), cmd.String(revFlag.Name))
	if err != nil {
		return err
	}
	return printJSON(doc)
}

func existsDocAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("expected 1 argument: document id")
	}
	c, _, err := newClientFromCommand(cmd)
	if err != nil {
		return err
	}
	ok, err := c.Exists(ctx, cmd.Args().First(), cmd.String(revFlag.Name))
	if err != nil {
		return err
	}
	return printJSON(map[string]bool{"exists": ok})
}

func createDocAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() > 1 {
		return fmt.Errorf("expected at most 1 argument: input file")
	}
	var doc couch.DynamicDoc
	if err := readJSONInput(cmd.Args().First(), &doc); err != nil {
		return err
	}
	c, _, err := newClientFromCommand(cmd)
	if err != nil {
		return err
	}
	result, err := c.Create(ctx, doc)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func updateDocAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() < 1 || cmd.Args().Len() > 2 {
		return fmt.Errorf("expected 1 or 2 arguments: document id and input file")
	}
	var doc couch.DynamicDoc
	if err := readJSONInput(cmd.Args().Get(1), &doc); err != nil {
		return err
	}
	rev := cmd.String(revFlag.Name)
	if rev == "" {
		_, rev = doc.IDRev()
	}
	c, _, err := newClientFromCommand(cmd)
	if err != nil {
		return err
	}
	result, err := c.Update(ctx, cmd.Args().First(), doc, rev)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func deleteDocAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("expected 1 argument: document id")
	}
	c, _, err := newClientFromCommand(cmd)
	if err != nil {
		return err
	}
	result, err := c.Delete(ctx, cmd.Args().First(), cmd.String(revFlag.Name))
	if err != nil {
		return err
	}
	return printJSON(result)
}

func copyDocAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() < 1 || cmd.Args().Len() > 2 {
		return fmt.Errorf("expected 1 or 2 arguments: document id and new id")
	}
	c, _, err := newClientFromCommand(cmd)
	if err != nil {
		return err
	}
	result, err := c.Copy(ctx, cmd.Args().First(), cmd.Args().Get(1))
	if err != nil {
		return err
	}
	return printJSON(result)
}
