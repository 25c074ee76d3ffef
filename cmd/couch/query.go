package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/go-couch-client/pkg/client"
	"github.com/robert-malhotra/go-couch-client/pkg/couch"
	"github.com/robert-malhotra/go-couch-client/pkg/mango"
)

var (
	whereFlag = &cli.StringFlag{
		Name:    "where",
		Aliases: []string{"w"},
		Usage:   `Predicate such as 'year >= 1990' or 'title.contains("Star")'`,
	}
	limitFlag = &cli.IntFlag{
		Name:    "limit",
		Aliases: []string{"n"},
		Usage:   "Maximum number of rows (0 for the server default)",
	}
	skipFlag = &cli.IntFlag{
		Name:  "skip",
		Usage: "Number of rows to skip",
	}
	interactiveFlag = &cli.BoolFlag{
		Name:    "interactive",
		Aliases: []string{"i"},
		Usage:   "Prompt between batches of results",
	}
)

func newFindCommand() *cli.Command {
	return &cli.Command{
		Name:  "find",
		Usage: "Find documents matching a predicate",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     whereFlag.Name,
				Aliases:  whereFlag.Aliases,
				Usage:    whereFlag.Usage,
				Required: true,
			},
			limitFlag,
			skipFlag,
			&cli.StringSliceFlag{
				Name:    "fields",
				Aliases: []string{"f"},
				Usage:   "Fields to return (repeatable)",
			},
			&cli.StringFlag{
				Name:  "use-index",
				Usage: "Design document of the index to use",
			},
		},
		Action: findAction,
	}
}

func newCountCommand() *cli.Command {
	return &cli.Command{
		Name:   "count",
		Usage:  "Count all documents, or those matching --where",
		Flags:  []cli.Flag{whereFlag},
		Action: countAction,
	}
}

func newListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List documents from _all_docs",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "docs",
				Usage: "Include document bodies",
			},
			limitFlag,
			skipFlag,
			&cli.StringFlag{Name: "start-key", Usage: "First document id to return"},
			&cli.StringFlag{Name: "end-key", Usage: "Last document id to return"},
			&cli.BoolFlag{Name: "descending", Usage: "Reverse the order"},
			interactiveFlag,
		},
		Action: listAction,
	}
}

func newViewCommand() *cli.Command {
	return &cli.Command{
		Name:      "view",
		Usage:     "Query a design document view",
		ArgsUsage: "<design> <view>",
		Flags: []cli.Flag{
			limitFlag,
			skipFlag,
			&cli.StringFlag{Name: "key", Usage: "JSON key to match"},
			&cli.BoolFlag{Name: "no-reduce", Usage: "Skip the reduce function"},
			&cli.BoolFlag{Name: "group", Usage: "Group reduce results by key"},
			&cli.IntFlag{Name: "group-level", Usage: "Group level for array keys"},
			&cli.BoolFlag{Name: "include-docs", Usage: "Include document bodies"},
		},
		Action: viewAction,
	}
}

func newSelectorCommand() *cli.Command {
	return &cli.Command{
		Name:  "selector",
		Usage: "Print the Mango selector for a predicate without contacting the server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     whereFlag.Name,
				Aliases:  whereFlag.Aliases,
				Usage:    whereFlag.Usage,
				Required: true,
			},
		},
		Action: selectorAction,
	}
}

func optionalInt(cmd *cli.Command, name string) *int {
	if !cmd.IsSet(name) {
		return nil
	}
	return couch.Ptr(int(cmd.Int(name)))
}

func findAction(ctx context.Context, cmd *cli.Command) error {
	pred, err := mango.ParseWhere[couch.DynamicDoc](cmd.String(whereFlag.Name))
	if err != nil {
		return err
	}
	c, _, err := newClientFromCommand(cmd)
	if err != nil {
		return err
	}

	opts := &couch.FindOptions{
		Fields: cmd.StringSlice("fields"),
		Limit:  optionalInt(cmd, limitFlag.Name),
		Skip:   optionalInt(cmd, skipFlag.Name),
	}
	if idx := cmd.String("use-index"); idx != "" {
		opts.UseIndex = idx
	}

	docs, err := c.Find(ctx, pred, opts)
	if err != nil {
		return err
	}
	return printDocs(docs)
}

func countAction(ctx context.Context, cmd *cli.Command) error {
	c, _, err := newClientFromCommand(cmd)
	if err != nil {
		return err
	}

	var n int
	if where := cmd.String(whereFlag.Name); where != "" {
		pred, err := mango.ParseWhere[couch.DynamicDoc](where)
		if err != nil {
			return err
		}
		n, err = c.CountByPredicate(ctx, pred)
		if err != nil {
			return err
		}
	} else {
		n, err = c.Count(ctx)
		if err != nil {
			return err
		}
	}
	return printJSON(map[string]int{"count": n})
}

func listAction(ctx context.Context, cmd *cli.Command) error {
	c, _, err := newClientFromCommand(cmd)
	if err != nil {
		return err
	}

	if cmd.Bool(interactiveFlag.Name) {
		pageSize := client.DefaultPageSize
		if cmd.IsSet(limitFlag.Name) {
			pageSize = int(cmd.Int(limitFlag.Name))
		}
		return printJSONArrayInteractive(c.All(ctx, pageSize), os.Stdin)
	}

	opts := &couch.ListOptions{
		Limit: optionalInt(cmd, limitFlag.Name),
		Skip:  optionalInt(cmd, skipFlag.Name),
	}
	if cmd.Bool("descending") {
		opts.Descending = couch.Ptr(true)
	}
	if key := cmd.String("start-key"); key != "" {
		opts.StartKey = key
	}
	if key := cmd.String("end-key"); key != "" {
		opts.EndKey = key
	}

	if !cmd.Bool("docs") {
		resp, err := c.ListWithoutDocs(ctx, opts)
		if err != nil {
			return err
		}
		return printJSON(resp)
	}
	resp, err := c.ListWithDocs(ctx, opts)
	if err != nil {
		return err
	}
	return printJSON(resp)
}

func viewAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 2 {
		return fmt.Errorf("expected 2 arguments: design document and view name")
	}
	c, _, err := newClientFromCommand(cmd)
	if err != nil {
		return err
	}

	opts := &couch.ViewOptions{IncludeDocs: cmd.Bool("include-docs")}
	opts.Limit = optionalInt(cmd, limitFlag.Name)
	opts.Skip = optionalInt(cmd, skipFlag.Name)
	if raw := cmd.String("key"); raw != "" {
		var key any
		if err := json.Unmarshal([]byte(raw), &key); err != nil {
			return fmt.Errorf("--key must be JSON: %w", err)
		}
		opts.Key = key
	}
	if cmd.Bool("no-reduce") {
		opts.Reduce = couch.Ptr(false)
	}
	if cmd.Bool("group") {
		opts.Group = couch.Ptr(true)
	}
	opts.GroupLevel = optionalInt(cmd, "group-level")

	resp, err := client.View[couch.DynamicDoc, json.RawMessage](ctx, c, cmd.Args().Get(0), cmd.Args().Get(1), opts)
	if err != nil {
		return err
	}
	return printJSON(resp)
}

type selectorOutput struct {
	Predicate string         `json:"predicate"`
	Selector  mango.Selector `json:"selector"`
	Fragment  string         `json:"fragment"`
}

func selectorAction(_ context.Context, cmd *cli.Command) error {
	pred, err := mango.ParseWhere[couch.DynamicDoc](cmd.String(whereFlag.Name))
	if err != nil {
		return err
	}
	sel, err := mango.Translate(pred)
	if err != nil {
		return err
	}
	fragment, err := sel.Fragment()
	if err != nil {
		return err
	}
	return printJSON(selectorOutput{Predicate: pred.String(), Selector: sel, Fragment: fragment})
}
