package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/go-couch-client/pkg/client"
	"github.com/robert-malhotra/go-couch-client/pkg/couch"
	"github.com/robert-malhotra/go-couch-client/pkg/transfer"
)

func newExportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Write every document as JSON Lines, ready for import",
		ArgsUsage: "<file.jsonl|-|s3://bucket/key>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "page-size",
				Usage: "Documents fetched per _all_docs request",
				Value: client.DefaultPageSize,
			},
			&cli.BoolFlag{
				Name:  "keep-rev",
				Usage: "Keep _rev fields (drop them to import into another database)",
			},
			&cli.BoolFlag{
				Name:  "design",
				Usage: "Include design documents",
			},
		},
		Action: exportAction,
	}
}

type exportOptions struct {
	keepRev bool
	design  bool
}

// exportDocs writes one JSON document per line and returns how many were
// written.
func exportDocs(w io.Writer, docs iter.Seq2[couch.DynamicDoc, error], opts exportOptions) (int64, error) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	var n int64
	for doc, err := range docs {
		if err != nil {
			return n, err
		}
		id, _ := doc.IDRev()
		if couch.IsDesignID(id) && !opts.design {
			continue
		}
		if !opts.keepRev {
			delete(doc, "_rev")
		}
		if err := enc.Encode(doc); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// exportSource streams the documents to export. Design documents come first
// when requested, since All leaves them out.
func exportSource(ctx context.Context, c *client.Client[couch.DynamicDoc], pageSize int, opts exportOptions) iter.Seq2[couch.DynamicDoc, error] {
	if !opts.design {
		return c.All(ctx, pageSize)
	}
	return func(yield func(couch.DynamicDoc, error) bool) {
		for _, seq := range []iter.Seq2[couch.DynamicDoc, error]{c.DesignDocs(ctx, pageSize), c.All(ctx, pageSize)} {
			for doc, err := range seq {
				if !yield(doc, err) || err != nil {
					return
				}
			}
		}
	}
}

func exportAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("expected 1 argument: destination")
	}
	c, _, err := newClientFromCommand(cmd)
	if err != nil {
		return err
	}

	opts := exportOptions{keepRev: cmd.Bool("keep-rev"), design: cmd.Bool("design")}
	var written int64
	err = transfer.Save(ctx, cmd.Args().First(), func(w io.Writer) error {
		n, err := exportDocs(w, exportSource(ctx, c, int(cmd.Int("page-size")), opts), opts)
		written = n
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "exported %s documents\n", humanize.Comma(written))
	return nil
}
