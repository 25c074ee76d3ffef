package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/panjf2000/ants/v2"
	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/go-couch-client/pkg/couch"
	"github.com/robert-malhotra/go-couch-client/pkg/transfer"
)

const defaultImportWorkers = 8

// maxImportErrors caps the failures kept for the final report.
const maxImportErrors = 20

func newImportCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Create one document per line of a JSON Lines source",
		ArgsUsage: "<file.jsonl|-|https://...|s3://bucket/key>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Number of concurrent create requests",
				Value: defaultImportWorkers,
			},
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "Report bytes read on stderr",
			},
		},
		Action: importAction,
	}
}

type importStats struct {
	Lines   int64 `json:"lines"`
	Created int64 `json:"created"`
	Failed  int64 `json:"failed"`
}

type createFunc func(ctx context.Context, doc couch.DynamicDoc) error

// importDocs decodes r line by line and hands every document to create on a
// pool of workers. Blank lines are skipped. Decode and create failures are
// counted; the returned error joins the first maxImportErrors of them.
func importDocs(ctx context.Context, r io.Reader, workers int, create createFunc) (importStats, error) {
	if workers <= 0 {
		workers = defaultImportWorkers
	}

	var (
		stats   importStats
		created atomic.Int64
		failed  atomic.Int64
		mu      sync.Mutex
		errs    []error
		wg      sync.WaitGroup
	)
	record := func(err error) {
		failed.Add(1)
		mu.Lock()
		defer mu.Unlock()
		if len(errs) < maxImportErrors {
			errs = append(errs, err)
		}
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return stats, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		stats.Lines++
		lineNo := stats.Lines

		var doc couch.DynamicDoc
		dec := json.NewDecoder(bytes.NewReader(line))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			record(fmt.Errorf("line %d: %w", lineNo, err))
			continue
		}

		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			defer func() {
				if v := recover(); v != nil {
					record(fmt.Errorf("line %d: panic: %v", lineNo, v))
				}
			}()
			if err := create(ctx, doc); err != nil {
				record(fmt.Errorf("line %d: %w", lineNo, err))
				return
			}
			created.Add(1)
		}); err != nil {
			wg.Done()
			record(fmt.Errorf("line %d: %w", lineNo, err))
		}
	}
	wg.Wait()

	stats.Created = created.Load()
	stats.Failed = failed.Load()
	if err := scanner.Err(); err != nil {
		return stats, err
	}
	if err := ctx.Err(); err != nil {
		return stats, err
	}
	return stats, errors.Join(errs...)
}

func importAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("expected 1 argument: input file")
	}
	c, _, err := newClientFromCommand(cmd)
	if err != nil {
		return err
	}

	src, size, err := transfer.Open(ctx, cmd.Args().First())
	if err != nil {
		return err
	}
	defer src.Close()

	var in io.Reader = src
	if cmd.Bool("progress") {
		in = transfer.WithProgress(ctx, src, size, printProgress("read"))
	}

	stats, importErr := importDocs(ctx, in, int(cmd.Int("workers")), func(ctx context.Context, doc couch.DynamicDoc) error {
		_, err := c.Create(ctx, doc)
		return err
	})
	fmt.Fprintf(os.Stderr, "imported %s of %s documents (%s failed)\n",
		humanize.Comma(stats.Created), humanize.Comma(stats.Lines), humanize.Comma(stats.Failed))
	if importErr != nil {
		return importErr
	}
	return printJSON(stats)
}
