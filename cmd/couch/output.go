package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
)

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(data))
	return err
}

func marshalDoc[T any](doc T) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

func printJSONArray(entries [][]byte) error {
	if _, err := fmt.Fprintln(os.Stdout, "["); err != nil {
		return err
	}
	for i, entry := range entries {
		if i > 0 {
			if _, err := fmt.Fprintln(os.Stdout, ","); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(os.Stdout, string(entry)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(os.Stdout, "]")
	return err
}

func printDocs[T any](docs []T) error {
	entries := make([][]byte, 0, len(docs))
	for _, doc := range docs {
		data, err := marshalDoc(doc)
		if err != nil {
			return err
		}
		entries = append(entries, data)
	}
	return printJSONArray(entries)
}

const interactivePageSize = 10

// printJSONArrayInteractive streams seq as a JSON array, pausing every
// interactivePageSize entries until the user presses Enter or types q.
func printJSONArrayInteractive[T any](seq iter.Seq2[T, error], in io.Reader) error {
	if _, err := fmt.Fprintln(os.Stdout, "["); err != nil {
		return err
	}

	reader := bufio.NewReader(in)
	var (
		printedAny bool
		processed  int
		iterErr    error
	)

	for doc, err := range seq {
		if err != nil {
			iterErr = err
			break
		}
		data, err := marshalDoc(doc)
		if err != nil {
			iterErr = err
			break
		}
		if printedAny {
			if _, err := fmt.Fprintln(os.Stdout, ","); err != nil {
				iterErr = err
				break
			}
		}
		if _, err := fmt.Fprintln(os.Stdout, string(data)); err != nil {
			iterErr = err
			break
		}
		printedAny = true
		processed++

		if processed%interactivePageSize != 0 {
			continue
		}
		if _, err := fmt.Fprint(os.Stderr, "Press Enter to continue, or type 'q' to quit: "); err != nil {
			iterErr = err
			break
		}
		input, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				continue
			}
			iterErr = err
			break
		}
		if strings.EqualFold(strings.TrimSpace(input), "q") {
			break
		}
	}

	if _, err := fmt.Fprintln(os.Stdout, "]"); err != nil && iterErr == nil {
		iterErr = err
	}
	return iterErr
}

// readJSONInput reads a JSON document from path, or stdin when path is "-"
// or empty.
func readJSONInput(path string, v any) error {
	var r io.Reader = os.Stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", inputName(path), err)
	}
	return nil
}

func inputName(path string) string {
	if path == "" || path == "-" {
		return "stdin"
	}
	return path
}

// printProgress returns a transfer.ProgressFunc that redraws one stderr line.
func printProgress(verb string) func(done, total int64) {
	return func(done, total int64) {
		if total > 0 {
			fmt.Fprintf(os.Stderr, "\r%s %s of %s", verb, humanize.IBytes(uint64(done)), humanize.IBytes(uint64(total)))
		} else {
			fmt.Fprintf(os.Stderr, "\r%s %s", verb, humanize.IBytes(uint64(done)))
		}
		if total > 0 && done >= total {
			fmt.Fprintln(os.Stderr)
		}
	}
}
