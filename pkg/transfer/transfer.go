// Package transfer moves JSON Lines dumps between CouchDB tooling and local
// files, HTTP endpoints or S3 buckets.
package transfer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Stdio is the location that means stdin for Open and stdout for Save.
const Stdio = "-"

type ProgressFunc func(transferred, total int64)

// Open returns a reader for location and its size, or -1 when unknown.
// location is a path, "-", an http(s) URL or s3://bucket/key.
func Open(ctx context.Context, location string) (io.ReadCloser, int64, error) {
	if location == Stdio {
		return io.NopCloser(os.Stdin), -1, nil
	}
	u, err := url.Parse(location)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Not a URL, or a Windows drive letter.
		return openFile(location)
	}

	switch u.Scheme {
	case "file":
		return openFile(u.Path)
	case "http", "https":
		return openHTTP(ctx, location)
	case "s3":
		return openS3(ctx, u)
	default:
		return nil, 0, fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
	}
}

func openFile(path string) (io.ReadCloser, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, info.Size(), nil
}

func openHTTP(ctx context.Context, location string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch %s: %w", location, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, 0, fmt.Errorf("failed to fetch %s: unexpected status code %d", location, resp.StatusCode)
	}
	return resp.Body, resp.ContentLength, nil
}

// SplitS3URL returns the bucket and key of an s3://bucket/key URL.
func SplitS3URL(u *url.URL) (bucket, key string, err error) {
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 URL %q needs a bucket and a key", u.String())
	}
	return bucket, key, nil
}

func newS3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

func openS3(ctx context.Context, u *url.URL) (io.ReadCloser, int64, error) {
	bucket, key, err := SplitS3URL(u)
	if err != nil {
		return nil, 0, err
	}
	client, err := newS3Client(ctx)
	if err != nil {
		return nil, 0, err
	}
	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to download from S3: %w", err)
	}
	return result.Body, aws.ToInt64(result.ContentLength), nil
}

// Save runs write against the destination location: "-", a path or
// s3://bucket/key. Local files are removed when write fails. S3 uploads are
// staged in a temporary file so the object length is known.
func Save(ctx context.Context, location string, write func(io.Writer) error) error {
	if location == Stdio {
		return write(os.Stdout)
	}
	u, err := url.Parse(location)
	if err == nil && u.Scheme == "s3" {
		return saveS3(ctx, u, write)
	}
	if err == nil && u.Scheme == "file" {
		location = u.Path
	}
	return saveFile(location, write)
}

func saveFile(path string, write func(io.Writer) error) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	return write(out)
}

func saveS3(ctx context.Context, u *url.URL, write func(io.Writer) error) error {
	bucket, key, err := SplitS3URL(u)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp("", "couch-export-*.jsonl")
	if err != nil {
		return fmt.Errorf("failed to create staging file: %w", err)
	}
	defer func() {
		tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	if err := write(tmp); err != nil {
		return err
	}
	size, err := tmp.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return err
	}

	client, err := newS3Client(ctx)
	if err != nil {
		return err
	}
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          tmp,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String("application/x-ndjson"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

type progressReader struct {
	ctx      context.Context
	r        io.Reader
	total    int64
	read     int64
	progress ProgressFunc
}

// WithProgress reports every read from r to progress. Reads fail once ctx is
// done.
func WithProgress(ctx context.Context, r io.Reader, total int64, progress ProgressFunc) io.Reader {
	if progress == nil {
		return r
	}
	progress(0, total)
	return &progressReader{ctx: ctx, r: r, total: total, progress: progress}
}

func (p *progressReader) Read(buf []byte) (int, error) {
	if err := p.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := p.r.Read(buf)
	if n > 0 {
		p.read += int64(n)
		p.progress(p.read, p.total)
	}
	return n, err
}
