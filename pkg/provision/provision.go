// Package provision prepares a CouchDB database for a client: it creates the
// database, its Mango indexes and the design documents that host views.
package provision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/robert-malhotra/go-couch-client/pkg/client"
	"github.com/robert-malhotra/go-couch-client/pkg/couch"
)

var (
	// ErrNoIndexFields is returned by CreateIndexes when no fields are given.
	ErrNoIndexFields = errors.New("provision: at least one index field is required")
	// ErrInvalidOptions is returned by New for a missing URL or database.
	ErrInvalidOptions = errors.New("provision: url and database are required")
)

// Logger matches resty's logger and the client's Logger.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Options configure a Provisioner.
type Options struct {
	URL        string
	Database   string
	Username   string
	Password   string
	RetryCount int
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     Logger
	OnWarning  func(string)
}

// Provisioner issues the administrative requests that set up a database.
type Provisioner struct {
	rc        *resty.Client
	db        string
	logger    Logger
	onWarning func(string)
}

// New builds a Provisioner from opts.
func New(opts Options) (*Provisioner, error) {
	u, err := url.Parse(opts.URL)
	if opts.URL == "" || err != nil || !u.IsAbs() || opts.Database == "" {
		return nil, ErrInvalidOptions
	}

	rc := resty.New()
	if opts.HTTPClient != nil {
		rc = resty.NewWithClient(opts.HTTPClient)
	}
	rc.SetHostURL(strings.TrimRight(opts.URL, "/")).
		SetHeader("Accept", "application/json").
		SetRetryCount(opts.RetryCount)
	if opts.Timeout > 0 {
		rc.SetTimeout(opts.Timeout)
	}
	if opts.Username != "" && opts.Password != "" {
		rc.SetBasicAuth(opts.Username, opts.Password)
	}
	if opts.Logger != nil {
		rc.SetLogger(opts.Logger)
	}

	return &Provisioner{
		rc:        rc,
		db:        opts.Database,
		logger:    opts.Logger,
		onWarning: opts.OnWarning,
	}, nil
}

func (p *Provisioner) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if p.logger != nil {
		p.logger.Warnf("provision: %s", msg)
	}
	if p.onWarning != nil {
		p.onWarning(msg)
	}
}

func (p *Provisioner) dbPath(parts ...string) string {
	return "/" + strings.Join(append([]string{url.PathEscape(p.db)}, parts...), "/")
}

func apiError(resp *resty.Response) *client.APIError {
	apiErr := &client.APIError{
		Status: resp.StatusCode(),
		Method: resp.Request.Method,
		URL:    resp.Request.URL,
		Raw:    resp.Body(),
	}
	if err := json.Unmarshal(resp.Body(), apiErr); err != nil {
		apiErr.Reason = resp.String()
	}
	return apiErr
}

// Version returns the CouchDB server version.
func (p *Provisioner) Version(ctx context.Context) (string, error) {
	var info couch.ServerInfo
	resp, err := p.rc.R().SetContext(ctx).SetResult(&info).Get("/")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", apiError(resp)
	}
	return info.Version, nil
}

// CreateDatabase creates the database. A 412 answer means it already existed
// and is reported through AlreadyExisted.
func (p *Provisioner) CreateDatabase(ctx context.Context) (*couch.CreateDatabaseResult, error) {
	var result couch.CreateDatabaseResult
	resp, err := p.rc.R().SetContext(ctx).SetResult(&result).Put(p.dbPath())
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode() == http.StatusPreconditionFailed:
		return &couch.CreateDatabaseResult{OK: true, AlreadyExisted: true}, nil
	case resp.IsError():
		return nil, apiError(resp)
	}
	return &result, nil
}

// IndexName is the name of the Mango index CreateIndexes maintains.
func (p *Provisioner) IndexName() string {
	return p.db + "-indexes"
}

// CreateIndexes creates or replaces a single json index over fields.
func (p *Provisioner) CreateIndexes(ctx context.Context, fields []string) error {
	if len(fields) == 0 {
		return ErrNoIndexFields
	}
	def := couch.IndexDefinition{Name: p.IndexName(), Type: "json"}
	def.Index.Fields = fields

	resp, err := p.rc.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(def).
		Post(p.dbPath("_index"))
	if err != nil {
		return err
	}
	if resp.IsError() {
		return apiError(resp)
	}
	return nil
}

// CreateDesignDocs makes sure every configured view exists with the
// configured map and reduce functions. Design documents are only written
// when a view is missing or differs.
func (p *Provisioner) CreateDesignDocs(ctx context.Context, configs []couch.DesignDocConfig) error {
	for _, cfg := range configs {
		if err := p.createDesignDoc(ctx, cfg); err != nil {
			return fmt.Errorf("provision: design doc %s: %w", cfg.Name, err)
		}
	}
	return nil
}

func (p *Provisioner) createDesignDoc(ctx context.Context, cfg couch.DesignDocConfig) error {
	path := p.dbPath("_design", url.PathEscape(cfg.Name))

	var doc couch.DesignDoc
	resp, err := p.rc.R().SetContext(ctx).SetResult(&doc).Get(path)
	if err != nil {
		return err
	}
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		doc = *couch.NewDesignDoc(cfg.Name)
	case resp.IsError():
		return apiError(resp)
	}
	if doc.Views == nil {
		doc.Views = make(map[string]couch.View)
	}
	if doc.Language == "" {
		doc.Language = "javascript"
	}

	changed := MergeViews(&doc, cfg.Views)
	if len(changed) == 0 {
		if p.logger != nil {
			p.logger.Debugf("provision: design doc %s is up to date", cfg.Name)
		}
		return nil
	}

	resp, err = p.rc.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(doc).
		Put(path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return apiError(resp)
	}
	p.warn("design doc %s updated views %s", cfg.Name, strings.Join(changed, ", "))
	return nil
}

// MergeViews adds or replaces the views of doc that are missing or differ
// from views, and returns the names it changed.
func MergeViews(doc *couch.DesignDoc, views []couch.View) []string {
	var changed []string
	for _, v := range views {
		current, ok := doc.Views[v.Name]
		if ok && current.Map == v.Map && current.Reduce == v.Reduce {
			continue
		}
		doc.Views[v.Name] = couch.View{Map: v.Map, Reduce: v.Reduce}
		changed = append(changed, v.Name)
	}
	return changed
}

// ConfigureDatabase runs the whole setup: version check, database, indexes
// and design documents. Mango indexes need CouchDB 2.0; on older servers they
// are skipped with a warning.
func (p *Provisioner) ConfigureDatabase(ctx context.Context, indexes []string, designDocs []couch.DesignDocConfig) error {
	version, err := p.Version(ctx)
	if err != nil {
		return fmt.Errorf("provision: read server version: %w", err)
	}
	supportsIndexes := couch.IsVersion2OrAbove(version)
	if !supportsIndexes {
		p.warn("CouchDB version %s is below 2.0; Mango indexes and _find are not available", version)
	}

	result, err := p.CreateDatabase(ctx)
	if err != nil {
		return fmt.Errorf("provision: create database %s: %w", p.db, err)
	}
	if p.logger != nil && !result.AlreadyExisted {
		p.logger.Debugf("provision: created database %s", p.db)
	}

	if len(indexes) > 0 && supportsIndexes {
		if err := p.CreateIndexes(ctx, indexes); err != nil {
			return fmt.Errorf("provision: create indexes: %w", err)
		}
	}
	if len(designDocs) > 0 {
		if err := p.CreateDesignDocs(ctx, designDocs); err != nil {
			return err
		}
	}
	return nil
}
