package provision

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/robert-malhotra/go-couch-client/pkg/couch"
)

//go:embed design_docs.schema.json
var designDocsSchema string

// ErrInvalidDesignDocs is returned when a design doc file fails validation.
var ErrInvalidDesignDocs = errors.New("provision: invalid design doc configuration")

// LoadDesignDocs reads a JSON array of design doc configurations from path.
func LoadDesignDocs(path string) ([]couch.DesignDocConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("provision: read %s: %w", path, err)
	}
	return ParseDesignDocs(data)
}

// ParseDesignDocs validates data against the design doc schema and decodes
// it.
func ParseDesignDocs(data []byte) ([]couch.DesignDocConfig, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(designDocsSchema))
	if err != nil {
		return nil, fmt.Errorf("provision: compile schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDesignDocs, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidDesignDocs, strings.Join(msgs, "; "))
	}

	var configs []couch.DesignDocConfig
	if err := json.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDesignDocs, err)
	}
	return configs, nil
}
