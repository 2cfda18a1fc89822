// Package schema validates raw descriptor documents against the built-in
// JSON schema for the classic five-section format.
//
// Schema validation is shape checking on the document itself, so it catches
// problems that prevent unmarshaling (a deployment section written as a
// list, say). Content checks that need a parsed descriptor live in
// descriptor.Validate; the validate command runs both.
package schema

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gantry-ci/gantry/internal/descriptor"
	"github.com/gantry-ci/gantry/internal/ordered"
	"github.com/qri-io/jsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed descriptor.schema.json
var descriptorSchemaJSON string

var descriptorSchema = jsonschema.Must(descriptorSchemaJSON)

// Validate checks a raw YAML or JSON document against the descriptor schema.
// The issues describe shape problems in the document; a non-nil error means
// the document could not be checked at all.
func Validate(ctx context.Context, src []byte) ([]descriptor.Issue, error) {
	n := new(yaml.Node)
	if err := yaml.Unmarshal(src, n); err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	if n.Kind == 0 {
		return nil, errors.New("empty document")
	}

	// The node is re-encoded as JSON rather than fed to the schema directly:
	// this resolves aliases and merges first, so documents using YAML anchors
	// are checked in their effective form.
	doc, err := ordered.DecodeYAML(n)
	if err != nil {
		return nil, fmt.Errorf("resolving document: %w", err)
	}
	buf, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding document as JSON: %w", err)
	}

	keyErrs, err := descriptorSchema.ValidateBytes(ctx, buf)
	if err != nil {
		return nil, err
	}

	issues := make([]descriptor.Issue, 0, len(keyErrs))
	for _, ke := range keyErrs {
		issues = append(issues, descriptor.Issue{
			Severity: descriptor.SeverityError,
			Path:     pathFromPointer(ke.PropertyPath),
			Message:  ke.Message,
		})
	}
	return issues, nil
}

// pathFromPointer converts a JSON pointer ("/deployment/pypi/commands/2")
// into the dotted form used elsewhere ("deployment.pypi.commands[2]").
func pathFromPointer(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return "document"
	}

	var b strings.Builder
	for i, seg := range strings.Split(ptr, "/") {
		seg = strings.ReplaceAll(seg, "~1", "/")
		seg = strings.ReplaceAll(seg, "~0", "~")
		if _, err := strconv.Atoi(seg); err == nil {
			b.WriteString("[" + seg + "]")
			continue
		}
		if i > 0 {
			b.WriteString(".")
		}
		b.WriteString(seg)
	}
	return b.String()
}
