package plan

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	// ErrMissingFrontMatter indicates the document did not start with a YAML fence.
	ErrMissingFrontMatter = errors.New("plan: missing frontmatter")
	// ErrMalformedFrontMatter indicates the YAML block could not be parsed.
	ErrMalformedFrontMatter = errors.New("plan: malformed frontmatter")
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// Meta is the front-matter block carried by every plan artifact.
type Meta struct {
	Created    time.Time
	Status     string
	SourceFile string
	Type       string
}

// ParseFrontMatter extracts the metadata block and body from a document that
// starts with `---` YAML fences.
func ParseFrontMatter(content []byte) (Meta, []byte, error) {
	if len(content) == 0 {
		return Meta{}, nil, ErrMissingFrontMatter
	}
	normalized := normalizeNewlines(content)
	if !bytes.HasPrefix(normalized, []byte("---\n")) {
		return Meta{}, nil, ErrMissingFrontMatter
	}
	rest := normalized[4:]
	parts := bytes.SplitN(rest, []byte("\n---\n"), 2)
	if len(parts) < 2 {
		return Meta{}, nil, ErrMalformedFrontMatter
	}
	var envelope planEnvelope
	if err := yaml.Unmarshal(parts[0], &envelope); err != nil {
		return Meta{}, nil, fmt.Errorf("plan: parse frontmatter: %w", err)
	}
	meta, err := envelope.toMeta()
	if err != nil {
		return Meta{}, nil, err
	}
	return meta, parts[1], nil
}

// WriteFrontMatter renders metadata + body with YAML fences.
func WriteFrontMatter(meta Meta, body []byte) ([]byte, error) {
	if meta.SourceFile == "" {
		return nil, fmt.Errorf("plan: metadata missing source file")
	}
	envelope := planEnvelope{}
	envelope.fromMeta(meta)
	data, err := yaml.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("plan: encode frontmatter: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(bytes.TrimRight(data, "\n"))
	buf.WriteString("\n---\n\n")
	buf.Write(body)
	return buf.Bytes(), nil
}

type planEnvelope struct {
	Created    string `yaml:"created"`
	Status     string `yaml:"status"`
	SourceFile string `yaml:"source_file"`
	Type       string `yaml:"type"`
}

func (e planEnvelope) toMeta() (Meta, error) {
	if e.SourceFile == "" || e.Type == "" {
		return Meta{}, ErrMalformedFrontMatter
	}
	created, err := parseTime(e.Created)
	if err != nil {
		return Meta{}, fmt.Errorf("plan: parse created timestamp: %w", err)
	}
	return Meta{
		Created:    created,
		Status:     e.Status,
		SourceFile: e.SourceFile,
		Type:       e.Type,
	}, nil
}

func (e *planEnvelope) fromMeta(meta Meta) {
	e.Created = meta.Created.UTC().Format(timeLayout)
	e.Status = meta.Status
	e.SourceFile = meta.SourceFile
	e.Type = meta.Type
}

func parseTime(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, fmt.Errorf("plan: empty created timestamp")
	}
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func normalizeNewlines(content []byte) []byte {
	return bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
}
