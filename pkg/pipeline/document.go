package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/thoth-station/adviser/pkg/config"
)

// Entry names one unit of a pipeline document and its configuration.
type Entry struct {
	Name          string        `json:"name" yaml:"name"`
	Configuration Configuration `json:"configuration,omitempty" yaml:"configuration,omitempty"`
}

// Document is the serializable form of a pipeline: per kind, the ordered
// list of units with their configuration.
type Document struct {
	Boots      []Entry `json:"boots,omitempty" yaml:"boots,omitempty"`
	Pseudonyms []Entry `json:"pseudonyms,omitempty" yaml:"pseudonyms,omitempty"`
	Sieves     []Entry `json:"sieves,omitempty" yaml:"sieves,omitempty"`
	Steps      []Entry `json:"steps,omitempty" yaml:"steps,omitempty"`
	Strides    []Entry `json:"strides,omitempty" yaml:"strides,omitempty"`
	Wraps      []Entry `json:"wraps,omitempty" yaml:"wraps,omitempty"`
}

// Entries returns the section holding units of kind.
func (d *Document) Entries(kind Kind) []Entry {
	switch kind {
	case KindBoot:
		return d.Boots
	case KindPseudonym:
		return d.Pseudonyms
	case KindSieve:
		return d.Sieves
	case KindStep:
		return d.Steps
	case KindStride:
		return d.Strides
	case KindWrap:
		return d.Wraps
	default:
		return nil
	}
}

func (d *Document) appendEntry(kind Kind, e Entry) {
	switch kind {
	case KindBoot:
		d.Boots = append(d.Boots, e)
	case KindPseudonym:
		d.Pseudonyms = append(d.Pseudonyms, e)
	case KindSieve:
		d.Sieves = append(d.Sieves, e)
	case KindStep:
		d.Steps = append(d.Steps, e)
	case KindStride:
		d.Strides = append(d.Strides, e)
	case KindWrap:
		d.Wraps = append(d.Wraps, e)
	}
}

// Document returns the serializable form of the pipeline. Configurations
// are copied.
func (c *Config) Document() Document {
	var doc Document
	add := func(u Unit) {
		doc.appendEntry(u.Kind(), Entry{Name: u.Name(), Configuration: u.Configuration().Clone()})
	}
	for _, u := range c.boots {
		add(u)
	}
	for _, u := range c.pseudonyms {
		add(u)
	}
	for _, u := range c.sieves {
		add(u)
	}
	for _, u := range c.steps {
		add(u)
	}
	for _, u := range c.strides {
		add(u)
	}
	for _, u := range c.wraps {
		add(u)
	}
	return doc
}

// MarshalJSON encodes the pipeline document.
func (c *Config) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Document())
}

// MarshalYAML encodes the pipeline document.
func (c *Config) MarshalYAML() (any, error) {
	return c.Document(), nil
}

// ParseDocument decodes a YAML or JSON pipeline document and validates it
// against the #Pipeline schema.
func ParseDocument(ctx context.Context, schemas *config.SchemaRegistry, data []byte) (Document, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Document{}, documentError(fmt.Errorf("failed to parse pipeline document: %w", err))
	}
	if raw == nil {
		raw = map[string]any{}
	}

	if err := schemas.ValidatePipeline(ctx, raw); err != nil {
		return Document{}, documentError(err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, documentError(fmt.Errorf("failed to decode pipeline document: %w", err))
	}

	// yaml.v3 decodes nested mappings with the type of the enclosing map.
	for _, kind := range Kinds {
		for i, e := range doc.Entries(kind) {
			doc.Entries(kind)[i].Configuration = e.Configuration.Clone()
		}
	}
	return doc, nil
}

func documentError(err error) *Error {
	return &Error{
		Class:   ErrorClassConfiguration,
		Message: "invalid pipeline document",
		Code:    ErrCodeInvalidDocument,
		Err:     err,
	}
}
