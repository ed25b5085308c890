// Package dataset loads assignment problems from the data-access side:
// problem documents on disk and CSV exports.
package dataset

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"quboassign/internal/model"
)

// Source yields one problem document.
type Source interface {
	Name() string
	Load(ctx context.Context) (*Document, error)
}

// Document is a problem plus optional external inputs: a classical
// baseline and sampler bitstrings.
type Document struct {
	Warehouses []model.WarehouseNode `yaml:"warehouses" json:"warehouses"`
	Customers  []model.CustomerNode  `yaml:"customers" json:"customers"`
	Distances  model.DistanceMatrix  `yaml:"distances,omitempty" json:"distances,omitempty"`
	Baseline   map[string]string     `yaml:"baseline,omitempty" json:"baseline,omitempty"`
	Samples    []string              `yaml:"samples,omitempty" json:"samples,omitempty"`
}

// Problem returns the model view of d.
func (d *Document) Problem() model.Problem {
	return model.Problem{Warehouses: d.Warehouses, Customers: d.Customers, Distances: d.Distances}
}

// Validate checks ids and shapes.
func (d *Document) Validate(op string) error {
	if err := d.Problem().Validate(op); err != nil {
		return err
	}
	seen := map[string]bool{}
	for _, w := range d.Warehouses {
		if w.ID == "" {
			return model.ShapeErrorf(op, "warehouse without id")
		}
		if seen["w:"+w.ID] {
			return model.ShapeErrorf(op, "duplicate warehouse id %q", w.ID)
		}
		seen["w:"+w.ID] = true
	}
	for _, c := range d.Customers {
		if c.ID == "" {
			return model.ShapeErrorf(op, "customer without id")
		}
		if seen["c:"+c.ID] {
			return model.ShapeErrorf(op, "duplicate customer id %q", c.ID)
		}
		seen["c:"+c.ID] = true
	}
	return nil
}

// FileSource reads a YAML or JSON document. JSON is read by the YAML
// decoder, so either extension works.
type FileSource struct {
	Path string
}

func (s FileSource) Name() string { return "file:" + s.Path }

func (s FileSource) Load(ctx context.Context) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", s.Path, err)
	}
	defer f.Close()
	return Decode(f, s.Name())
}

// Decode parses a document from r; unknown fields are rejected.
func Decode(r io.Reader, name string) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, model.ShapeErrorf(name, "empty document")
		}
		return nil, fmt.Errorf("dataset: decode %s: %w", name, err)
	}
	if err := doc.Validate(name); err != nil {
		return nil, err
	}
	return &doc, nil
}
