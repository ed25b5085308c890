// Package csvdir reads warehouses.csv and customers.csv from a directory.
//
//	warehouses.csv: id,lat,lon[,capacity]
//	customers.csv:  id,lat,lon[,demand]
//
// A header row starting with "id" is skipped. An empty capacity means
// unconstrained; an empty demand means zero.
package csvdir

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"quboassign/internal/dataset"
	"quboassign/internal/model"
)

const (
	WarehousesFile = "warehouses.csv"
	CustomersFile  = "customers.csv"
)

// Source loads a problem from Dir.
type Source struct {
	Dir string
}

func (s Source) Name() string { return "csv:" + s.Dir }

func (s Source) Load(ctx context.Context) (*dataset.Document, error) {
	whRows, err := readRows(ctx, filepath.Join(s.Dir, WarehousesFile))
	if err != nil {
		return nil, err
	}
	cuRows, err := readRows(ctx, filepath.Join(s.Dir, CustomersFile))
	if err != nil {
		return nil, err
	}
	doc := &dataset.Document{}
	for _, r := range whRows {
		w := model.WarehouseNode{ID: r.id, Lat: r.lat, Lon: r.lon}
		if r.extra != nil {
			w.Capacity = model.Capacity(*r.extra)
		}
		doc.Warehouses = append(doc.Warehouses, w)
	}
	for _, r := range cuRows {
		c := model.CustomerNode{ID: r.id, Lat: r.lat, Lon: r.lon}
		if r.extra != nil {
			c.Demand = *r.extra
		}
		doc.Customers = append(doc.Customers, c)
	}
	if err := doc.Validate(s.Name()); err != nil {
		return nil, err
	}
	return doc, nil
}

type row struct {
	id       string
	lat, lon float64
	extra    *float64
}

func readRows(ctx context.Context, path string) ([]row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csvdir: %w", err)
	}
	defer f.Close()
	return parse(ctx, f, filepath.Base(path))
}

func parse(ctx context.Context, r io.Reader, name string) ([]row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	var out []row
	for line := 1; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("csvdir: %s: %w", name, err)
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "id") {
			continue
		}
		if len(rec) < 3 || len(rec) > 4 {
			return nil, model.ShapeErrorf(name, "line %d has %d fields, want 3 or 4", line, len(rec))
		}
		rw := row{id: strings.TrimSpace(rec[0])}
		if rw.lat, err = strconv.ParseFloat(strings.TrimSpace(rec[1]), 64); err != nil {
			return nil, model.ShapeErrorf(name, "line %d: bad lat %q", line, rec[1])
		}
		if rw.lon, err = strconv.ParseFloat(strings.TrimSpace(rec[2]), 64); err != nil {
			return nil, model.ShapeErrorf(name, "line %d: bad lon %q", line, rec[2])
		}
		if len(rec) == 4 && strings.TrimSpace(rec[3]) != "" {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[3]), 64)
			if err != nil || v < 0 {
				return nil, model.ShapeErrorf(name, "line %d: bad quantity %q", line, rec[3])
			}
			rw.extra = &v
		}
		out = append(out, rw)
	}
}
