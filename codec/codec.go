// Package codec serialises graph snapshots for other tools to consume.
package codec

import (
	"fmt"
	"io"
	"sort"

	rexster "github.com/saulfrancisco-ruizacevedo/go-rexster"
)

// Exporter writes a snapshot in one format.
type Exporter interface {
	Export(snap *rexster.Snapshot, w io.Writer) error
	Format() string
}

var exporters = map[string]Exporter{
	"json": NewJSONCodec(),
	"yaml": NewYAMLCodec(),
	"yml":  NewYAMLCodec(),
}

// ForFormat returns the exporter registered under format.
func ForFormat(format string) (Exporter, error) {
	e, ok := exporters[format]
	if !ok {
		return nil, fmt.Errorf("unknown export format %q (known: %v)", format, Formats())
	}
	return e, nil
}

// Formats lists the registered format names.
func Formats() []string {
	names := make([]string, 0, len(exporters))
	for name := range exporters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
