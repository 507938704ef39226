package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// Record is one raw static file read from a corpus source.
type Record struct {
	Kind Kind
	Name string
	Data []byte
	// Err is set when this single file could not be read.
	Err error
}

// Source supplies the raw static files for each entity kind.
type Source interface {
	Name() string
	Read(ctx context.Context, kind Kind) ([]Record, error)
}

// Layout maps each kind to its directory and file extension inside a corpus.
var Layout = map[Kind]struct {
	Dir string
	Ext string
}{
	KindMedication: {Dir: "meds", Ext: ".json"},
	KindGuideline:  {Dir: "guidelines", Ext: ".md"},
	KindCriteria:   {Dir: "criteria", Ext: ".json"},
}

// FSSource reads a corpus laid out as meds/*.json, guidelines/*.md and
// criteria/*.json from any fs.FS (the embedded default corpus or a
// directory on disk).
type FSSource struct {
	fsys  fs.FS
	label string
}

func NewFSSource(fsys fs.FS, label string) *FSSource {
	return &FSSource{fsys: fsys, label: label}
}

func (s *FSSource) Name() string { return s.label }

func (s *FSSource) Read(ctx context.Context, kind Kind) ([]Record, error) {
	layout, ok := Layout[kind]
	if !ok {
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
	entries, err := fs.ReadDir(s.fsys, layout.Dir)
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", s.label, layout.Dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), layout.Ext) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	records := make([]Record, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := fs.ReadFile(s.fsys, path.Join(layout.Dir, name))
		records = append(records, Record{Kind: kind, Name: name, Data: data, Err: err})
	}
	return records, nil
}
