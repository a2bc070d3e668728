package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dgallion1/docoutline/internal/config"
	"github.com/dgallion1/docoutline/internal/hierarchy"
	"github.com/dgallion1/docoutline/internal/parser"
	"github.com/dgallion1/docoutline/internal/pipeline"
	"github.com/dgallion1/docoutline/internal/version"
	"gopkg.in/yaml.v3"
)

// buildFile parses a document and builds its outline with the active profile.
func buildFile(path string) (hierarchy.Document, *hierarchy.Result, error) {
	cfg, err := config.LoadHierarchyProfile(profilePath)
	if err != nil {
		return hierarchy.Document{}, nil, err
	}
	p, err := parser.ForFile(path, parser.Options{PDFFallback: usePdftotext})
	if err != nil {
		return hierarchy.Document{}, nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return hierarchy.Document{}, nil, fmt.Errorf("read %s: %w", path, err)
	}

	name := filepath.Base(path)
	src, err := p.Parse(bytes.NewReader(data), name)
	if err != nil {
		return hierarchy.Document{}, nil, fmt.Errorf("parse %s: %w", name, err)
	}
	if len(src.Spans) == 0 {
		return hierarchy.Document{}, nil, fmt.Errorf("no text found in %s", name)
	}

	log := logger.With("file", name)
	res := hierarchy.NewEngine(cfg, log).Build(src.Spans)
	doc := hierarchy.NewDocument(pipeline.ContentHashHex(data)[:16], src.Title, res, version.Parser)
	doc.Processing.Source = name
	log.Debug("outline built",
		"pages", res.Pages,
		"blocks", res.Blocks,
		"nodes", doc.Processing.Nodes,
		"warnings", len(res.Warnings),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return doc, res, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
