package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/alfredjeanlab/userassets/internal/model"
)

// readBatchFile decodes a batch file. JSON files are valid YAML, so one
// decoder serves both.
func readBatchFile(path string) (model.Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	b, err := decodeBatch(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// decodeBatch reads a category -> field -> value mapping. The document is
// walked as a node tree so categories and fields keep file order. Scalar
// values decode to their YAML types; nested mappings and sequences become
// maps and slices for json fields.
func decodeBatch(r io.Reader) (model.Batch, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("empty batch file")
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode batch: %w", err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: batch must be a mapping of categories", root.Line)
	}

	var batch model.Batch
	for i := 0; i+1 < len(root.Content); i += 2 {
		catNode, fields := root.Content[i], root.Content[i+1]
		if fields.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("line %d: category %q must map field names to values", fields.Line, catNode.Value)
		}
		cat := model.Category(catNode.Value)
		for j := 0; j+1 < len(fields.Content); j += 2 {
			nameNode, valueNode := fields.Content[j], fields.Content[j+1]
			var v any
			if err := valueNode.Decode(&v); err != nil {
				return nil, fmt.Errorf("line %d: %s.%s: %w", valueNode.Line, cat, nameNode.Value, err)
			}
			batch.Add(cat, nameNode.Value, v)
		}
	}
	return batch, nil
}
