package dsl

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	sumsplit "github.com/reoring/sumsplit"
)

// LoadFile reads a description document, choosing the decoder by extension
// (.json, otherwise YAML).
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, sumsplit.Wrap(sumsplit.CodeIO, "", sumsplit.Pos{File: path}, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ParseJSON(data, path)
	}
	return ParseYAML(data, path)
}

// ParseYAML decodes a YAML document. Unknown keys are rejected and every sum
// type and variant records the line it was declared on.
func ParseYAML(data []byte, file string) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	doc := &Document{}
	if err := dec.Decode(doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, sumsplit.Newf(sumsplit.CodeParseError, "", sumsplit.Pos{File: file}, "empty document")
		}
		return nil, sumsplit.Wrap(sumsplit.CodeParseError, "", sumsplit.Pos{File: file}, err)
	}
	doc.File = file

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err == nil {
		annotate(doc, &root, file)
	}
	if err := doc.Check(); err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseJSON decodes a JSON document. Unknown keys are rejected.
func ParseJSON(data []byte, file string) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	doc := &Document{}
	if err := dec.Decode(doc); err != nil {
		return nil, sumsplit.Wrap(sumsplit.CodeParseError, "", sumsplit.Pos{File: file}, err)
	}
	doc.File = file
	for i := range doc.Types {
		doc.Types[i].Pos = sumsplit.Pos{File: file}
		for j := range doc.Types[i].Variants {
			doc.Types[i].Variants[j].Pos = sumsplit.Pos{File: file}
		}
	}
	if err := doc.Check(); err != nil {
		return nil, err
	}
	return doc, nil
}

// annotate copies node positions onto the decoded types and variants.
func annotate(doc *Document, root *yaml.Node, file string) {
	top := root
	if top.Kind == yaml.DocumentNode && len(top.Content) > 0 {
		top = top.Content[0]
	}
	types := mappingValue(top, "types")
	if types == nil || types.Kind != yaml.SequenceNode {
		return
	}
	for i, tn := range types.Content {
		if i >= len(doc.Types) {
			break
		}
		doc.Types[i].Pos = nodePos(file, tn)
		vs := mappingValue(tn, "variants")
		if vs == nil || vs.Kind != yaml.SequenceNode {
			continue
		}
		for j, vn := range vs.Content {
			if j >= len(doc.Types[i].Variants) {
				break
			}
			doc.Types[i].Variants[j].Pos = nodePos(file, vn)
		}
	}
}

func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

func nodePos(file string, n *yaml.Node) sumsplit.Pos {
	return sumsplit.Pos{File: file, Line: n.Line, Column: n.Column}
}
