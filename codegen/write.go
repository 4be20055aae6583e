package codegen

import (
	"bytes"
	"os"
	"path/filepath"

	sumsplit "github.com/reoring/sumsplit"
)

// Write stores the output at o.Path. See WriteTo.
func (o *Output) Write() (bool, error) { return o.WriteTo(o.Path) }

// WriteTo stores the output at path through a temporary file in the same
// directory. A file already holding the same bytes is left untouched; the
// result reports whether anything was written.
func (o *Output) WriteTo(path string) (bool, error) {
	if old, err := os.ReadFile(path); err == nil && bytes.Equal(old, o.Source) {
		return false, nil
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return false, sumsplit.Wrap(sumsplit.CodeIO, "", sumsplit.Pos{File: path}, err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(o.Source); err != nil {
		tmp.Close()
		os.Remove(name)
		return false, sumsplit.Wrap(sumsplit.CodeIO, "", sumsplit.Pos{File: path}, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return false, sumsplit.Wrap(sumsplit.CodeIO, "", sumsplit.Pos{File: path}, err)
	}
	if err := os.Chmod(name, 0o644); err != nil {
		os.Remove(name)
		return false, sumsplit.Wrap(sumsplit.CodeIO, "", sumsplit.Pos{File: path}, err)
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return false, sumsplit.Wrap(sumsplit.CodeIO, "", sumsplit.Pos{File: path}, err)
	}
	return true, nil
}

// WriteFiles writes every output to its default path and returns the paths
// that changed.
func WriteFiles(outs []*Output) ([]string, error) {
	var changed []string
	for _, o := range outs {
		ok, err := o.Write()
		if err != nil {
			return changed, err
		}
		if ok {
			changed = append(changed, o.Path)
		}
	}
	return changed, nil
}
