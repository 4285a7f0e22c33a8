package jsonfile

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const filePerm = 0o644

// document is one JSON file holding a single top-level key whose value is
// an ordered array of records, e.g. {"posts": [...]}.
type document[T any] struct {
	path string
	key  string
	seed func() []*T
}

// load reads the records, creating the file from the seed when it does not
// exist yet.
func (d *document[T]) load() ([]*T, error) {
	data, err := os.ReadFile(d.path)
	if errors.Is(err, os.ErrNotExist) {
		records := d.seed()
		if err := d.save(records); err != nil {
			return nil, err
		}
		return records, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "could not read %s", d.path)
	}

	var doc map[string][]*T
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return nil, errors.Wrapf(err, "could not unmarshal %s", d.path)
	}
	records := doc[d.key]
	if records == nil {
		records = []*T{}
	}
	return records, nil
}

// save rewrites the whole document through a temp file and rename.
func (d *document[T]) save(records []*T) error {
	if records == nil {
		records = []*T{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string][]*T{d.key: records}); err != nil {
		return errors.Wrapf(err, "could not marshal %s", d.path)
	}
	data := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))

	tmp, err := os.CreateTemp(filepath.Dir(d.path), filepath.Base(d.path)+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "could not create tmp file for %s", d.path)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "could not write to tmp file %s", tmp.Name())
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "could not sync tmp file %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "could not close tmp file %s", tmp.Name())
	}
	if err := os.Chmod(tmp.Name(), filePerm); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "could not chmod tmp file %s", tmp.Name())
	}
	if err := os.Rename(tmp.Name(), d.path); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "could not replace %s with %s", d.path, tmp.Name())
	}
	return nil
}
