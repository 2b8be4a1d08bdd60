package ingest

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ethanbaker/civicchat/pkg/civic"
)

// Azure Search document keys may only hold letters, digits, underscores, dashes and equal signs
var validKey = regexp.MustCompile(`^[A-Za-z0-9_\-=]+$`)

// LoadDir reads every .json file under dir. A file holds either one document or an array of them.
// Files are read in lexical order and a later document with the same id replaces an earlier one
func LoadDir(dir string) ([]civic.Document, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".json") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}
	sort.Strings(paths)

	var docs []civic.Document
	index := map[string]int{}
	for _, path := range paths {
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, err
		}

		for _, doc := range loaded {
			if i, ok := index[doc.ID]; ok {
				docs[i] = doc
				continue
			}
			index[doc.ID] = len(docs)
			docs = append(docs, doc)
		}
	}

	return docs, nil
}

// LoadFile decodes and validates the documents in a single file
func LoadFile(path string) ([]civic.Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var docs []civic.Document
	trimmed := strings.TrimSpace(string(b))
	if strings.HasPrefix(trimmed, "[") {
		err = json.Unmarshal(b, &docs)
	} else {
		var doc civic.Document
		err = json.Unmarshal(b, &doc)
		docs = []civic.Document{doc}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	for i := range docs {
		if err := validate(&docs[i]); err != nil {
			return nil, fmt.Errorf("%s: document %d: %w", path, i, err)
		}
	}

	return docs, nil
}

func validate(doc *civic.Document) error {
	doc.ID = strings.TrimSpace(doc.ID)
	doc.Title = strings.TrimSpace(doc.Title)

	if doc.ID == "" {
		return fmt.Errorf("%w: missing id", civic.ErrInvalidInput)
	}
	if !validKey.MatchString(doc.ID) {
		return fmt.Errorf("%w: id %q is not a valid index key", civic.ErrInvalidInput, doc.ID)
	}
	if doc.Title == "" {
		return fmt.Errorf("%w: document %q has no title", civic.ErrInvalidInput, doc.ID)
	}

	return nil
}
