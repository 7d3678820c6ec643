package ingest

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// reader turns a file into one of the structural sources.
type reader interface {
	CanRead(path string) bool
	Read(path string, opt Options) (Source, error)
}

var registry []reader

// register adds a reader implementation to the registry.
func register(r reader) {
	registry = append(registry, r)
}

func init() {
	register(csvReader{})
	register(xlsxReader{})
	register(jsonReader{})
}

// readFile selects a reader by extension.
func readFile(path string, opt Options) (Source, error) {
	for _, r := range registry {
		if r.CanRead(path) {
			return r.Read(path, opt)
		}
	}
	ext := filepath.Ext(path)
	if ext == "" {
		ext = "(none)"
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
}

func hasExt(path string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// headerNames trims the header cells and names blank or missing ones
// "Unnamed: <index>".
func headerNames(header []string, width int) []string {
	names := make([]string, width)
	for i := range names {
		if i < len(header) {
			names[i] = strings.TrimSpace(header[i])
		}
		if names[i] == "" {
			names[i] = "Unnamed: " + strconv.Itoa(i)
		}
	}
	return names
}
