package batch

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlManifest is the YAML manifest layout:
//
//	games:
//	  - url: https://.../2023-06-10-ATL-CAR
type yamlManifest struct {
	Games []struct {
		URL string `yaml:"url"`
	} `yaml:"games"`
}

// ReadManifest reads game URLs from a .csv or .yaml/.yml file. Blank and
// duplicate URLs are dropped; order is preserved.
func ReadManifest(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return parseCSV(f)
	case ".yaml", ".yml":
		return parseYAML(f)
	default:
		return nil, fmt.Errorf("manifest %s: unsupported extension (want .csv, .yaml or .yml)", path)
	}
}

// parseCSV takes the first column of every row. A first row whose first
// cell is not a URL is a header and is skipped.
func parseCSV(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var urls []string
	first := true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv manifest: %w", err)
		}
		if len(rec) == 0 {
			continue
		}
		cell := strings.TrimSpace(rec[0])
		if first {
			first = false
			if !isURL(cell) {
				continue
			}
		}
		urls = append(urls, cell)
	}
	return dedupe(urls), nil
}

func parseYAML(r io.Reader) ([]string, error) {
	var m yamlManifest
	if err := yaml.NewDecoder(r).Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read yaml manifest: %w", err)
	}
	urls := make([]string, 0, len(m.Games))
	for _, g := range m.Games {
		urls = append(urls, strings.TrimSpace(g.URL))
	}
	return dedupe(urls), nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func dedupe(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
