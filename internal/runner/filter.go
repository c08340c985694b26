package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// extensionTags maps file extensions to classification tags. Every regular
// file additionally carries "file" and either "executable" or
// "non-executable". The table covers the types hooks commonly filter on.
var extensionTags = map[string][]string{
	".py":    {"python", "text"},
	".pyi":   {"python", "text"},
	".go":    {"go", "text"},
	".rs":    {"rust", "text"},
	".js":    {"javascript", "text"},
	".jsx":   {"javascript", "jsx", "text"},
	".ts":    {"typescript", "text"},
	".tsx":   {"typescript", "tsx", "text"},
	".rb":    {"ruby", "text"},
	".sh":    {"shell", "text"},
	".bash":  {"shell", "bash", "text"},
	".c":     {"c", "text"},
	".h":     {"c", "header", "text"},
	".cpp":   {"c++", "text"},
	".hpp":   {"c++", "header", "text"},
	".java":  {"java", "text"},
	".md":    {"markdown", "text"},
	".rst":   {"rst", "text"},
	".txt":   {"plain-text", "text"},
	".yaml":  {"yaml", "text"},
	".yml":   {"yaml", "text"},
	".json":  {"json", "text"},
	".toml":  {"toml", "text"},
	".xml":   {"xml", "text"},
	".html":  {"html", "text"},
	".css":   {"css", "text"},
	".sql":   {"sql", "text"},
	".proto": {"proto", "text"},
	".tf":    {"terraform", "text"},
	".ini":   {"ini", "text"},
	".cfg":   {"ini", "text"},
	".png":   {"image", "png", "binary"},
	".jpg":   {"image", "jpeg", "binary"},
	".jpeg":  {"image", "jpeg", "binary"},
	".gif":   {"image", "gif", "binary"},
	".pdf":   {"pdf", "binary"},
	".zip":   {"archive", "zip", "binary"},
	".gz":    {"archive", "gzip", "binary"},
	".tar":   {"archive", "tar", "binary"},
}

// classify returns the tag set of one path. Classification is best-effort:
// paths that cannot be stat'ed are still tagged by extension so filtering
// stays deterministic for files deleted mid-run.
func classify(path string) map[string]bool {
	tags := map[string]bool{"file": true}

	if info, err := os.Lstat(path); err == nil {
		if info.Mode()&os.ModeSymlink != 0 {
			return map[string]bool{"symlink": true}
		}
		if info.Mode()&0o111 != 0 {
			tags["executable"] = true
		} else {
			tags["non-executable"] = true
		}
	}

	ext := strings.ToLower(filepath.Ext(path))
	for _, t := range extensionTags[ext] {
		tags[t] = true
	}
	return tags
}

// fileFilter is one hook's compiled file selection.
type fileFilter struct {
	files        *regexp.Regexp
	exclude      *regexp.Regexp
	types        []string
	typesOr      []string
	excludeTypes []string
}

func newFileFilter(files, exclude string, types, typesOr, excludeTypes []string) (*fileFilter, error) {
	f := &fileFilter{types: types, typesOr: typesOr, excludeTypes: excludeTypes}

	var err error
	if files != "" {
		if f.files, err = regexp.Compile(files); err != nil {
			return nil, fmt.Errorf("invalid files pattern %q: %w", files, err)
		}
	}
	if exclude != "" {
		if f.exclude, err = regexp.Compile(exclude); err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", exclude, err)
		}
	}
	return f, nil
}

// Matches reports whether one path passes every layer of the filter: the
// files pattern, the exclude pattern, and the type constraints.
func (f *fileFilter) Matches(path string) bool {
	if f.files != nil && !f.files.MatchString(path) {
		return false
	}
	if f.exclude != nil && f.exclude.MatchString(path) {
		return false
	}

	tags := classify(path)
	for _, t := range f.types {
		if !tags[t] {
			return false
		}
	}
	if len(f.typesOr) > 0 {
		any := false
		for _, t := range f.typesOr {
			if tags[t] {
				any = true
				break
			}
		}
		if !any {
			return false
		}
	}
	for _, t := range f.excludeTypes {
		if tags[t] {
			return false
		}
	}
	return true
}

// Apply returns the subset of files passing the filter, in input order.
func (f *fileFilter) Apply(files []string) []string {
	var out []string
	for _, path := range files {
		if f.Matches(path) {
			out = append(out, path)
		}
	}
	return out
}
