package normalisers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/openclaw/kbcore/internal/core/domain"
	"github.com/openclaw/kbcore/internal/core/ports/driven"
)

// extensionFormats maps recognised file extensions to source formats.
var extensionFormats = map[string]domain.Format{
	".md":       domain.FormatMarkdown,
	".markdown": domain.FormatMarkdown,
	".txt":      domain.FormatText,
	".text":     domain.FormatText,
}

// FormatForPath resolves the source format from a path's extension.
// Returns domain.ErrUnsupportedFormat for unrecognised extensions.
func FormatForPath(path string) (domain.Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	format, ok := extensionFormats[ext]
	if !ok {
		return "", fmt.Errorf("%w: extension %q", domain.ErrUnsupportedFormat, ext)
	}
	return format, nil
}

// Registry selects a normaliser by document format.
type Registry struct {
	byFormat map[domain.Format]driven.Normaliser
}

// NewRegistry builds a registry from the given normalisers.
func NewRegistry(normalisers ...driven.Normaliser) *Registry {
	r := &Registry{byFormat: make(map[domain.Format]driven.Normaliser, len(normalisers))}
	for _, n := range normalisers {
		r.byFormat[n.Format()] = n
	}
	return r
}

// ForFormat returns the normaliser registered for the format.
func (r *Registry) ForFormat(format domain.Format) (driven.Normaliser, error) {
	n, ok := r.byFormat[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
	}
	return n, nil
}

// ForRaw resolves the normaliser for a raw document, falling back to the
// path extension when the format field is unset.
func (r *Registry) ForRaw(raw *domain.RawDocument) (driven.Normaliser, error) {
	format := raw.Format
	if format == "" {
		resolved, err := FormatForPath(raw.Path)
		if err != nil {
			return nil, err
		}
		format = resolved
	}
	return r.ForFormat(format)
}
