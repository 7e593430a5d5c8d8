// Package locator picks the band file to read for a tag at a target resolution.
package locator

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/venicegeo/bf-s2reader/model"
)

// Band files carry a _<NAME>_<RES>m token, e.g. T51PUP_20230926T022331_B8A_20m
var fileTokenPattern = regexp.MustCompile(`_([A-Z0-9]{2,3})_(\d{2})m`)

// SourceExtension is appended to every manifest entry
const SourceExtension = ".jp2"

// SourceFile is one band file listed in the product manifest
type SourceFile struct {
	Name       string
	Resolution int
	Path       string
}

// ImageLister is satisfied by the metadata catalog
type ImageLister interface {
	ImageFiles() []string
}

// Locator resolves tags against the manifest of one product
type Locator struct {
	files []SourceFile
}

// New builds a locator from a catalog's IMAGE_FILE entries
func New(images ImageLister) (*Locator, error) {
	return FromEntries(images.ImageFiles())
}

// FromEntries builds a locator from IMAGE_FILE entries. An entry without a
// band and resolution token is ErrMalformed.
func FromEntries(entries []string) (*Locator, error) {
	l := &Locator{files: make([]SourceFile, 0, len(entries))}
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		stem := strings.TrimSuffix(path.Base(entry), path.Ext(entry))
		m := fileTokenPattern.FindStringSubmatch(stem)
		if m == nil {
			return nil, fmt.Errorf("%w: image file %s has no band and resolution token", model.ErrMalformed, entry)
		}
		res, err := strconv.Atoi(m[2])
		if err != nil {
			return nil, fmt.Errorf("%w: image file %s resolution %q", model.ErrMalformed, entry, m[2])
		}
		l.files = append(l.files, SourceFile{
			Name:       m[1],
			Resolution: res,
			Path:       strings.TrimSuffix(entry, path.Ext(entry)) + SourceExtension,
		})
	}
	return l, nil
}

// Files returns every band file in manifest order
func (l *Locator) Files() []SourceFile {
	return append([]SourceFile(nil), l.files...)
}

// Candidates returns the files whose band token equals tag, in manifest order
func (l *Locator) Candidates(tag string) []SourceFile {
	var out []SourceFile
	for _, f := range l.files {
		if f.Name == tag {
			out = append(out, f)
		}
	}
	return out
}

// Locate picks the file for tag whose native resolution equals target, or
// failing that the one with the finest native resolution. Ties go to the
// earliest manifest entry.
func (l *Locator) Locate(tag string, target int) (SourceFile, error) {
	candidates := l.Candidates(tag)
	if len(candidates) == 0 {
		return SourceFile{}, fmt.Errorf("%w: no image file for band %s", model.ErrNotFound, tag)
	}

	best := candidates[0]
	for _, c := range candidates {
		if c.Resolution == target {
			return c, nil
		}
		if c.Resolution < best.Resolution {
			best = c
		}
	}
	return best, nil
}

// Resolutions returns the native resolutions available for tag
func (l *Locator) Resolutions(tag string) []int {
	var out []int
	for _, c := range l.Candidates(tag) {
		out = append(out, c.Resolution)
	}
	return out
}
