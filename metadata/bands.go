package metadata

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/venicegeo/bf-s2reader/model"
)

// Wavelength is the spectral extent of a band in nanometres
type Wavelength struct {
	Min     float64
	Max     float64
	Central float64
}

// BandSpec is one row of the band table
type BandSpec struct {
	ID           string
	Physical     string
	Tag          string
	Resolution   int
	Wavelength   Wavelength
	Response     []float64
	ResponseStep float64
}

func (c *Catalog) buildBandTable() error {
	c.byTag = map[string]int{}
	c.byID = map[string]int{}
	for _, el := range c.product.FindElements(".//Spectral_Information") {
		band, err := parseBand(el)
		if err != nil {
			return err
		}
		if _, dup := c.byTag[band.Tag]; dup {
			return fmt.Errorf("%w: band %s listed twice", model.ErrMalformed, band.Tag)
		}
		c.byTag[band.Tag] = len(c.bands)
		c.byID[band.ID] = len(c.bands)
		c.bands = append(c.bands, band)
	}
	return nil
}

func parseBand(el *etree.Element) (BandSpec, error) {
	id := el.SelectAttrValue("bandId", "")
	physical := el.SelectAttrValue("physicalBand", "")
	if id == "" || physical == "" {
		return BandSpec{}, fmt.Errorf("%w: Spectral_Information without bandId or physicalBand", model.ErrMalformed)
	}

	band := BandSpec{ID: id, Physical: physical, Tag: PhysicalToTag(physical)}
	missing := func(field string) error {
		return fmt.Errorf("%w: band %s has no %s", model.ErrMalformed, physical, field)
	}

	text, ok := childText(el, "RESOLUTION")
	if !ok {
		return BandSpec{}, missing("RESOLUTION")
	}
	res, err := strconv.Atoi(text)
	if err != nil {
		return BandSpec{}, fmt.Errorf("%w: band %s resolution %q", model.ErrMalformed, physical, text)
	}
	band.Resolution = res

	for _, field := range []struct {
		path string
		dst  *float64
	}{
		{"Wavelength/MIN", &band.Wavelength.Min},
		{"Wavelength/MAX", &band.Wavelength.Max},
		{"Wavelength/CENTRAL", &band.Wavelength.Central},
	} {
		text, ok := childText(el, field.path)
		if !ok {
			return BandSpec{}, missing(field.path)
		}
		if *field.dst, err = strconv.ParseFloat(text, 64); err != nil {
			return BandSpec{}, fmt.Errorf("%w: band %s %s %q", model.ErrMalformed, physical, field.path, text)
		}
	}

	text, ok = childText(el, "Spectral_Response/VALUES")
	if !ok {
		return BandSpec{}, missing("Spectral_Response/VALUES")
	}
	for _, v := range strings.Fields(text) {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return BandSpec{}, fmt.Errorf("%w: band %s spectral response value %q", model.ErrMalformed, physical, v)
		}
		band.Response = append(band.Response, f)
	}
	if step, ok := childText(el, "Spectral_Response/STEP"); ok {
		if band.ResponseStep, err = strconv.ParseFloat(step, 64); err != nil {
			return BandSpec{}, fmt.Errorf("%w: band %s Spectral_Response/STEP %q", model.ErrMalformed, physical, step)
		}
	}
	return band, nil
}

// Bands returns a copy of the band table in document order
func (c *Catalog) Bands() []BandSpec {
	out := make([]BandSpec, len(c.bands))
	for i, b := range c.bands {
		out[i] = b.clone()
	}
	return out
}

// Band looks a band up by tag
func (c *Catalog) Band(tag string) (BandSpec, error) {
	i, ok := c.byTag[tag]
	if !ok {
		return BandSpec{}, fmt.Errorf("%w: no band found with tag %s", model.ErrNotFound, tag)
	}
	return c.bands[i].clone(), nil
}

// BandByID looks a band up by its bandId
func (c *Catalog) BandByID(id string) (BandSpec, error) {
	i, ok := c.byID[id]
	if !ok {
		return BandSpec{}, fmt.Errorf("%w: no band found with ID %s", model.ErrNotFound, id)
	}
	return c.bands[i].clone(), nil
}

// Tags returns the tag of every band in the table
func (c *Catalog) Tags() []string {
	tags := make([]string, len(c.bands))
	for i, b := range c.bands {
		tags[i] = b.Tag
	}
	return tags
}

// NativeResolutions maps each band tag to its native resolution
func (c *Catalog) NativeResolutions() map[string]int {
	out := make(map[string]int, len(c.bands))
	for _, b := range c.bands {
		out[b.Tag] = b.Resolution
	}
	return out
}

func (b BandSpec) clone() BandSpec {
	b.Response = append([]float64(nil), b.Response...)
	return b
}

// TagToPhysical converts B08 to B8; B8A and B11 are unchanged
func TagToPhysical(tag string) string {
	return "B" + strings.TrimLeft(strings.TrimPrefix(tag, "B"), "0")
}

// PhysicalToTag converts B8 to B08; B8A and B11 are unchanged
func PhysicalToTag(physical string) string {
	n := strings.TrimPrefix(physical, "B")
	if len(n) < 2 {
		n = strings.Repeat("0", 2-len(n)) + n
	}
	return "B" + n
}
