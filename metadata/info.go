package metadata

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/venicegeo/bf-s2reader/model"
)

// ProductInfo is the identity section of the product document
type ProductInfo struct {
	URI         string
	Type        string
	Spacecraft  string
	SensingTime time.Time
	Baseline    string
	CloudCover  float64
}

// ProductInfo reads PRODUCT_URI, SPACECRAFT_NAME, PRODUCT_START_TIME,
// PROCESSING_BASELINE and Cloud_Coverage_Assessment. Only the URI is required.
func (c *Catalog) ProductInfo() (ProductInfo, error) {
	var info ProductInfo
	root := &c.product.Element

	uri, ok := childText(root, ".//Product_Info/PRODUCT_URI")
	if !ok {
		return info, fmt.Errorf("%w: product document has no PRODUCT_URI", model.ErrMalformed)
	}
	info.URI = strings.TrimSuffix(uri, model.SafeSuffix)
	info.Type, _ = childText(root, ".//Product_Info/PRODUCT_TYPE")
	info.Spacecraft, _ = childText(root, ".//SPACECRAFT_NAME")
	info.Baseline, _ = childText(root, ".//PROCESSING_BASELINE")

	if text, ok := childText(root, ".//Product_Info/PRODUCT_START_TIME"); ok {
		t, err := model.ParseProductTime(text)
		if err != nil {
			return info, err
		}
		info.SensingTime = t
	}
	if text, ok := childText(root, ".//Cloud_Coverage_Assessment"); ok {
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return info, fmt.Errorf("%w: Cloud_Coverage_Assessment %q", model.ErrMalformed, text)
		}
		info.CloudCover = v
	}
	return info, nil
}

// NoDataValue returns the index of the NODATA special value
func (c *Catalog) NoDataValue() (float64, error) {
	for _, el := range c.product.FindElements(".//Special_Values") {
		name, _ := childText(el, "SPECIAL_VALUE_TEXT")
		if name != "NODATA" {
			continue
		}
		index := el.FindElement("SPECIAL_VALUE_INDEX")
		if index == nil {
			break
		}
		return parseFloat(index, "SPECIAL_VALUE_INDEX")
	}
	return 0, fmt.Errorf("%w: no NODATA special value", model.ErrNotFound)
}

// Footprint returns the product footprint as a closed GeoJSON ring of
// [lon, lat] positions. The document lists lat lon pairs.
func (c *Catalog) Footprint() ([][]float64, error) {
	text, ok := childText(&c.product.Element, ".//Global_Footprint/EXT_POS_LIST")
	if !ok {
		return nil, fmt.Errorf("%w: product has no Global_Footprint", model.ErrNotFound)
	}
	fields := strings.Fields(text)
	if len(fields)%2 != 0 || len(fields) < 6 {
		return nil, fmt.Errorf("%w: EXT_POS_LIST has %d values", model.ErrMalformed, len(fields))
	}

	ring := make([][]float64, 0, len(fields)/2+1)
	for i := 0; i < len(fields); i += 2 {
		lat, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: EXT_POS_LIST value %q", model.ErrMalformed, fields[i])
		}
		lon, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: EXT_POS_LIST value %q", model.ErrMalformed, fields[i+1])
		}
		ring = append(ring, []float64{lon, lat})
	}
	first, last := ring[0], ring[len(ring)-1]
	if first[0] != last[0] || first[1] != last[1] {
		ring = append(ring, []float64{first[0], first[1]})
	}
	return ring, nil
}
