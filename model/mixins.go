package model

import (
	"errors"

	"github.com/venicegeo/geojson-go/geojson"
)

// BandList is a mixin listing the band tags and native resolutions of a product
type BandList struct {
	Tags        []string
	Resolutions map[string]int
}

// Apply implements the GeoJSONFeatureMixin interface
func (bl BandList) Apply(feature *geojson.Feature) error {
	if feature.Properties == nil {
		feature.Properties = map[string]interface{}{}
	}
	resolutions := make(map[string]int, len(bl.Tags))
	for _, tag := range bl.Tags {
		if res, ok := bl.Resolutions[tag]; ok {
			resolutions[tag] = res
		}
	}
	feature.Properties["bands"] = append([]string{}, bl.Tags...)
	feature.Properties["nativeResolutions"] = resolutions
	return nil
}

// ProductNameInfo is a mixin containing the identity parsed from a product name
type ProductNameInfo struct {
	*ProductName
}

// Apply implements the GeoJSONFeatureMixin interface
func (pn ProductNameInfo) Apply(feature *geojson.Feature) error {
	if pn.ProductName == nil {
		return errors.New("No product name to apply")
	}
	if feature.Properties == nil {
		feature.Properties = map[string]interface{}{}
	}
	feature.Properties["mission"] = pn.Mission
	feature.Properties["level"] = pn.Level
	feature.Properties["relativeOrbit"] = pn.RelativeOrbit
	feature.Properties["discriminator"] = pn.Discriminator
	return nil
}
