package model

// ProductFileFormat is an enum type for recognized band file encodings
type ProductFileFormat string

// GeoTIFF corresponds to .TIF renditions of band files with geospatial info
const GeoTIFF ProductFileFormat = "geotiff"

// JPEG2000 corresponds to .JP2 files, the native product encoding
const JPEG2000 ProductFileFormat = "jpeg2000"

// SensingTimeFormat is the compact layout used inside Sentinel-2 product names
const SensingTimeFormat = "20060102T150405"

// SafeSuffix is the directory suffix every Sentinel-2 product container carries
const SafeSuffix = ".SAFE"

// DefaultTargetResolution is the resolution, in meters per pixel, used when none is given
const DefaultTargetResolution = 10

// Band tags of a Level-2A product, by reader category.
var (
	ReflectanceTags    = []string{"B01", "B02", "B03", "B04", "B05", "B06", "B07", "B08", "B8A", "B09", "B10", "B11", "B12"}
	AtmosphericTags    = []string{"AOT", "WVP"}
	ClassificationTags = []string{"SCL"}
	FootprintTags      = []string{"FOOTPRINT"}
)

// KnownTags returns every tag a Level-2A product reader is expected to serve
func KnownTags() []string {
	tags := make([]string, 0, len(ReflectanceTags)+len(AtmosphericTags)+len(ClassificationTags)+len(FootprintTags))
	tags = append(tags, ReflectanceTags...)
	tags = append(tags, AtmosphericTags...)
	tags = append(tags, ClassificationTags...)
	tags = append(tags, FootprintTags...)
	return tags
}
