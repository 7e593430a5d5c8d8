package testutil

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"
)

// ProductName is the container name used by DefaultSAFE
const ProductName = "S2A_MSIL2A_20230926T022331_N0509_R103_T51PUP_20230926T062553.SAFE"

const granule = "L2A_T51PUP_A043127_20230926T023310"

// Extent is the side of the synthetic tile in metres
const Extent = 120

// SCLValues are the classification values DefaultSAFE cycles through
var SCLValues = []uint16{0, 1, 2, 3, 8, 9}

// Image is one band file of a synthetic product
type Image struct {
	Tag        string
	Resolution int
	Value      func(row, col int) uint16
}

// Key is the IMAGE_FILE entry of the image, without extension
func (img Image) Key() string {
	return fmt.Sprintf("GRANULE/%s/IMG_DATA/R%dm/T51PUP_20230926T022331_%s_%dm", granule, img.Resolution, img.Tag, img.Resolution)
}

// Size is the number of rows and columns of the image
func (img Image) Size() int {
	return Extent / img.Resolution
}

type spectral struct {
	id         string
	physical   string
	resolution int
	min        float64
	max        float64
	central    float64
}

var spectralTable = []spectral{
	{"0", "B1", 60, 411, 456, 442.7},
	{"1", "B2", 10, 456, 533, 492.4},
	{"2", "B3", 10, 538, 583, 559.8},
	{"3", "B4", 10, 646, 684, 664.6},
	{"4", "B5", 20, 694, 713, 704.1},
	{"5", "B6", 20, 731, 749, 740.5},
	{"6", "B7", 20, 769, 797, 782.8},
	{"7", "B8", 10, 773, 908, 832.8},
	{"8", "B8A", 20, 848, 881, 864.7},
	{"9", "B9", 60, 932, 958, 945.1},
	{"10", "B10", 60, 1337, 1412, 1373.5},
	{"11", "B11", 20, 1539, 1682, 1613.7},
	{"12", "B12", 20, 2078, 2320, 2202.4},
}

// SAFE describes a synthetic product container
type SAFE struct {
	Name              string
	Images            []Image
	Offset            float64
	BOAQuantification float64
	AOTQuantification float64
	WVPQuantification float64
	CloudCover        float64

	OmitProductDocument bool
	OmitTileDocument    bool
	ExtraTileDocument   bool
	OmitOffsets         bool
	// MalformedBand drops RESOLUTION from the first Spectral_Information row
	MalformedBand bool
	// MalformedStep writes a non-numeric Spectral_Response STEP on the last row
	MalformedStep bool
}

// DefaultValue is the raw value DefaultSAFE writes for a band at a resolution.
// Each file carries distinct values so tests can tell which one was read.
func DefaultValue(tag string, resolution int) func(row, col int) uint16 {
	if tag == "SCL" {
		return func(row, col int) uint16 { return SCLValues[(row+col)%len(SCLValues)] }
	}
	return func(row, col int) uint16 {
		return uint16(1000 + resolution*100 + row*Extent/resolution + col)
	}
}

// DefaultSAFE lists the band files of a real L2A product
func DefaultSAFE() *SAFE {
	files := map[int][]string{
		10: {"B02", "B03", "B04", "B08", "AOT", "WVP"},
		20: {"B01", "B02", "B03", "B04", "B05", "B06", "B07", "B8A", "B11", "B12", "AOT", "WVP", "SCL"},
		60: {"B01", "B02", "B03", "B04", "B05", "B06", "B07", "B8A", "B09", "B11", "B12", "AOT", "WVP", "SCL"},
	}
	s := &SAFE{
		Name:              ProductName,
		Offset:            -1000,
		BOAQuantification: 10000,
		AOTQuantification: 1000,
		WVPQuantification: 1000,
		CloudCover:        12.5,
	}
	for _, res := range []int{10, 20, 60} {
		for _, tag := range files[res] {
			s.Images = append(s.Images, Image{Tag: tag, Resolution: res, Value: DefaultValue(tag, res)})
		}
	}
	return s
}

// Write lays the container out under a fresh temporary directory and returns
// its root
func (s *SAFE) Write(t testing.TB) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), s.Name)
	require.NoError(t, os.MkdirAll(root, 0o755))

	if !s.OmitProductDocument {
		writeFile(t, root, "MTD_MSIL2A.xml", s.ProductXML(t))
	}
	if !s.OmitTileDocument {
		writeFile(t, root, "GRANULE/"+granule+"/MTD_TL.xml", TileXML(t))
	}
	if s.ExtraTileDocument {
		writeFile(t, root, "GRANULE/L2A_T51PUP_duplicate/MTD_TL.xml", TileXML(t))
	}
	for _, img := range s.Images {
		size := img.Size()
		values := make([]uint16, size*size)
		for row := 0; row < size; row++ {
			for col := 0; col < size; col++ {
				values[row*size+col] = img.Value(row, col)
			}
		}
		WriteTIFF(t, filepath.Join(root, filepath.FromSlash(img.Key()+".tif")), size, size, values)
	}
	return root
}

// ProductXML renders MTD_MSIL2A.xml
func (s *SAFE) ProductXML(t testing.TB) []byte {
	t.Helper()
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("n1:Level-2A_User_Product")
	root.CreateAttr("xmlns:n1", "https://psd-14.sentinel2.eo.esa.int/PSD/User_Product_Level-2A.xsd")

	general := root.CreateElement("n1:General_Info")
	info := general.CreateElement("Product_Info")
	info.CreateElement("PRODUCT_START_TIME").SetText("2023-09-26T02:23:31.024Z")
	info.CreateElement("PRODUCT_STOP_TIME").SetText("2023-09-26T02:23:31.024Z")
	info.CreateElement("PRODUCT_URI").SetText(s.Name)
	info.CreateElement("PROCESSING_LEVEL").SetText("Level-2A")
	info.CreateElement("PRODUCT_TYPE").SetText("S2MSI2A")
	info.CreateElement("PROCESSING_BASELINE").SetText("05.09")
	datatake := info.CreateElement("Datatake")
	datatake.CreateAttr("datatakeIdentifier", "GS2A_20230926T022331_043127_N05.09")
	datatake.CreateElement("SPACECRAFT_NAME").SetText("Sentinel-2A")
	datatake.CreateElement("SENSING_ORBIT_NUMBER").SetText("103")

	granuleEl := info.CreateElement("Product_Organisation").CreateElement("Granule_List").CreateElement("Granule")
	granuleEl.CreateAttr("granuleIdentifier", "S2A_OPER_MSI_L2A_TL_2APS_20230926T062553_A043127_T51PUP_N05.09")
	granuleEl.CreateAttr("imageFormat", "JPEG2000")
	keys := make([]string, 0, len(s.Images))
	for _, img := range s.Images {
		keys = append(keys, img.Key())
	}
	sort.Strings(keys)
	for _, key := range keys {
		granuleEl.CreateElement("IMAGE_FILE").SetText(key)
	}

	chars := general.CreateElement("Product_Image_Characteristics")
	for _, special := range [][2]string{{"NODATA", "0"}, {"SATURATED", "65535"}} {
		sv := chars.CreateElement("Special_Values")
		sv.CreateElement("SPECIAL_VALUE_TEXT").SetText(special[0])
		sv.CreateElement("SPECIAL_VALUE_INDEX").SetText(special[1])
	}
	quant := chars.CreateElement("QUANTIFICATION_VALUES_LIST")
	for _, q := range []struct {
		name  string
		value float64
	}{{"BOA", s.BOAQuantification}, {"AOT", s.AOTQuantification}, {"WVP", s.WVPQuantification}} {
		el := quant.CreateElement(q.name + "_QUANTIFICATION_VALUE")
		el.CreateAttr("unit", "none")
		el.SetText(strconv.FormatFloat(q.value, 'f', -1, 64))
	}
	if !s.OmitOffsets {
		offsets := chars.CreateElement("BOA_ADD_OFFSET_VALUES_LIST")
		for _, band := range spectralTable {
			el := offsets.CreateElement("BOA_ADD_OFFSET")
			el.CreateAttr("band_id", band.id)
			el.SetText(strconv.FormatFloat(s.Offset, 'f', -1, 64))
		}
	}
	spectralList := chars.CreateElement("Spectral_Information_List")
	for i, band := range spectralTable {
		el := spectralList.CreateElement("Spectral_Information")
		el.CreateAttr("bandId", band.id)
		el.CreateAttr("physicalBand", band.physical)
		if !(s.MalformedBand && i == 0) {
			el.CreateElement("RESOLUTION").SetText(strconv.Itoa(band.resolution))
		}
		wl := el.CreateElement("Wavelength")
		wl.CreateElement("MIN").SetText(strconv.FormatFloat(band.min, 'f', -1, 64))
		wl.CreateElement("MAX").SetText(strconv.FormatFloat(band.max, 'f', -1, 64))
		wl.CreateElement("CENTRAL").SetText(strconv.FormatFloat(band.central, 'f', -1, 64))
		resp := el.CreateElement("Spectral_Response")
		if s.MalformedStep && i == len(spectralTable)-1 {
			resp.CreateElement("STEP").SetText("one")
		} else {
			resp.CreateElement("STEP").SetText("1")
		}
		resp.CreateElement("VALUES").SetText("0.0062 0.5 1 0.25")
	}

	footprint := root.CreateElement("n1:Geometric_Info").
		CreateElement("Product_Footprint").
		CreateElement("Product_Footprint").
		CreateElement("Global_Footprint")
	footprint.CreateElement("EXT_POS_LIST").SetText(strings.Join([]string{
		"14.4648", "121.1501", "14.4648", "121.1512", "14.4637", "121.1512", "14.4637", "121.1501", "14.4648", "121.1501",
	}, " "))

	root.CreateElement("n1:Quality_Indicators_Info").
		CreateElement("Cloud_Coverage_Assessment").
		SetText(strconv.FormatFloat(s.CloudCover, 'f', -1, 64))

	doc.Indent(2)
	out, err := doc.WriteToBytes()
	require.NoError(t, err)
	return out
}

// TileXML renders MTD_TL.xml for a tile of Extent metres at 10, 20 and 60m
func TileXML(t testing.TB) []byte {
	t.Helper()
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("n1:Level-2A_Tile_ID")
	root.CreateAttr("xmlns:n1", "https://psd-14.sentinel2.eo.esa.int/PSD/S2_PDI_Level-2A_Tile_Metadata.xsd")

	root.CreateElement("n1:General_Info").CreateElement("TILE_ID").SetText("S2A_OPER_MSI_L2A_TL_2APS_20230926T062553_A043127_T51PUP_N05.09")
	geocoding := root.CreateElement("n1:Geometric_Info").CreateElement("Tile_Geocoding")
	geocoding.CreateAttr("metadataLevel", "Brief")
	geocoding.CreateElement("HORIZONTAL_CS_NAME").SetText("WGS84 / UTM zone 51N")
	geocoding.CreateElement("HORIZONTAL_CS_CODE").SetText("EPSG:32651")
	for _, res := range []int{10, 20, 60} {
		size := geocoding.CreateElement("Size")
		size.CreateAttr("resolution", strconv.Itoa(res))
		size.CreateElement("NROWS").SetText(strconv.Itoa(Extent / res))
		size.CreateElement("NCOLS").SetText(strconv.Itoa(Extent / res))
	}
	for _, res := range []int{10, 20, 60} {
		geo := geocoding.CreateElement("Geoposition")
		geo.CreateAttr("resolution", strconv.Itoa(res))
		geo.CreateElement("ULX").SetText("300000")
		geo.CreateElement("ULY").SetText("1600020")
		geo.CreateElement("XDIM").SetText(strconv.Itoa(res))
		geo.CreateElement("YDIM").SetText(strconv.Itoa(-res))
	}

	doc.Indent(2)
	out, err := doc.WriteToBytes()
	require.NoError(t, err)
	return out
}

// WriteTIFF writes a 16 bit single band TIFF
func WriteTIFF(t testing.TB, path string, width, height int, values []uint16) {
	t.Helper()
	img := image.NewGray16(image.Rect(0, 0, width, height))
	for i, v := range values {
		img.Pix[2*i] = byte(v >> 8)
		img.Pix[2*i+1] = byte(v)
	}
	var buf bytes.Buffer
	require.NoError(t, tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Deflate}))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func writeFile(t testing.TB, root, rel string, data []byte) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, data, 0o644))
}
