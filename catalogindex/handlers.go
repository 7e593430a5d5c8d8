// Package catalogindex serves the products recorded in the catalog database.
package catalogindex

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"

	"github.com/venicegeo/bf-s2reader/catalogdb"
	"github.com/venicegeo/bf-s2reader/metadata"
	"github.com/venicegeo/bf-s2reader/util"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// serverError logs err and answers 500
func (c *Context) serverError(w http.ResponseWriter, r *http.Request, message string, err error) {
	message = fmt.Sprintf("%s: %v", message, err)
	util.LogSimpleErr(c, message, err)
	util.HTTPError(r, w, c, message, http.StatusInternalServerError)
}

// notFound logs at info level and answers 404
func (c *Context) notFound(w http.ResponseWriter, r *http.Request, message string) {
	util.LogInfo(c, message)
	util.HTTPError(r, w, c, message, http.StatusNotFound)
}

// begin opens the read transaction of a request; on failure the response is
// already written
func (c *Context) begin(w http.ResponseWriter, r *http.Request) (*sql.Tx, bool) {
	tx, err := c.DB.Begin()
	if err != nil {
		c.serverError(w, r, "Could not begin DB transaction", err)
		return nil, false
	}
	return tx, true
}

func (c *Context) productID(w http.ResponseWriter, r *http.Request) (string, bool) {
	productID, ok := mux.Vars(r)["id"]
	if !ok {
		message := "No product ID found in URL"
		util.LogAlert(c, message)
		util.HTTPError(r, w, c, message, http.StatusNotFound)
	}
	return productID, ok
}

func newContext(connectionProvider catalogdb.ConnectionProvider) (Context, error) {
	db, err := connectionProvider(&util.BasicLogContext{})
	if err != nil {
		return Context{}, err
	}
	return Context{DB: db}, nil
}

// DiscoverHandler is a handler for /catalog/products
// @Title catalogDiscoverHandler
// @Description lists recorded products, newest first
// @Accept  plain
// @Param   tile          query   string  false        "Only list products of this MGRS tile, e.g. T51PUP"
// @Success 200 {object}  geojson.FeatureCollection
// @Failure 500 {object}  string
// @Router /catalog/products [get]
type DiscoverHandler struct {
	Context Context
}

// NewDiscoverHandler creates a new handler using the given DB
func NewDiscoverHandler(connectionProvider catalogdb.ConnectionProvider) (*DiscoverHandler, error) {
	ctx, err := newContext(connectionProvider)
	if err != nil {
		return nil, err
	}
	return &DiscoverHandler{Context: ctx}, nil
}

func (h DiscoverHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tx, ok := h.Context.begin(w, r)
	if !ok {
		return
	}
	defer tx.Rollback()

	result, err := discoverProducts(tx, r.FormValue("tile"))
	if err != nil {
		h.Context.serverError(w, r, "Server error listing products", err)
		return
	}

	fc, err := result.GeoJSONFeatureCollection()
	if err != nil {
		h.Context.serverError(w, r, "Error converting products to geojson", err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Write([]byte(fc.String()))
}

// MetadataHandler is a handler for /catalog/products/{id}
// @Title catalogMetadataHandler
// @Description returns the footprint and identity of a recorded product
// @Accept  plain
// @Param   id            path   string  false        "The ID of the requested product"
// @Success 200 {object}  geojson.Feature
// @Failure 404 {object}  string
// @Router /catalog/products/{id} [get]
type MetadataHandler struct {
	Context Context
}

// NewMetadataHandler creates a new handler using the given DB
func NewMetadataHandler(connectionProvider catalogdb.ConnectionProvider) (*MetadataHandler, error) {
	ctx, err := newContext(connectionProvider)
	if err != nil {
		return nil, err
	}
	return &MetadataHandler{Context: ctx}, nil
}

func (h MetadataHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.Context.productID(w, r)
	if !ok {
		return
	}
	tx, ok := h.Context.begin(w, r)
	if !ok {
		return
	}
	defer tx.Rollback()

	result, err := getMetadata(tx, productID)
	if err == sql.ErrNoRows {
		h.Context.notFound(w, r, fmt.Sprintf("Product not found: %s", productID))
		return
	}
	if err != nil {
		h.Context.serverError(w, r, "Server error searching for product", err)
		return
	}

	feature, err := result.GeoJSONFeature()
	if err != nil {
		h.Context.serverError(w, r, "Error converting metadata to geojson", err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Write([]byte(feature.String()))
}

// BandResponse is the JSON form of one band table row
type BandResponse struct {
	Tag               string    `json:"tag"`
	BandID            string    `json:"bandId"`
	Physical          string    `json:"physical"`
	Resolution        int       `json:"resolution"`
	WavelengthMin     float64   `json:"wavelengthMin"`
	WavelengthMax     float64   `json:"wavelengthMax"`
	WavelengthCentral float64   `json:"wavelengthCentral"`
	ResponseStep      float64   `json:"responseStep"`
	Response          []float64 `json:"response,omitempty"`
}

// NewBandResponse converts a band table entry
func NewBandResponse(band metadata.BandSpec) BandResponse {
	return BandResponse{
		Tag:               band.Tag,
		BandID:            band.ID,
		Physical:          band.Physical,
		Resolution:        band.Resolution,
		WavelengthMin:     band.Wavelength.Min,
		WavelengthMax:     band.Wavelength.Max,
		WavelengthCentral: band.Wavelength.Central,
		ResponseStep:      band.ResponseStep,
		Response:          band.Response,
	}
}

// BandsHandler is a handler for /catalog/products/{id}/bands
// @Title catalogBandsHandler
// @Description returns the band table of a recorded product
// @Accept  plain
// @Param   id            path   string  false        "The ID of the requested product"
// @Success 200 {object}  []BandResponse
// @Failure 404 {object}  string
// @Router /catalog/products/{id}/bands [get]
type BandsHandler struct {
	Context Context
}

// NewBandsHandler creates a new handler using the given DB
func NewBandsHandler(connectionProvider catalogdb.ConnectionProvider) (*BandsHandler, error) {
	ctx, err := newContext(connectionProvider)
	if err != nil {
		return nil, err
	}
	return &BandsHandler{Context: ctx}, nil
}

func (h BandsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.Context.productID(w, r)
	if !ok {
		return
	}
	tx, ok := h.Context.begin(w, r)
	if !ok {
		return
	}
	defer tx.Rollback()

	bands, err := catalogdb.GetBands(tx, productID)
	if err != nil {
		h.Context.serverError(w, r, "Server error reading bands", err)
		return
	}
	if len(bands) == 0 {
		h.Context.notFound(w, r, fmt.Sprintf("Product not found: %s", productID))
		return
	}

	response := make([]BandResponse, len(bands))
	for i, band := range bands {
		response[i] = NewBandResponse(band.Spec())
	}
	body, err := json.Marshal(response)
	if err != nil {
		h.Context.serverError(w, r, "Error encoding bands", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

// Routes registers the catalog handlers on a router
func Routes(router *mux.Router, connectionProvider catalogdb.ConnectionProvider) error {
	discoverHandler, err := NewDiscoverHandler(connectionProvider)
	if err != nil {
		return err
	}
	metadataHandler, err := NewMetadataHandler(connectionProvider)
	if err != nil {
		return err
	}
	bandsHandler, err := NewBandsHandler(connectionProvider)
	if err != nil {
		return err
	}
	router.Handle("/catalog/products", discoverHandler)
	router.Handle("/catalog/products/{id}", metadataHandler)
	router.Handle("/catalog/products/{id}/bands", bandsHandler)
	return nil
}
