package catalogdb

import (
	"context"
	"database/sql"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/lib/pq"

	"github.com/venicegeo/bf-s2reader/metadata"
	"github.com/venicegeo/bf-s2reader/util"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type polygonDocument struct {
	Type        string        `json:"type"`
	Coordinates [][][]float64 `json:"coordinates"`
}

func encodeFootprint(ring [][]float64) ([]byte, error) {
	if len(ring) == 0 {
		return nil, nil
	}
	return json.Marshal(polygonDocument{Type: "Polygon", Coordinates: [][][]float64{ring}})
}

func decodeFootprint(raw []byte) ([][]float64, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var doc polygonDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if len(doc.Coordinates) == 0 {
		return nil, nil
	}
	return doc.Coordinates[0], nil
}

//Importer writes product records into the catalog database.
type Importer struct {
	dbConnProvider ConnectionProvider
}

//NewImporter intializes a new importer.
func NewImporter(dbConnProvider ConnectionProvider) *Importer {
	return &Importer{dbConnProvider: dbConnProvider}
}

// ImportCatalog records a loaded product under the given root
func (imp *Importer) ImportCatalog(ctx context.Context, logCtx util.LogContext, root string, cat *metadata.Catalog) error {
	product, bands, err := RecordsFromCatalog(root, cat)
	if err != nil {
		return util.LogSimpleErr(logCtx, "Failed to flatten product catalog", err)
	}
	return imp.Import(ctx, logCtx, product, bands)
}

// Import opens a connection, records the product and closes it again
func (imp *Importer) Import(ctx context.Context, logCtx util.LogContext, product ProductRecord, bands []BandRecord) error {
	//Database connection is opened right before the import, and closed
	//immediately after.
	database, err := imp.dbConnProvider(logCtx)
	if err != nil {
		return util.LogSimpleErr(logCtx, "Could not open database connection", err)
	}
	defer database.Close()

	if err = Record(ctx, database, product, bands); err != nil {
		return util.LogSimpleErr(logCtx, fmt.Sprintf("Failed to record product %s", product.ID), err)
	}
	util.LogInfo(logCtx, fmt.Sprintf("Recorded product %s with %d bands", product.ID, len(bands)))
	return nil
}

// Record upserts the product row and replaces its band rows inside one
// transaction. Nothing is written unless every statement succeeds.
func Record(ctx context.Context, database *sql.DB, product ProductRecord, bands []BandRecord) (err error) {
	footprint, err := encodeFootprint(product.Footprint)
	if err != nil {
		return fmt.Errorf("encode footprint: %w", err)
	}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, upsertProductStatement,
		product.ID,
		product.Tile,
		product.SensingTime,
		product.CloudCover,
		product.Spacecraft,
		product.Baseline,
		product.Root,
		footprint,
	); err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}

	if _, err = tx.ExecContext(ctx, deleteBandsStatement, product.ID); err != nil {
		return fmt.Errorf("clear bands: %w", err)
	}

	for _, band := range bands {
		if _, err = tx.ExecContext(ctx, insertBandStatement,
			product.ID,
			band.Position,
			band.Tag,
			band.BandID,
			band.Physical,
			band.Resolution,
			band.WavelengthMin,
			band.WavelengthMax,
			band.WavelengthMean,
			band.ResponseStep,
			pq.Float64Array(band.Response),
		); err != nil {
			return fmt.Errorf("insert band %s: %w", band.Tag, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
