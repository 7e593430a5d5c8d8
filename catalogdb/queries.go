package catalogdb

import (
	"database/sql"

	"github.com/lib/pq"
)

// GetProductByID returns sql.ErrNoRows when the product was never recorded
func GetProductByID(tx *sql.Tx, productID string) (*ProductRecord, error) {
	product := ProductRecord{}

	rows, err := tx.Query(selectProductStatement, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return nil, err
		}
		return nil, sql.ErrNoRows
	}

	if err = scanProduct(rows, &product); err != nil {
		return nil, err
	}

	return &product, nil
}

// GetBands returns the band rows of a product in band table order
func GetBands(tx *sql.Tx, productID string) ([]BandRecord, error) {
	rows, err := tx.Query(selectBandsStatement, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bands []BandRecord
	for rows.Next() {
		var (
			band     BandRecord
			response pq.Float64Array
		)
		err = rows.Scan(&band.ProductID, &band.Position, &band.Tag, &band.BandID, &band.Physical,
			&band.Resolution, &band.WavelengthMin, &band.WavelengthMax, &band.WavelengthMean, &band.ResponseStep, &response)
		if err != nil {
			return nil, err
		}
		band.Response = []float64(response)
		bands = append(bands, band)
	}
	return bands, rows.Err()
}

// ListProducts returns the recorded products, newest first. An empty tile
// lists every product.
func ListProducts(tx *sql.Tx, tile string) ([]ProductRecord, error) {
	rows, err := tx.Query(listProductsStatement, tile)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []ProductRecord
	for rows.Next() {
		var product ProductRecord
		if err = scanProduct(rows, &product); err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func scanProduct(rows *sql.Rows, product *ProductRecord) error {
	var footprintBytes []byte
	err := rows.Scan(&product.ID, &product.Tile, &product.SensingTime, &product.CloudCover,
		&product.Spacecraft, &product.Baseline, &product.Root, &footprintBytes)
	if err != nil {
		return err
	}
	product.Footprint, err = decodeFootprint(footprintBytes)
	return err
}
