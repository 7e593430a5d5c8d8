package migration

import (
	"database/sql"

	"github.com/pressly/goose"
)

func init() {
	goose.AddMigration(Up00002, Down00002)
}

// Up00002 adds the band table of each recorded product
func Up00002(tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE TABLE IF NOT EXISTS public.bands
	(
		product_id character varying(80) NOT NULL REFERENCES public.products (product_id) ON DELETE CASCADE,
		position smallint NOT NULL,
		tag character varying(8) NOT NULL,
		band_id character varying(8) NOT NULL,
		physical character varying(8) NOT NULL,
		resolution smallint NOT NULL,
		wavelength_min double precision,
		wavelength_max double precision,
		wavelength_central double precision,
		response_step double precision,
		response float8[],
		CONSTRAINT bands_pkey PRIMARY KEY (product_id, tag)
	);
	`)
	return err
}

// Down00002 undoes the effects of Up00002
func Down00002(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS public.bands;`)
	return err
}
