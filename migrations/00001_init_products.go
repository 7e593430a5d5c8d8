package migration

import (
	"database/sql"

	"github.com/pressly/goose"
)

func init() {
	goose.AddMigration(Up00001, Down00001)
}

//Up00001 adds the products table
func Up00001(tx *sql.Tx) error {
	// This code is executed when the migration is applied.
	_, err := tx.Exec(`
	CREATE TABLE IF NOT EXISTS public.products
	(
		product_id character varying(80) NOT NULL,
		tile character varying(8) NOT NULL DEFAULT '',
		sensing_time timestamp with time zone,
		cloud_cover double precision NOT NULL DEFAULT 0,
		spacecraft character varying(32) NOT NULL DEFAULT '',
		baseline character varying(8) NOT NULL DEFAULT '',
		root text NOT NULL,
		footprint json,
		CONSTRAINT products_pkey PRIMARY KEY (product_id)
	)
	WITH (
		OIDS = FALSE
	);
	`)
	return err
}

//Down00001 undoes the db changes.
func Down00001(tx *sql.Tx) error {
	// This code is executed when the migration is rolled back.
	_, err := tx.Exec(`DROP TABLE IF EXISTS public.products;`)
	return err
}
