package migration

import (
	"database/sql"

	"github.com/pressly/goose"
)

func init() {
	goose.AddMigration(Up00003, Down00003)
}

//Up00003 indexes products by tile and sensing time
func Up00003(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE INDEX IF NOT EXISTS idx_products_tile_sensing
		ON public.products USING btree
		(tile, sensing_time);
		`)
	return err
}

//Down00003 drops the index added by Up00003
func Down00003(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP INDEX IF EXISTS public.idx_products_tile_sensing;`)
	return err
}
