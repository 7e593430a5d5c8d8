package catalogdb

const upsertProductStatement = `
INSERT INTO products as p (
	product_id,
	tile,
	sensing_time,
	cloud_cover,
	spacecraft,
	baseline,
	root,
	footprint)
VALUES
(
	$1,
	$2,
	$3,
	$4,
	$5,
	$6,
	$7,
	$8
)
	ON CONFLICT (product_id) DO UPDATE
	SET tile = $2,
		sensing_time = $3,
		cloud_cover = $4,
		spacecraft = $5,
		baseline = $6,
		root = $7,
		footprint = $8
	`

const deleteBandsStatement = `
DELETE FROM bands WHERE product_id = $1
`

const insertBandStatement = `
INSERT INTO bands (
	product_id,
	position,
	tag,
	band_id,
	physical,
	resolution,
	wavelength_min,
	wavelength_max,
	wavelength_central,
	response_step,
	response)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`

const selectProductStatement = `
SELECT product_id, tile, sensing_time, cloud_cover, spacecraft, baseline, root, footprint
FROM public.products
WHERE product_id=$1
LIMIT 1`

const selectBandsStatement = `
SELECT product_id, position, tag, band_id, physical, resolution,
	wavelength_min, wavelength_max, wavelength_central, response_step, response
FROM public.bands
WHERE product_id=$1
ORDER BY position`

const listProductsStatement = `
SELECT product_id, tile, sensing_time, cloud_cover, spacecraft, baseline, root, footprint
FROM public.products
WHERE ($1 = '' OR tile = $1)
ORDER BY sensing_time DESC, product_id`
