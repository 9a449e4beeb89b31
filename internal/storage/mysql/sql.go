package mysql

// Column order shared by the insert and the select scan.
const listingColumns = "mls, class, property_type, status, price, county, address, city, zip, " +
	"beds, baths, half_baths, garage, sq_feet, price_sq_feet, last_updt_ts, list_agent, list_office"

// Rows are append-only; a changed listing is a new row.
const insertListingSQL = `
INSERT INTO listings
  (` + listingColumns + `)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

// Every row for an MLS, newest first. id breaks ties within the same second.
const findByMLSSQL = `
SELECT ` + listingColumns + `
FROM listings
WHERE mls = ?
ORDER BY last_updt_ts DESC, id DESC
`
