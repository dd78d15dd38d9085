package catalog

// The default whitelist. public.detail is the export table of the spreadsheet
// deployment; updated_at is its TIMESTAMPTZ change column.
var defaultDefinitions = []Definition{
	{
		Key:         KeyNow,
		Description: "connectivity probe, returns the server time",
		Template:    `SELECT now() AS server_time`,
	},
	{
		Key:         KeyTables,
		Description: "base tables outside the system schemas",
		Template: `
SELECT table_schema, table_name
FROM information_schema.tables
WHERE table_type = 'BASE TABLE'
  AND table_schema NOT IN ('pg_catalog', 'information_schema')
ORDER BY table_schema, table_name
LIMIT @limit OFFSET @offset`,
		Params: ParamSet(ParamLimit | ParamOffset),
	},
	{
		Key:         KeyDetailAll,
		Description: "all rows of public.detail",
		Template: `
SELECT *
FROM public.detail
ORDER BY 1
LIMIT @limit OFFSET @offset`,
		Params: ParamSet(ParamLimit | ParamOffset),
	},
	{
		Key:         KeyDetailRange,
		Description: "rows of public.detail with updated_at in [from, to), newest first",
		Template: `
SELECT *
FROM public.detail
WHERE (CAST(@from AS TIMESTAMPTZ) IS NULL OR updated_at >= CAST(@from AS TIMESTAMPTZ))
  AND (CAST(@to AS TIMESTAMPTZ) IS NULL OR updated_at < CAST(@to AS TIMESTAMPTZ))
ORDER BY updated_at DESC NULLS LAST
LIMIT @limit OFFSET @offset`,
		Params: ParamSet(ParamLimit | ParamOffset | ParamFrom | ParamTo),
	},
}

// Default returns the built-in catalog. It panics only if a built-in template is malformed.
func Default() *Catalog {
	c, err := New(defaultDefinitions...)
	if err != nil {
		panic(err)
	}
	return c
}
