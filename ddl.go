package holomcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/holodb/holo-mcp/internal/ident"
)

// DDL reconstruction runs as a fixed sequence of catalog reads on one
// connection: columns, then the primary key, then secondary indexes, then
// assembly into a single CREATE TABLE text block.

const ddlColumnsSQL = `
SELECT
    c.column_name,
    CASE
        WHEN c.data_type = 'character varying' AND c.character_maximum_length IS NOT NULL
            THEN 'varchar(' || c.character_maximum_length || ')'
        WHEN c.data_type = 'character' AND c.character_maximum_length IS NOT NULL
            THEN 'char(' || c.character_maximum_length || ')'
        WHEN c.data_type = 'numeric' AND c.numeric_precision IS NOT NULL
            THEN 'numeric(' || c.numeric_precision || ',' || c.numeric_scale || ')'
        ELSE c.data_type
    END AS data_type,
    CASE c.is_nullable WHEN 'NO' THEN false ELSE true END AS nullable,
    COALESCE(c.column_default, '') AS default_val
FROM information_schema.columns c
WHERE c.table_schema = $1
  AND c.table_name = $2
ORDER BY c.ordinal_position;
`

const ddlPrimaryKeySQL = `
SELECT string_agg(a.attname, ', ' ORDER BY array_position(con.conkey, a.attnum)) AS pk_columns
FROM pg_catalog.pg_constraint con
JOIN pg_catalog.pg_class c ON c.oid = con.conrelid
JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
JOIN pg_catalog.pg_attribute a ON a.attrelid = con.conrelid AND a.attnum = ANY(con.conkey)
WHERE con.contype = 'p'
  AND n.nspname = $1
  AND c.relname = $2
GROUP BY con.oid;
`

const ddlIndexesSQL = `
SELECT pi.indexdef
FROM pg_catalog.pg_indexes pi
JOIN pg_catalog.pg_class c ON c.relname = pi.indexname AND c.relnamespace = (
    SELECT oid FROM pg_catalog.pg_namespace WHERE nspname = pi.schemaname
)
JOIN pg_catalog.pg_index i ON i.indexrelid = c.oid
WHERE pi.schemaname = $1
  AND pi.tablename = $2
  AND NOT i.indisprimary
ORDER BY pi.indexname;
`

// readTableDDL reconstructs the DDL of one table into a Text envelope.
func (h *HologresMcp) readTableDDL(ctx context.Context, conn dbConn, schema, table string) (*Envelope, error) {
	cols, err := conn.queryRows(ctx, ddlColumnsSQL, schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch columns: %w", err)
	}
	if len(cols.rows) == 0 {
		return nil, &ExecutionError{
			Kind: KindObjectNotFound,
			Err:  fmt.Errorf("no DDL found for %s.%s: table does not exist or is not visible", schema, table),
		}
	}

	pk, err := conn.queryRows(ctx, ddlPrimaryKeySQL, schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch primary key: %w", err)
	}

	idx, err := conn.queryRows(ctx, ddlIndexesSQL, schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch indexes: %w", err)
	}

	return textEnvelope(assembleDDL(schema, table, cols, pk, idx)), nil
}

// assembleDDL renders the collected catalog rows as CREATE TABLE text
// followed by secondary index definitions.
func assembleDDL(schema, table string, cols, pk, idx *rowSet) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "CREATE TABLE %s (", ident.QualifiedName(schema, table))

	defs := make([]string, 0, len(cols.rows)+1)
	for _, row := range cols.rows {
		name, _ := row[0].(string)
		dataType, _ := row[1].(string)
		nullable, _ := row[2].(bool)
		defaultVal, _ := row[3].(string)

		def := "    " + ident.Quote(name) + " " + dataType
		if !nullable {
			def += " NOT NULL"
		}
		if defaultVal != "" {
			def += " DEFAULT " + defaultVal
		}
		defs = append(defs, def)
	}

	if len(pk.rows) > 0 {
		if pkCols, _ := pk.rows[0][0].(string); pkCols != "" {
			defs = append(defs, "    PRIMARY KEY ("+pkCols+")")
		}
	}

	sb.WriteString("\n")
	sb.WriteString(strings.Join(defs, ",\n"))
	sb.WriteString("\n);")

	for _, row := range idx.rows {
		if indexDef, _ := row[0].(string); indexDef != "" {
			sb.WriteString("\n")
			sb.WriteString(indexDef)
			sb.WriteString(";")
		}
	}
	return sb.String()
}
