package holomcp

import (
	"encoding/base64"
	"fmt"
	"math"
	"net"
	"net/netip"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// normalizeRows shapes a collected result into a Rows envelope. Column
// order is preserved; values are coerced to portable representations; rows
// beyond MaxResultRows are cut with the Truncated marker set.
func (h *HologresMcp) normalizeRows(rs *rowSet) *Envelope {
	env := &Envelope{Columns: rs.columns, Rows: make([]map[string]interface{}, 0, len(rs.rows))}

	for _, values := range rs.rows {
		if len(env.Rows) >= h.config.Query.MaxResultRows {
			env.Truncated = true
			break
		}
		row := make(map[string]interface{}, len(rs.columns))
		for i, col := range rs.columns {
			row[col] = convertValue(values[i])
		}
		env.Rows = append(env.Rows, row)
	}
	return env
}

// normalizeText flattens a result whose rows are a single text column
// (EXPLAIN output, reconstructed DDL lines) into a Text envelope.
func normalizeText(rs *rowSet) *Envelope {
	lines := make([]string, 0, len(rs.rows))
	for _, values := range rs.rows {
		parts := make([]string, len(values))
		for i, v := range values {
			parts[i] = renderValue(convertValue(v))
		}
		lines = append(lines, strings.Join(parts, "\t"))
	}
	return &Envelope{Text: strings.Join(lines, "\n")}
}

func textEnvelope(text string) *Envelope {
	return &Envelope{Text: text}
}

// errorEnvelope shapes a classified error into an Error envelope.
func errorEnvelope(err error) *Envelope {
	return &Envelope{Error: &EnvelopeError{Kind: errorKind(err), Message: err.Error()}}
}

// Render returns the envelope as plain text: the Text block verbatim, or
// rows as a tab-separated table with a header line. Resource reads are
// served in this form.
func (e *Envelope) Render() string {
	if e.Error != nil {
		return fmt.Sprintf("error (%s): %s", e.Error.Kind, e.Error.Message)
	}
	if e.Text != "" || len(e.Columns) == 0 {
		return e.Text
	}

	var sb strings.Builder
	sb.WriteString(strings.Join(e.Columns, "\t"))
	for _, row := range e.Rows {
		sb.WriteByte('\n')
		parts := make([]string, len(e.Columns))
		for i, col := range e.Columns {
			parts[i] = renderValue(row[col])
		}
		sb.WriteString(strings.Join(parts, "\t"))
	}
	if e.Truncated {
		sb.WriteString("\n... (result truncated)")
	}
	return sb.String()
}

func renderValue(v interface{}) string {
	if v == nil {
		return "NULL"
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// convertValue coerces a driver-returned value to a JSON-friendly type:
// timestamps to RFC 3339 text, non-finite floats to strings, numerics to
// decimal text, bytea to base64, with recursion into JSONB maps and arrays.
func convertValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case time.Time:
		return val.Format(time.RFC3339Nano)
	case float32:
		return convertFloat(float64(val), val)
	case float64:
		return convertFloat(val, val)
	case netip.Prefix:
		return val.String()
	case net.HardwareAddr:
		return val.String()
	case pgtype.Numeric:
		if !val.Valid {
			return nil
		}
		if val.NaN {
			return "NaN"
		}
		if val.InfinityModifier == pgtype.Infinity {
			return "Infinity"
		}
		if val.InfinityModifier == pgtype.NegativeInfinity {
			return "-Infinity"
		}
		b, err := val.MarshalJSON()
		if err != nil {
			return nil
		}
		return string(b)
	case pgtype.Interval:
		if !val.Valid {
			return nil
		}
		return renderInterval(val)
	case [16]byte:
		// UUID
		return fmt.Sprintf("%x-%x-%x-%x-%x", val[0:4], val[4:6], val[6:8], val[8:10], val[10:16])
	case []byte:
		// bytea, encoded deterministically
		return base64.StdEncoding.EncodeToString(val)
	case string:
		return val
	case map[string]interface{}:
		result := make(map[string]interface{}, len(val))
		for k, item := range val {
			result[k] = convertValue(item)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(val))
		for i, item := range val {
			result[i] = convertValue(item)
		}
		return result
	default:
		return val
	}
}

func convertFloat(f float64, orig interface{}) interface{} {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	return orig
}

func renderInterval(val pgtype.Interval) string {
	parts := []string{}
	if val.Months != 0 {
		years := val.Months / 12
		months := val.Months % 12
		if years != 0 {
			parts = append(parts, fmt.Sprintf("%d year(s)", years))
		}
		if months != 0 {
			parts = append(parts, fmt.Sprintf("%d mon(s)", months))
		}
	}
	if val.Days != 0 {
		parts = append(parts, fmt.Sprintf("%d day(s)", val.Days))
	}
	if val.Microseconds != 0 {
		parts = append(parts, (time.Duration(val.Microseconds) * time.Microsecond).String())
	}
	if len(parts) == 0 {
		return "0"
	}
	return strings.Join(parts, " ")
}
