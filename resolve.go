package holomcp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/holodb/holo-mcp/internal/ident"
)

var (
	errEmptyName   = errors.New("name is empty")
	errNameTooLong = fmt.Errorf("name exceeds %d bytes", maxNameLen)
)

const (
	schemeHologres = "hologres:///"
	schemeSystem   = "hg_system:///"
)

// maxNameLen bounds user/application name segments. Those values travel as
// bound parameters, not identifiers, so they only need to be non-empty and
// of sane length.
const maxNameLen = 128

// Resolve parses a resource path into its typed request. Every schema or
// table segment is identifier-checked here, before any SQL is built; a row
// limit of 0 in the returned request means "not specified" and the template
// engine substitutes the configured default.
func Resolve(path string) (ResourceRequest, error) {
	switch {
	case strings.HasPrefix(path, schemeHologres):
		return resolveCatalog(path, strings.TrimPrefix(path, schemeHologres))
	case strings.HasPrefix(path, schemeSystem):
		return resolveSystem(path, strings.TrimPrefix(path, schemeSystem))
	default:
		return nil, unknownPrefix(path, "unsupported scheme, want %s or %s", schemeHologres, schemeSystem)
	}
}

func resolveCatalog(path, rest string) (ResourceRequest, error) {
	if rest == "" {
		return nil, missingSegment(path, "empty resource path")
	}
	parts := strings.Split(rest, "/")

	switch len(parts) {
	case 1:
		if parts[0] == "schemas" {
			return SchemaList{}, nil
		}
		return nil, unknownPrefix(path, "unknown catalog resource %q", parts[0])
	case 2:
		if parts[1] != "tables" {
			return nil, invalidPath(path, "expected {schema}/tables, got terminator %q", parts[1])
		}
		if err := ident.Check(parts[0]); err != nil {
			return nil, invalidPath(path, "bad schema segment: %v", err)
		}
		return TableList{Schema: parts[0]}, nil
	case 3:
		if err := ident.Check(parts[0]); err != nil {
			return nil, invalidPath(path, "bad schema segment: %v", err)
		}
		if err := ident.Check(parts[1]); err != nil {
			return nil, invalidPath(path, "bad table segment: %v", err)
		}
		switch parts[2] {
		case "ddl":
			return TableDDL{Schema: parts[0], Table: parts[1]}, nil
		case "statistic":
			return TableStatistic{Schema: parts[0], Table: parts[1]}, nil
		default:
			return nil, invalidPath(path, "expected ddl or statistic terminator, got %q", parts[2])
		}
	default:
		return nil, invalidPath(path, "too many segments (%d)", len(parts))
	}
}

func resolveSystem(path, rest string) (ResourceRequest, error) {
	if rest == "" {
		return nil, missingSegment(path, "empty system path")
	}
	parts := strings.Split(rest, "/")

	if parts[0] == "query_log" {
		return resolveQueryLog(path, parts[1:])
	}

	if len(parts) != 1 {
		return nil, invalidPath(path, "system path %q takes no extra segments", parts[0])
	}
	switch parts[0] {
	case "missing_stats_tables":
		return MissingStatsTables{}, nil
	case "stat_activity":
		return StatActivity{}, nil
	default:
		return nil, unknownPrefix(path, "unknown system path %q", parts[0])
	}
}

func resolveQueryLog(path string, parts []string) (ResourceRequest, error) {
	if len(parts) == 0 {
		return nil, missingSegment(path, "query_log requires a selector (latest, user, application)")
	}

	switch parts[0] {
	case "latest":
		if len(parts) < 2 {
			return nil, missingSegment(path, "query_log/latest requires a row limit")
		}
		if len(parts) > 2 {
			return nil, invalidPath(path, "too many segments (%d) after query_log/latest", len(parts)-1)
		}
		limit, err := parseRowLimit(path, parts[1])
		if err != nil {
			return nil, err
		}
		return QueryLogLatest{Limit: limit}, nil

	case "user":
		if len(parts) < 2 {
			return nil, missingSegment(path, "query_log/user requires a user name")
		}
		if len(parts) > 3 {
			return nil, invalidPath(path, "too many segments (%d) after query_log/user", len(parts)-1)
		}
		if err := checkName(parts[1]); err != nil {
			return nil, invalidPath(path, "bad user segment: %v", err)
		}
		req := QueryLogByUser{User: parts[1]}
		if len(parts) == 3 {
			limit, err := parseRowLimit(path, parts[2])
			if err != nil {
				return nil, err
			}
			req.Limit = limit
		}
		return req, nil

	case "application":
		if len(parts) < 2 {
			return nil, missingSegment(path, "query_log/application requires an application name")
		}
		if len(parts) > 3 {
			return nil, invalidPath(path, "too many segments (%d) after query_log/application", len(parts)-1)
		}
		if err := checkName(parts[1]); err != nil {
			return nil, invalidPath(path, "bad application segment: %v", err)
		}
		req := QueryLogByApplication{Application: parts[1]}
		if len(parts) == 3 {
			limit, err := parseRowLimit(path, parts[2])
			if err != nil {
				return nil, err
			}
			req.Limit = limit
		}
		return req, nil

	default:
		return nil, unknownPrefix(path, "unknown query_log selector %q", parts[0])
	}
}

func parseRowLimit(path, segment string) (int, error) {
	limit, err := strconv.Atoi(segment)
	if err != nil {
		return 0, invalidPath(path, "row limit %q is not an integer", segment)
	}
	if limit <= 0 {
		return 0, invalidPath(path, "row limit must be a positive integer, got %d", limit)
	}
	return limit, nil
}

func checkName(name string) error {
	if name == "" {
		return errEmptyName
	}
	if len(name) > maxNameLen {
		return errNameTooLong
	}
	return nil
}
