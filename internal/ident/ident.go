// Package ident validates and quotes SQL identifiers captured from
// resource paths and tool arguments. Object names cannot travel as bound
// parameters, so this check is the injection defense for identifier
// positions.
package ident

import (
	"fmt"
	"regexp"
	"strings"
)

// maxLen matches Postgres NAMEDATALEN-1: identifiers longer than 63 bytes
// are truncated by the server, so anything longer is rejected outright.
const maxLen = 63

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

// Check returns an error unless name is a safe unquoted identifier:
// leading letter or underscore, then letters, digits, underscores or
// dollar signs, at most 63 bytes.
func Check(name string) error {
	if name == "" {
		return fmt.Errorf("identifier is empty")
	}
	if len(name) > maxLen {
		return fmt.Errorf("identifier %q exceeds %d bytes", name, maxLen)
	}
	if !identPattern.MatchString(name) {
		return fmt.Errorf("identifier %q contains characters outside [A-Za-z0-9_$]", name)
	}
	return nil
}

// Quote wraps a checked identifier in double quotes. It assumes the name
// already passed Check, but doubles embedded quotes anyway so a future
// relaxation of the pattern cannot break out of the quoting.
func Quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QualifiedName returns a dotted, quoted schema.table pair for use in
// identifier positions (ANALYZE targets, ::regclass casts).
func QualifiedName(schema, table string) string {
	return Quote(schema) + "." + Quote(table)
}
