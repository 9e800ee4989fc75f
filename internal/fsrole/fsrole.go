// Package fsrole classifies database file names into the roles the
// environment router dispatches on: SST, MANIFEST, LOG, IDENTITY, or OTHER.
//
// Naming conventions follow the LSM engine's on-disk layout:
//
//	SST:      <number>.sst         e.g. 000123.sst
//	MANIFEST: MANIFEST-<number>    e.g. MANIFEST-000045
//	LOG/WAL:  <number>.log         e.g. 000042.log
//	IDENTITY: the literal name "IDENTITY"
//	OTHER:    anything else (CURRENT, LOCK, OPTIONS-*, temp files, ...)
package fsrole

import (
	"path/filepath"
	"strconv"
	"strings"
)

// Role is the classification of a single file name.
type Role int

const (
	Other Role = iota
	SST
	Manifest
	Log
	Identity
)

func (r Role) String() string {
	switch r {
	case SST:
		return "SST"
	case Manifest:
		return "MANIFEST"
	case Log:
		return "LOG"
	case Identity:
		return "IDENTITY"
	default:
		return "OTHER"
	}
}

// Info is the result of a single classification probe: the role plus,
// when the name encodes one, the file's numeric sequence id. Number is
// only meaningful when HasNumber is true.
type Info struct {
	Role      Role
	Number    uint64
	HasNumber bool
}

// Classify parses the leaf of name (directories are stripped) and returns
// its role and, where applicable, its numeric id. It never fails: names
// that match nothing recognized classify as Other with HasNumber false.
func Classify(name string) Info {
	leaf := filepath.Base(name)

	if leaf == "IDENTITY" {
		return Info{Role: Identity}
	}

	if n, ok := strings.CutSuffix(leaf, ".sst"); ok {
		if num, ok := parseNumber(n); ok {
			return Info{Role: SST, Number: num, HasNumber: true}
		}
	}

	if n, ok := strings.CutPrefix(leaf, "MANIFEST-"); ok {
		if num, ok := parseNumber(n); ok {
			return Info{Role: Manifest, Number: num, HasNumber: true}
		}
		return Info{Role: Manifest}
	}

	if n, ok := strings.CutSuffix(leaf, ".log"); ok {
		if num, ok := parseNumber(n); ok {
			return Info{Role: Log, Number: num, HasNumber: true}
		}
	}

	return Info{Role: Other}
}

func parseNumber(s string) (uint64, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// SupportsRename reports whether files of this role may be renamed. IDENTITY
// and OTHER may be renamed; SST, MANIFEST, and LOG may not, since renaming
// them would desync the object-store copy from the local one. IDENTITY
// renames also upload to the destination bucket when one exists (enforced
// by the caller); OTHER renames are always purely local.
func (r Role) SupportsRename() bool { return r == Identity || r == Other }

// UsesObjectStore reports whether the role is ever routed through local ->
// dest -> src object-store fallback (SST, MANIFEST, IDENTITY) as opposed
// to LOG, which is routed through the streaming-log tier when configured,
// or Other, which never leaves local disk.
func (r Role) UsesObjectStore() bool {
	return r == SST || r == Manifest || r == Identity
}
