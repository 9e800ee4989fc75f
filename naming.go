package cloudenv

import (
	"path"
	"strings"
)

// basename strips all leading directory components from a local path, the
// way the engine's own file names are turned into object keys.
func basename(localPath string) string {
	return path.Base(toSlash(localPath))
}

func toSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// srcname builds the src-bucket object key for a local path.
func (e *Environment) srcname(localPath string) string {
	return e.cfg.Src.ObjectPrefix + "/" + basename(localPath)
}

// destname builds the dest-bucket object key for a local path.
func (e *Environment) destname(localPath string) string {
	return e.cfg.Dest.ObjectPrefix + "/" + basename(localPath)
}

const dbidPrefix = ".rockset/dbid/"

func dbidKey(dbid string) string {
	return dbidPrefix + dbid
}
