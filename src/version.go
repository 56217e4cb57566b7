package malamute

/*------------------------------------------------------------------
 *
 * Purpose:   	Identify this build.
 *
 * Description:	The release number is injected by the linker:
 *
 *		  go build -ldflags \
 *		    "-X github.com/malamute-tnc/malamute/src.version=1.2"
 *
 *		The VCS stamps the Go toolchain records are folded in
 *		when present, so even an unnumbered build names the
 *		commit it came from.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"runtime/debug"
	"strconv"
)

var version string

// Version returns a one line description of the running build.
func Version() string {
	var v = version
	if v == "" {
		v = "dev"
	}

	var bi, ok = debug.ReadBuildInfo()
	if !ok {
		return v
	}

	var revision, modified, when string
	for _, bs := range bi.Settings {
		switch bs.Key {
		case "vcs.revision":
			revision = bs.Value
		case "vcs.modified":
			modified = bs.Value
		case "vcs.time":
			when = bs.Value
		}
	}

	if revision == "" {
		return v
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	if dirty, err := strconv.ParseBool(modified); err == nil && dirty {
		revision += "+dirty"
	}

	if when == "" {
		return fmt.Sprintf("%s (%s)", v, revision)
	}
	return fmt.Sprintf("%s (%s, built %s)", v, revision, when)
}
