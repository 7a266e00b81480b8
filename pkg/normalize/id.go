package normalize

import (
	"regexp"
	"strings"
)

var (
	idDisallowed = regexp.MustCompile(`[^a-z0-9\s-]`)
	idSpaces     = regexp.MustCompile(`\s+`)
	idHyphens    = regexp.MustCompile(`-+`)
)

// DeriveID turns a display name into a stable catalog id, e.g.
// "Jasper AI (Pro)" becomes "jasper-ai-pro". The output is a fixed point:
// DeriveID(DeriveID(x)) == DeriveID(x).
func DeriveID(name string) string {
	id := strings.TrimSpace(strings.ToLower(name))
	id = idDisallowed.ReplaceAllString(id, "")
	id = idSpaces.ReplaceAllString(id, "-")
	id = idHyphens.ReplaceAllString(id, "-")
	return strings.Trim(id, "-")
}
