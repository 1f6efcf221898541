package parser

import (
	"strings"

	"github.com/jdahlin/disa-parser/internal/layout"
)

// detectFormat selects the column-threshold profile from vendor banner
// strings on the first two pages. It never fails: documents without a
// recognized banner get the default profile.
func detectFormat(doc layout.Document) FormatProfile {
	text := doc.Page(0).Text()
	if doc.PageCount() > 1 {
		text += doc.Page(1).Text()
	}

	switch {
	case strings.Contains(text, "LPG") && strings.Contains(text, "Digital tentamen"):
		return formatProfiles["LPG-digital"]
	case strings.Contains(text, "TENTAMEN"):
		return formatProfiles["TENTAMEN"]
	default:
		return formatProfiles["other"]
	}
}
