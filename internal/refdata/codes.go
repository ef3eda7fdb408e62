// Package refdata loads the static issuer reference table and provides
// the code and size normalization used as the join key across the pipeline.
package refdata

import (
	"strings"

	"golang.org/x/text/width"
)

// Unknown is the placeholder label for issuers missing from the
// reference table or fields the table leaves blank.
const Unknown = "Unknown"

// NormalizeCode canonicalizes an issuer code for map lookups. Listing
// pages and filenames carry 5-character forms of the 4-character code
// (e.g. 64030 for 6403), sometimes with full-width digits or lowercase
// letters (130a for 130A).
//
// Rules, in order: fold to half-width, trim, uppercase; a 5-character
// code ending in '0' with four leading digits drops the trailing '0';
// any other 5-digit code drops its last digit; everything else is
// returned as-is. Idempotent; empty in, empty out.
func NormalizeCode(code string) string {
	if code == "" {
		return code
	}
	c := strings.ToUpper(strings.TrimSpace(width.Narrow.String(code)))
	if len(c) == 5 && c[4] == '0' && isDigits(c[:4]) {
		return c[:4]
	}
	if len(c) == 5 && isDigits(c) {
		return c[:4]
	}
	return c
}

// NormalizeSize maps the reference table's size classification to the
// bucket label used for grouping: empty or "-" becomes "Unknown", and
// the "TOPIX " qualifier is stripped (TOPIX Core30 -> Core30).
func NormalizeSize(size string) string {
	if size == "" || size == "-" {
		return Unknown
	}
	return strings.TrimPrefix(size, "TOPIX ")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
