// Package diagnostic collects the notes produced while a mapping plan is built:
// unmapped members with suggested source names, lossy conversions, ambiguous
// matches and the reasons each member was mapped the way it was.
package diagnostic
