package aux

import (
	"strings"

	"github.com/aligntool/aligntool/align"
	"github.com/pkg/errors"
)

// ErrAlreadyPrefixed is returned by Rename when a sequence name already
// carries the requested prefix. spec.md §9 leaves rename idempotence an
// Open Question; this implementation rejects a second application rather
// than silently doubling the prefix (decided in DESIGN.md).
var ErrAlreadyPrefixed = errors.New("aux: sequence name already carries the requested prefix")

// Rename prepends targetPrefix to every target-sequence name and
// queryPrefix to every query-sequence name in b (spec §4.8 "Rename" / §6
// `rename --prefixs REF.,QUERY.`). b.Lines[0] is the target; the rest are
// queries, matching encoding/maf's ToNormalized convention.
func Rename(b *align.MAFBlock, targetPrefix, queryPrefix string) error {
	if len(b.Lines) == 0 {
		return nil
	}
	if targetPrefix != "" {
		if strings.HasPrefix(b.Lines[0].Name, targetPrefix) {
			return errors.Wrapf(ErrAlreadyPrefixed, "target %q", b.Lines[0].Name)
		}
		b.Lines[0].Name = targetPrefix + b.Lines[0].Name
	}
	if queryPrefix != "" {
		for i := 1; i < len(b.Lines); i++ {
			if strings.HasPrefix(b.Lines[i].Name, queryPrefix) {
				return errors.Wrapf(ErrAlreadyPrefixed, "query %q", b.Lines[i].Name)
			}
			b.Lines[i].Name = queryPrefix + b.Lines[i].Name
		}
	}
	return nil
}
