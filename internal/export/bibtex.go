// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"fmt"
	"io"

	"github.com/ekjaisal/LitSift/pkg/types"
)

// WriteBibTeX writes each record's preformatted citation text as a
// BibTeX entry separated by blank lines. Records without citation text
// are skipped; duplicate entries (exact citation-text equality) are
// written once.
func WriteBibTeX(w io.Writer, records []types.Record) error {
	seen := make(map[string]bool)
	for _, r := range records {
		if r.Citation == "" || seen[r.Citation] {
			continue
		}
		seen[r.Citation] = true
		if _, err := fmt.Fprintf(w, "%s\n\n", r.Citation); err != nil {
			return fmt.Errorf("writing BibTeX entry: %w", err)
		}
	}
	return nil
}
