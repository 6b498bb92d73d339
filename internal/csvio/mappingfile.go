package csvio

import (
	"bufio"
	"io"
	"strings"

	"ledgerlens/internal/core"
)

// ReadMapping parses the static category-mapping file. Each line is either a
// bare category or "Category/Sub1,Sub2,...". Blank lines and lines starting
// with '#' are skipped. Tokens are title-cased so they line up with imported
// transactions.
func ReadMapping(r io.Reader) (*core.CategoryMapping, error) {
	m := core.NewCategoryMapping()
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, rest, found := strings.Cut(line, "/")
		category := core.TitleCase(name)
		if category == "" {
			continue
		}
		m.Add(category, "")
		if !found {
			continue
		}
		for _, sub := range strings.Split(rest, ",") {
			if s := core.TitleCase(sub); s != "" {
				m.Add(category, s)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return m, nil
}
