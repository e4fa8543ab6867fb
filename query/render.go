package query

import (
	"fmt"
	"sort"
	"strings"
)

// ExecOptions controls paging for the terminal Exec call. A zero PageSize
// means no LIMIT/OFFSET clause is appended.
type ExecOptions struct {
	PageSize  int
	PageIndex int
}

// render assembles the SELECT statement in the fixed order from spec
// §4.3: SELECT <projection> FROM <from> [JOIN ...]* [WHERE ...] [ORDER BY
// ...] [LIMIT/OFFSET]. It returns the SQL and the projection labels in the
// deterministic order used to decode each result row (sorted, since the
// caller's select() returns an unordered map).
func render(st state, opts ExecOptions) (string, []string) {
	labels := make([]string, 0, len(st.projection))
	for label := range st.projection {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	projParts := make([]string, len(labels))
	for i, label := range labels {
		projParts[i] = fmt.Sprintf(`%s as "%s"`, st.projection[label].Render(), label)
	}

	var b strings.Builder
	b.WriteString("select ")
	b.WriteString(strings.Join(projParts, ", "))
	fmt.Fprintf(&b, ` from "%s" %s`, st.fromTable, st.fromAlias)

	for _, j := range st.joins {
		fmt.Fprintf(&b, ` join "%s" %s on %s`, j.table, j.alias, j.on.Render())
	}

	if st.where != nil {
		b.WriteString(" where ")
		b.WriteString(st.where.Render())
	}

	if len(st.orderBy) > 0 {
		parts := make([]string, len(st.orderBy))
		for i, o := range st.orderBy {
			parts[i] = o.Render()
		}
		b.WriteString(" order by ")
		b.WriteString(strings.Join(parts, ", "))
	}

	if opts.PageSize > 0 {
		fmt.Fprintf(&b, " limit %d offset %d", opts.PageSize, opts.PageSize*opts.PageIndex)
	}

	return b.String(), labels
}
