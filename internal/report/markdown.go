// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pdiddy/usecase-engine/pkg/types"
)

// renderMarkdown writes a resource collection: one section per category with
// numbered links and error lines, followed by the narratives.
func renderMarkdown(records []types.ResultRecord, narratives []types.NarrativeText, meta Meta) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# AI Resource Collection: %s\n\n", meta.EntityName)
	fmt.Fprintf(&b, "**Industry:** %s\n", meta.Domain)

	byCategory := make(map[types.Category][]types.ResultRecord)
	var order []types.Category
	for _, r := range records {
		if _, seen := byCategory[r.Category]; !seen {
			order = append(order, r.Category)
		}
		byCategory[r.Category] = append(byCategory[r.Category], r)
	}

	for _, c := range order {
		fmt.Fprintf(&b, "\n## %s\n\n", c.Label())
		n := 0
		for _, r := range byCategory[c] {
			if r.IsError {
				fmt.Fprintf(&b, "- %s%s\n", ErrorPrefix, oneLine(r.ErrorMessage))
				continue
			}
			n++
			fmt.Fprintf(&b, "%d. [%s](%s)", n, escapeLinkText(r.Title), escapeLinkDestination(r.URL))
			if r.Snippet != "" {
				fmt.Fprintf(&b, " - %s", oneLine(r.Snippet))
			}
			b.WriteString("\n")
		}
	}

	for _, n := range narratives {
		heading := strings.TrimSpace(n.SourceCategory)
		if heading == "" {
			heading = "Narrative"
		}
		fmt.Fprintf(&b, "\n## %s\n\n", heading)
		body := strings.TrimSpace(strings.ReplaceAll(n.Body, "\r\n", "\n"))
		if body != "" {
			b.WriteString(body)
			b.WriteString("\n")
		}
	}
	return b.Bytes()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func escapeLinkText(s string) string {
	return strings.NewReplacer("[", `\[`, "]", `\]`).Replace(oneLine(s))
}

// linkDestinationEscaper percent-encodes the bytes that would end or break
// an inline link destination.
var linkDestinationEscaper = strings.NewReplacer(
	" ", "%20",
	"\t", "%09",
	"\r", "%0D",
	"\n", "%0A",
	"(", "%28",
	")", "%29",
	"<", "%3C",
	">", "%3E",
	`\`, "%5C",
)

func escapeLinkDestination(u string) string {
	return linkDestinationEscaper.Replace(strings.TrimSpace(u))
}
