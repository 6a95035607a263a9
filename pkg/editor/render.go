package editor

import (
	"fmt"
	"strings"

	"github.com/jinzhu/inflection"
)

// CountNoun returns "1 event" or "N events".
func CountNoun(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", inflection.Singular(noun))
	}
	return fmt.Sprintf("%d %s", n, inflection.Plural(noun))
}

// ReferenceSentence returns "1 event references" or "N events reference".
func ReferenceSentence(n int) string {
	verb := "reference"
	if n == 1 {
		verb = "references"
	}
	return CountNoun(n, "event") + " " + verb
}

// RenderMergeDialog returns the text of the merge confirmation.
func RenderMergeDialog(d MergeDialog) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A suggested value %q already exists", d.Existing.Value)
	if d.Existing.UsageCount > 0 {
		fmt.Fprintf(&b, " (used by %s)", CountNoun(d.Existing.UsageCount, "event property"))
	}
	b.WriteString(".\n")
	fmt.Fprintf(&b, "Merge %q into %q? Every reference to %q will point to %q and %q will be removed.\n",
		d.Source.Value, d.Existing.Value, d.Source.Value, d.Existing.Value, d.Source.Value)
	if d.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", d.Error)
	}
	return b.String()
}

// RenderDeleteDialog returns the text of a delete confirmation. Only the
// itemized kind lists events.
func RenderDeleteDialog(d DeleteDialog) string {
	var b strings.Builder
	switch d.Kind {
	case NoImpact:
		fmt.Fprintf(&b, "Delete suggested value %q? No events reference it.\n", d.Value.Value)
	case Fallback:
		fmt.Fprintf(&b, "Delete suggested value %q? Its usage could not be checked.\n", d.Value.Value)
	case Itemized:
		count := 0
		if d.Impact != nil {
			count = d.Impact.AffectedEventsCount
		}
		fmt.Fprintf(&b, "%s %q. Deleting it unlinks these properties; their text is kept.\n",
			ReferenceSentence(count), d.Value.Value)
		if d.Impact != nil {
			for _, ev := range d.Impact.AffectedEvents {
				fmt.Fprintf(&b, "  - %s (%s)\n", ev.Name, ev.Page)
				for _, p := range ev.MatchingProperties {
					fmt.Fprintf(&b, "      %s: %s\n", p.Key, p.Value)
				}
			}
		}
		fmt.Fprintf(&b, "Delete %q?\n", d.Value.Value)
	}
	if d.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", d.Error)
	}
	return b.String()
}
