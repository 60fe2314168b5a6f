package generation

import (
	"fmt"
	"strings"
)

// The prompts lean on two response shapes the extractors understand: the
// numbered "Name: description" markdown list and a fenced YAML block.

func placeListPrompt(t PlaceType, count int) string {
	return fmt.Sprintf(
		"You are the worldbuilder of a fantasy realm. Invent %d distinct %ss that could be found in it.\n"+
			"Answer with only a numbered list, one %s per line, in the form '1. Name: a one sentence description'.",
		count, t.Name, t.Name)
}

func roomListPrompt(t PlaceType, name, description string) string {
	return fmt.Sprintf(
		"The %s named '%s' is described as: %s\n"+
			"Invent the %s found within it.\n"+
			"Answer with only a numbered list, one %s per line, in the form '1. Name: a one sentence description'.",
		t.Name, name, description, t.RoomTypePlural, t.RoomType)
}

func linkRoomsPrompt(t PlaceType, name string, roomNames []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "The %s named '%s' contains the following %s:\n", t.Name, name, t.RoomTypePlural)
	for _, n := range roomNames {
		fmt.Fprintf(&sb, "- %s\n", n)
	}
	fmt.Fprintf(&sb,
		"Lay them out. Answer with a YAML document in a fenced code block containing two keys:\n"+
			"entrance: the name of the %s visitors arrive in\n"+
			"connections: a mapping from each %s name to the list of %s names it adjoins\n",
		t.RoomType, t.RoomType, t.RoomType)
	return sb.String()
}
