package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractMarkdownList(t *testing.T) {
	res := "Here are some ideas:\n" +
		"1. Oakrest: A village beneath an ancient oak.\n" +
		"2. **Duskmere**: A fishing town on a black lake.\n" +
		"3. Hollow Spire : A tower sunk into the earth.\n" +
		"Some trailing chatter."

	items := extractMarkdownList(res)
	require.Len(t, items, 3)
	assert.Equal(t, listItem{"Oakrest", "A village beneath an ancient oak."}, items[0])
	assert.Equal(t, listItem{"Duskmere", "A fishing town on a black lake."}, items[1], "emphasis asterisks are stripped")
	assert.Equal(t, listItem{"Hollow Spire", "A tower sunk into the earth."}, items[2])
}

func TestExtractMarkdownList_NoMatches(t *testing.T) {
	assert.Empty(t, extractMarkdownList("I'm sorry, I can't help with that."))
}

func TestExtractYAML_FencedBlock(t *testing.T) {
	res := "Sure! Here is the layout:\n" +
		"```yaml\n" +
		"entrance: Gatehouse\n" +
		"connections:\n" +
		"  Gatehouse: [Courtyard]\n" +
		"```\n" +
		"Let me know if you need more."

	var out linkOutput
	require.NoError(t, extractYAML(res, &out))
	assert.Equal(t, "Gatehouse", out.Entrance)
	assert.Equal(t, []string{"Courtyard"}, out.Connections["Gatehouse"])
}

func TestExtractYAML_FenceWithoutLanguageTag(t *testing.T) {
	res := "```\nentrance: Hall\nconnections: {}\n```"

	var out linkOutput
	require.NoError(t, extractYAML(res, &out))
	assert.Equal(t, "Hall", out.Entrance)
}

func TestExtractYAML_WholeResponseFallback(t *testing.T) {
	res := "entrance: Cave Mouth\nconnections:\n  Cave Mouth: [Grotto]\n"

	var out linkOutput
	require.NoError(t, extractYAML(res, &out))
	assert.Equal(t, "Cave Mouth", out.Entrance)
}

func TestExtractYAML_Malformed(t *testing.T) {
	var out linkOutput
	err := extractYAML("certainly: [unbalanced", &out)
	assert.ErrorIs(t, err, ErrAIStructure)
}
