package generation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrAIStructure reports that a model response was missing the structure
// the pipeline asked for. The caller retries the same idea.
var ErrAIStructure = errors.New("model response missing required structure")

var (
	mdListRe    = regexp.MustCompile(`\d+\.\s*([\w\s]+):\s*(.*)`)
	yamlFenceRe = regexp.MustCompile("(?s)```(?i:yaml)?(.*?)```")
)

// listItem is one name/description pair from a numbered markdown list.
type listItem struct {
	Name        string
	Description string
}

// extractMarkdownList pulls "1. Name: description" entries out of a model
// response. Emphasis asterisks are stripped first; models love them.
func extractMarkdownList(res string) []listItem {
	var items []listItem
	for _, m := range mdListRe.FindAllStringSubmatch(strings.ReplaceAll(res, "*", ""), -1) {
		items = append(items, listItem{
			Name:        strings.TrimSpace(m[1]),
			Description: strings.TrimSpace(m[2]),
		})
	}
	return items
}

// extractYAML decodes the fenced YAML block in a model response into
// out, falling back to treating the whole response as YAML when no fence
// is present.
func extractYAML(res string, out any) error {
	payload := res
	if m := yamlFenceRe.FindStringSubmatch(res); m != nil {
		payload = m[1]
	}
	if err := yaml.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("%w: %v", ErrAIStructure, err)
	}
	return nil
}
