package llm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nori266/hn-filtered/internal/domain"
)

// maxContentRunes bounds how much article body is sent to the model.
const maxContentRunes = 2000

// buildPrompt asks the model to answer yes/no for each numbered topic.
func buildPrompt(item domain.Item, topics []domain.Topic, useContent bool) string {
	var numbered strings.Builder
	for i, topic := range topics {
		fmt.Fprintf(&numbered, "%d. %s\n", i+1, topic.Raw)
	}

	content := ""
	if useContent && strings.TrimSpace(item.Content) != "" {
		content = fmt.Sprintf("Article Content: %s\n", clipRunes(item.Content, maxContentRunes))
	}

	return fmt.Sprintf(`Analyze if this article is relevant to each of the following questions/topics.
For each question, respond with a single line containing the question number followed by 'yes' or 'no'.

Article Title: %s
%s
Questions/Topics:
%s
For each question above, respond with the question number followed by 'yes' or 'no' on separate lines.
Example:
1. yes
2. no
3. no`, item.Title, content, numbered.String())
}

// parseAnswers maps the model's numbered answer lines back onto the topics.
// Noise lines are skipped; a topic without an answer stays not relevant. The
// second return value is false when no line could be parsed at all.
func parseAnswers(response string, count int) (map[int]string, bool) {
	answers := make(map[int]string)
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line[0] < '0' || line[0] > '9' {
			continue
		}

		num, answer, found := strings.Cut(line, ".")
		if !found {
			continue
		}

		idx, err := strconv.Atoi(strings.TrimSpace(num))
		if err != nil || idx < 1 || idx > count {
			continue
		}

		answers[idx-1] = strings.ToLower(strings.TrimSpace(answer))
	}
	return answers, len(answers) > 0
}

func clipRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
