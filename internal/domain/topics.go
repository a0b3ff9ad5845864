package domain

import "strings"

// Topic is a short statement of interest. Normalized is the form used for
// embedding and comparison; the topic list is immutable for one run.
type Topic struct {
	Raw        string
	Normalized string
}

// NewTopic builds a topic from raw user input.
func NewTopic(raw string) Topic {
	return Topic{
		Raw:        strings.TrimSpace(raw),
		Normalized: strings.Join(strings.Fields(strings.ToLower(raw)), " "),
	}
}

// ParseTopics splits free-form topic text into topics, one per line. Leading
// list dashes are stripped and blank lines skipped, matching the topics.txt
// format users upload.
func ParseTopics(text string) []Topic {
	var topics []Topic
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "- "))
		if line == "" {
			continue
		}
		topics = append(topics, NewTopic(line))
	}
	return topics
}
