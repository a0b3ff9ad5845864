package domain

import "time"

// Item is a single news entry produced by a fetch source.
// The ID is source-assigned and stable across runs.
type Item struct {
	ID            string
	Title         string
	URL           string
	Content       string
	Source        string
	PublishedAt   time.Time
	CommentCount  int
	DiscussionURL string
}

// TopicScore pairs a topic with its embedding similarity to an item.
type TopicScore struct {
	Topic Topic
	Score float64
}

// SimilarityCandidate is the stage-1 output for one item: the topics that
// passed the similarity threshold, sorted by score descending. It lives only
// for the duration of a run and is never persisted.
type SimilarityCandidate struct {
	ItemID string
	Scores []TopicScore
}

// Topics returns the shortlisted topics in score order.
func (c SimilarityCandidate) Topics() []Topic {
	topics := make([]Topic, len(c.Scores))
	for i, s := range c.Scores {
		topics[i] = s.Topic
	}
	return topics
}

// TopicVerdict is the verifier's answer for a single (item, topic) pair.
type TopicVerdict struct {
	Topic      Topic   `json:"topic"`
	Relevant   bool    `json:"relevant"`
	Answer     string  `json:"answer"`
	Similarity float64 `json:"similarity"`
}

// VerificationResult is the final verdict for an item. Verified is false for
// items that never reached the verifier (empty shortlist) or whose response
// could not be obtained or parsed.
type VerificationResult struct {
	ItemID     string
	Verified   bool
	IsRelevant bool
	Matches    []TopicVerdict
	Rationale  string
	VerifiedAt time.Time
}

// RelevantMatches returns only the confirmed matches.
func (v VerificationResult) RelevantMatches() []TopicVerdict {
	var out []TopicVerdict
	for _, m := range v.Matches {
		if m.Relevant {
			out = append(out, m)
		}
	}
	return out
}

// StoredItem is a persisted item together with its verdict, as returned by
// history queries.
type StoredItem struct {
	Item    Item
	Verdict VerificationResult
}
