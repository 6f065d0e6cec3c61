// Package intent decides which latency tier handles an utterance.
//
// The classifier is deliberately dumb: a fixed ordered keyword list checked
// by substring scan against the lower-cased transcript. Substring matching
// means false positives are expected and accepted ("fix" inside an
// unrelated word still routes to the agent). Recall wins over precision:
// a misrouted simple question costs seconds while a dropped task costs the
// whole request.
package intent

import "strings"

// Decision is the routing outcome for one utterance.
type Decision int

const (
	// Fast routes to the synchronous low-latency reply path.
	Fast Decision = iota
	// Deferred routes to the asynchronous agent via the channel.
	Deferred
)

// String returns the decision name.
func (d Decision) String() string {
	if d == Deferred {
		return "deferred"
	}
	return "fast"
}

// Classifier decides whether an utterance is a task for the agent.
// It must be pure: same text in, same answer out, no call-history state.
type Classifier interface {
	IsTask(text string) bool
}

// TaskKeywords signal work for the full agent: delegate names, action
// verbs, and domain nouns. Entries like "have " and "run " keep their
// trailing space to avoid matching inside common words.
var TaskKeywords = []string{
	"research", "create", "build", "have ", "deploy", "push", "commit", "github",
	"charlie", "dennis", "mac", "frank", "sweet dee", "sweet d", "cricket",
	"update", "fix", "make", "write", "generate", "upload", "schedule", "remind",
	"figma", "wireframe", "report", "pull request", "docker", "spring boot",
	"repo", "repository", "file", "code", "test", "deploy", "run ", "start",
	"open", "find", "search", "look up", "check on", "status of",
}

// KeywordClassifier implements Classifier with a fixed keyword list.
type KeywordClassifier struct {
	keywords []string
}

// NewKeywordClassifier returns a classifier over the default TaskKeywords.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{keywords: TaskKeywords}
}

// NewKeywordClassifierWith returns a classifier over a custom keyword list.
func NewKeywordClassifierWith(keywords []string) *KeywordClassifier {
	return &KeywordClassifier{keywords: keywords}
}

// IsTask reports whether the text contains any task keyword.
// Cost is O(keywords × len(text)); no state is kept between calls.
func (c *KeywordClassifier) IsTask(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range c.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Classify maps text to a routing decision.
func Classify(c Classifier, text string) Decision {
	if c.IsTask(text) {
		return Deferred
	}
	return Fast
}

// Verify KeywordClassifier implements Classifier at compile time.
var _ Classifier = (*KeywordClassifier)(nil)
