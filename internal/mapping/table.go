package mapping

import (
	"fmt"
	"sort"
)

// Table maps a source topic to its translation rule.
//
// Thread Safety: a Table is immutable after Build and safe for concurrent
// reads without synchronisation.
type Table struct {
	description string
	rules       map[string]Rule
	order       []string // source topics in document order
}

// Build validates rules and indexes them by source topic.
//
// It fails when rules is empty (ErrNoTranslations), when any rule is
// malformed (*ValidationError), or when two rules share a source topic.
// Every rule is copied; later changes to the input do not affect the Table.
func Build(rules []Rule) (*Table, error) {
	if len(rules) == 0 {
		return nil, ErrNoTranslations
	}

	t := &Table{
		rules: make(map[string]Rule, len(rules)),
		order: make([]string, 0, len(rules)),
	}

	firstIndex := make(map[string]int, len(rules))
	for i, r := range rules {
		if err := ValidateRule(i, r); err != nil {
			return nil, err
		}
		if prev, dup := firstIndex[r.SourceTopic]; dup {
			return nil, &ValidationError{
				Index:  i,
				Field:  "sourceTopic",
				Reason: fmt.Sprintf("duplicates translations[%d] (%q)", prev, r.SourceTopic),
			}
		}
		firstIndex[r.SourceTopic] = i
		t.rules[r.SourceTopic] = r.clone()
		t.order = append(t.order, r.SourceTopic)
	}

	return t, nil
}

// BuildDocument builds a Table from a decoded mapping document.
func BuildDocument(doc *Document) (*Table, error) {
	if doc == nil {
		return nil, ErrNoTranslations
	}
	t, err := Build(doc.Translations)
	if err != nil {
		return nil, err
	}
	t.description = doc.Description
	return t, nil
}

// Lookup returns the rule for an exact source topic match.
func (t *Table) Lookup(topic string) (Rule, bool) {
	r, ok := t.rules[topic]
	if !ok {
		return Rule{}, false
	}
	return r.clone(), true
}

// SubscriptionTopics returns every source topic, sorted, one entry per key.
func (t *Table) SubscriptionTopics() []string {
	topics := make([]string, 0, len(t.rules))
	for topic := range t.rules {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// Rules returns copies of all rules in document order.
func (t *Table) Rules() []Rule {
	out := make([]Rule, 0, len(t.order))
	for _, topic := range t.order {
		out = append(out, t.rules[topic].clone())
	}
	return out
}

// Len returns the number of rules.
func (t *Table) Len() int {
	return len(t.rules)
}

// DestinationCount returns the total number of publish targets across all rules.
func (t *Table) DestinationCount() int {
	n := 0
	for _, r := range t.rules {
		n += len(r.DestinationTopics)
	}
	return n
}

// Description returns the document description, if the table came from one.
func (t *Table) Description() string {
	return t.description
}
