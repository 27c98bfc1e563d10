package mapping

import (
	"fmt"
	"regexp"
	"strings"
)

// Validation constants.
const (
	// sourceTopicPattern accepts one or more topic levels made of word
	// characters, whitespace or dashes, separated by single slashes.
	// Wildcards (+, #) and empty levels never match.
	sourceTopicPattern = `^[\w\s-]+(?:/[\w\s-]+)*$`

	// maxTopicLength is the MQTT limit on a UTF-8 encoded topic name.
	maxTopicLength = 65535

	// wildcardChars are the MQTT subscription wildcards, invalid in publish topics.
	wildcardChars = "+#"
)

var sourceTopicRegex = regexp.MustCompile(sourceTopicPattern)

// ValidateRule checks a single rule's invariants.
// index is the rule's position in the document and is reported in the error.
func ValidateRule(index int, r Rule) error {
	if r.SourceTopic == "" {
		return &ValidationError{Index: index, Field: "sourceTopic", Reason: "is required"}
	}
	if len(r.SourceTopic) > maxTopicLength {
		return &ValidationError{Index: index, Field: "sourceTopic", Reason: "exceeds maximum topic length"}
	}
	if !sourceTopicRegex.MatchString(r.SourceTopic) {
		return &ValidationError{
			Index:  index,
			Field:  "sourceTopic",
			Reason: fmt.Sprintf("must be alphanumeric topic levels separated by '/' (got %q)", r.SourceTopic),
		}
	}

	if len(r.DestinationTopics) == 0 {
		return &ValidationError{Index: index, Field: "destinationTopics", Reason: "must contain at least one topic"}
	}
	for i, dest := range r.DestinationTopics {
		if err := validateDestination(index, i, dest); err != nil {
			return err
		}
	}

	return nil
}

// validateDestination checks one publish target.
func validateDestination(index, pos int, dest string) error {
	field := fmt.Sprintf("destinationTopics[%d]", pos)
	switch {
	case strings.TrimSpace(dest) == "":
		return &ValidationError{Index: index, Field: field, Reason: "cannot be empty"}
	case len(dest) > maxTopicLength:
		return &ValidationError{Index: index, Field: field, Reason: "exceeds maximum topic length"}
	case strings.ContainsAny(dest, wildcardChars):
		return &ValidationError{Index: index, Field: field, Reason: fmt.Sprintf("cannot contain wildcards (got %q)", dest)}
	case strings.ContainsRune(dest, 0):
		return &ValidationError{Index: index, Field: field, Reason: "cannot contain NUL characters"}
	}
	return nil
}
