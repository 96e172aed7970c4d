package logger

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// messager matches zerr.Error, which reports its own message without the chain.
type messager interface {
	Message() string
}

type metadataer interface {
	Metadata() map[string]any
}

// ErrorEntry is one link of an error chain.
type ErrorEntry struct {
	Message  string
	Metadata map[string]any
}

// collectErrorEntries walks the chain of zerr errors. The first error that is
// not a zerr error ends the walk with its full message.
func collectErrorEntries(err error) []ErrorEntry {
	var entries []ErrorEntry
	for current := err; current != nil; {
		m, ok := current.(messager)
		if !ok {
			entries = append(entries, ErrorEntry{Message: current.Error()})
			break
		}

		entry := ErrorEntry{Message: m.Message()}
		if md, ok := current.(metadataer); ok {
			entry.Metadata = md.Metadata()
		}
		entries = append(entries, entry)
		current = errors.Unwrap(current)
	}
	return mergeEmpty(entries)
}

// mergeEmpty folds message-less entries, such as zerr.With on a standard
// error, into the entry that follows.
func mergeEmpty(entries []ErrorEntry) []ErrorEntry {
	out := make([]ErrorEntry, 0, len(entries))
	var pending map[string]any
	for _, e := range entries {
		if e.Message == "" {
			if pending == nil {
				pending = make(map[string]any)
			}
			for k, v := range e.Metadata {
				pending[k] = v
			}
			continue
		}
		if len(pending) > 0 {
			if e.Metadata == nil {
				e.Metadata = make(map[string]any)
			}
			for k, v := range pending {
				e.Metadata[k] = v
			}
			pending = nil
		}
		out = append(out, e)
	}
	if len(pending) > 0 && len(out) > 0 {
		last := &out[len(out)-1]
		if last.Metadata == nil {
			last.Metadata = make(map[string]any)
		}
		for k, v := range pending {
			last.Metadata[k] = v
		}
	}
	return out
}

// subjectKeys name the metadata that identifies what an error is about. They
// are rendered on the message line as [key/face] instead of below it.
var subjectKeys = []string{"key", "face"}

// subject extracts the subject metadata of an entry and returns the remaining
// keys sorted.
func subject(md map[string]any) (string, []string) {
	var parts []string
	for _, k := range subjectKeys {
		if v, ok := md[k]; ok {
			parts = append(parts, fmt.Sprint(v))
		}
	}

	rest := make([]string, 0, len(md))
	for k := range md {
		if !slices.Contains(subjectKeys, k) {
			rest = append(rest, k)
		}
	}
	slices.Sort(rest)

	if len(parts) == 0 {
		return "", rest
	}
	return " [" + strings.Join(parts, "/") + "]", rest
}

// formatErrorEntries renders the entries as a main error followed by an
// indented "Caused by" list. The environment key and face tag the message
// line; other metadata follows sorted by key.
func formatErrorEntries(entries []ErrorEntry) string {
	var lines []string

	for i, entry := range entries {
		msgLines := strings.Split(entry.Message, "\n")

		head, indent := "Error: ", "       "
		if i > 0 {
			if i == 1 {
				lines = append(lines, "", "  Caused by:")
			}
			head, indent = "    → ", "      "
		}

		tag, keys := subject(entry.Metadata)
		lines = append(lines, head+msgLines[0]+tag)
		for _, line := range msgLines[1:] {
			lines = append(lines, indent+line)
		}

		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("%s%s: %v", indent, k, entry.Metadata[k]))
		}
	}

	return strings.Join(lines, "\n")
}
