package code

import (
	"regexp"
	"strings"
)

var (
	fencedBlock    = regexp.MustCompile("(?s)```[ \\t]*(\\w+)?[ \\t]*\\r?\\n(.*?)\\r?\\n[ \\t]*```")
	fencedOrInline = regexp.MustCompile("(?s)```[ \\t]*(\\w+)?[ \\t]*\\r?\\n(.*?)\\r?\\n[ \\t]*```|`([^`]+)`")
)

// Block is one extracted code block. Language is empty when the fence had no tag.
type Block struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

// ExtractCode returns the code blocks found in text in document order.
//
// Only fenced blocks are recognised unless detectSingleLine is set, in which
// case inline `code` spans are returned too and every result is trimmed.
func ExtractCode(text string, detectSingleLine bool) []Block {
	if !detectSingleLine {
		matches := fencedBlock.FindAllStringSubmatch(text, -1)
		blocks := make([]Block, 0, len(matches))
		for _, m := range matches {
			blocks = append(blocks, Block{Language: m[1], Code: m[2]})
		}
		return blocks
	}

	matches := fencedOrInline.FindAllStringSubmatch(text, -1)
	blocks := make([]Block, 0, len(matches))
	for _, m := range matches {
		if m[3] != "" {
			blocks = append(blocks, Block{Code: strings.TrimSpace(m[3])})
			continue
		}
		blocks = append(blocks, Block{Language: strings.TrimSpace(m[1]), Code: strings.TrimSpace(m[2])})
	}
	return blocks
}

var shellPrefixes = []string{"python ", "python3 ", "pip ", "pip3 ", "sh ", "bash ", "ls", "cd ", "echo ", "cat ", "mkdir ", "rm ", "mv ", "cp ", "curl ", "wget ", "apt", "export "}

// InferLanguage guesses the language of an untagged block: commands that look
// like shell invocations run as "sh", everything else as "python".
func InferLanguage(code string) string {
	trimmed := strings.TrimSpace(code)
	for _, p := range shellPrefixes {
		if strings.HasPrefix(trimmed, p) {
			return "sh"
		}
	}
	return "python"
}
