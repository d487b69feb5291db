package telegram

import (
	"strings"
	"unicode/utf8"
)

// MaxMessageLength leaves headroom under Telegram's 4096-character cap for
// the chunk counter suffix.
const MaxMessageLength = 4000

// SplitMessage breaks a long message into chunks of at most maxLength
// characters, splitting on line boundaries. A single line longer than
// maxLength is hard-split; everything else keeps its original line breaks.
func SplitMessage(message string, maxLength int) []string {
	if maxLength <= 0 {
		maxLength = MaxMessageLength
	}

	var chunks []string
	var current strings.Builder

	for _, line := range strings.Split(message, "\n") {
		if current.Len()+len(line)+1 > maxLength {
			if current.Len() > 0 {
				chunks = append(chunks, strings.TrimSpace(current.String()))
				current.Reset()
			}

			if len(line) > maxLength {
				remaining := line
				for len(remaining) > 0 {
					end := maxLength
					if end >= len(remaining) {
						end = len(remaining)
					} else {
						// Never cut through a multibyte rune; Telegram
						// rejects invalid UTF-8 payloads.
						for end > 0 && !utf8.RuneStart(remaining[end]) {
							end--
						}
						if end == 0 {
							end = maxLength
						}
					}
					chunks = append(chunks, remaining[:end])
					remaining = remaining[end:]
				}
			} else {
				current.WriteString(line)
			}
		} else {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}

	if current.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}

	return chunks
}
