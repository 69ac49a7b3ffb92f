package markdown

import "regexp"

var paragraphPattern = regexp.MustCompile(`\n\n|</?[a-z0-9]+|[^\n<]+|\n|<`)

var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"details": true, "div": true, "dl": true, "fieldset": true,
	"figcaption": true, "figure": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hgroup": true, "hr": true, "main": true, "menu": true,
	"nav": true, "ol": true, "p": true, "pre": true, "section": true,
	"table": true, "ul": true,
}

// InjectParagraphs inserts "<p>" markers at blank-line boundaries in
// evaluated page HTML. A marker is retracted again when the next element
// turns out to be a block-level tag, and nothing is injected inside
// <pre> regions.
func InjectParagraphs(text string) string {
	result := make([]byte, 0, len(text)+14)
	pre := 0

	for _, loc := range paragraphPattern.FindAllStringIndex(text, -1) {
		match := text[loc[0]:loc[1]]

		if len(match) >= 2 && match[0] == '\n' && match[1] == '\n' {
			if pre == 0 {
				result = retractParagraph(result)
				result = append(result, "\n\n<p>"...)
			} else {
				result = append(result, match...)
			}
			continue
		}

		if match[0] == '<' && len(match) > 1 {
			tag := match[1:]
			closing := false
			if tag[0] == '/' {
				tag = tag[1:]
				closing = true
			}

			if tag == "pre" {
				if !closing && pre == 0 {
					pre++
				} else if closing && pre > 0 {
					pre--
				}
			}

			if blockTags[tag] {
				result = retractParagraph(result)
			}
		}

		result = append(result, match...)
	}

	return string(result)
}

func retractParagraph(b []byte) []byte {
	if n := len(b); n >= 3 && string(b[n-3:]) == "<p>" {
		return b[:n-3]
	}
	return b
}
