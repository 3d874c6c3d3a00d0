package service

import (
	"regexp"
	"strings"
)

// Content sanitization strips active HTML before storage: script and iframe
// blocks, javascript: URIs, and inline event-handler attributes.
var (
	scriptTagRe    = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	iframeTagRe    = regexp.MustCompile(`(?is)<iframe[^>]*>.*?</iframe>`)
	jsURIRe        = regexp.MustCompile(`(?i)javascript:`)
	eventHandlerRe = regexp.MustCompile(`(?i)on\w+\s*=`)
)

func sanitizeContent(content string) string {
	content = scriptTagRe.ReplaceAllString(content, "")
	content = iframeTagRe.ReplaceAllString(content, "")
	content = jsURIRe.ReplaceAllString(content, "")
	content = eventHandlerRe.ReplaceAllString(content, "")
	return strings.TrimSpace(content)
}
