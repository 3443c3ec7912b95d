// internal/models/artifact.go
package models

import (
	"fmt"
	"regexp"
	"strings"
)

var nonceTagPattern = regexp.MustCompile(`<meta name="deployment-nonce" content="[^"]*">`)

// NonceMetaTag returns the exact marker tag the verifier looks for. Its shape
// is the contract between orchestrator and verifier and must not be altered.
func NonceMetaTag(nonce string) string {
	return fmt.Sprintf(`<meta name="deployment-nonce" content="%s">`, nonce)
}

// InjectNonce inserts the nonce meta tag immediately before the head close
// tag, exactly once. Documents without a head close tag are returned
// unchanged; the verifier will then (correctly) never confirm them.
func InjectNonce(html, nonce string) string {
	tag := NonceMetaTag(nonce)
	return strings.Replace(html, "</head>", "    "+tag+"\n</head>", 1)
}

// ReplaceNonce installs the nonce for a new round. A marker carried over from
// a previous round is replaced in place; otherwise the tag is injected before
// the head close tag. Either way the document ends up with exactly one
// occurrence of the current round's marker.
func ReplaceNonce(html, nonce string) string {
	tag := NonceMetaTag(nonce)
	if loc := nonceTagPattern.FindStringIndex(html); loc != nil {
		return html[:loc[0]] + tag + html[loc[1]:]
	}
	return InjectNonce(html, nonce)
}
