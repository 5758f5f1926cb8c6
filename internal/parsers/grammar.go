package parsers

import (
	"net/netip"
	"regexp"
)

// Tokens holds the named field values extracted by a matched grammar.
type Tokens map[string]string

// opt returns a pointer to the value for key, or nil when the grammar did not
// extract it.
func (t Tokens) opt(key string) *string {
	v, ok := t[key]
	if !ok {
		return nil
	}
	return &v
}

// Shared sub-patterns. The address class only narrows to plausible IP
// characters; the real syntactic check happens in grammar.match via
// netip.ParseAddr, which covers both dotted-quad and colon-hex forms.
const (
	subAuthMethod  = `(?P<authentication_method>password|publickey)`
	subUsername    = `(?P<username>[A-Za-z0-9]+)`
	subAddress     = `(?P<address>[0-9A-Fa-f.:]+)`
	subPort        = `(?P<port>[0-9]{1,5})`
	subFingerprint = `(?P<fingerprint>RSA [0-9A-Fa-f:]+)`
)

// grammar is one immutable message-shape definition. Built once at package
// init and reused by every classification call.
type grammar struct {
	category Category
	re       *regexp.Regexp
}

// The three recognized sshd message shapes, in match-priority order.
//
// login and failed_connection anchor to end of input: a body with trailing
// text after a full match must be rejected, so a failed_connection-shaped
// prefix cannot falsely claim a longer unrelated message. opened_connection
// anchors to end of line only; some daemon variants continue that message
// past the line break and the trailing content is tolerated.
var grammars = []*grammar{
	{
		category: CategoryLogin,
		re: regexp.MustCompile(`\AAccepted\s+` + subAuthMethod +
			`\s+for\s+` + subUsername +
			`\s+from\s+` + subAddress +
			`\s+port\s+` + subPort +
			`\s+(?P<protocol>ssh2)` +
			`(?:\s*:\s*` + subFingerprint + `)?\s*\z`),
	},
	{
		category: CategoryFailedConnection,
		re: regexp.MustCompile(`\AFailed\s+` + subAuthMethod +
			`\s+for\s+` + subUsername +
			`\s+from\s+` + subAddress +
			`\s+port\s+` + subPort + `\s*\z`),
	},
	{
		category: CategoryOpenedConnection,
		re: regexp.MustCompile(`\AConnection from\s+` + subAddress +
			`\s+port\s+` + subPort + `[ \t]*(?:\n|\z)`),
	},
}

// match runs the grammar against a body. All-or-nothing: it returns the full
// token set on success and nothing on any mismatch, including an address
// capture that is not a valid IPv4 or IPv6 literal.
func (g *grammar) match(body string) (Tokens, bool) {
	m := g.re.FindStringSubmatch(body)
	if m == nil {
		return nil, false
	}

	tokens := make(Tokens)
	for i, name := range g.re.SubexpNames() {
		if i == 0 || name == "" || m[i] == "" {
			continue
		}
		tokens[name] = m[i]
	}

	if _, err := netip.ParseAddr(tokens["address"]); err != nil {
		return nil, false
	}
	return tokens, true
}
