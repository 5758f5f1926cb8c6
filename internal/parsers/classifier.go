// Package parsers classifies sshd message bodies against a fixed set of
// grammars and extracts their fields into typed records.
package parsers

// Reporter is the process tag sshd messages are logged under. Bodies from
// other reporters are not worth classifying.
const Reporter = "sshd"

// Classify tries each grammar against the body in declared order and returns
// the first match. The grammars start with distinct literals so at most one
// can match, but first-match-wins is still the contract. A false result means
// the body is not an sshd message shape we know; that is the normal outcome
// for most log lines, not an error.
func Classify(body string) (Category, Tokens, bool) {
	for _, g := range grammars {
		if tokens, ok := g.match(body); ok {
			return g.category, tokens, true
		}
	}
	return "", nil, false
}
