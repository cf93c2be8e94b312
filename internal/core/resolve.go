package core

import (
	"fmt"
	"regexp"
	"strings"

	"splitcore/pkg/domain"
)

// The resolver turns fuzzy or symbolic targets into concrete ids immediately
// before execution: sessions by free-text query, people by batch-scoped ref
// tokens.

var sessionStopWords = map[string]struct{}{
	"receipt": {}, "session": {}, "sessions": {},
	"the": {}, "a": {}, "an": {}, "my": {},
	"in": {}, "on": {}, "called": {}, "named": {},
}

var (
	nonAlnumRe   = regexp.MustCompile(`[^a-z0-9\s]+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// normalizeSessionQuery lowercases, strips punctuation, collapses whitespace,
// and drops filler words so "the Office Lunch!!" matches a title "office lunch".
func normalizeSessionQuery(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	q = nonAlnumRe.ReplaceAllString(q, " ")
	q = strings.TrimSpace(whitespaceRe.ReplaceAllString(q, " "))
	var kept []string
	for _, part := range strings.Fields(q) {
		if _, stop := sessionStopWords[part]; stop {
			continue
		}
		kept = append(kept, part)
	}
	return strings.Join(kept, " ")
}

// resolveSession finds the target session by id or by normalized query.
// Ambiguity is never guessed away: several query matches ask the user to
// disambiguate by opening the session directly.
func resolveSession(view domain.TransactionView, sessionID int64, sessionQuery string) (Session, error) {
	if sessionID > 0 {
		session, ok := view.FindSession(sessionID)
		if !ok {
			return Session{}, fmt.Errorf("I couldn't find that session.")
		}
		return session, nil
	}
	if sessionQuery != "" {
		query := normalizeSessionQuery(sessionQuery)
		// A query of only filler words normalizes to "", which matches
		// every session. It still resolves when exactly one exists.
		matches := view.ListSessions()
		if query != "" {
			matches = view.SearchSessionsByTitle(query)
		}
		switch len(matches) {
		case 0:
			return Session{}, fmt.Errorf("I couldn't find a session matching '%s'.", query)
		case 1:
			return matches[0], nil
		default:
			return Session{}, fmt.Errorf("Multiple sessions match '%s'. Please open the session and try again.", query)
		}
	}
	return Session{}, fmt.Errorf("Please tell me which session (title) you mean.")
}

// refTable maps symbolic person ref tokens to the concrete ids created earlier
// in the same batch. Tokens bind as add operations succeed; lookups of unbound
// tokens are hard failures. Order is caller-authoritative.
type refTable struct {
	ids map[string]int64
}

func newRefTable() *refTable {
	return &refTable{ids: make(map[string]int64)}
}

func (t *refTable) Bind(token string, personID int64) {
	if t == nil || token == "" {
		return
	}
	t.ids[token] = personID
}

func (t *refTable) Lookup(token string) (int64, error) {
	if t != nil {
		if id, ok := t.ids[token]; ok {
			return id, nil
		}
	}
	return 0, fmt.Errorf("unknown person ref '%s'", token)
}
