package availability

import (
	"context"
	"strings"
	"unicode/utf8"
)

// SearchUsers finds up to SearchLimit users whose name or email contains query,
// excluding the caller. Queries shorter than MinQueryLength return an empty
// result without touching the store.
func (e *Engine) SearchUsers(ctx context.Context, query, excludeUserID string) ([]UserSummary, error) {
	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < e.cfg.MinQueryLength {
		return []UserSummary{}, nil
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	users, err := e.store.Users().Search(ctx, q, excludeUserID, e.cfg.SearchLimit)
	if err != nil {
		return nil, storeError("search users", err)
	}

	out := make([]UserSummary, 0, len(users))
	for _, u := range users {
		if u.ID == excludeUserID {
			continue
		}
		out = append(out, UserSummary{Name: u.Name, Email: u.Email})
		if len(out) == e.cfg.SearchLimit {
			break
		}
	}
	return out, nil
}
