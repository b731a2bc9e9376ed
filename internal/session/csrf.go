package session

import (
	"crypto/subtle"
	"strconv"

	"github.com/google/uuid"
)

// CSRF intentions for named (non-delete) actions. Delete actions use
// DeleteIntent, which binds the token to one specific entity.
const (
	IntentPostForm        = "post_form"
	IntentCommentForm     = "comment_form"
	IntentCommentQuickAdd = "comment_quick_add"
	IntentLogin           = "authenticate"
)

func csrfKey(intention string) string {
	return "csrf:" + intention
}

// DeleteIntent returns the per-entity intention for delete actions,
// following the "delete<id>" pattern.
func DeleteIntent(id uint) string {
	return "delete" + strconv.FormatUint(uint64(id), 10)
}

// CSRFToken returns the token for an intention, minting and storing one on
// first use. The same intention always yields the same token within a
// session, so a re-rendered form keeps a working token.
func CSRFToken(sess Bag, intention string) string {
	if tok, ok := sess.Get(csrfKey(intention)).(string); ok && tok != "" {
		return tok
	}
	tok := uuid.NewString()
	sess.Set(csrfKey(intention), tok)
	return tok
}

// ValidCSRFToken reports whether the submitted token matches the stored one
// for the intention. Unknown intentions and empty submissions never match.
func ValidCSRFToken(sess Bag, intention, submitted string) bool {
	if submitted == "" {
		return false
	}
	stored, ok := sess.Get(csrfKey(intention)).(string)
	if !ok || stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) == 1
}
