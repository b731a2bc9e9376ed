package session

// Bag is the slice of fiber's session API the flash and CSRF helpers need.
// It is an interface so the helpers stay testable without a request context.
type Bag interface {
	Get(key string) interface{}
	Set(key string, value interface{})
	Delete(key string)
}

// Saver extends Bag with the persistence controls of a fiber session.
type Saver interface {
	Bag
	Save() error
	Destroy() error
}

// Flash kinds shown to the user after a redirect.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Flash is a one-shot status message surfaced on the next rendered page.
type Flash struct {
	Kind    string
	Message string
}

func flashKey(kind string) string {
	return "flash:" + kind
}

// AddFlash queues a one-shot message of the given kind.
func AddFlash(sess Bag, kind, message string) {
	sess.Set(flashKey(kind), message)
}

// ConsumeFlashes returns queued flash messages and clears them. Success
// messages come first.
func ConsumeFlashes(sess Bag) []Flash {
	var flashes []Flash
	for _, kind := range []string{FlashSuccess, FlashError} {
		if msg, ok := sess.Get(flashKey(kind)).(string); ok && msg != "" {
			flashes = append(flashes, Flash{Kind: kind, Message: msg})
			sess.Delete(flashKey(kind))
		}
	}
	return flashes
}
