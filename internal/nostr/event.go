// Package nostr holds the transport-level types of the encrypted event
// feed: raw events, subscription filters, account connections and the
// payload decryption capabilities.
package nostr

// Event kinds understood by the viewer.
const (
	// KindEncryptedDirectMessage is the only kind carrying analytics
	// payloads; everything else on the feed is ignored.
	KindEncryptedDirectMessage = 4
)

// Event is a raw feed event as delivered by a relay. The content of a
// kind-4 event is an encrypted payload addressed to the recipient in the
// "p" tag.
type Event struct {
	ID        string     `json:"id"`
	PubKey    string     `json:"pubkey"`
	CreatedAt int64      `json:"created_at"`
	Kind      int        `json:"kind"`
	Tags      [][]string `json:"tags"`
	Content   string     `json:"content"`
	Sig       string     `json:"sig,omitempty"`
}

// TagValue returns the first value of the named tag, or "".
func (e *Event) TagValue(name string) string {
	for _, tag := range e.Tags {
		if len(tag) >= 2 && tag[0] == name {
			return tag[1]
		}
	}
	return ""
}

// Filter selects the events a subscription delivers: kind, recipient
// ("p" tag) and an inclusive [Since, Until] window in epoch seconds.
type Filter struct {
	Kinds     []int
	Recipient string
	Since     int64
	Until     int64
}

// Matches reports whether an event satisfies the filter.
func (f Filter) Matches(e *Event) bool {
	if len(f.Kinds) > 0 {
		found := false
		for _, kind := range f.Kinds {
			if e.Kind == kind {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Recipient != "" && e.TagValue("p") != f.Recipient {
		return false
	}
	if f.Since > 0 && e.CreatedAt < f.Since {
		return false
	}
	if f.Until > 0 && e.CreatedAt > f.Until {
		return false
	}
	return true
}
