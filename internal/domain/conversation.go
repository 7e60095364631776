package domain

import "sort"

// PartnerSummary is the slice of the external user record a conversation
// entry carries. The users collection is owned elsewhere; we only read it.
type PartnerSummary struct {
	ID         string `bson:"_id" json:"id"`
	Username   string `bson:"username" json:"username"`
	ProfilePic string `bson:"profilePic" json:"profilePic"`
}

type ConversationSummary struct {
	PartnerID   string          `json:"partnerId"`
	LastMessage Message         `json:"lastMessage"`
	UnreadCount int             `json:"unreadCount"`
	Partner     *PartnerSummary `json:"partner,omitempty"`
}

// ReduceConversations folds every message touching user into one entry per
// distinct partner, keeping the latest message and counting unread inbound
// ones. Input order does not matter. Entries come back newest-first; equal
// timestamps fall back to descending partner ID so a snapshot always lists
// the same way.
func ReduceConversations(user string, msgs []Message) []ConversationSummary {
	byPartner := make(map[string]*ConversationSummary)
	for _, m := range msgs {
		partner := m.Recipient
		if partner == user {
			partner = m.Sender
		}
		entry, ok := byPartner[partner]
		if !ok {
			entry = &ConversationSummary{PartnerID: partner, LastMessage: m}
			byPartner[partner] = entry
		} else if newer(m, entry.LastMessage) {
			entry.LastMessage = m
		}
		if m.Recipient == user && !m.Read {
			entry.UnreadCount++
		}
	}

	out := make([]ConversationSummary, 0, len(byPartner))
	for _, entry := range byPartner {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].LastMessage.CreatedAt, out[j].LastMessage.CreatedAt
		if !a.Equal(b) {
			return a.After(b)
		}
		return out[i].PartnerID > out[j].PartnerID
	})
	return out
}

func newer(a, b Message) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
