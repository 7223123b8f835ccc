package notifications

import (
	"net/url"
	"strings"
)

const deepLinkBase = "https://wa.me/"

// Message is an outbound text addressed to a WhatsApp number. Delivery is the
// caller's concern; the API hands the link back to the client to open.
type Message struct {
	Recipient string `json:"recipient"`
	Text      string `json:"text"`
}

// Link builds the wa.me deep link with the text pre-filled.
func (m Message) Link() string {
	return deepLinkBase + PhoneDigits(m.Recipient) + "?text=" + encodeText(m.Text)
}

// PhoneDigits strips everything but digits, so "+255 700 000 000" becomes
// "255700000000".
func PhoneDigits(phone string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
}

// encodeText percent-encodes spaces as %20 rather than '+'.
func encodeText(text string) string {
	return strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}

// Outbound is the JSON shape handed back to clients: the message plus the
// ready-to-open link.
type Outbound struct {
	Recipient string `json:"recipient"`
	Text      string `json:"text"`
	Link      string `json:"link"`
}

// Outbound renders the message for an API response.
func (m Message) Outbound() *Outbound {
	return &Outbound{Recipient: m.Recipient, Text: m.Text, Link: m.Link()}
}
