// Package notifications turns order and vendor events into WhatsApp messages.
package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/kukumart/marketplace-backend/pkg/db/models"
	"github.com/kukumart/marketplace-backend/pkg/enums"
	"github.com/kukumart/marketplace-backend/pkg/money"
)

// DefaultAdminWhatsApp receives checkout confirmations and vendor applications
// when no number is configured.
const DefaultAdminWhatsApp = "+255700000000"

// AdminContact supplies the admin number when a message is built, so a
// number saved in the runtime settings applies without a restart.
type AdminContact interface {
	AdminWhatsApp(ctx context.Context) (string, error)
}

// Formatter builds message templates.
type Formatter struct {
	fallback string
	contact  AdminContact
}

// NewFormatter returns a formatter addressing admin messages to adminWhatsApp.
func NewFormatter(adminWhatsApp string) *Formatter {
	if strings.TrimSpace(adminWhatsApp) == "" {
		adminWhatsApp = DefaultAdminWhatsApp
	}
	return &Formatter{fallback: strings.TrimSpace(adminWhatsApp)}
}

// WithAdminContact returns a copy that asks src for the admin number. The
// fixed number is used when src fails or has none.
func (f *Formatter) WithAdminContact(src AdminContact) *Formatter {
	clone := *f
	clone.contact = src
	return &clone
}

// AdminWhatsApp returns the number admin-bound messages go to.
func (f *Formatter) AdminWhatsApp(ctx context.Context) string {
	if f.contact == nil {
		return f.fallback
	}
	number, err := f.contact.AdminWhatsApp(ctx)
	if err != nil || strings.TrimSpace(number) == "" {
		return f.fallback
	}
	return strings.TrimSpace(number)
}

// FormatNotification returns the buyer message for a status change. Only
// processing, waiting, onway and delivered have templates; pending and pickup
// report false.
func (f *Formatter) FormatNotification(order models.Order, status enums.OrderStatus) (*Message, bool) {
	qty := order.Qty
	if len(order.Items) > 0 {
		qty = order.Items[0].Qty
	}
	data := templateData{
		buyer: order.UserName,
		ref:   order.ShortID(),
		item:  order.ItemName(),
		qty:   qty,
		shop:  order.VendorName,
		label: status.Label(),
	}

	var text string
	switch status {
	case enums.OrderStatusProcessing:
		text = processingTemplate(data)
	case enums.OrderStatusWaiting:
		text = waitingTemplate(data)
	case enums.OrderStatusOnway:
		text = onwayTemplate(data)
	case enums.OrderStatusDelivered:
		text = deliveredTemplate(data)
	default:
		return nil, false
	}
	return &Message{Recipient: order.UserContact, Text: text}, true
}

// CheckoutConfirmation is the buyer's confirmation sent to the admin number
// right after an order is placed.
func (f *Formatter) CheckoutConfirmation(ctx context.Context, order models.Order) Message {
	text := fmt.Sprintf("*Uthibitisho wa Agizo — KukuMart* 🐔\n\nHabari, agizo langu #%s limepokewa!\n\nBidhaa: *%s* × %d\nJumla: *%s*\nNjia: *%s*\n\nAsante!",
		order.ShortID(), order.ItemName(), order.Qty, money.Format(order.Total), order.PayMethod)
	return Message{Recipient: f.AdminWhatsApp(ctx), Text: text}
}

// OrderInquiry is the buyer asking the admin where an order stands.
func (f *Formatter) OrderInquiry(ctx context.Context, order models.Order) Message {
	text := fmt.Sprintf("Habari, naomba kujua hali ya agizo langu #%s.\n\nBidhaa: *%s*\nHali ya sasa: *%s*",
		order.ShortID(), order.ItemName(), order.Status.Label())
	return Message{Recipient: f.AdminWhatsApp(ctx), Text: text}
}

// VendorApplication asks the admin to review a newly registered shop.
func (f *Formatter) VendorApplication(ctx context.Context, vendor models.User) Message {
	text := fmt.Sprintf("*Maombi Mapya ya Muuzaji — KukuMart*\n\nJina la Duka: %s\nMmiliki: %s\nSimu: %s\n\nTafadhali nihakikie.",
		vendor.DisplayShopName(), vendor.Name, vendor.Contact)
	return Message{Recipient: f.AdminWhatsApp(ctx), Text: text}
}

type templateData struct {
	buyer string
	ref   string
	item  string
	qty   int64
	shop  string
	label string
}

func processingTemplate(d templateData) string {
	return fmt.Sprintf("Habari *%s*, oda yako namba *#%s* imeshapokelewa rasmi! 🐔\n\nHALI: *%s*\nBIDHAA: *%s* x %d\nMUUZAJI: *%s*\n\nTunafanya kazi kwa haraka ili mzigo wako uwe tayari. Utapata update mara tu itakapoanza safari. Asante kwa kutumia KukuMart!",
		d.buyer, d.ref, d.label, d.item, d.qty, d.shop)
}

func waitingTemplate(d templateData) string {
	return fmt.Sprintf("Habari *%s*, oda yako *#%s* imeshakamilika kuandaliwa na *%s*! 📦\n\nHALI: *%s*\nBIDHAA: *%s*\n\nMsafirishaji akishachukua mzigo, utatumiwa namba yake ya simu kwa ajili ya mawasiliano zaidi. Kaa karibu na simu yako!",
		d.buyer, d.ref, d.shop, d.label, d.item)
}

func onwayTemplate(d templateData) string {
	return fmt.Sprintf("Habari *%s*, habari njema! Oda yako *#%s* imeshatoka kuelekea kwako sasa hivi! 🚚💨\n\nMUUZAJI: *%s*\nBIDHAA: *%s* (%d)\nHALI: *%s*\n\nUnaweza kufuatilia safari ya mzigo wako kupitia App ya KukuMart. Mpokeaji awe tayari kupokea simu ya msafirishaji. Asante!",
		d.buyer, d.ref, d.shop, d.item, d.qty, d.label)
}

func deliveredTemplate(d templateData) string {
	return fmt.Sprintf("Hongera *%s*! 🎊 Oda yako *#%s* imeshawasilishwa kwako.\n\nHALI: *%s*\nBidhaa: *%s*\nKutoka: *%s*\n\nTunakuomba uingie kwenye App ya KukuMart kuthibitisha kuwa umepokea mzigo ili muuzaji aweze kulipwa. Karibu tena!",
		d.buyer, d.ref, d.label, d.item, d.shop)
}
