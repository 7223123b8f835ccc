package notifications

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kukumart/marketplace-backend/pkg/db/models"
	"github.com/kukumart/marketplace-backend/pkg/enums"
	"github.com/kukumart/marketplace-backend/pkg/types"
)

func sampleOrder() models.Order {
	return models.Order{
		ID:          uuid.MustParse("3f2a9c1e-7b4d-4e8a-9a61-0c5d2e8f1b77"),
		UserName:    "Asha",
		UserContact: "+255711222333",
		VendorName:  "Kuku Bora",
		Items:       []types.OrderItem{{Name: "Kuku wa Kienyeji", Qty: 3, Price: 12000, Unit: enums.UnitPiece}},
		Qty:         3,
		Total:       39000,
		PayMethod:   enums.PaymentMpesa,
		Status:      enums.OrderStatusPending,
	}
}

func TestFormatNotificationTemplatedStatuses(t *testing.T) {
	f := NewFormatter("")
	order := sampleOrder()

	for _, status := range []enums.OrderStatus{
		enums.OrderStatusProcessing,
		enums.OrderStatusWaiting,
		enums.OrderStatusOnway,
		enums.OrderStatusDelivered,
	} {
		t.Run(status.String(), func(t *testing.T) {
			msg, ok := f.FormatNotification(order, status)
			require.True(t, ok)
			require.NotNil(t, msg)
			assert.Equal(t, order.UserContact, msg.Recipient)
			assert.Contains(t, msg.Text, "#3f2a9c1e")
			assert.Contains(t, msg.Text, "Kuku wa Kienyeji")
			assert.Contains(t, msg.Text, status.Label())
			assert.Contains(t, msg.Text, "Kuku Bora")
		})
	}
}

func TestFormatNotificationSilentStatuses(t *testing.T) {
	f := NewFormatter("")
	for _, status := range []enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusPickup} {
		msg, ok := f.FormatNotification(sampleOrder(), status)
		assert.False(t, ok, status)
		assert.Nil(t, msg, status)
	}
}

func TestMessageLinkEncodesText(t *testing.T) {
	msg := Message{Recipient: "+255 711 222 333", Text: "Habari Asha & karibu 100%"}
	link := msg.Link()

	require.True(t, strings.HasPrefix(link, "https://wa.me/255711222333?text="))
	assert.NotContains(t, link, "+")
	assert.NotContains(t, link, " ")

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, msg.Text, parsed.Query().Get("text"))
}

func TestCheckoutConfirmationGoesToAdmin(t *testing.T) {
	f := NewFormatter("+255700000000")
	msg := f.CheckoutConfirmation(context.Background(), sampleOrder())

	assert.Equal(t, "+255700000000", msg.Recipient)
	assert.Contains(t, msg.Text, "Uthibitisho wa Agizo")
	assert.Contains(t, msg.Text, "TZS 39,000")
	assert.Contains(t, msg.Text, "× 3")
	assert.Contains(t, msg.Text, "mpesa")
	assert.True(t, strings.HasPrefix(msg.Link(), "https://wa.me/255700000000?text="))
}

func TestVendorApplication(t *testing.T) {
	f := NewFormatter("+255799000111")
	msg := f.VendorApplication(context.Background(), models.User{Name: "Juma", ShopName: "Mayai Fresh", Contact: "+255744000000"})

	assert.Equal(t, "+255799000111", msg.Recipient)
	assert.Contains(t, msg.Text, "Mayai Fresh")
	assert.Contains(t, msg.Text, "Juma")
	assert.Contains(t, msg.Text, "+255744000000")
}

type fixedContact struct {
	number string
	err    error
}

func (c fixedContact) AdminWhatsApp(context.Context) (string, error) {
	return c.number, c.err
}

func TestAdminWhatsAppPrefersContactSource(t *testing.T) {
	base := NewFormatter("+255700000001")
	ctx := context.Background()

	assert.Equal(t, "+255700000001", base.AdminWhatsApp(ctx))
	assert.Equal(t, DefaultAdminWhatsApp, NewFormatter(" ").AdminWhatsApp(ctx))

	saved := base.WithAdminContact(fixedContact{number: " +255788999000 "})
	assert.Equal(t, "+255788999000", saved.AdminWhatsApp(ctx))
	assert.Equal(t, "+255788999000", saved.CheckoutConfirmation(ctx, sampleOrder()).Recipient)
	assert.Equal(t, "+255700000001", base.AdminWhatsApp(ctx), "the original formatter is unchanged")

	assert.Equal(t, "+255700000001", base.WithAdminContact(fixedContact{}).AdminWhatsApp(ctx))
	assert.Equal(t, "+255700000001", base.WithAdminContact(fixedContact{number: "+255711", err: errors.New("db down")}).AdminWhatsApp(ctx))
}

func TestOrderInquiryAsksAdminForStatus(t *testing.T) {
	order := sampleOrder()
	order.Status = enums.OrderStatusOnway
	msg := NewFormatter("+255799000111").OrderInquiry(context.Background(), order)

	assert.Equal(t, "+255799000111", msg.Recipient)
	assert.True(t, strings.HasPrefix(msg.Text, "Habari, naomba kujua hali ya agizo langu #3f2a9c1e."))
	assert.Contains(t, msg.Text, "Kuku wa Kienyeji")
	assert.Contains(t, msg.Text, enums.OrderStatusOnway.Label())
	assert.True(t, strings.HasPrefix(msg.Link(), "https://wa.me/255799000111?text="))
}
