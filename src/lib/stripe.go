package lib

import (
	"context"
	"fmt"
	"log"
	"os"

	"cafe/src/models"

	"github.com/stripe/stripe-go/v82"
)

var stripeClient *stripe.Client

func GetStripeClient() *stripe.Client {
	if stripeClient != nil {
		return stripeClient
	}
	apiKey := os.Getenv("STRIPE_SECRET_KEY")
	sc := stripe.NewClient(apiKey)
	stripeClient = sc

	return sc
}

func NewStripeClient(c *stripe.Client) {
	stripeClient = c
}

// StripeGateway drives payment through a hosted Checkout Session. The
// checkout.session.completed webhook closes the loop.
type StripeGateway struct{}

func (g *StripeGateway) Name() string { return "stripe" }

func (g *StripeGateway) Initiate(ctx context.Context, txn *models.PaymentTransaction) (string, string, error) {
	sc := GetStripeClient()
	successUrl := fmt.Sprintf("%s/checkout/callback/success", os.Getenv("APP_HOST"))
	createParams := &stripe.CheckoutSessionCreateParams{
		SuccessURL: stripe.String(successUrl),
		UIMode:     stripe.String("hosted"),
		Mode:       stripe.String("payment"),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
					Currency:   stripe.String(txn.Currency),
					UnitAmount: stripe.Int64(txn.Amount),
					ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("Reservation #%d", txn.ReservationID)),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: map[string]string{
			"reservation_id": fmt.Sprint(txn.ReservationID),
			"transaction_id": txn.ID.String(),
		},
	}
	checkoutSession, err := sc.V1CheckoutSessions.Create(ctx, createParams)
	if err != nil {
		log.Printf("Error creating checkout session: %s\n", err.Error())
		return "", "", err
	}
	log.Printf("CheckoutSessionID: %s\n", checkoutSession.ID)
	return checkoutSession.URL, checkoutSession.ID, nil
}
