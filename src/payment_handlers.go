package main

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"

	"cafe/src/booking"
	"cafe/src/common"
	"cafe/src/types"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"github.com/tidwall/gjson"
)

func stripeWebhookRoute(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	apiv1.POST("/webhook/stripe", func(ctx *gin.Context) {
		payload, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			log.Printf("Error reading request body: %s\n", err.Error())
			ctx.Status(http.StatusServiceUnavailable)
			return
		}
		whsecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
		event, err := webhook.ConstructEvent(payload, ctx.GetHeader("Stripe-Signature"), whsecret)
		if err != nil {
			log.Printf("Error verifying webhook signature: %s\n", err.Error())
			ctx.Status(http.StatusBadRequest)
			return
		}
		log.Printf("[StripeEvent] %s\n", event.Type)
		switch event.Type {
		case "checkout.session.completed":
			reservationId := gjson.GetBytes(event.Data.Raw, "metadata.reservation_id")
			if !reservationId.Exists() {
				log.Printf("[Stripe] checkout session without reservation_id metadata. Ignoring")
				break
			}
			var cs stripe.CheckoutSession
			if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
				log.Printf("[Stripe] Error parsing CheckoutSession: %s\n", err.Error())
				break
			}
			atoi, err := strconv.Atoi(reservationId.String())
			if err != nil {
				log.Printf("Could not read reservation id from metadata for session %s: %s\n", cs.ID, err.Error())
				break
			}
			metadata := types.Metadata{
				"checkout_session_id": cs.ID,
				"payment_status":      string(cs.PaymentStatus),
				"amount_total":        cs.AmountTotal,
			}
			err = common.ReservationLifecycle().ConfirmPayment(uint(atoi), cs.ID, metadata)
			switch err {
			case nil:
			case booking.ErrReservationExpired:
				// the money was taken after the deadline; leave the reservation
				// expired and let support refund from the gateway dashboard
				log.Printf("Late payment callback for reservation %d (session %s)\n", atoi, cs.ID)
			default:
				log.Printf("Error confirming reservation %d: %s\n", atoi, err.Error())
			}
		case "checkout.session.expired":
			reservationId := gjson.GetBytes(event.Data.Raw, "metadata.reservation_id")
			log.Printf("[Stripe] checkout session expired for reservation %s\n", reservationId.String())
		}
		ctx.Status(http.StatusNoContent)
	})
	return apiv1
}
