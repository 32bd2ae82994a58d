package main

import (
	"errors"
	"log"
	"net/http"

	"cafe/src/booking"
	"cafe/src/common"
	"cafe/src/db"
	"cafe/src/discounts"
	"cafe/src/lib"
	"cafe/src/models"
	"cafe/src/rewards"
	"cafe/src/types"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"gorm.io/gorm"
)

func reservationErrorResponse(ctx *gin.Context, err error) {
	var invalid *discounts.InvalidError
	switch {
	case errors.Is(err, booking.ErrCapacityExceeded):
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrSessionNotBookable),
		errors.Is(err, booking.ErrFreeTicketUnavailable),
		errors.Is(err, booking.ErrNotPending),
		errors.Is(err, booking.ErrReservationExpired),
		errors.Is(err, rewards.ErrInsufficientCoins):
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &invalid):
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "reason": invalid.Reason})
	case errors.Is(err, gorm.ErrRecordNotFound):
		ctx.Status(http.StatusNotFound)
	default:
		log.Printf("Reservation error: %s\n", err.Error())
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

func reservationHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/reservations", func(ctx *gin.Context) {
			var body types.CreateReservationRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			lc := common.ReservationLifecycle()
			reservation, err := lc.Create(ctx.Copy(), userId, &body)
			if err != nil {
				reservationErrorResponse(ctx, err)
				return
			}
			var redirectUrl *string
			if reservation.Payment != nil {
				redirectUrl = reservation.Payment.RedirectURL
			}
			ctx.JSON(http.StatusCreated, gin.H{
				"data":         reservation,
				"redirect_url": redirectUrl,
				"expires_at":   reservation.ExpiresAt,
			})
		}).
		GET("/reservations", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			var reservations []models.Reservation
			db := db.GetDb()
			if err := db.
				Where("user_id = ?", userId).
				Preload("Session").
				Preload("Order.Items").
				Preload("Payment").
				Order("created_at desc").
				Find(&reservations).
				Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": reservations})
		}).
		GET("/reservations/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			var reservation models.Reservation
			db := db.GetDb()
			if err := db.
				Where("id = ? AND user_id = ?", params.ID, userId).
				Preload("Session").
				Preload("Order.Items").
				Preload("Payment").
				First(&reservation).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": reservation})
		}).
		POST("/reservations/:id/confirm", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			var reservation models.Reservation
			db := db.GetDb()
			if err := db.
				Where("id = ? AND user_id = ?", params.ID, userId).
				Preload("Payment").
				First(&reservation).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if reservation.Payment == nil || reservation.Payment.GatewayTransactionID == nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no payment has been initiated for this reservation"})
				return
			}
			// Verify against the gateway rather than trusting the client.
			sc := lib.GetStripeClient()
			cs, err := sc.V1CheckoutSessions.Retrieve(ctx.Copy(), *reservation.Payment.GatewayTransactionID, nil)
			if err != nil {
				log.Printf("Error retrieving checkout session: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if cs.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
				ctx.JSON(http.StatusPaymentRequired, gin.H{"status": cs.PaymentStatus})
				return
			}
			if err := common.ReservationLifecycle().ConfirmPayment(reservation.ID, cs.ID, nil); err != nil {
				reservationErrorResponse(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"status": types.PAYMENT_PAID})
		}).
		POST("/reservations/:id/cancel", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			var reservation models.Reservation
			db := db.GetDb()
			if err := db.
				Select("id").
				Where("id = ? AND user_id = ?", params.ID, userId).
				First(&reservation).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if err := common.ReservationLifecycle().Cancel(reservation.ID); err != nil {
				reservationErrorResponse(ctx, err)
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}
