package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"cafe/src/common"
	"cafe/src/config"
	"cafe/src/db"
	"cafe/src/middlewares"
	"cafe/src/models"
	"cafe/src/rewards"
	"cafe/src/types"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func coinHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	admin := g.Group("", middlewares.AdminOnly)
	admin.
		POST("/coin-reward-rules", func(ctx *gin.Context) {
			var body types.CreateCoinRewardRuleRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			rule := models.CoinRewardRule{
				RewardableType: types.RewardableType(body.RewardableType),
				RewardableID:   body.RewardableID,
				Coins:          body.Coins,
				IsActive:       true,
			}
			db := db.GetDb()
			if err := db.Create(&rule).Error; err != nil {
				log.Printf("Error creating reward rule: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": rule})
		})

	g.
		GET("/coins/balance", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			balance, err := common.RewardEngine().GetBalance(userId)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"balance": balance})
		}).
		GET("/coins/history", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			limit, err := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
			if err != nil || limit < 1 || limit > 200 {
				limit = 50
			}
			entries, err := common.RewardEngine().History(userId, limit)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": entries})
		}).
		POST("/free-tickets/purchase", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			cost := config.FreeTicketCoinsCost()
			var ticket models.FreeTicket
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				engine := rewards.NewEngine(tx)
				desc := fmt.Sprintf("Purchased free ticket for %d coins", cost)
				if err := engine.Spend(userId, cost, types.COIN_SOURCE_TICKET_PURCHASE, desc); err != nil {
					return err
				}
				ticket = models.FreeTicket{
					UserID:      userId,
					PurchasedAt: common.Clock().Now(),
					IsValid:     true,
				}
				return tx.Create(&ticket).Error
			})
			if err != nil {
				if errors.Is(err, rewards.ErrInsufficientCoins) {
					ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
					return
				}
				log.Printf("Error purchasing free ticket: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": ticket})
		}).
		GET("/free-tickets", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			var tickets []models.FreeTicket
			db := db.GetDb()
			if err := db.
				Where("user_id = ?", userId).
				Order("purchased_at desc").
				Find(&tickets).
				Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": tickets})
		})
	return g
}
