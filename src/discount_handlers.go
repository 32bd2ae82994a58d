package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"cafe/src/common"
	"cafe/src/config"
	"cafe/src/db"
	"cafe/src/discounts"
	"cafe/src/lib"
	"cafe/src/middlewares"
	"cafe/src/models"
	"cafe/src/rewards"
	"cafe/src/types"
	"cafe/src/utils"

	"github.com/gin-gonic/gin"
)

func discountHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	admin := g.Group("", middlewares.AdminOnly)
	admin.
		POST("/discount-codes", func(ctx *gin.Context) {
			var body types.CreateDiscountCodeRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			expiresAt, err := time.Parse(config.TIME_PARSE_FORMAT, body.ExpiresAt)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if body.Type == string(types.DISCOUNT_PERCENTAGE) && body.Value > 100 {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "percentage value cannot exceed 100"})
				return
			}
			code := models.DiscountCode{
				Code:           utils.GenerateDiscountCode(body.Name),
				Name:           body.Name,
				Type:           types.DiscountType(body.Type),
				Value:          body.Value,
				MinOrderAmount: body.MinOrderAmount,
				MaxUses:        body.MaxUses,
				CoinsCost:      body.CoinsCost,
				ExpiresAt:      expiresAt,
			}
			db := db.GetDb()
			if err := db.Create(&code).Error; err != nil {
				log.Printf("Error creating discount code: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": code})
		})

	g.
		GET("/discount-codes", func(ctx *gin.Context) {
			var codes []models.DiscountCode
			db := db.GetDb()
			if err := db.
				Where("expires_at > ?", common.Clock().Now()).
				Order("coins_cost asc").
				Find(&codes).
				Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": codes})
		}).
		GET("/discount-codes/validate", func(ctx *gin.Context) {
			var query types.ValidateDiscountQuery
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			// live-preview endpoint; cache briefly to absorb keystroke bursts
			rd := lib.GetRedisClient()
			cacheKey := fmt.Sprintf("discount:validate:%s:%d", query.Code, query.Amount)
			if rd != nil {
				if cached := rd.Get(context.Background(), cacheKey).Val(); cached != "" {
					var result discounts.ValidationResult
					if err := json.Unmarshal([]byte(cached), &result); err == nil {
						ctx.JSON(http.StatusOK, gin.H{"data": result})
						return
					}
				}
			}
			result, _, err := common.DiscountLedger().Validate(query.Code, query.Amount)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if rd != nil {
				go func() {
					if b, err := json.Marshal(result); err == nil {
						rd.SetEx(context.Background(), cacheKey, string(b), time.Minute)
					}
				}()
			}
			ctx.JSON(http.StatusOK, gin.H{"data": result})
		}).
		POST("/discount-codes/:id/purchase", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			instance, err := common.DiscountLedger().Purchase(userId, params.ID)
			if err != nil {
				var invalid *discounts.InvalidError
				switch {
				case errors.Is(err, rewards.ErrInsufficientCoins):
					ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				case errors.As(err, &invalid):
					status := http.StatusUnprocessableEntity
					if invalid.Reason == discounts.ReasonNotFound {
						status = http.StatusNotFound
					}
					ctx.JSON(status, gin.H{"error": err.Error(), "reason": invalid.Reason})
				default:
					log.Printf("Error purchasing discount code %d: %s\n", params.ID, err.Error())
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				}
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": instance})
		}).
		GET("/discount-codes/owned", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			var instances []models.UserDiscountCode
			db := db.GetDb()
			if err := db.
				Where("user_id = ?", userId).
				Preload("DiscountCode").
				Order("purchased_at desc").
				Find(&instances).
				Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": instances})
		})
	return g
}
