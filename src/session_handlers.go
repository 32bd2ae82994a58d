package main

import (
	"errors"
	"log"
	"net/http"
	"time"

	"cafe/src/booking"
	"cafe/src/config"
	"cafe/src/db"
	"cafe/src/middlewares"
	"cafe/src/models"
	"cafe/src/types"
	"cafe/src/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func sessionHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	admin := g.Group("", middlewares.AdminOnly)
	admin.
		POST("/session-templates", func(ctx *gin.Context) {
			var body types.CreateSessionTemplateRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if _, err := time.Parse(config.SESSION_TIME_FORMAT, body.StartTime); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "start_time must be in HH:MM format"})
				return
			}
			db := db.GetDb()
			var hall models.Hall
			if err := db.Where("id = ? AND is_active = ?", body.HallID, true).First(&hall).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"error": "hall not found"})
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			template := models.SessionTemplate{
				HallID:          hall.ID,
				DayOfWeek:       *body.DayOfWeek,
				StartTime:       body.StartTime,
				Price:           body.Price,
				MaxParticipants: body.MaxParticipants,
				IsActive:        true,
			}
			if err := db.Create(&template).Error; err != nil {
				log.Printf("Error creating session template: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": template})
		}).
		POST("/sessions", func(ctx *gin.Context) {
			var body types.CreateSessionRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if _, err := time.Parse(config.SESSION_TIME_FORMAT, body.StartTime); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "start_time must be in HH:MM format"})
				return
			}
			date, err := utils.ParseBusinessDate(body.Date)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			db := db.GetDb()
			var hall models.Hall
			if err := db.Where("id = ? AND is_active = ?", body.HallID, true).First(&hall).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"error": "hall not found"})
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			session := models.Session{
				BranchID:        hall.BranchID,
				HallID:          hall.ID,
				Date:            date,
				StartTime:       body.StartTime,
				Price:           body.Price,
				MaxParticipants: body.MaxParticipants,
			}
			if err := db.Create(&session).Error; err != nil {
				log.Printf("Error creating session: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": session})
		}).
		POST("/sessions/expand", func(ctx *gin.Context) {
			var body types.ExpandSessionsRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			startDate, err := utils.ParseBusinessDate(body.StartDate)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			endDate, err := utils.ParseBusinessDate(body.EndDate)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			expander := booking.NewTemplateExpander(db.GetDb())
			created, err := expander.Expand(body.TemplateIDs, startDate, endDate)
			if err != nil {
				log.Printf("Error expanding session templates: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"created": len(created), "data": created})
		}).
		POST("/menu-items", func(ctx *gin.Context) {
			var body types.CreateMenuItemRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			item := models.MenuItem{
				Name:        body.Name,
				Price:       body.Price,
				IsAvailable: true,
			}
			db := db.GetDb()
			if err := db.Create(&item).Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": item})
		})

	g.
		GET("/sessions", func(ctx *gin.Context) {
			var query struct {
				BranchID uint   `form:"branch_id"`
				DateFrom string `form:"date_from"`
				DateTo   string `form:"date_to"`
			}
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			db := db.GetDb()
			q := db.Model(&models.Session{}).Where("status = ?", types.SESSION_UPCOMING)
			if query.BranchID > 0 {
				q = q.Where("branch_id = ?", query.BranchID)
			}
			if query.DateFrom != "" {
				from, err := utils.ParseBusinessDate(query.DateFrom)
				if err != nil {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				q = q.Where("date >= ?", from)
			}
			if query.DateTo != "" {
				to, err := utils.ParseBusinessDate(query.DateTo)
				if err != nil {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				q = q.Where("date <= ?", to)
			}
			var sessions []models.Session
			if err := q.Preload("Hall").Order("date asc, start_time asc").Find(&sessions).Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": sessions})
		}).
		GET("/sessions/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			db := db.GetDb()
			var session models.Session
			if err := db.Preload("Hall").Preload("Branch").Where(&models.Session{ID: params.ID}).First(&session).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{
				"data":            session,
				"available_spots": session.AvailableSpots(),
			})
		})
	return g
}
