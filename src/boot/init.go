package boot

import (
	"log"
	"time"

	"cafe/src/common"
	"cafe/src/db"
	"cafe/src/lib"
	"cafe/src/models"

	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.User{},
		&models.Branch{},
		&models.Hall{},
		&models.SessionTemplate{},
		&models.Session{},
		&models.MenuItem{},
		&models.Reservation{},
		&models.Order{},
		&models.OrderItem{},
		&models.PaymentTransaction{},
		&models.DiscountCode{},
		&models.UserDiscountCode{},
		&models.CoinRewardRule{},
		&models.CoinTransaction{},
		&models.FreeTicket{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

func InitScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	if _, err := lib.CreateCronJob(common.ReservationsSweepTask, time.Minute); err != nil {
		log.Printf("Error registering sweep job: %s\n", err.Error())
	}
	if _, err := lib.CreateCronJob(common.SessionStatusTask, 5*time.Minute); err != nil {
		log.Printf("Error registering session status job: %s\n", err.Error())
	}
	jobsWaitingInQueue := len(sched.Jobs())
	log.Println("Jobs in queue:", jobsWaitingInQueue)
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	if err := sched.Shutdown(); err != nil {
		log.Println("An error has occurred while stopping Scheduler. Check logs for info")
		return
	}
}
