package booking

import (
	"log"
	"time"

	"cafe/src/models"

	"gorm.io/gorm"
)

// TemplateExpander materializes recurring weekly templates into concrete
// sessions. Re-running it over the same range is a no-op for dates that were
// already expanded.
type TemplateExpander struct {
	db *gorm.DB
}

func NewTemplateExpander(db *gorm.DB) *TemplateExpander {
	return &TemplateExpander{db: db}
}

// Expand walks every date in [startDate, endDate] and creates a session for
// each active template whose weekday matches. Price, capacity and the
// hall-to-branch mapping are copied at expansion time; later template edits do
// not touch materialized sessions. Templates with a missing or inactive hall
// are skipped without failing the batch.
func (e *TemplateExpander) Expand(templateIds []uint, startDate time.Time, endDate time.Time) ([]models.Session, error) {
	q := e.db.Model(&models.SessionTemplate{}).Where("is_active = ?", true)
	if len(templateIds) > 0 {
		q = q.Where("id IN (?)", templateIds)
	}
	var templates []models.SessionTemplate
	if err := q.Preload("Hall").Find(&templates).Error; err != nil {
		return nil, err
	}

	byWeekday := map[int][]models.SessionTemplate{}
	for _, t := range templates {
		byWeekday[t.DayOfWeek] = append(byWeekday[t.DayOfWeek], t)
	}

	created := []models.Session{}
	for date := startDate; !date.After(endDate); date = date.AddDate(0, 0, 1) {
		for _, t := range byWeekday[int(date.Weekday())] {
			if t.Hall.ID == 0 || !t.Hall.IsActive {
				log.Printf("Skipping template %d: hall %d missing or inactive\n", t.ID, t.HallID)
				continue
			}
			var count int64
			if err := e.db.
				Model(&models.Session{}).
				Where("session_template_id = ? AND date = ?", t.ID, date).
				Count(&count).
				Error; err != nil {
				log.Printf("Error checking existing session for template %d on %s: %s\n", t.ID, date.Format("2006-01-02"), err.Error())
				continue
			}
			if count > 0 {
				continue
			}
			templateId := t.ID
			session := models.Session{
				BranchID:          t.Hall.BranchID,
				HallID:            t.HallID,
				SessionTemplateID: &templateId,
				Date:              date,
				StartTime:         t.StartTime,
				Price:             t.Price,
				MaxParticipants:   t.MaxParticipants,
			}
			if err := e.db.Create(&session).Error; err != nil {
				log.Printf("Error creating session for template %d on %s: %s\n", t.ID, date.Format("2006-01-02"), err.Error())
				continue
			}
			created = append(created, session)
		}
	}
	return created, nil
}
