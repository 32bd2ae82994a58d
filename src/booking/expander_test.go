package booking

import (
	"regexp"
	"testing"
	"time"

	"cafe/src/db"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func templateRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "hall_id", "day_of_week", "start_time", "price", "max_participants", "is_active",
	})
}

func hallRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "branch_id", "name", "is_active"})
}

func TestExpandCreatesMatchingSessions(t *testing.T) {
	gormDB, mock := db.NewMockDB()
	expander := NewTemplateExpander(gormDB)

	// 2025-06-02 is a Monday
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "session_templates"`)).
		WillReturnRows(templateRows().AddRow(1, 2, 1, "18:00", 150_000, 20, true))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "halls"`)).
		WillReturnRows(hallRows().AddRow(2, 3, "Main Hall", true))

	// only the Monday in range matches day_of_week=1
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "sessions"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "sessions"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectCommit()

	created, err := expander.Expand(nil, start, end)
	assert.NoError(t, err)
	assert.Len(t, created, 1)
	assert.Equal(t, start, created[0].Date)
	assert.Equal(t, uint(3), created[0].BranchID)
	assert.Equal(t, int64(150_000), created[0].Price)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpandSkipsExistingSessions(t *testing.T) {
	gormDB, mock := db.NewMockDB()
	expander := NewTemplateExpander(gormDB)

	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "session_templates"`)).
		WillReturnRows(templateRows().AddRow(1, 2, 1, "18:00", 150_000, 20, true))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "halls"`)).
		WillReturnRows(hallRows().AddRow(2, 3, "Main Hall", true))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "sessions"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	created, err := expander.Expand([]uint{1}, start, start)
	assert.NoError(t, err)
	assert.Len(t, created, 0)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpandSkipsInactiveHall(t *testing.T) {
	gormDB, mock := db.NewMockDB()
	expander := NewTemplateExpander(gormDB)

	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "session_templates"`)).
		WillReturnRows(templateRows().AddRow(1, 2, 1, "18:00", 150_000, 20, true))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "halls"`)).
		WillReturnRows(hallRows().AddRow(2, 3, "Main Hall", false))

	created, err := expander.Expand(nil, start, start)
	assert.NoError(t, err)
	assert.Len(t, created, 0)
	assert.NoError(t, mock.ExpectationsWereMet())
}
