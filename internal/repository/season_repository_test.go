package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/castaway-league-api/internal/models"
)

var contestantRowColumns = []string{"id", "season_id", "tribe_id", "name", "age", "hometown", "occupation", "image_url", "is_eliminated", "eliminated_week", "created_at", "updated_at"}

func TestListContestantsAppliesFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSeasonRepository(db)

	now := time.Now()
	eliminated := false
	rows := sqlmock.NewRows(contestantRowColumns).
		AddRow("c1", "s1", "t1", "Parvati", 25, "Atlanta", "Boxer", "", false, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+contestantColumns+" FROM contestants WHERE 1=1 AND season_id = $1 AND is_eliminated = $2 AND LOWER(name) LIKE $3 ORDER BY name ASC LIMIT 50 OFFSET 0")).
		WithArgs("s1", false, "%par%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM contestants WHERE 1=1 AND season_id = $1 AND is_eliminated = $2 AND LOWER(name) LIKE $3")).
		WithArgs("s1", false, "%par%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	contestants, total, err := repo.ListContestants(context.Background(), models.ContestantFilter{SeasonID: "s1", Eliminated: &eliminated, Search: "Par"})
	require.NoError(t, err)
	require.Len(t, contestants, 1)
	assert.Equal(t, "Parvati", contestants[0].Name)
	assert.Equal(t, "t1", *contestants[0].TribeID)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
