package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/castaway-league-api/internal/scoring"
)

func TestLoadSeason(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewHistoryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT name FROM seasons WHERE id = $1")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Heroes vs Villains"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM contestants WHERE season_id = $1")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("c1").AddRow("c2"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT week AS episode, contestant_id, type FROM scoring_events WHERE season_id = $1 AND status = 'APPROVED'")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"episode", "contestant_id", "type"}).
			AddRow(1, "c1", "CORRECT_VOTE").
			AddRow(14, "c2", "WINNER"))

	season, err := repo.LoadSeason(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Heroes vs Villains", season.Name)
	assert.Equal(t, []string{"c1", "c2"}, season.Contestants)
	require.Len(t, season.Events, 2)
	assert.Equal(t, scoring.EventWinner, season.Events[1].Type)
	assert.Equal(t, 14, season.Events[1].Episode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadSeasonMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewHistoryRepository(db)

	mock.ExpectQuery("SELECT name FROM seasons").WillReturnError(sql.ErrNoRows)

	_, err := repo.LoadSeason(context.Background(), "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
