package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/kozaktomas/face-recall/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	aliceID = "0b8a5d2e-2f5c-4a43-9f3e-0d3c2b1a0001"
	bobID   = "0b8a5d2e-2f5c-4a43-9f3e-0d3c2b1a0002"
)

var personCols = []string{"id", "pair_id", "name", "relationship", "occupation", "age", "notes", "image_url", "created_at", "updated_at"}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PeopleRepository) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewPeopleRepository(NewPoolFromDB(db, nil))
	return db, mock, repo
}

func TestListPeople_WithEmbeddings(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT id, pair_id, name .* FROM people WHERE pair_id = \$1`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(personCols).
			AddRow(aliceID, "p1", "Alice", "sister", "nurse", 42, "", "https://img/a.jpg", now, now).
			AddRow(bobID, "p1", "Bob", "friend", "chef", nil, "likes jazz", "https://img/b.jpg", now, now))

	mock.ExpectQuery(`FROM face_embeddings\s+WHERE person_id = ANY`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "person_id", "embedding", "created_at"}).
			AddRow("e1", aliceID, "[1,0,0]", now).
			AddRow("e2", aliceID, "[0.5,0.5,0]", now))

	people, err := repo.ListPeople(context.Background(), "p1")

	require.NoError(t, err)
	require.Len(t, people, 2)
	assert.Equal(t, "Alice", people[0].Name)
	require.NotNil(t, people[0].Age)
	assert.Equal(t, 42, *people[0].Age)
	require.Len(t, people[0].FaceEmbeddings, 2)
	assert.Equal(t, []float32{1, 0, 0}, people[0].FaceEmbeddings[0].Embedding)

	assert.Equal(t, "Bob", people[1].Name)
	assert.Nil(t, people[1].Age)
	assert.NotNil(t, people[1].FaceEmbeddings)
	assert.Empty(t, people[1].FaceEmbeddings)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPeople_EmptyPairSkipsEmbeddingQuery(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`FROM people WHERE pair_id = \$1`).
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows(personCols))

	people, err := repo.ListPeople(context.Background(), "nobody")

	require.NoError(t, err)
	assert.NotNil(t, people)
	assert.Empty(t, people)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPeople_QueryError(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`FROM people`).WillReturnError(errors.New("connection reset"))

	_, err := repo.ListPeople(context.Background(), "p1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestGetPairID(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT pair_id FROM people WHERE id = \$1`).
		WithArgs(aliceID).
		WillReturnRows(sqlmock.NewRows([]string{"pair_id"}).AddRow("p1"))

	pairID, err := repo.GetPairID(context.Background(), aliceID)

	require.NoError(t, err)
	assert.Equal(t, "p1", pairID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPairID_NotFound(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT pair_id FROM people`).
		WithArgs(bobID).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetPairID(context.Background(), bobID)
	assert.ErrorIs(t, err, database.ErrPersonNotFound)

	// Non-UUID identifiers never reach the database.
	_, err = repo.GetPairID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, database.ErrPersonNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePerson(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	age := 30
	now := time.Now()
	mock.ExpectQuery(`INSERT INTO people`).
		WithArgs(sqlmock.AnyArg(), "p1", "Alice", "sister", "nurse", int64(30), "", "https://img/a.jpg").
		WillReturnRows(sqlmock.NewRows(personCols).
			AddRow(aliceID, "p1", "Alice", "sister", "nurse", 30, "", "https://img/a.jpg", now, now))

	p, err := repo.CreatePerson(context.Background(), database.NewPerson{
		PairID:       "p1",
		Name:         "Alice",
		Relationship: "sister",
		Occupation:   "nurse",
		Age:          &age,
		ImageURL:     "https://img/a.jpg",
	})

	require.NoError(t, err)
	assert.Equal(t, aliceID, p.ID)
	assert.Equal(t, 30, *p.Age)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddEmbedding(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO face_embeddings`).
		WithArgs(sqlmock.AnyArg(), aliceID, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	fe, err := repo.AddEmbedding(context.Background(), aliceID, []float32{1, 0, 0})

	require.NoError(t, err)
	assert.Equal(t, aliceID, fe.PersonID)
	assert.NotEmpty(t, fe.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildUpdate(t *testing.T) {
	name := "Alice B."
	notes := ""
	url := "https://img/new.jpg"

	query, args := buildUpdate(aliceID, database.PersonUpdate{
		Name:     &name,
		Notes:    &notes,
		ClearAge: true,
		ImageURL: &url,
	})

	assert.Equal(t,
		"UPDATE people SET updated_at = NOW(), name = $1, age = NULL, notes = $2, image_url = $3 WHERE id = $4",
		query)
	assert.Equal(t, []any{name, notes, url, aliceID}, args)
}

func TestBuildUpdate_Empty(t *testing.T) {
	query, args := buildUpdate(aliceID, database.PersonUpdate{})

	assert.Equal(t, "UPDATE people SET updated_at = NOW() WHERE id = $1", query)
	assert.Equal(t, []any{aliceID}, args)
}

func TestUpdatePerson_NotFound(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE people SET updated_at = NOW(), age = $1 WHERE id = $2")).
		WithArgs(7, bobID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	age := 7
	err := repo.UpdatePerson(context.Background(), bobID, database.PersonUpdate{Age: &age})

	assert.ErrorIs(t, err, database.ErrPersonNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePerson_Success(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE people SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	name := "Bob"
	err := repo.UpdatePerson(context.Background(), bobID, database.PersonUpdate{Name: &name})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteEmbeddingsThenPerson(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM face_embeddings WHERE person_id = \$1`).
		WithArgs(aliceID).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM people WHERE id = \$1`).
		WithArgs(aliceID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := repo.DeleteEmbeddings(context.Background(), aliceID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = repo.DeletePerson(context.Background(), aliceID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_InvalidIDIsNoop(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	n, err := repo.DeletePerson(context.Background(), "42")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
