package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kozaktomas/face-recall/internal/database"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// PeopleRepository provides PostgreSQL-backed storage for people and their face embeddings
type PeopleRepository struct {
	pool *Pool
}

// NewPeopleRepository creates a new PostgreSQL people repository
func NewPeopleRepository(pool *Pool) *PeopleRepository {
	return &PeopleRepository{pool: pool}
}

const personColumns = `id, pair_id, name, relationship, occupation, age, notes, image_url, created_at, updated_at`

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanPerson(row scanner) (*database.Person, error) {
	var p database.Person
	var age sql.NullInt64

	if err := row.Scan(
		&p.ID,
		&p.PairID,
		&p.Name,
		&p.Relationship,
		&p.Occupation,
		&age,
		&p.Notes,
		&p.ImageURL,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if age.Valid {
		v := int(age.Int64)
		p.Age = &v
	}
	return &p, nil
}

// validID reports whether id can be compared against a UUID column.
// Anything else cannot match a row, so callers short-circuit instead of
// letting PostgreSQL reject the cast.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// GetPairID returns the pair a person belongs to
func (r *PeopleRepository) GetPairID(ctx context.Context, personID string) (string, error) {
	if !validID(personID) {
		return "", database.ErrPersonNotFound
	}

	var pairID string
	err := r.pool.QueryRow(ctx, "SELECT pair_id FROM people WHERE id = $1", personID).Scan(&pairID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", database.ErrPersonNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query person pair: %w", err)
	}
	return pairID, nil
}

// ListPeople returns all people of a pair, each with its embeddings.
// People come back in insertion order; embeddings are attached in a second query.
func (r *PeopleRepository) ListPeople(ctx context.Context, pairID string) ([]database.PersonWithEmbeddings, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+personColumns+" FROM people WHERE pair_id = $1 ORDER BY created_at, id",
		pairID,
	)
	if err != nil {
		return nil, fmt.Errorf("query people: %w", err)
	}
	defer rows.Close()

	var people []database.PersonWithEmbeddings
	index := make(map[string]int)
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		index[p.ID] = len(people)
		people = append(people, database.PersonWithEmbeddings{
			Person:         *p,
			FaceEmbeddings: []database.FaceEmbedding{},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate people: %w", err)
	}

	if len(people) == 0 {
		return []database.PersonWithEmbeddings{}, nil
	}

	ids := make([]string, len(people))
	for i, p := range people {
		ids[i] = p.ID
	}

	embRows, err := r.pool.Query(ctx, `
		SELECT id, person_id, embedding, created_at
		FROM face_embeddings
		WHERE person_id = ANY($1::uuid[])
		ORDER BY created_at, id
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query face embeddings: %w", err)
	}
	defer embRows.Close()

	for embRows.Next() {
		var fe database.FaceEmbedding
		var vec pgvector.Vector
		if err := embRows.Scan(&fe.ID, &fe.PersonID, &vec, &fe.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan face embedding: %w", err)
		}
		fe.Embedding = vec.Slice()

		i, ok := index[fe.PersonID]
		if !ok {
			continue
		}
		people[i].FaceEmbeddings = append(people[i].FaceEmbeddings, fe)
	}
	if err := embRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate face embeddings: %w", err)
	}

	return people, nil
}

// CreatePerson inserts a new person with a freshly generated ID
func (r *PeopleRepository) CreatePerson(ctx context.Context, np database.NewPerson) (*database.Person, error) {
	var age sql.NullInt64
	if np.Age != nil {
		age = sql.NullInt64{Int64: int64(*np.Age), Valid: true}
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO people (id, pair_id, name, relationship, occupation, age, notes, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+personColumns,
		uuid.NewString(), np.PairID, np.Name, np.Relationship, np.Occupation, age, np.Notes, np.ImageURL,
	)

	p, err := scanPerson(row)
	if err != nil {
		return nil, fmt.Errorf("insert person: %w", err)
	}
	return p, nil
}

// AddEmbedding stores a face vector for a person
func (r *PeopleRepository) AddEmbedding(ctx context.Context, personID string, embedding []float32) (*database.FaceEmbedding, error) {
	if !validID(personID) {
		return nil, database.ErrPersonNotFound
	}

	fe := database.FaceEmbedding{
		ID:        uuid.NewString(),
		PersonID:  personID,
		Embedding: embedding,
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO face_embeddings (id, person_id, embedding)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, fe.ID, personID, pgvector.NewVector(embedding)).Scan(&fe.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert face embedding: %w", err)
	}
	return &fe, nil
}

// buildUpdate turns the set fields of u into a SET clause. updated_at is
// always bumped so an empty update still tells whether the row exists.
func buildUpdate(personID string, u database.PersonUpdate) (string, []any) {
	sets := []string{"updated_at = NOW()"}
	var args []any

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if u.Name != nil {
		add("name", *u.Name)
	}
	if u.Relationship != nil {
		add("relationship", *u.Relationship)
	}
	if u.Occupation != nil {
		add("occupation", *u.Occupation)
	}
	switch {
	case u.ClearAge:
		sets = append(sets, "age = NULL")
	case u.Age != nil:
		add("age", *u.Age)
	}
	if u.Notes != nil {
		add("notes", *u.Notes)
	}
	if u.ImageURL != nil {
		add("image_url", *u.ImageURL)
	}

	args = append(args, personID)
	query := fmt.Sprintf("UPDATE people SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	return query, args
}

// UpdatePerson applies the set fields of u to a person
func (r *PeopleRepository) UpdatePerson(ctx context.Context, personID string, u database.PersonUpdate) error {
	if !validID(personID) {
		return database.ErrPersonNotFound
	}

	query, args := buildUpdate(personID, u)
	result, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update person: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update person rows affected: %w", err)
	}
	if n == 0 {
		return database.ErrPersonNotFound
	}
	return nil
}

// DeleteEmbeddings removes all embeddings of a person
func (r *PeopleRepository) DeleteEmbeddings(ctx context.Context, personID string) (int64, error) {
	if !validID(personID) {
		return 0, nil
	}

	result, err := r.pool.Exec(ctx, "DELETE FROM face_embeddings WHERE person_id = $1", personID)
	if err != nil {
		return 0, fmt.Errorf("delete face embeddings: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete face embeddings rows affected: %w", err)
	}
	return n, nil
}

// DeletePerson removes the person row
func (r *PeopleRepository) DeletePerson(ctx context.Context, personID string) (int64, error) {
	if !validID(personID) {
		return 0, nil
	}

	result, err := r.pool.Exec(ctx, "DELETE FROM people WHERE id = $1", personID)
	if err != nil {
		return 0, fmt.Errorf("delete person: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete person rows affected: %w", err)
	}
	return n, nil
}

// Compile-time interface check.
var _ database.PeopleWriter = (*PeopleRepository)(nil)
