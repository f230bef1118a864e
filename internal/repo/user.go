package repo

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/tombers/tombers/internal/models"
)

// ==========================
// UserRepo (PostgreSQL)
// ==========================
type UserRepo struct {
	DB *sql.DB
}

// ==========================
// Constructor
// ==========================
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

const userColumns = `id, first_name, last_name, email, username, password_hash, skills, age, birth_date,
		languages, specialization, phone, linkedin, github, portfolio, bio, status,
		certifications, interests, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (models.User, error) {
	var u models.User
	var age sql.NullInt64
	var skills, certifications, interests []string
	err := row.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Username, &u.PasswordHash,
		pq.Array(&skills), &age, &u.BirthDate,
		&u.Languages, &u.Specialization, &u.Phone, &u.Linkedin, &u.Github, &u.Portfolio, &u.Bio, &u.Status,
		pq.Array(&certifications), pq.Array(&interests), &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return models.User{}, err
	}
	if age.Valid {
		v := int(age.Int64)
		u.Age = &v
	}
	u.Skills = models.StringList(skills).Clone()
	u.Certifications = models.StringList(certifications).Clone()
	u.Interests = models.StringList(interests).Clone()
	return u, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func textArray(l models.StringList) pq.StringArray {
	return pq.StringArray(l.Clone())
}

// mapUniqueViolation turns a unique-constraint error into ErrEmailTaken or
// ErrUsernameTaken.
func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		if pqErr.Constraint == "users_email_key" {
			return ErrEmailTaken
		}
		return ErrUsernameTaken
	}
	return err
}

// ==========================
// Create User
// ==========================
func (r *UserRepo) Create(ctx context.Context, u models.User) (models.User, error) {
	query := `
		INSERT INTO users (first_name, last_name, email, username, password_hash, skills, age, birth_date,
			languages, specialization, phone, linkedin, github, portfolio, bio, status,
			certifications, interests, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		u.FirstName, u.LastName, u.Email, u.Username, u.PasswordHash, textArray(u.Skills), nullInt(u.Age), u.BirthDate,
		u.Languages, u.Specialization, u.Phone, u.Linkedin, u.Github, u.Portfolio, u.Bio, u.Status,
		textArray(u.Certifications), textArray(u.Interests), u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID)
	if err != nil {
		return models.User{}, mapUniqueViolation(err)
	}
	return u, nil
}

// ==========================
// Get By ID
// ==========================
func (r *UserRepo) GetByID(ctx context.Context, id int) (models.User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	return u, err
}

// ==========================
// Get By Email
// ==========================
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	return u, err
}

// ==========================
// Update User
// ==========================
func (r *UserRepo) Update(ctx context.Context, id int, fn func(u *models.User) error) (models.User, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.User{}, errors.Wrap(err, "begin")
	}
	defer tx.Rollback()

	u, err := scanUser(tx.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	if err := fn(&u); err != nil {
		return models.User{}, err
	}
	u.ID = id

	_, err = tx.ExecContext(ctx, `
		UPDATE users
		SET first_name = $1, last_name = $2, skills = $3, age = $4, birth_date = $5, languages = $6,
			specialization = $7, phone = $8, linkedin = $9, github = $10, portfolio = $11, bio = $12,
			certifications = $13, interests = $14, password_hash = $15, updated_at = $16
		WHERE id = $17
	`,
		u.FirstName, u.LastName, textArray(u.Skills), nullInt(u.Age), u.BirthDate, u.Languages,
		u.Specialization, u.Phone, u.Linkedin, u.Github, u.Portfolio, u.Bio,
		textArray(u.Certifications), textArray(u.Interests), u.PasswordHash, u.UpdatedAt, id,
	)
	if err != nil {
		return models.User{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.User{}, errors.Wrap(err, "commit")
	}
	return u, nil
}

// ==========================
// List Users
// ==========================
func (r *UserRepo) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepo) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}
