package repo

import (
	"context"
	"database/sql"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/tombers/tombers/internal/models"
)

// ========================
// REPOSITORY STRUCT
// ========================

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type ProjectRepo struct {
	DB *sql.DB
}

func NewProjectRepo(db *sql.DB) *ProjectRepo {
	return &ProjectRepo{DB: db}
}

const projectColumns = `id, title, description, image_url, stats, technologies, objectives, skills_needed,
		progress, status, member_ids, like_ids, created_at, updated_at`

func scanProject(row rowScanner) (models.Project, error) {
	var p models.Project
	var stats, technologies, objectives []byte
	var skills []string
	var members, likes []int64
	var progress sql.NullInt64
	var createdAt, updatedAt time.Time

	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &p.ImageURL, &stats, &technologies, &objectives,
		pq.Array(&skills), &progress, &p.Status, pq.Array(&members), pq.Array(&likes), &createdAt, &updatedAt,
	)
	if err != nil {
		return models.Project{}, err
	}
	if len(stats) > 0 && string(stats) != "null" {
		p.Stats = &models.ProjectStats{}
		if err := json.Unmarshal(stats, p.Stats); err != nil {
			return models.Project{}, errors.Wrap(err, "decode stats")
		}
	}
	p.Technologies = []models.Technology{}
	if len(technologies) > 0 {
		if err := json.Unmarshal(technologies, &p.Technologies); err != nil {
			return models.Project{}, errors.Wrap(err, "decode technologies")
		}
	}
	if len(objectives) > 0 {
		if err := json.Unmarshal(objectives, &p.Objectives); err != nil {
			return models.Project{}, errors.Wrap(err, "decode objectives")
		}
	}
	p.SkillsNeeded = models.StringList(skills).Clone()
	p.MemberIDs = idList(members)
	p.LikeIDs = idList(likes)
	if progress.Valid {
		v := int(progress.Int64)
		p.Progress = &v
	}
	p.CreatedAt = models.DateOf(createdAt)
	p.UpdatedAt = models.DateOf(updatedAt)
	return p, nil
}

func idList(ids []int64) models.IDList {
	out := make(models.IDList, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}

func intArray(l models.IDList) pq.Int64Array {
	out := make(pq.Int64Array, len(l))
	for i, id := range l {
		out[i] = int64(id)
	}
	return out
}

// projectArgs encodes the writable columns of p in column order
// (title .. like_ids).
func projectArgs(p models.Project) ([]interface{}, error) {
	var stats interface{}
	if p.Stats != nil {
		b, err := json.Marshal(p.Stats)
		if err != nil {
			return nil, errors.Wrap(err, "encode stats")
		}
		stats = b
	}
	technologies := p.Technologies
	if technologies == nil {
		technologies = []models.Technology{}
	}
	techJSON, err := json.Marshal(technologies)
	if err != nil {
		return nil, errors.Wrap(err, "encode technologies")
	}
	objectives := p.Objectives
	if objectives == nil {
		objectives = []models.Objective{}
	}
	objJSON, err := json.Marshal(objectives)
	if err != nil {
		return nil, errors.Wrap(err, "encode objectives")
	}
	return []interface{}{
		p.Title, p.Description, p.ImageURL, stats, techJSON, objJSON,
		textArray(p.SkillsNeeded), nullInt(p.Progress), p.Status,
		intArray(p.MemberIDs), intArray(p.LikeIDs),
	}, nil
}

// ========================
// CREATE PROJECT
// ========================

func (r *ProjectRepo) Create(ctx context.Context, p models.Project) (models.Project, error) {
	args, err := projectArgs(p)
	if err != nil {
		return models.Project{}, err
	}
	args = append(args, p.CreatedAt.Time, p.UpdatedAt.Time)
	err = r.DB.QueryRowContext(ctx, `
		INSERT INTO projects (title, description, image_url, stats, technologies, objectives, skills_needed,
			progress, status, member_ids, like_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`,
		args...,
	).Scan(&p.ID)
	if err != nil {
		return models.Project{}, err
	}
	return p, nil
}

// ========================
// GET PROJECT BY ID
// ========================

func (r *ProjectRepo) GetByID(ctx context.Context, id int) (models.Project, error) {
	p, err := scanProject(r.DB.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Project{}, ErrNotFound
	}
	return p, err
}

// ========================
// UPDATE PROJECT BY ID
// ========================

func (r *ProjectRepo) Update(ctx context.Context, id int, fn func(p *models.Project) error) (models.Project, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.Project{}, errors.Wrap(err, "begin")
	}
	defer tx.Rollback()

	p, err := scanProject(tx.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Project{}, ErrNotFound
	}
	if err != nil {
		return models.Project{}, err
	}
	if err := fn(&p); err != nil {
		return models.Project{}, err
	}
	p.ID = id

	args, err := projectArgs(p)
	if err != nil {
		return models.Project{}, err
	}
	args = append(args, p.UpdatedAt.Time, id)
	_, err = tx.ExecContext(ctx, `
		UPDATE projects
		SET title = $1, description = $2, image_url = $3, stats = $4, technologies = $5, objectives = $6,
			skills_needed = $7, progress = $8, status = $9, member_ids = $10, like_ids = $11, updated_at = $12
		WHERE id = $13`,
		args...,
	)
	if err != nil {
		return models.Project{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Project{}, errors.Wrap(err, "commit")
	}
	return p, nil
}

// ========================
// DELETE PROJECT BY ID
// ========================

func (r *ProjectRepo) Delete(ctx context.Context, id int) (models.Project, error) {
	p, err := scanProject(r.DB.QueryRowContext(ctx, `DELETE FROM projects WHERE id = $1 RETURNING `+projectColumns, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Project{}, ErrNotFound
	}
	return p, err
}

// ========================
// LIST ALL PROJECTS
// ========================

func (r *ProjectRepo) List(ctx context.Context) ([]models.Project, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *ProjectRepo) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}
