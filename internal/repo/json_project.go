package repo

import (
	"context"

	"github.com/tombers/tombers/internal/models"
	"github.com/tombers/tombers/internal/store"
)

type projectsDoc struct {
	Projects []models.Project `json:"projects"`
	Sequence int              `json:"sequence"`
}

// JSONProjectRepo keeps projects in a single JSON document ({"projects": [...]}).
type JSONProjectRepo struct {
	store *store.JSONFile[projectsDoc]
}

func NewJSONProjectRepo(path string) *JSONProjectRepo {
	return &JSONProjectRepo{
		store: store.New("projects", path, func() projectsDoc { return projectsDoc{Projects: []models.Project{}} }),
	}
}

func (r *JSONProjectRepo) Init() error {
	return r.store.Init()
}

func (r *JSONProjectRepo) Ping(_ context.Context) error {
	_, err := r.store.Load()
	return err
}

func (r *JSONProjectRepo) List(_ context.Context) ([]models.Project, error) {
	doc, err := r.store.Load()
	if err != nil {
		return nil, err
	}
	if doc.Projects == nil {
		return []models.Project{}, nil
	}
	return doc.Projects, nil
}

func (r *JSONProjectRepo) GetByID(_ context.Context, id int) (models.Project, error) {
	doc, err := r.store.Load()
	if err != nil {
		return models.Project{}, err
	}
	for _, p := range doc.Projects {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Project{}, ErrNotFound
}

func (r *JSONProjectRepo) Create(_ context.Context, p models.Project) (models.Project, error) {
	err := r.store.Update(func(doc *projectsDoc) error {
		ids := make([]int, len(doc.Projects))
		for i, existing := range doc.Projects {
			ids[i] = existing.ID
		}
		p.ID = nextID(doc.Sequence, ids)
		doc.Sequence = p.ID
		doc.Projects = append(doc.Projects, p)
		return nil
	})
	if err != nil {
		return models.Project{}, err
	}
	return p, nil
}

func (r *JSONProjectRepo) Update(_ context.Context, id int, fn func(p *models.Project) error) (models.Project, error) {
	var updated models.Project
	err := r.store.Update(func(doc *projectsDoc) error {
		for i := range doc.Projects {
			if doc.Projects[i].ID != id {
				continue
			}
			p := doc.Projects[i]
			if err := fn(&p); err != nil {
				return err
			}
			p.ID = id
			doc.Projects[i] = p
			updated = p
			return nil
		}
		return ErrNotFound
	})
	return updated, err
}

func (r *JSONProjectRepo) Delete(_ context.Context, id int) (models.Project, error) {
	var removed models.Project
	err := r.store.Update(func(doc *projectsDoc) error {
		for i, p := range doc.Projects {
			if p.ID != id {
				continue
			}
			removed = p
			doc.Projects = append(doc.Projects[:i:i], doc.Projects[i+1:]...)
			return nil
		}
		return ErrNotFound
	})
	return removed, err
}
