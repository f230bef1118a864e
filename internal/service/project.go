package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/tombers/tombers/internal/metrics"
	"github.com/tombers/tombers/internal/models"
	"github.com/tombers/tombers/internal/repo"
)

// projectRules are checked against a new project before it is stored.
type projectRules struct {
	Title    string `json:"title" validate:"required"`
	Progress *int   `json:"progress" validate:"omitempty,min=0,max=100"`
	Status   string `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE COMPLETED ON_HOLD"`
}

// patchRules are checked against the fields an update supplies.
type patchRules struct {
	Progress *int   `json:"progress" validate:"omitempty,min=0,max=100"`
	Status   string `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE COMPLETED ON_HOLD"`
}

type ProjectService struct {
	projects repo.ProjectRepository
	users    repo.UserRepository
	log      *zap.Logger
	validate *validator.Validate
	now      func() time.Time
}

// NewProjectService builds the service; users resolves the people behind
// a project's interest list.
func NewProjectService(projects repo.ProjectRepository, users repo.UserRepository, log *zap.Logger) *ProjectService {
	return &ProjectService{
		projects: projects,
		users:    users,
		log:      log,
		validate: newValidator(),
		now:      time.Now,
	}
}

func (s *ProjectService) check(p *models.Project) error {
	p.Title = strings.TrimSpace(p.Title)
	rules := projectRules{Title: p.Title, Progress: p.Progress, Status: p.Status}
	if err := s.validate.Struct(rules); err != nil {
		return validationError(MsgInvalidProjectData, fieldErrors(err))
	}
	return nil
}

// checkPatch validates only the fields present in patch and trims the title.
func (s *ProjectService) checkPatch(patch *models.ProjectPatch) error {
	fields := map[string]string{}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		patch.Title = &title
		if title == "" {
			fields["title"] = "is required"
		}
	}
	rules := patchRules{Progress: patch.Progress}
	if patch.Status != nil {
		rules.Status = *patch.Status
	}
	if err := s.validate.Struct(rules); err != nil {
		for field, msg := range fieldErrors(err) {
			fields[field] = msg
		}
	}
	if len(fields) > 0 {
		return validationError(MsgInvalidProjectData, fields)
	}
	return nil
}

// fail converts a repository error into a service error.
func (s *ProjectService) fail(op string, id int, err error) error {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr
	}
	if errors.Is(err, repo.ErrNotFound) {
		return notFoundError(MsgProjectNotFound)
	}
	s.log.Error(op, zap.Int("project_id", id), zap.Error(err))
	return storageError(err)
}

// ==========================
// List
// ==========================
func (s *ProjectService) List(ctx context.Context) ([]models.Project, error) {
	projects, err := s.projects.List(ctx)
	if err != nil {
		return nil, s.fail("list projects", 0, err)
	}
	return projects, nil
}

// ==========================
// Get
// ==========================
func (s *ProjectService) Get(ctx context.Context, id int) (models.Project, error) {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return models.Project{}, s.fail("get project", id, err)
	}
	return p, nil
}

// ==========================
// Create
// ==========================
func (s *ProjectService) Create(ctx context.Context, in models.ProjectPatch) (models.Project, error) {
	p := models.Project{
		Technologies: []models.Technology{},
		SkillsNeeded: models.StringList{},
		MemberIDs:    models.IDList{},
		LikeIDs:      models.IDList{},
	}
	in.Apply(&p)
	if err := s.check(&p); err != nil {
		return models.Project{}, err
	}
	today := models.DateOf(s.now())
	p.CreatedAt = today
	p.UpdatedAt = today

	created, err := s.projects.Create(ctx, p)
	if err != nil {
		return models.Project{}, s.fail("create project", 0, err)
	}
	metrics.IncProjectMutation("create")
	return created, nil
}

// ==========================
// Update
// ==========================
func (s *ProjectService) Update(ctx context.Context, id int, patch models.ProjectPatch) (models.Project, error) {
	if err := s.checkPatch(&patch); err != nil {
		return models.Project{}, err
	}
	updated, err := s.projects.Update(ctx, id, func(p *models.Project) error {
		patch.Apply(p)
		p.UpdatedAt = models.DateOf(s.now())
		return nil
	})
	if err != nil {
		return models.Project{}, s.fail("update project", id, err)
	}
	metrics.IncProjectMutation("update")
	return updated, nil
}

// ==========================
// Delete
// ==========================
func (s *ProjectService) Delete(ctx context.Context, id int) (models.Project, error) {
	removed, err := s.projects.Delete(ctx, id)
	if err != nil {
		return models.Project{}, s.fail("delete project", id, err)
	}
	metrics.IncProjectMutation("delete")
	return removed, nil
}

// ==========================
// Search
// ==========================

// Search returns the projects whose title, technology names or needed
// skills contain q (case-insensitive), in collection order. An empty query
// returns every project.
func (s *ProjectService) Search(ctx context.Context, q string) ([]models.Project, error) {
	projects, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(q))
	if needle == "" {
		return projects, nil
	}
	out := []models.Project{}
	for _, p := range projects {
		if projectMatches(p, needle) {
			out = append(out, p)
		}
	}
	return out, nil
}

// projectMatches checks title, then technologies, then skills, stopping at
// the first hit.
func projectMatches(p models.Project, needle string) bool {
	if strings.Contains(strings.ToLower(p.Title), needle) {
		return true
	}
	for _, t := range p.Technologies {
		if strings.Contains(strings.ToLower(t.Name), needle) {
			return true
		}
	}
	return anyContains(p.SkillsNeeded, needle)
}

// Active lists ACTIVE projects, newest first.
func (s *ProjectService) Active(ctx context.Context) ([]models.Project, error) {
	projects, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.Project{}
	for _, p := range projects {
		if p.Status == models.ProjectActive {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt.Time)
	})
	return out, nil
}

// Incomplete lists projects with a progress below 100, most advanced first.
// Projects without a progress value are left out.
func (s *ProjectService) Incomplete(ctx context.Context) ([]models.Project, error) {
	projects, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.Project{}
	for _, p := range projects {
		if p.Progress != nil && *p.Progress < 100 {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return *out[i].Progress > *out[j].Progress
	})
	return out, nil
}
