package service

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/tombers/tombers/internal/metrics"
	"github.com/tombers/tombers/internal/models"
	"github.com/tombers/tombers/internal/repo"
)

// InterestedUsers lists the users waiting for a decision on a project.
type InterestedUsers struct {
	ProjectID       int           `json:"projectId"`
	ProjectTitle    string        `json:"projectTitle"`
	InterestedUsers []models.User `json:"interestedUsers"`
	TotalInterested int           `json:"totalInterested"`
}

// InterestDecision accepts or rejects one interested user.
type InterestDecision struct {
	UserID int    `json:"userId" validate:"required,min=1"`
	Action string `json:"action" validate:"required,oneof=ACCEPT REJECT"`
}

// Like records that userID wants to join the project. Liking twice is a
// no-op; members cannot like.
func (s *ProjectService) Like(ctx context.Context, projectID, userID int) (models.Project, error) {
	updated, err := s.projects.Update(ctx, projectID, func(p *models.Project) error {
		if p.MemberIDs.Contains(userID) {
			return conflictError(MsgAlreadyMember)
		}
		p.LikeIDs.Add(userID)
		return nil
	})
	if err != nil {
		return models.Project{}, s.fail("like project", projectID, err)
	}
	metrics.IncProjectMutation("like")
	return updated, nil
}

// Dislike withdraws userID's interest. It succeeds whether or not the user
// had liked the project.
func (s *ProjectService) Dislike(ctx context.Context, projectID, userID int) (models.Project, error) {
	updated, err := s.projects.Update(ctx, projectID, func(p *models.Project) error {
		p.LikeIDs.Remove(userID)
		return nil
	})
	if err != nil {
		return models.Project{}, s.fail("dislike project", projectID, err)
	}
	metrics.IncProjectMutation("dislike")
	return updated, nil
}

// Interested resolves the project's pending likes to user records, in the
// order the likes arrived. Ids whose user no longer exists are skipped.
func (s *ProjectService) Interested(ctx context.Context, projectID int) (InterestedUsers, error) {
	p, err := s.Get(ctx, projectID)
	if err != nil {
		return InterestedUsers{}, err
	}
	out := InterestedUsers{
		ProjectID:       p.ID,
		ProjectTitle:    p.Title,
		InterestedUsers: []models.User{},
	}
	for _, id := range p.LikeIDs {
		u, err := s.users.GetByID(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			s.log.Warn("interested user missing", zap.Int("project_id", projectID), zap.Int("user_id", id))
			continue
		}
		if err != nil {
			return InterestedUsers{}, s.fail("load interested user", projectID, err)
		}
		out.InterestedUsers = append(out.InterestedUsers, u)
	}
	out.TotalInterested = len(out.InterestedUsers)
	return out, nil
}

// ManageInterested applies a decision: ACCEPT moves the user from the
// likes to the members, REJECT only drops the like.
func (s *ProjectService) ManageInterested(ctx context.Context, projectID int, d InterestDecision) (models.Project, error) {
	if err := s.validate.Struct(d); err != nil {
		return models.Project{}, validationError(MsgInvalidInterest, fieldErrors(err))
	}
	updated, err := s.projects.Update(ctx, projectID, func(p *models.Project) error {
		if !p.LikeIDs.Remove(d.UserID) {
			return validationError(MsgNotInterested, map[string]string{"userId": "has not shown interest"})
		}
		if d.Action == models.InterestAccept {
			p.MemberIDs.Add(d.UserID)
		}
		return nil
	})
	if err != nil {
		return models.Project{}, s.fail("manage interested", projectID, err)
	}
	if d.Action == models.InterestAccept {
		metrics.IncProjectMutation("accept")
	} else {
		metrics.IncProjectMutation("reject")
	}
	return updated, nil
}
