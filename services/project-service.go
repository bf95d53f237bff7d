package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskboard-service/logging"
	"taskboard-service/models"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ProjectService struct {
	ProjectsCollection *mongo.Collection
	UsersCollection    *mongo.Collection
	Breaker            *gobreaker.CircuitBreaker
}

// NewProjectService initializes a ProjectService with the collections it
// reads: projects for the documents themselves, users for expanding member
// references into display projections.
func NewProjectService(projectsCollection, usersCollection *mongo.Collection, breaker *gobreaker.CircuitBreaker) *ProjectService {
	return &ProjectService{
		ProjectsCollection: projectsCollection,
		UsersCollection:    usersCollection,
		Breaker:            breaker,
	}
}

// CreateProject persists a new project. The creator is merged into the
// member set with duplicates removed, so creating a project always makes
// its creator a member exactly once.
func (s *ProjectService) CreateProject(ctx context.Context, name, description string, memberIDs []primitive.ObjectID, createdBy primitive.ObjectID) (*models.Project, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(description) == "" {
		return nil, ErrValidation
	}

	now := time.Now().UTC()
	project := &models.Project{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Description: description,
		CreatedBy:   createdBy,
		Members:     models.MergeMembers(createdBy, memberIDs),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := guard(s.Breaker, func() (interface{}, error) {
		return s.ProjectsCollection.InsertOne(ctx, project)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	logging.Logger.Infof("Event ID: PROJECT_CREATED, Description: Project %s created by %s", project.ID.Hex(), createdBy.Hex())
	return project, nil
}

// ListProjectsForUser returns every project the user created or belongs to,
// with members and creator expanded. Projects the user has no relation to
// are never returned.
func (s *ProjectService) ListProjectsForUser(ctx context.Context, userID primitive.ObjectID) ([]models.ProjectView, error) {
	filter := bson.M{"$or": []bson.M{
		{"createdBy": userID},
		{"members": userID},
	}}

	res, err := guard(s.Breaker, func() (interface{}, error) {
		cursor, err := s.ProjectsCollection.Find(ctx, filter)
		if err != nil {
			return nil, err
		}
		defer cursor.Close(ctx)

		var projects []models.Project
		if err := cursor.All(ctx, &projects); err != nil {
			return nil, err
		}
		return projects, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch projects: %w", err)
	}

	return s.expandProjects(ctx, res.([]models.Project))
}

// GetProjectByID returns a single project with members expanded, or
// ErrProjectNotFound when the id does not resolve. A malformed id cannot
// match any document, so it maps to the same error.
func (s *ProjectService) GetProjectByID(ctx context.Context, projectID string) (*models.ProjectView, error) {
	objectID, err := primitive.ObjectIDFromHex(projectID)
	if err != nil {
		return nil, ErrProjectNotFound
	}

	res, err := guard(s.Breaker, func() (interface{}, error) {
		var project models.Project
		if err := s.ProjectsCollection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&project); err != nil {
			return nil, err
		}
		return &project, nil
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch project: %w", err)
	}

	project := res.(*models.Project)
	views, err := s.expandProjects(ctx, []models.Project{*project})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// expandProjects resolves member and creator references to display
// projections with a single users query. References to users that no
// longer exist are dropped from the member list rather than failing the
// whole lookup.
func (s *ProjectService) expandProjects(ctx context.Context, projects []models.Project) ([]models.ProjectView, error) {
	idSet := make(map[primitive.ObjectID]bool)
	for _, p := range projects {
		idSet[p.CreatedBy] = true
		for _, m := range p.Members {
			idSet[m] = true
		}
	}

	summaries := make(map[primitive.ObjectID]models.UserSummary, len(idSet))
	if len(idSet) > 0 {
		ids := make([]primitive.ObjectID, 0, len(idSet))
		for id := range idSet {
			ids = append(ids, id)
		}

		res, err := guard(s.Breaker, func() (interface{}, error) {
			opts := options.Find().SetProjection(bson.M{"name": 1, "email": 1})
			cursor, err := s.UsersCollection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
			if err != nil {
				return nil, err
			}
			defer cursor.Close(ctx)

			var users []models.UserSummary
			if err := cursor.All(ctx, &users); err != nil {
				return nil, err
			}
			return users, nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to expand project members: %w", err)
		}
		for _, u := range res.([]models.UserSummary) {
			summaries[u.ID] = u
		}
	}

	views := make([]models.ProjectView, 0, len(projects))
	for _, p := range projects {
		view := models.ProjectView{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			CreatedBy:   models.CreatorRef{ID: p.CreatedBy, Name: summaries[p.CreatedBy].Name},
			Members:     make([]models.UserSummary, 0, len(p.Members)),
			CreatedAt:   p.CreatedAt,
			UpdatedAt:   p.UpdatedAt,
		}
		for _, m := range p.Members {
			if u, ok := summaries[m]; ok {
				view.Members = append(view.Members, u)
			}
		}
		views = append(views, view)
	}

	return views, nil
}
