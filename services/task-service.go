package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskboard-service/logging"
	"taskboard-service/models"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TaskService struct {
	TasksCollection *mongo.Collection
	UsersCollection *mongo.Collection
	Breaker         *gobreaker.CircuitBreaker
}

func NewTaskService(tasksCollection, usersCollection *mongo.Collection, breaker *gobreaker.CircuitBreaker) *TaskService {
	return &TaskService{
		TasksCollection: tasksCollection,
		UsersCollection: usersCollection,
		Breaker:         breaker,
	}
}

// CreateTaskInput carries the validated fields for a new task.
type CreateTaskInput struct {
	Title       string
	Description string
	ProjectID   primitive.ObjectID
	AssignedTo  *primitive.ObjectID
	Priority    models.TaskPriority
	DueDate     *time.Time
}

// CreateTask persists a new task under its project with status "todo".
func (s *TaskService) CreateTask(ctx context.Context, in CreateTaskInput, createdBy primitive.ObjectID) (*models.Task, error) {
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if !in.Priority.Valid() {
		return nil, ErrValidation
	}

	now := time.Now().UTC()
	task := &models.Task{
		ID:          primitive.NewObjectID(),
		Title:       in.Title,
		Description: in.Description,
		ProjectID:   in.ProjectID,
		AssignedTo:  in.AssignedTo,
		Priority:    in.Priority,
		Status:      models.StatusTodo,
		DueDate:     in.DueDate,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := guard(s.Breaker, func() (interface{}, error) {
		return s.TasksCollection.InsertOne(ctx, task)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	logging.Logger.Infof("Event ID: TASK_CREATED, Description: Task %s created in project %s", task.ID.Hex(), task.ProjectID.Hex())
	return task, nil
}

// ListTasksByProject returns the project's tasks, most recent first, with
// assignees expanded.
func (s *TaskService) ListTasksByProject(ctx context.Context, projectID string) ([]models.TaskView, error) {
	objectID, err := primitive.ObjectIDFromHex(projectID)
	if err != nil {
		return nil, ErrValidation
	}
	return s.listTasks(ctx, bson.M{"project": objectID})
}

// ListTasksAssignedTo returns every task assigned to the user, across all
// projects.
func (s *TaskService) ListTasksAssignedTo(ctx context.Context, userID primitive.ObjectID) ([]models.TaskView, error) {
	return s.listTasks(ctx, bson.M{"assignedTo": userID})
}

func (s *TaskService) listTasks(ctx context.Context, filter bson.M) ([]models.TaskView, error) {
	res, err := guard(s.Breaker, func() (interface{}, error) {
		opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
		cursor, err := s.TasksCollection.Find(ctx, filter, opts)
		if err != nil {
			return nil, err
		}
		defer cursor.Close(ctx)

		var tasks []models.Task
		if err := cursor.All(ctx, &tasks); err != nil {
			return nil, err
		}
		return tasks, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tasks: %w", err)
	}

	return s.expandTasks(ctx, res.([]models.Task))
}

// UpdateTaskStatus overwrites the task's status and returns the updated
// document. There is no transition-legality check: the board places no
// ordering constraint on statuses, so "done" back to "todo" is as valid as
// any forward move. Concurrent updates apply last-write-wins.
func (s *TaskService) UpdateTaskStatus(ctx context.Context, taskID string, status models.TaskStatus) (*models.Task, error) {
	if status == "" {
		return nil, ErrValidation
	}
	objectID, err := primitive.ObjectIDFromHex(taskID)
	if err != nil {
		return nil, ErrTaskNotFound
	}

	update := bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now().UTC()}}
	return s.findOneAndUpdate(ctx, objectID, update)
}

// UpdateTaskInput carries the optional fields of a general task edit. Nil
// fields are left untouched; status is never part of a general edit.
type UpdateTaskInput struct {
	Title         *string
	Description   *string
	Priority      *models.TaskPriority
	AssignedTo    *primitive.ObjectID
	ClearAssignee bool
	DueDate       *time.Time
}

// UpdateTaskFields applies a validated partial edit to a task and returns
// the updated document.
func (s *TaskService) UpdateTaskFields(ctx context.Context, taskID string, in UpdateTaskInput) (*models.Task, error) {
	objectID, err := primitive.ObjectIDFromHex(taskID)
	if err != nil {
		return nil, ErrTaskNotFound
	}

	set := bson.M{}
	if in.Title != nil {
		set["title"] = *in.Title
	}
	if in.Description != nil {
		set["description"] = *in.Description
	}
	if in.Priority != nil {
		if !in.Priority.Valid() {
			return nil, ErrValidation
		}
		set["priority"] = *in.Priority
	}
	if in.AssignedTo != nil {
		set["assignedTo"] = *in.AssignedTo
	}
	if in.DueDate != nil {
		set["dueDate"] = *in.DueDate
	}

	update := bson.M{}
	if in.ClearAssignee {
		update["$unset"] = bson.M{"assignedTo": ""}
	}
	if len(set) == 0 && len(update) == 0 {
		return nil, ErrValidation
	}
	set["updatedAt"] = time.Now().UTC()
	update["$set"] = set

	return s.findOneAndUpdate(ctx, objectID, update)
}

func (s *TaskService) findOneAndUpdate(ctx context.Context, taskID primitive.ObjectID, update bson.M) (*models.Task, error) {
	res, err := guard(s.Breaker, func() (interface{}, error) {
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		var task models.Task
		if err := s.TasksCollection.FindOneAndUpdate(ctx, bson.M{"_id": taskID}, update, opts).Decode(&task); err != nil {
			return nil, err
		}
		return &task, nil
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return res.(*models.Task), nil
}

// expandTasks resolves assignee references to display projections with a
// single users query.
func (s *TaskService) expandTasks(ctx context.Context, tasks []models.Task) ([]models.TaskView, error) {
	idSet := make(map[primitive.ObjectID]bool)
	for _, t := range tasks {
		if t.AssignedTo != nil {
			idSet[*t.AssignedTo] = true
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
			return nil, fmt.Errorf("failed to expand task assignees: %w", err)
		}
		for _, u := range res.([]models.UserSummary) {
			summaries[u.ID] = u
		}
	}

	views := make([]models.TaskView, 0, len(tasks))
	for _, t := range tasks {
		view := models.TaskView{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			ProjectID:   t.ProjectID,
			Priority:    t.Priority,
			Status:      t.Status,
			DueDate:     t.DueDate,
			CreatedBy:   t.CreatedBy,
			CreatedAt:   t.CreatedAt,
			UpdatedAt:   t.UpdatedAt,
		}
		if t.AssignedTo != nil {
			if u, ok := summaries[*t.AssignedTo]; ok {
				view.AssignedTo = &u
			}
		}
		views = append(views, view)
	}

	return views, nil
}
