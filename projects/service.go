// Package projects manages client projects together with their billable
// tasks and expenses.
package projects

import (
	"context"
	"time"

	"encore.dev/rlog"
	"encore.dev/storage/sqldb"
	"github.com/freelanceflow/freelanceflow-api/clients"
	"github.com/freelanceflow/freelanceflow-api/errors"
	"github.com/freelanceflow/freelanceflow-api/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var db = sqldb.NewDatabase("projects", sqldb.DatabaseConfig{
	Migrations: "./migrations",
})

// clientDirectory resolves the owner of a project.
type clientDirectory interface {
	GetClient(ctx context.Context, id string) (*model.Client, error)
}

type clientsService struct{}

func (clientsService) GetClient(ctx context.Context, id string) (*model.Client, error) {
	return clients.GetClient(ctx, id)
}

var (
	store     Store           = NewPgStore(sqldb.Driver[*pgxpool.Pool](db))
	directory clientDirectory = clientsService{}
	now                       = func() time.Time { return time.Now().UTC() }
)

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func requireClient(ctx context.Context, clientID string) error {
	if _, err := directory.GetClient(ctx, clientID); err != nil {
		if errors.IsNotFound(err) {
			return errors.BadRequestError("client does not exist")
		}
		return errors.SafeInternalError(err, "failed to resolve client")
	}

	return nil
}

// mutate runs fn against the stored project and records who changed it.
func mutate(ctx context.Context, id, actingUser string, fn func(p *model.Project) error) (*model.Project, error) {
	project, err := store.Mutate(ctx, id, func(p *model.Project) error {
		if err := fn(p); err != nil {
			return err
		}
		p.LastModifiedBy = actingUser
		return nil
	})
	if err != nil {
		if errors.IsAPIError(err) {
			return nil, err
		}
		return nil, errors.FromStore(err, "project", "failed to update project")
	}

	return project, nil
}

// CreateProject creates a project for an existing client.
//
//encore:api public method=POST path=/projects
func CreateProject(ctx context.Context, params *ProjectParams) (*model.Project, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	if err := requireClient(ctx, params.ClientID); err != nil {
		return nil, err
	}

	project := &model.Project{
		ID:             newID(),
		ClientID:       params.ClientID,
		Name:           params.Name,
		Description:    params.Description,
		Tasks:          []model.Task{},
		Expenses:       []model.Expense{},
		TeamMembers:    params.TeamMembers,
		CreatedBy:      params.ActingUser,
		LastModifiedBy: params.ActingUser,
		CreatedAt:      now(),
	}

	if err := store.Create(ctx, project); err != nil {
		return nil, errors.SafeInternalError(err, "failed to create project")
	}

	rlog.Info("created project", "project_id", project.ID, "client_id", project.ClientID)
	return project, nil
}

// GetProject retrieves a project by ID.
//
//encore:api public method=GET path=/projects/:id
func GetProject(ctx context.Context, id string) (*model.Project, error) {
	project, err := store.Get(ctx, id)
	if err != nil {
		return nil, errors.FromStore(err, "project", "failed to get project")
	}

	return project, nil
}

// ListProjects lists projects, optionally only those of one client.
//
//encore:api public method=GET path=/projects
func ListProjects(ctx context.Context, params *ListProjectsParams) (*ListProjectsResponse, error) {
	projects, err := store.List(ctx, params.ClientID)
	if err != nil {
		return nil, errors.SafeInternalError(err, "failed to list projects")
	}

	return &ListProjectsResponse{Projects: projects}, nil
}

// UpdateProject changes the details of a project. Tasks and expenses are kept.
//
//encore:api public method=PUT path=/projects/:id
func UpdateProject(ctx context.Context, id string, params *ProjectParams) (*model.Project, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	if err := requireClient(ctx, params.ClientID); err != nil {
		return nil, err
	}

	return mutate(ctx, id, params.ActingUser, func(p *model.Project) error {
		p.ClientID = params.ClientID
		p.Name = params.Name
		p.Description = params.Description
		p.TeamMembers = params.TeamMembers
		return nil
	})
}

// DeleteProject removes a project with its tasks and expenses.
//
//encore:api public method=DELETE path=/projects/:id
func DeleteProject(ctx context.Context, id string) error {
	if err := store.Delete(ctx, id); err != nil {
		return errors.FromStore(err, "project", "failed to delete project")
	}

	rlog.Info("deleted project", "project_id", id)
	return nil
}

// AddTask appends a billable task to a project.
//
//encore:api public method=POST path=/projects/:id/tasks
func AddTask(ctx context.Context, id string, params *TaskParams) (*model.Project, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	return mutate(ctx, id, params.ActingUser, func(p *model.Project) error {
		p.Tasks = append(p.Tasks, model.Task{
			ID:          newID(),
			Description: params.Description,
			Hours:       params.Hours,
			Completed:   params.Completed,
		})
		return nil
	})
}

// UpdateTask replaces the description, hours and completion of a task.
//
//encore:api public method=PUT path=/projects/:id/tasks/:taskID
func UpdateTask(ctx context.Context, id, taskID string, params *TaskParams) (*model.Project, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	return mutate(ctx, id, params.ActingUser, func(p *model.Project) error {
		i := p.TaskIndex(taskID)
		if i < 0 {
			return errors.NotFoundError(nil, "task")
		}

		p.Tasks[i].Description = params.Description
		p.Tasks[i].Hours = params.Hours
		p.Tasks[i].Completed = params.Completed
		return nil
	})
}

// DeleteTask removes a task from a project.
//
//encore:api public method=DELETE path=/projects/:id/tasks/:taskID
func DeleteTask(ctx context.Context, id, taskID string, params *ActorParams) (*model.Project, error) {
	return mutate(ctx, id, actor(params.ActingUser), func(p *model.Project) error {
		i := p.TaskIndex(taskID)
		if i < 0 {
			return errors.NotFoundError(nil, "task")
		}

		p.Tasks = append(p.Tasks[:i], p.Tasks[i+1:]...)
		return nil
	})
}

// AddExpense records an expense against a project.
//
//encore:api public method=POST path=/projects/:id/expenses
func AddExpense(ctx context.Context, id string, params *ExpenseParams) (*model.Project, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	return mutate(ctx, id, params.ActingUser, func(p *model.Project) error {
		p.Expenses = append(p.Expenses, model.Expense{
			ID:          newID(),
			Description: params.Description,
			Amount:      params.Amount,
			Date:        params.Date,
		})
		return nil
	})
}

// UpdateExpense replaces an expense of a project.
//
//encore:api public method=PUT path=/projects/:id/expenses/:expenseID
func UpdateExpense(ctx context.Context, id, expenseID string, params *ExpenseParams) (*model.Project, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	return mutate(ctx, id, params.ActingUser, func(p *model.Project) error {
		i := p.ExpenseIndex(expenseID)
		if i < 0 {
			return errors.NotFoundError(nil, "expense")
		}

		p.Expenses[i] = model.Expense{
			ID:          expenseID,
			Description: params.Description,
			Amount:      params.Amount,
			Date:        params.Date,
		}
		return nil
	})
}

// DeleteExpense removes an expense from a project.
//
//encore:api public method=DELETE path=/projects/:id/expenses/:expenseID
func DeleteExpense(ctx context.Context, id, expenseID string, params *ActorParams) (*model.Project, error) {
	return mutate(ctx, id, actor(params.ActingUser), func(p *model.Project) error {
		i := p.ExpenseIndex(expenseID)
		if i < 0 {
			return errors.NotFoundError(nil, "expense")
		}

		p.Expenses = append(p.Expenses[:i], p.Expenses[i+1:]...)
		return nil
	})
}
