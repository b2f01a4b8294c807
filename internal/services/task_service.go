package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/akovalev/go-taskmanager/internal/models"
)

type taskServiceImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewTaskService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
) TaskService {
	return &taskServiceImpl{
		logger: logger,
		pgPool: pgPool,
	}
}

func (s *taskServiceImpl) Create(ctx context.Context, params CreateTaskParams) (*models.Task, error) {
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrEmptyTitle
	}

	task := models.Task{
		UserID:      params.OwnerID,
		Title:       params.Title,
		Description: params.Description,
		Completed:   false,
		DueDate:     params.DueDate,
		Category:    models.NormalizeCategory(params.Category),
		Priority:    models.NormalizePriority(params.Priority),
		CreatedAt:   time.Now(),
	}

	taskUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate task uuid")
		return nil, err
	}
	task.ID = taskUUID.String()

	const insertTaskQuery = `
INSERT INTO tasks (id,
                   user_id,
                   title,
                   description,
                   completed,
                   due_date,
                   category,
                   priority,
                   created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`
	_, err = s.pgPool.Exec(
		ctx,
		insertTaskQuery,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		task.Completed,
		task.DueDate,
		task.Category,
		task.Priority,
		task.CreatedAt,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert task")
		return nil, err
	}
	s.logger.Debug().
		Str("task_id", task.ID).
		Msg("inserted task")

	s.logger.Info().
		Str("task_id", task.ID).
		Str("user_id", task.UserID).
		Msg("created task")
	return &task, nil
}

const selectTaskColumns = `
SELECT id,
       title,
       description,
       completed,
       due_date,
       category,
       priority,
       created_at
FROM tasks
`

func (s *taskServiceImpl) ListByOwner(ctx context.Context, ownerID string) ([]*models.Task, error) {
	const selectTasksByOwnerQuery = selectTaskColumns + `
WHERE user_id = $1
ORDER BY created_at DESC
`
	return s.selectTasks(ctx, ownerID, selectTasksByOwnerQuery, ownerID)
}

func (s *taskServiceImpl) FindOneOwned(ctx context.Context, taskID, ownerID string) (*models.Task, error) {
	task := models.Task{
		ID:     taskID,
		UserID: ownerID,
	}

	const selectOwnedTaskQuery = `
SELECT title,
       description,
       completed,
       due_date,
       category,
       priority,
       created_at
FROM tasks
WHERE id = $1 AND user_id = $2
`
	err := s.pgPool.QueryRow(
		ctx,
		selectOwnedTaskQuery,
		task.ID,
		task.UserID,
	).Scan(
		&task.Title,
		&task.Description,
		&task.Completed,
		&task.DueDate,
		&task.Category,
		&task.Priority,
		&task.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn().
				Str("task_id", task.ID).
				Str("user_id", task.UserID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to select task")
		return nil, err
	}
	s.logger.Debug().
		Str("task_id", task.ID).
		Msg("selected owned task")

	return &task, nil
}

func (s *taskServiceImpl) UpdateOwned(ctx context.Context, params UpdateTaskParams) (*models.Task, error) {
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrEmptyTitle
	}

	task := models.Task{
		ID:          params.ID,
		UserID:      params.OwnerID,
		Title:       params.Title,
		Description: params.Description,
		Completed:   models.CompletedFromForm(params.Completed),
		DueDate:     params.DueDate,
		Category:    models.NormalizeCategory(params.Category),
		Priority:    models.NormalizePriority(params.Priority),
	}

	// One conditional statement, not read-then-write, so two racing
	// updates for the same task can't resurrect each other's fields.
	const updateOwnedTaskQuery = `
UPDATE tasks
SET title = $1,
    description = $2,
    completed = $3,
    due_date = $4,
    category = $5,
    priority = $6
WHERE id = $7 AND user_id = $8
RETURNING created_at
`
	err := s.pgPool.QueryRow(
		ctx,
		updateOwnedTaskQuery,
		task.Title,
		task.Description,
		task.Completed,
		task.DueDate,
		task.Category,
		task.Priority,
		task.ID,
		task.UserID,
	).Scan(&task.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn().
				Str("task_id", task.ID).
				Str("user_id", task.UserID).
				Msg("update matched no owned task")
			return nil, nil
		}

		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to update task")
		return nil, err
	}
	s.logger.Debug().
		Str("task_id", task.ID).
		Msg("updated task")

	s.logger.Info().
		Str("task_id", task.ID).
		Str("user_id", task.UserID).
		Msg("updated task")
	return &task, nil
}

func (s *taskServiceImpl) CompleteOwned(ctx context.Context, taskID, ownerID string) (*models.Task, error) {
	task := models.Task{
		ID:        taskID,
		UserID:    ownerID,
		Completed: true,
	}

	const completeOwnedTaskQuery = `
UPDATE tasks
SET completed = TRUE
WHERE id = $1 AND user_id = $2
RETURNING title, description, due_date, category, priority, created_at
`
	err := s.pgPool.QueryRow(
		ctx,
		completeOwnedTaskQuery,
		task.ID,
		task.UserID,
	).Scan(
		&task.Title,
		&task.Description,
		&task.DueDate,
		&task.Category,
		&task.Priority,
		&task.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn().
				Str("task_id", task.ID).
				Str("user_id", task.UserID).
				Msg("complete matched no owned task")
			return nil, nil
		}

		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to complete task")
		return nil, err
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("user_id", task.UserID).
		Msg("completed task")
	return &task, nil
}

func (s *taskServiceImpl) DeleteOwned(ctx context.Context, taskID, ownerID string) error {
	const deleteOwnedTaskQuery = `
DELETE FROM tasks
WHERE id = $1 AND user_id = $2
`
	tag, err := s.pgPool.Exec(
		ctx,
		deleteOwnedTaskQuery,
		taskID,
		ownerID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to delete task")
		return err
	}

	if tag.RowsAffected() == 0 {
		// Idempotent absence: deleting a missing or foreign task is
		// not an error.
		s.logger.Debug().
			Str("task_id", taskID).
			Str("user_id", ownerID).
			Msg("delete matched no owned task")
		return nil
	}

	s.logger.Info().
		Str("task_id", taskID).
		Str("user_id", ownerID).
		Msg("deleted task")
	return nil
}

func (s *taskServiceImpl) Search(ctx context.Context, ownerID, text string) ([]*models.Task, error) {
	if strings.TrimSpace(text) == "" {
		return s.ListByOwner(ctx, ownerID)
	}

	const searchTasksQuery = selectTaskColumns + `
WHERE user_id = $1 AND
      (title ILIKE $2 ESCAPE '\' OR description ILIKE $2 ESCAPE '\')
ORDER BY created_at DESC
`
	pattern := "%" + escapeLikePattern(text) + "%"
	return s.selectTasks(ctx, ownerID, searchTasksQuery, ownerID, pattern)
}

func (s *taskServiceImpl) FilterByStatus(ctx context.Context, ownerID, status string) ([]*models.Task, error) {
	completed, ok := completedFilter(status)
	if !ok {
		return s.ListByOwner(ctx, ownerID)
	}

	const selectTasksByStatusQuery = selectTaskColumns + `
WHERE user_id = $1 AND completed = $2
ORDER BY created_at DESC
`
	return s.selectTasks(ctx, ownerID, selectTasksByStatusQuery, ownerID, completed)
}

func (s *taskServiceImpl) selectTasks(ctx context.Context, ownerID, query string, args ...any) ([]*models.Task, error) {
	rows, err := s.pgPool.Query(ctx, query, args...)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", ownerID).
			Msg("failed to select tasks")
		return nil, err
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0)
	for rows.Next() {
		task := &models.Task{UserID: ownerID}
		err = rows.Scan(
			&task.ID,
			&task.Title,
			&task.Description,
			&task.Completed,
			&task.DueDate,
			&task.Category,
			&task.Priority,
			&task.CreatedAt,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan task")
			return nil, err
		}
		tasks = append(tasks, task)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}
	s.logger.Debug().
		Int("count", len(tasks)).
		Str("user_id", ownerID).
		Msg("selected tasks")

	return tasks, nil
}

// escapeLikePattern neutralizes LIKE metacharacters so user input is
// matched as a literal substring, never as a pattern.
func escapeLikePattern(text string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`%`, `\%`,
		`_`, `\_`,
	)
	return r.Replace(text)
}

// completedFilter maps a status filter value onto the completion flag.
// The second return is false when no filter should be applied.
func completedFilter(status string) (bool, bool) {
	switch status {
	case "completed":
		return true, true
	case "pending":
		return false, true
	default:
		return false, false
	}
}
