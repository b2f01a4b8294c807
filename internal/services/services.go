package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/akovalev/go-taskmanager/internal/models"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrUserPasswordMismatch = errors.New("user password mismatch")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionExpired       = errors.New("session expired")
	ErrTaskNotFound         = errors.New("task not found")
	ErrEmptyTitle           = errors.New("task title must not be empty")
)

type UserService interface {
	// Register creates a user with the given name, email and password.
	//
	// The password is stored as an argon2id hash, never raw.
	// It returns ErrUserAlreadyExists if the email is already taken
	// (exact match as stored).
	Register(ctx context.Context, params RegisterParams) (*models.User, error)

	// Authenticate looks the user up by email and verifies the password.
	//
	// It returns ErrUserNotFound if no user has the given email and
	// ErrUserPasswordMismatch if the password doesn't verify. Callers
	// rendering user-facing errors should collapse the two into one
	// message so that emails can't be enumerated.
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
}

type SessionService interface {
	// Create establishes a session for the user with a fixed
	// absolute expiry.
	Create(ctx context.Context, userID string) (*models.Session, error)

	// Get returns the session with the given ID.
	//
	// It returns ErrSessionNotFound if the session doesn't exist and
	// ErrSessionExpired if it exists but its expiry has passed.
	Get(ctx context.Context, sessionID string) (*models.Session, error)

	// Destroy removes the session. It blocks until the store has
	// confirmed the delete, so a logout response is never written
	// before the session is actually gone.
	Destroy(ctx context.Context, sessionID string) error
}

type TokenService interface {
	// Issue signs a bearer token embedding the user ID as the
	// subject. Expiry is the only lifecycle bound; there is no
	// server-side revocation.
	Issue(userID string) (string, time.Time, error)

	// Parse validates the token's signature, issuer and expiry and
	// returns its registered claims.
	Parse(token string) (*jwt.RegisteredClaims, error)
}

type TaskService interface {
	// Create inserts a task owned by params.OwnerID. The owner always
	// comes from the authenticated caller; there is no way to create
	// a task on behalf of someone else. Category and priority are
	// projected onto their allowed sets, creation time is server-set.
	//
	// It returns ErrEmptyTitle if the title is blank.
	Create(ctx context.Context, params CreateTaskParams) (*models.Task, error)

	// ListByOwner returns the owner's tasks, newest first. An owner
	// with no tasks gets an empty slice, not an error.
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Task, error)

	// FindOneOwned returns the task only if both the task ID and the
	// owner ID match. It returns ErrTaskNotFound otherwise; a task ID
	// alone never authorizes access.
	FindOneOwned(ctx context.Context, taskID, ownerID string) (*models.Task, error)

	// UpdateOwned rewrites the task's caller-writable fields in a
	// single conditional update scoped by (id, owner). The Completed
	// field carries the raw checkbox value and is true only for the
	// literal "on". A non-matching (id, owner) pair is a silent
	// no-op returning (nil, nil).
	UpdateOwned(ctx context.Context, params UpdateTaskParams) (*models.Task, error)

	// CompleteOwned sets the completion flag, touching nothing else.
	// Idempotent; a non-matching (id, owner) pair is a silent no-op
	// returning (nil, nil).
	CompleteOwned(ctx context.Context, taskID, ownerID string) (*models.Task, error)

	// DeleteOwned removes the task scoped by (id, owner). Deleting a
	// task that doesn't exist or belongs to someone else is a no-op.
	DeleteOwned(ctx context.Context, taskID, ownerID string) error

	// Search returns the owner's tasks whose title or description
	// contains the text, case-insensitively. The text is matched as
	// a literal substring; pattern metacharacters have no effect.
	// Blank text falls back to ListByOwner.
	Search(ctx context.Context, ownerID, text string) ([]*models.Task, error)

	// FilterByStatus returns the owner's tasks filtered by
	// "completed" or "pending". Any other value, including empty,
	// applies no filter.
	FilterByStatus(ctx context.Context, ownerID, status string) ([]*models.Task, error)
}

type RegisterParams struct {
	Name     string
	Email    string
	Password string
}

type CreateTaskParams struct {
	OwnerID     string
	Title       string
	Description string
	DueDate     *time.Time
	Category    string
	Priority    string
}

type UpdateTaskParams struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	// Completed is the raw checkbox value from the form boundary,
	// not a parsed bool. See TaskService.UpdateOwned.
	Completed string
	DueDate   *time.Time
	Category  string
	Priority  string
}
