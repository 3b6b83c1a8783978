package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/weekwise/weekwise/internal/models"
)

// TaskRepositoryInterface defines the interface for task repository operations
// This interface enables better testability by allowing mock implementations
type TaskRepositoryInterface interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	GetByKey(ctx context.Context, userID uuid.UUID, name, category, date string) (*models.Task, error)
	GetActive(ctx context.Context, userID uuid.UUID) (*models.Task, error)
	ListByDateRange(ctx context.Context, userID uuid.UUID, startDate, endDate string) ([]*models.Task, error)
	ListByDateRangePaginated(ctx context.Context, userID uuid.UUID, startDate, endDate string, page, pageSize int) ([]*models.Task, int, error)
	ListByCategory(ctx context.Context, userID uuid.UUID, category, startDate, endDate string) ([]*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	CompleteAutomated(ctx context.Context, taskID uuid.UUID, session models.Session, plannedTime int64) (bool, error)
	SetCalendarEventID(ctx context.Context, taskID uuid.UUID, eventID string) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByDate(ctx context.Context, userID uuid.UUID, date string) (int64, error)
	DeleteByDateRange(ctx context.Context, userID uuid.UUID, startDate, endDate string) (int64, error)
}

// TemplateRepositoryInterface defines the interface for template repository operations
type TemplateRepositoryInterface interface {
	Create(ctx context.Context, tpl *models.TaskTemplate) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.TaskTemplate, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.TaskTemplate, error)
	Update(ctx context.Context, tpl *models.TaskTemplate) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// TodoRepositoryInterface defines the interface for todo repository operations
type TodoRepositoryInterface interface {
	Create(ctx context.Context, todo *models.Todo) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Todo, error)
	ListCurrent(ctx context.Context, userID uuid.UUID, today string) ([]*models.Todo, error)
	CarryForward(ctx context.Context, id uuid.UUID, today string) error
	Update(ctx context.Context, todo *models.Todo) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	ClearCompleted(ctx context.Context, userID uuid.UUID) (int64, error)
}

// SleepRepositoryInterface defines the interface for sleep repository operations
type SleepRepositoryInterface interface {
	Create(ctx context.Context, s *models.Sleep) error
	GetActive(ctx context.Context, userID uuid.UUID) (*models.Sleep, error)
	Stop(ctx context.Context, s *models.Sleep) error
	ListByDateRange(ctx context.Context, userID uuid.UUID, startDate, endDate string) ([]*models.Sleep, error)
	ListCompletedByDateRange(ctx context.Context, userID uuid.UUID, startDate, endDate string) ([]*models.Sleep, error)
}

// CategoryRepositoryInterface defines the interface for category repository operations
type CategoryRepositoryInterface interface {
	Create(ctx context.Context, c *models.Category) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Category, error)
	GetByName(ctx context.Context, userID uuid.UUID, name string) (*models.Category, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Category, error)
	Update(ctx context.Context, c *models.Category) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// UserRepositoryInterface defines the interface for user repository operations
type UserRepositoryInterface interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByProviderID(ctx context.Context, providerID string) (*models.User, error)
	UpdateProfile(ctx context.Context, u *models.User) error
	SetCalendarTokens(ctx context.Context, userID uuid.UUID, accessToken, refreshToken string, expiry *time.Time) error
	ClearCalendarTokens(ctx context.Context, userID uuid.UUID) error
}

// Ensure concrete types implement the interfaces
var (
	_ TaskRepositoryInterface     = (*TaskRepository)(nil)
	_ TemplateRepositoryInterface = (*TemplateRepository)(nil)
	_ TodoRepositoryInterface     = (*TodoRepository)(nil)
	_ SleepRepositoryInterface    = (*SleepRepository)(nil)
	_ CategoryRepositoryInterface = (*CategoryRepository)(nil)
	_ UserRepositoryInterface     = (*UserRepository)(nil)
)
