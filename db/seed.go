package db

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/taskmanager-go/apperror"
	"github.com/user/taskmanager-go/tasks"
	"github.com/user/taskmanager-go/users"
)

// Demo account created by Seed.
const (
	DemoEmail    = "demo@taskmanager.com"
	DemoPassword = "demo123"
	DemoName     = "Demo User"
)

type demoTask struct {
	title, description string
	status             tasks.Status
	priority           tasks.Priority
}

var demoTasks = []demoTask{
	{"Learn Docker", "Study Docker containerization and multi-stage builds", tasks.StatusDone, tasks.PriorityHigh},
	{"Setup Kubernetes", "Configure k3s cluster and deploy applications", tasks.StatusInProgress, tasks.PriorityHigh},
	{"CI/CD Pipeline", "Implement GitHub Actions for automated deployment", tasks.StatusTodo, tasks.PriorityMedium},
	{"Monitoring Setup", "Configure Prometheus and Grafana for observability", tasks.StatusTodo, tasks.PriorityMedium},
	{"Security Hardening", "Implement security best practices and vulnerability scanning", tasks.StatusTodo, tasks.PriorityLow},
}

// Seed creates the demo user and its sample tasks. It does nothing when the
// demo user already exists, so it is safe to run on every start.
// It reports whether anything was created.
func Seed(ctx context.Context, userRepo users.Repository, taskRepo tasks.Repository, bcryptCost int, logger *slog.Logger) (bool, error) {
	if logger == nil {
		logger = slog.Default()
	}

	_, err := userRepo.GetByEmail(ctx, DemoEmail)
	if err == nil {
		logger.Debug("demo user already present, skipping seed")
		return false, nil
	}
	if !apperror.IsNotFound(err) {
		return false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcryptCost)
	if err != nil {
		return false, apperror.NewInternalError("failed to hash demo password", err)
	}

	// Tasks are spaced one second apart so that "newest first" lists them in
	// reverse seed order on every driver.
	base := time.Now().UTC().Add(-time.Duration(len(demoTasks)) * time.Second).Truncate(time.Second)
	user := &users.User{
		ID:           uuid.NewString(),
		Name:         DemoName,
		Email:        DemoEmail,
		PasswordHash: string(hash),
		CreatedAt:    base,
		UpdatedAt:    base,
	}
	if err := userRepo.Create(ctx, user); err != nil {
		return false, err
	}

	for i, d := range demoTasks {
		at := base.Add(time.Duration(i+1) * time.Second)
		task := &tasks.Task{
			ID:          uuid.NewString(),
			Title:       d.title,
			Description: d.description,
			Status:      d.status,
			Priority:    d.priority,
			UserID:      user.ID,
			CreatedAt:   at,
			UpdatedAt:   at,
		}
		if err := taskRepo.Create(ctx, task); err != nil {
			return false, err
		}
	}

	logger.Info("demo user created with sample tasks", "email", DemoEmail, "tasks", len(demoTasks))
	return true, nil
}
