package httpapi

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/astepanovs/gatehouse/internal/logging"
	"github.com/astepanovs/gatehouse/internal/server/config"
	"github.com/astepanovs/gatehouse/internal/server/deploy"
	"github.com/astepanovs/gatehouse/internal/server/models"
	"github.com/astepanovs/gatehouse/internal/server/repositories/repomanager"
	"github.com/astepanovs/gatehouse/internal/server/services"
	"github.com/astepanovs/gatehouse/internal/server/webhook"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type jsonBody = map[string]any

// fakeRunner stands in for the real command runner. It can be told to block
// until released, and records how many times it ran.
type fakeRunner struct {
	exitCode int
	stdout   string
	stderr   string

	block   chan struct{}
	started chan struct{}

	mu   sync.Mutex
	runs int
}

func (r *fakeRunner) Run(ctx context.Context, command, dir string) (int, string, string, error) {
	r.mu.Lock()
	r.runs++
	r.mu.Unlock()

	if r.started != nil {
		r.started <- struct{}{}
	}
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return -1, r.stdout, r.stderr, ctx.Err()
		}
	}
	return r.exitCode, r.stdout, r.stderr, nil
}

func (r *fakeRunner) runCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs
}

type testServer struct {
	router  *gin.Engine
	cfg     *config.Config
	manager *repomanager.InMemoryRepositoryManager
	users   *services.UserService
	codes   *services.CodeService
	runner  *fakeRunner
}

func newTestServer(t *testing.T, runner *fakeRunner) *testServer {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DeployCommand = "true"
	cfg.DeployTimeout = time.Minute

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	manager := repomanager.NewInMemoryRepositoryManager()

	users := services.NewUserService(nil, manager, cfg)
	codes := services.NewCodeService(nil, manager)
	gatekeeper := webhook.NewGatekeeper([]byte(cfg.WebhookSecret), cfg.ProtectedBranches)
	trigger := deploy.NewTrigger(runner, cfg, logger, nil)

	h := NewHandler(logger, cfg, users, codes, gatekeeper, trigger)
	return &testServer{
		router:  h.Router(),
		cfg:     cfg,
		manager: manager,
		users:   users,
		codes:   codes,
		runner:  runner,
	}
}

func (ts *testServer) seedCode(t *testing.T, code string, status models.CodeStatus) {
	t.Helper()
	err := ts.manager.RegistrationCodes(nil).Create(context.Background(), &models.RegistrationCode{
		Code:      code,
		Status:    status,
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
}
