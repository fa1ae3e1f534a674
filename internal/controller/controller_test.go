package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ai-dataviz-be/internal/dto"
	"ai-dataviz-be/internal/entity"
	"ai-dataviz-be/internal/pkg/apperror"
	"ai-dataviz-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "controller-test-secret"

type mockCreditService struct{ mock.Mock }

func (m *mockCreditService) GetBalance(ctx context.Context, userId uuid.UUID) (*dto.CreditBalanceResponse, error) {
	args := m.Called(userId)
	res, _ := args.Get(0).(*dto.CreditBalanceResponse)
	return res, args.Error(1)
}

func (m *mockCreditService) Adjust(ctx context.Context, userId uuid.UUID, req *dto.AdjustCreditsRequest) (*dto.CreditBalanceResponse, error) {
	args := m.Called(userId, req.Action, req.Amount)
	res, _ := args.Get(0).(*dto.CreditBalanceResponse)
	return res, args.Error(1)
}

func (m *mockCreditService) ListTransactions(ctx context.Context, userId uuid.UUID, query *dto.ListTransactionsQuery) ([]*dto.CreditTransactionResponse, error) {
	args := m.Called(userId, *query)
	res, _ := args.Get(0).([]*dto.CreditTransactionResponse)
	return res, args.Error(1)
}

type mockSessionService struct{ mock.Mock }

func (m *mockSessionService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	args := m.Called(userId, req.DatasetUrl)
	res, _ := args.Get(0).(*dto.SessionResponse)
	return res, args.Error(1)
}

func (m *mockSessionService) Get(ctx context.Context, userId, sessionId uuid.UUID) (*dto.SessionResponse, error) {
	args := m.Called(userId, sessionId)
	res, _ := args.Get(0).(*dto.SessionResponse)
	return res, args.Error(1)
}

func (m *mockSessionService) List(ctx context.Context, userId uuid.UUID) ([]*dto.SessionListItem, error) {
	args := m.Called(userId)
	res, _ := args.Get(0).([]*dto.SessionListItem)
	return res, args.Error(1)
}

func (m *mockSessionService) Update(ctx context.Context, userId, sessionId uuid.UUID, patch map[string]json.RawMessage) (*dto.SessionResponse, error) {
	args := m.Called(userId, sessionId, patch)
	res, _ := args.Get(0).(*dto.SessionResponse)
	return res, args.Error(1)
}

func (m *mockSessionService) Summarize(ctx context.Context, userId, sessionId uuid.UUID, refresh bool) (json.RawMessage, error) {
	args := m.Called(userId, sessionId, refresh)
	res, _ := args.Get(0).(json.RawMessage)
	return res, args.Error(1)
}

type mockGoalService struct{ mock.Mock }

func (m *mockGoalService) List(ctx context.Context, userId, sessionId uuid.UUID) ([]entity.Goal, error) {
	args := m.Called(userId, sessionId)
	res, _ := args.Get(0).([]entity.Goal)
	return res, args.Error(1)
}

func (m *mockGoalService) Add(ctx context.Context, userId, sessionId uuid.UUID, req *dto.AddGoalRequest) ([]entity.Goal, error) {
	args := m.Called(userId, sessionId, req.CustomGoal)
	res, _ := args.Get(0).([]entity.Goal)
	return res, args.Error(1)
}

func (m *mockGoalService) Generate(ctx context.Context, userId, sessionId uuid.UUID, n int) ([]entity.Goal, error) {
	args := m.Called(userId, sessionId, n)
	res, _ := args.Get(0).([]entity.Goal)
	return res, args.Error(1)
}

func (m *mockGoalService) AddCustom(ctx context.Context, userId, sessionId uuid.UUID, question, visualization string) ([]entity.Goal, error) {
	args := m.Called(userId, sessionId, question, visualization)
	res, _ := args.Get(0).([]entity.Goal)
	return res, args.Error(1)
}

func (m *mockGoalService) Append(ctx context.Context, userId, sessionId uuid.UUID, goal entity.Goal) ([]entity.Goal, error) {
	args := m.Called(userId, sessionId, goal)
	res, _ := args.Get(0).([]entity.Goal)
	return res, args.Error(1)
}

type mockVisualizationService struct{ mock.Mock }

func (m *mockVisualizationService) List(ctx context.Context, userId, sessionId uuid.UUID) ([]entity.Visualization, error) {
	args := m.Called(userId, sessionId)
	res, _ := args.Get(0).([]entity.Visualization)
	return res, args.Error(1)
}

func (m *mockVisualizationService) Visualize(ctx context.Context, userId uuid.UUID, req *dto.VisualizeRequest) (*entity.Visualization, error) {
	args := m.Called(userId, req.SessionId, req.Instruction)
	res, _ := args.Get(0).(*entity.Visualization)
	return res, args.Error(1)
}

func (m *mockVisualizationService) Ensure(ctx context.Context, userId, sessionId uuid.UUID, goal entity.Goal, summary json.RawMessage) (*entity.Visualization, error) {
	args := m.Called(userId, sessionId, goal)
	res, _ := args.Get(0).(*entity.Visualization)
	return res, args.Error(1)
}

func (m *mockVisualizationService) Modify(ctx context.Context, userId, sessionId uuid.UUID, goal entity.Goal, instruction, requestId string, summary json.RawMessage) (*entity.Visualization, error) {
	args := m.Called(userId, sessionId, goal, instruction, requestId)
	res, _ := args.Get(0).(*entity.Visualization)
	return res, args.Error(1)
}

func (m *mockVisualizationService) Replay(ctx context.Context, userId, sessionId uuid.UUID, goal entity.Goal, historyIndex int, requestId string) (*entity.Visualization, error) {
	args := m.Called(userId, sessionId, goal, historyIndex, requestId)
	res, _ := args.Get(0).(*entity.Visualization)
	return res, args.Error(1)
}

func (m *mockVisualizationService) Previous(ctx context.Context, userId, sessionId uuid.UUID, question string) (*dto.ArtifactResponse, error) {
	args := m.Called(userId, sessionId, question)
	res, _ := args.Get(0).(*dto.ArtifactResponse)
	return res, args.Error(1)
}

type mockDatasetService struct{ mock.Mock }

func (m *mockDatasetService) Upload(ctx context.Context, userId uuid.UUID, file *multipart.FileHeader) (*dto.UploadDatasetResponse, error) {
	args := m.Called(userId, file.Filename)
	res, _ := args.Get(0).(*dto.UploadDatasetResponse)
	return res, args.Error(1)
}

func (m *mockDatasetService) Fetch(ctx context.Context, url string) (*dto.FetchDatasetResponse, error) {
	args := m.Called(url)
	res, _ := args.Get(0).(*dto.FetchDatasetResponse)
	return res, args.Error(1)
}

func (m *mockDatasetService) ResolveURL(url string) string {
	return url
}

type testServer struct {
	app           *fiber.App
	userId        uuid.UUID
	token         string
	credits       *mockCreditService
	sessions      *mockSessionService
	goals         *mockGoalService
	visualization *mockVisualizationService
	datasets      *mockDatasetService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	t.Setenv("JWT_SECRET", testSecret)

	s := &testServer{
		userId:        uuid.New(),
		credits:       &mockCreditService{},
		sessions:      &mockSessionService{},
		goals:         &mockGoalService{},
		visualization: &mockVisualizationService{},
		datasets:      &mockDatasetService{},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": s.userId.String(),
		"email":   "analyst@example.com",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	s.token = token

	s.app = fiber.New()
	s.app.Use(serverutils.ErrorHandlerMiddleware())
	api := s.app.Group("/api")
	NewCreditController(s.credits).RegisterRoutes(api)
	NewSessionController(s.sessions, s.goals).RegisterRoutes(api)
	NewVisualizationController(s.visualization).RegisterRoutes(api)
	NewDatasetController(s.datasets).RegisterRoutes(api)

	t.Cleanup(func() {
		s.credits.AssertExpectations(t)
		s.sessions.AssertExpectations(t)
		s.goals.AssertExpectations(t)
		s.visualization.AssertExpectations(t)
		s.datasets.AssertExpectations(t)
	})
	return s
}

func (s *testServer) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+s.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(t, req)
}

func (s *testServer) send(t *testing.T, req *http.Request) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/credits", "/api/sessions", "/api/sessions/" + uuid.NewString() + "/visualizations"} {
		resp, body := s.send(t, httptest.NewRequest("GET", path, nil))
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, path)
		assert.Equal(t, "UNAUTHORIZED", body["code"], path)
	}

	resp, _ := s.send(t, httptest.NewRequest("POST", "/api/visualize", nil))
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestCreditController(t *testing.T) {
	t.Run("balance", func(t *testing.T) {
		s := newTestServer(t)
		s.credits.On("GetBalance", s.userId).Return(&dto.CreditBalanceResponse{Credits: 12}, nil)

		resp, body := s.do(t, "GET", "/api/credits", nil)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, map[string]any{"credits": float64(12)}, body["data"])
	})

	t.Run("insufficient credits", func(t *testing.T) {
		s := newTestServer(t)
		s.credits.On("Adjust", s.userId, "deduct", 50).Return(nil, apperror.ErrInsufficientCredits)

		resp, body := s.do(t, "POST", "/api/credits", map[string]any{"action": "deduct", "amount": 50})
		assert.Equal(t, fiber.StatusPaymentRequired, resp.StatusCode)
		assert.Equal(t, "INSUFFICIENT_CREDITS", body["code"])
		assert.Equal(t, float64(fiber.StatusPaymentRequired), body["status"])
	})

	t.Run("missing action", func(t *testing.T) {
		s := newTestServer(t)

		resp, body := s.do(t, "POST", "/api/credits", map[string]any{"amount": 5})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_ACTION", body["code"])
	})

	t.Run("transactions query", func(t *testing.T) {
		s := newTestServer(t)
		query := dto.ListTransactionsQuery{Service: "visualization", Limit: 10}
		s.credits.On("ListTransactions", s.userId, query).Return([]*dto.CreditTransactionResponse{}, nil)

		resp, _ := s.do(t, "GET", "/api/credits/transactions?service=visualization&limit=10", nil)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		resp, body := s.do(t, "GET", "/api/credits/transactions?limit=500", nil)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "VALIDATION_FAILED", body["code"])
	})
}

func TestSessionController(t *testing.T) {
	t.Run("create", func(t *testing.T) {
		s := newTestServer(t)
		url := "https://storage.example.com/cars.csv"
		s.sessions.On("Create", s.userId, url).Return(&dto.SessionResponse{Id: uuid.New(), DatasetUrl: url}, nil)

		resp, body := s.do(t, "POST", "/api/sessions", map[string]any{"datasetUrl": url})
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
		assert.Equal(t, url, body["data"].(map[string]any)["datasetUrl"])
	})

	t.Run("create rejects bad url", func(t *testing.T) {
		s := newTestServer(t)

		resp, body := s.do(t, "POST", "/api/sessions", map[string]any{"datasetUrl": "cars.csv"})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "VALIDATION_FAILED", body["code"])
	})

	t.Run("malformed id", func(t *testing.T) {
		s := newTestServer(t)

		resp, body := s.do(t, "GET", "/api/sessions/not-a-uuid", nil)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", body["code"])
	})

	t.Run("patch forwards raw fields", func(t *testing.T) {
		s := newTestServer(t)
		sessionId := uuid.New()
		patch := map[string]json.RawMessage{"title": json.RawMessage(`"Fuel economy"`)}
		s.sessions.On("Update", s.userId, sessionId, patch).Return(&dto.SessionResponse{Id: sessionId, Title: "Fuel economy"}, nil)

		resp, _ := s.do(t, "PATCH", "/api/sessions/"+sessionId.String(), map[string]any{"title": "Fuel economy"})
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("summary without body", func(t *testing.T) {
		s := newTestServer(t)
		sessionId := uuid.New()
		s.sessions.On("Summarize", s.userId, sessionId, false).Return(json.RawMessage(`{"name":"cars"}`), nil)

		resp, body := s.do(t, "POST", "/api/sessions/"+sessionId.String()+"/summary", nil)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, map[string]any{"name": "cars"}, body["data"])
	})

	t.Run("add custom goal", func(t *testing.T) {
		s := newTestServer(t)
		sessionId := uuid.New()
		goals := []entity.Goal{{Question: "Which cars are fastest?", Visualization: "bar"}}
		s.goals.On("Add", s.userId, sessionId, "Which cars are fastest?").Return(goals, nil)

		resp, body := s.do(t, "POST", "/api/sessions/"+sessionId.String()+"/goals", map[string]any{"customGoal": "Which cars are fastest?"})
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Len(t, body["data"], 1)
	})
}

func TestVisualizationController(t *testing.T) {
	goal := entity.Goal{Question: "How does mpg vary by origin?", Visualization: "box"}

	t.Run("visualize", func(t *testing.T) {
		s := newTestServer(t)
		sessionId := uuid.New()
		viz := &entity.Visualization{Id: uuid.New(), Goal: goal, Code: "plot()", Raster: "iVBOR"}
		s.visualization.On("Visualize", s.userId, sessionId, "").Return(viz, nil)

		resp, body := s.do(t, "POST", "/api/visualize", map[string]any{"sessionId": sessionId, "goal": goal})
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "plot()", body["data"].(map[string]any)["code"])
	})

	t.Run("visualize requires session", func(t *testing.T) {
		s := newTestServer(t)

		resp, body := s.do(t, "POST", "/api/visualize", map[string]any{"goal": goal})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "VALIDATION_FAILED", body["code"])
	})

	t.Run("failed modification carries previous artifact", func(t *testing.T) {
		s := newTestServer(t)
		sessionId := uuid.New()
		failure := apperror.NoArtifact().WithData(dto.PreviousArtifactData{
			Previous: &dto.ArtifactResponse{Code: "plot()", Raster: "iVBOR"},
		})
		s.visualization.On("Modify", s.userId, sessionId, goal, "make it red", "req-1").Return(nil, failure)

		resp, body := s.do(t, "POST", "/api/sessions/"+sessionId.String()+"/visualizations/modify", map[string]any{
			"goal":        goal,
			"instruction": "make it red",
			"requestId":   "req-1",
		})
		assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, "NO_ARTIFACT", body["code"])
		previous := body["data"].(map[string]any)["previous"].(map[string]any)
		assert.Equal(t, "plot()", previous["code"])
	})

	t.Run("empty instruction", func(t *testing.T) {
		s := newTestServer(t)
		sessionId := uuid.New()
		s.visualization.On("Modify", s.userId, sessionId, goal, "  ", "").Return(nil, apperror.ErrEmptyInstruction)

		resp, body := s.do(t, "POST", "/api/sessions/"+sessionId.String()+"/visualizations/modify", map[string]any{
			"goal":        goal,
			"instruction": "  ",
		})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "EMPTY_INSTRUCTION", body["code"])
	})

	t.Run("replay", func(t *testing.T) {
		s := newTestServer(t)
		sessionId := uuid.New()
		s.visualization.On("Replay", s.userId, sessionId, goal, 0, "").Return(&entity.Visualization{Goal: goal}, nil)

		resp, _ := s.do(t, "POST", "/api/sessions/"+sessionId.String()+"/visualizations/replay", map[string]any{
			"goal":         goal,
			"historyIndex": 0,
		})
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("previous requires question", func(t *testing.T) {
		s := newTestServer(t)

		resp, body := s.do(t, "GET", "/api/sessions/"+uuid.NewString()+"/visualizations/previous", nil)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "question is required", body["error"])
	})
}

func TestDatasetController(t *testing.T) {
	t.Run("upload", func(t *testing.T) {
		s := newTestServer(t)
		s.datasets.On("Upload", s.userId, "cars.csv").Return(&dto.UploadDatasetResponse{Url: "https://cdn/cars.csv"}, nil)

		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		part, err := writer.CreateFormFile("file", "cars.csv")
		require.NoError(t, err)
		_, err = part.Write([]byte("name,mpg\nvw,30\n"))
		require.NoError(t, err)
		require.NoError(t, writer.Close())

		req := httptest.NewRequest("POST", "/api/datasets", &buf)
		req.Header.Set("Authorization", "Bearer "+s.token)
		req.Header.Set("Content-Type", writer.FormDataContentType())

		resp, _ := s.send(t, req)
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	})

	t.Run("upload without file", func(t *testing.T) {
		s := newTestServer(t)

		resp, body := s.do(t, "POST", "/api/datasets", map[string]any{})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "No file uploaded", body["error"])
	})
}
