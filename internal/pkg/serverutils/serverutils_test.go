package serverutils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"ai-dataviz-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func decodeError(t *testing.T, body io.Reader) ErrorResponse {
	t.Helper()
	var res ErrorResponse
	require.NoError(t, json.NewDecoder(body).Decode(&res))
	return res
}

func TestJwtMiddleware(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	userId := uuid.New()

	app := fiber.New()
	app.Get("/me", JwtMiddleware, func(ctx *fiber.Ctx) error {
		id, err := UserIdFromCtx(ctx)
		if err != nil {
			return err
		}
		return ctx.SendString(id.String())
	})

	valid := signToken(t, testSecret, jwt.MapClaims{
		"user_id": userId.String(),
		"email":   "a@example.com",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"valid token", "Bearer " + valid, fiber.StatusOK},
		{"missing header", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid, fiber.StatusUnauthorized},
		{"wrong secret", "Bearer " + signToken(t, "other", jwt.MapClaims{"user_id": userId.String()}), fiber.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, testSecret, jwt.MapClaims{"user_id": userId.String(), "exp": time.Now().Add(-time.Hour).Unix()}), fiber.StatusUnauthorized},
		{"no user id", "Bearer " + signToken(t, testSecret, jwt.MapClaims{"email": "a@example.com"}), fiber.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)

			if tc.status == fiber.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				assert.Equal(t, userId.String(), string(body))
			} else {
				assert.Equal(t, string(apperror.CodeUnauthorized), decodeError(t, resp.Body).Code)
			}
		})
	}
}

func TestErrorHandlerMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/app", func(ctx *fiber.Ctx) error {
		return apperror.ErrNoArtifact.WithData(map[string]string{"code": "old"})
	})
	app.Get("/fiber", func(ctx *fiber.Ctx) error {
		return fiber.ErrUpgradeRequired
	})
	app.Get("/plain", func(ctx *fiber.Ctx) error {
		return errors.New("boom")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/app", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	res := decodeError(t, resp.Body)
	assert.False(t, res.Success)
	assert.Equal(t, string(apperror.CodeNoArtifact), res.Code)
	assert.Equal(t, map[string]interface{}{"code": "old"}, res.Data)

	resp, err = app.Test(httptest.NewRequest("GET", "/fiber", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/plain", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	res = decodeError(t, resp.Body)
	assert.Equal(t, "Internal server error", res.Error)
	assert.Equal(t, string(apperror.CodeInternal), res.Code)
	assert.Nil(t, res.Data)

	resp, err = app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, string(apperror.CodeNotFound), decodeError(t, resp.Body).Code)
}

func TestValidateRequest(t *testing.T) {
	type request struct {
		Url   string `validate:"required,url"`
		Title string `validate:"max=5"`
	}

	assert.NoError(t, ValidateRequest(request{Url: "https://example.com/a.csv"}))

	err := ValidateRequest(request{Url: "nope", Title: "too long"})
	require.ErrorIs(t, err, apperror.ErrValidation)
	appErr, _ := apperror.As(err)
	assert.Contains(t, appErr.Message, "Url failed on 'url'")
	assert.Contains(t, appErr.Message, "Title failed on 'max=5'")
}
