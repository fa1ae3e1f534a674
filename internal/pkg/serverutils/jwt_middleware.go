// FILE: internal/pkg/serverutils/jwt_middleware.go
package serverutils

import (
	"os"

	"ai-dataviz-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func JwtMiddleware(ctx *fiber.Ctx) error {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return WriteError(ctx, apperror.ErrUnauthorized)
	}
	tokenStr := authHeader[7:]

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte(os.Getenv("JWT_SECRET")), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil || !token.Valid {
		return WriteError(ctx, apperror.ErrUnauthorized)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return WriteError(ctx, apperror.ErrUnauthorized)
	}

	userIdStr, _ := claims["user_id"].(string)
	if _, err := uuid.Parse(userIdStr); err != nil {
		return WriteError(ctx, apperror.ErrUnauthorized)
	}
	email, _ := claims["email"].(string)

	ctx.Locals("user_id", userIdStr)
	ctx.Locals("email", email)
	return ctx.Next()
}

// UserIdFromCtx returns the identity bound by JwtMiddleware.
func UserIdFromCtx(ctx *fiber.Ctx) (uuid.UUID, error) {
	userIdStr, ok := ctx.Locals("user_id").(string)
	if !ok {
		return uuid.Nil, apperror.ErrUnauthorized
	}
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return uuid.Nil, apperror.ErrUnauthorized
	}
	return userId, nil
}

// ParamUUID parses a uuid path parameter, answering NotFound for malformed ids.
func ParamUUID(ctx *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params(name))
	if err != nil {
		return uuid.Nil, apperror.SessionNotFound()
	}
	return id, nil
}
