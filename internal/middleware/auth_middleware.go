package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go-hrms/internal/shared/apperror"
	"go-hrms/internal/shared/contextutil"
	"go-hrms/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

var (
	ErrTokenMissing = apperror.Unauthorized("Token not found")
	ErrInvalidToken = apperror.New("INVALID_TOKEN", "Invalid token", http.StatusUnauthorized)
	ErrTokenExpired = apperror.New("TOKEN_EXPIRED", "Token has expired", http.StatusUnauthorized)
)

// abortWith stops the chain with err, optionally replacing its message.
func abortWith(c *gin.Context, err *apperror.AppError, message string) {
	if message != "" {
		e := *err
		e.Message = message
		err = &e
	}
	response.Abort(c, err)
}

// AuthMiddleware verifies an HS256 token from the Authorization header or
// the access_token cookie. user_id and company_id claims are required;
// employee_id and role are optional.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !found {
			tokenString = ""
		}

		if tokenString == "" {
			if cookie, err := c.Cookie("access_token"); err == nil {
				tokenString = cookie
			}
		}

		if tokenString == "" {
			abortWith(c, ErrTokenMissing, "")
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(secret), nil
		})

		if err != nil || !token.Valid {
			errObj := ErrInvalidToken
			if errors.Is(err, jwt.ErrTokenExpired) {
				errObj = ErrTokenExpired
			}
			abortWith(c, errObj, "")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortWith(c, ErrInvalidToken, "Invalid token claims")
			return
		}

		userID, ok := claims["user_id"].(string)
		if !ok || userID == "" {
			abortWith(c, ErrInvalidToken, "User ID not found in token")
			return
		}

		companyID, ok := claims["company_id"].(string)
		if !ok || companyID == "" {
			abortWith(c, ErrInvalidToken, "Company ID not found in token")
			return
		}

		employeeID, _ := claims["employee_id"].(string)
		role, _ := claims["role"].(string)

		c.Set("user_id", userID)
		c.Set("employee_id", employeeID)
		c.Set("company_id", companyID)
		c.Set("role", role)

		ctx := contextutil.WithActor(c.Request.Context(), userID, companyID)
		reqLogger := contextutil.GetLogger(ctx, zap.L()).With(
			zap.String("user_id", userID),
			zap.String("company_id", companyID),
		)
		ctx = contextutil.WithLogger(ctx, reqLogger)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
