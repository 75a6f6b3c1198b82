package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	authdomain "github.com/office562/campbaraisa-sub000/internal/auth/domain"
	"github.com/office562/campbaraisa-sub000/internal/auth/password"
	"github.com/office562/campbaraisa-sub000/internal/auditcontext"
	auditdomain "github.com/office562/campbaraisa-sub000/internal/audit/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	AdminID   string    `json:"admin_id"`
	Email     string    `json:"email"`
}

// @Summary      Admin Login
// @Description  Exchange admin credentials for a session token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body loginRequest true "Login Request"
// @Success      200  {object}  loginResponse
// @Router       /auth/login [post]
func (s *Server) Login(c *gin.Context) {
	if !s.loginLimit.Allow(c.ClientIP()) {
		AbortWithError(c, ErrTooManyRequests)
		return
	}

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		AbortWithError(c, authdomain.ErrInvalidCredentials)
		return
	}

	var admin authdomain.Admin
	err := s.db.WithContext(c.Request.Context()).Where("email = ?", email).First(&admin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			AbortWithError(c, authdomain.ErrInvalidCredentials)
			return
		}
		AbortWithError(c, err)
		return
	}
	if !password.Verify(req.Password, admin.PasswordHash) {
		s.log.Warn("login rejected", zap.String("email", email))
		AbortWithError(c, authdomain.ErrInvalidCredentials)
		return
	}

	now := s.clock.Now()
	expiresAt := now.Add(s.cfg.Auth.TokenTTL)
	claims := jwt.RegisteredClaims{
		Subject:   admin.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		Issuer:    "campbaraisa",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Auth.JWTSecret))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": loginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		AdminID:   admin.ID.String(),
		Email:     admin.Email,
	}})
}

// AdminRequired authenticates admin requests with a bearer session token and
// stamps the actor onto the request context for audit trails.
func (s *Server) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		parts := strings.Fields(header)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(s.cfg.Auth.JWTSecret), nil
		}, jwt.WithTimeFunc(s.clock.Now))
		if err != nil || !token.Valid || claims.Subject == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := auditcontext.WithActor(c.Request.Context(), string(auditdomain.ActorTypeAdmin), claims.Subject)
		ctx = auditcontext.WithIPAddress(ctx, c.ClientIP())
		ctx = auditcontext.WithUserAgent(ctx, c.Request.UserAgent())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
