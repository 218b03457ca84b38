package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/handmade_market/internal/hash"
	"github.com/Skotchmaster/handmade_market/internal/models"
	"github.com/Skotchmaster/handmade_market/internal/mykafka"
	"github.com/Skotchmaster/handmade_market/internal/service"
)

const minPasswordLen = 6

type AuthHandler struct {
	DB            *gorm.DB
	JWTSecret     []byte
	RefreshSecret []byte
	Producer      *mykafka.Producer
}

type registerRequest struct {
	Username        string `json:"username" form:"username"`
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
	FirstName       string `json:"first_name" form:"first_name"`
	LastName        string `json:"last_name" form:"last_name"`
	Phone           string `json:"phone" form:"phone"`
}

// Register creates an account. Taken usernames/emails, a confirmation
// mismatch or a short password are rejected before anything is written.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if req.Username == "" || req.Email == "" || req.Password == "" || req.ConfirmPassword == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "please fill in all required fields")
	}
	if req.Password != req.ConfirmPassword {
		return echo.NewHTTPError(http.StatusBadRequest, "passwords do not match")
	}
	if len(req.Password) < minPasswordLen {
		return echo.NewHTTPError(http.StatusBadRequest, "password must be at least 6 characters long")
	}

	var existing models.User
	if err := h.DB.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return echo.NewHTTPError(http.StatusConflict, "email address already registered")
	} else if !isNotFound(err) {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	if err := h.DB.Where("username = ?", req.Username).First(&existing).Error; err == nil {
		return echo.NewHTTPError(http.StatusConflict, "username already taken")
	} else if !isNotFound(err) {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	passwordHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		if isDuplicateKey(err) {
			return echo.NewHTTPError(http.StatusConflict, "username or email already taken")
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	publish(c, h.Producer, "user_events", map[string]any{
		"type":     "user_registered",
		"userID":   user.ID,
		"username": user.Username,
	})

	return c.JSON(http.StatusCreated, user)
}

// Login authenticates by email and sets the JWT cookie pair. A missing
// account and a wrong password produce the same response.
func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email" form:"email"`
		Password string `json:"password" form:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "please fill in all fields")
	}

	var user models.User
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	}

	accessToken, err := service.SignAccessToken(user.ID, h.JWTSecret)
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	refreshToken, err := service.SignRefreshToken(user.ID, h.RefreshSecret)
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	if err := service.SaveRefreshToken(h.DB, refreshToken, user.ID); err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	c.SetCookie(service.CreateCookie(service.AccessCookie, accessToken, "/", time.Now().Add(service.AccessTokenTTL)))
	c.SetCookie(service.CreateCookie(service.RefreshCookie, refreshToken, "/", time.Now().Add(service.RefreshTokenTTL)))

	publish(c, h.Producer, "user_events", map[string]any{
		"type":   "user_logged_in",
		"userID": user.ID,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Welcome back, " + user.FullName() + "!",
		"user":    user,
	})
}

// Logout revokes the refresh token and expires both cookies.
func (h *AuthHandler) Logout(c echo.Context) error {
	if ck, err := c.Cookie(service.RefreshCookie); err == nil {
		if err := h.DB.Model(&models.RefreshToken{}).
			Where("token = ?", ck.Value).
			Update("revoked", true).Error; err != nil {
			c.Logger().Errorf("refresh token revoke error: %v", err)
		}
	}

	expired := time.Now().Add(-time.Hour)
	c.SetCookie(service.CreateCookie(service.AccessCookie, "", "/", expired))
	c.SetCookie(service.CreateCookie(service.RefreshCookie, "", "/", expired))
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// Profile returns the authenticated user.
func (h *AuthHandler) Profile(c echo.Context) error {
	userID, err := service.UserID(c)
	if err != nil {
		return err
	}
	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateProfile edits name and phone.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	userID, err := service.UserID(c)
	if err != nil {
		return err
	}
	var req struct {
		FirstName string `json:"first_name" form:"first_name"`
		LastName  string `json:"last_name" form:"last_name"`
		Phone     string `json:"phone" form:"phone"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.Phone = req.Phone
	if err := h.DB.Save(&user).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, user)
}

// ChangePassword re-verifies the current password before accepting a new
// one, which must pass the same rules as registration.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	userID, err := service.UserID(c)
	if err != nil {
		return err
	}
	var req struct {
		CurrentPassword string `json:"current_password" form:"current_password"`
		NewPassword     string `json:"new_password" form:"new_password"`
		ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	if req.CurrentPassword == "" || !hash.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		return echo.NewHTTPError(http.StatusUnauthorized, "current password is incorrect")
	}
	if req.NewPassword != req.ConfirmPassword {
		return echo.NewHTTPError(http.StatusBadRequest, "new passwords do not match")
	}
	if len(req.NewPassword) < minPasswordLen {
		return echo.NewHTTPError(http.StatusBadRequest, "password must be at least 6 characters long")
	}

	passwordHash, err := hash.HashPassword(req.NewPassword)
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	if err := h.DB.Model(&user).Update("password_hash", passwordHash).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}
