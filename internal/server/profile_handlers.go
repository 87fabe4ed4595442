package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"healthdaily/internal/profile"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SignupHandler registers a new account and returns a session token.
func (s *Server) SignupHandler(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	p, err := profile.Register(c.Request().Context(), s.profiles, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, profile.ErrUsernameTaken) {
			return c.JSON(http.StatusConflict, map[string]string{"error": "username already taken"})
		}
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	token, err := profile.IssueToken(s.secret, p.ID)
	if err != nil {
		log.Error().Err(err).Msg("issuing token after signup")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not issue token"})
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"token": token, "profile": p})
}

// LoginHandler verifies credentials and returns a session token.
func (s *Server) LoginHandler(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	p, err := profile.Authenticate(c.Request().Context(), s.profiles, req.Username, req.Password)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
	}
	token, err := profile.IssueToken(s.secret, p.ID)
	if err != nil {
		log.Error().Err(err).Msg("issuing token after login")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not issue token"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"token": token, "profile": p})
}

// GetProfileHandler returns the authenticated user's profile.
func (s *Server) GetProfileHandler(c echo.Context) error {
	userID, err := profile.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
	}
	p, err := s.profiles.GetByID(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "profile not found"})
		}
		log.Error().Err(err).Msg("loading profile")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not load profile"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"profile": p, "bmi": p.BMI()})
}

type profileUpdateRequest struct {
	Nickname        *string   `json:"nickname"`
	HeightCm        *float64  `json:"height_cm"`
	WeightKg        *float64  `json:"weight_kg"`
	Age             *int      `json:"age"`
	Gender          *string   `json:"gender"`
	Goal            *string   `json:"goal"`
	Preferences     *[]string `json:"preferences"`
	Allergens       *[]string `json:"allergens"`
	HydrationTarget *int      `json:"hydration_target"`
}

// UpdateProfileHandler patches body-metric fields on the profile. Absent
// fields are left untouched.
func (s *Server) UpdateProfileHandler(c echo.Context) error {
	userID, err := profile.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
	}
	var req profileUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	ctx := c.Request().Context()
	p, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "profile not found"})
		}
		log.Error().Err(err).Msg("loading profile for update")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not load profile"})
	}
	if req.Nickname != nil {
		p.Nickname = *req.Nickname
	}
	if req.HeightCm != nil {
		p.HeightCm = *req.HeightCm
	}
	if req.WeightKg != nil {
		p.WeightKg = *req.WeightKg
	}
	if req.Age != nil {
		p.Age = *req.Age
	}
	if req.Gender != nil {
		p.Gender = *req.Gender
	}
	if req.Goal != nil {
		p.Goal = *req.Goal
	}
	if req.Preferences != nil {
		p.Preferences = *req.Preferences
	}
	if req.Allergens != nil {
		p.Allergens = *req.Allergens
	}
	if req.HydrationTarget != nil {
		p.HydrationTarget = *req.HydrationTarget
	}
	if err := s.profiles.Update(ctx, p); err != nil {
		log.Error().Err(err).Msg("updating profile")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not update profile"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"profile": p, "bmi": p.BMI()})
}

// DeleteProfileHandler removes the authenticated user's account.
func (s *Server) DeleteProfileHandler(c echo.Context) error {
	userID, err := profile.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
	}
	if err := s.profiles.Delete(c.Request().Context(), userID); err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "profile not found"})
		}
		log.Error().Err(err).Msg("deleting profile")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not delete profile"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "account deleted"})
}
