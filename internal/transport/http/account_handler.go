package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"learnhub-service/internal/app"
	"learnhub-service/internal/domain"
)

type tokenResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      domain.User `json:"user"`
}

func (a *API) issue(c *gin.Context, status int, user domain.User) {
	token, claims, err := a.tokens.Issue(user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, tokenResponse{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: user})
}

func (a *API) register(c *gin.Context) {
	var in app.RegisterInput
	if !bindJSON(c, &in) {
		return
	}
	user, err := a.Accounts.Register(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	a.issue(c, http.StatusCreated, user)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (a *API) login(c *gin.Context) {
	var in loginRequest
	if !bindJSON(c, &in) {
		return
	}
	user, err := a.Accounts.Login(c.Request.Context(), in.Username, in.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	a.issue(c, http.StatusOK, user)
}

func (a *API) profile(c *gin.Context) {
	page, err := a.Accounts.Profile(c.Request.Context(), principal(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (a *API) subscriptionRequired(c *gin.Context) {
	page, err := a.Subscriptions.Required(c.Request.Context(), principal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (a *API) upgrade(c *gin.Context) {
	res, err := a.Subscriptions.Upgrade(c.Request.Context(), principal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
