package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"learnhub-service/internal/app"
	"learnhub-service/internal/domain"
)

func (a *API) listArticles(c *gin.Context) {
	articles, err := a.Articles.List(c.Request.Context(), principal(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, articles)
}

func (a *API) articleDetail(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	article, decision, err := a.Articles.Detail(c.Request.Context(), principal(c), id)
	respondGated(c, http.StatusOK, decision, err, article)
}

func (a *API) createArticle(c *gin.Context) {
	var in domain.Article
	if !bindJSON(c, &in) {
		return
	}
	in.AuthorID = principal(c).UserID
	article, err := a.Articles.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, article)
}

func (a *API) listPosts(c *gin.Context) {
	posts, err := a.Blog.List(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (a *API) getPost(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	post, err := a.Blog.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (a *API) createPost(c *gin.Context) {
	var in app.PostInput
	if !bindJSON(c, &in) {
		return
	}
	post, err := a.Blog.Create(c.Request.Context(), principal(c).UserID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (a *API) updatePost(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in app.PostInput
	if !bindJSON(c, &in) {
		return
	}
	post, err := a.Blog.Update(c.Request.Context(), principal(c).UserID, id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (a *API) listThreads(c *gin.Context) {
	threads, err := a.Forum.Threads(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, threads)
}

type threadRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (a *API) createThread(c *gin.Context) {
	var in threadRequest
	if !bindJSON(c, &in) {
		return
	}
	thread, err := a.Forum.CreateThread(c.Request.Context(), principal(c).UserID, in.Title, in.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, thread)
}

func (a *API) threadDetail(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	page, err := a.Forum.Thread(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

type commentRequest struct {
	Content string `json:"content"`
}

func (a *API) addComment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in commentRequest
	if !bindJSON(c, &in) {
		return
	}
	comment, err := a.Forum.Comment(c.Request.Context(), id, principal(c).UserID, in.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (a *API) myBadges(c *gin.Context) {
	badges, err := a.Badges.ForUser(c.Request.Context(), principal(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, badges)
}

// createBadge takes multipart form fields name and description plus an
// optional image file.
func (a *API) createBadge(c *gin.Context) {
	var img *app.BadgeImage
	if fh, err := c.FormFile("image"); err == nil {
		f, err := fh.Open()
		if err != nil {
			abortWith(c, http.StatusBadRequest, "bad_request", "unreadable image")
			return
		}
		defer f.Close()
		img = &app.BadgeImage{
			Body:        f,
			Size:        fh.Size,
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
		}
	}
	badge, err := a.Badges.Create(c.Request.Context(), c.PostForm("name"), c.PostForm("description"), img)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, badge)
}

type awardRequest struct {
	UserID int64 `json:"userId"`
}

func (a *API) awardBadge(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in awardRequest
	if !bindJSON(c, &in) {
		return
	}
	if in.UserID <= 0 {
		abortWith(c, http.StatusBadRequest, "bad_request", "invalid userId "+strconv.FormatInt(in.UserID, 10))
		return
	}
	ub, err := a.Badges.Award(c.Request.Context(), id, in.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ub)
}
