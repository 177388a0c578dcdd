package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"learnhub-service/internal/domain"
)

func (a *API) listCourses(c *gin.Context) {
	catalog, err := a.Courses.List(c.Request.Context(), principal(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, catalog)
}

func (a *API) searchCourses(c *gin.Context) {
	q := c.Query("q")
	results, err := a.Courses.Search(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": q, "results": results})
}

func (a *API) courseDetail(c *gin.Context) {
	detail, decision, err := a.Courses.Detail(c.Request.Context(), principal(c), c.Param("slug"))
	respondGated(c, http.StatusOK, decision, err, detail)
}

func (a *API) enroll(c *gin.Context) {
	enrollment, decision, err := a.Courses.Enroll(c.Request.Context(), principal(c), c.Param("slug"))
	respondGated(c, http.StatusOK, decision, err, enrollment)
}

func (a *API) advance(c *gin.Context) {
	progress, decision, err := a.Courses.Advance(c.Request.Context(), principal(c), c.Param("slug"))
	respondGated(c, http.StatusOK, decision, err, progress)
}

func (a *API) viewQuiz(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	view, decision, err := a.Quizzes.View(c.Request.Context(), principal(c), id)
	respondGated(c, http.StatusOK, decision, err, view)
}

type submitRequest struct {
	Answers map[string]json.RawMessage `json:"answers"`
}

// submissions keeps only well-formed question/answer id pairs; anything else
// is dropped and grades as a wrong answer.
func (r submitRequest) submissions() map[int64]int64 {
	out := make(map[int64]int64, len(r.Answers))
	for k, raw := range r.Answers {
		qID, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			continue
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			var s string
			if json.Unmarshal(raw, &s) != nil {
				continue
			}
			n = json.Number(s)
		}
		aID, err := n.Int64()
		if err != nil {
			continue
		}
		out[qID] = aID
	}
	return out
}

func (a *API) submitQuiz(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req submitRequest
	// A missing or malformed body is an attempt with no answers.
	_ = c.ShouldBindJSON(&req)

	result, decision, err := a.Quizzes.Submit(c.Request.Context(), principal(c), id, req.submissions())
	respondGated(c, http.StatusOK, decision, err, result)
}

func (a *API) leaderboard(c *gin.Context) {
	lb, err := a.Leaderboard.Top(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lb)
}

type categoryRequest struct {
	Name string `json:"name"`
}

func (a *API) createCategory(c *gin.Context) {
	var in categoryRequest
	if !bindJSON(c, &in) {
		return
	}
	cat, err := a.Courses.CreateCategory(c.Request.Context(), in.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (a *API) createCourse(c *gin.Context) {
	var in domain.Course
	if !bindJSON(c, &in) {
		return
	}
	course, err := a.Courses.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, course)
}

func (a *API) createQuiz(c *gin.Context) {
	var in domain.Quiz
	if !bindJSON(c, &in) {
		return
	}
	quiz, err := a.Quizzes.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, quiz)
}
