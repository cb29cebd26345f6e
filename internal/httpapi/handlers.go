package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abhisek/studywise/internal/llm"
	"github.com/abhisek/studywise/internal/router"
	"github.com/abhisek/studywise/internal/student"
)

// maxRouterBody caps a router action. The largest, a saved lesson, is
// compressed text well under this.
const maxRouterBody = 1 << 20

// handleRouter decodes a router action and dispatches it for the token's
// owner. Action failures are reported in the envelope with status 200.
func (s *Server) handleRouter(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxRouterBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abort(c, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		abort(c, http.StatusBadRequest, "read body: "+err.Error())
		return
	}
	req, err := router.Decode(body)
	if err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	if owner := req.Owner(); owner != "" && owner != c.GetString(uidKey) {
		abort(c, http.StatusForbidden, "forbidden: token does not own this data")
		return
	}
	c.JSON(http.StatusOK, s.cfg.Router.Serve(c.Request.Context(), req))
}

type imageBody struct {
	MIMEType string `json:"mimeType" binding:"required"`
	// Data is base64 in JSON.
	Data []byte `json:"data" binding:"required"`
}

type lessonBody struct {
	Topic string     `json:"topic" binding:"required"`
	Image *imageBody `json:"image"`
}

// handleLesson streams the tutor's explanation as server-sent events: one
// "chunk" event per piece of text, then "done", or "error" on failure.
func (s *Server) handleLesson(c *gin.Context) {
	var body lessonBody
	if !bind(c, &body) {
		return
	}
	var img *llm.InlineData
	if body.Image != nil {
		img = &llm.InlineData{MIMEType: body.Image.MIMEType, Data: body.Image.Data}
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	for chunk, err := range s.cfg.Lessons.Teach(c.Request.Context(), body.Topic, img) {
		if err != nil {
			s.logger.Warn("lesson stream failed", zap.String("topic", body.Topic), zap.Error(err))
			c.SSEvent("error", err.Error())
			c.Writer.Flush()
			return
		}
		c.SSEvent("chunk", chunk)
		c.Writer.Flush()
	}
	c.SSEvent("done", "")
	c.Writer.Flush()
}

type quizBody struct {
	Topic  string `json:"topic" binding:"required"`
	Lesson string `json:"lesson" binding:"required"`
}

func (s *Server) handleQuiz(c *gin.Context) {
	var body quizBody
	if !bind(c, &body) {
		return
	}
	quiz, err := s.cfg.Lessons.QuizFromLesson(c.Request.Context(), body.Topic, body.Lesson)
	if err != nil {
		s.generationFailed(c, "quiz", err)
		return
	}
	ok(c, quiz, "Quiz generated successfully")
}

type flashcardsBody struct {
	Topic   string `json:"topic" binding:"required"`
	Content string `json:"content"`
	Count   int    `json:"count"`
}

func (s *Server) handleFlashcards(c *gin.Context) {
	var body flashcardsBody
	if !bind(c, &body) {
		return
	}
	set, err := s.cfg.Lessons.Flashcards(c.Request.Context(), body.Topic, body.Content, body.Count)
	if err != nil {
		s.generationFailed(c, "flashcards", err)
		return
	}
	ok(c, set, "Flashcards generated successfully")
}

type courseBody struct {
	Goal  string `json:"goal" binding:"required"`
	Level string `json:"level"`
}

func (s *Server) handleCourse(c *gin.Context) {
	var body courseBody
	if !bind(c, &body) {
		return
	}
	level, valid := student.ParseLevel(body.Level)
	if !valid {
		abort(c, http.StatusBadRequest, "invalid course level "+body.Level)
		return
	}
	outline, err := s.cfg.Lessons.CourseOutline(c.Request.Context(), body.Goal, level)
	if err != nil {
		s.generationFailed(c, "course", err)
		return
	}
	ok(c, outline, "Course outline generated successfully")
}

type doubtBody struct {
	Question string `json:"question" binding:"required"`
	Topic    string `json:"topic"`
	Context  string `json:"context"`
}

func (s *Server) handleDoubt(c *gin.Context) {
	var body doubtBody
	if !bind(c, &body) {
		return
	}
	d, err := s.cfg.Lessons.SolveDoubt(c.Request.Context(), body.Question, body.Topic, body.Context)
	if err != nil {
		s.generationFailed(c, "doubt", err)
		return
	}
	ok(c, d, "Doubt solved successfully")
}

type hintsBody struct {
	Problem string `json:"problem" binding:"required"`
	Topic   string `json:"topic"`
	Level   int    `json:"level"`
}

func (s *Server) handleHints(c *gin.Context) {
	var body hintsBody
	if !bind(c, &body) {
		return
	}
	hints, err := s.cfg.Lessons.Hints(c.Request.Context(), body.Problem, body.Topic, body.Level)
	if err != nil {
		s.generationFailed(c, "hints", err)
		return
	}
	ok(c, hints, "Hints generated successfully")
}

func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		abort(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return false
	}
	return true
}

// generationFailed maps a generation error to a status: 429 when the
// provider is rate limiting, 503 when it is unreachable and 502 otherwise.
func (s *Server) generationFailed(c *gin.Context, what string, err error) {
	s.logger.Warn("generation failed", zap.String("kind", what), zap.Error(err))

	var (
		rl          *llm.ErrRateLimit
		unavailable *llm.ErrProviderUnavailable
	)
	status := http.StatusBadGateway
	switch {
	case errors.As(err, &rl):
		status = http.StatusTooManyRequests
	case errors.As(err, &unavailable):
		status = http.StatusServiceUnavailable
	}
	abort(c, status, err.Error())
}
