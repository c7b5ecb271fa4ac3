package api

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/katakuxiko/safety-chat/internal/chat"
	"github.com/katakuxiko/safety-chat/internal/model"
	"github.com/katakuxiko/safety-chat/internal/store"
)

const (
	sessionCookie = "chat_session"
	viewKey       = "chat_view"
)

//go:embed templates/chat.html
var templatesFS embed.FS

var chatPage = template.Must(template.ParseFS(templatesFS, "templates/chat.html"))

// HealthChecker reports the state of the RAG backend.
type HealthChecker interface {
	Health(ctx context.Context) (*model.BackendHealth, error)
}

// Handler holds the dependencies of the HTTP handlers.
type Handler struct {
	sessions *store.Sessions
	backend  HealthChecker
	logger   *slog.Logger
}

func NewHandler(sessions *store.Sessions, backend HealthChecker, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{sessions: sessions, backend: backend, logger: logger}
}

// stateResponse is the view state as rendered by the page and the JSON API.
type stateResponse struct {
	Question     string             `json:"question"`
	Loading      bool               `json:"loading"`
	ErrorMessage string             `json:"error_message"`
	Response     *model.AskResponse `json:"response"`
}

func toStateResponse(st chat.State) stateResponse {
	out := stateResponse{
		Question:     st.Question,
		Loading:      st.Loading,
		ErrorMessage: st.ErrorMessage,
	}
	if res, ok := st.Response.Get(); ok {
		out.Response = &res
	}
	return out
}

// Session attaches the caller's chat view, starting a session when needed.
func (h *Handler) Session(c *fiber.Ctx) error {
	v, ok := h.sessions.Get(c.Cookies(sessionCookie))
	if !ok {
		var id string
		id, v = h.sessions.Create()
		c.Cookie(&fiber.Cookie{
			Name:     sessionCookie,
			Value:    id,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
	c.Locals(viewKey, v)
	return c.Next()
}

func viewOf(c *fiber.Ctx) *chat.View {
	return c.Locals(viewKey).(*chat.View)
}

// Health is the liveness probe of this server.
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.SendString("ok")
}

// BackendHealth proxies GET /health of the RAG backend.
func (h *Handler) BackendHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	res, err := h.backend.Health(ctx)
	if err != nil {
		h.logger.Warn("backend health", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "backend unavailable"})
	}
	return c.JSON(res)
}

// Page renders the chat form with the current state.
func (h *Handler) Page(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := chatPage.Execute(&buf, toStateResponse(viewOf(c).State())); err != nil {
		h.logger.Error("render chat page", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("failed to render page")
	}
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

// SubmitForm handles the HTML form and sends the browser back to the page.
func (h *Handler) SubmitForm(c *fiber.Ctx) error {
	v := viewOf(c)
	v.SetQuestion(c.FormValue("question"))
	v.Submit(c.UserContext())
	return c.Redirect("/", fiber.StatusSeeOther)
}

// State returns the view state as JSON.
func (h *Handler) State(c *fiber.Ctx) error {
	return c.JSON(toStateResponse(viewOf(c).State()))
}

type askBody struct {
	Question string `json:"question"`
}

// Ask is the JSON counterpart of SubmitForm: 202 when a request went out,
// 200 when the question was blank and nothing happened.
func (h *Handler) Ask(c *fiber.Ctx) error {
	var body askBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request, expected JSON: {\"question\":\"...\"}"})
	}

	v := viewOf(c)
	v.SetQuestion(body.Question)
	status := fiber.StatusOK
	if v.Submit(c.UserContext()) != nil {
		status = fiber.StatusAccepted
	}
	return c.Status(status).JSON(toStateResponse(v.State()))
}

// Home sends unknown paths back to the chat page.
func (h *Handler) Home(c *fiber.Ctx) error {
	return c.Redirect("/", fiber.StatusFound)
}
