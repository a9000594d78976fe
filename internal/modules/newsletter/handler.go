package newsletter

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/scene-ouverte/newsletter-core/internal/models"
	"github.com/scene-ouverte/newsletter-core/internal/pkg/pagination"
	"github.com/scene-ouverte/newsletter-core/internal/pkg/response"
	"go.uber.org/zap"
)

type SubscribeDTO struct {
	Email     string `json:"email"      binding:"required,email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type UnsubscribeDTO struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

// Handler exposes the newsletter core over HTTP: the public signup and
// unsubscribe endpoints, and the admin import/send/list surface.
type Handler struct {
	svc      *Service
	importer *Importer
	engine   *Engine
	log      *zap.Logger
}

func NewHandler(svc *Service, importer *Importer, engine *Engine, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, importer: importer, engine: engine, log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/newsletter")

	// Public surface
	g.POST("/subscribe", h.subscribe)
	g.GET("/unsubscribe", h.unsubscribeByQuery) // ?token=...
	g.POST("/unsubscribe", h.unsubscribeByBody)

	// Admin surface
	g.GET("/subscribers", authMW, h.list)
	g.POST("/subscribers", authMW, h.create)
	g.DELETE("/subscribers/:id", authMW, h.remove)
	g.POST("/subscribers/:id/reactivate", authMW, h.reactivate)
	g.GET("/stats", authMW, h.stats)
	g.POST("/import", authMW, h.importFile)
	g.POST("/send", authMW, h.send)
}

// subscribe is the site-form signup.
func (h *Handler) subscribe(c *gin.Context) {
	var dto SubscribeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	sub, err := h.svc.Subscribe(dto.Email, dto.FirstName, dto.LastName, "site")
	if err != nil {
		h.renderSubscribeError(c, err)
		return
	}
	response.Created(c, gin.H{"email": sub.Email})
}

// create is the admin variant of subscribe.
func (h *Handler) create(c *gin.Context) {
	var dto SubscribeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	sub, err := h.svc.Subscribe(dto.Email, dto.FirstName, dto.LastName, "admin")
	if err != nil {
		h.renderSubscribeError(c, err)
		return
	}
	response.Created(c, sub)
}

func (h *Handler) renderSubscribeError(c *gin.Context, err error) {
	var vErr *ValidationError
	switch {
	case errors.Is(err, ErrDuplicate):
		response.Conflict(c, "this email is already subscribed")
	case errors.As(err, &vErr):
		response.BadRequest(c, vErr.Msg)
	default:
		response.InternalError(c, err)
	}
}

func (h *Handler) unsubscribeByQuery(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.BadRequest(c, "missing token")
		return
	}
	h.renderUnsubscribe(c)(h.svc.UnsubscribeByToken(token))
}

func (h *Handler) unsubscribeByBody(c *gin.Context) {
	var dto UnsubscribeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	render := h.renderUnsubscribe(c)
	switch {
	case dto.Token != "":
		render(h.svc.UnsubscribeByToken(dto.Token))
	case dto.Email != "":
		render(h.svc.UnsubscribeByEmail(dto.Email))
	default:
		response.BadRequest(c, "missing token or email")
	}
}

func (h *Handler) renderUnsubscribe(c *gin.Context) func(*UnsubscribeResult, error) {
	return func(res *UnsubscribeResult, err error) {
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				response.NotFoundMsg(c, "subscriber not found")
				return
			}
			response.InternalError(c, err)
			return
		}
		msg := "you have been unsubscribed"
		if res.Already {
			msg = "you were already unsubscribed"
		}
		response.OK(c, gin.H{"success": true, "message": msg, "email": res.Email})
	}
}

func (h *Handler) list(c *gin.Context) {
	status := models.SubscriberStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		response.BadRequest(c, "unknown status filter")
		return
	}
	q := pagination.FromContext(c)
	subs, p, err := h.svc.Store().List(status, q)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, subs, p)
}

func (h *Handler) remove(c *gin.Context) {
	err := h.svc.Store().Delete(c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFoundMsg(c, "subscriber not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) reactivate(c *gin.Context) {
	sub, err := h.svc.Reactivate(c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFoundMsg(c, "subscriber not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, sub)
}

func (h *Handler) stats(c *gin.Context) {
	stats, err := h.svc.Stats()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, stats)
}

func (h *Handler) importFile(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing file upload")
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	defer f.Close()

	result, err := h.importer.ImportFile(fileHeader.Filename, f)
	if err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			response.BadRequest(c, vErr.Msg)
			return
		}
		response.InternalError(c, err)
		return
	}
	h.log.Info("import completed",
		zap.String("file", fileHeader.Filename),
		zap.Int("total", result.Total),
		zap.Int("imported", result.Imported),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("invalid", result.Invalid),
		zap.Int("errors", len(result.Errors)),
	)
	response.OK(c, result)
}

func (h *Handler) send(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	report, err := h.engine.Send(c.Request.Context(), req)
	if err != nil {
		var vErr *ValidationError
		switch {
		case errors.As(err, &vErr):
			response.BadRequest(c, vErr.Msg)
		case errors.Is(err, ErrMailerNotConfigured):
			response.UnprocessableEntity(c, err.Error())
		case errors.Is(err, ErrNoActiveRecipients):
			response.UnprocessableEntity(c, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}

	if req.TestEmail != "" {
		success := report.Failed == 0
		msg := "test email sent to " + req.TestEmail
		if !success {
			msg = "test email failed: " + report.Errors[0].Error
		}
		response.OK(c, gin.H{"success": success, "message": msg})
		return
	}
	response.OK(c, report)
}
