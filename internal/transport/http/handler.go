package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/richardliu001/ticket-service/internal/domain"
	"github.com/richardliu001/ticket-service/internal/service"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Handler adapts the use cases to gin. It holds no business logic.
type Handler struct {
	customers *service.CustomerService
	partners  *service.PartnerService
	events    *service.EventService
	tickets   *service.TicketService
	health    func(ctx context.Context) error
	log       *zap.SugaredLogger
}

// NewHandler wires the services. health may be nil.
func NewHandler(
	customers *service.CustomerService,
	partners *service.PartnerService,
	events *service.EventService,
	tickets *service.TicketService,
	health func(ctx context.Context) error,
	log *zap.SugaredLogger,
) *Handler {
	return &Handler{
		customers: customers,
		partners:  partners,
		events:    events,
		tickets:   tickets,
		health:    health,
		log:       log,
	}
}

func (h *Handler) Register(r *gin.Engine) {
	r.GET("/healthz", h.healthz)

	v1 := r.Group("/v1")
	{
		v1.POST("/customers", h.createCustomer)
		v1.GET("/customers/:id", h.getCustomer)
		v1.POST("/partners", h.createPartner)
		v1.GET("/partners/:id", h.getPartner)
		v1.POST("/events", h.createEvent)
		v1.GET("/events/:id", h.getEvent)
		v1.GET("/events/:id/availability", h.getAvailability)
		v1.POST("/events/:id/subscribe", h.subscribe)
		v1.GET("/tickets/:id", h.getTicket)
		v1.POST("/tickets/:id/pay", h.payTicket)
	}
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

type customerReq struct {
	Name  string `json:"name" binding:"required"`
	Cpf   string `json:"cpf" binding:"required"`
	Email string `json:"email" binding:"required"`
}

type customerResp struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Cpf   string `json:"cpf"`
	Email string `json:"email"`
}

func toCustomerResp(cu *domain.Customer) customerResp {
	return customerResp{ID: string(cu.ID), Name: string(cu.Name), Cpf: string(cu.Cpf), Email: string(cu.Email)}
}

func (h *Handler) createCustomer(c *gin.Context) {
	var req customerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	cu, err := h.customers.CreateCustomer(c.Request.Context(), service.CreateCustomerInput{
		Name: req.Name, Cpf: req.Cpf, Email: req.Email,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, toCustomerResp(cu))
}

func (h *Handler) getCustomer(c *gin.Context) {
	cu, err := h.customers.GetCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toCustomerResp(cu))
}

type partnerReq struct {
	Name  string `json:"name" binding:"required"`
	Cnpj  string `json:"cnpj" binding:"required"`
	Email string `json:"email" binding:"required"`
}

type partnerResp struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Cnpj  string `json:"cnpj"`
	Email string `json:"email"`
}

func toPartnerResp(p *domain.Partner) partnerResp {
	return partnerResp{ID: string(p.ID), Name: string(p.Name), Cnpj: string(p.Cnpj), Email: string(p.Email)}
}

func (h *Handler) createPartner(c *gin.Context) {
	var req partnerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	p, err := h.partners.CreatePartner(c.Request.Context(), service.CreatePartnerInput{
		Name: req.Name, Cnpj: req.Cnpj, Email: req.Email,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, toPartnerResp(p))
}

func (h *Handler) getPartner(c *gin.Context) {
	p, err := h.partners.GetPartner(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toPartnerResp(p))
}

type eventReq struct {
	Name       string `json:"name" binding:"required"`
	Date       string `json:"date" binding:"required"`
	TotalSpots int    `json:"total_spots"`
	Price      string `json:"price"`
	PartnerID  string `json:"partner_id" binding:"required"`
}

type eventResp struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Date       string `json:"date"`
	TotalSpots int    `json:"total_spots"`
	Available  int    `json:"available"`
	Price      string `json:"price"`
	PartnerID  string `json:"partner_id"`
}

func toEventResp(ev *domain.Event) eventResp {
	return eventResp{
		ID:         string(ev.ID()),
		Name:       string(ev.Name()),
		Date:       ev.DateString(),
		TotalSpots: ev.TotalSpots(),
		Available:  ev.Available(),
		Price:      ev.Price().StringFixed(2),
		PartnerID:  string(ev.PartnerID()),
	}
}

func (h *Handler) createEvent(c *gin.Context) {
	var req eventReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	price := decimal.Zero
	if req.Price != "" {
		p, err := decimal.NewFromString(req.Price)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price"})
			return
		}
		price = p
	}
	ev, err := h.events.CreateEvent(c.Request.Context(), service.CreateEventInput{
		Name: req.Name, Date: req.Date, TotalSpots: req.TotalSpots, Price: price, PartnerID: req.PartnerID,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, toEventResp(ev))
}

func (h *Handler) getEvent(c *gin.Context) {
	ev, err := h.events.GetEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toEventResp(ev))
}

func (h *Handler) getAvailability(c *gin.Context) {
	n, err := h.events.GetAvailability(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"event_id": c.Param("id"), "available": n})
}

type subscribeReq struct {
	CustomerID string `json:"customer_id" binding:"required"`
}

type reservationResp struct {
	EventID      string    `json:"event_id"`
	TicketID     string    `json:"ticket_id"`
	TicketStatus string    `json:"ticket_status"`
	ReservedAt   time.Time `json:"reserved_at"`
}

func (h *Handler) subscribe(c *gin.Context) {
	var req subscribeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	out, err := h.tickets.ReserveTicket(c.Request.Context(), c.Param("id"), req.CustomerID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, reservationResp{
		EventID:      string(out.EventID),
		TicketID:     string(out.TicketID),
		TicketStatus: string(out.TicketStatus),
		ReservedAt:   out.ReservedAt,
	})
}

type ticketResp struct {
	ID         string     `json:"id"`
	EventID    string     `json:"event_id"`
	CustomerID string     `json:"customer_id"`
	Status     string     `json:"status"`
	Price      string     `json:"price"`
	ReservedAt time.Time  `json:"reserved_at"`
	PaidAt     *time.Time `json:"paid_at,omitempty"`
}

func toTicketResp(t *domain.Ticket) ticketResp {
	return ticketResp{
		ID:         string(t.ID()),
		EventID:    string(t.EventID()),
		CustomerID: string(t.CustomerID()),
		Status:     string(t.Status()),
		Price:      t.Price().StringFixed(2),
		ReservedAt: t.ReservedAt(),
		PaidAt:     t.PaidAt(),
	}
}

func (h *Handler) getTicket(c *gin.Context) {
	t, err := h.tickets.GetTicket(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toTicketResp(t))
}

func (h *Handler) payTicket(c *gin.Context) {
	t, err := h.tickets.ConfirmPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toTicketResp(t))
}

func (h *Handler) healthz(c *gin.Context) {
	if h.health != nil {
		if err := h.health(c.Request.Context()); err != nil {
			h.log.Warnw("health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
