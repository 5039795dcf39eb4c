package rest

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/herdline/herdline"
	"github.com/herdline/herdline/internal/config"
	"github.com/herdline/herdline/internal/domain"
	"github.com/herdline/herdline/internal/present/rest/presenter"
	"github.com/herdline/herdline/internal/service"
	"github.com/herdline/herdline/internal/usecase"
)

type Handler struct {
	config     config.Config
	feed       *usecase.FeedUsecase
	projector  *usecase.Projector
	acceptance *usecase.AcceptanceUsecase
	store      usecase.ReportStore
	resolver   usecase.AddressResolver
	signal     *service.SignalService
}

func NewHandler(
	config config.Config,
	feed *usecase.FeedUsecase,
	projector *usecase.Projector,
	acceptance *usecase.AcceptanceUsecase,
	store usecase.ReportStore,
	resolver usecase.AddressResolver,
	signal *service.SignalService,
) *Handler {
	return &Handler{
		config:     config,
		feed:       feed,
		projector:  projector,
		acceptance: acceptance,
		store:      store,
		resolver:   resolver,
		signal:     signal,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/v1/feed", h.handleFeed)
	e.GET("/api/v1/reports/:kind", h.handleList)
	e.POST("/api/v1/reports/:kind", h.handleCreate)
	e.GET("/api/v1/reports/:kind/:id", h.handleGet)
	e.POST("/api/v1/reports/:kind/:id/accept", h.handleAccept)
	e.POST("/api/v1/reports/:kind/:id/unaccept", h.handleUnaccept)
	e.GET("/realtime", h.handleRealtime)
	e.GET("/health", h.handleHealth)
}

// feedEntry is one rendered feed row: the raw report plus its display
// projection.
type feedEntry struct {
	Type       herdline.Kind           `json:"type"`
	Data       domain.Report           `json:"data"`
	Projection usecase.FieldProjection `json:"projection"`
	Status     string                  `json:"status"`
}

func (h *Handler) handleFeed(c echo.Context) error {
	if !h.feed.Ready() {
		if err := h.feed.Err(); err != nil {
			return presenter.Unavailable(c, fmt.Sprintf("feed unavailable: %v", err))
		}
		return presenter.Unavailable(c, "feed is still loading")
	}

	ordered := h.projector.OrderedView(h.feed.Snapshot())

	entries := make([]feedEntry, 0, len(ordered))
	for _, item := range ordered {
		entries = append(entries, h.renderItem(item))
	}
	return presenter.OK(c, entries)
}

func (h *Handler) handleList(c echo.Context) error {
	ctx := c.Request().Context()

	kind, err := herdline.ParseKind(c.Param("kind"))
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	reports, err := h.store.List(ctx, kind)
	if err != nil {
		return presenter.InternalError(c, err)
	}

	entries := make([]feedEntry, 0, len(reports))
	for _, report := range reports {
		entries = append(entries, h.renderItem(domain.FeedItem{Kind: kind, Report: report}))
	}
	return presenter.OK(c, entries)
}

type reportDetail struct {
	feedEntry
	Address string `json:"address,omitempty"`
}

func (h *Handler) handleGet(c echo.Context) error {
	ctx := c.Request().Context()

	kind, err := herdline.ParseKind(c.Param("kind"))
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	report, err := h.store.Get(ctx, kind, c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return presenter.NotFound(c, "report not found")
		}
		return presenter.InternalError(c, err)
	}

	detail := reportDetail{
		feedEntry: h.renderItem(domain.FeedItem{Kind: kind, Report: report}),
		Address:   h.resolveAddress(c, report),
	}
	return presenter.OK(c, detail)
}

// resolveAddress fills in a display address for reports submitted without
// one. Resolution is best effort; a failed lookup leaves the field empty.
func (h *Handler) resolveAddress(c echo.Context, report domain.Report) string {
	if report.ManualAddress != nil && *report.ManualAddress != "" {
		return *report.ManualAddress
	}
	if h.resolver == nil || report.Location == nil {
		return ""
	}

	coords, err := herdline.ParseLocation(*report.Location)
	if err != nil || coords == nil {
		return ""
	}

	address, err := h.resolver.ResolveAddress(c.Request().Context(), *coords)
	if err != nil {
		slog.Debug(
			"address resolution failed",
			slog.String("id", report.ID),
			slog.String("error", err.Error()),
			slog.String("module", "rest"),
		)
		return ""
	}
	return address
}

type createReportRequest struct {
	Location      *string        `json:"location"`
	ManualAddress *string        `json:"manualAddress"`
	Fields        map[string]any `json:"fields"`
}

func (h *Handler) handleCreate(c echo.Context) error {
	ctx := c.Request().Context()

	kind, err := herdline.ParseKind(c.Param("kind"))
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	var req createReportRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	report := domain.Report{
		Kind:          kind,
		ManualAddress: req.ManualAddress,
		Fields:        req.Fields,
	}

	if requester, ok := ctx.Value(domain.RequesterIdCtxKey).(string); ok {
		report.Owner = requester
	}

	// Stored locations are normalized to the structured encoding whatever
	// form the client sent.
	if req.Location != nil && *req.Location != "" {
		coords, err := herdline.ParseLocation(*req.Location)
		if err != nil {
			return presenter.BadRequestMessage(c, "invalid location")
		}
		encoded := herdline.EncodeLocation(*coords)
		report.Location = &encoded
	}

	created, err := h.store.Create(ctx, kind, report)
	if err != nil {
		return presenter.InternalError(c, err)
	}

	h.feed.Apply(domain.FeedItem{Kind: kind, Report: created})

	return presenter.Created(c, h.renderItem(domain.FeedItem{Kind: kind, Report: created}))
}

func (h *Handler) handleAccept(c echo.Context) error {
	return h.handleAcceptance(c, true)
}

func (h *Handler) handleUnaccept(c echo.Context) error {
	return h.handleAcceptance(c, false)
}

func (h *Handler) handleAcceptance(c echo.Context, accepted bool) error {
	ctx := c.Request().Context()

	kind, err := herdline.ParseKind(c.Param("kind"))
	if err != nil {
		return presenter.BadRequest(c, err)
	}
	id := c.Param("id")

	var report domain.Report
	if accepted {
		report, err = h.acceptance.Accept(ctx, kind, id)
	} else {
		report, err = h.acceptance.Unaccept(ctx, kind, id)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return presenter.NotFound(c, "report not found")
		}
		if errors.Is(err, domain.ErrUpdateInFlight) {
			return presenter.Conflict(c, "update already in progress")
		}
		return presenter.InternalError(c, err)
	}

	return presenter.OK(c, h.renderItem(domain.FeedItem{Kind: kind, Report: report}))
}

func (h *Handler) renderItem(item domain.FeedItem) feedEntry {
	return feedEntry{
		Type:       item.Kind,
		Data:       item.Report,
		Projection: h.projector.FieldProjection(item),
		Status:     item.Report.Status(),
	}
}

func (h *Handler) handleHealth(c echo.Context) error {
	status := "ok"
	if !h.feed.Ready() {
		status = "loading"
	}
	return presenter.OK(c, echo.Map{"status": status})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type realtimeRequest struct {
	Type  string   `json:"type"`
	Kinds []string `json:"kinds"`
}

func (h *Handler) handleRealtime(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer func() {
		ws.Close()
	}()

	ctx := c.Request().Context()

	input := make(chan []herdline.Kind)
	defer close(input)
	output := make(chan herdline.Event)
	defer close(output)

	go h.signal.Realtime(ctx, input, output)

	quit := make(chan struct{})

	go func() {
		for {
			var req realtimeRequest
			err := ws.ReadJSON(&req)
			if err != nil {

				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				} else {
					slog.ErrorContext(
						ctx, "Error reading message",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}

				quit <- struct{}{}
				break
			}

			switch req.Type {
			case "listen":
				kinds := make([]herdline.Kind, 0, len(req.Kinds))
				for _, raw := range req.Kinds {
					kind, err := herdline.ParseKind(raw)
					if err != nil {
						continue
					}
					kinds = append(kinds, kind)
				}
				input <- kinds
				slog.DebugContext(
					ctx, fmt.Sprintf("Socket subscribe: %s", req.Kinds),
					slog.String("module", "socket"),
				)
			case "h": // heartbeat
				// do nothing
			default:
				slog.InfoContext(
					ctx, "Unknown request type",
					slog.String("type", req.Type),
					slog.String("module", "socket"),
				)
			}
		}
	}()

	for {
		select {
		case <-quit:
			return nil
		case event := <-output:
			err := ws.WriteJSON(event)
			if err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}
