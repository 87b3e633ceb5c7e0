package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/inesdata/dataspace-tools/internal/exchange/http/dto"
	exchangeUseCase "github.com/inesdata/dataspace-tools/internal/exchange/usecase"
	"github.com/inesdata/dataspace-tools/internal/httputil"
	"github.com/inesdata/dataspace-tools/internal/imaging"
	customValidation "github.com/inesdata/dataspace-tools/internal/validation"
)

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

// ExchangeHandler handles the browser actions on catalog datasets.
type ExchangeHandler struct {
	useCase exchangeUseCase.ExchangeUseCase
	cookie  CookieConfig
	logger  *slog.Logger
}

// NewExchangeHandler creates a new exchange handler.
func NewExchangeHandler(
	useCase exchangeUseCase.ExchangeUseCase,
	cookie CookieConfig,
	logger *slog.Logger,
) *ExchangeHandler {
	return &ExchangeHandler{
		useCase: useCase,
		cookie:  cookie,
		logger:  logger,
	}
}

// CookieName returns the session cookie name, for SessionMiddleware.
func (h *ExchangeHandler) CookieName() string {
	return h.cookie.Name
}

func (h *ExchangeHandler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, value, maxAge, "/", "", h.cookie.Secure, true)
}

// LoginHandler signs the user in and sets the session cookie.
// POST /v1/login
func (h *ExchangeHandler) LoginHandler(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	session, err := h.useCase.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.setSessionCookie(c, session.ID, int(h.cookie.TTL.Seconds()))
	c.JSON(http.StatusOK, dto.MapSessionToLoginResponse(session))
}

// LogoutHandler terminates active transfers, drops the session and clears the cookie.
// POST /v1/logout
func (h *ExchangeHandler) LogoutHandler(c *gin.Context) {
	if sessionID, err := c.Cookie(h.cookie.Name); err == nil && sessionID != "" {
		if err := h.useCase.Logout(c.Request.Context(), sessionID); err != nil {
			httputil.HandleErrorGin(c, err, h.logger)
			return
		}
	}

	h.setSessionCookie(c, "", -1)
	c.Status(http.StatusNoContent)
}

// CatalogHandler returns a page of the catalog snapshot.
// GET /v1/catalog?refresh=true&offset=0&limit=50
func (h *ExchangeHandler) CatalogHandler(c *gin.Context) {
	refresh, err := strconv.ParseBool(c.DefaultQuery("refresh", "false"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid refresh parameter: must be a boolean"), h.logger)
		return
	}
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	datasets, err := h.useCase.Catalog(c.Request.Context(), sessionID(c), refresh)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	start, end := httputil.Page(len(datasets), offset, limit)
	c.JSON(http.StatusOK, dto.CatalogResponse{
		Data:   datasets[start:end],
		Total:  len(datasets),
		Offset: offset,
		Limit:  limit,
	})
}

// NegotiateHandler starts a contract negotiation for a dataset offer.
// POST /v1/datasets/:id/negotiations
func (h *ExchangeHandler) NegotiateHandler(c *gin.Context) {
	negotiation, err := h.useCase.Negotiate(c.Request.Context(), sessionID(c), c.Param("id"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	c.JSON(http.StatusCreated, dto.MapNegotiationToResponse(negotiation))
}

// GetNegotiationHandler refreshes and returns the negotiation state.
// GET /v1/datasets/:id/negotiation
func (h *ExchangeHandler) GetNegotiationHandler(c *gin.Context) {
	negotiation, err := h.useCase.CheckNegotiation(c.Request.Context(), sessionID(c), c.Param("id"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, dto.MapNegotiationToResponse(negotiation))
}

// StartTransferHandler starts a transfer under the negotiated agreement.
// POST /v1/datasets/:id/transfers
func (h *ExchangeHandler) StartTransferHandler(c *gin.Context) {
	transfer, err := h.useCase.StartTransfer(c.Request.Context(), sessionID(c), c.Param("id"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	c.JSON(http.StatusCreated, dto.MapTransferToResponse(transfer))
}

// GetTransferHandler refreshes and returns the transfer state.
// GET /v1/datasets/:id/transfer
func (h *ExchangeHandler) GetTransferHandler(c *gin.Context) {
	transfer, err := h.useCase.CheckTransfer(c.Request.Context(), sessionID(c), c.Param("id"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, dto.MapTransferToResponse(transfer))
}

// TerminateTransferHandler stops an active transfer.
// POST /v1/datasets/:id/transfer/terminate
func (h *ExchangeHandler) TerminateTransferHandler(c *gin.Context) {
	transfer, err := h.useCase.TerminateTransfer(c.Request.Context(), sessionID(c), c.Param("id"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, dto.MapTransferToResponse(transfer))
}

// DownloadHandler pulls the dataset through the transfer EDR.
// POST /v1/datasets/:id/download
func (h *ExchangeHandler) DownloadHandler(c *gin.Context) {
	transfer, err := h.useCase.Download(c.Request.Context(), sessionID(c), c.Param("id"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, dto.MapTransferToResponse(transfer))
}

// DataHandler serves the downloaded bytes as an attachment.
// GET /v1/datasets/:id/data
func (h *ExchangeHandler) DataHandler(c *gin.Context) {
	file, err := h.useCase.Data(c.Request.Context(), sessionID(c), c.Param("id"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	c.Data(http.StatusOK, "application/octet-stream", file.Data)
}

// SynthesizeHandler converts the downloaded data into synthetic images.
// POST /v1/datasets/:id/images
func (h *ExchangeHandler) SynthesizeHandler(c *gin.Context) {
	var req dto.SynthesizeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httputil.HandleValidationErrorGin(c, err, h.logger)
			return
		}
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	result, err := h.useCase.Synthesize(c.Request.Context(), sessionID(c), c.Param("id"), req.ToImagingRequest())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	c.JSON(http.StatusCreated, dto.MapImagesToResponse(c.Param("id"), result))
}

// ImagesArchiveHandler serves the generated images as a ZIP attachment.
// GET /v1/datasets/:id/images.zip
func (h *ExchangeHandler) ImagesArchiveHandler(c *gin.Context) {
	archive, err := h.useCase.ImagesArchive(c.Request.Context(), sessionID(c), c.Param("id"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", imaging.ArchiveName))
	c.Data(http.StatusOK, "application/zip", archive)
}

// ImageHandler serves one generated image.
// GET /v1/datasets/:id/images/*name
func (h *ExchangeHandler) ImageHandler(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("name"), "/")
	data, err := h.useCase.Image(c.Request.Context(), sessionID(c), c.Param("id"), name)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	c.Header("Cache-Control", "private, no-store")
	c.Data(http.StatusOK, "image/png", data)
}

// ClearImagesHandler removes the generated images of a dataset.
// DELETE /v1/datasets/:id/images
func (h *ExchangeHandler) ClearImagesHandler(c *gin.Context) {
	if err := h.useCase.ClearImages(c.Request.Context(), sessionID(c), c.Param("id")); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	c.Status(http.StatusNoContent)
}

// DownloadsHandler lists downloaded datasets with totals.
// GET /v1/downloads
func (h *ExchangeHandler) DownloadsHandler(c *gin.Context) {
	overview, err := h.useCase.Downloads(c.Request.Context(), sessionID(c))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, dto.MapDownloadsToResponse(overview))
}

// ClearSessionHandler terminates active transfers and forgets every exchange.
// DELETE /v1/session
func (h *ExchangeHandler) ClearSessionHandler(c *gin.Context) {
	if err := h.useCase.ClearAll(c.Request.Context(), sessionID(c)); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	c.Status(http.StatusNoContent)
}
