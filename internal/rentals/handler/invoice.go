package handler

import (
	"net/http"

	invoiceservice "carrental/internal/invoices/service"
	httputil "carrental/pkg/http"
	"carrental/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type InvoiceHandler struct {
	service invoiceservice.InvoiceService
	log     *logger.Logger
	debug   bool
}

func NewInvoiceHandler(service invoiceservice.InvoiceService, log *logger.Logger, debug bool) *InvoiceHandler {
	return &InvoiceHandler{
		service: service,
		log:     log,
		debug:   debug,
	}
}

func (h *InvoiceHandler) GetInvoice(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bookingNumber := ps.ByName("bookingNumber")

	document, contentType, err := h.service.GetInvoiceByBookingNumber(r.Context(), bookingNumber)
	if err != nil {
		if writeErr := httputil.WriteError(w, r, err, h.debug); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetInvoice", "error", writeErr)
		}
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(document); err != nil {
		h.log.Error("failed to write invoice document", "handler", "GetInvoice", "error", err)
	}
}

func (h *InvoiceHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/invoices/:bookingNumber", h.GetInvoice)
}
