package handler

import (
	"io"
	"net/http"
	"net/url"

	"coursecms/internal/service"
	"coursecms/pkg/payment"

	"github.com/gin-gonic/gin"
)

const maxCallbackBody = 64 << 10

type PaymentCallbackHandler struct {
	svc         *service.EnrollmentService
	redirectURL string
}

func NewPaymentCallbackHandler(svc *service.EnrollmentService, redirectURL string) *PaymentCallbackHandler {
	return &PaymentCallbackHandler{svc: svc, redirectURL: redirectURL}
}

// Verify handles POST /orders/verify. The gateway posts either a browser
// form or a flat JSON object; both carry CHECKSUMHASH.
func (h *PaymentCallbackHandler) Verify(c *gin.Context) {
	params, err := readCallbackParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid callback body"})
		return
	}
	res, err := h.svc.Verify(c.Request.Context(), params, service.CallbackMeta{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		respondError(c, err, "payment verification failed")
		return
	}
	if h.redirectURL != "" {
		q := url.Values{}
		q.Set("order_id", res.GatewayOrderID)
		q.Set("status", res.Status)
		c.Redirect(http.StatusSeeOther, h.redirectURL+"?"+q.Encode())
		return
	}
	c.JSON(http.StatusOK, res)
}

func readCallbackParams(c *gin.Context) (payment.Params, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxCallbackBody)
	if c.ContentType() == "application/json" {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return nil, err
		}
		return payment.ParamsFromJSON(body)
	}
	if err := c.Request.ParseForm(); err != nil {
		return nil, err
	}
	return payment.ParamsFromForm(c.Request.PostForm), nil
}
