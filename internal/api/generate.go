package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Skufu/vetddx/internal/gateway"
	"github.com/Skufu/vetddx/internal/model"
	"github.com/Skufu/vetddx/internal/safety"
)

type generateRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model"`
}

type analyzeRequest struct {
	Text string      `json:"text"`
	Case *model.Case `json:"case,omitempty"`
}

// generate is the thin proxy: prompt in, raw replies out.
func (h *handler) generate(c *gin.Context) {
	var req generateRequest
	if !bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Prompt is required"})
		return
	}
	if _, err := h.gateway.Resolve(req.Model); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := h.upstreamContext(c)
	defer cancel()

	resp, err := h.gateway.Generate(ctx, req.Prompt, req.Model)
	if err != nil {
		h.logger.Error("generate failed",
			zap.String("model", req.Model),
			zap.String("error_class", string(gateway.ClassifyError(err))),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *handler) analyze(c *gin.Context) {
	var req analyzeRequest
	if !bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Text is required"})
		return
	}

	view := replyAnalysis{Result: h.normalizer.Analyze(req.Text)}
	if req.Case != nil {
		report := safety.Screen(req.Case.Normalized(), view.Result)
		view.Safety = &report
	}
	c.JSON(http.StatusOK, view)
}

// bindJSON decodes the body and writes the error response itself. An empty
// body decodes to the zero value so required-field checks report it.
func bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"})
		return false
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
	return false
}
