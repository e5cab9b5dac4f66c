package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Skufu/vetddx/internal/analysis"
	"github.com/Skufu/vetddx/internal/export"
	"github.com/Skufu/vetddx/internal/gateway"
	"github.com/Skufu/vetddx/internal/model"
	"github.com/Skufu/vetddx/internal/prompt"
	"github.com/Skufu/vetddx/internal/safety"
	"github.com/Skufu/vetddx/internal/storage"
)

type createCaseRequest struct {
	Case  model.Case `json:"case"`
	Model string     `json:"model"`
}

type replyAnalysis struct {
	analysis.Result
	Safety *safety.Report `json:"safety,omitempty"`
}

type replyView struct {
	model.ModelReply
	Analysis *replyAnalysis `json:"analysis,omitempty"`
}

type caseView struct {
	ID         string      `json:"id"`
	CreatedAt  time.Time   `json:"createdAt"`
	Model      string      `json:"model"`
	MultiModel bool        `json:"multiModel"`
	Case       model.Case  `json:"case"`
	Replies    []replyView `json:"replies"`
}

// view re-derives analysis for every successful reply; nothing derived is stored.
func (h *handler) view(rec model.CaseRecord) caseView {
	replies := make([]replyView, 0, len(rec.Replies))
	for _, r := range rec.Replies {
		rv := replyView{ModelReply: r}
		if !r.Failed() {
			res := h.normalizer.Analyze(r.Text)
			report := safety.Screen(rec.Case, res)
			rv.Analysis = &replyAnalysis{Result: res, Safety: &report}
		}
		replies = append(replies, rv)
	}
	return caseView{
		ID:         rec.ID,
		CreatedAt:  rec.CreatedAt,
		Model:      rec.Selector,
		MultiModel: len(rec.Replies) > 1,
		Case:       rec.Case,
		Replies:    replies,
	}
}

func (h *handler) createCase(c *gin.Context) {
	var req createCaseRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := req.Case.Validate(); err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": model.ErrValidation.Error(), "details": verr.Details})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	upstreams, err := h.gateway.Resolve(req.Model)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	selector := upstreams[0].ID
	if len(upstreams) > 1 {
		selector = gateway.ModelBoth
	}

	patient := req.Case.Normalized()
	ctx, cancel := h.upstreamContext(c)
	defer cancel()

	resp, err := h.gateway.Generate(ctx, prompt.Build(patient), selector)
	if err != nil {
		h.logger.Error("case generation failed", zap.String("model", selector), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	rec := model.CaseRecord{Selector: selector, Case: patient, Replies: resp.Content}
	if err := h.store.Save(ctx, &rec); err != nil {
		h.logger.Error("save case failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save case"})
		return
	}

	h.logger.Info("case created",
		zap.String("id", rec.ID),
		zap.String("model", selector),
		zap.Int("replies", len(rec.Replies)),
	)
	c.JSON(http.StatusCreated, h.view(rec))
}

func (h *handler) listCases(c *gin.Context) {
	limit := storage.DefaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxListLimit)
	}

	records, err := h.store.List(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("list cases failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list cases"})
		return
	}

	views := make([]caseView, 0, len(records))
	for _, rec := range records {
		views = append(views, h.view(rec))
	}
	c.JSON(http.StatusOK, gin.H{"cases": views})
}

func (h *handler) getCase(c *gin.Context) {
	rec, ok := h.loadCase(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.view(rec))
}

func (h *handler) exportCase(c *gin.Context) {
	rec, ok := h.loadCase(c)
	if !ok {
		return
	}

	doc, err := h.exporter.Bytes(rec)
	if err != nil {
		h.logger.Error("export case failed", zap.String("id", rec.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export case"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+export.Filename(rec)+`"`)
	c.Data(http.StatusOK, "application/pdf", doc)
}

func (h *handler) loadCase(c *gin.Context) (model.CaseRecord, bool) {
	rec, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return model.CaseRecord{}, false
	}
	if err != nil {
		h.logger.Error("get case failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load case"})
		return model.CaseRecord{}, false
	}
	return rec, true
}
