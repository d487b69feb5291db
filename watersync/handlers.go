package watersync

import (
	"context"
	"net/http"
	"strconv"

	"github.com/aquastream/collections_backend/appctx"
	"github.com/aquastream/collections_backend/models"
	"github.com/aquastream/collections_backend/utils"
	"github.com/gin-gonic/gin"
)

// TriggerRunHandler starts a completeness check in the background. A second
// trigger while one is outstanding gets 409.
func TriggerRunHandler(checker *Checker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if checker.InFlight() {
			c.JSON(http.StatusConflict, gin.H{"error": utils.ErrorRunInProgress.Error()})
			return
		}

		correlationId, _ := appctx.GetString(c.Request.Context(), appctx.ContextKeyCorrelationId)
		runCtx := appctx.Set(context.Background(), appctx.ContextKeyCorrelationId, correlationId)
		go checker.Run(runCtx, "api")

		c.JSON(http.StatusAccepted, gin.H{
			"status":         "started",
			"correlation_id": correlationId,
		})
	}
}

// RunHistoryHandler lists recent completeness runs.
func RunHistoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		runs, err := models.ListCompletenessRuns(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": runs})
	}
}

// RunDetailHandler returns one completeness run by id.
func RunDetailHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
			return
		}
		run, err := models.GetCompletenessRunById(c.Request.Context(), id)
		if err != nil {
			if err == utils.ErrorRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, run)
	}
}
