package sweeper

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	sweeper *Sweeper
}

func NewHandler(sw *Sweeper) *Handler {
	return &Handler{sweeper: sw}
}

// RunNow triggers a sweep outside the schedule. The run is synchronous so the
// caller sees a consistent catalog when the response arrives.
func (h *Handler) RunNow(c *gin.Context) {
	h.sweeper.Run(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"message": "Sweep completed"})
}
