package http

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/dmhouse/user-service/internal/domain"
	"github.com/dmhouse/user-service/internal/service/session"
	"github.com/dmhouse/user-service/pkg/useragent"
)

const sessionHistoryLimit = 20

type SessionsHandler struct {
	Sessions *session.Registry
}

func NewSessionsHandler(sessions *session.Registry) *SessionsHandler {
	return &SessionsHandler{Sessions: sessions}
}

// List returns the caller's recent sessions for the audit view. Token
// fingerprints are never part of the response.
func (h *SessionsHandler) List(c *gin.Context) {
	userID := c.MustGet("user_id").(int64)
	current := c.MustGet("session").(*domain.Session)

	sessions, err := h.Sessions.History(c.Request.Context(), userID, sessionHistoryLimit)
	if err != nil {
		log.Printf("[AUTH] Failed to fetch session history: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	now := time.Now()
	out := make([]gin.H, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, gin.H{
			"id":                s.ID,
			"device":            useragent.Describe(s.UserAgent),
			"ip_address":        s.IPAddress,
			"created_at":        s.CreatedAt,
			"expires_at":        s.ExpiresAt,
			"remaining_minutes": s.RemainingMinutes(now),
			"active":            s.Active,
			"valid":             s.Valid(now),
			"current":           s.ID == current.ID,
		})
	}

	c.JSON(http.StatusOK, gin.H{"sessions": out})
}

// Export streams the caller's session history as an XLSX workbook.
func (h *SessionsHandler) Export(c *gin.Context) {
	userID := c.MustGet("user_id").(int64)

	sessions, err := h.Sessions.History(c.Request.Context(), userID, sessionHistoryLimit)
	if err != nil {
		log.Printf("[AUTH] Failed to fetch session history: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sessions"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"ID", "Device", "IP Address", "Created At", "Expires At", "Remaining Minutes", "Active"}
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	now := time.Now()
	for row, s := range sessions {
		values := []interface{}{
			s.ID,
			useragent.Describe(s.UserAgent),
			s.IPAddress,
			s.CreatedAt.Format(time.RFC3339),
			s.ExpiresAt.Format(time.RFC3339),
			s.RemainingMinutes(now),
			s.Active,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"sessions_%s.xlsx\"", time.Now().Format("20060102")))

	if err := f.Write(c.Writer); err != nil {
		log.Printf("[AUTH] Failed to write session export: %v", err)
	}
}
