package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/PolycarpusTack/Alexandria-sub001/internal/broker"
)

// AdminHandlers exposes the broker's administrative queries.
type AdminHandlers struct {
	broker *broker.Broker
	log    *zerolog.Logger
}

// NewAdminHandlers creates a new admin handlers instance.
func NewAdminHandlers(b *broker.Broker, logger *zerolog.Logger) *AdminHandlers {
	return &AdminHandlers{broker: b, log: logger}
}

// ClientResponse represents a connected client in API responses.
type ClientResponse struct {
	ID            string    `json:"id"`
	Authenticated bool      `json:"authenticated"`
	Username      string    `json:"username,omitempty"`
	Rooms         []string  `json:"rooms"`
	AdmittedAt    time.Time `json:"admitted_at"`
	LastActivity  time.Time `json:"last_activity"`
}

// ClientsCount returns the number of connected clients.
// GET /api/clients/count
func (h *AdminHandlers) ClientsCount(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"count": h.broker.Count()})
}

// Clients returns a snapshot of the connected clients.
// GET /api/clients
func (h *AdminHandlers) Clients(c *gin.Context) {
	clients := h.broker.Clients()
	response := make([]ClientResponse, 0, len(clients))
	for _, client := range clients {
		// The client may have disconnected since the snapshot.
		rooms, err := h.broker.ClientRooms(client.ID)
		if err != nil {
			rooms = []string{}
		}
		entry := ClientResponse{
			ID:            client.ID,
			Authenticated: client.Authenticated(),
			Rooms:         rooms,
			AdmittedAt:    client.AdmittedAt,
			LastActivity:  client.LastActivity(),
		}
		if identity := client.Identity(); identity != nil {
			entry.Username = identity.Username
		}
		response = append(response, entry)
	}
	c.JSON(http.StatusOK, response)
}

// ClientRooms returns the rooms one client belongs to.
// GET /api/clients/:id/rooms
func (h *AdminHandlers) ClientRooms(c *gin.Context) {
	id := c.Param("id")
	rooms, err := h.broker.ClientRooms(id)
	if err != nil {
		if errors.Is(err, broker.ErrClientNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "client not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to look up client"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "rooms": rooms})
}
