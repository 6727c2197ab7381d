package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	apperrors "finsight/internal/errors"
	"finsight/internal/logger"
	"finsight/internal/quotes"
)

const (
	quoteStreamInterval = 5 * time.Second
	maxStreamSymbols    = 20
	writeWait           = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Browser clients connect from the SPA origin; auth happens via the
		// bearer token on the upgrade request, not the origin.
		return true
	},
}

// QuoteStreamHandler pushes current prices for a set of symbols over a
// WebSocket connection.
type QuoteStreamHandler struct {
	quoteSource quotes.Source
}

// NewQuoteStreamHandler creates a new QuoteStreamHandler.
func NewQuoteStreamHandler(quoteSource quotes.Source) *QuoteStreamHandler {
	return &QuoteStreamHandler{quoteSource: quoteSource}
}

// StreamQuotes upgrades the connection and pushes a batch quote snapshot
// every interval until the client disconnects. Symbols come from the
// comma-separated "symbols" query parameter.
func (h *QuoteStreamHandler) StreamQuotes(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	symbols := parseSymbols(c.Query("symbols"))
	if len(symbols) == 0 {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "At least one symbol is required"))
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Get().Warnw("WebSocket upgrade failed",
			"user_id", userID,
			"error", err,
		)
		return
	}
	defer conn.Close()

	log := logger.Get().With("user_id", userID, "symbols", symbols)
	log.Infow("Quote stream opened")

	// Drain client frames so close frames are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(quoteStreamInterval)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		batch, err := h.quoteSource.GetBatchQuotes(ctx, symbols)
		if err != nil {
			log.Warnw("Quote stream batch lookup failed", "error", err)
		} else {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(gin.H{"quotes": batch, "as_of": time.Now()}); err != nil {
				log.Infow("Quote stream closed", "error", err)
				return
			}
		}

		select {
		case <-ticker.C:
		case <-done:
			log.Infow("Quote stream closed by client")
			return
		case <-ctx.Done():
			return
		}
	}
}

func parseSymbols(raw string) []string {
	var symbols []string
	for _, part := range strings.Split(raw, ",") {
		symbol := strings.ToUpper(strings.TrimSpace(part))
		if symbol == "" {
			continue
		}
		symbols = append(symbols, symbol)
		if len(symbols) == maxStreamSymbols {
			break
		}
	}
	return symbols
}
