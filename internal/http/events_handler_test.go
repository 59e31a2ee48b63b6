package http

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tboniifacio/Restaurante-Sabor-Vivo/internal/cart"
)

func TestEventStream(t *testing.T) {
	env := newTestEnv(t, nil)

	server := httptest.NewServer(env.router)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, "GET", server.URL+"/api/v1/events", nil)
	require.NoError(t, err)

	response, err := http.DefaultClient.Do(request)
	require.NoError(t, err)
	defer response.Body.Close()

	require.Equal(t, http.StatusOK, response.StatusCode)
	assert.Equal(t, "text/event-stream", response.Header.Get("Content-Type"))

	reader := bufio.NewReader(response.Body)

	// First event is the snapshot of the (empty) cart.
	first := readEvent(t, reader)
	assert.Empty(t, first.Cart.Items)

	// A mutation from anywhere shows up on the stream.
	env.store.AddItem(context.Background(), cart.ItemInput{ID: "caipirinha", Name: "Caipirinha", Price: 2590, Qty: 2})

	second := readEvent(t, reader)
	require.Len(t, second.Cart.Items, 1)
	assert.Equal(t, "caipirinha", second.Cart.Items[0].ID)
	assert.Equal(t, int64(5180), second.Totals.Total)
}

// readEvent consumes lines until one cartchange event is complete.
func readEvent(t *testing.T, reader *bufio.Reader) cart.Change {
	t.Helper()

	var data string
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")

		switch {
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && data != "":
			var change cart.Change
			require.NoError(t, json.Unmarshal([]byte(data), &change))
			return change
		}
	}
}
