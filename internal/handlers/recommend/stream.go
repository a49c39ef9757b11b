package recommend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"cinesage-api/internal/metrics"
	"cinesage-api/internal/setup"
	"cinesage-api/internal/shared"
	"cinesage-api/internal/sse"

	"github.com/labstack/echo/v4"
)

// doneSentinel is the payload marking the end of the upstream stream.
const doneSentinel = "[DONE]"

// streamCompletion issues the upstream streaming call and re-emits the
// extracted text deltas to the caller as plain text, one flush per delta.
//
// Failure handling is deliberately asymmetric: a non-200 upstream status
// is logged and the client stream is closed cleanly with zero bytes,
// while a chunk payload that fails to parse aborts the client connection
// with an error. A transport interruption before the done sentinel is
// treated as end of stream.
func (rm *RecommendManager) streamCompletion(c *setup.Context, payload shared.CompletionBody, start time.Time) error {
	out, err := json.Marshal(payload)
	if err != nil {
		c.Log.Errorw("Failed to marshal completion payload", "error", err)
		return c.String(shared.ErrInternalServerError.StatusCode, shared.ErrInternalServerError.Err.Error())
	}

	// Bound to the inbound request context so a client disconnect
	// abandons the upstream read.
	r, err := http.NewRequestWithContext(c.Request().Context(), http.MethodPost, rm.endpoint, bytes.NewBuffer(out))
	if err != nil {
		c.Log.Errorw("Failed building completion request", "error", err)
		return c.String(shared.ErrInternalServerError.StatusCode, shared.ErrInternalServerError.Err.Error())
	}
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("Authorization", "Bearer "+rm.apiKey)

	res, err := rm.client.Do(r)
	if err != nil {
		if c.Request().Context().Err() != nil {
			c.Log.Warnw("Client disconnected before upstream call completed")
			return nil
		}
		c.Log.Errorw("Completion request failed", "error", err)
		metrics.ErrorCount.WithLabelValues(c.Path(), "upstream_request").Inc()
		return c.String(shared.ErrUpstreamFailed.StatusCode, shared.ErrUpstreamFailed.Err.Error())
	}
	defer func() {
		if closeErr := res.Body.Close(); closeErr != nil {
			c.Log.Warnw("Failed to close upstream body", "error", closeErr)
		}
	}()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(res.Body)
		c.Log.Errorw("Received non-200 from completion upstream",
			"status_code", res.StatusCode,
			"status", res.Status,
			"body", string(body))
		metrics.ErrorCount.WithLabelValues(c.Path(), "upstream_status").Inc()
		// The caller gets an empty, cleanly terminated stream.
		c.Response().WriteHeader(http.StatusOK)
		return nil
	}

	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextPlainCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)

	if err := rm.relay(c, res.Body, start); err != nil {
		// The response is already committed, so a returned error would be
		// swallowed and the caller would see a clean end of stream. Abort
		// the connection instead; the recover middleware re-panics
		// http.ErrAbortHandler and net/http drops the connection
		// mid-chunk, which the caller observes as a stream read error.
		panic(http.ErrAbortHandler)
	}
	return nil
}

// relay pumps decoded events from the upstream body to the client until
// the done sentinel or the stream ends.
func (rm *RecommendManager) relay(c *setup.Context, body io.Reader, start time.Time) error {
	dec := sse.NewDecoder(body)
	var filter deltaFilter
	ttftRecorded := false

	for {
		ev, err := dec.Next()
		if err != nil {
			if err == io.EOF {
				c.Log.Warnw("Completion stream ended without done sentinel")
				metrics.ErrorCount.WithLabelValues(c.Path(), "missing_done").Inc()
				return nil
			}
			if ctxErr := c.Request().Context().Err(); ctxErr != nil {
				c.Log.Warnw("Client disconnected during streaming", "context_error", ctxErr)
				return nil
			}
			c.Log.Warnw("Completion stream interrupted", "error", err)
			metrics.ErrorCount.WithLabelValues(c.Path(), "upstream_transport").Inc()
			return nil
		}

		if ev.Data == doneSentinel {
			return nil
		}

		var chunk shared.CompletionChunk
		if err := json.Unmarshal([]byte(ev.Data), &chunk); err != nil {
			c.Log.Errorw("Failed decoding completion chunk", "error", err, "payload", ev.Data)
			metrics.ErrorCount.WithLabelValues(c.Path(), "malformed_payload").Inc()
			// Unlike an upstream status failure, a parse failure surfaces
			// to the caller as a stream abort.
			return fmt.Errorf("%w: %v", shared.ErrMalformedPayload, err)
		}

		text := ""
		if len(chunk.Choices) > 0 {
			text = chunk.Choices[0].Delta.Content
		}

		if !filter.Keep(text) {
			continue
		}

		if c.Request().Context().Err() != nil {
			c.Log.Warnw("Client disconnected during streaming")
			return nil
		}
		if _, err := io.WriteString(c.Response(), text); err != nil {
			c.Log.Warnw("Failed writing to client", "error", err)
			return nil
		}
		c.Response().Flush()

		if !ttftRecorded && text != "" {
			ttftRecorded = true
			metrics.TimeToFirstToken.WithLabelValues(c.Path()).Observe(time.Since(start).Seconds())
		}
	}
}
