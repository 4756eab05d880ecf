package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/trace"
)

// HeaderCorrelationID ties together requests that belong to one client flow,
// e.g. an affiliation request followed by the player's response.
const HeaderCorrelationID = "X-Correlation-ID"

// CorrelationMiddleware propagates X-Correlation-ID (defaulting to the request
// id) into the span and into otel baggage so background work such as
// notification emails keeps it. Must run after RequestIDMiddleware.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader(HeaderCorrelationID)
		if correlationID == "" {
			correlationID = RequestID(c)
		}
		if correlationID == "" {
			c.Next()
			return
		}

		c.Set("correlation_id", correlationID)
		c.Header(HeaderCorrelationID, correlationID)

		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			span.SetAttributes(attribute.String("trace.correlation_id", correlationID))
		}

		ctx := c.Request.Context()
		if member, err := baggage.NewMember("correlation_id", correlationID); err == nil {
			if b, err := baggage.FromContext(ctx).SetMember(member); err == nil {
				ctx = baggage.ContextWithBaggage(ctx, b)
			}
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// CorrelationIDFromContext extracts the correlation id from baggage.
func CorrelationIDFromContext(ctx context.Context) string {
	return baggage.FromContext(ctx).Member("correlation_id").Value()
}
