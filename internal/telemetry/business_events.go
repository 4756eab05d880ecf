package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// BusinessEvents opens spans for domain operations that sit above HTTP and DB
// tracing: notifications, state machine transitions and profile search.
type BusinessEvents struct {
	tracer trace.Tracer
}

// NewBusinessEvents creates a new business events tracer
func NewBusinessEvents() *BusinessEvents {
	return &BusinessEvents{
		tracer: otel.Tracer("business-events"),
	}
}

// TraceNotify creates a span for one notification delivery.
func (be *BusinessEvents) TraceNotify(ctx context.Context, notificationType, userID string) (context.Context, trace.Span) {
	return be.tracer.Start(ctx, "notifications.notify",
		trace.WithAttributes(
			attribute.String("notification.type", notificationType),
			attribute.String("user.id", userID),
		),
	)
}

// TraceTransition creates a span for a state change on entity (affiliation,
// application, join request).
func (be *BusinessEvents) TraceTransition(ctx context.Context, entity, id, from, to string) (context.Context, trace.Span) {
	return be.tracer.Start(ctx, entity+".transition",
		trace.WithAttributes(
			attribute.String("entity.type", entity),
			attribute.String("entity.id", id),
			attribute.String("transition.from", from),
			attribute.String("transition.to", to),
		),
	)
}

// SearchEventAttrs attributes for profile searches
type SearchEventAttrs struct {
	Kind        string // "athletes" or "professionals"
	HasTerm     bool
	FiltersUsed []string
}

// TraceSearch creates a span for search operations
func (be *BusinessEvents) TraceSearch(ctx context.Context, attrs SearchEventAttrs) (context.Context, trace.Span) {
	ctx, span := be.tracer.Start(ctx, "search.profiles",
		trace.WithAttributes(
			attribute.String("search.kind", attrs.Kind),
			attribute.Bool("search.has_term", attrs.HasTerm),
		),
	)
	if len(attrs.FiltersUsed) > 0 {
		span.SetAttributes(attribute.StringSlice("search.filters", attrs.FiltersUsed))
	}
	return ctx, span
}

// RecordSearchResult tags a search span with where it was answered.
func RecordSearchResult(span trace.Span, backend string, resultCount int, fallback bool) {
	span.SetAttributes(
		attribute.String("search.backend", backend),
		attribute.Int("search.result_count", resultCount),
		attribute.Bool("search.fallback_used", fallback),
	)
}

// RecordError marks span failed with err. A nil err is ignored.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err)
}

var globalBusinessEvents = NewBusinessEvents()

// GetBusinessEvents returns the global business events tracer
func GetBusinessEvents() *BusinessEvents {
	return globalBusinessEvents
}
