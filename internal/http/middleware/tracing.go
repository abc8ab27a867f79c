package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func Tracing(serviceName string) gin.HandlerFunc {
	tracer := otel.Tracer(serviceName + "/http")

	return func(ctx *gin.Context) {
		parent := otel.GetTextMapPropagator().Extract(ctx.Request.Context(), propagation.HeaderCarrier(ctx.Request.Header))
		spanCtx, span := tracer.Start(parent, ctx.Request.Method+" "+routeLabel(ctx), trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		span.SetAttributes(
			attribute.String("http.method", ctx.Request.Method),
			attribute.String("http.route", routeLabel(ctx)),
			attribute.String("http.target", ctx.Request.URL.Path),
		)

		ctx.Request = ctx.Request.WithContext(spanCtx)
		ctx.Next()

		status := ctx.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if user, ok := CurrentUser(ctx); ok {
			span.SetAttributes(attribute.String("enduser.id", user.ID))
		}
		if status >= 500 {
			span.SetStatus(codes.Error, ctx.Errors.String())
		}
	}
}
