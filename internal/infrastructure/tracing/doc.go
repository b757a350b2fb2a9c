/*
Package tracing provides lightweight request tracing.

Trace and span IDs travel in the X-Trace-ID and X-Span-ID headers. The gin
middleware continues an incoming trace or starts one, and the fetch client
forwards the IDs on outbound requests made while serving it (document
loading and script ajax calls), so a slow extraction can be followed into
the sites it touched.

Finished spans are buffered and written to the log by a collector
goroutine; spans are dropped rather than blocking when the buffer is full.

	tracer := tracing.New("rulekit", logger)
	defer tracer.Close()
	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "extract")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()
*/
package tracing
