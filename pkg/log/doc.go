/*
Package log provides structured logging for flapjack using zerolog: a
global Logger configured once at process start, plus WithComponent/
WithTenant/WithPeer/WithTaskID helpers for child loggers that carry
request-scoped context.

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})
	log.Info("flapjack starting")

	tenantLog := log.WithTenant("shop")
	tenantLog.Info().Int("docs", 3).Msg("batch committed")

Library code logs only through this package's Logger or its child
loggers, never through fmt.Print*; CLI-facing output in cmd/flapjack
is the exception.
*/
package log
