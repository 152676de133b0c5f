package broker

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ThreeDotsLabs/watermill"

	"subject-feed/src/logger"
)

// watermillLogger routes watermill's logging into the project logger.
// Watermill is chatty at info level, so info is demoted to debug.
type watermillLogger struct {
	log    logger.Logger
	fields watermill.LogFields
}

func newWatermillLogger(log logger.Logger) watermill.LoggerAdapter {
	return watermillLogger{log: log}
}

func (w watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	w.log.Error("[Watermill] %s: %v%s", msg, err, w.format(fields))
}

func (w watermillLogger) Info(msg string, fields watermill.LogFields) {
	w.log.Debug("[Watermill] %s%s", msg, w.format(fields))
}

func (w watermillLogger) Debug(msg string, fields watermill.LogFields) {
	w.log.Debug("[Watermill] %s%s", msg, w.format(fields))
}

func (w watermillLogger) Trace(msg string, fields watermill.LogFields) {}

func (w watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return watermillLogger{log: w.log, fields: w.fields.Add(fields)}
}

func (w watermillLogger) format(fields watermill.LogFields) string {
	all := w.fields.Add(fields)
	if len(all) == 0 {
		return ""
	}

	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, all[k])
	}
	return b.String()
}
