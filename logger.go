package osiapp

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// ZerologAdapter bridges a zerolog.Logger into the Logger interface. Calls
// with printf verbs format as usual; calls without verbs treat the arguments
// as key value pairs.
type ZerologAdapter struct {
	log zerolog.Logger
}

func NewZerologAdapter(log zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{log: log}
}

func (z *ZerologAdapter) Debug(format string, args ...any) {
	z.emit(z.log.Debug(), format, args)
}

func (z *ZerologAdapter) Info(format string, args ...any) {
	z.emit(z.log.Info(), format, args)
}

func (z *ZerologAdapter) Warn(format string, args ...any) {
	z.emit(z.log.Warn(), format, args)
}

func (z *ZerologAdapter) Error(format string, args ...any) {
	z.emit(z.log.Error(), format, args)
}

func (z *ZerologAdapter) emit(ev *zerolog.Event, format string, args []any) {
	if len(args) == 0 {
		ev.Msg(format)
		return
	}

	if strings.Contains(format, "%") {
		ev.Msgf(format, args...)
		return
	}

	if len(args)%2 != 0 {
		args = append(args, "(missing)")
	}

	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprintf("arg%d", i)
		}
		ev = ev.Interface(key, args[i+1])
	}

	ev.Msg(format)
}

var _ Logger = (*ZerologAdapter)(nil)
