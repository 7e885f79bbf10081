package notify

import (
	"context"
	"os/exec"
	"strconv"

	"codeberg.org/mutker/btapmd/internal/logger"
)

// LogSink writes notifications to the log. It is the default sink on
// headless hosts.
type LogSink struct {
	Logger logger.Logger
}

func (s LogSink) Show(_ context.Context, user int, kind Kind, text string) error {
	s.Logger.Info().
		Int("user", user).
		Str("kind", string(kind)).
		Msg(text)
	return nil
}

// CommandSink runs an external program (for example notify-send) with the
// notification text as last argument. BTAPMD_USER and BTAPMD_KIND are set in
// its environment.
type CommandSink struct {
	Command string
	Args    []string
}

func (s CommandSink) Show(ctx context.Context, user int, kind Kind, text string) error {
	args := append(append([]string(nil), s.Args...), text)
	cmd := exec.CommandContext(ctx, s.Command, args...)
	cmd.Env = append(cmd.Environ(),
		"BTAPMD_USER="+strconv.Itoa(user),
		"BTAPMD_KIND="+string(kind),
	)

	return cmd.Run()
}
