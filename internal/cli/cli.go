package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type Command string

const (
	CommandRun     Command = "run"
	CommandEnable  Command = "enable"
	CommandStart   Command = "start"
	CommandStop    Command = "stop"
	CommandStatus  Command = "status"
	CommandMode    Command = "mode"
	CommandListen  Command = "listen"
	CommandDoctor  Command = "doctor"
	CommandVersion Command = "version"
	CommandHelp    Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandRun:     {},
	CommandEnable:  {},
	CommandStart:   {},
	CommandStop:    {},
	CommandStatus:  {},
	CommandMode:    {},
	CommandListen:  {},
	CommandDoctor:  {},
	CommandVersion: {},
	CommandHelp:    {},
}

// commandsWithArg take one optional positional argument: a mode name.
var commandsWithArg = map[Command]struct{}{
	CommandStart: {},
	CommandMode:  {},
	CommandRun:   {},
}

type Parsed struct {
	Command    Command
	Mode       string
	ConfigPath string
	TimeoutMS  int
	ShowHelp   bool
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}
	haveCommand := false

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		case "--timeout":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--timeout requires a duration in milliseconds")
			}
			ms, err := strconv.Atoi(args[i])
			if err != nil || ms <= 0 {
				return Parsed{}, fmt.Errorf("invalid --timeout value: %s", args[i])
			}
			parsed.TimeoutMS = ms
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			if haveCommand {
				if _, ok := commandsWithArg[parsed.Command]; ok && parsed.Mode == "" {
					parsed.Mode = arg
					continue
				}
				return Parsed{}, fmt.Errorf("unexpected argument: %s", arg)
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			haveCommand = true
		}
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command> [mode]

Commands:
  run [mode]     Own the voice session in the foreground (default mode from config)
  enable         Turn voice input on in continuous mode
  start [mode]   Start listening in the given mode (continuous, wake_word, push_to_talk)
  stop           Stop listening
  status         Print current session state
  mode [name]    Print or set the active mode (off, continuous, wake_word, push_to_talk)
  listen         Capture one utterance and print the transcript
  doctor         Run configuration and environment checks
  version        Print version information
  help           Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/scorevoice/config.yaml)
  --timeout MS    One-shot listen timeout in milliseconds
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
