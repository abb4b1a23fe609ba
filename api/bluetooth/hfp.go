package bluetooth

import "strings"

// HfpAtCommandType is the syntax form of an AT command.
type HfpAtCommandType int

// The different AT command forms.
const (
	AtCommandUnknown HfpAtCommandType = iota
	AtCommandBasic
	AtCommandAction
	AtCommandRead
	AtCommandSet
	AtCommandTest
)

// HfpAtCommand is an AT command exchanged over the HFP service level connection.
type HfpAtCommand struct {
	Type      HfpAtCommandType
	Command   string
	Arguments string
}

// ParseHfpAtCommand splits a raw AT command line such as "AT+CIND=?" into
// its parts.
func ParseHfpAtCommand(line string) HfpAtCommand {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(strings.TrimPrefix(line, "AT"), "at")

	switch {
	case strings.HasSuffix(line, "=?"):
		return HfpAtCommand{Type: AtCommandTest, Command: strings.TrimSuffix(line, "=?")}

	case strings.HasSuffix(line, "?"):
		return HfpAtCommand{Type: AtCommandRead, Command: strings.TrimSuffix(line, "?")}

	case strings.Contains(line, "="):
		command, args, _ := strings.Cut(line, "=")
		return HfpAtCommand{Type: AtCommandSet, Command: command, Arguments: args}

	case strings.HasPrefix(line, "+"):
		return HfpAtCommand{Type: AtCommandAction, Command: line}

	case line != "":
		return HfpAtCommand{Type: AtCommandBasic, Command: line}
	}

	return HfpAtCommand{}
}

// String formats the command as an AT command line.
func (a HfpAtCommand) String() string {
	switch a.Type {
	case AtCommandRead:
		return "AT" + a.Command + "?"
	case AtCommandTest:
		return "AT" + a.Command + "=?"
	case AtCommandSet:
		return "AT" + a.Command + "=" + a.Arguments
	}

	return "AT" + a.Command
}

// HfpObserver receives HFP events.
type HfpObserver interface {
	ScoStateChanged(address string, connected bool)
	AtCommandReceived(address string, command HfpAtCommand)
	ResultCodeReceived(address string, resultCode string)
}

// HfpProfile is the Hands-Free Profile.
type HfpProfile interface {
	Profile

	RegisterHfpObserver(observer HfpObserver)

	OpenSCO(address string, cb ResultCallback)
	CloseSCO(address string, cb ResultCallback)

	SendResultCode(address, resultCode string) Error
	SendAtCommand(address string, command HfpAtCommand) Error
}
