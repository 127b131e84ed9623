package dockerfile

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Parse tokenizes the given Dockerfile text and parses every logical line
// into an Instruction. The only failure modes are the fatal SyntaxError
// cases: malformed continuations and unrecoverably malformed argument
// grammar. Unknown keywords come back as KindUnknown instructions so later
// analysis can flag them without losing the rest of the file.
func Parse(text string) ([]Instruction, error) {
	lines, err := ReadLogicalLines(text)
	if err != nil {
		return nil, err
	}

	instructions := make([]Instruction, 0, len(lines))
	for _, ll := range lines {
		in, err := ParseInstruction(ll)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, in)
	}
	return instructions, nil
}

// ParseInstruction parses one logical line into an Instruction.
func ParseInstruction(ll LogicalLine) (Instruction, error) {
	keyword, rest, _ := strings.Cut(strings.TrimSpace(ll.Text), " ")
	rest = strings.TrimSpace(rest)

	in := Instruction{
		Kind:    KindFromKeyword(keyword),
		Line:    ll.Number,
		Raw:     rest,
		Keyword: keyword,
		Comment: ll.TrailingComment,
	}

	var err error
	switch in.Kind {
	case KindFrom:
		err = parseFrom(&in)
	case KindRun:
		err = parseRun(&in)
	case KindCmd, KindEntrypoint, KindShell:
		in.Command = parseCommand(in.Raw)
	case KindCopy, KindAdd:
		err = parseTransfer(&in)
	case KindEnv, KindArg, KindLabel:
		err = parseKeyValues(&in)
	case KindExpose:
		err = parseExpose(&in)
	case KindWorkdir:
		err = parseWorkdir(&in)
	case KindUser:
		err = parseUser(&in)
	case KindVolume:
		err = parseVolume(&in)
	case KindHealthcheck:
		err = parseHealthcheck(&in)
	case KindStopsignal:
		err = parseStopsignal(&in)
	case KindOnbuild:
		err = parseOnbuild(&in)
	case KindMaintainer:
		in.Maintainer = in.Raw
	case KindUnknown:
		// Kept as-is; the UnknownInstruction rule reports it.
	}
	return in, err
}

// cutFlags consumes leading --name=value tokens. accept limits which flag
// names are taken; a nil accept set takes every leading flag, matching COPY
// and ADD, while RUN only claims its own flags and leaves the rest to the
// shell command.
func cutFlags(raw string, accept map[string]bool) (map[string]string, string) {
	var flags map[string]string
	rest := strings.TrimSpace(raw)
	for strings.HasPrefix(rest, "--") {
		token, remainder, _ := strings.Cut(rest, " ")
		name, value, _ := strings.Cut(strings.TrimPrefix(token, "--"), "=")
		if accept != nil && !accept[name] {
			break
		}
		if flags == nil {
			flags = make(map[string]string)
		}
		flags[name] = value
		rest = strings.TrimSpace(remainder)
	}
	return flags, rest
}

var runFlags = map[string]bool{"mount": true, "network": true, "security": true}

func parseFrom(in *Instruction) error {
	flags, rest := cutFlags(in.Raw, nil)
	in.Flags = flags

	words, err := splitWords(rest, in.Line)
	if err != nil {
		return err
	}
	if len(words) == 0 {
		return syntaxErrorf(in.Line, "FROM requires an image reference")
	}

	from := &FromArgs{Image: ParseImageRef(words[0])}
	if v, ok := flags["platform"]; ok {
		from.Platform = v
	}
	if len(words) >= 2 {
		if !strings.EqualFold(words[1], "AS") || len(words) < 3 {
			return syntaxErrorf(in.Line, "FROM: expected 'AS <name>' after image reference")
		}
		from.Alias = words[2]
	}
	in.From = from
	return nil
}

func parseRun(in *Instruction) error {
	flags, rest := cutFlags(in.Raw, runFlags)
	in.Flags = flags
	in.Command = parseCommand(rest)
	return nil
}

// parseCommand distinguishes exec form (a JSON array) from shell form. A
// leading bracket that fails to parse as JSON falls back to shell form, the
// same recovery Docker itself applies.
func parseCommand(raw string) *CommandArgs {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "[") {
		var argv []string
		if err := json.Unmarshal([]byte(trimmed), &argv); err == nil {
			return &CommandArgs{ExecForm: true, Argv: argv}
		}
	}
	return &CommandArgs{Shell: trimmed}
}

func parseTransfer(in *Instruction) error {
	flags, rest := cutFlags(in.Raw, nil)
	in.Flags = flags

	// JSON-array form first, for paths containing whitespace; a bracket
	// that fails to parse falls back to word splitting like parseVolume.
	var words []string
	if strings.HasPrefix(rest, "[") {
		if err := json.Unmarshal([]byte(rest), &words); err != nil {
			words = nil
		}
	}
	if words == nil {
		var err error
		words, err = splitWords(rest, in.Line)
		if err != nil {
			return err
		}
	}
	if len(words) < 2 {
		return syntaxErrorf(in.Line, "%s requires at least one source and a destination", in.Kind)
	}

	t := &TransferArgs{
		Sources:     words[:len(words)-1],
		Destination: words[len(words)-1],
	}
	t.From = flags["from"]
	t.Chown = flags["chown"]
	t.Chmod = flags["chmod"]
	t.Checksum = flags["checksum"]
	if _, ok := flags["link"]; ok {
		t.Link = true
	}
	in.Transfer = t
	return nil
}

func parseKeyValues(in *Instruction) error {
	words, err := splitWords(in.Raw, in.Line)
	if err != nil {
		return err
	}
	in.KeyValues = parseKeyValuePairs(words, in.Kind == KindArg)
	return nil
}

func parseExpose(in *Instruction) error {
	words, err := splitWords(in.Raw, in.Line)
	if err != nil {
		return err
	}
	if len(words) == 0 {
		return syntaxErrorf(in.Line, "EXPOSE requires at least one port")
	}
	for _, w := range words {
		p := Port{Raw: w}
		numPart, proto, _ := strings.Cut(w, "/")
		p.Protocol = proto
		if n, err := strconv.Atoi(numPart); err == nil {
			p.Number = n
		}
		in.Ports = append(in.Ports, p)
	}
	return nil
}

func parseWorkdir(in *Instruction) error {
	words, err := splitWords(in.Raw, in.Line)
	if err != nil {
		return err
	}
	if len(words) == 0 {
		return syntaxErrorf(in.Line, "WORKDIR requires a path")
	}
	in.Workdir = strings.Join(words, " ")
	return nil
}

func parseUser(in *Instruction) error {
	words, err := splitWords(in.Raw, in.Line)
	if err != nil {
		return err
	}
	if len(words) == 0 {
		return syntaxErrorf(in.Line, "USER requires a user")
	}
	user, group, _ := strings.Cut(words[0], ":")
	in.User = &UserArgs{User: user, Group: group}
	return nil
}

func parseVolume(in *Instruction) error {
	trimmed := strings.TrimSpace(in.Raw)
	if strings.HasPrefix(trimmed, "[") {
		var paths []string
		if err := json.Unmarshal([]byte(trimmed), &paths); err == nil {
			in.Volumes = paths
			return nil
		}
	}
	words, err := splitWords(trimmed, in.Line)
	if err != nil {
		return err
	}
	if len(words) == 0 {
		return syntaxErrorf(in.Line, "VOLUME requires at least one path")
	}
	in.Volumes = words
	return nil
}

var healthcheckFlags = map[string]bool{
	"interval": true, "timeout": true, "start-period": true, "retries": true,
}

func parseHealthcheck(in *Instruction) error {
	flags, rest := cutFlags(in.Raw, healthcheckFlags)
	in.Flags = flags

	hc := &HealthcheckArgs{
		Interval:    flags["interval"],
		Timeout:     flags["timeout"],
		StartPeriod: flags["start-period"],
		Retries:     flags["retries"],
	}

	verb, remainder, _ := strings.Cut(rest, " ")
	switch strings.ToUpper(verb) {
	case "NONE":
		hc.None = true
	case "CMD":
		hc.Command = parseCommand(remainder)
	default:
		return syntaxErrorf(in.Line, "HEALTHCHECK requires CMD or NONE")
	}
	in.Healthcheck = hc
	return nil
}

func parseStopsignal(in *Instruction) error {
	words, err := splitWords(in.Raw, in.Line)
	if err != nil {
		return err
	}
	if len(words) == 0 {
		return syntaxErrorf(in.Line, "STOPSIGNAL requires a signal")
	}
	in.StopSignal = words[0]
	return nil
}

func parseOnbuild(in *Instruction) error {
	sub, err := ParseInstruction(LogicalLine{Number: in.Line, Text: in.Raw})
	if err != nil {
		return err
	}
	in.OnBuild = &sub
	return nil
}
