package dockerfile

import "strings"

// Kind enumerates every Dockerfile instruction the parser understands.
// The set is closed: rules dispatch on Kind with exhaustive switches, and
// adding a new instruction means adding a constant, a payload field, and a
// parse case.
type Kind int

const (
	KindUnknown Kind = iota
	KindFrom
	KindRun
	KindCopy
	KindAdd
	KindEnv
	KindArg
	KindExpose
	KindWorkdir
	KindUser
	KindVolume
	KindLabel
	KindCmd
	KindEntrypoint
	KindHealthcheck
	KindShell
	KindStopsignal
	KindOnbuild
	KindMaintainer
)

var kindNames = map[Kind]string{
	KindUnknown:     "UNKNOWN",
	KindFrom:        "FROM",
	KindRun:         "RUN",
	KindCopy:        "COPY",
	KindAdd:         "ADD",
	KindEnv:         "ENV",
	KindArg:         "ARG",
	KindExpose:      "EXPOSE",
	KindWorkdir:     "WORKDIR",
	KindUser:        "USER",
	KindVolume:      "VOLUME",
	KindLabel:       "LABEL",
	KindCmd:         "CMD",
	KindEntrypoint:  "ENTRYPOINT",
	KindHealthcheck: "HEALTHCHECK",
	KindShell:       "SHELL",
	KindStopsignal:  "STOPSIGNAL",
	KindOnbuild:     "ONBUILD",
	KindMaintainer:  "MAINTAINER",
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, name := range kindNames {
		m[name] = k
	}
	delete(m, "UNKNOWN")
	return m
}()

// String returns the canonical upper-case instruction name.
func (k Kind) String() string { return kindNames[k] }

// KindFromKeyword maps a keyword token (any case) to its Kind. Unrecognized
// keywords map to KindUnknown.
func KindFromKeyword(word string) Kind {
	if k, ok := kindsByName[strings.ToUpper(word)]; ok {
		return k
	}
	return KindUnknown
}

// MarshalText renders the kind as its instruction name.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Instruction is one parsed Dockerfile directive. Kind selects which payload
// pointer is populated; all other payloads are nil. Line always refers back
// to the first physical line of the originating logical line.
type Instruction struct {
	Kind Kind `json:"kind"`

	// Line is the 1-based physical line the instruction begins on.
	Line int `json:"line"`

	// Raw is the argument text exactly as written, continuations joined.
	Raw string `json:"raw"`

	// Keyword is the instruction token as written, preserved for Unknown
	// instructions whose keyword has no canonical form.
	Keyword string `json:"keyword"`

	// Comment is a trailing comment attached to the instruction's line.
	Comment string `json:"comment,omitempty"`

	// Flags holds leading --name=value options (e.g. --from, --chown).
	Flags map[string]string `json:"flags,omitempty"`

	From        *FromArgs        `json:"from,omitempty"`
	Command     *CommandArgs     `json:"command,omitempty"`
	Transfer    *TransferArgs    `json:"transfer,omitempty"`
	KeyValues   []KeyValue       `json:"key_values,omitempty"`
	Ports       []Port           `json:"ports,omitempty"`
	Workdir     string           `json:"workdir,omitempty"`
	User        *UserArgs        `json:"user,omitempty"`
	Volumes     []string         `json:"volumes,omitempty"`
	Healthcheck *HealthcheckArgs `json:"healthcheck,omitempty"`
	StopSignal  string           `json:"stop_signal,omitempty"`
	OnBuild     *Instruction     `json:"on_build,omitempty"`
	Maintainer  string           `json:"maintainer,omitempty"`
}

// FromArgs is the payload of a FROM instruction.
type FromArgs struct {
	// Image is the base reference exactly as written.
	Image ImageRef `json:"image"`

	// Alias is the stage name from an AS clause, empty if unnamed.
	Alias string `json:"alias,omitempty"`

	// Platform is the --platform flag value, if given.
	Platform string `json:"platform,omitempty"`
}

// CommandArgs is the payload of RUN, CMD, ENTRYPOINT and SHELL.
type CommandArgs struct {
	// ExecForm is true for JSON-array form, false for shell form.
	ExecForm bool `json:"exec_form"`

	// Argv holds the exec-form argv. Empty in shell form.
	Argv []string `json:"argv,omitempty"`

	// Shell holds the shell-form command string. Empty in exec form.
	Shell string `json:"shell,omitempty"`
}

// TransferArgs is the payload of COPY and ADD.
type TransferArgs struct {
	Sources     []string `json:"sources"`
	Destination string   `json:"destination"`

	// From is the raw --from= value; stage resolution happens in the
	// stage graph builder.
	From     string `json:"from,omitempty"`
	Chown    string `json:"chown,omitempty"`
	Chmod    string `json:"chmod,omitempty"`
	Link     bool   `json:"link,omitempty"`
	Checksum string `json:"checksum,omitempty"`
}

// KeyValue is one pair from ENV, ARG or LABEL. ARG declarations without a
// default have HasValue false.
type KeyValue struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	HasValue bool   `json:"has_value"`
}

// Port is one EXPOSE token. Number is zero when the port is a variable
// reference or otherwise non-numeric.
type Port struct {
	Raw      string `json:"raw"`
	Number   int    `json:"number"`
	Protocol string `json:"protocol,omitempty"`
}

// UserArgs is the payload of USER.
type UserArgs struct {
	User  string `json:"user"`
	Group string `json:"group,omitempty"`
}

// HealthcheckArgs is the payload of HEALTHCHECK.
type HealthcheckArgs struct {
	// None is true for HEALTHCHECK NONE.
	None bool `json:"none"`

	Command     *CommandArgs `json:"command,omitempty"`
	Interval    string       `json:"interval,omitempty"`
	Timeout     string       `json:"timeout,omitempty"`
	StartPeriod string       `json:"start_period,omitempty"`
	Retries     string       `json:"retries,omitempty"`
}

// Flag returns the named flag value and whether it was present.
func (in *Instruction) Flag(name string) (string, bool) {
	v, ok := in.Flags[name]
	return v, ok
}
