package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/windowless/bridge"
	"github.com/wippyai/windowless/engine"
	"github.com/wippyai/windowless/message"
	"github.com/wippyai/windowless/runtime"
	"github.com/wippyai/windowless/value"
)

// Scenario is a scripted session: the window to create, how host
// callbacks answer, and the steps to replay.
type Scenario struct {
	Natives   map[string]NativeSpec `yaml:"natives"`
	Window    WindowSpec            `yaml:"window"`
	Options   OptionsSpec           `yaml:"options"`
	Resources []ResourceSpec        `yaml:"resources"`
	Behaviors []string              `yaml:"behaviors"`
	Steps     []Step                `yaml:"steps"`

	// dir resolves relative resource files.
	dir string
}

type WindowSpec struct {
	Backend     string `yaml:"backend"`
	Handle      uint64 `yaml:"handle"`
	Width       uint32 `yaml:"width"`
	Height      uint32 `yaml:"height"`
	PPI         uint32 `yaml:"ppi"`
	Transparent bool   `yaml:"transparent"`
}

// OptionsSpec overrides runtime.DefaultOptions. Unset fields keep the
// default.
type OptionsSpec struct {
	UxTheming      *bool  `yaml:"ux_theming"`
	DebugMode      *bool  `yaml:"debug"`
	LogicalPixels  *bool  `yaml:"logical_pixels"`
	ScriptFeatures *uint8 `yaml:"script_features"`
	InitScript     string `yaml:"init_script"`
}

// ResourceSpec answers data loads whose URI starts with Match.
type ResourceSpec struct {
	Match   string `yaml:"match"`
	Outcome string `yaml:"outcome"`
	Data    string `yaml:"data"`
	File    string `yaml:"file"`
}

// NativeSpec answers a script call. Result is any YAML value.
type NativeSpec struct {
	Result  any  `yaml:"result"`
	Decline bool `yaml:"decline"`
}

// Step is one replayed action. Exactly one field is set.
type Step struct {
	Message   *MessageSpec  `yaml:"message,omitempty"`
	Call      *CallSpec     `yaml:"call,omitempty"`
	Complete  *CompleteSpec `yaml:"complete,omitempty"`
	HTML      string        `yaml:"html,omitempty"`
	BaseURI   string        `yaml:"base_uri,omitempty"`
	File      string        `yaml:"file,omitempty"`
	Cancel    string        `yaml:"cancel,omitempty"`
	Heartbeat bool          `yaml:"heartbeat,omitempty"`
	Render    bool          `yaml:"render,omitempty"`
}

type MessageSpec struct {
	Type       string `yaml:"type"`
	Event      string `yaml:"event"`
	Button     string `yaml:"button"`
	Modifiers  string `yaml:"modifiers"`
	X          int32  `yaml:"x"`
	Y          int32  `yaml:"y"`
	Width      uint32 `yaml:"width"`
	Height     uint32 `yaml:"height"`
	PPI        uint32 `yaml:"ppi"`
	Code       uint32 `yaml:"code"`
	Ms         uint32 `yaml:"ms"`
	Element    uint64 `yaml:"element"`
	Enter      bool   `yaml:"enter"`
	Foreground bool   `yaml:"foreground"`
}

type CallSpec struct {
	Name string `yaml:"name"`
	Args []any  `yaml:"args"`
}

// CompleteSpec finishes the deferred load of URI. Without Data the
// matching resource's data is sent.
type CompleteSpec struct {
	URI  string  `yaml:"uri"`
	Data *string `yaml:"data"`
}

// ParseScenario decodes a YAML scenario. JSON and JSONC (JSON with
// comments and trailing commas) are accepted when name ends in .json or
// .jsonc.
func ParseScenario(data []byte, name string) (*Scenario, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	}

	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// ReadScenario reads and parses the scenario at path. Resource files are
// resolved relative to its directory.
func ReadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	sc, err := ParseScenario(data, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	sc.dir = filepath.Dir(path)
	return sc, nil
}

func (sc *Scenario) validate() error {
	if sc.Window.Backend != "" {
		if _, err := message.ParseBackend(sc.Window.Backend); err != nil {
			return fmt.Errorf("window: %w", err)
		}
	}
	for i, r := range sc.Resources {
		if _, err := parseOutcome(r.Outcome); err != nil {
			return fmt.Errorf("resources[%d]: %w", i, err)
		}
		if r.Data != "" && r.File != "" {
			return fmt.Errorf("resources[%d]: data and file are exclusive", i)
		}
	}
	for i, b := range sc.Behaviors {
		if b == "" {
			return fmt.Errorf("behaviors[%d]: empty name", i)
		}
	}
	for i, st := range sc.Steps {
		if err := st.validate(); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	return nil
}

// Handle returns the window handle, 1 when the scenario leaves it unset.
func (sc *Scenario) Handle() uint64 {
	if sc.Window.Handle == 0 {
		return 1
	}
	return sc.Window.Handle
}

func (sc *Scenario) backend() message.Backend {
	if sc.Window.Backend == "" {
		return message.BackendAuto
	}
	b, _ := message.ParseBackend(sc.Window.Backend)
	return b
}

// RuntimeOptions applies the scenario's overrides to the defaults.
func (sc *Scenario) RuntimeOptions() runtime.Options {
	opts := runtime.DefaultOptions()
	o := sc.Options
	if o.UxTheming != nil {
		opts.UxTheming = *o.UxTheming
	}
	if o.DebugMode != nil {
		opts.DebugMode = *o.DebugMode
	}
	if o.LogicalPixels != nil {
		opts.LogicalPixels = *o.LogicalPixels
	}
	if o.ScriptFeatures != nil {
		opts.ScriptFeatures = *o.ScriptFeatures
	}
	opts.InitScript = o.InitScript
	if sc.Window.Backend != "" {
		opts.Backend = sc.backend()
	}
	return opts
}

// resource returns the first resource matching uri.
func (sc *Scenario) resource(uri string) (ResourceSpec, bool) {
	for _, r := range sc.Resources {
		if strings.HasPrefix(uri, r.Match) {
			return r, true
		}
	}
	return ResourceSpec{}, false
}

func (sc *Scenario) resourceData(r ResourceSpec) ([]byte, error) {
	if r.File == "" {
		return []byte(r.Data), nil
	}
	path := r.File
	if !filepath.IsAbs(path) && sc.dir != "" {
		path = filepath.Join(sc.dir, path)
	}
	return os.ReadFile(path)
}

func parseOutcome(s string) (bridge.LoadOutcome, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return bridge.OutcomeNone, nil
	case "default":
		return bridge.OutcomeDefault, nil
	case "discard":
		return bridge.OutcomeDiscard, nil
	case "handle-later", "later":
		return bridge.OutcomeHandleLater, nil
	case "handle-myself", "myself":
		return bridge.OutcomeHandleMyself, nil
	}
	return 0, fmt.Errorf("unknown outcome %q", s)
}

func (st Step) actions() int {
	n := 0
	for _, set := range []bool{
		st.Message != nil, st.Call != nil, st.Complete != nil,
		st.HTML != "", st.File != "", st.Cancel != "",
		st.Heartbeat, st.Render,
	} {
		if set {
			n++
		}
	}
	return n
}

func (st Step) validate() error {
	switch st.actions() {
	case 0:
		return fmt.Errorf("no action")
	case 1:
	default:
		return fmt.Errorf("more than one action")
	}
	if st.BaseURI != "" && st.HTML == "" {
		return fmt.Errorf("base_uri without html")
	}
	switch {
	case st.Message != nil:
		if _, err := st.Message.Message(); err != nil {
			return err
		}
	case st.Call != nil:
		if st.Call.Name == "" {
			return fmt.Errorf("call: empty name")
		}
		if _, err := st.Call.values(); err != nil {
			return fmt.Errorf("call %s: %w", st.Call.Name, err)
		}
	case st.Complete != nil:
		if st.Complete.URI == "" {
			return fmt.Errorf("complete: empty uri")
		}
	}
	return nil
}

func (st Step) String() string {
	switch {
	case st.Message != nil:
		return st.Message.String()
	case st.Call != nil:
		args := make([]string, len(st.Call.Args))
		for i, a := range st.Call.Args {
			if v, err := value.FromGo(a); err == nil {
				args[i] = v.String()
			} else {
				args[i] = fmt.Sprint(a)
			}
		}
		return "call " + st.Call.Name + "(" + strings.Join(args, ", ") + ")"
	case st.Complete != nil:
		return "complete " + st.Complete.URI
	case st.HTML != "":
		if st.BaseURI != "" {
			return "html " + st.BaseURI
		}
		return "html (" + strconv.Itoa(len(st.HTML)) + " bytes)"
	case st.File != "":
		return "load " + st.File
	case st.Cancel != "":
		return "cancel " + st.Cancel
	case st.Heartbeat:
		return "heartbeat"
	case st.Render:
		return "render"
	}
	return "empty"
}

func (c *CallSpec) values() ([]value.Value, error) {
	out := make([]value.Value, len(c.Args))
	for i, a := range c.Args {
		v, err := value.FromGo(a)
		if err != nil {
			return nil, fmt.Errorf("args[%d]: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// Message builds the host message m describes.
func (m *MessageSpec) Message() (message.Message, error) {
	switch strings.ToLower(m.Type) {
	case "size":
		return message.Size{Width: m.Width, Height: m.Height}, nil
	case "resolution":
		return message.Resolution{PPI: m.PPI}, nil
	case "focus":
		return message.Focus{Enter: m.Enter}, nil
	case "heartbeat":
		return message.Heartbeat{Milliseconds: m.Ms}, nil
	case "redraw":
		return message.Redraw{}, nil
	case "destroy":
		return message.Destroy{}, nil
	case "paint":
		return message.Paint{Layer: message.PaintLayer{
			Element:      engine.Element(m.Element),
			IsForeground: m.Foreground,
		}}, nil
	case "mouse":
		ev, err := message.ParseMouseEvent(m.Event)
		if err != nil {
			return nil, err
		}
		btn, err := message.ParseMouseButton(orDefault(m.Button, "none"))
		if err != nil {
			return nil, err
		}
		mods, err := message.ParseModifiers(m.Modifiers)
		if err != nil {
			return nil, err
		}
		return message.Mouse{Event: ev, Button: btn, Modifiers: mods, Pos: message.Point{X: m.X, Y: m.Y}}, nil
	case "key":
		ev, err := message.ParseKeyEvent(m.Event)
		if err != nil {
			return nil, err
		}
		mods, err := message.ParseModifiers(m.Modifiers)
		if err != nil {
			return nil, err
		}
		return message.Keyboard{Event: ev, KeyCode: m.Code, Modifiers: mods}, nil
	case "create":
		return nil, fmt.Errorf("message create is sent by the session")
	case "":
		return nil, fmt.Errorf("message: missing type")
	}
	return nil, fmt.Errorf("unknown message type %q", m.Type)
}

func (m *MessageSpec) String() string {
	msg, err := m.Message()
	if err != nil {
		return "message " + m.Type
	}
	switch msg := msg.(type) {
	case message.Mouse:
		return msg.String()
	case message.Keyboard:
		return msg.String()
	case message.Size:
		return fmt.Sprintf("size %dx%d", msg.Width, msg.Height)
	case message.Resolution:
		return fmt.Sprintf("resolution %d ppi", msg.PPI)
	case message.Focus:
		if msg.Enter {
			return "focus in"
		}
		return "focus out"
	case message.Heartbeat:
		return fmt.Sprintf("heartbeat %dms", msg.Milliseconds)
	case message.Paint:
		return fmt.Sprintf("paint element %d foreground=%t", msg.Layer.Element, msg.Layer.IsForeground)
	}
	return strings.ToLower(m.Type)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// ParseCommand reads a one-line step as typed in interactive mode:
//
//	size W H | ppi N | focus in|out | redraw | destroy | heartbeat | render
//	mouse EVENT BUTTON X Y [MODS] | click X Y | key EVENT CODE [MODS]
//	paint ELEMENT [fg] | load URI | html TEXT | cancel URI
//	complete URI [DATA] | call NAME [ARG, ...]
//
// Call arguments form a YAML flow sequence, so `call f 1, "a", [1, 2], {k: v}`
// passes four arguments.
func ParseCommand(line string) (Step, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Step{}, fmt.Errorf("empty command")
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	want := func(n int) error {
		if len(args) < n {
			return fmt.Errorf("%s: expected %d arguments", cmd, n)
		}
		return nil
	}
	msg := func(m MessageSpec) (Step, error) {
		st := Step{Message: &m}
		return st, st.validate()
	}

	switch cmd {
	case "size":
		if err := want(2); err != nil {
			return Step{}, err
		}
		w, err := parseUint32(args[0])
		if err != nil {
			return Step{}, err
		}
		h, err := parseUint32(args[1])
		if err != nil {
			return Step{}, err
		}
		return msg(MessageSpec{Type: "size", Width: w, Height: h})
	case "ppi", "resolution":
		if err := want(1); err != nil {
			return Step{}, err
		}
		ppi, err := parseUint32(args[0])
		if err != nil {
			return Step{}, err
		}
		return msg(MessageSpec{Type: "resolution", PPI: ppi})
	case "focus":
		if err := want(1); err != nil {
			return Step{}, err
		}
		return msg(MessageSpec{Type: "focus", Enter: args[0] == "in" || args[0] == "on"})
	case "redraw", "destroy":
		return msg(MessageSpec{Type: cmd})
	case "heartbeat":
		return Step{Heartbeat: true}, nil
	case "render":
		return Step{Render: true}, nil
	case "mouse":
		if err := want(4); err != nil {
			return Step{}, err
		}
		x, y, err := parsePoint(args[2], args[3])
		if err != nil {
			return Step{}, err
		}
		m := MessageSpec{Type: "mouse", Event: args[0], Button: args[1], X: x, Y: y}
		if len(args) > 4 {
			m.Modifiers = args[4]
		}
		return msg(m)
	case "click":
		if err := want(2); err != nil {
			return Step{}, err
		}
		x, y, err := parsePoint(args[0], args[1])
		if err != nil {
			return Step{}, err
		}
		return msg(MessageSpec{Type: "mouse", Event: "click", Button: "left", X: x, Y: y})
	case "key":
		if err := want(2); err != nil {
			return Step{}, err
		}
		code, err := parseUint32(args[1])
		if err != nil {
			return Step{}, err
		}
		m := MessageSpec{Type: "key", Event: args[0], Code: code}
		if len(args) > 2 {
			m.Modifiers = args[2]
		}
		return msg(m)
	case "paint":
		if err := want(1); err != nil {
			return Step{}, err
		}
		el, err := strconv.ParseUint(args[0], 0, 64)
		if err != nil {
			return Step{}, fmt.Errorf("paint: %w", err)
		}
		return msg(MessageSpec{Type: "paint", Element: el, Foreground: len(args) > 1 && args[1] == "fg"})
	case "load":
		if err := want(1); err != nil {
			return Step{}, err
		}
		return Step{File: args[0]}, nil
	case "html":
		if err := want(1); err != nil {
			return Step{}, err
		}
		return Step{HTML: strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))}, nil
	case "cancel":
		if err := want(1); err != nil {
			return Step{}, err
		}
		return Step{Cancel: args[0]}, nil
	case "complete":
		if err := want(1); err != nil {
			return Step{}, err
		}
		c := &CompleteSpec{URI: args[0]}
		if len(args) > 1 {
			data := strings.Join(args[1:], " ")
			c.Data = &data
		}
		return Step{Complete: c}, nil
	case "call":
		if err := want(1); err != nil {
			return Step{}, err
		}
		c := &CallSpec{Name: args[0]}
		if len(args) > 1 {
			rest := strings.Join(args[1:], " ")
			if err := yaml.Unmarshal([]byte("["+rest+"]"), &c.Args); err != nil {
				return Step{}, fmt.Errorf("call %s: %w", c.Name, err)
			}
		}
		st := Step{Call: c}
		return st, st.validate()
	}
	return Step{}, fmt.Errorf("unknown command %q", cmd)
}

func parseUint32(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return uint32(n), nil
}

func parsePoint(xs, ys string) (int32, int32, error) {
	x, err := strconv.ParseInt(xs, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid x %q", xs)
	}
	y, err := strconv.ParseInt(ys, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid y %q", ys)
	}
	return int32(x), int32(y), nil
}
