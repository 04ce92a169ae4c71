// Package probe checks single targets and fans out a whole target list.
package probe

// Match selects how a HTTP response body is validated.
type Match int

const (
	Contains Match = iota // body contains Expected
	Equals                // trimmed body equals Expected
)

// Validator validates the body of a HTTP check.
type Validator struct {
	Match    Match
	Expected string
}

// Kind is the variant of a Target.
type Kind int

const (
	KindHost Kind = iota
	KindHTTP
)

// Target is a single unit to be probed in a cycle.
type Target struct {
	kind      Kind
	name      string
	address   string
	url       string
	validator Validator
}

// Host returns a target probed by a HostProbe.
func Host(address string) Target {
	return Target{kind: KindHost, name: address, address: address}
}

// HTTPCheck returns a target probed by fetching url and validating the body.
func HTTPCheck(name, url string, v Validator) Target {
	return Target{kind: KindHTTP, name: name, url: url, validator: v}
}

// Fixed targets of the connectivity monitor.
var (
	AppleCaptivePortal = HTTPCheck("Apple", "http://captive.apple.com/hotspot-detect.html", Validator{
		Match:    Contains,
		Expected: "Success",
	})
	MicrosoftNCSI = HTTPCheck("Microsoft", "http://www.msftncsi.com/ncsi.txt", Validator{
		Match:    Equals,
		Expected: "Microsoft NCSI",
	})
)

func (t Target) Kind() Kind           { return t.kind }
func (t Target) Name() string         { return t.name }
func (t Target) Address() string      { return t.address }
func (t Target) URL() string          { return t.url }
func (t Target) Validator() Validator { return t.validator }

// Outcome is the result of probing one target in one cycle. An empty IP
// means the responding address is unknown.
type Outcome struct {
	Name string `json:"name"`
	Up   bool   `json:"up"`
	IP   string `json:"ip,omitempty"`
}
