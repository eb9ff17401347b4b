package netlist

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Bus vector notation: a net named DATA[0..7] declares eight member nets
// DATA0..DATA7. Front-ends use it to connect wide ports without naming
// every bit.

var busLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "LBrack", Pattern: `\[`},
	{Name: "RBrack", Pattern: `\]`},
	{Name: "DotDot", Pattern: `\.\.`},
	{Name: "Int", Pattern: `\d+`},
	{Name: "Ident", Pattern: `[^\[\]\s]+`},
})

type busName struct {
	Base  string    `parser:"@(Ident | Int)"`
	Range *busRange `parser:"('[' @@ ']')?"`
}

type busRange struct {
	Lo int `parser:"@Int '..'"`
	Hi int `parser:"@Int"`
}

var busParser = participle.MustBuild[busName](
	participle.Lexer(busLexer),
)

// ParseBusName splits a net name into its base and bit range. Names without
// a range return ok=false with the name unchanged.
func ParseBusName(name string) (base string, lo, hi int, ok bool, err error) {
	if !strings.ContainsRune(name, '[') {
		return name, 0, 0, false, nil
	}
	parsed, perr := busParser.ParseString("", name)
	if perr != nil {
		return name, 0, 0, false, fmt.Errorf("invalid net name %q: %w", name, perr)
	}
	if parsed.Range == nil {
		return parsed.Base, 0, 0, false, nil
	}
	if parsed.Range.Hi < parsed.Range.Lo {
		return name, 0, 0, false, fmt.Errorf("invalid bus range in %q: %d..%d", name, parsed.Range.Lo, parsed.Range.Hi)
	}
	return parsed.Base, parsed.Range.Lo, parsed.Range.Hi, true, nil
}

// ExpandBuses rewrites every bus-vector net in the design into its member
// nets. Nodes are listed port-major: with N members, node i belongs to
// member i%N. The node count of a bus net must be a multiple of the member
// count.
func ExpandBuses(d *Design) error {
	return d.Walk(func(s *Sheet) error {
		var nets []Net
		for _, net := range s.Nets {
			base, lo, hi, ok, err := ParseBusName(net.Name)
			if err != nil {
				return err
			}
			if !ok {
				nets = append(nets, net)
				continue
			}
			width := hi - lo + 1
			if len(net.Nodes)%width != 0 {
				return fmt.Errorf("bus net %q has %d nodes, not a multiple of width %d",
					net.Name, len(net.Nodes), width)
			}
			members := make([]Net, width)
			for i := 0; i < width; i++ {
				members[i].Name = fmt.Sprintf("%s%d", base, lo+i)
			}
			for i, node := range net.Nodes {
				m := i % width
				members[m].Nodes = append(members[m].Nodes, node)
			}
			nets = append(nets, members...)
		}
		s.Nets = nets
		return nil
	})
}
