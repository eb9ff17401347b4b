package netlist

// Flat is the aggregated, sheet-independent view of a design: every
// component in the tree plus all nets merged by name. This is the
// interchange the PCB synchronizer consumes, so PCB sync never has to look
// at schematic files.
type Flat struct {
	Components []Component
	Nets       []Net
}

// Flatten aggregates the sheet tree. Nets with the same name on different
// sheets merge into one net; component order follows the sheet walk so the
// output is deterministic.
func Flatten(d *Design) *Flat {
	flat := &Flat{}
	netIndex := make(map[string]int)

	d.Walk(func(s *Sheet) error {
		flat.Components = append(flat.Components, s.Components...)
		for _, net := range s.Nets {
			i, ok := netIndex[net.Name]
			if !ok {
				netIndex[net.Name] = len(flat.Nets)
				flat.Nets = append(flat.Nets, Net{Name: net.Name, Nodes: append([]NetNode(nil), net.Nodes...)})
				continue
			}
			flat.Nets[i].Nodes = append(flat.Nets[i].Nodes, net.Nodes...)
		}
		return nil
	})
	return flat
}

// NetOf returns the net name a given pin belongs to, if any. Within one
// design a pin belongs to at most one net.
func (f *Flat) NetOf(ref, pin string) (string, bool) {
	for _, net := range f.Nets {
		for _, node := range net.Nodes {
			if node.Ref == ref && node.Pin == pin {
				return net.Name, true
			}
		}
	}
	return "", false
}
