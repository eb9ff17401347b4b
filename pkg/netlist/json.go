package netlist

import (
	"encoding/json"
	"fmt"
	"os"
)

// JSON encoding of a Design, used as the hand-off format from the
// circuit-description front-end to the ots CLI.

type jsonSheet struct {
	File       string          `json:"file"`
	Name       string          `json:"name"`
	Components []jsonComponent `json:"components,omitempty"`
	Nets       []jsonNet       `json:"nets,omitempty"`
	Children   []*jsonSheet    `json:"children,omitempty"`
}

type jsonComponent struct {
	Reference  string      `json:"reference"`
	LibID      string      `json:"lib_id"`
	Value      string      `json:"value,omitempty"`
	Footprint  string      `json:"footprint,omitempty"`
	Pins       []string    `json:"pins,omitempty"`
	Properties [][2]string `json:"properties,omitempty"`
}

type jsonNet struct {
	Name  string      `json:"name"`
	Nodes [][2]string `json:"nodes"`
}

// MarshalJSON encodes the design as a nested sheet tree.
func (d *Design) MarshalJSON() ([]byte, error) {
	return json.Marshal(toJSONSheet(d.Root))
}

// UnmarshalJSON decodes a design from its nested sheet tree form.
func (d *Design) UnmarshalJSON(data []byte) error {
	var root jsonSheet
	if err := json.Unmarshal(data, &root); err != nil {
		return err
	}
	d.Root = fromJSONSheet(&root)
	return nil
}

// LoadFile reads a design from a JSON file.
func LoadFile(path string) (*Design, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var d Design
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("netlist %s: %w", path, err)
	}
	if d.Root == nil {
		return nil, fmt.Errorf("netlist %s: empty design", path)
	}
	return &d, nil
}

// SaveFile writes the design as indented JSON.
func (d *Design) SaveFile(path string) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func toJSONSheet(s *Sheet) *jsonSheet {
	if s == nil {
		return nil
	}
	js := &jsonSheet{File: s.File, Name: s.Name}
	for _, c := range s.Components {
		jc := jsonComponent{
			Reference: c.Reference,
			LibID:     c.LibID,
			Value:     c.Value,
			Footprint: c.Footprint,
			Pins:      c.Pins,
		}
		if c.Properties != nil {
			for _, k := range c.Properties.Keys() {
				v, _ := c.Properties.Get(k)
				jc.Properties = append(jc.Properties, [2]string{k, v})
			}
		}
		js.Components = append(js.Components, jc)
	}
	for _, n := range s.Nets {
		jn := jsonNet{Name: n.Name}
		for _, node := range n.Nodes {
			jn.Nodes = append(jn.Nodes, [2]string{node.Ref, node.Pin})
		}
		js.Nets = append(js.Nets, jn)
	}
	for _, child := range s.Children {
		js.Children = append(js.Children, toJSONSheet(child))
	}
	return js
}

func fromJSONSheet(js *jsonSheet) *Sheet {
	if js == nil {
		return nil
	}
	s := &Sheet{File: js.File, Name: js.Name}
	for _, jc := range js.Components {
		c := Component{
			Reference: jc.Reference,
			LibID:     jc.LibID,
			Value:     jc.Value,
			Footprint: jc.Footprint,
			Pins:      jc.Pins,
		}
		if len(jc.Properties) > 0 {
			c.Properties = NewPropertyBag()
			for _, kv := range jc.Properties {
				c.Properties.Set(kv[0], kv[1])
			}
		}
		s.Components = append(s.Components, c)
	}
	for _, jn := range js.Nets {
		n := Net{Name: jn.Name}
		for _, node := range jn.Nodes {
			n.Nodes = append(n.Nodes, NetNode{Ref: node[0], Pin: node[1]})
		}
		s.Nets = append(s.Nets, n)
	}
	for _, child := range js.Children {
		s.Children = append(s.Children, fromJSONSheet(child))
	}
	return s
}
