package command

import "fmt"

// Macro groups commands into one undoable step. Children apply in order and
// revert in reverse; a failing child rolls back the ones already applied.
type Macro struct {
	label    string
	children []Command
}

func NewMacro(label string, children ...Command) (*Macro, error) {
	for i, ch := range children {
		if ch == nil {
			return nil, invalid("macro child %d is nil", i)
		}
	}
	return &Macro{label: label, children: children}, nil
}

func (m *Macro) Label() string { return m.label }

func (m *Macro) Len() int { return len(m.children) }

func (m *Macro) Apply() (Change, error) {
	chg := Change{Label: m.label}
	for i, ch := range m.children {
		c, err := ch.Apply()
		if err != nil {
			for j := i - 1; j >= 0; j-- {
				_, _ = m.children[j].Revert()
			}
			return Change{}, fmt.Errorf("%s: %w", ch.Label(), err)
		}
		chg = chg.Merge(c)
	}
	return chg, nil
}

func (m *Macro) Revert() (Change, error) {
	chg := Change{Label: m.label}
	for i := len(m.children) - 1; i >= 0; i-- {
		ch := m.children[i]
		c, err := ch.Revert()
		if err != nil {
			for j := i + 1; j < len(m.children); j++ {
				_, _ = m.children[j].Apply()
			}
			return Change{}, fmt.Errorf("%s: %w", ch.Label(), err)
		}
		chg = chg.Merge(c)
	}
	return chg, nil
}
