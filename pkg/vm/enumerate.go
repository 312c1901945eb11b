package vm

// Delete-safe enumeration for the for-in statement (12.6). Enumerate
// computes the full name list up front: a name is included when the
// shallowest property of that name along the prototype chain is
// enumerable. The iterator must still re-check HasProperty per step so
// that properties deleted mid-iteration are skipped; both back-ends do.

type enumEntry struct {
	name     *String
	dontEnum bool
	depth    int
}

// Enumerate returns the enumerable property names reachable from o,
// deduplicated with shallowest-wins semantics.
func Enumerate(i *Interpreter, o Object) []*String {
	var entries []enumEntry
	depth := 0
	for cur := o; cur != nil; cur = cur.Proto() {
		for _, k := range cur.OwnKeys() {
			entries = append(entries, enumEntry{name: i.Intern(k.Name), dontEnum: k.DontEnum, depth: depth})
		}
		depth++
	}

	shallowest := make(map[*String]enumEntry, len(entries))
	var order []*String
	for _, e := range entries {
		if have, ok := shallowest[e.name]; ok {
			if e.depth < have.depth {
				shallowest[e.name] = e
			}
			continue
		}
		shallowest[e.name] = e
		order = append(order, e.name)
	}

	var res []*String
	for _, name := range order {
		if !shallowest[name].dontEnum {
			res = append(res, name)
		}
	}
	return res
}
