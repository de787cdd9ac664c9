package macro

// Repeat holds the iterations captured by one repetition node.
type Repeat struct {
	Vars  []string
	Items []map[string]string
}

// covers reports whether every name in refs is one of the repeat's vars.
func (r *Repeat) covers(refs []string) bool {
	for _, ref := range refs {
		found := false
		for _, v := range r.Vars {
			if v == ref {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Bindings is the environment produced by a successful match.
type Bindings struct {
	Scalars map[string]string
	Repeats []Repeat
}

// NewBindings returns an empty environment.
func NewBindings() *Bindings {
	return &Bindings{Scalars: make(map[string]string)}
}

// merge promotes everything captured in scope into b.
func (b *Bindings) merge(scope *Bindings) {
	for k, v := range scope.Scalars {
		b.Scalars[k] = v
	}
	b.Repeats = append(b.Repeats, scope.Repeats...)
}

// addRepeat records a repetition. When it captured at least one item, each
// of its vars that is not yet bound is mirrored as a scalar with the value
// from the first item.
func (b *Bindings) addRepeat(rep Repeat) {
	if len(rep.Items) > 0 {
		first := rep.Items[0]
		for _, v := range rep.Vars {
			if _, bound := b.Scalars[v]; bound {
				continue
			}
			if val, ok := first[v]; ok {
				b.Scalars[v] = val
			}
		}
	}
	b.Repeats = append(b.Repeats, rep)
}

// withItem returns a copy whose scalars are shadowed by one iteration. A var
// the iteration did not capture keeps its outer value, which for a repetition
// var is the first item's mirror.
func (b *Bindings) withItem(item map[string]string) *Bindings {
	scalars := make(map[string]string, len(b.Scalars)+len(item))
	for k, v := range b.Scalars {
		scalars[k] = v
	}
	for k, v := range item {
		scalars[k] = v
	}
	return &Bindings{Scalars: scalars, Repeats: b.Repeats}
}

// findRepeat returns the first repeat whose vars cover refs. Names that no
// repetition captured (outer scalars) are ignored when choosing.
func (b *Bindings) findRepeat(refs []string) *Repeat {
	if len(b.Repeats) == 0 {
		return nil
	}
	if len(refs) == 0 {
		return &b.Repeats[0]
	}

	captured := make(map[string]bool)
	for _, rep := range b.Repeats {
		for _, v := range rep.Vars {
			captured[v] = true
		}
	}
	var wanted []string
	for _, ref := range refs {
		if captured[ref] {
			wanted = append(wanted, ref)
		}
	}
	if len(wanted) == 0 {
		return nil
	}

	for i := range b.Repeats {
		if b.Repeats[i].covers(wanted) {
			return &b.Repeats[i]
		}
	}
	return nil
}
