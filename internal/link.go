package internal

import "slices"

// link records that sub read dep at the given version.
// Reading the same dependency twice in one evaluation is a no-op.
func (r *Runtime) link(subID NodeID, sub *node, depID NodeID, dep *node) {
	// dont link if already present as the most recent dependency
	if l := len(sub.deps); l > 0 && sub.deps[l-1] == depID {
		return
	}
	if slices.Contains(sub.deps, depID) {
		return
	}

	sub.deps = append(sub.deps, depID)
	sub.depVersions = append(sub.depVersions, dep.version)

	if !slices.Contains(dep.subs, subID) {
		dep.subs = append(dep.subs, subID)
	}

	if dep.height >= sub.height {
		sub.height = dep.height + 1
	}
}

// unlinkDeps removes sub from the subscriber list of everything it depends on.
func (r *Runtime) unlinkDeps(subID NodeID, sub *node) {
	for _, depID := range sub.deps {
		if dep := r.store.get(depID); dep != nil {
			dep.subs = removeID(dep.subs, subID)
		}
	}

	sub.deps = sub.deps[:0]
	sub.depVersions = sub.depVersions[:0]
	sub.height = 0
}

// unlinkSubs removes dep from the dependency list of everything subscribed to it.
func (r *Runtime) unlinkSubs(depID NodeID, dep *node) {
	for _, subID := range dep.subs {
		sub := r.store.get(subID)
		if sub == nil {
			continue
		}

		if i := slices.Index(sub.deps, depID); i >= 0 {
			sub.deps = slices.Delete(sub.deps, i, i+1)
			sub.depVersions = slices.Delete(sub.depVersions, i, i+1)
		}
	}

	dep.subs = nil
}

func removeID(ids []NodeID, id NodeID) []NodeID {
	if i := slices.Index(ids, id); i >= 0 {
		return slices.Delete(ids, i, i+1)
	}
	return ids
}
