package graph

import (
	"depscope/internal/core/errors"
)

// CheckSymmetry verifies that every forward edge has its reverse counterpart
// and the other way round. A violation is a builder bug.
func CheckSymmetry(g Graph) error {
	for _, id := range g.NodeIDs() {
		for _, to := range g.Forward(id) {
			if !contains(g.Reverse(to), id) {
				return errors.AddContext(
					errors.Newf(errors.CodeInvariantViolation, "edge %s -> %s has no reverse entry", id, to),
					errors.CtxNode, id)
			}
		}
		for _, from := range g.Reverse(id) {
			if !contains(g.Forward(from), id) {
				return errors.AddContext(
					errors.Newf(errors.CodeInvariantViolation, "reverse entry %s <- %s has no forward edge", id, from),
					errors.CtxNode, id)
			}
		}
	}
	return nil
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
