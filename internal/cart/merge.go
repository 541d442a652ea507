package cart

import "github.com/TienxDun/DigiBook-sub002/internal/domain"

// MergeStrategy names how a local (pre-sign-in) cart and the remote mirror
// are combined at sign-in. The choice is deliberate and caller-visible;
// nothing merges silently.
type MergeStrategy string

const (
	// RemoteWins replaces the local cart whenever the remote one is
	// non-empty. Local-only additions made before signing in are dropped.
	RemoteWins MergeStrategy = "remote_wins"
	// LocalWins keeps the local cart unless it is empty.
	LocalWins MergeStrategy = "local_wins"
	// SumQuantities unions both carts and adds quantities for shared books.
	SumQuantities MergeStrategy = "sum_quantities"
)

// Merge combines the two carts per the strategy. Selection is recomputed from
// the surviving lines: a line selected on either side stays selected.
func Merge(local, remote domain.Cart, strategy MergeStrategy) domain.Cart {
	switch strategy {
	case LocalWins:
		if local.IsEmpty() {
			return remote.Clone()
		}
		return local.Clone()
	case SumQuantities:
		return sumQuantities(local, remote)
	default: // RemoteWins
		if remote.IsEmpty() {
			return local.Clone()
		}
		return remote.Clone()
	}
}

func sumQuantities(local, remote domain.Cart) domain.Cart {
	out := remote.Clone()
	for _, l := range local.Lines {
		if i, existing := out.Line(l.BookID); i >= 0 {
			existing.Quantity += l.Quantity
		} else {
			out.Lines = append(out.Lines, l)
		}
		if local.IsSelected(l.BookID) {
			out.Select(l.BookID)
		}
	}
	return out
}
