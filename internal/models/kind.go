package models

// Kind identifies a synchronized entity type. Kind values are used as map
// keys in the push/pull wire format, so they must stay stable.
type Kind string

const (
	KindTransaction Kind = "transaction"
	KindCategory    Kind = "category"
	KindBudget      Kind = "budget"
	KindAllocation  Kind = "allocation"
)

// Kinds lists every synchronized entity kind in sync-round order.
func Kinds() []Kind {
	return []Kind{KindTransaction, KindCategory, KindBudget, KindAllocation}
}
