package enums

// CartMutation names a cart operation for metrics and logs.
type CartMutation string

const (
	CartMutationAdd        CartMutation = "add_item"
	CartMutationRemove     CartMutation = "remove_item"
	CartMutationQuantity   CartMutation = "update_quantity"
	CartMutationVisibility CartMutation = "set_visibility"
	CartMutationEnd        CartMutation = "end_session"
)

// String implements fmt.Stringer.
func (c CartMutation) String() string {
	return string(c)
}
