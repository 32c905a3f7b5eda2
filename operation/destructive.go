package operation

// Narrows reports whether changing a column from old to c may lose data:
// a type change, becoming required, or a smaller length, precision or scale.
func (c ColumnSpec) Narrows(old ColumnSpec) bool {
	switch {
	case c.ClrType != old.ClrType, c.ColumnType != old.ColumnType:
		return true
	case old.IsNullable && !c.IsNullable:
		return true
	case shrinks(c.MaxLength, old.MaxLength), shrinks(c.Precision, old.Precision), shrinks(c.Scale, old.Scale):
		return true
	default:
		return false
	}
}

// shrinks reports whether a limit was introduced or lowered.
func shrinks(now, was *int) bool {
	switch {
	case now == nil:
		return false
	case was == nil:
		return true
	default:
		return *now < *was
	}
}

// MarkDestructive sets IsDestructiveChange on operations that may lose
// data: dropped tables and columns, and narrowing column changes.
func MarkDestructive(op Operation) {
	switch op := op.(type) {
	case *DropTable, *DropColumn:
		op.Meta().IsDestructiveChange = true
	case *AlterColumn:
		op.IsDestructiveChange = op.ColumnSpec.Narrows(op.Old)
	}
}
