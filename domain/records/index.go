package records

// IndexName is the logical name of a table index. The physical index names
// are configurable; stores map these to them.
type IndexName string

const (
	PrimaryIndex      IndexName = ""
	GSI1              IndexName = "GSI1"
	StatusIndex       IndexName = "StatusIndex"
	ReviewStatusIndex IndexName = "ReviewStatusIndex"
)

// KeyAttributes returns the partition and sort attribute names of the index.
func (i IndexName) KeyAttributes() (string, string) {
	switch i {
	case GSI1:
		return AttrGSI1PK, AttrGSI1SK
	case StatusIndex:
		return AttrStatus, AttrCreatedAt
	case ReviewStatusIndex:
		return AttrReviewStatus, AttrCreatedAt
	default:
		return AttrPK, AttrSK
	}
}

// Query selects items of one partition of an index.
type Query struct {
	Index          IndexName
	PartitionValue string
	// SortPrefix restricts results with begins_with on the sort attribute.
	SortPrefix string
	// SortEquals restricts results to one sort attribute value.
	SortEquals string
	// Filter keeps only items whose attributes equal every given value.
	Filter map[string]any
}

// Condition guards a write. All set clauses must hold.
type Condition struct {
	MustExist    bool
	MustNotExist bool
	Equals       map[string]any
	// LessThan holds when the stored attribute is strictly below the value.
	LessThan map[string]any
}

// IsZero reports whether c has no clauses.
func (c Condition) IsZero() bool {
	return !c.MustExist && !c.MustNotExist && len(c.Equals) == 0 && len(c.LessThan) == 0
}

// Update sets attributes on an existing item.
type Update struct {
	Key       KeyPair
	Set       map[string]any
	Condition Condition
}

// TransactItem is one write of an all-or-nothing transaction. Exactly one of
// Put and Update is set.
type TransactItem struct {
	Put          *Record
	PutCondition Condition
	Update       *Update
}
