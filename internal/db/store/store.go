// Package store provides generic create/query operations over a single gorm model.
package store

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotFound is returned when no row matches.
	ErrNotFound = errors.New("record not found")
	// ErrMultipleResults is returned by One when more than one row matches.
	ErrMultipleResults = errors.New("multiple records found")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrInvalidOperator is returned for an unknown filter operator.
	ErrInvalidOperator = errors.New("invalid filter operator")
)

// Entity is a model addressable by a numeric primary key.
type Entity interface {
	PrimaryKey() uint64
}

// Operator compares a column to a value.
type Operator string

// Filter operators.
const (
	OpEq Operator = "eq"
	OpNe Operator = "ne"
	OpGt Operator = "gt"
	OpGe Operator = "ge"
	OpLt Operator = "lt"
	OpLe Operator = "le"
	OpIn Operator = "in"
)

// Filter is a single column predicate. Filters in a list are combined with AND.
// A non-nil Expr is used as is and the other fields are ignored.
type Filter struct {
	Column string
	Op     Operator
	Value  any
	Expr   clause.Expression
}

// Eq is shorthand for an equality filter.
func Eq(column string, value any) Filter {
	return Filter{Column: column, Op: OpEq, Value: value}
}

// Where wraps an arbitrary gorm expression, e.g. clause.Expr or clause.Or.
func Where(expr clause.Expression) Filter {
	return Filter{Expr: expr}
}

// Order sorts by one column.
type Order struct {
	Column string
	Desc   bool
}

// ListOptions controls List. A nil Limit or Offset means unbounded.
type ListOptions struct {
	Filters []Filter
	OrderBy []Order
	Limit   *int
	Offset  *int
}

// Store runs queries for model T.
type Store[T Entity] struct {
	db *gorm.DB
}

// New returns a store for T backed by db.
func New[T Entity](db *gorm.DB) *Store[T] {
	return &Store[T]{db: db}
}

// DB returns the underlying connection.
func (s *Store[T]) DB() *gorm.DB {
	return s.db
}

// WithTx returns a store bound to the transaction tx.
func (s *Store[T]) WithTx(tx *gorm.DB) *Store[T] {
	return &Store[T]{db: tx}
}

func (s *Store[T]) session(ctx context.Context) (*gorm.DB, error) {
	if s == nil || s.db == nil {
		return nil, ErrDBNil
	}

	return s.db.WithContext(ctx), nil
}

// Create inserts entity, filling in its primary key and defaults.
func (s *Store[T]) Create(ctx context.Context, entity *T) error {
	db, err := s.session(ctx)
	if err != nil {
		return err
	}

	if err = db.Create(entity).Error; err != nil {
		return fmt.Errorf("create: %w", err)
	}

	return nil
}

// Save updates every column of entity.
func (s *Store[T]) Save(ctx context.Context, entity *T) error {
	db, err := s.session(ctx)
	if err != nil {
		return err
	}

	if err = db.Save(entity).Error; err != nil {
		return fmt.Errorf("save: %w", err)
	}

	return nil
}

// List returns the entities matching opts.Filters, ordered by opts.OrderBy
// (primary key ascending by default) and sliced by opts.Limit and opts.Offset.
func (s *Store[T]) List(ctx context.Context, opts ListOptions) ([]T, error) {
	db, err := s.session(ctx)
	if err != nil {
		return nil, err
	}

	if opts.Limit != nil && *opts.Limit <= 0 {
		return []T{}, nil
	}

	q, err := applyFilters(db.Model(new(T)), opts.Filters)
	if err != nil {
		return nil, err
	}

	q = applyOrder(q, opts.OrderBy)

	switch {
	case opts.Limit != nil:
		q = q.Limit(*opts.Limit)
	case opts.Offset != nil:
		// some engines reject OFFSET without LIMIT
		q = q.Limit(math.MaxInt32)
	}

	if opts.Offset != nil && *opts.Offset > 0 {
		q = q.Offset(*opts.Offset)
	}

	out := []T{}
	if err = q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}

	return out, nil
}

// One returns the only entity matching filters.
func (s *Store[T]) One(ctx context.Context, filters ...Filter) (*T, error) {
	db, err := s.session(ctx)
	if err != nil {
		return nil, err
	}

	q, err := applyFilters(db.Model(new(T)), filters)
	if err != nil {
		return nil, err
	}

	var found []T
	if err = applyOrder(q, nil).Limit(2).Find(&found).Error; err != nil { //nolint:mnd
		return nil, fmt.Errorf("one: %w", err)
	}

	switch len(found) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return &found[0], nil
	default:
		return nil, ErrMultipleResults
	}
}

// ByID returns the entity with primary key id.
func (s *Store[T]) ByID(ctx context.Context, id uint64) (*T, error) {
	db, err := s.session(ctx)
	if err != nil {
		return nil, err
	}

	var entity T
	if err = db.Where(clause.Eq{Column: primaryKey(), Value: id}).Take(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("by id: %w", err)
	}

	return &entity, nil
}

// ByIDs returns the entities with the given primary keys in the order of ids.
// Unknown ids are skipped, repeated ids repeat the entity.
func (s *Store[T]) ByIDs(ctx context.Context, ids []uint64) ([]T, error) {
	db, err := s.session(ctx)
	if err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return []T{}, nil
	}

	var found []T
	if err = db.Where(clause.IN{Column: primaryKey(), Values: lo.ToAnySlice(ids)}).Find(&found).Error; err != nil {
		return nil, fmt.Errorf("by ids: %w", err)
	}

	byID := make(map[uint64]T, len(found))
	for _, entity := range found {
		byID[entity.PrimaryKey()] = entity
	}

	out := make([]T, 0, len(ids))

	for _, id := range ids {
		if entity, ok := byID[id]; ok {
			out = append(out, entity)
		}
	}

	return out, nil
}

// Count returns the number of entities matching filters.
func (s *Store[T]) Count(ctx context.Context, filters ...Filter) (int64, error) {
	db, err := s.session(ctx)
	if err != nil {
		return 0, err
	}

	q, err := applyFilters(db.Model(new(T)), filters)
	if err != nil {
		return 0, err
	}

	var count int64
	if err = q.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}

	return count, nil
}

// Transaction runs fn inside a database transaction with a store bound to it.
func (s *Store[T]) Transaction(ctx context.Context, fn func(tx *Store[T]) error) error {
	db, err := s.session(ctx)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error { //nolint:wrapcheck
		return fn(s.WithTx(tx))
	})
}

func primaryKey() clause.Column {
	return clause.Column{Table: clause.CurrentTable, Name: clause.PrimaryKey}
}

func applyFilters(q *gorm.DB, filters []Filter) (*gorm.DB, error) {
	for _, f := range filters {
		expr, err := f.expression()
		if err != nil {
			return nil, err
		}

		q = q.Where(expr)
	}

	return q, nil
}

func applyOrder(q *gorm.DB, orders []Order) *gorm.DB {
	if len(orders) == 0 {
		return q.Order(clause.OrderByColumn{Column: primaryKey()})
	}

	for _, o := range orders {
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Table: clause.CurrentTable, Name: o.Column}, Desc: o.Desc})
	}

	// primary key breaks ties so paging is stable
	return q.Order(clause.OrderByColumn{Column: primaryKey()})
}

func (f Filter) expression() (clause.Expression, error) {
	if f.Expr != nil {
		return f.Expr, nil
	}

	col := clause.Column{Table: clause.CurrentTable, Name: f.Column}

	switch f.Op {
	case OpEq, "":
		return clause.Eq{Column: col, Value: f.Value}, nil
	case OpNe:
		return clause.Neq{Column: col, Value: f.Value}, nil
	case OpGt:
		return clause.Gt{Column: col, Value: f.Value}, nil
	case OpGe:
		return clause.Gte{Column: col, Value: f.Value}, nil
	case OpLt:
		return clause.Lt{Column: col, Value: f.Value}, nil
	case OpLe:
		return clause.Lte{Column: col, Value: f.Value}, nil
	case OpIn:
		values, ok := f.Value.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: in expects []any, got %T", ErrInvalidOperator, f.Value)
		}

		return clause.IN{Column: col, Values: values}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidOperator, f.Op)
	}
}
