package engine

import (
	"context"
	"errors"
	"fmt"
)

// Option is one selectable value for a foreign key column.
type Option struct {
	Value any    `json:"value"`
	Label any    `json:"label"`
	Data  Record `json:"data"`
}

type ForeignKeyOptions struct {
	Options       []Option `json:"options"`
	DisplayColumn string   `json:"displayColumn"`
	ValueColumn   string   `json:"valueColumn"`
}

// ForeignKeyOptions lists the rows a foreign key column may point at,
// labelled by the referenced table's display column.
func (s *Service) ForeignKeyOptions(ctx context.Context, table, column string) (*ForeignKeyOptions, error) {
	schema, err := s.Schema(ctx, table)
	if err != nil {
		return nil, err
	}
	fk := schema.ForeignKey(column)
	if fk == nil {
		return nil, NotForeignKeyError(table, column)
	}

	foreign, err := s.Schema(ctx, fk.ForeignTableName)
	if err != nil {
		if errors.Is(err, ErrSchema) {
			return nil, SchemaError(fmt.Sprintf("Foreign key %s.%s references unknown table %s",
				table, column, fk.ForeignTableName), err)
		}
		return nil, err
	}
	display := foreign.DisplayColumn()
	if display == "" {
		display = fk.ForeignColumnName
	}

	result, err := s.Read(ctx, fk.ForeignTableName, ListOptions{
		Page:               1,
		Limit:              s.limits.OptionsLimit,
		OrderBy:            display,
		DisableAutoInclude: true,
	})
	if err != nil {
		return nil, err
	}

	opts := make([]Option, 0, len(result.Data))
	for _, row := range result.Data {
		value := row[fk.ForeignColumnName]
		label := row[display]
		if isEmptyValue(label) {
			label = value
		}
		opts = append(opts, Option{Value: value, Label: label, Data: row})
	}

	return &ForeignKeyOptions{
		Options:       opts,
		DisplayColumn: display,
		ValueColumn:   fk.ForeignColumnName,
	}, nil
}
