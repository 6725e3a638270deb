package sqlite

import (
	"encoding/json"
	"fmt"

	"github.com/specialistvlad/charsmith/internal/content"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// mutatorRow is the stored form of a content.MutatorSpec. DependsOn keeps the
// difference between null (unconstrained) and an empty list.
type mutatorRow struct {
	Name      string          `json:"name,omitempty"`
	Kind      string          `json:"kind"`
	DependsOn []string        `json:"depends_on"`
	MinLevel  int             `json:"min_level,omitempty"`
	ArgsType  json.RawMessage `json:"args_type,omitempty"`
	Args      json.RawMessage `json:"args,omitempty"`
}

func encodeMutators(specs []content.MutatorSpec) (string, error) {
	rows := make([]mutatorRow, 0, len(specs))
	for _, s := range specs {
		row := mutatorRow{Name: s.Name, Kind: s.Kind, DependsOn: s.DependsOn, MinLevel: s.MinLevel}
		if !s.Args.IsNull() {
			ty, err := ctyjson.MarshalType(s.Args.Type())
			if err != nil {
				return "", fmt.Errorf("encode %s args type: %w", s.Kind, err)
			}
			val, err := ctyjson.Marshal(s.Args, s.Args.Type())
			if err != nil {
				return "", fmt.Errorf("encode %s args: %w", s.Kind, err)
			}
			row.ArgsType, row.Args = ty, val
		}
		rows = append(rows, row)
	}
	buf, err := json.Marshal(rows)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

func decodeMutators(raw string) ([]content.MutatorSpec, error) {
	var rows []mutatorRow
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		return nil, fmt.Errorf("decode mutators: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	specs := make([]content.MutatorSpec, 0, len(rows))
	for _, row := range rows {
		s := content.MutatorSpec{Name: row.Name, Kind: row.Kind, DependsOn: row.DependsOn, MinLevel: row.MinLevel}
		if len(row.ArgsType) > 0 {
			ty, err := ctyjson.UnmarshalType(row.ArgsType)
			if err != nil {
				return nil, fmt.Errorf("decode %s args type: %w", row.Kind, err)
			}
			s.Args, err = ctyjson.Unmarshal(row.Args, ty)
			if err != nil {
				return nil, fmt.Errorf("decode %s args: %w", row.Kind, err)
			}
		}
		specs = append(specs, s)
	}
	return specs, nil
}
