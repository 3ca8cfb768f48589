package hcl

import (
	"fmt"
	"math/big"

	"github.com/vk/reportgrid/internal/model"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ctyToGo converts a dynamic cty value into plain Go values: strings,
// int64 or float64 numbers, bools, []any and map[string]any.
func ctyToGo(val cty.Value) (any, error) {
	if val.IsNull() {
		return nil, nil
	}
	if !val.IsKnown() {
		return nil, fmt.Errorf("value is not known at load time")
	}

	ty := val.Type()
	switch {
	case ty == cty.String:
		var s string
		err := gocty.FromCtyValue(val, &s)
		return s, err
	case ty == cty.Bool:
		var b bool
		err := gocty.FromCtyValue(val, &b)
		return b, err
	case ty == cty.Number:
		bf := val.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return i, nil
			}
		}
		f, _ := bf.Float64()
		return f, nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := make([]any, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			gv, err := ctyToGo(v)
			if err != nil {
				return nil, err
			}
			out = append(out, gv)
		}
		return out, nil
	case ty.IsMapType() || ty.IsObjectType():
		out := make(map[string]any, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			gv, err := ctyToGo(v)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = gv
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
	}
}

// userParameters converts a `user_parameters` object into its two level
// map form.
func userParameters(val *cty.Value) (model.UserParameters, error) {
	if val == nil || val.IsNull() {
		return nil, nil
	}
	raw, err := ctyToGo(*val)
	if err != nil {
		return nil, err
	}
	byQuery, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("user_parameters must be an object keyed by query id")
	}
	out := make(model.UserParameters, len(byQuery))
	for queryID, params := range byQuery {
		p, ok := params.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("user_parameters.%s must be an object keyed by parameter name", queryID)
		}
		out[queryID] = p
	}
	return out, nil
}
