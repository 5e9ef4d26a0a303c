package extension

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ctyToGo converts a known cty value into plain Go data:
// string, float64, bool, []any, map[string]any, or nil.
func ctyToGo(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		var f float64
		e := gocty.FromCtyValue(v, &f)
		if e != nil {
			return nil, fmt.Errorf("cannot convert number: %w", e)
		}
		return f, nil

	case ty == cty.Bool:
		return v.True(), nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		result := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			x, e := ctyToGo(ev)
			if e != nil {
				return nil, e
			}
			result = append(result, x)
		}
		return result, nil

	case ty.IsObjectType() || ty.IsMapType():
		result := make(map[string]any)
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			x, e := ctyToGo(ev)
			if e != nil {
				return nil, fmt.Errorf("in %q: %w", k.AsString(), e)
			}
			result[k.AsString()] = x
		}
		return result, nil
	}

	return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
}

// goToCty converts plain Go data, including maps decoded from YAML, into a cty value.
func goToCty(x any) (cty.Value, error) {
	switch x := x.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case string:
		return cty.StringVal(x), nil
	case bool:
		return cty.BoolVal(x), nil
	case int:
		return cty.NumberIntVal(int64(x)), nil
	case int64:
		return cty.NumberIntVal(x), nil
	case uint64:
		return cty.NumberVal(new(big.Float).SetUint64(x)), nil
	case float64:
		return cty.NumberFloatVal(x), nil

	case []any:
		if len(x) == 0 {
			return cty.EmptyTupleVal, nil
		}
		vals := make([]cty.Value, len(x))
		for i, item := range x {
			v, e := goToCty(item)
			if e != nil {
				return cty.NilVal, e
			}
			vals[i] = v
		}
		return cty.TupleVal(vals), nil

	case map[string]any:
		return objectToCty(x)

	case map[any]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			ks, is := k.(string)
			if !is {
				return cty.NilVal, fmt.Errorf("non-string key %v", k)
			}
			m[ks] = v
		}
		return objectToCty(m)
	}

	ty, e := gocty.ImpliedType(x)
	if e != nil {
		return cty.NilVal, fmt.Errorf("unsupported value %T: %w", x, e)
	}
	return gocty.ToCtyValue(x, ty)
}

func objectToCty(m map[string]any) (cty.Value, error) {
	if len(m) == 0 {
		return cty.EmptyObjectVal, nil
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make(map[string]cty.Value, len(m))
	for _, k := range keys {
		v, e := goToCty(m[k])
		if e != nil {
			return cty.NilVal, fmt.Errorf("in %q: %w", k, e)
		}
		attrs[k] = v
	}
	return cty.ObjectVal(attrs), nil
}
