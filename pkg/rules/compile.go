package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/autobrr/qmaint/pkg/config"
	"github.com/autobrr/qmaint/pkg/sliceutils"
	"github.com/autobrr/qmaint/pkg/torrent"
)

type operator string

const (
	opEquals      operator = "equals"
	opNotEquals   operator = "notEquals"
	opContains    operator = "contains"
	opGreaterThan operator = "greaterThan"
	opLessThan    operator = "lessThan"
	opMatchesAny  operator = "matchesAny"
)

type compiledCondition struct {
	attribute string
	spec      attributeSpec
	op        operator

	str  string
	num  float64
	list []string
}

// CompiledRule is a rule whose predicate set has been validated against the
// closed attribute/operator table. Compilation happens at load time; a rule
// that fails to compile is skipped, never evaluated reflectively.
type CompiledRule struct {
	Name       string
	Priority   int
	Seq        int
	conditions []compiledCondition

	cfg config.RuleConfiguration
}

// Compile validates one rule definition. seq is the rule's definition order,
// used to break priority ties (first defined wins).
func Compile(rc config.RuleConfiguration, seq int) (*CompiledRule, error) {
	if err := rc.Validate(); err != nil {
		return nil, err
	}

	cr := &CompiledRule{
		Name:     rc.Name,
		Priority: rc.Priority,
		Seq:      seq,
		cfg:      rc,
	}

	for i, cond := range rc.Conditions {
		cc, err := compileCondition(cond)
		if err != nil {
			return nil, fmt.Errorf("condition %d: %w", i+1, err)
		}
		cr.conditions = append(cr.conditions, cc)
	}

	return cr, nil
}

func compileCondition(cond config.ConditionConfiguration) (compiledCondition, error) {
	spec, ok := attributes[cond.Attribute]
	if !ok {
		return compiledCondition{}, fmt.Errorf("unknown attribute %q", cond.Attribute)
	}

	op := operator(cond.Operator)
	cc := compiledCondition{attribute: cond.Attribute, spec: spec, op: op}

	switch op {
	case opEquals, opNotEquals, opContains:
		switch spec.kind {
		case kindNumber:
			if op == opContains {
				return compiledCondition{}, fmt.Errorf("operator %q not valid for numeric attribute %q", op, cond.Attribute)
			}
			n, err := toNumber(cond.Value)
			if err != nil {
				return compiledCondition{}, fmt.Errorf("attribute %q: %w", cond.Attribute, err)
			}
			cc.num = n
		default:
			s, err := toString(cond.Value)
			if err != nil {
				return compiledCondition{}, fmt.Errorf("attribute %q: %w", cond.Attribute, err)
			}
			cc.str = s
		}

	case opGreaterThan, opLessThan:
		if spec.kind != kindNumber {
			return compiledCondition{}, fmt.Errorf("operator %q requires a numeric attribute, %q is not", op, cond.Attribute)
		}
		n, err := toNumber(cond.Value)
		if err != nil {
			return compiledCondition{}, fmt.Errorf("attribute %q: %w", cond.Attribute, err)
		}
		cc.num = n

	case opMatchesAny:
		if spec.kind == kindNumber {
			return compiledCondition{}, fmt.Errorf("operator %q not valid for numeric attribute %q", op, cond.Attribute)
		}
		list, err := toStringList(cond.Value)
		if err != nil {
			return compiledCondition{}, fmt.Errorf("attribute %q: %w", cond.Attribute, err)
		}
		cc.list = list

	default:
		return compiledCondition{}, fmt.Errorf("unknown operator %q", cond.Operator)
	}

	return cc, nil
}

// Match evaluates the predicate set against one snapshot. Pure and
// deterministic; a rule with zero conditions matches every torrent.
func (r *CompiledRule) Match(t *torrent.Torrent) bool {
	for _, c := range r.conditions {
		if !c.match(t) {
			return false
		}
	}
	return true
}

func (c *compiledCondition) match(t *torrent.Torrent) bool {
	switch c.spec.kind {
	case kindNumber:
		v := c.spec.num(t)
		switch c.op {
		case opEquals:
			return v == c.num
		case opNotEquals:
			return v != c.num
		case opGreaterThan:
			return v > c.num
		case opLessThan:
			return v < c.num
		}

	case kindString:
		v := c.spec.str(t)
		switch c.op {
		case opEquals:
			return strings.EqualFold(v, c.str)
		case opNotEquals:
			return !strings.EqualFold(v, c.str)
		case opContains:
			return strings.Contains(strings.ToLower(v), strings.ToLower(c.str))
		case opMatchesAny:
			for _, want := range c.list {
				if strings.EqualFold(v, want) {
					return true
				}
			}
			return false
		}

	case kindSet:
		values := c.spec.set(t)
		switch c.op {
		case opEquals, opContains:
			return setContains(values, c.str, c.spec.substring)
		case opNotEquals:
			return !setContains(values, c.str, c.spec.substring)
		case opMatchesAny:
			for _, want := range c.list {
				if setContains(values, want, c.spec.substring) {
					return true
				}
			}
			return false
		}
	}

	return false
}

func setContains(values []string, want string, substring bool) bool {
	if substring {
		w := strings.ToLower(want)
		for _, v := range values {
			if strings.Contains(strings.ToLower(v), w) {
				return true
			}
		}
		return false
	}

	return sliceutils.StringSliceContains(values, want, true)
}

func toNumber(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not numeric", n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("value %v is not numeric", v)
	}
}

func toString(v interface{}) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(s), nil
	case bool:
		return strconv.FormatBool(s), nil
	default:
		return "", fmt.Errorf("value %v is not a string", v)
	}
}

func toStringList(v interface{}) ([]string, error) {
	switch l := v.(type) {
	case []string:
		return l, nil
	case []interface{}:
		out := make([]string, 0, len(l))
		for _, e := range l {
			s, err := toString(e)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		parts := strings.Split(l, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts, nil
	default:
		return nil, fmt.Errorf("value %v is not a list", v)
	}
}
