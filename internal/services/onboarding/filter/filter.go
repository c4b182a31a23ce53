// Package filter translates AIP-160 follow-up filter expressions into SQL.
package filter

import (
	"fmt"
	"strings"
	"time"

	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// Condition is a SQL WHERE fragment with positional parameters.
type Condition struct {
	Clause string
	Params []any
}

// Empty reports whether the condition adds no restriction.
func (c Condition) Empty() bool {
	return strings.TrimSpace(c.Clause) == ""
}

type column struct {
	name string
	kind fieldKind
}

type fieldKind int

const (
	kindString fieldKind = iota
	kindInt
	kindTime
)

var followUpColumns = map[string]column{
	"onboarding_id":    {name: "onboarding_id", kind: kindString},
	"status":           {name: "status", kind: kindString},
	"type":             {name: "follow_up_type", kind: kindString},
	"initiated_by":     {name: "initiated_by", kind: kindString},
	"escalation_level": {name: "escalation_level", kind: kindInt},
	"created_at":       {name: "created_at", kind: kindTime},
}

func followUpDeclarations() (*filtering.Declarations, error) {
	return filtering.NewDeclarations(
		filtering.DeclareStandardFunctions(),
		filtering.DeclareIdent("onboarding_id", filtering.TypeString),
		filtering.DeclareIdent("status", filtering.TypeString),
		filtering.DeclareIdent("type", filtering.TypeString),
		filtering.DeclareIdent("initiated_by", filtering.TypeString),
		filtering.DeclareIdent("escalation_level", filtering.TypeInt),
		filtering.DeclareIdent("created_at", filtering.TypeTimestamp),
	)
}

// ParseFollowUpFilter parses an AIP-160 expression over follow-up fields.
// An empty expression yields an empty condition.
//
// Example: status = "SENT" AND escalation_level >= 1
func ParseFollowUpFilter(raw string) (Condition, error) {
	if strings.TrimSpace(raw) == "" {
		return Condition{}, nil
	}
	decls, err := followUpDeclarations()
	if err != nil {
		return Condition{}, fmt.Errorf("create declarations: %w", err)
	}
	parsed, err := filtering.ParseFilterString(raw, decls)
	if err != nil {
		return Condition{}, fmt.Errorf("parse filter: %w", err)
	}
	return translate(parsed.CheckedExpr.GetExpr())
}

func translate(e *expr.Expr) (Condition, error) {
	if e == nil {
		return Condition{}, nil
	}
	call, ok := e.GetExprKind().(*expr.Expr_CallExpr)
	if !ok {
		return Condition{}, fmt.Errorf("unsupported expression type: %T", e.GetExprKind())
	}
	args := call.CallExpr.GetArgs()
	switch call.CallExpr.GetFunction() {
	case "_&&_", "AND":
		return join(args, "AND")
	case "_||_", "OR":
		return join(args, "OR")
	case "_==_", "=":
		return compare(args, "=")
	case "_!=_", "!=":
		return compare(args, "!=")
	case "_<_", "<":
		return compare(args, "<")
	case "_<=_", "<=":
		return compare(args, "<=")
	case "_>_", ">":
		return compare(args, ">")
	case "_>=_", ">=":
		return compare(args, ">=")
	default:
		return Condition{}, fmt.Errorf("unsupported function: %s", call.CallExpr.GetFunction())
	}
}

func join(args []*expr.Expr, keyword string) (Condition, error) {
	if len(args) != 2 {
		return Condition{}, fmt.Errorf("%s requires 2 arguments", keyword)
	}
	left, err := translate(args[0])
	if err != nil {
		return Condition{}, err
	}
	right, err := translate(args[1])
	if err != nil {
		return Condition{}, err
	}
	params := make([]any, 0, len(left.Params)+len(right.Params))
	params = append(params, left.Params...)
	params = append(params, right.Params...)
	return Condition{
		Clause: fmt.Sprintf("(%s %s %s)", left.Clause, keyword, right.Clause),
		Params: params,
	}, nil
}

func compare(args []*expr.Expr, op string) (Condition, error) {
	if len(args) != 2 {
		return Condition{}, fmt.Errorf("comparison requires 2 arguments")
	}
	ident, ok := args[0].GetExprKind().(*expr.Expr_IdentExpr)
	if !ok {
		return Condition{}, fmt.Errorf("expected field on the left side of %s", op)
	}
	field := ident.IdentExpr.GetName()
	col, ok := followUpColumns[field]
	if !ok {
		return Condition{}, fmt.Errorf("unknown field: %s", field)
	}
	value, err := literal(args[1], col.kind)
	if err != nil {
		return Condition{}, fmt.Errorf("field %s: %w", field, err)
	}
	return Condition{
		Clause: fmt.Sprintf("%s %s ?", col.name, op),
		Params: []any{value},
	}, nil
}

func literal(e *expr.Expr, kind fieldKind) (any, error) {
	switch v := e.GetExprKind().(type) {
	case *expr.Expr_ConstExpr:
		return constant(v.ConstExpr, kind)
	case *expr.Expr_CallExpr:
		if v.CallExpr.GetFunction() == "timestamp" && len(v.CallExpr.GetArgs()) == 1 && kind == kindTime {
			return timestampMillis(v.CallExpr.GetArgs()[0])
		}
		return nil, fmt.Errorf("unsupported function in value position: %s", v.CallExpr.GetFunction())
	default:
		return nil, fmt.Errorf("expected constant, got %T", v)
	}
}

func constant(c *expr.Constant, kind fieldKind) (any, error) {
	switch v := c.GetConstantKind().(type) {
	case *expr.Constant_StringValue:
		if kind != kindString {
			return nil, fmt.Errorf("string value not allowed")
		}
		return v.StringValue, nil
	case *expr.Constant_Int64Value:
		if kind != kindInt {
			return nil, fmt.Errorf("integer value not allowed")
		}
		return v.Int64Value, nil
	default:
		return nil, fmt.Errorf("unsupported constant type: %T", v)
	}
}

func timestampMillis(e *expr.Expr) (int64, error) {
	c, ok := e.GetExprKind().(*expr.Expr_ConstExpr)
	if !ok {
		return 0, fmt.Errorf("timestamp argument must be a constant string")
	}
	raw, ok := c.ConstExpr.GetConstantKind().(*expr.Constant_StringValue)
	if !ok {
		return 0, fmt.Errorf("timestamp argument must be a string")
	}
	parsed, err := time.Parse(time.RFC3339Nano, raw.StringValue)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp format: %s", raw.StringValue)
	}
	return parsed.UTC().UnixMilli(), nil
}
