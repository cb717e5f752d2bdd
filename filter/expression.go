package filter

// Compiled is a validated SearchExpression ready for matching.
// It is immutable and safe for concurrent use.
type Compiled struct {
	op    BooleanOperator
	preds []*Predicate
	subs  []*Compiled
}

// CompileExpression validates every filter of expr against schema and
// returns the compiled tree. Validation is complete before any matching
// happens; the first violation is returned.
//
// Besides the per-filter rules of Compile, the expression as a whole may
// hold at most MaxContainsFilters Contains filters, MaxFilters filters and
// MaxSubExpressions sub-expressions per level, and may nest at most
// MaxExpressionDepth levels.
func CompileExpression(expr SearchExpression, schema *Schema) (*Compiled, error) {
	if n := countContains(expr); n > MaxContainsFilters {
		return nil, &TooManyContainsError{Count: n}
	}
	return compileExpression(expr, schema, 1)
}

func compileExpression(expr SearchExpression, schema *Schema, depth int) (*Compiled, error) {
	if depth > MaxExpressionDepth {
		return nil, &ExpressionLimitError{Limit: "nesting depth", Max: MaxExpressionDepth, Got: depth}
	}
	if len(expr.Filters) > MaxFilters {
		return nil, &ExpressionLimitError{Limit: "filters", Max: MaxFilters, Got: len(expr.Filters)}
	}
	if len(expr.SubExpressions) > MaxSubExpressions {
		return nil, &ExpressionLimitError{Limit: "sub-expressions", Max: MaxSubExpressions, Got: len(expr.SubExpressions)}
	}
	if !expr.Operator.IsValid() {
		return nil, &UnknownOperatorError{Operator: string(expr.Operator)}
	}

	c := &Compiled{
		op:    expr.Operator.Resolve(),
		preds: make([]*Predicate, 0, len(expr.Filters)),
		subs:  make([]*Compiled, 0, len(expr.SubExpressions)),
	}
	for _, f := range expr.Filters {
		p, err := Compile(f, schema)
		if err != nil {
			return nil, err
		}
		c.preds = append(c.preds, p)
	}
	for _, sub := range expr.SubExpressions {
		sc, err := compileExpression(sub, schema, depth+1)
		if err != nil {
			return nil, err
		}
		c.subs = append(c.subs, sc)
	}
	return c, nil
}

func countContains(expr SearchExpression) int {
	n := 0
	for _, f := range expr.Filters {
		if f.Operator == OpContains {
			n++
		}
	}
	for _, sub := range expr.SubExpressions {
		n += countContains(sub)
	}
	return n
}

// Match reports whether src satisfies the expression.
// An empty expression (or level) matches everything.
func (c *Compiled) Match(src PropertySource) bool {
	if c == nil || c.isEmpty() {
		return true
	}
	if c.op == Or {
		for _, p := range c.preds {
			if p.Match(src) {
				return true
			}
		}
		for _, s := range c.subs {
			if s.Match(src) {
				return true
			}
		}
		return false
	}
	for _, p := range c.preds {
		if !p.Match(src) {
			return false
		}
	}
	for _, s := range c.subs {
		if !s.Match(src) {
			return false
		}
	}
	return true
}

func (c *Compiled) isEmpty() bool {
	return len(c.preds) == 0 && len(c.subs) == 0
}

// Operator returns the resolved boolean operator.
func (c *Compiled) Operator() BooleanOperator { return c.op }

// Predicates returns the filters of this level.
func (c *Compiled) Predicates() []*Predicate { return c.preds }

// SubExpressions returns the nested levels.
func (c *Compiled) SubExpressions() []*Compiled { return c.subs }

// PropertyNames returns every property name referenced anywhere in the tree,
// in first-seen order.
func (c *Compiled) PropertyNames() []string {
	seen := make(map[string]bool)
	var out []string
	var walk func(*Compiled)
	walk = func(n *Compiled) {
		for _, p := range n.preds {
			if !seen[p.name] {
				seen[p.name] = true
				out = append(out, p.name)
			}
		}
		for _, s := range n.subs {
			walk(s)
		}
	}
	if c != nil {
		walk(c)
	}
	return out
}
